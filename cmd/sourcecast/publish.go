package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/core"
	"pkt.systems/sourcecast/httpapi"
	"pkt.systems/sourcecast/schema"
)

func newPublishCmd() *cobra.Command {
	var cfgPath string
	var req schema.PublishRecordingRequest
	var uid string
	cmd := &cobra.Command{
		Use:   "publish SESSION",
		Short: "Publish a stored session to the sourcecast index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openRecordStore(cmd.Context(), cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			svc, err := core.NewService(cfg.ServiceConfig(), core.ServiceDeps{
				Recordings: store,
				Logger:     pslog.Ctx(cmd.Context()),
			})
			if err != nil {
				return err
			}
			req.SessionID = schema.SessionID(args[0])
			req.UID = schema.SourcecastUID(strings.TrimSpace(uid))
			resp, err := svc.PublishRecording(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "uid: %s\n", resp.UID)
			if cfg.Sourcecast.BaseURL != "" {
				_, _ = fmt.Fprintf(out, "url: %s\n", httpapi.ShareURL(cfg.Sourcecast.BaseURL, cfg.HTTP.BasePath, resp.UID))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&req.Title, "title", "", "sourcecast title")
	cmd.Flags().StringVar(&req.Description, "description", "", "sourcecast description")
	cmd.Flags().StringVar(&req.AudioURL, "audio-url", "", "narration audio URL")
	cmd.Flags().StringVar(&uid, "uid", "", "republish under an existing uid")
	return cmd
}
