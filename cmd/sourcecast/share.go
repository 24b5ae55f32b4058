package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/httpapi"
	"pkt.systems/sourcecast/schema"
)

func newShareCmd() *cobra.Command {
	var cfgPath string
	var noQR bool
	cmd := &cobra.Command{
		Use:   "share UID",
		Short: "Print the share link of a published sourcecast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openIndex(cfgPath, pslog.Ctx(cmd.Context()))
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Sourcecast.BaseURL) == "" {
				return errors.New("sourcecast.base_url is required for share links")
			}
			entry, err := store.Lookup(schema.SourcecastUID(args[0]))
			if err != nil {
				return err
			}
			url := httpapi.ShareURL(cfg.Sourcecast.BaseURL, cfg.HTTP.BasePath, entry.UID)
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "title: %s\n", entry.Title)
			_, _ = fmt.Fprintf(out, "url: %s\n", url)
			if !noQR {
				qrterminal.GenerateHalfBlock(url, qrterminal.L, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "skip the terminal QR code")
	return cmd
}
