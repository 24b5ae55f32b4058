package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/internal/appconfig"
	"pkt.systems/sourcecast/internal/recordstore"
	"pkt.systems/sourcecast/schema"
)

func newSessionsCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect stored recording sessions",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	cmd.AddCommand(newSessionsListCmd(&cfgPath))
	cmd.AddCommand(newSessionsExportCmd(&cfgPath))
	cmd.AddCommand(newSessionsDeleteCmd(&cfgPath))

	return cmd
}

func openRecordStore(ctx context.Context, cfgPath string) (*recordstore.Store, appconfig.Config, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, appconfig.Config{}, err
	}
	store, err := recordstore.Open(ctx, cfg.Recording.DBPath, pslog.Ctx(ctx))
	if err != nil {
		return nil, appconfig.Config{}, err
	}
	return store, cfg, nil
}

func newSessionsListCmd(cfgPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openRecordStore(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			sessions, err := store.ListSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range sessions {
				_, _ = fmt.Fprintf(out, "%s\t%s\tchapter=%d\tevents=%d\tduration_ms=%d\n",
					s.ID, s.StartedAt.Format("2006-01-02T15:04:05Z07:00"), s.Chapter, s.Events, s.Duration)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum sessions to list")
	return cmd
}

func newSessionsExportCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export SESSION",
		Short: "Print a session as playback data JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openRecordStore(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			rec, err := store.LoadSession(cmd.Context(), schema.SessionID(args[0]))
			if err != nil {
				return err
			}
			for _, skip := range rec.Skipped {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", skip)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec.PlaybackData)
		},
	}
}

func newSessionsDeleteCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete SESSION",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openRecordStore(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			if err := store.DeleteSession(cmd.Context(), schema.SessionID(args[0])); err != nil {
				return err
			}
			pslog.Ctx(cmd.Context()).Info("session deleted", "session", args[0])
			return nil
		},
	}
}
