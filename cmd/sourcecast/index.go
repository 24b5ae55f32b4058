package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/internal/appconfig"
	"pkt.systems/sourcecast/internal/persist"
	"pkt.systems/sourcecast/schema"
)

func newIndexCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the published sourcecast index",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	cmd.AddCommand(newIndexListCmd(&cfgPath))
	cmd.AddCommand(newIndexDeleteCmd(&cfgPath))

	return cmd
}

func openIndex(cfgPath string, logger pslog.Logger) (*persist.Store, appconfig.Config, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, appconfig.Config{}, err
	}
	store, err := persist.NewStoreWithLogger(cfg.Sourcecast.IndexPath, logger)
	if err != nil {
		return nil, appconfig.Config{}, err
	}
	return store, cfg, nil
}

func newIndexListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list [QUERY]",
		Short: "List published sourcecasts, optionally fuzzy matched",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openIndex(*cfgPath, pslog.Ctx(cmd.Context()))
			if err != nil {
				return err
			}
			entries, err := store.Search(strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, entry := range entries {
				_, _ = fmt.Fprintf(out, "%s\t%s\n", entry.UID, entry.Title)
			}
			return nil
		},
	}
}

func newIndexDeleteCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete UID",
		Short: "Remove a sourcecast from the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openIndex(*cfgPath, pslog.Ctx(cmd.Context()))
			if err != nil {
				return err
			}
			if err := store.Delete(schema.SourcecastUID(args[0])); err != nil {
				return err
			}
			pslog.Ctx(cmd.Context()).Info("sourcecast deleted", "uid", args[0])
			return nil
		},
	}
}
