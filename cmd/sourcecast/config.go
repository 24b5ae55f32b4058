package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/internal/appconfig"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the sourcecast config file",
	}
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var path string
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := appconfig.WriteDefault(path, overwrite)
			if err != nil {
				return err
			}
			pslog.Ctx(cmd.Context()).Info("config wrote", "path", written)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), written)
			return err
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing config")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "state_dir: %s\n", cfg.StateDir)
			_, _ = fmt.Fprintf(out, "recording.db_path: %s\n", cfg.Recording.DBPath)
			_, _ = fmt.Fprintf(out, "sourcecast.index_path: %s\n", cfg.Sourcecast.IndexPath)
			_, _ = fmt.Fprintf(out, "sourcecast.base_url: %s\n", cfg.Sourcecast.BaseURL)
			_, _ = fmt.Fprintf(out, "http.addr: %s\n", cfg.HTTP.Addr)
			_, _ = fmt.Fprintf(out, "http.base_path: %s\n", cfg.HTTP.BasePath)
			_, _ = fmt.Fprintf(out, "playground.exec_time_ms: %d\n", cfg.Playground.ExecTimeMs)
			_, _ = fmt.Fprintf(out, "playground.step_limit: %d\n", cfg.Playground.StepLimit)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "path to config file")
	return cmd
}
