package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast"
	"pkt.systems/sourcecast/core"
	"pkt.systems/sourcecast/httpapi"
	"pkt.systems/sourcecast/internal/appconfig"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sourcecast HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if strings.TrimSpace(addr) != "" {
				cfg.HTTP.Addr = addr
			}
			serverCfg := toServerConfig(cfg)
			server, err := sourcecast.New(cmd.Context(), serverCfg, sourcecast.ServerDeps{
				ServiceDeps: core.ServiceDeps{Logger: logger},
			}, sourcecast.WithHTTP(), sourcecast.WithRecordingStore())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			logger.Info("http server listening", "addr", serverCfg.HTTP.Addr, "state_dir", cfg.StateDir)
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "override http.addr")
	return cmd
}

func toServerConfig(cfg appconfig.Config) sourcecast.ServerConfig {
	return sourcecast.ServerConfig{
		Service: cfg.ServiceConfig(),
		HTTP: httpapi.Config{
			Addr:     cfg.HTTP.Addr,
			BaseURL:  cfg.Sourcecast.BaseURL,
			BasePath: cfg.HTTP.BasePath,
		},
		HubHistory:  cfg.HTTP.HubHistory,
		RecordingDB: cfg.Recording.DBPath,
	}
}
