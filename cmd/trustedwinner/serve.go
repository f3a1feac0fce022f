package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trustedwinner/internal/api"
	"trustedwinner/internal/draw"
	"trustedwinner/internal/drawstore"
	"trustedwinner/internal/logger"
	"trustedwinner/internal/storage"
)

var (
	flagHTTPAddr  string
	flagHTTP3Addr string
	flagDataDir   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the draw HTTP API",
	Long: `Serve the draw HTTP API over a persistent draw store.

Settings come from TRUSTEDWINNER_* environment variables; flags override them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("addr") {
			cfg.HTTPAddr = flagHTTPAddr
		}
		if cmd.Flags().Changed("http3-addr") {
			cfg.HTTP3Addr = flagHTTP3Addr
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = flagDataDir
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runServe(ctx, cfg)
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVar(&flagHTTPAddr, "addr", ":8080", "HTTP API listen address")
	flags.StringVar(&flagHTTP3Addr, "http3-addr", "", "HTTP/3 listen address (disabled when empty)")
	flags.StringVar(&flagDataDir, "data-dir", "./data", "draw store directory")
}

// runServe starts the API and blocks until ctx is done.
func runServe(ctx context.Context, cfg *Config) error {
	key, err := keySource{
		CertFile:    cfg.CertFile,
		KeyFile:     cfg.KeyFile,
		PFXFile:     cfg.PFXFile,
		PFXPassword: cfg.PFXPassword,
	}.load()
	if err != nil {
		return err
	}

	if key == nil {
		logger.Warn("no signing key configured, draws are unsigned")
	}

	store, err := drawstore.Open(cfg.DataDir, storage.Options{CacheSize: cfg.CacheSize})
	if err != nil {
		return fmt.Errorf("open draw store:\n%w", err)
	}
	defer store.Close()

	server := api.New(api.Config{
		Addr:      cfg.HTTPAddr,
		HTTP3Addr: cfg.HTTP3Addr,
		Key:       key,
	}, store)

	if err := server.Start(); err != nil {
		return fmt.Errorf("start api:\n%w", err)
	}

	logger.Info("starting TrustedWinner",
		"version", draw.Version,
		"http", server.Addr(),
		"http3", server.HTTP3Addr(),
		"data", cfg.DataDir,
		"signed", key != nil,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	return server.Stop()
}
