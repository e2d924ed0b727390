// Command btcindexer-api serves the thin read-side HTTP query layer
// over the index database, grounded on original_source/web-api/src/main.rs.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/yourusername/btcindexer/internal/apiserver"
	"github.com/yourusername/btcindexer/internal/config"
	"github.com/yourusername/btcindexer/internal/logging"
	"github.com/yourusername/btcindexer/internal/store"
)

var (
	verbosity  int
	configPath string
	listenAddr string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "btcindexer-api",
		Short: "Serves the read-only HTTP query layer over the index database",
		RunE:  run,
	}

	flags := cmd.Flags()
	flags.CountVarP(&verbosity, "verbose", "v", "logging verbosity (repeat for more)")
	flags.StringVarP(&configPath, "config", "c", "", "path to TOML config file (required)")
	flags.StringVarP(&listenAddr, "listen", "l", ":8080", "HTTP listen address")

	cmd.MarkFlagRequired("config")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(verbosity)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	server := apiserver.New(db, logger)

	mux := http.NewServeMux()
	mux.Handle("/", server.Router())
	mux.Handle("/metrics", promhttp.Handler())

	logger.Sugar().Infof("listening on %s", listenAddr)
	return http.ListenAndServe(listenAddr, mux)
}
