// Command btcindexer runs the Fetch/Ingest pipeline: it pulls blocks
// from a Bitcoin Core node in height order and persists them to
// PostgreSQL.
//
// CLI surface grounded on original_source/indexer/src/main.rs's clap
// Args struct, translated to spf13/cobra + spf13/pflag (the CLI stack
// orbas1-Synnergy uses) rather than clap's derive macros.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/btcindexer/internal/config"
	"github.com/yourusername/btcindexer/internal/fetch"
	"github.com/yourusername/btcindexer/internal/ingest"
	"github.com/yourusername/btcindexer/internal/logging"
	"github.com/yourusername/btcindexer/internal/metrics"
	"github.com/yourusername/btcindexer/internal/pipeline"
	"github.com/yourusername/btcindexer/internal/rpcclient"
	"github.com/yourusername/btcindexer/internal/store"
)

var (
	verbosity        int
	configPath       string
	startHeight      uint64
	bufferSize       int
	fetchConcurrent  int
	ingestConcurrent int
	metricsAddr      string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "btcindexer",
		Short: "Indexes Bitcoin blocks into a relational store",
		RunE:  run,
	}

	flags := cmd.Flags()
	flags.CountVarP(&verbosity, "verbose", "v", "logging verbosity (repeat for more)")
	flags.StringVarP(&configPath, "config", "c", "", "path to TOML config file (required)")
	flags.Uint64VarP(&startHeight, "start", "s", 0, "block height to start at (required)")
	flags.IntVarP(&bufferSize, "buffer", "b", 64, "channel buffer between fetch and ingest")
	flags.IntVarP(&fetchConcurrent, "fetch-concurrent", "f", 8, "concurrent in-flight RPC fetches")
	flags.IntVar(&ingestConcurrent, "ingest-concurrent", 8, "concurrent per-block ingest transactions")
	flags.StringVar(&metricsAddr, "metrics-addr", ":9090", "address to serve /metrics on")

	cmd.MarkFlagRequired("config")
	cmd.MarkFlagRequired("start")

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

	if err := store.Migrate(cfg.Database); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	httpClient := rpcclient.NewHTTPClient(cfg.BitcoinRPC.Address, cfg.BitcoinRPC.Username, cfg.BitcoinRPC.Password, 30*time.Second)
	defer httpClient.Close()
	bitcoinCore := rpcclient.NewBitcoinCore(httpClient)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	metricsServer := &http.Server{Addr: metricsAddr, Handler: metrics.Handler(reg)}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	defer metricsServer.Close()

	height, err := bitcoinCore.GetBlockHeight(ctx)
	if err != nil {
		return err
	}
	logger.Info("connected to bitcoin core", zap.Uint64("current_height", height))

	rpc := pipeline.NewInstrumentedRPC(bitcoinCore, m)
	persistentStore := pipeline.NewInstrumentedStore(db, m)

	fetchStage := fetch.New(rpc, logger, startHeight, fetchConcurrent)
	ingestStage := ingest.New(persistentStore, logger, ingestConcurrent)
	driver := pipeline.New(fetchStage, ingestStage, logger, bufferSize)

	return driver.Run(ctx)
}
