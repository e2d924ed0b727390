// Package pipeline wires the Fetch and Ingest stages together and
// runs them to completion.
package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/btcindexer/internal/fetch"
	"github.com/yourusername/btcindexer/internal/ingest"
)

// Config holds the knobs the CLI surface exposes.
type Config struct {
	Start            uint64
	Buffer           int
	FetchConcurrent  int
	IngestConcurrent int
}

// Driver owns the channel between the Fetch and Ingest stages and runs
// both to completion. Grounded on the original's
// tokio::try_join!(fetch_blocks, process_blocks)
// (original_source/indexer/src/main.rs): if either stage terminates,
// the other is canceled and the failure propagates.
type Driver struct {
	fetchStage  *fetch.Stage
	ingestStage *ingest.Stage
	logger      *zap.Logger
	buffer      int
}

// New builds a Driver around already-constructed stages.
func New(fetchStage *fetch.Stage, ingestStage *ingest.Stage, logger *zap.Logger, buffer int) *Driver {
	return &Driver{fetchStage: fetchStage, ingestStage: ingestStage, logger: logger, buffer: buffer}
}

// Run blocks until the pipeline terminates — normally never, in
// practice when either stage returns an error (an RPC error in fetch,
// or ctx cancellation). errgroup.WithContext ensures the first error
// from either stage cancels the other's context.
func (d *Driver) Run(ctx context.Context) error {
	group, gctx := errgroup.WithContext(ctx)
	channel := make(chan fetch.Result, d.buffer)

	group.Go(func() error {
		defer close(channel)
		err := d.fetchStage.Run(gctx, channel)
		if err != nil && d.logger != nil {
			d.logger.Error("fetch stage terminated", zap.Error(err))
		}
		return err
	})

	group.Go(func() error {
		err := d.ingestStage.Run(gctx, channel)
		if err != nil && d.logger != nil {
			d.logger.Error("ingest stage terminated", zap.Error(err))
		}
		return err
	})

	return group.Wait()
}
