// Package ingest implements the Ingest Stage of the pipeline: durable,
// idempotent persistence of fetched blocks.
package ingest

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/btcindexer/internal/chainmodel"
	"github.com/yourusername/btcindexer/internal/fetch"
)

// Store is the subset of store.Store the stage depends on.
type Store interface {
	InsertBlock(ctx context.Context, height int64, block *chainmodel.Block) error
}

// Stage consumes fetch.Result values and persists each one, running up
// to Concurrency block-insert transactions at once. Grounded on the
// original's FuturesUnordered consumer loop
// (original_source/indexer/src/main.rs's process_blocks): blocks
// commit in whatever order their transactions happen to finish, with
// no ordering constraint across blocks.
type Stage struct {
	store       Store
	logger      *zap.Logger
	concurrency int
}

// New builds an Ingest Stage.
func New(store Store, logger *zap.Logger, concurrency int) *Stage {
	return &Stage{store: store, logger: logger, concurrency: concurrency}
}

// Run consumes in from the Fetch Stage until it closes or ctx is
// canceled, persisting each block. A StoreError on one block is
// logged and does not stop the stage — adjacent blocks continue to
// commit.
func (s *Stage) Run(ctx context.Context, in <-chan fetch.Result) error {
	group, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, s.concurrency)

	for {
		select {
		case <-gctx.Done():
			return group.Wait()
		case result, ok := <-in:
			if !ok {
				return group.Wait()
			}

			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return group.Wait()
			}

			result := result
			group.Go(func() error {
				defer func() { <-sem }()
				s.ingestOne(gctx, result)
				return nil
			})
		}
	}
}

// ingestOne persists a single block, logging and swallowing a
// StoreError rather than propagating it — a store failure is fatal
// only to the affected block.
func (s *Stage) ingestOne(ctx context.Context, result fetch.Result) {
	err := s.store.InsertBlock(ctx, int64(result.Height), result.Block)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to insert block",
				zap.Uint64("height", result.Height),
				zap.String("hash", result.Hash.String()),
				zap.Error(err),
			)
		}
		return
	}
	if s.logger != nil {
		s.logger.Debug("ingested block", zap.Uint64("height", result.Height))
	}
}
