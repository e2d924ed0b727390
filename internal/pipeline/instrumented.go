package pipeline

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/yourusername/btcindexer/internal/chainmodel"
	"github.com/yourusername/btcindexer/internal/fetch"
	"github.com/yourusername/btcindexer/internal/metrics"
)

// InstrumentedRPC wraps a fetch.RPC, recording call outcomes and
// latency to m. Kept as a thin decorator rather than threading metrics
// through fetch.Stage itself, so the stage's constructor signature
// stays stable regardless of whether metrics are wired in.
type InstrumentedRPC struct {
	rpc fetch.RPC
	m   *metrics.Metrics
}

// NewInstrumentedRPC wraps rpc with metrics recording.
func NewInstrumentedRPC(rpc fetch.RPC, m *metrics.Metrics) *InstrumentedRPC {
	return &InstrumentedRPC{rpc: rpc, m: m}
}

func (i *InstrumentedRPC) GetBlockHash(ctx context.Context, height uint64) (chainhash.Hash, error) {
	start := time.Now()
	hash, err := i.rpc.GetBlockHash(ctx, height)
	i.m.RecordRPCCall("getblockhash", time.Since(start), err == nil)
	// The block counts as fetched once its hash lookup succeeds, before
	// getblock runs: GetBlock is not given the height to record.
	if err == nil {
		i.m.RecordBlockFetched(height)
	}
	return hash, err
}

func (i *InstrumentedRPC) GetBlock(ctx context.Context, hash chainhash.Hash) (*chainmodel.Block, error) {
	start := time.Now()
	block, err := i.rpc.GetBlock(ctx, hash)
	i.m.RecordRPCCall("getblock", time.Since(start), err == nil)
	return block, err
}

// InstrumentedStore wraps an ingest.Store, recording ingest outcomes
// to m.
type InstrumentedStore struct {
	store ingestStore
	m     *metrics.Metrics
}

type ingestStore interface {
	InsertBlock(ctx context.Context, height int64, block *chainmodel.Block) error
}

// NewInstrumentedStore wraps store with metrics recording.
func NewInstrumentedStore(store ingestStore, m *metrics.Metrics) *InstrumentedStore {
	return &InstrumentedStore{store: store, m: m}
}

func (i *InstrumentedStore) InsertBlock(ctx context.Context, height int64, block *chainmodel.Block) error {
	err := i.store.InsertBlock(ctx, height, block)
	if err != nil {
		i.m.RecordIngestError()
	} else {
		i.m.RecordBlockIngested()
	}
	return err
}
