// Package fetch implements the Fetch Stage of the ingestion pipeline:
// an ordered, bounded-concurrency stream of decoded blocks.
package fetch

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"go.uber.org/zap"

	"github.com/yourusername/btcindexer/internal/chainmodel"
)

// Result is one entry of the ordered stream the stage emits.
type Result struct {
	Height uint64
	Hash   chainhash.Hash
	Block  *chainmodel.Block
}

// RPC is the subset of rpcclient.BitcoinCore the stage depends on.
type RPC interface {
	GetBlockHash(ctx context.Context, height uint64) (chainhash.Hash, error)
	GetBlock(ctx context.Context, hash chainhash.Hash) (*chainmodel.Block, error)
}

// Stage fetches blocks starting at Start, holding up to Concurrency
// RPC round-trips in flight, and emits them to a channel in strict
// ascending height order.
//
// The "ordered in-flight set" is grounded on the original's
// FuturesOrdered loop (original_source/indexer/src/main.rs): later
// heights may finish their RPC round-trip before earlier ones, but
// the set only ever releases its head, so the emitted order is the
// submission order regardless of completion order. Go has no
// FuturesOrdered equivalent, so this is modeled as a FIFO of per-slot
// result channels: the head is polled non-blockingly first (emit if
// ready), a new fetch is scheduled if there is room, and only once
// neither applies does the stage block waiting on the head.
type Stage struct {
	rpc         RPC
	logger      *zap.Logger
	start       uint64
	concurrency int
}

// New builds a Fetch Stage.
func New(rpc RPC, logger *zap.Logger, start uint64, concurrency int) *Stage {
	return &Stage{rpc: rpc, logger: logger, start: start, concurrency: concurrency}
}

type outcome struct {
	hash  chainhash.Hash
	block *chainmodel.Block
	err   error
}

type slot struct {
	height uint64
	ch     chan outcome
}

// Run fetches blocks starting at the stage's configured height,
// forever, sending each to out in order. It returns when ctx is
// canceled, or when any RPC error terminates the pipeline.
func (s *Stage) Run(ctx context.Context, out chan<- Result) error {
	var inFlight []slot
	height := s.start
	startTime := time.Now()

	schedule := func() {
		h := height
		ch := make(chan outcome, 1)
		go func() { ch <- s.fetchOne(ctx, h) }()
		inFlight = append(inFlight, slot{height: h, ch: ch})
		height++
	}

	emit := func(head slot, o outcome) error {
		if o.err != nil {
			return o.err
		}
		s.logThroughput(head.height, startTime)
		select {
		case out <- Result{Height: head.height, Hash: o.hash, Block: o.block}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if len(inFlight) > 0 {
			select {
			case o := <-inFlight[0].ch:
				head := inFlight[0]
				inFlight = inFlight[1:]
				if err := emit(head, o); err != nil {
					return err
				}
				continue
			default:
			}
		}

		if len(inFlight) < s.concurrency {
			schedule()
			continue
		}

		select {
		case o := <-inFlight[0].ch:
			head := inFlight[0]
			inFlight = inFlight[1:]
			if err := emit(head, o); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Stage) fetchOne(ctx context.Context, height uint64) outcome {
	hash, err := s.rpc.GetBlockHash(ctx, height)
	if err != nil {
		return outcome{err: err}
	}

	block, err := s.rpc.GetBlock(ctx, hash)
	if err != nil {
		return outcome{err: err}
	}

	return outcome{hash: hash, block: block}
}

// logThroughput emits a throughput counter every 100 heights, after a
// 500-height warm-up, matching the original's eprintln cadence.
func (s *Stage) logThroughput(height uint64, startTime time.Time) {
	if s.logger == nil {
		return
	}
	if height%100 != 0 || height-s.start <= 500 {
		return
	}
	elapsed := time.Since(startTime).Seconds()
	if elapsed <= 0 {
		return
	}
	s.logger.Info("fetch throughput",
		zap.Float64("blocks_per_sec", float64(height-s.start)/elapsed),
		zap.Uint64("height", height),
	)
}
