package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/btcindexer/internal/chainmodel"
	"github.com/yourusername/btcindexer/internal/fetch"
)

// fakeStore records every InsertBlock call and can be told to fail at
// specific heights, mirroring the corpus's mock-dependency test style.
type fakeStore struct {
	mu       sync.Mutex
	inserted []int64
	failAt   map[int64]bool

	inFlight    int32
	maxInFlight int32
}

func newFakeStore(failAt ...int64) *fakeStore {
	fail := make(map[int64]bool, len(failAt))
	for _, h := range failAt {
		fail[h] = true
	}
	return &fakeStore{failAt: fail}
}

func (f *fakeStore) InsertBlock(ctx context.Context, height int64, block *chainmodel.Block) error {
	n := atomic.AddInt32(&f.inFlight, 1)
	for {
		old := atomic.LoadInt32(&f.maxInFlight)
		if n <= old || atomic.CompareAndSwapInt32(&f.maxInFlight, old, n) {
			break
		}
	}
	defer atomic.AddInt32(&f.inFlight, -1)

	time.Sleep(time.Millisecond)

	if f.failAt[height] {
		return errors.New("simulated store failure")
	}

	f.mu.Lock()
	f.inserted = append(f.inserted, height)
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) insertedHeights() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.inserted))
	copy(out, f.inserted)
	return out
}

func TestStage_Run_ContinuesAfterOneBlockFails(t *testing.T) {
	store := newFakeStore(105)
	stage := New(store, nil, 4)

	in := make(chan fetch.Result, 10)
	for h := uint64(100); h < 110; h++ {
		in <- fetch.Result{Height: h, Block: &chainmodel.Block{}}
	}
	close(in)

	err := stage.Run(context.Background(), in)
	require.NoError(t, err)

	inserted := store.insertedHeights()
	assert.Len(t, inserted, 9, "all blocks except the failing one should be inserted")
	assert.NotContains(t, inserted, int64(105))
}

func TestStage_Run_BoundsConcurrency(t *testing.T) {
	const concurrency = 3
	store := newFakeStore()
	stage := New(store, nil, concurrency)

	in := make(chan fetch.Result, 50)
	for h := uint64(0); h < 50; h++ {
		in <- fetch.Result{Height: h, Block: &chainmodel.Block{}}
	}
	close(in)

	require.NoError(t, stage.Run(context.Background(), in))
	assert.LessOrEqual(t, int(atomic.LoadInt32(&store.maxInFlight)), concurrency)
}
