package apiserver

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/btcindexer/internal/store"
)

type fakeStore struct {
	height       int64
	blocksByH    map[int64]*store.BlockRow
	transactions map[string]*store.TransactionRow
}

func (f *fakeStore) GetChainHeight(ctx context.Context) (int64, error) {
	return f.height, nil
}

func (f *fakeStore) GetBlockByHeight(ctx context.Context, height int64) (*store.BlockRow, error) {
	b, ok := f.blocksByH[height]
	if !ok {
		return nil, store.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) GetBlockByHash(ctx context.Context, hash []byte) (*store.BlockRow, error) {
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetTransactionByHash(ctx context.Context, hash []byte) (*store.TransactionRow, error) {
	tx, ok := f.transactions[string(hash)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return tx, nil
}

func (f *fakeStore) GetTransactionsByAddress(ctx context.Context, address string) ([]store.TransactionRow, error) {
	return nil, nil
}

func TestServer_HandleHeight(t *testing.T) {
	s := New(&fakeStore{height: 814523}, nil)

	req := httptest.NewRequest("GET", "/height", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var body map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(814523), body["height"])
}

func TestServer_HandleBlockByHeight_NotFound(t *testing.T) {
	s := New(&fakeStore{blocksByH: map[int64]*store.BlockRow{}}, nil)

	req := httptest.NewRequest("GET", "/blocks/height/0", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, 404, rec.Code)
}

func TestServer_HandleBlockByHeight_Found(t *testing.T) {
	addr := "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	fake := &fakeStore{blocksByH: map[int64]*store.BlockRow{
		0: {
			Hash:   []byte{0xaa, 0xbb},
			Height: 0,
			Transactions: []store.TransactionRow{
				{
					Hash:     []byte{0xcc},
					Coinbase: true,
					Outputs: []store.TransactionOutputRow{
						{Value: 5000000000, Address: &addr},
					},
				},
			},
		},
	}}
	s := New(fake, nil)

	req := httptest.NewRequest("GET", "/blocks/height/0", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var body BlockResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.TxCount)
	assert.True(t, body.Transactions[0].Coinbase)
	assert.Equal(t, addr, *body.Transactions[0].Outputs[0].Address)
}

func TestServer_HandleBlockByHeight_InvalidHeight(t *testing.T) {
	s := New(&fakeStore{}, nil)

	req := httptest.NewRequest("GET", "/blocks/height/not-a-number", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}
