package rpcclient

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is a scripted Client, mirroring the mock RPC client
// pattern in bitcoin/fee_test.go and bitcoin/broadcast_test.go — a map
// of method name to canned response, recording call order.
type fakeClient struct {
	responses map[string]json.RawMessage
	errs      map[string]error
	calls     []string
}

func (f *fakeClient) Call(_ context.Context, method string, _ []interface{}) (json.RawMessage, error) {
	f.calls = append(f.calls, method)
	if err, ok := f.errs[method]; ok {
		return nil, err
	}
	return f.responses[method], nil
}

func (f *fakeClient) Close() error { return nil }

func TestBitcoinCore_GetBlockHeight(t *testing.T) {
	fc := &fakeClient{responses: map[string]json.RawMessage{
		"getblockcount": json.RawMessage(`814523`),
	}}
	bc := NewBitcoinCore(fc)

	height, err := bc.GetBlockHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(814523), height)
}

func TestBitcoinCore_GetBlockHash(t *testing.T) {
	wantHash := "000000000000000000000123456789abcdef0000000000000000000000000000"
	fc := &fakeClient{responses: map[string]json.RawMessage{
		"getblockhash": json.RawMessage(`"` + wantHash + `"`),
	}}
	bc := NewBitcoinCore(fc)

	hash, err := bc.GetBlockHash(context.Background(), 814523)
	require.NoError(t, err)
	assert.Equal(t, wantHash, hash.String())
}

func TestBitcoinCore_GetBlockHash_PropagatesRpcError(t *testing.T) {
	fc := &fakeClient{errs: map[string]error{
		"getblockhash": NewError("getblockhash", assert.AnError),
	}}
	bc := NewBitcoinCore(fc)

	_, err := bc.GetBlockHash(context.Background(), 1)
	require.Error(t, err)

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
}

// The canned getblock result is three raw bytes, far too short to be a
// block; it only exercises the hex-decode-then-DecodeBlock plumbing,
// not full consensus parsing.
func TestBitcoinCore_GetBlock_DecodeErrorPropagates(t *testing.T) {
	fc := &fakeClient{responses: map[string]json.RawMessage{
		"getblock": json.RawMessage(`"` + hex.EncodeToString([]byte{0x00, 0x01, 0x02}) + `"`),
	}}
	bc := NewBitcoinCore(fc)

	_, err := bc.GetBlock(context.Background(), chainhash.Hash{})
	require.Error(t, err)

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
}
