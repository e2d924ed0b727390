package rpcclient

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/yourusername/btcindexer/internal/chainmodel"
)

// BitcoinCore provides the three high-level calls the fetch stage needs,
// layered over a Client. Grounded on BitcoinRpc
// (original_source/indexer/src/rpc.rs: get_block_height,
// get_block_hash, get_block) and the RPCHelper pattern
// (src/chainadapter/bitcoin/rpc.go), which wraps a raw Client the same
// way.
type BitcoinCore struct {
	client Client
}

// NewBitcoinCore wraps client with the node's high-level RPC surface.
func NewBitcoinCore(client Client) *BitcoinCore {
	return &BitcoinCore{client: client}
}

// GetBlockHeight returns the node's current chain tip height.
func (b *BitcoinCore) GetBlockHeight(ctx context.Context) (uint64, error) {
	raw, err := b.client.Call(ctx, "getblockcount", nil)
	if err != nil {
		return 0, err
	}

	var height uint64
	if err := json.Unmarshal(raw, &height); err != nil {
		return 0, NewError("getblockcount", fmt.Errorf("unmarshal result: %w", err))
	}
	return height, nil
}

// GetBlockHash returns the block hash at the given height.
func (b *BitcoinCore) GetBlockHash(ctx context.Context, height uint64) (chainhash.Hash, error) {
	raw, err := b.client.Call(ctx, "getblockhash", []interface{}{height})
	if err != nil {
		return chainhash.Hash{}, err
	}

	var hashHex string
	if err := json.Unmarshal(raw, &hashHex); err != nil {
		return chainhash.Hash{}, NewError("getblockhash", fmt.Errorf("unmarshal result: %w", err))
	}

	hash, err := chainhash.NewHashFromStr(hashHex)
	if err != nil {
		return chainhash.Hash{}, NewError("getblockhash", fmt.Errorf("parse hash: %w", err))
	}
	return *hash, nil
}

// GetBlock fetches the raw serialized block at hash (verbosity 0,
// i.e. the hex-encoded consensus wire format) and decodes it.
func (b *BitcoinCore) GetBlock(ctx context.Context, hash chainhash.Hash) (*chainmodel.Block, error) {
	raw, err := b.client.Call(ctx, "getblock", []interface{}{hash.String(), 0})
	if err != nil {
		return nil, err
	}

	var blockHex string
	if err := json.Unmarshal(raw, &blockHex); err != nil {
		return nil, NewError("getblock", fmt.Errorf("unmarshal result: %w", err))
	}

	blockBytes, err := hex.DecodeString(blockHex)
	if err != nil {
		return nil, NewError("getblock", fmt.Errorf("decode hex: %w", err))
	}

	block, err := chainmodel.DecodeBlock(blockBytes)
	if err != nil {
		return nil, NewError("getblock", err)
	}
	return block, nil
}
