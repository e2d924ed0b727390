// Package chainmodel decodes consensus-serialized Bitcoin blocks into the
// in-memory model persisted by internal/store, and derives addresses
// from scripts under mainnet rules.
package chainmodel

import "time"

// Block is the in-memory representation of a decoded Bitcoin block.
type Block struct {
	Hash       [32]byte
	Version    int32
	Size       int32
	MerkleRoot [32]byte
	Timestamp  time.Time
	// Bits is the 32-bit compact difficulty target, stored as its
	// signed bit pattern — readers must reinterpret it back to an
	// unsigned value.
	Bits int32
	// Nonce is the protocol's 32-bit unsigned nonce, stored via bit
	// reinterpretation into a signed column.
	Nonce        int32
	Difficulty   int64
	Transactions []Transaction
}

// Transaction is the in-memory representation of a single transaction.
// Hash is the witness transaction id (wtxid); for pre-segwit
// transactions wtxid == txid.
type Transaction struct {
	Hash         [32]byte
	Version      int32
	LockTime     int32
	Weight       int64
	Coinbase     bool
	ReplaceByFee bool
	Inputs       []TxIn
	Outputs      []TxOut
}

// TxIn is one entry of a transaction's input vector. Index is the
// input's position within that vector and must form a dense
// 0..N-1 sequence.
type TxIn struct {
	Index int64
	// Sequence is the protocol's 32-bit unsigned sequence number,
	// widened without sign extension into a signed 64-bit column, so
	// the stored value equals the protocol value.
	Sequence   int64
	Witness    [][]byte
	Script     []byte
	PrevTxHash [32]byte
	PrevIndex  int64
}

// TxOut is one entry of a transaction's output vector.
type TxOut struct {
	Index       int64
	Value       int64
	Script      []byte
	Unspendable bool
	// Address is nil when the script does not match a known
	// address-bearing pattern under mainnet rules.
	Address *string
}
