package chainmodel

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// maxTxInSequenceNum is the lowest sequence value that does not signal
// BIP-125 replace-by-fee: an input whose sequence is below it signals.
const maxTxInSequenceNum = wire.MaxTxInSequenceNum - 1

// coinbasePrevOutIndex is the sentinel previous-output index the
// protocol assigns a coinbase transaction's single input.
const coinbasePrevOutIndex = 0xffffffff

// DecodeError wraps a failure to deserialize raw block bytes into the
// consensus format. The caller folds it into an RpcError.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("chainmodel: decode block: %s", e.Cause) }
func (e *DecodeError) Unwrap() error { return e.Cause }

// DecodeBlock deserializes raw consensus-encoded block bytes (as
// returned by Bitcoin Core's getblock RPC at verbosity 0) into the
// in-memory model, computing wtxid and weight for every transaction
// along the way.
func DecodeBlock(raw []byte) (*Block, error) {
	var msg wire.MsgBlock
	if err := msg.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, &DecodeError{Cause: err}
	}

	blockHash := msg.BlockHash()

	txs := make([]Transaction, 0, len(msg.Transactions))
	for _, tx := range msg.Transactions {
		txs = append(txs, decodeTransaction(tx))
	}

	return &Block{
		Hash:         blockHash,
		Version:      msg.Header.Version,
		Size:         int32(msg.SerializeSize()),
		MerkleRoot:   msg.Header.MerkleRoot,
		Timestamp:    msg.Header.Timestamp.UTC(),
		Bits:         int32(msg.Header.Bits),
		Nonce:        int32(msg.Header.Nonce),
		Difficulty:   compactToDifficulty(msg.Header.Bits),
		Transactions: txs,
	}, nil
}

func decodeTransaction(tx *wire.MsgTx) Transaction {
	baseSize := tx.SerializeSizeStripped()
	totalSize := tx.SerializeSize()
	weight := int64(3*baseSize + totalSize)

	wtxid := tx.WitnessHash()

	inputs := make([]TxIn, 0, len(tx.TxIn))
	coinbase := isCoinBase(tx)
	rbf := false
	for i, in := range tx.TxIn {
		if in.Sequence < maxTxInSequenceNum {
			rbf = true
		}
		witness := make([][]byte, 0, len(in.Witness))
		for _, w := range in.Witness {
			witness = append(witness, append([]byte(nil), w...))
		}
		inputs = append(inputs, TxIn{
			Index:      int64(i),
			Sequence:   int64(in.Sequence),
			Witness:    witness,
			Script:     append([]byte(nil), in.SignatureScript...),
			PrevTxHash: in.PreviousOutPoint.Hash,
			PrevIndex:  int64(in.PreviousOutPoint.Index),
		})
	}

	outputs := make([]TxOut, 0, len(tx.TxOut))
	for i, out := range tx.TxOut {
		script := append([]byte(nil), out.PkScript...)
		addr := deriveAddress(script)
		outputs = append(outputs, TxOut{
			Index:       int64(i),
			Value:       out.Value,
			Script:      script,
			Unspendable: isProvablyUnspendable(script),
			Address:     addr,
		})
	}

	return Transaction{
		Hash:         wtxid,
		Version:      tx.Version,
		LockTime:     int32(tx.LockTime),
		Weight:       weight,
		Coinbase:     coinbase,
		ReplaceByFee: rbf,
		Inputs:       inputs,
		Outputs:      outputs,
	}
}

// isCoinBase reports whether tx is the block's coinbase transaction:
// exactly one input, referencing the all-zero txid and the sentinel
// 0xFFFFFFFF previous-output index.
func isCoinBase(tx *wire.MsgTx) bool {
	if len(tx.TxIn) != 1 {
		return false
	}
	prevOut := tx.TxIn[0].PreviousOutPoint
	return prevOut.Index == coinbasePrevOutIndex && prevOut.Hash == (chainhash.Hash{})
}

// compactToDifficulty converts the 32-bit compact target encoding into
// the floating-point "difficulty" quantity the protocol defines,
// relative to the difficulty-1 target (mainnet bits 0x1d00ffff), then
// truncates to an int64 at the store boundary — a known-lossy but
// intentionally preserved behavior (see DESIGN.md).
func compactToDifficulty(bits uint32) int64 {
	target := compactToBig(bits)
	if target.Sign() <= 0 {
		return 0
	}

	maxTarget := compactToBig(0x1d00ffff)

	quotient := new(big.Float).Quo(new(big.Float).SetInt(maxTarget), new(big.Float).SetInt(target))
	diff, _ := quotient.Int64()
	return diff
}

// compactToBig expands the compact ("nBits") representation into the
// full target integer it encodes.
func compactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	exponent := compact >> 24

	var result *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		result = big.NewInt(int64(mantissa))
	} else {
		result = big.NewInt(int64(mantissa))
		result.Lsh(result, uint(8*(exponent-3)))
	}

	if compact&0x00800000 != 0 {
		result.Neg(result)
	}
	return result
}
