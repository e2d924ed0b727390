package apiserver

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/yourusername/btcindexer/internal/store"
)

// reverseHex hex-encodes b after reversing its byte order. Bitcoin
// hashes are computed and stored internally little-endian but
// displayed big-endian everywhere else (block explorers, bitcoin-cli,
// RPC results) — mirrors the `.reverse()` calls in
// original_source/web-api/src/methods/block.rs, done here at the API
// boundary rather than at insert time.
func reverseHex(b []byte) string {
	r := make([]byte, len(b))
	for i, c := range b {
		r[len(b)-1-i] = c
	}
	return hex.EncodeToString(r)
}

// BlockResponse mirrors original_source/web-api/src/methods/block.rs's
// GetResponse/Block shape, flattened into one JSON object.
type BlockResponse struct {
	Hash           string                 `json:"hash"`
	Height         int64                  `json:"height"`
	Version        int32                  `json:"version"`
	Size           int32                  `json:"size"`
	MerkleRootHash string                 `json:"merkle_root_hash"`
	Timestamp      time.Time              `json:"timestamp"`
	Bits           int32                  `json:"bits"`
	Nonce          uint32                 `json:"nonce"`
	Difficulty     int64                  `json:"difficulty"`
	TxCount        int                    `json:"tx_count"`
	Transactions   []*TransactionResponse `json:"transactions"`
}

// TransactionResponse mirrors the original's Transaction response
// shape.
type TransactionResponse struct {
	Hash         string                       `json:"hash"`
	Version      int32                        `json:"version"`
	LockTime     int32                        `json:"lock_time"`
	Weight       int64                        `json:"weight"`
	Coinbase     bool                         `json:"coinbase"`
	ReplaceByFee bool                         `json:"replace_by_fee"`
	Inputs       []*TransactionInputResponse  `json:"inputs"`
	Outputs      []*TransactionOutputResponse `json:"outputs"`
}

// TransactionInputResponse mirrors the original's TransactionInput
// response shape: the raw prevout reference, plus the spent output it
// resolves to when that output has been indexed.
type TransactionInputResponse struct {
	Sequence                  int64                      `json:"sequence"`
	Witness                   []string                   `json:"witness"`
	PreviousOutputTransaction string                     `json:"previous_output_transaction"`
	PreviousOutputIndex       int64                      `json:"previous_output_index"`
	PreviousOutput            *TransactionOutputResponse `json:"previous_output"`
	Script                    string                     `json:"script"`
}

// TransactionOutputResponse mirrors the original's TransactionOutput
// response shape.
type TransactionOutputResponse struct {
	Value       int64   `json:"value"`
	Script      string  `json:"script"`
	Unspendable bool    `json:"unspendable"`
	Address     *string `json:"address"`
}

func newBlockResponse(b *store.BlockRow) *BlockResponse {
	transactions := make([]*TransactionResponse, 0, len(b.Transactions))
	for i := range b.Transactions {
		transactions = append(transactions, newTransactionResponse(&b.Transactions[i]))
	}

	return &BlockResponse{
		Hash:           reverseHex(b.Hash),
		Height:         b.Height,
		Version:        b.Version,
		Size:           b.Size,
		MerkleRootHash: reverseHex(b.MerkleRootHash),
		Timestamp:      b.Timestamp,
		Bits:           b.Bits,
		Nonce:          uint32(b.Nonce),
		Difficulty:     b.Difficulty,
		TxCount:        len(b.Transactions),
		Transactions:   transactions,
	}
}

func newTransactionResponse(t *store.TransactionRow) *TransactionResponse {
	inputs := make([]*TransactionInputResponse, 0, len(t.Inputs))
	for _, in := range t.Inputs {
		witness := make([]string, len(in.Witness))
		for i, w := range in.Witness {
			witness[i] = hex.EncodeToString(w)
		}

		var prevOutput *TransactionOutputResponse
		if in.PreviousOutput != nil {
			prevOutput = newTransactionOutputResponse(in.PreviousOutput)
		}

		inputs = append(inputs, &TransactionInputResponse{
			Sequence:                  in.Sequence,
			Witness:                   witness,
			PreviousOutputTransaction: reverseHex(in.PreviousOutputTx),
			PreviousOutputIndex:       in.PreviousOutputIdx,
			PreviousOutput:            prevOutput,
			Script:                    hex.EncodeToString(in.Script),
		})
	}

	outputs := make([]*TransactionOutputResponse, 0, len(t.Outputs))
	for i := range t.Outputs {
		outputs = append(outputs, newTransactionOutputResponse(&t.Outputs[i]))
	}

	return &TransactionResponse{
		Hash:         reverseHex(t.Hash),
		Version:      t.Version,
		LockTime:     t.LockTime,
		Weight:       t.Weight,
		Coinbase:     t.Coinbase,
		ReplaceByFee: t.ReplaceByFee,
		Inputs:       inputs,
		Outputs:      outputs,
	}
}

func newTransactionOutputResponse(out *store.TransactionOutputRow) *TransactionOutputResponse {
	return &TransactionOutputResponse{
		Value:       out.Value,
		Script:      hex.EncodeToString(out.Script),
		Unspendable: out.Unspendable,
		Address:     out.Address,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
