package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned by the single-row lookups below when no row
// matches.
var ErrNotFound = errors.New("store: not found")

// BlockRow is a flat projection of the blocks table, with its
// transactions loaded alongside it.
type BlockRow struct {
	Hash           []byte
	Height         int64
	Version        int32
	Size           int32
	MerkleRootHash []byte
	Timestamp      time.Time
	Bits           int32
	Nonce          int32
	Difficulty     int64
	Transactions   []TransactionRow
}

// TransactionRow is a flat projection of the transactions table, with
// its inputs and outputs loaded alongside it.
type TransactionRow struct {
	ID           int64
	Hash         []byte
	Version      int32
	LockTime     int32
	Weight       int64
	Coinbase     bool
	ReplaceByFee bool
	Inputs       []TransactionInputRow
	Outputs      []TransactionOutputRow
}

// TransactionInputRow is a flat projection of the transaction_inputs
// table, with its spent output resolved via a join when the prevout
// transaction has itself been indexed.
type TransactionInputRow struct {
	Index             int64
	Sequence          int64
	Witness           [][]byte
	Script            []byte
	PreviousOutputTx  []byte
	PreviousOutputIdx int64
	PreviousOutput    *TransactionOutputRow
}

// TransactionOutputRow is a flat projection of the
// transaction_outputs table.
type TransactionOutputRow struct {
	Index       int64
	Value       int64
	Script      []byte
	Unspendable bool
	Address     *string
}

// GetChainHeight returns the highest block height the store has
// ingested, grounded on the original's fetch_height
// (original_source/web-api/src/database/blocks.rs).
func (s *Store) GetChainHeight(ctx context.Context) (int64, error) {
	var height *int64
	err := s.pool.QueryRow(ctx, `SELECT MAX(height) AS height FROM blocks`).Scan(&height)
	if err != nil {
		return 0, &Error{Op: "get_chain_height", Cause: err}
	}
	if height == nil {
		return 0, ErrNotFound
	}
	return *height, nil
}

// GetBlockByHeight fetches the block at height, with its transactions,
// inputs, and outputs. Grounded on original_source/web-api/src/database/blocks.rs's
// fetch_block_by_height joined with transactions.rs's
// fetch_transactions_for_block, flattened into a thin Go projection
// rather than the original's JSON_AGG subquery trick.
func (s *Store) GetBlockByHeight(ctx context.Context, height int64) (*BlockRow, error) {
	return s.getBlock(ctx, `SELECT id, hash, height, version, size, merkle_root_hash, timestamp, bits, nonce, difficulty FROM blocks WHERE height = $1`, height)
}

// GetBlockByHash fetches the block with the given hash.
func (s *Store) GetBlockByHash(ctx context.Context, hash []byte) (*BlockRow, error) {
	return s.getBlock(ctx, `SELECT id, hash, height, version, size, merkle_root_hash, timestamp, bits, nonce, difficulty FROM blocks WHERE hash = $1`, hash)
}

func (s *Store) getBlock(ctx context.Context, query string, arg interface{}) (*BlockRow, error) {
	var id int64
	var block BlockRow
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&id, &block.Hash, &block.Height, &block.Version, &block.Size,
		&block.MerkleRootHash, &block.Timestamp, &block.Bits, &block.Nonce, &block.Difficulty,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &Error{Op: "get_block", Cause: err}
	}

	transactions, err := s.fetchTransactionsForBlock(ctx, id)
	if err != nil {
		return nil, err
	}
	block.Transactions = transactions
	return &block, nil
}

// GetTransactionByHash fetches a single transaction (with inputs and
// outputs) by its wtxid.
func (s *Store) GetTransactionByHash(ctx context.Context, hash []byte) (*TransactionRow, error) {
	row, err := s.scanTransactionRow(s.pool.QueryRow(ctx, `
		SELECT id, hash, version, lock_time, weight, coinbase, replace_by_fee
		FROM transactions WHERE hash = $1
	`, hash))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &Error{Op: "get_transaction", Cause: err}
	}
	if err := s.loadInputsOutputs(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// GetTransactionsByAddress returns every transaction that spends from
// or pays to address, newest first. Grounded on
// original_source/web-api/src/database/transactions.rs's
// fetch_transactions_for_address UNION query.
func (s *Store) GetTransactionsByAddress(ctx context.Context, address string) ([]TransactionRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT transactions.id, transactions.hash, transactions.version,
			transactions.lock_time, transactions.weight, transactions.coinbase, transactions.replace_by_fee
		FROM transactions
		WHERE transactions.id IN (
			SELECT transaction_id FROM transaction_outputs WHERE address = $1
			UNION
			SELECT transaction_inputs.transaction_id
			FROM transaction_inputs
			JOIN transactions prev ON prev.hash = transaction_inputs.previous_output_transaction
			JOIN transaction_outputs po
				ON po.transaction_id = prev.id AND po.index = transaction_inputs.previous_output_index
			WHERE po.address = $1
		)
		ORDER BY transactions.id DESC
	`, address)
	if err != nil {
		return nil, &Error{Op: "get_transactions_by_address", Cause: err}
	}
	defer rows.Close()

	var result []TransactionRow
	for rows.Next() {
		var t TransactionRow
		if err := rows.Scan(&t.ID, &t.Hash, &t.Version, &t.LockTime, &t.Weight, &t.Coinbase, &t.ReplaceByFee); err != nil {
			return nil, &Error{Op: "get_transactions_by_address", Cause: err}
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "get_transactions_by_address", Cause: err}
	}

	for i := range result {
		if err := s.loadInputsOutputs(ctx, &result[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Store) scanTransactionRow(row pgx.Row) (*TransactionRow, error) {
	var t TransactionRow
	err := row.Scan(&t.ID, &t.Hash, &t.Version, &t.LockTime, &t.Weight, &t.Coinbase, &t.ReplaceByFee)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) fetchTransactionsForBlock(ctx context.Context, blockID int64) ([]TransactionRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, hash, version, lock_time, weight, coinbase, replace_by_fee
		FROM transactions WHERE block_id = $1 ORDER BY id ASC
	`, blockID)
	if err != nil {
		return nil, &Error{Op: "fetch_transactions_for_block", Cause: err}
	}
	defer rows.Close()

	var result []TransactionRow
	for rows.Next() {
		var t TransactionRow
		if err := rows.Scan(&t.ID, &t.Hash, &t.Version, &t.LockTime, &t.Weight, &t.Coinbase, &t.ReplaceByFee); err != nil {
			return nil, &Error{Op: "fetch_transactions_for_block", Cause: err}
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "fetch_transactions_for_block", Cause: err}
	}

	for i := range result {
		if err := s.loadInputsOutputs(ctx, &result[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// loadInputsOutputs loads a transaction's inputs and outputs. The
// input query LEFT JOINs transactions/transaction_outputs to resolve
// each input's (previous_output_transaction, previous_output_index)
// to the actual spent output, mirroring
// original_source/web-api/src/database/transactions.rs's
// fetch_transactions_for_block/fetch_transaction_by_hash, which join
// "pot"/"po" the same way and expose the result as previous_output_item.
// The join misses (PreviousOutput stays nil) for coinbase inputs and
// for prevouts whose own transaction hasn't been indexed yet.
func (s *Store) loadInputsOutputs(ctx context.Context, t *TransactionRow) error {
	inputRows, err := s.pool.Query(ctx, `
		SELECT
			transaction_inputs.index, transaction_inputs.sequence, transaction_inputs.witness, transaction_inputs.script,
			transaction_inputs.previous_output_transaction, transaction_inputs.previous_output_index,
			po.value, po.script, po.unspendable, po.address
		FROM transaction_inputs
		LEFT JOIN transactions pot
			ON pot.hash = transaction_inputs.previous_output_transaction
		LEFT JOIN transaction_outputs po
			ON po.transaction_id = pot.id
			AND po.index = transaction_inputs.previous_output_index
		WHERE transaction_inputs.transaction_id = $1
		ORDER BY transaction_inputs.index ASC
	`, t.ID)
	if err != nil {
		return &Error{Op: "load_inputs", Cause: err}
	}
	for inputRows.Next() {
		var in TransactionInputRow
		var poValue *int64
		var poScript []byte
		var poUnspendable *bool
		var poAddress *string
		if err := inputRows.Scan(
			&in.Index, &in.Sequence, &in.Witness, &in.Script, &in.PreviousOutputTx, &in.PreviousOutputIdx,
			&poValue, &poScript, &poUnspendable, &poAddress,
		); err != nil {
			inputRows.Close()
			return &Error{Op: "load_inputs", Cause: err}
		}
		if poValue != nil {
			in.PreviousOutput = &TransactionOutputRow{
				Index:       in.PreviousOutputIdx,
				Value:       *poValue,
				Script:      poScript,
				Unspendable: poUnspendable != nil && *poUnspendable,
				Address:     poAddress,
			}
		}
		t.Inputs = append(t.Inputs, in)
	}
	inputRows.Close()
	if err := inputRows.Err(); err != nil {
		return &Error{Op: "load_inputs", Cause: err}
	}

	outputRows, err := s.pool.Query(ctx, `
		SELECT index, value, script, unspendable, address
		FROM transaction_outputs WHERE transaction_id = $1 ORDER BY index ASC
	`, t.ID)
	if err != nil {
		return &Error{Op: "load_outputs", Cause: err}
	}
	for outputRows.Next() {
		var out TransactionOutputRow
		if err := outputRows.Scan(&out.Index, &out.Value, &out.Script, &out.Unspendable, &out.Address); err != nil {
			outputRows.Close()
			return &Error{Op: "load_outputs", Cause: err}
		}
		t.Outputs = append(t.Outputs, out)
	}
	outputRows.Close()
	if err := outputRows.Err(); err != nil {
		return &Error{Op: "load_outputs", Cause: err}
	}
	return nil
}
