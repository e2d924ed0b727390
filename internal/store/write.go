package store

import (
	"context"
	"fmt"

	"github.com/yourusername/btcindexer/internal/chainmodel"
)

// InsertBlock persists one decoded block and all of its transactions,
// inputs, and outputs inside a single database transaction, committing
// only once every row has been written. The upsert shapes below are a
// direct port of the original's insert_block/insert_transaction/
// insert_transaction_input/insert_transaction_output
// (original_source/indexer/src/main.rs), chosen so that re-ingesting a
// height the store already has is idempotent rather than a
// duplicate-key error.
//
// The original fans its per-transaction inserts out across
// futures::future::try_join_all on a shared &Transaction, which
// tokio-postgres permits because a connection pipelines concurrent
// queries internally. pgx.Tx offers no such guarantee — it is bound to
// one physical connection and is not safe for concurrent use from
// multiple goroutines — so here the inner inserts run sequentially
// against the one transaction. Concurrency across *blocks* still comes
// from internal/ingest running many InsertBlock calls, each on its own
// transaction, at once.
func (s *Store) InsertBlock(ctx context.Context, height int64, block *chainmodel.Block) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &Error{Op: "begin", Cause: err}
	}
	defer tx.Rollback(ctx)

	var blockID int64
	err = tx.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO blocks
				(hash, height, version, size, merkle_root_hash, timestamp, bits, nonce, difficulty)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT DO NOTHING
			RETURNING id
		) SELECT COALESCE(
			(SELECT id FROM inserted),
			(SELECT id FROM blocks WHERE hash = $1)
		) AS id
	`,
		block.Hash[:], height, block.Version, block.Size, block.MerkleRoot[:],
		block.Timestamp, block.Bits, block.Nonce, block.Difficulty,
	).Scan(&blockID)
	if err != nil {
		return &Error{Op: "insert_block", Cause: err}
	}

	for i := range block.Transactions {
		if err := insertTransaction(ctx, tx, blockID, &block.Transactions[i]); err != nil {
			return &Error{Op: "insert_transactions", Cause: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &Error{Op: "commit", Cause: err}
	}
	return nil
}

func insertTransaction(ctx context.Context, tx pgxTx, blockID int64, transaction *chainmodel.Transaction) error {
	var transactionID int64
	err := tx.QueryRow(ctx, `
		INSERT INTO transactions
			(hash, block_id, version, lock_time, weight, coinbase, replace_by_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (hash) DO UPDATE
			SET block_id = excluded.block_id
		RETURNING id
	`,
		transaction.Hash[:], blockID, transaction.Version, transaction.LockTime,
		transaction.Weight, transaction.Coinbase, transaction.ReplaceByFee,
	).Scan(&transactionID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	for i := range transaction.Inputs {
		if err := insertTransactionInput(ctx, tx, transactionID, &transaction.Inputs[i]); err != nil {
			return err
		}
	}
	for i := range transaction.Outputs {
		if err := insertTransactionOutput(ctx, tx, transactionID, &transaction.Outputs[i]); err != nil {
			return err
		}
	}
	return nil
}

func insertTransactionInput(ctx context.Context, tx pgxTx, transactionID int64, in *chainmodel.TxIn) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transaction_inputs
			(transaction_id, index, sequence, witness, script, previous_output_transaction, previous_output_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
	`,
		transactionID, in.Index, in.Sequence, in.Witness, in.Script,
		in.PrevTxHash[:], in.PrevIndex,
	)
	if err != nil {
		return fmt.Errorf("insert transaction_input: %w", err)
	}
	return nil
}

func insertTransactionOutput(ctx context.Context, tx pgxTx, transactionID int64, out *chainmodel.TxOut) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transaction_outputs
			(transaction_id, index, value, script, unspendable, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
	`,
		transactionID, out.Index, out.Value, out.Script, out.Unspendable, out.Address,
	)
	if err != nil {
		return fmt.Errorf("insert transaction_output: %w", err)
	}
	return nil
}
