package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yagosupro/ethparser/internal/model"
)

// Store provides Postgres persistence for the transfer ledger.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the transfers table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transfers (
			id                TEXT PRIMARY KEY,
			block             BIGINT NOT NULL,
			block_date        BIGINT NOT NULL,
			block_hash        TEXT NOT NULL,
			tx_hash           TEXT NOT NULL,
			log_index         BIGINT NOT NULL,
			token             TEXT NOT NULL,
			owner             TEXT NOT NULL,
			recipient         TEXT NOT NULL,
			value             DOUBLE PRECISION NOT NULL,
			balance_owner     DOUBLE PRECISION NOT NULL,
			balance_recipient DOUBLE PRECISION NOT NULL,
			type              TEXT NOT NULL,
			price             DOUBLE PRECISION NOT NULL,
			profit            DOUBLE PRECISION NOT NULL,
			profit_usd        DOUBLE PRECISION NOT NULL,
			gas               DOUBLE PRECISION NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS transfers_owner_idx ON transfers (owner, block_date);
		CREATE INDEX IF NOT EXISTS transfers_recipient_idx ON transfers (recipient, block_date);
	`)
	return err
}

func (s *Store) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	row := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transfers WHERE id=$1)`, id)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Save inserts the record; a duplicate id is a no-op reported as not saved.
func (s *Store) Save(ctx context.Context, t *model.Transfer) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO transfers (
			id, block, block_date, block_hash, tx_hash, log_index, token,
			owner, recipient, value, balance_owner, balance_recipient,
			type, price, profit, profit_usd, gas
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (id) DO NOTHING
	`,
		t.ID,
		int64(t.Block),
		t.BlockDate,
		t.BlockHash,
		t.TxHash,
		int64(t.LogIndex),
		t.Token,
		t.Owner,
		t.Recipient,
		t.Value,
		t.BalanceOwner,
		t.BalanceRecipient,
		string(t.Type),
		t.Price,
		t.Profit,
		t.ProfitUSD,
		t.Gas,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) FetchHistory(ctx context.Context, address string, types []model.TransferType, beforeBlockDate int64) ([]*model.Transfer, error) {
	query := `
		SELECT id, block, block_date, block_hash, tx_hash, log_index, token,
		       owner, recipient, value, balance_owner, balance_recipient,
		       type, price, profit, profit_usd, gas
		FROM transfers
		WHERE (lower(owner)=lower($1) OR lower(recipient)=lower($1))
		  AND block_date <= $2`
	args := []interface{}{address, beforeBlockDate}
	if len(types) > 0 {
		names := make([]string, 0, len(types))
		for _, t := range types {
			names = append(names, string(t))
		}
		query += ` AND type = ANY($3)`
		args = append(args, names)
	}
	query += ` ORDER BY block_date, block, log_index`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Transfer, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) BalanceAsOf(ctx context.Context, address string, blockDate int64) (float64, error) {
	var balance float64
	row := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(
			CASE WHEN lower(recipient)=lower($1) THEN value ELSE -value END
		), 0)
		FROM transfers
		WHERE (lower(owner)=lower($1) OR lower(recipient)=lower($1))
		  AND block_date <= $2
	`, address, blockDate)
	if err := row.Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func scanTransfer(rows pgx.Rows) (*model.Transfer, error) {
	var t model.Transfer
	var block, logIndex int64
	var transferType string
	if err := rows.Scan(
		&t.ID, &block, &t.BlockDate, &t.BlockHash, &t.TxHash, &logIndex,
		&t.Token, &t.Owner, &t.Recipient, &t.Value, &t.BalanceOwner,
		&t.BalanceRecipient, &transferType, &t.Price, &t.Profit,
		&t.ProfitUSD, &t.Gas,
	); err != nil {
		return nil, err
	}
	t.Block = uint64(block)
	t.LogIndex = uint64(logIndex)
	t.Type = model.TransferType(transferType)
	return &t, nil
}
