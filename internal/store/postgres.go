package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/KainanAugusto/BankingBot/core/logger"
	"github.com/KainanAugusto/BankingBot/internal/domain"
)

// Postgres stores accounts in a single table with the payment method
// sequence held as a jsonb array, keeping the record shape close to the
// one-document-per-user model.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection pool.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

type accountRow struct {
	ChatID       int64           `db:"chat_id"`
	Balance      int64           `db:"balance"`
	LastTxKind   sql.NullString  `db:"last_tx_kind"`
	LastTxAmount sql.NullInt64   `db:"last_tx_amount"`
	LastTxTime   sql.NullTime    `db:"last_tx_time"`
	Methods      json.RawMessage `db:"methods"`
}

func (r accountRow) toAccount() (domain.Account, error) {
	acc := domain.Account{
		ChatID:  r.ChatID,
		Balance: r.Balance,
	}
	if r.LastTxKind.Valid {
		acc.LastTransaction = &domain.Transaction{
			Kind:   domain.TxKind(r.LastTxKind.String),
			Amount: r.LastTxAmount.Int64,
			Time:   r.LastTxTime.Time,
		}
	}
	if len(r.Methods) > 0 {
		if err := json.Unmarshal(r.Methods, &acc.Methods); err != nil {
			return domain.Account{}, fmt.Errorf("%w: decode methods: %v", domain.ErrStoreUnavailable, err)
		}
	}
	return acc, nil
}

// GetOrCreate inserts a zero-balance record if absent and returns the
// current row. ON CONFLICT DO NOTHING makes concurrent first contact
// resolve to a single creation.
func (p *Postgres) GetOrCreate(ctx context.Context, chatID int64) (domain.Account, error) {
	const insertQ = `INSERT INTO accounts (chat_id) VALUES ($1) ON CONFLICT (chat_id) DO NOTHING`
	if _, err := p.db.ExecContext(ctx, insertQ, chatID); err != nil {
		return domain.Account{}, storeErr("insert account", err)
	}

	const selectQ = `SELECT chat_id, balance, last_tx_kind, last_tx_amount, last_tx_time, methods
		FROM accounts WHERE chat_id = $1`
	var row accountRow
	if err := p.db.GetContext(ctx, &row, selectQ, chatID); err != nil {
		return domain.Account{}, storeErr("select account", err)
	}
	return row.toAccount()
}

// CommitTransaction applies the balance delta and overwrites the last
// transaction in one statement. Withdrawals carry a balance guard in the
// WHERE clause, so a concurrent debit between the caller's read and this
// write surfaces as ErrInsufficientFunds instead of a negative balance.
func (p *Postgres) CommitTransaction(ctx context.Context, chatID int64, kind domain.TxKind, amount int64, at time.Time) (domain.Account, error) {
	if !kind.Valid() {
		return domain.Account{}, fmt.Errorf("commit: unknown transaction kind %q", kind)
	}
	if amount <= 0 {
		return domain.Account{}, domain.ErrInvalidAmount
	}

	delta := amount
	guard := ""
	if kind == domain.TxWithdrawal {
		delta = -amount
		guard = " AND balance >= $3"
	}

	q := `UPDATE accounts
		SET balance = balance + $2,
		    last_tx_kind = $4,
		    last_tx_amount = $3,
		    last_tx_time = $5,
		    updated_at = now()
		WHERE chat_id = $1` + guard + `
		RETURNING chat_id, balance, last_tx_kind, last_tx_amount, last_tx_time, methods`

	var row accountRow
	err := p.db.GetContext(ctx, &row, q, chatID, delta, amount, string(kind), at.UTC())
	if errors.Is(err, sql.ErrNoRows) {
		if kind == domain.TxWithdrawal {
			if exists, existsErr := p.exists(ctx, chatID); existsErr == nil && exists {
				return domain.Account{}, domain.ErrInsufficientFunds
			}
		}
		return domain.Account{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Account{}, storeErr("commit transaction", err)
	}

	logger.Debug(ctx, "store", "account.committed",
		slog.Int64("chat_id", chatID),
		slog.String("kind", string(kind)),
		slog.Int64("amount", amount),
		slog.Int64("balance", row.Balance),
	)
	return row.toAccount()
}

// AppendMethod appends to the jsonb method sequence and returns the new
// method's position.
func (p *Postgres) AppendMethod(ctx context.Context, chatID int64, method domain.PaymentMethod) (int, error) {
	encoded, err := json.Marshal(method)
	if err != nil {
		return 0, fmt.Errorf("encode method: %w", err)
	}

	const q = `UPDATE accounts
		SET methods = methods || $2::jsonb, updated_at = now()
		WHERE chat_id = $1
		RETURNING jsonb_array_length(methods) - 1`

	var index int
	err = p.db.GetContext(ctx, &index, q, chatID, string(encoded))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, storeErr("append method", err)
	}
	return index, nil
}

func (p *Postgres) exists(ctx context.Context, chatID int64) (bool, error) {
	var n int
	if err := p.db.GetContext(ctx, &n, `SELECT count(1) FROM accounts WHERE chat_id = $1`, chatID); err != nil {
		return false, err
	}
	return n > 0, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}
