// Package store persists one account record per chat identity.
package store

import (
	"context"
	"time"

	"github.com/KainanAugusto/BankingBot/internal/domain"
)

// Store is the durable account contract used by the conversation flows.
//
// GetOrCreate must be idempotent under concurrent first contact: duplicate
// creation attempts resolve to the existing record rather than erroring.
//
// CommitTransaction atomically adjusts the balance and overwrites the last
// transaction. The withdrawal balance check belongs to the caller against a
// fresh read, but implementations additionally guard the debit so a stale
// caller can never drive the balance negative.
type Store interface {
	GetOrCreate(ctx context.Context, chatID int64) (domain.Account, error)
	CommitTransaction(ctx context.Context, chatID int64, kind domain.TxKind, amount int64, at time.Time) (domain.Account, error)
	AppendMethod(ctx context.Context, chatID int64, method domain.PaymentMethod) (int, error)
}
