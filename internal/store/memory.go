package store

import (
	"context"
	"sync"
	"time"

	"github.com/KainanAugusto/BankingBot/internal/domain"
)

// Memory keeps accounts in a mutex-guarded map. It mirrors the Postgres
// semantics, including the withdrawal balance guard, and backs the flow
// tests.
type Memory struct {
	mu       sync.Mutex
	accounts map[int64]*domain.Account
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{accounts: make(map[int64]*domain.Account)}
}

func (m *Memory) GetOrCreate(_ context.Context, chatID int64) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[chatID]
	if !ok {
		acc = &domain.Account{ChatID: chatID}
		m.accounts[chatID] = acc
	}
	return snapshot(acc), nil
}

func (m *Memory) CommitTransaction(_ context.Context, chatID int64, kind domain.TxKind, amount int64, at time.Time) (domain.Account, error) {
	if amount <= 0 {
		return domain.Account{}, domain.ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[chatID]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	switch kind {
	case domain.TxDeposit:
		acc.Balance += amount
	case domain.TxWithdrawal:
		if acc.Balance < amount {
			return domain.Account{}, domain.ErrInsufficientFunds
		}
		acc.Balance -= amount
	default:
		return domain.Account{}, domain.ErrInvalidAmount
	}
	acc.LastTransaction = &domain.Transaction{Kind: kind, Amount: amount, Time: at}
	return snapshot(acc), nil
}

func (m *Memory) AppendMethod(_ context.Context, chatID int64, method domain.PaymentMethod) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[chatID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	acc.Methods = append(acc.Methods, method)
	return len(acc.Methods) - 1, nil
}

func snapshot(acc *domain.Account) domain.Account {
	out := *acc
	if acc.LastTransaction != nil {
		tx := *acc.LastTransaction
		out.LastTransaction = &tx
	}
	out.Methods = append([]domain.PaymentMethod(nil), acc.Methods...)
	return out
}

var _ Store = (*Memory)(nil)
