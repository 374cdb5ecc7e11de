package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KainanAugusto/BankingBot/internal/domain"
)

func TestGetOrCreateIdempotent(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	a, err := s.GetOrCreate(ctx, 42)
	if err != nil {
		t.Fatalf("first GetOrCreate: %v", err)
	}
	b, err := s.GetOrCreate(ctx, 42)
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if a.Balance != 0 || b.Balance != 0 {
		t.Fatalf("expected zero balances, got %d and %d", a.Balance, b.Balance)
	}
	if len(b.Methods) != 0 || b.LastTransaction != nil {
		t.Fatalf("expected empty new account, got %+v", b)
	}
}

func TestGetOrCreateConcurrentFirstContact(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.GetOrCreate(ctx, 7); err != nil {
				t.Errorf("GetOrCreate: %v", err)
			}
		}()
	}
	wg.Wait()

	acc, err := s.GetOrCreate(ctx, 7)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if acc.Balance != 0 {
		t.Fatalf("expected balance 0, got %d", acc.Balance)
	}
}

func TestCommitTransactionBalanceArithmetic(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	now := time.Now()

	if _, err := s.GetOrCreate(ctx, 1); err != nil {
		t.Fatal(err)
	}

	acc, err := s.CommitTransaction(ctx, 1, domain.TxDeposit, 100, now)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if acc.Balance != 100 {
		t.Fatalf("balance after deposit: %d", acc.Balance)
	}

	acc, err = s.CommitTransaction(ctx, 1, domain.TxWithdrawal, 30, now)
	if err != nil {
		t.Fatalf("withdrawal: %v", err)
	}
	if acc.Balance != 70 {
		t.Fatalf("balance after withdrawal: %d", acc.Balance)
	}
	if acc.LastTransaction == nil || acc.LastTransaction.Kind != domain.TxWithdrawal || acc.LastTransaction.Amount != 30 {
		t.Fatalf("last transaction not overwritten: %+v", acc.LastTransaction)
	}
}

func TestCommitWithdrawalGuard(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if _, err := s.GetOrCreate(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CommitTransaction(ctx, 2, domain.TxDeposit, 50, time.Now()); err != nil {
		t.Fatal(err)
	}

	_, err := s.CommitTransaction(ctx, 2, domain.TxWithdrawal, 80, time.Now())
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	acc, err := s.GetOrCreate(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if acc.Balance != 50 {
		t.Fatalf("balance mutated by rejected withdrawal: %d", acc.Balance)
	}
}

func TestAppendMethodReturnsStableIndex(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if _, err := s.GetOrCreate(ctx, 3); err != nil {
		t.Fatal(err)
	}

	idx, err := s.AppendMethod(ctx, 3, domain.PaymentMethod{Kind: domain.MethodPayPal, Label: domain.PayPalLabel("a@b.com")})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if idx != 0 {
		t.Fatalf("first index: %d", idx)
	}

	idx, err = s.AppendMethod(ctx, 3, domain.PaymentMethod{Kind: domain.MethodCrypto, Label: domain.CryptoLabel("btc", "bc1q")})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if idx != 1 {
		t.Fatalf("second index: %d", idx)
	}

	acc, err := s.GetOrCreate(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if acc.Methods[0].Label != "PayPal: a@b.com" {
		t.Fatalf("label at index 0: %q", acc.Methods[0].Label)
	}
}

func TestCommitUnknownAccount(t *testing.T) {
	s := NewMemory()
	_, err := s.CommitTransaction(context.Background(), 99, domain.TxDeposit, 10, time.Now())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
