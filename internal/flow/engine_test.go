package flow

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/KainanAugusto/BankingBot/internal/domain"
	"github.com/KainanAugusto/BankingBot/internal/session"
	"github.com/KainanAugusto/BankingBot/internal/store"
)

func newTestEngine() (*Engine, *store.Memory) {
	st := store.NewMemory()
	eng := New(st, session.NewManager())
	eng.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return eng, st
}

// runDeposit walks a full deposit through amount entry, adding a PayPal
// method, selecting it, and confirming.
func runDeposit(t *testing.T, eng *Engine, chatID int64, amount int64, email string) Prompt {
	t.Helper()
	ctx := context.Background()

	eng.ChooseOperation(ctx, chatID, domain.TxDeposit)
	if _, err := eng.HandleText(ctx, chatID, strconv.FormatInt(amount, 10)); err != nil {
		t.Fatalf("enter amount: %v", err)
	}
	eng.AddMethod(ctx, chatID)
	if _, err := eng.ChooseMethodKind(ctx, chatID, domain.MethodPayPal); err != nil {
		t.Fatalf("choose kind: %v", err)
	}
	if _, err := eng.HandleText(ctx, chatID, email); err != nil {
		t.Fatalf("method detail: %v", err)
	}
	if _, err := eng.SelectMethod(ctx, chatID, 0); err != nil {
		t.Fatalf("select method: %v", err)
	}
	p, err := eng.Confirm(ctx, chatID, domain.TxDeposit)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	return p
}

func TestDepositEndToEnd(t *testing.T) {
	eng, st := newTestEngine()
	ctx := context.Background()

	p := runDeposit(t, eng, 1, 100, "a@b.com")
	if p.Text != "✅ Deposit of $100.00 confirmed. New balance: $100.00." {
		t.Fatalf("confirm text: %q", p.Text)
	}

	acc, err := st.GetOrCreate(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if acc.Balance != 100 {
		t.Fatalf("balance: %d", acc.Balance)
	}
	if acc.LastTransaction == nil || acc.LastTransaction.Kind != domain.TxDeposit || acc.LastTransaction.Amount != 100 {
		t.Fatalf("last transaction: %+v", acc.LastTransaction)
	}
	if len(acc.Methods) != 1 || acc.Methods[0].Label != "PayPal: a@b.com" {
		t.Fatalf("methods: %+v", acc.Methods)
	}
	if eng.InProgress(1) {
		t.Fatal("session survived commit")
	}
}

func TestWithdrawalRejectedAtEntry(t *testing.T) {
	eng, st := newTestEngine()
	ctx := context.Background()

	runDeposit(t, eng, 2, 50, "a@b.com")

	eng.ChooseOperation(ctx, chatID2, domain.TxWithdrawal)
	p, err := eng.HandleText(ctx, chatID2, "80")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if p.Text != "⚠️ You cannot withdraw more than your balance!\n💵 Your current balance is: $50.00." {
		t.Fatalf("prompt text: %q", p.Text)
	}

	acc, _ := st.GetOrCreate(ctx, chatID2)
	if acc.Balance != 50 {
		t.Fatalf("balance mutated: %d", acc.Balance)
	}

	// Still awaiting an amount: a smaller one goes through.
	if _, err := eng.HandleText(ctx, chatID2, "30"); err != nil {
		t.Fatalf("retry amount: %v", err)
	}
}

const chatID2 = int64(2)

func TestConfirmRevalidatesAgainstFreshBalance(t *testing.T) {
	eng, st := newTestEngine()
	ctx := context.Background()

	runDeposit(t, eng, 3, 100, "a@b.com")

	// Walk a withdrawal of 80 up to the confirmation prompt.
	eng.ChooseOperation(ctx, 3, domain.TxWithdrawal)
	if _, err := eng.HandleText(ctx, 3, "80"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.SelectMethod(ctx, 3, 0); err != nil {
		t.Fatal(err)
	}

	// A concurrent session drains the balance before the tap on Confirm.
	if _, err := st.CommitTransaction(ctx, 3, domain.TxWithdrawal, 90, time.Now()); err != nil {
		t.Fatal(err)
	}

	_, err := eng.Confirm(ctx, 3, domain.TxWithdrawal)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds at confirm, got %v", err)
	}

	acc, _ := st.GetOrCreate(ctx, 3)
	if acc.Balance != 10 {
		t.Fatalf("stale withdrawal committed, balance %d", acc.Balance)
	}
}

func TestCancelLeavesBalanceUntouched(t *testing.T) {
	eng, st := newTestEngine()
	ctx := context.Background()

	runDeposit(t, eng, 4, 100, "a@b.com")

	eng.ChooseOperation(ctx, 4, domain.TxWithdrawal)
	if _, err := eng.HandleText(ctx, 4, "40"); err != nil {
		t.Fatal(err)
	}
	p := eng.Cancel(ctx, 4)
	if p.Text != "❌ Operation cancelled." {
		t.Fatalf("cancel text: %q", p.Text)
	}
	if eng.InProgress(4) {
		t.Fatal("session survived cancel")
	}

	acc, _ := st.GetOrCreate(ctx, 4)
	if acc.Balance != 100 {
		t.Fatalf("cancelled operation affected balance: %d", acc.Balance)
	}
}

func TestInvalidAmountDoesNotAdvance(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	eng.ChooseOperation(ctx, 5, domain.TxDeposit)

	for _, input := range []string{"abc", "0", "-5", "1.5"} {
		_, err := eng.HandleText(ctx, 5, input)
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("input %q: expected ErrInvalidAmount, got %v", input, err)
		}
	}

	if s := eng.sessions.Snapshot(5); s.Step != session.StepAwaitingAmount || s.Amount != 0 {
		t.Fatalf("session advanced on invalid input: %+v", s)
	}
}

func TestNumericDetailTextIsNotAnAmount(t *testing.T) {
	eng, st := newTestEngine()
	ctx := context.Background()

	eng.ChooseOperation(ctx, 6, domain.TxDeposit)
	if _, err := eng.HandleText(ctx, 6, "25"); err != nil {
		t.Fatal(err)
	}
	eng.AddMethod(ctx, 6)
	if _, err := eng.ChooseMethodKind(ctx, 6, domain.MethodBankTransfer); err != nil {
		t.Fatal(err)
	}

	// "150" arrives while a bank name is awaited: it is detail text.
	if _, err := eng.HandleText(ctx, 6, "150"); err != nil {
		t.Fatalf("detail text: %v", err)
	}

	acc, _ := st.GetOrCreate(ctx, 6)
	if len(acc.Methods) != 1 || acc.Methods[0].Label != "Bank Transfer: 150" {
		t.Fatalf("methods: %+v", acc.Methods)
	}
	if s := eng.sessions.Snapshot(6); s.Amount != 25 {
		t.Fatalf("pending amount overwritten: %d", s.Amount)
	}
}

func TestCryptoMethodFlow(t *testing.T) {
	eng, st := newTestEngine()
	ctx := context.Background()

	eng.ChooseOperation(ctx, 7, domain.TxDeposit)
	if _, err := eng.HandleText(ctx, 7, "10"); err != nil {
		t.Fatal(err)
	}
	eng.AddMethod(ctx, 7)

	p, err := eng.ChooseMethodKind(ctx, 7, domain.MethodCrypto)
	if err != nil {
		t.Fatal(err)
	}
	if p.Text != "🪙 Choose a currency:" {
		t.Fatalf("currency prompt: %q", p.Text)
	}

	if _, err := eng.ChooseCryptoCurrency(ctx, 7, "doge"); !errors.Is(err, domain.ErrNoMethodSelected) {
		t.Fatalf("unknown currency accepted: %v", err)
	}
	if _, err := eng.ChooseCryptoCurrency(ctx, 7, "btc"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.HandleText(ctx, 7, "bc1qxyz"); err != nil {
		t.Fatal(err)
	}

	acc, _ := st.GetOrCreate(ctx, 7)
	if len(acc.Methods) != 1 || acc.Methods[0].Label != "BTC: bc1qxyz" {
		t.Fatalf("methods: %+v", acc.Methods)
	}
}

func TestSelectMethodStaleIndexRejected(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	runDeposit(t, eng, 8, 20, "a@b.com")

	eng.ChooseOperation(ctx, 8, domain.TxDeposit)
	if _, err := eng.HandleText(ctx, 8, "5"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.SelectMethod(ctx, 8, 5); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestDoubleConfirmCommitsOnce(t *testing.T) {
	eng, st := newTestEngine()
	ctx := context.Background()

	runDeposit(t, eng, 9, 100, "a@b.com")

	// The second tap arrives after the session was evicted by the first.
	p, err := eng.Confirm(ctx, 9, domain.TxDeposit)
	if err != nil {
		t.Fatalf("second confirm errored: %v", err)
	}
	if p.Text != "⚠️ Nothing to confirm here." {
		t.Fatalf("second confirm text: %q", p.Text)
	}

	acc, _ := st.GetOrCreate(ctx, 9)
	if acc.Balance != 100 {
		t.Fatalf("double commit, balance %d", acc.Balance)
	}
}

func TestBalanceEqualsSumOfConfirmedOperations(t *testing.T) {
	eng, st := newTestEngine()
	ctx := context.Background()

	runDeposit(t, eng, 10, 200, "a@b.com")

	// Withdraw 50, reusing the saved method.
	eng.ChooseOperation(ctx, 10, domain.TxWithdrawal)
	if _, err := eng.HandleText(ctx, 10, "50"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.SelectMethod(ctx, 10, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Confirm(ctx, 10, domain.TxWithdrawal); err != nil {
		t.Fatal(err)
	}

	// A cancelled deposit contributes nothing.
	eng.ChooseOperation(ctx, 10, domain.TxDeposit)
	if _, err := eng.HandleText(ctx, 10, "999"); err != nil {
		t.Fatal(err)
	}
	eng.Cancel(ctx, 10)

	acc, _ := st.GetOrCreate(ctx, 10)
	if acc.Balance != 150 {
		t.Fatalf("balance: %d, want 150", acc.Balance)
	}
}

func TestCheckBalanceShowsLastTransaction(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	p, err := eng.CheckBalance(ctx, 11)
	if err != nil {
		t.Fatal(err)
	}
	if p.Text != "💵 Your balance is: $0.00. No transactions yet." {
		t.Fatalf("empty balance text: %q", p.Text)
	}

	runDeposit(t, eng, 11, 75, "a@b.com")

	p, err = eng.CheckBalance(ctx, 11)
	if err != nil {
		t.Fatal(err)
	}
	want := "💵 Your balance is: $75.00.\n📝 Last deposit: $75.00 at 2025-06-01 12:00:00."
	if p.Text != want {
		t.Fatalf("balance text: %q, want %q", p.Text, want)
	}
}
