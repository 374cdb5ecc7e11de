package session

import (
	"sync"
	"testing"

	"github.com/KainanAugusto/BankingBot/internal/domain"
)

func TestSnapshotOfUnknownChatIsIdle(t *testing.T) {
	m := NewManager()
	s := m.Snapshot(1)
	if s.Step != StepIdle || s.Amount != 0 || s.Selected != nil {
		t.Fatalf("expected zero session, got %+v", s)
	}
	if m.InProgress(1) {
		t.Fatal("unknown chat reported in progress")
	}
}

func TestUpdateAndReset(t *testing.T) {
	m := NewManager()
	m.Update(5, func(s *Session) {
		s.Step = StepAwaitingAmount
		s.Operation = domain.TxDeposit
	})
	if !m.InProgress(5) {
		t.Fatal("expected in-progress session")
	}

	s := m.Snapshot(5)
	if s.Step != StepAwaitingAmount || s.Operation != domain.TxDeposit {
		t.Fatalf("snapshot mismatch: %+v", s)
	}

	// Snapshot is a copy, mutating it must not leak back.
	s.Amount = 999
	if got := m.Snapshot(5).Amount; got != 0 {
		t.Fatalf("snapshot leaked mutation: %d", got)
	}

	m.Reset(5)
	if m.InProgress(5) {
		t.Fatal("session survived reset")
	}
	if got := m.Snapshot(5); got.Step != StepIdle {
		t.Fatalf("reset session not idle: %+v", got)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Update(9, func(s *Session) { s.Amount++ })
		}()
	}
	wg.Wait()
	if got := m.Snapshot(9).Amount; got != 32 {
		t.Fatalf("lost updates: %d", got)
	}
}

func TestStepString(t *testing.T) {
	if StepAwaitingDetail.String() != "awaiting_detail" {
		t.Fatalf("got %q", StepAwaitingDetail.String())
	}
	if Step(99).String() != "unknown" {
		t.Fatalf("got %q", Step(99).String())
	}
}
