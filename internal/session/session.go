// Package session holds the volatile per-chat conversation state. Sessions
// live in process memory only; a restart drops in-flight flows and the user
// simply starts over.
package session

import (
	"sync"

	"github.com/KainanAugusto/BankingBot/internal/domain"
)

// Step is the single tagged position in the conversation. Keeping one step
// instead of independent flags rules out invalid combinations such as
// awaiting method detail with no operation chosen.
type Step int

const (
	StepIdle Step = iota
	// StepAwaitingAmount: an operation is chosen, the next text message is
	// parsed as the amount.
	StepAwaitingAmount
	// StepChoosingMethod: amount captured, user picks an existing method or
	// starts adding a new one.
	StepChoosingMethod
	// StepChoosingKind: user picks bank transfer, PayPal, or crypto.
	StepChoosingKind
	// StepChoosingCurrency: crypto only, user picks the currency.
	StepChoosingCurrency
	// StepAwaitingDetail: the next text message is the method detail,
	// never an amount.
	StepAwaitingDetail
	// StepAwaitingConfirm: summary shown, waiting for confirm or cancel.
	StepAwaitingConfirm
)

func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepAwaitingAmount:
		return "awaiting_amount"
	case StepChoosingMethod:
		return "choosing_method"
	case StepChoosingKind:
		return "choosing_kind"
	case StepChoosingCurrency:
		return "choosing_currency"
	case StepAwaitingDetail:
		return "awaiting_detail"
	case StepAwaitingConfirm:
		return "awaiting_confirm"
	}
	return "unknown"
}

// Session is the in-progress interaction state for one chat.
type Session struct {
	Step           Step
	Operation      domain.TxKind
	Amount         int64
	MethodKind     domain.MethodKind
	CryptoCurrency string
	Selected       *domain.PaymentMethod
}

// Manager owns the session map. Sessions are created on first touch and
// evicted by Reset on every terminal transition.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewManager returns an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]*Session)}
}

// Snapshot returns a copy of the chat's session, or a zero idle session if
// none exists.
func (m *Manager) Snapshot(chatID int64) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[chatID]; ok {
		return *s
	}
	return Session{}
}

// Update applies fn to the chat's session under the manager lock, creating
// the session if needed.
func (m *Manager) Update(chatID int64, fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		s = &Session{}
		m.sessions[chatID] = s
	}
	fn(s)
}

// Reset evicts the chat's session. Every terminal transition (commit or
// cancel) goes through here so clearing stays uniform and total.
func (m *Manager) Reset(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}

// InProgress reports whether the chat has a non-idle session.
func (m *Manager) InProgress(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	return ok && s.Step != StepIdle
}
