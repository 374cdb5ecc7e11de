package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/KainanAugusto/BankingBot/core/logger"
	"github.com/KainanAugusto/BankingBot/internal/domain"
	"github.com/KainanAugusto/BankingBot/internal/session"
	"github.com/KainanAugusto/BankingBot/internal/store"
)

const component = "service.flow"

// Engine drives the transaction state machine for every chat. All pending
// state lives in the session manager; the store is read fresh wherever a
// stale balance could matter.
type Engine struct {
	store    store.Store
	sessions *session.Manager
	now      func() time.Time
}

// New builds an engine on the given store and session manager.
func New(st store.Store, sm *session.Manager) *Engine {
	return &Engine{store: st, sessions: sm, now: time.Now}
}

// InProgress reports whether the chat has an active flow, used by the text
// router to decide whether free text belongs to this engine.
func (e *Engine) InProgress(chatID int64) bool {
	return e.sessions.InProgress(chatID)
}

// Start resets any pending flow and shows the main menu.
func (e *Engine) Start(ctx context.Context, chatID int64) Prompt {
	e.sessions.Reset(chatID)
	return mainMenu("👋 Hello! What do you want to do?")
}

// NewTransaction resets the session and re-offers the main menu.
func (e *Engine) NewTransaction(ctx context.Context, chatID int64) Prompt {
	e.sessions.Reset(chatID)
	return mainMenu("🔄 What would you like to do next?")
}

// CheckBalance shows the balance and the last committed transaction.
func (e *Engine) CheckBalance(ctx context.Context, chatID int64) (Prompt, error) {
	e.sessions.Reset(chatID)
	acc, err := e.store.GetOrCreate(ctx, chatID)
	if err != nil {
		return storeFailurePrompt(), err
	}

	var text string
	if tx := acc.LastTransaction; tx != nil {
		text = fmt.Sprintf("💵 Your balance is: %s.\n📝 Last %s: %s at %s.",
			domain.FormatMoney(acc.Balance), tx.Kind,
			domain.FormatMoney(tx.Amount), tx.Time.Format("2006-01-02 15:04:05"))
	} else {
		text = fmt.Sprintf("💵 Your balance is: %s. No transactions yet.", domain.FormatMoney(acc.Balance))
	}

	logger.Debug(ctx, component, "balance.shown",
		slog.Int64("chat_id", chatID),
		slog.Int64("balance", acc.Balance),
	)
	return Prompt{Text: text, Rows: onePerRow(newTransactionChoice())}, nil
}

// ChooseOperation begins a deposit or withdrawal and prompts for the amount.
func (e *Engine) ChooseOperation(ctx context.Context, chatID int64, kind domain.TxKind) Prompt {
	e.sessions.Reset(chatID)
	e.sessions.Update(chatID, func(s *session.Session) {
		s.Step = session.StepAwaitingAmount
		s.Operation = kind
	})

	logger.Debug(ctx, component, "operation.chosen",
		slog.Int64("chat_id", chatID),
		slog.String("op", string(kind)),
	)
	if kind == domain.TxWithdrawal {
		return Prompt{Text: "💸 How much do you want to withdraw? Type a number."}
	}
	return Prompt{Text: "💵 How much do you want to deposit? Type a number."}
}

// HandleText routes a free-text message by the current step. While a method
// detail is awaited the text is always detail, never an amount.
func (e *Engine) HandleText(ctx context.Context, chatID int64, text string) (Prompt, error) {
	s := e.sessions.Snapshot(chatID)
	switch s.Step {
	case session.StepAwaitingDetail:
		return e.receiveMethodDetail(ctx, chatID, s, text)
	case session.StepAwaitingAmount:
		return e.receiveAmount(ctx, chatID, s, text)
	case session.StepIdle:
		return e.Start(ctx, chatID), nil
	default:
		return Prompt{
			Text: "⚠️ Please use the buttons above to continue.",
			Rows: onePerRow(cancelChoice()),
		}, nil
	}
}

func (e *Engine) receiveAmount(ctx context.Context, chatID int64, s session.Session, text string) (Prompt, error) {
	amount, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return Prompt{Text: "⚠️ Enter a valid number."}, domain.ErrInvalidAmount
	}
	if amount <= 0 {
		return Prompt{Text: "⚠️ Enter a valid number greater than 0."}, domain.ErrInvalidAmount
	}

	if s.Operation == domain.TxWithdrawal {
		acc, err := e.store.GetOrCreate(ctx, chatID)
		if err != nil {
			return storeFailurePrompt(), err
		}
		if amount > acc.Balance {
			logger.Debug(ctx, component, "amount.rejected",
				slog.Int64("chat_id", chatID),
				slog.Int64("amount", amount),
				slog.Int64("balance", acc.Balance),
			)
			return insufficientFundsPrompt(acc.Balance), domain.ErrInsufficientFunds
		}
	}

	e.sessions.Update(chatID, func(s *session.Session) {
		s.Amount = amount
		s.Step = session.StepChoosingMethod
	})

	logger.Debug(ctx, component, "amount.accepted",
		slog.Int64("chat_id", chatID),
		slog.String("op", string(s.Operation)),
		slog.Int64("amount", amount),
	)
	return e.methodMenu(ctx, chatID, "")
}

// methodMenu lists the account's saved methods by index plus "add new".
func (e *Engine) methodMenu(ctx context.Context, chatID int64, prefix string) (Prompt, error) {
	acc, err := e.store.GetOrCreate(ctx, chatID)
	if err != nil {
		return storeFailurePrompt(), err
	}

	choices := make([]Choice, 0, len(acc.Methods)+2)
	for i, m := range acc.Methods {
		choices = append(choices, Choice{
			Label:   m.Label,
			Action:  ActionSelectMethod,
			Payload: strconv.Itoa(i),
		})
	}
	choices = append(choices,
		Choice{Label: "➕ Add New Method", Action: ActionAddMethod},
		cancelChoice(),
	)

	text := "💳 Choose a payment method:"
	if prefix != "" {
		text = prefix + "\n" + text
	}
	return Prompt{Text: text, Rows: onePerRow(choices...)}, nil
}

// AddMethod opens the method-kind menu.
func (e *Engine) AddMethod(ctx context.Context, chatID int64) Prompt {
	e.sessions.Update(chatID, func(s *session.Session) {
		s.Step = session.StepChoosingKind
		s.MethodKind = ""
		s.CryptoCurrency = ""
	})
	return Prompt{
		Text: "➕ What kind of payment method?",
		Rows: onePerRow(
			Choice{Label: "🏦 Bank Transfer", Action: ActionNewBankTransfer},
			Choice{Label: "💳 PayPal", Action: ActionNewPayPal},
			Choice{Label: "🪙 Crypto", Action: ActionNewCrypto},
			cancelChoice(),
		),
	}
}

// ChooseMethodKind records the kind; crypto detours through currency
// selection, the others go straight to detail entry.
func (e *Engine) ChooseMethodKind(ctx context.Context, chatID int64, kind domain.MethodKind) (Prompt, error) {
	if !kind.Valid() {
		return Prompt{Text: "⚠️ Unknown method kind. Press /start to begin again."}, domain.ErrNoMethodSelected
	}

	if kind == domain.MethodCrypto {
		e.sessions.Update(chatID, func(s *session.Session) {
			s.MethodKind = kind
			s.Step = session.StepChoosingCurrency
		})
		choices := make([]Choice, 0, len(domain.CryptoCurrencies)+1)
		for _, code := range domain.CryptoCurrencies {
			choices = append(choices, Choice{
				Label:   strings.ToUpper(code),
				Action:  ActionCryptoCurrency,
				Payload: code,
			})
		}
		choices = append(choices, cancelChoice())
		return Prompt{Text: "🪙 Choose a currency:", Rows: onePerRow(choices...)}, nil
	}

	e.sessions.Update(chatID, func(s *session.Session) {
		s.MethodKind = kind
		s.Step = session.StepAwaitingDetail
	})
	if kind == domain.MethodBankTransfer {
		return Prompt{Text: "🏦 Type the bank name."}, nil
	}
	return Prompt{Text: "💳 Type your PayPal email."}, nil
}

// ChooseCryptoCurrency records the currency and asks for the wallet address.
func (e *Engine) ChooseCryptoCurrency(ctx context.Context, chatID int64, code string) (Prompt, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if !domain.ValidCryptoCurrency(code) {
		return Prompt{Text: "⚠️ Unknown currency. Press /start to begin again."}, domain.ErrNoMethodSelected
	}
	e.sessions.Update(chatID, func(s *session.Session) {
		s.CryptoCurrency = code
		s.Step = session.StepAwaitingDetail
	})
	return Prompt{Text: fmt.Sprintf("🪙 Type your %s wallet address.", strings.ToUpper(code))}, nil
}

func (e *Engine) receiveMethodDetail(ctx context.Context, chatID int64, s session.Session, detail string) (Prompt, error) {
	detail = strings.TrimSpace(detail)

	var method domain.PaymentMethod
	switch s.MethodKind {
	case domain.MethodBankTransfer:
		method = domain.PaymentMethod{Kind: s.MethodKind, Label: domain.BankTransferLabel(detail)}
	case domain.MethodPayPal:
		method = domain.PaymentMethod{Kind: s.MethodKind, Label: domain.PayPalLabel(detail)}
	case domain.MethodCrypto:
		if s.CryptoCurrency == "" {
			return Prompt{Text: "⚠️ Something went wrong. Press /start to begin again."}, domain.ErrNoMethodSelected
		}
		method = domain.PaymentMethod{Kind: s.MethodKind, Label: domain.CryptoLabel(s.CryptoCurrency, detail)}
	default:
		return Prompt{Text: "⚠️ Something went wrong. Press /start to begin again."}, domain.ErrNoMethodSelected
	}

	index, err := e.store.AppendMethod(ctx, chatID, method)
	if err != nil {
		return storeFailurePrompt(), err
	}

	e.sessions.Update(chatID, func(s *session.Session) {
		s.MethodKind = ""
		s.CryptoCurrency = ""
		s.Step = session.StepChoosingMethod
	})

	logger.Debug(ctx, component, "method.added",
		slog.Int64("chat_id", chatID),
		slog.String("method_kind", string(method.Kind)),
		slog.Int("method_index", index),
	)
	return e.methodMenu(ctx, chatID, "✅ Method added.")
}

// SelectMethod resolves an index against the current method sequence. A
// stale index is rejected rather than silently indexed.
func (e *Engine) SelectMethod(ctx context.Context, chatID int64, index int) (Prompt, error) {
	s := e.sessions.Snapshot(chatID)
	if s.Step != session.StepChoosingMethod || s.Amount <= 0 {
		return nothingPendingPrompt(), nil
	}

	acc, err := e.store.GetOrCreate(ctx, chatID)
	if err != nil {
		return storeFailurePrompt(), err
	}
	if index < 0 || index >= len(acc.Methods) {
		return Prompt{
			Text: "⚠️ That payment method is no longer available.",
			Rows: onePerRow(cancelChoice()),
		}, domain.ErrIndexOutOfRange
	}

	method := acc.Methods[index]
	e.sessions.Update(chatID, func(s *session.Session) {
		s.Selected = &method
		s.Step = session.StepAwaitingConfirm
	})

	confirmAction := ActionConfirmDeposit
	verb := "deposit"
	if s.Operation == domain.TxWithdrawal {
		confirmAction = ActionConfirmWithdraw
		verb = "withdrawal"
	}
	text := fmt.Sprintf("%s Confirm %s of %s via %s?",
		opEmoji(s.Operation), verb, domain.FormatMoney(s.Amount), method.Label)
	return Prompt{
		Text: text,
		Rows: onePerRow(
			Choice{Label: "✅ Confirm", Action: confirmAction},
			Choice{Label: "❌ Cancel", Action: ActionCancel},
		),
	}, nil
}

// Confirm commits the pending transaction. The balance is re-read here so a
// withdrawal that went stale between amount entry and confirm is rejected
// instead of committed.
func (e *Engine) Confirm(ctx context.Context, chatID int64, kind domain.TxKind) (Prompt, error) {
	s := e.sessions.Snapshot(chatID)
	if s.Step != session.StepAwaitingConfirm || s.Operation != kind || s.Amount <= 0 || s.Selected == nil {
		// Stale confirm, e.g. a double-tap after the commit already ran.
		return nothingPendingPrompt(), nil
	}

	if kind == domain.TxWithdrawal {
		acc, err := e.store.GetOrCreate(ctx, chatID)
		if err != nil {
			return storeFailurePrompt(), err
		}
		if s.Amount > acc.Balance {
			e.sessions.Update(chatID, func(s *session.Session) {
				s.Step = session.StepAwaitingAmount
				s.Selected = nil
			})
			logger.Debug(ctx, component, "confirm.stale_balance",
				slog.Int64("chat_id", chatID),
				slog.Int64("amount", s.Amount),
				slog.Int64("balance", acc.Balance),
			)
			return insufficientFundsPrompt(acc.Balance), domain.ErrInsufficientFunds
		}
	}

	acc, err := e.store.CommitTransaction(ctx, chatID, kind, s.Amount, e.now())
	if errors.Is(err, domain.ErrInsufficientFunds) {
		fresh, readErr := e.store.GetOrCreate(ctx, chatID)
		if readErr != nil {
			return storeFailurePrompt(), readErr
		}
		e.sessions.Update(chatID, func(s *session.Session) {
			s.Step = session.StepAwaitingAmount
			s.Selected = nil
		})
		return insufficientFundsPrompt(fresh.Balance), err
	}
	if err != nil {
		return storeFailurePrompt(), err
	}

	e.sessions.Reset(chatID)

	verb := "Deposit"
	if kind == domain.TxWithdrawal {
		verb = "Withdrawal"
	}
	logger.Info(ctx, component, "transaction.committed",
		slog.Int64("chat_id", chatID),
		slog.String("op", string(kind)),
		slog.Int64("amount", s.Amount),
		slog.Int64("balance", acc.Balance),
	)
	return Prompt{
		Text: fmt.Sprintf("✅ %s of %s confirmed. New balance: %s.",
			verb, domain.FormatMoney(s.Amount), domain.FormatMoney(acc.Balance)),
		Rows: onePerRow(newTransactionChoice()),
	}, nil
}

// Cancel clears all pending state without touching the store.
func (e *Engine) Cancel(ctx context.Context, chatID int64) Prompt {
	e.sessions.Reset(chatID)
	logger.Debug(ctx, component, "flow.cancelled", slog.Int64("chat_id", chatID))
	return Prompt{Text: "❌ Operation cancelled."}
}

func mainMenu(text string) Prompt {
	return Prompt{
		Text: text,
		Rows: onePerRow(
			Choice{Label: "💰 Check Balance", Action: ActionCheckBalance},
			Choice{Label: "💵 Deposit", Action: ActionDeposit},
			Choice{Label: "💸 Withdraw", Action: ActionWithdraw},
		),
	}
}

func insufficientFundsPrompt(balance int64) Prompt {
	return Prompt{
		Text: fmt.Sprintf("⚠️ You cannot withdraw more than your balance!\n💵 Your current balance is: %s.",
			domain.FormatMoney(balance)),
		Rows: [][]Choice{
			row(Choice{Label: "🔄 Try Again", Action: ActionWithdraw}),
			row(cancelChoice()),
		},
	}
}

func nothingPendingPrompt() Prompt {
	return Prompt{
		Text: "⚠️ Nothing to confirm here.",
		Rows: onePerRow(newTransactionChoice()),
	}
}

func storeFailurePrompt() Prompt {
	return Prompt{
		Text: "⚠️ Service is temporarily unavailable. Please try again later.",
		Rows: onePerRow(newTransactionChoice()),
	}
}

func newTransactionChoice() Choice {
	return Choice{Label: "🔄 New Transaction", Action: ActionStartTransaction}
}

func cancelChoice() Choice {
	return Choice{Label: "❌ Cancel", Action: ActionCancel}
}

func opEmoji(kind domain.TxKind) string {
	if kind == domain.TxWithdrawal {
		return "💸"
	}
	return "💵"
}
