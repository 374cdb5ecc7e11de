// Package domain defines the durable banking records and the errors the
// conversation flows translate into user-facing messages.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// TxKind identifies the direction of a committed balance mutation.
type TxKind string

const (
	TxDeposit    TxKind = "deposit"
	TxWithdrawal TxKind = "withdrawal"
)

// Valid reports whether the kind is one of the known transaction kinds.
func (k TxKind) Valid() bool {
	return k == TxDeposit || k == TxWithdrawal
}

// Transaction is the single most recent committed balance mutation.
// It is overwritten on every commit, never accumulated into a history.
type Transaction struct {
	Kind   TxKind    `json:"kind" db:"last_tx_kind"`
	Amount int64     `json:"amount" db:"last_tx_amount"`
	Time   time.Time `json:"time" db:"last_tx_time"`
}

// MethodKind identifies how funds move for a saved payment method.
type MethodKind string

const (
	MethodBankTransfer MethodKind = "bank_transfer"
	MethodPayPal       MethodKind = "paypal"
	MethodCrypto       MethodKind = "crypto"
)

// Valid reports whether the kind is one of the known method kinds.
func (k MethodKind) Valid() bool {
	switch k {
	case MethodBankTransfer, MethodPayPal, MethodCrypto:
		return true
	}
	return false
}

// PaymentMethod is an immutable saved way to move funds. Methods are
// referenced by position in the owning account's sequence, so the order
// must stay append-only.
type PaymentMethod struct {
	Kind  MethodKind `json:"kind"`
	Label string     `json:"label"`
}

// Account is the durable per-chat record: balance, the last committed
// transaction, and the ordered payment method sequence.
type Account struct {
	ChatID          int64           `db:"chat_id"`
	Balance         int64           `db:"balance"`
	LastTransaction *Transaction    `db:"-"`
	Methods         []PaymentMethod `db:"-"`
}

// CryptoCurrencies is the closed set of currencies offered when adding
// a crypto payment method.
var CryptoCurrencies = []string{"btc", "eth", "usdt"}

// ValidCryptoCurrency reports whether the given currency code is offered.
func ValidCryptoCurrency(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, c := range CryptoCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// BankTransferLabel builds the display label for a bank transfer method.
func BankTransferLabel(bank string) string {
	return "Bank Transfer: " + strings.TrimSpace(bank)
}

// PayPalLabel builds the display label for a PayPal method.
func PayPalLabel(email string) string {
	return "PayPal: " + strings.TrimSpace(email)
}

// CryptoLabel builds the display label for a crypto method,
// e.g. ("btc", "bc1...") -> "BTC: bc1...".
func CryptoLabel(currency, address string) string {
	return strings.ToUpper(strings.TrimSpace(currency)) + ": " + strings.TrimSpace(address)
}

// FormatMoney renders a whole-unit amount the way the bot displays it.
func FormatMoney(amount int64) string {
	return fmt.Sprintf("$%.2f", float64(amount))
}
