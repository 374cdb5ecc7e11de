// Package flow implements the per-chat transaction state machine. It is
// transport-free: every entry point returns a Prompt view model that the
// bot layer renders into a message with inline buttons, which keeps the
// whole machine testable without a live chat connection.
package flow

// Action is the closed set of button actions the bot emits. Callback data
// is decoded into one of these at the transport boundary and dispatched by
// value, never by raw string comparison in handlers.
type Action string

const (
	ActionCheckBalance     Action = "check_balance"
	ActionDeposit          Action = "deposit"
	ActionWithdraw         Action = "withdraw"
	ActionConfirmDeposit   Action = "confirm_deposit"
	ActionConfirmWithdraw  Action = "confirm_withdraw"
	ActionCancel           Action = "cancel"
	ActionStartTransaction Action = "start_transaction"
	ActionAddMethod        Action = "add_method"
	ActionNewBankTransfer  Action = "new_bank_transfer"
	ActionNewPayPal        Action = "new_paypal"
	ActionNewCrypto        Action = "new_crypto"

	// ActionCryptoCurrency carries the currency code as payload.
	ActionCryptoCurrency Action = "crypto"
	// ActionSelectMethod carries the method index as payload.
	ActionSelectMethod Action = "method"
)

// Choice is one labeled button.
type Choice struct {
	Label   string
	Action  Action
	Payload string
}

// Prompt is the outbound view model: message text plus button rows.
type Prompt struct {
	Text string
	Rows [][]Choice
}

func row(choices ...Choice) []Choice { return choices }

func onePerRow(choices ...Choice) [][]Choice {
	rows := make([][]Choice, 0, len(choices))
	for _, c := range choices {
		rows = append(rows, []Choice{c})
	}
	return rows
}
