package domain

// Error is a coded domain error. The code feeds structured handler logs,
// the message is developer-facing only; user-facing text is built by the
// conversation flows.
type Error struct {
	code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Code returns the stable machine-readable error code.
func (e *Error) Code() string { return e.code }

var (
	// ErrInvalidAmount flags non-numeric or non-positive text where an
	// amount was expected.
	ErrInvalidAmount = &Error{code: "INVALID_AMOUNT", msg: "amount must be a positive whole number"}

	// ErrInsufficientFunds flags a withdrawal exceeding the current balance,
	// checked both at entry and again at confirm time.
	ErrInsufficientFunds = &Error{code: "INSUFFICIENT_FUNDS", msg: "withdrawal exceeds current balance"}

	// ErrNoMethodSelected flags method detail text arriving with no pending
	// method kind.
	ErrNoMethodSelected = &Error{code: "NO_METHOD_SELECTED", msg: "no payment method kind pending"}

	// ErrIndexOutOfRange flags a method selection referencing a stale or
	// invalid position.
	ErrIndexOutOfRange = &Error{code: "INDEX_OUT_OF_RANGE", msg: "payment method index out of range"}

	// ErrNotFound flags a store read for an account that was never created.
	ErrNotFound = &Error{code: "ACCOUNT_NOT_FOUND", msg: "account not found"}

	// ErrStoreUnavailable flags a backend I/O failure. It is surfaced to the
	// user as a generic failure and never retried automatically.
	ErrStoreUnavailable = &Error{code: "STORE_UNAVAILABLE", msg: "account store unavailable"}
)
