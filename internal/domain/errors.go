package domain

import "errors"

// Ledger failures. They are detected locally, are never retried, and are
// returned before any state is written. Callers match them with errors.Is.
var (
	// ErrInvalidQuantity is returned when a trade has non-positive shares or price
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInsufficientShares is returned when a sell exceeds the held shares
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrNegativeShares is returned when reverting or restoring a transaction
	// would leave the holding with a negative share count
	ErrNegativeShares = errors.New("negative shares")

	// ErrHoldingNotFound is returned when no holding exists for an id
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrHoldingExists is returned when adding a holding whose id is taken
	ErrHoldingExists = errors.New("holding already exists")

	// ErrTransactionNotFound is returned when no transaction exists for an id
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrUnsupportedFrequency is returned when a non-daily contribution is
	// submitted for automatic execution
	ErrUnsupportedFrequency = errors.New("unsupported contribution frequency")

	// ErrAmountTooSmall is returned when a contribution buys no shares
	ErrAmountTooSmall = errors.New("contribution amount too small")

	// ErrInvalidContribution is returned when a contribution config has a
	// shape the legacy parser does not recognize
	ErrInvalidContribution = errors.New("invalid contribution config")

	// ErrInvalidHolding is returned when a holding breaks a field rule
	ErrInvalidHolding = errors.New("invalid holding")

	// ErrInvalidTransaction is returned when a transaction has no holding or
	// an unknown type
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrTradingClosed is returned when trades are restricted to the
	// post-close window and the market clock is before it
	ErrTradingClosed = errors.New("trading window closed")
)
