package errs

import "errors"

var (
	// Лента предложений
	ErrFeedUnavailable = errors.New("feed unavailable")
	ErrMalformedOffer  = errors.New("malformed offer")

	// Бюджет
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrDailyBudgetExceeded   = errors.New("daily budget exceeded")
	ErrOverallBudgetExceeded = errors.New("overall budget exceeded")
	ErrSupplyExhausted       = errors.New("supply exhausted")
	ErrInvalidAmount         = errors.New("invalid amount")

	// Покупка
	ErrExternalBuyFailed = errors.New("external buy failed")

	// Управление
	ErrNotFound       = errors.New("not found")
	ErrInvalidState   = errors.New("invalid state")
	ErrUnknownUser    = errors.New("unknown user")
	ErrUnknownSource  = errors.New("unknown feed source")
	ErrInvalidRequest = errors.New("invalid request")
)

// IsBudgetRejection - отказ бюджета, ожидаемый и не фатальный
func IsBudgetRejection(err error) bool {
	return Is(err, ErrInsufficientFunds) ||
		Is(err, ErrDailyBudgetExceeded) ||
		Is(err, ErrOverallBudgetExceeded) ||
		Is(err, ErrSupplyExhausted)
}
