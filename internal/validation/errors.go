package validation

import "errors"

// Validation failures. The application maps each to a result code; the
// wrapped message carries the details.
var (
	ErrInvalidTx         = errors.New("invalid transaction")
	ErrUnknownCoin       = errors.New("unknown or spent coin")
	ErrCoinMismatch      = errors.New("input does not match the coin it spends")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrPredicateRejected = errors.New("predicate rejected the transaction")
	ErrProgramDisabled   = errors.New("predicate program disabled on this node")
	ErrConservation      = errors.New("inputs and outputs do not balance")
	ErrUnknownAsset      = errors.New("unknown asset")
	ErrDuplicate         = errors.New("duplicate")
)

// Reason returns a short label of err for metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidTx):
		return "invalid"
	case errors.Is(err, ErrUnknownCoin):
		return "unknown_coin"
	case errors.Is(err, ErrCoinMismatch):
		return "coin_mismatch"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrPredicateRejected):
		return "predicate_reject"
	case errors.Is(err, ErrProgramDisabled):
		return "program_disabled"
	case errors.Is(err, ErrConservation):
		return "conservation"
	case errors.Is(err, ErrUnknownAsset):
		return "unknown_asset"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	default:
		return "internal"
	}
}
