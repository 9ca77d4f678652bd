package predicate

import (
	"errors"
	"fmt"

	tmmath "github.com/tendermint/limitorder/libs/math"
	"github.com/tendermint/limitorder/types"
)

// TxView is the read-only view of a transaction a predicate evaluates.
// *types.Tx implements it.
type TxView interface {
	NumInputs() int
	Input(i int) types.Input
	NumOutputs() int
	Output(i int) types.Output
}

// Family tells which rule accepted a transaction.
type Family uint8

const (
	FamilyNone Family = iota
	// FamilyCancel: the maker signed one of the inputs.
	FamilyCancel
	// FamilyFill: the transaction pays the maker at least the order price
	// for the asset0 it consumes.
	FamilyFill
)

func (f Family) String() string {
	switch f {
	case FamilyNone:
		return "none"
	case FamilyCancel:
		return "cancel"
	case FamilyFill:
		return "fill"
	default:
		return fmt.Sprintf("Family(%d)", uint8(f))
	}
}

func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Family) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none":
		*f = FamilyNone
	case "cancel":
		*f = FamilyCancel
	case "fill":
		*f = FamilyFill
	default:
		return fmt.Errorf("unknown family %q", text)
	}
	return nil
}

// Reasons a fill is rejected. A maker cancel cannot fail: a transaction
// without a maker signature is judged as a fill only.
var (
	ErrNothingConsumed  = errors.New("no asset0 consumed from the order")
	ErrBelowMinimum     = errors.New("fill below the order minimum")
	ErrPriceOverflow    = errors.New("payment computation overflows")
	ErrZeroPrice        = errors.New("order has a zero price")
	ErrNoPayment        = errors.New("no asset1 output pays the maker")
	ErrUnderpaid        = errors.New("maker payment below the order price")
	ErrForeignAsset     = errors.New("order input holds an asset other than asset0")
	ErrForeignPredicate = errors.New("transaction spends coins of another predicate")
	ErrDrained          = errors.New("asset0 sent to an address that did not sign")
	ErrAmountOverflow   = errors.New("amount sum overflows")
)

// Decision is the outcome of a predicate evaluation. Only Accepted has
// meaning on chain; the other fields explain it.
type Decision struct {
	Accepted bool   `json:"accepted"`
	Family   Family `json:"family"`
	Reason   error  `json:"-"`

	// A0 is the net amount of asset0 taken from the order.
	A0 uint64 `json:"a0"`
	// Required is the smallest payment the maker accepts for A0.
	Required uint64 `json:"required"`
	// Paid is the payment counted toward Required.
	Paid uint64 `json:"paid"`
}

func (d Decision) String() string {
	if d.Accepted {
		return fmt.Sprintf("accepted(%v a0=%d required=%d paid=%d)", d.Family, d.A0, d.Required, d.Paid)
	}
	return fmt.Sprintf("rejected(%v a0=%d required=%d paid=%d)", d.Reason, d.A0, d.Required, d.Paid)
}

// RequiredPayment returns ceil(a0 * price / Scale), the least amount of
// asset1 the maker accepts for a0 of asset0.
func RequiredPayment(cfg OrderConfig, a0 uint64) (uint64, error) {
	required, err := tmmath.MulDivCeil(a0, cfg.Price, Scale)
	if err != nil {
		return 0, ErrPriceOverflow
	}
	return required, nil
}

// Accepts reports whether the predicate of the order (p, cfg) at address
// self allows tx to spend the order's coins.
func (p Program) Accepts(cfg OrderConfig, self types.Address, tx TxView) bool {
	return p.Evaluate(cfg, self, tx).Accepted
}

// Evaluate decides whether tx may spend coins owned by self, the address of
// the order (p, cfg). It reads tx only and does not allocate.
func (p Program) Evaluate(cfg OrderConfig, self types.Address, tx TxView) Decision {
	nIn, nOut := tx.NumInputs(), tx.NumOutputs()

	for i := 0; i < nIn; i++ {
		in := tx.Input(i)
		if in.IsSigned() && in.Owner == cfg.Maker {
			return Decision{Accepted: true, Family: FamilyCancel}
		}
	}
	return p.evaluateFill(cfg, self, tx, nIn, nOut)
}

func (p Program) evaluateFill(cfg OrderConfig, self types.Address, tx TxView, nIn, nOut int) Decision {
	var (
		d        Decision
		consumed uint64
		returned uint64
		err      error
	)
	reject := func(reason error) Decision {
		d.Accepted, d.Family, d.Reason = false, FamilyNone, reason
		return d
	}

	for i := 0; i < nIn; i++ {
		in := tx.Input(i)
		if !in.IsPredicate() {
			continue
		}
		if in.Owner != self {
			return reject(ErrForeignPredicate)
		}
		if in.Asset != cfg.Asset0 {
			return reject(ErrForeignAsset)
		}
		if consumed, err = tmmath.SafeAddUint64(consumed, in.Amount); err != nil {
			return reject(ErrAmountOverflow)
		}
	}

	for i := 0; i < nOut; i++ {
		out := tx.Output(i)
		if out.To != self || out.Asset != cfg.Asset0 {
			continue
		}
		if returned, err = tmmath.SafeAddUint64(returned, out.Amount); err != nil {
			return reject(ErrAmountOverflow)
		}
	}

	if returned < consumed {
		d.A0 = consumed - returned
	}
	if d.A0 == 0 {
		return reject(ErrNothingConsumed)
	}
	if d.A0 < cfg.MinFulfillAmount0 {
		return reject(ErrBelowMinimum)
	}
	// A zero price would give the order away; such orders can only be
	// cancelled.
	if cfg.Price == 0 {
		return reject(ErrZeroPrice)
	}
	if d.Required, err = RequiredPayment(cfg, d.A0); err != nil {
		return reject(ErrPriceOverflow)
	}

	found := false
	for i := 0; i < nOut; i++ {
		out := tx.Output(i)
		if out.To != cfg.Maker || out.Asset != cfg.Asset1 {
			continue
		}
		found = true
		switch p.policy {
		case payAggregate:
			if d.Paid, err = tmmath.SafeAddUint64(d.Paid, out.Amount); err != nil {
				return reject(ErrAmountOverflow)
			}
		default:
			if out.Amount > d.Paid {
				d.Paid = out.Amount
			}
		}
	}
	if !found {
		return reject(ErrNoPayment)
	}
	if d.Paid < d.Required {
		return reject(ErrUnderpaid)
	}

	for i := 0; i < nOut; i++ {
		out := tx.Output(i)
		if out.Asset != cfg.Asset0 || out.Amount == 0 || out.To == self {
			continue
		}
		if !signedBy(tx, nIn, out.To) {
			return reject(ErrDrained)
		}
	}

	d.Accepted, d.Family = true, FamilyFill
	return d
}

// signedBy reports whether addr owns a signed input of tx.
func signedBy(tx TxView, nIn int, addr types.Address) bool {
	for i := 0; i < nIn; i++ {
		in := tx.Input(i)
		if in.IsSigned() && in.Owner == addr {
			return true
		}
	}
	return false
}
