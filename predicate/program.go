package predicate

import (
	"encoding/binary"
	"fmt"

	"github.com/tendermint/limitorder/crypto"
	"github.com/tendermint/limitorder/types"
)

// Program codes. The code is hashed into the predicate address, so a coin
// locked by one program can never be spent under the rules of the other.
const (
	SingleOutputCode = "limitorder/single-output/v1"
	AggregateCode    = "limitorder/aggregate/v1"
)

type paymentPolicy uint8

const (
	// single: one output to the maker must cover the whole payment.
	paySingle paymentPolicy = iota
	// aggregate: every maker output in asset1 counts toward the payment.
	payAggregate
)

// Program is the code half of a predicate. It is immutable and safe for
// concurrent use.
type Program struct {
	code   string
	policy paymentPolicy
}

var (
	// SingleOutput is the canonical limit order program.
	SingleOutput = Program{code: SingleOutputCode, policy: paySingle}
	// Aggregate lets a fill pay the maker across several outputs.
	Aggregate = Program{code: AggregateCode, policy: payAggregate}
)

// ProgramByCode returns the program with the given code.
func ProgramByCode(code string) (Program, error) {
	switch code {
	case SingleOutputCode:
		return SingleOutput, nil
	case AggregateCode:
		return Aggregate, nil
	default:
		return Program{}, fmt.Errorf("unknown predicate program %q", code)
	}
}

// Code returns the program code.
func (p Program) Code() string { return p.code }

func (p Program) String() string { return p.code }

// Address returns the address of the predicate made of p and cfg. Coins
// sent to it can only be spent by fills that satisfy the order or by the
// maker.
func (p Program) Address(cfg OrderConfig) types.Address {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(p.code)))
	return types.Address(crypto.Sum256(
		[]byte("limitorder/predicate"),
		n[:],
		[]byte(p.code),
		cfg.Bytes(),
	))
}

// Order binds a program to a configuration.
type Order struct {
	Program Program
	Config  OrderConfig
}

// NewOrder returns the order with the given program and configuration.
func NewOrder(p Program, cfg OrderConfig) Order {
	return Order{Program: p, Config: cfg}
}

// ParseWitness resolves the program and configuration revealed by a
// predicate input.
func ParseWitness(w types.PredicateWitness) (Order, error) {
	p, err := ProgramByCode(w.Program)
	if err != nil {
		return Order{}, err
	}
	cfg, err := ParseConfig(w.Config)
	if err != nil {
		return Order{}, err
	}
	return NewOrder(p, cfg), nil
}

// Address is the predicate address owning the order's coins.
func (o Order) Address() types.Address {
	return o.Program.Address(o.Config)
}

// Witness returns what a predicate input spending the order's coins must
// reveal.
func (o Order) Witness() *types.PredicateWitness {
	return &types.PredicateWitness{
		Program: o.Program.Code(),
		Config:  o.Config.Bytes(),
	}
}

// Evaluate evaluates the order's predicate over tx.
func (o Order) Evaluate(tx TxView) Decision {
	return o.Program.Evaluate(o.Config, o.Address(), tx)
}
