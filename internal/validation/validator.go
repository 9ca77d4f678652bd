// Package validation checks transactions against the ledger and applies
// them.
//
// A transfer is valid when every input spends an existing coin and is
// authorized, and every asset balances. Signed inputs are authorized by an
// ed25519 signature of the coin owner. Predicate inputs are authorized by
// the order predicate their owner address commits to; the predicate of each
// distinct address is evaluated once per transaction.
package validation

import (
	"fmt"

	"github.com/tendermint/limitorder/crypto/ed25519"
	"github.com/tendermint/limitorder/internal/ledger"
	"github.com/tendermint/limitorder/libs/log"
	tmmath "github.com/tendermint/limitorder/libs/math"
	"github.com/tendermint/limitorder/predicate"
	"github.com/tendermint/limitorder/types"
)

// Policy holds node level validation settings.
type Policy struct {
	// AllowAggregatePayment enables coins locked by the aggregate payment
	// program to be spent by fills.
	AllowAggregatePayment bool
}

// DefaultPolicy accepts both predicate programs.
func DefaultPolicy() Policy {
	return Policy{AllowAggregatePayment: true}
}

// OrderResult is the predicate decision for one order spent by a
// transaction.
type OrderResult struct {
	Address  types.Address         `json:"address"`
	Program  string                `json:"program"`
	Config   predicate.OrderConfig `json:"config"`
	Decision predicate.Decision    `json:"decision"`
	Reason   string                `json:"reason,omitempty"`
}

// Result describes a valid transfer.
type Result struct {
	Hash   types.Hash
	Spent  types.Coins
	Orders []OrderResult
}

// Validator validates and applies messages. It is stateless apart from
// its configuration and safe for concurrent use.
type Validator struct {
	chainID string
	policy  Policy
	logger  log.Logger
	metrics *Metrics
}

// Option sets an optional parameter on the Validator.
type Option func(*Validator)

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(v *Validator) { v.metrics = metrics }
}

// WithPolicy sets the node policy.
func WithPolicy(p Policy) Option {
	return func(v *Validator) { v.policy = p }
}

// NewValidator returns a validator of messages signed for chainID.
func NewValidator(chainID string, logger log.Logger, options ...Option) *Validator {
	v := &Validator{
		chainID: chainID,
		policy:  DefaultPolicy(),
		logger:  logger,
		metrics: NopMetrics(),
	}
	for _, option := range options {
		option(v)
	}
	return v
}

// ChainID returns the chain id signatures are checked against.
func (v *Validator) ChainID() string { return v.chainID }

// ValidateTx checks tx against the coins of r without changing it.
func (v *Validator) ValidateTx(r ledger.Reader, tx *types.Tx) (*Result, error) {
	res, err := v.validateTx(r, tx, v.metrics)
	if err != nil {
		v.metrics.RejectedTxs.With("reason", Reason(err)).Add(1)
	}
	return res, err
}

// DryRunTx is ValidateTx for read-only callers such as queries. It records
// no metrics.
func (v *Validator) DryRunTx(r ledger.Reader, tx *types.Tx) (*Result, error) {
	return v.validateTx(r, tx, nopMetrics)
}

func (v *Validator) validateTx(r ledger.Reader, tx *types.Tx, m *Metrics) (*Result, error) {
	if err := tx.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTx, err)
	}
	m.TxInputs.Observe(float64(len(tx.Inputs)))

	res := &Result{Hash: tx.Hash(), Spent: make(types.Coins, 0, len(tx.Inputs))}
	signBytes := tx.SignBytes(v.chainID)

	var orders map[types.Address]predicate.Order
	for i, in := range tx.Inputs {
		coin, ok, err := r.GetCoin(in.Coin)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: input %d spends %v", ErrUnknownCoin, i, in.Coin)
		}
		if coin.Owner != in.Owner || coin.Asset != in.Asset || coin.Amount != in.Amount {
			return nil, fmt.Errorf("%w: input %d", ErrCoinMismatch, i)
		}
		res.Spent = append(res.Spent, coin)

		switch in.Kind {
		case types.InputSigned:
			if err := verifySigned(in, signBytes); err != nil {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
		case types.InputPredicate:
			order, err := v.resolveOrder(in)
			if err != nil {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
			if orders == nil {
				orders = make(map[types.Address]predicate.Order)
			}
			orders[in.Owner] = order
		}
	}

	// Evaluate each order once, in input order.
	for _, in := range tx.Inputs {
		order, ok := orders[in.Owner]
		if !in.IsPredicate() || !ok {
			continue
		}
		delete(orders, in.Owner)

		d := order.Evaluate(tx)
		m.PredicateEvaluations.With("program", order.Program.Code(), "result", resultLabel(d)).Add(1)
		if !d.Accepted {
			v.logger.Debug("predicate rejected transaction",
				"tx", res.Hash, "order", in.Owner, "reason", d.Reason)
			return nil, fmt.Errorf("%w: order %v", ErrPredicateRejected, in.Owner)
		}
		res.Orders = append(res.Orders, OrderResult{
			Address:  in.Owner,
			Program:  order.Program.Code(),
			Config:   order.Config,
			Decision: d,
		})
	}

	if err := checkConservation(tx); err != nil {
		return nil, err
	}
	return res, nil
}

func verifySigned(in types.Input, signBytes []byte) error {
	pub := ed25519.PubKey(in.PubKey)
	if len(pub) != ed25519.PubKeySize {
		return fmt.Errorf("%w: invalid public key size %d", ErrUnauthorized, len(pub))
	}
	if types.AddressFromPubKey(pub) != in.Owner {
		return fmt.Errorf("%w: public key does not own the coin", ErrUnauthorized)
	}
	if !pub.VerifySignature(signBytes, in.Signature) {
		return fmt.Errorf("%w: invalid signature", ErrUnauthorized)
	}
	return nil
}

func (v *Validator) resolveOrder(in types.Input) (predicate.Order, error) {
	order, err := predicate.ParseWitness(*in.Predicate)
	if err != nil {
		return order, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if order.Address() != in.Owner {
		return order, fmt.Errorf("%w: predicate witness does not match coin owner", ErrUnauthorized)
	}
	if order.Program == predicate.Aggregate && !v.policy.AllowAggregatePayment {
		return order, ErrProgramDisabled
	}
	return order, nil
}

func resultLabel(d predicate.Decision) string {
	if d.Accepted {
		return d.Family.String()
	}
	return "reject"
}

// checkConservation checks that every asset balances.
func checkConservation(tx *types.Tx) error {
	type balance struct{ in, out uint64 }
	sums := make(map[types.AssetID]*balance)
	get := func(asset types.AssetID) *balance {
		b, ok := sums[asset]
		if !ok {
			b = new(balance)
			sums[asset] = b
		}
		return b
	}

	var err error
	for _, in := range tx.Inputs {
		b := get(in.Asset)
		if b.in, err = tmmath.SafeAddUint64(b.in, in.Amount); err != nil {
			return fmt.Errorf("%w: input sum of %v overflows", ErrConservation, in.Asset)
		}
	}
	for _, out := range tx.Outputs {
		b := get(out.Asset)
		if b.out, err = tmmath.SafeAddUint64(b.out, out.Amount); err != nil {
			return fmt.Errorf("%w: output sum of %v overflows", ErrConservation, out.Asset)
		}
	}
	for _, out := range tx.Outputs {
		if b := sums[out.Asset]; b.in != b.out {
			return fmt.Errorf("%w: %v in %d, out %d", ErrConservation, out.Asset, b.in, b.out)
		}
	}
	for _, in := range tx.Inputs {
		if b := sums[in.Asset]; b.in != b.out {
			return fmt.Errorf("%w: %v in %d, out %d", ErrConservation, in.Asset, b.in, b.out)
		}
	}
	return nil
}

// Simulate evaluates the predicate of every order spent by tx and reports
// each decision, whether or not the rest of the transaction is valid.
func (v *Validator) Simulate(tx *types.Tx) []OrderResult {
	var (
		results []OrderResult
		seen    = make(map[types.Address]struct{})
	)
	for _, in := range tx.Inputs {
		if !in.IsPredicate() || in.Predicate == nil {
			continue
		}
		if _, ok := seen[in.Owner]; ok {
			continue
		}
		seen[in.Owner] = struct{}{}

		res := OrderResult{Address: in.Owner, Program: in.Predicate.Program}
		order, err := v.resolveOrder(in)
		if err != nil {
			res.Reason = err.Error()
			results = append(results, res)
			continue
		}
		res.Config = order.Config
		res.Decision = order.Evaluate(tx)
		if res.Decision.Reason != nil {
			res.Reason = res.Decision.Reason.Error()
		}
		results = append(results, res)
	}
	return results
}

// ExecTx validates tx against c and applies it: the spent coins are
// removed and the outputs are added with ids (hash, index). Outputs of zero
// amount create no coin.
func (v *Validator) ExecTx(c *ledger.Cache, tx *types.Tx) (*Result, error) {
	res, err := v.ValidateTx(c, tx)
	if err != nil {
		return nil, err
	}
	for _, coin := range res.Spent {
		if _, err := c.SpendCoin(coin.ID); err != nil {
			return nil, err
		}
	}
	for i, out := range tx.Outputs {
		if out.Amount == 0 {
			continue
		}
		err := c.AddCoin(types.Coin{
			ID:     types.CoinID{TxHash: res.Hash, Index: uint32(i)},
			Owner:  out.To,
			Asset:  out.Asset,
			Amount: out.Amount,
		})
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}
