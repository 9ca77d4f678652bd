package types

import (
	"errors"
	"fmt"

	"github.com/tendermint/limitorder/crypto"
	tmbytes "github.com/tendermint/limitorder/libs/bytes"
)

const (
	// MaxInputs and MaxOutputs bound the work of validating a single
	// transaction.
	MaxInputs  = 255
	MaxOutputs = 255

	// MaxMemoSize is the maximum size of a transaction memo in bytes.
	MaxMemoSize = 256
)

// InputKind tells the host how the spending of an input is authorized.
type InputKind uint8

const (
	// InputSigned is authorized by an ed25519 signature of the coin owner.
	InputSigned InputKind = iota + 1
	// InputPredicate is authorized by the predicate whose address owns the
	// coin.
	InputPredicate
)

func (k InputKind) String() string {
	switch k {
	case InputSigned:
		return "signed"
	case InputPredicate:
		return "predicate"
	default:
		return fmt.Sprintf("InputKind(%d)", uint8(k))
	}
}

func (k InputKind) MarshalText() ([]byte, error) {
	switch k {
	case InputSigned, InputPredicate:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("unknown input kind %d", uint8(k))
	}
}

func (k *InputKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "signed":
		*k = InputSigned
	case "predicate":
		*k = InputPredicate
	default:
		return fmt.Errorf("unknown input kind %q", text)
	}
	return nil
}

// OutputKind distinguishes new coins from change. Both create a coin owned by
// To; the distinction is informational for wallets.
type OutputKind uint8

const (
	OutputCoin OutputKind = iota + 1
	OutputChange
)

func (k OutputKind) String() string {
	switch k {
	case OutputCoin:
		return "coin"
	case OutputChange:
		return "change"
	default:
		return fmt.Sprintf("OutputKind(%d)", uint8(k))
	}
}

func (k OutputKind) MarshalText() ([]byte, error) {
	switch k {
	case OutputCoin, OutputChange:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("unknown output kind %d", uint8(k))
	}
}

func (k *OutputKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "coin":
		*k = OutputCoin
	case "change":
		*k = OutputChange
	default:
		return fmt.Errorf("unknown output kind %q", text)
	}
	return nil
}

// PredicateWitness reveals the program and configuration whose hash is the
// address owning a predicate input.
type PredicateWitness struct {
	Program string           `json:"program"`
	Config  tmbytes.HexBytes `json:"config"`
}

// Input spends an existing coin. Owner, Asset and Amount repeat the coin's
// fields so that predicates can inspect the transaction without access to the
// UTXO set; the host checks that they match.
type Input struct {
	Kind   InputKind `json:"kind"`
	Coin   CoinID    `json:"coin"`
	Owner  Address   `json:"owner"`
	Asset  AssetID   `json:"asset"`
	Amount uint64    `json:"amount"`

	// signed inputs
	PubKey    tmbytes.HexBytes `json:"pub_key,omitempty"`
	Signature tmbytes.HexBytes `json:"signature,omitempty"`

	// predicate inputs
	Predicate *PredicateWitness `json:"predicate,omitempty"`
}

// IsSigned reports whether spending the input requires the owner's signature.
func (in Input) IsSigned() bool { return in.Kind == InputSigned }

// IsPredicate reports whether the input is authorized by a predicate.
func (in Input) IsPredicate() bool { return in.Kind == InputPredicate }

// Output creates a new coin.
type Output struct {
	Kind   OutputKind `json:"kind"`
	To     Address    `json:"to"`
	Asset  AssetID    `json:"asset"`
	Amount uint64     `json:"amount"`
}

// Tx moves value between owners. Every asset is conserved: the inputs and
// outputs of each asset sum to the same amount.
type Tx struct {
	Inputs  []Input  `json:"inputs"`
	Outputs []Output `json:"outputs"`
	Memo    string   `json:"memo,omitempty"`
}

// NumInputs, Input, NumOutputs and Output give read-only, allocation free
// access to the transaction for predicates.
func (tx *Tx) NumInputs() int { return len(tx.Inputs) }

func (tx *Tx) Input(i int) Input { return tx.Inputs[i] }

func (tx *Tx) NumOutputs() int { return len(tx.Outputs) }

func (tx *Tx) Output(i int) Output { return tx.Outputs[i] }

// Hash identifies the transaction. Signatures are excluded, so the hash and
// the ids of the coins the transaction creates cannot be malleated.
func (tx *Tx) Hash() Hash {
	return Hash(crypto.Sum256([]byte("limitorder/tx"), tx.body()))
}

// SignBytes returns the digest every signed input signs.
func (tx *Tx) SignBytes(chainID string) []byte {
	h := crypto.Sum256([]byte("limitorder/sign/tx"), []byte(chainID), tx.body())
	return h[:]
}

func (tx *Tx) body() []byte {
	var e encoder
	e.uint64(uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		e.byte(byte(in.Kind))
		e.bytes(in.Coin.TxHash[:])
		e.uint64(uint64(in.Coin.Index))
		e.bytes(in.Owner[:])
		e.bytes(in.Asset[:])
		e.uint64(in.Amount)
		e.bytes(in.PubKey)
		if in.Predicate != nil {
			e.byte(1)
			e.bytes([]byte(in.Predicate.Program))
			e.bytes(in.Predicate.Config)
		} else {
			e.byte(0)
		}
	}
	e.uint64(uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		e.byte(byte(out.Kind))
		e.bytes(out.To[:])
		e.bytes(out.Asset[:])
		e.uint64(out.Amount)
	}
	e.bytes([]byte(tx.Memo))
	return e.buf.Bytes()
}

var (
	ErrNoInputs       = errors.New("transaction has no inputs")
	ErrNoOutputs      = errors.New("transaction has no outputs")
	ErrTooManyInputs  = errors.New("too many inputs")
	ErrTooManyOutputs = errors.New("too many outputs")
	ErrDuplicateInput = errors.New("coin spent twice in the same transaction")
	ErrMemoTooLarge   = errors.New("memo too large")
)

// ValidateBasic performs stateless checks of the transaction shape.
func (tx *Tx) ValidateBasic() error {
	switch {
	case len(tx.Inputs) == 0:
		return ErrNoInputs
	case len(tx.Outputs) == 0:
		return ErrNoOutputs
	case len(tx.Inputs) > MaxInputs:
		return ErrTooManyInputs
	case len(tx.Outputs) > MaxOutputs:
		return ErrTooManyOutputs
	case len(tx.Memo) > MaxMemoSize:
		return ErrMemoTooLarge
	}

	seen := make(map[CoinID]struct{}, len(tx.Inputs))
	for i, in := range tx.Inputs {
		if _, ok := seen[in.Coin]; ok {
			return fmt.Errorf("input %d: %w", i, ErrDuplicateInput)
		}
		seen[in.Coin] = struct{}{}

		if in.Amount == 0 {
			return fmt.Errorf("input %d: zero amount", i)
		}
		switch in.Kind {
		case InputSigned:
			if len(in.PubKey) == 0 || len(in.Signature) == 0 {
				return fmt.Errorf("input %d: signed input without pub_key and signature", i)
			}
			if in.Predicate != nil {
				return fmt.Errorf("input %d: signed input with predicate witness", i)
			}
		case InputPredicate:
			if in.Predicate == nil {
				return fmt.Errorf("input %d: predicate input without witness", i)
			}
			if len(in.PubKey) != 0 || len(in.Signature) != 0 {
				return fmt.Errorf("input %d: predicate input with signature", i)
			}
		default:
			return fmt.Errorf("input %d: unknown kind %v", i, in.Kind)
		}
	}

	for i, out := range tx.Outputs {
		switch out.Kind {
		case OutputCoin, OutputChange:
		default:
			return fmt.Errorf("output %d: unknown kind %v", i, out.Kind)
		}
		if out.To.IsZero() {
			return fmt.Errorf("output %d: empty recipient", i)
		}
	}
	return nil
}
