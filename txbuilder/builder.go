// Package txbuilder assembles and signs the transactions that create, fill
// and cancel limit orders.
package txbuilder

import (
	"errors"
	"fmt"

	"github.com/tendermint/limitorder/crypto/ed25519"
	tmmath "github.com/tendermint/limitorder/libs/math"
	"github.com/tendermint/limitorder/predicate"
	"github.com/tendermint/limitorder/types"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMissingKey        = errors.New("no key for signed input")
)

// RequiredPayment is the least amount of asset1 a fill of a0 must pay.
func RequiredPayment(cfg predicate.OrderConfig, a0 uint64) (uint64, error) {
	return predicate.RequiredPayment(cfg, a0)
}

// PriceFromAmounts returns the order price of selling amount0 for amount1,
// rounded down.
func PriceFromAmounts(amount0, amount1 uint64) (uint64, error) {
	if amount0 == 0 {
		return 0, errors.New("amount0 must be positive")
	}
	return tmmath.MulDivFloor(amount1, predicate.Scale, amount0)
}

// SelectCoins picks coins of asset, in the order given, until they cover
// amount. It returns the selection and its total.
func SelectCoins(coins types.Coins, asset types.AssetID, amount uint64) (types.Coins, uint64, error) {
	var (
		selected types.Coins
		total    uint64
	)
	for _, c := range coins {
		if total >= amount && len(selected) > 0 {
			break
		}
		if c.Asset != asset || c.Amount == 0 {
			continue
		}
		next, err := tmmath.SafeAddUint64(total, c.Amount)
		if err != nil {
			return nil, 0, err
		}
		selected = append(selected, c)
		total = next
	}
	if total < amount || len(selected) == 0 {
		return nil, 0, fmt.Errorf("%w: have %d of %v, need %d", ErrInsufficientFunds, total, asset, amount)
	}
	return selected, total, nil
}

// SignedInput spends coin with the owner's signature.
func SignedInput(coin types.Coin) types.Input {
	return types.Input{
		Kind:   types.InputSigned,
		Coin:   coin.ID,
		Owner:  coin.Owner,
		Asset:  coin.Asset,
		Amount: coin.Amount,
	}
}

// PredicateInput spends coin, owned by order, under the order predicate.
func PredicateInput(coin types.Coin, order predicate.Order) types.Input {
	return types.Input{
		Kind:      types.InputPredicate,
		Coin:      coin.ID,
		Owner:     coin.Owner,
		Asset:     coin.Asset,
		Amount:    coin.Amount,
		Predicate: order.Witness(),
	}
}

// Sign sets the public key and signature of every signed input of tx. keys
// must hold a key for every owner of a signed input.
func Sign(tx *types.Tx, chainID string, keys ...ed25519.PrivKey) error {
	byOwner := make(map[types.Address]ed25519.PrivKey, len(keys))
	for _, k := range keys {
		byOwner[types.AddressFromPubKey(k.PubKey().Bytes())] = k
	}

	for i := range tx.Inputs {
		in := &tx.Inputs[i]
		if !in.IsSigned() {
			continue
		}
		k, ok := byOwner[in.Owner]
		if !ok {
			return fmt.Errorf("%w: input %d owned by %v", ErrMissingKey, i, in.Owner)
		}
		in.PubKey = k.PubKey().Bytes()
	}

	signBytes := tx.SignBytes(chainID)
	for i := range tx.Inputs {
		in := &tx.Inputs[i]
		if !in.IsSigned() {
			continue
		}
		sig, err := byOwner[in.Owner].Sign(signBytes)
		if err != nil {
			return err
		}
		in.Signature = sig
	}
	return nil
}

func addressOf(key ed25519.PrivKey) types.Address {
	return types.AddressFromPubKey(key.PubKey().Bytes())
}

// CreateOrder locks amount0 of the maker's asset0 coins in order. The rest
// of the selected coins returns to the maker as change.
func CreateOrder(chainID string, maker ed25519.PrivKey, order predicate.Order, coins types.Coins, amount0 uint64) (*types.Tx, error) {
	if err := order.Config.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid order: %w", err)
	}
	if amount0 == 0 {
		return nil, errors.New("amount0 must be positive")
	}
	makerAddr := addressOf(maker)
	selected, total, err := SelectCoins(coins, order.Config.Asset0, amount0)
	if err != nil {
		return nil, err
	}

	tx := &types.Tx{}
	for _, c := range selected {
		tx.Inputs = append(tx.Inputs, SignedInput(c))
	}
	tx.Outputs = append(tx.Outputs, types.Output{
		Kind:   types.OutputCoin,
		To:     order.Address(),
		Asset:  order.Config.Asset0,
		Amount: amount0,
	})
	if total > amount0 {
		tx.Outputs = append(tx.Outputs, types.Output{
			Kind:   types.OutputChange,
			To:     makerAddr,
			Asset:  order.Config.Asset0,
			Amount: total - amount0,
		})
	}
	return tx, Sign(tx, chainID, maker)
}

// FulfillOrder takes take of asset0 from the order's coins and pays the
// maker exactly the required payment out of the taker's coins.
func FulfillOrder(chainID string, taker ed25519.PrivKey, order predicate.Order,
	orderCoins, takerCoins types.Coins, take uint64) (*types.Tx, error) {
	pay, err := RequiredPayment(order.Config, take)
	if err != nil {
		return nil, err
	}
	return FulfillOrderWithPayment(chainID, taker, order, orderCoins, takerCoins, take, pay)
}

// FulfillOrderWithPayment is FulfillOrder paying pay. It builds the four
// output fill: the maker payment, the taker's asset0, the change back to
// the order and the taker's asset1 change.
func FulfillOrderWithPayment(chainID string, taker ed25519.PrivKey, order predicate.Order,
	orderCoins, takerCoins types.Coins, take, pay uint64) (*types.Tx, error) {
	cfg := order.Config
	self := order.Address()
	takerAddr := addressOf(taker)

	locked, lockedTotal, err := SelectCoins(orderCoins, cfg.Asset0, take)
	if err != nil {
		return nil, fmt.Errorf("order: %w", err)
	}
	funds, fundsTotal, err := SelectCoins(takerCoins, cfg.Asset1, pay)
	if err != nil {
		return nil, fmt.Errorf("taker: %w", err)
	}

	tx := &types.Tx{}
	for _, c := range locked {
		if c.Owner != self {
			return nil, fmt.Errorf("coin %v is not owned by the order", c.ID)
		}
		tx.Inputs = append(tx.Inputs, PredicateInput(c, order))
	}
	for _, c := range funds {
		tx.Inputs = append(tx.Inputs, SignedInput(c))
	}
	tx.Outputs = []types.Output{
		{Kind: types.OutputCoin, To: cfg.Maker, Asset: cfg.Asset1, Amount: pay},
		{Kind: types.OutputCoin, To: takerAddr, Asset: cfg.Asset0, Amount: take},
		{Kind: types.OutputChange, To: self, Asset: cfg.Asset0, Amount: lockedTotal - take},
		{Kind: types.OutputChange, To: takerAddr, Asset: cfg.Asset1, Amount: fundsTotal - pay},
	}
	return tx, Sign(tx, chainID, taker)
}

// CancelOrder returns every coin of the order to the maker. The maker
// authorizes it by also spending makerCoin, which comes back unchanged.
func CancelOrder(chainID string, maker ed25519.PrivKey, order predicate.Order,
	orderCoins types.Coins, makerCoin types.Coin) (*types.Tx, error) {
	if len(orderCoins) == 0 {
		return nil, errors.New("no order coins to cancel")
	}
	makerAddr := addressOf(maker)
	if makerCoin.Owner != makerAddr {
		return nil, fmt.Errorf("coin %v is not owned by the maker", makerCoin.ID)
	}

	tx := &types.Tx{}
	var (
		assets []types.AssetID
		sums   = make(map[types.AssetID]uint64)
	)
	for _, c := range orderCoins {
		tx.Inputs = append(tx.Inputs, PredicateInput(c, order))
		if _, ok := sums[c.Asset]; !ok {
			assets = append(assets, c.Asset)
		}
		sum, err := tmmath.SafeAddUint64(sums[c.Asset], c.Amount)
		if err != nil {
			return nil, err
		}
		sums[c.Asset] = sum
	}
	tx.Inputs = append(tx.Inputs, SignedInput(makerCoin))

	for _, asset := range assets {
		tx.Outputs = append(tx.Outputs, types.Output{
			Kind:   types.OutputCoin,
			To:     makerAddr,
			Asset:  asset,
			Amount: sums[asset],
		})
	}
	tx.Outputs = append(tx.Outputs, types.Output{
		Kind:   types.OutputChange,
		To:     makerAddr,
		Asset:  makerCoin.Asset,
		Amount: makerCoin.Amount,
	})
	return tx, Sign(tx, chainID, maker)
}
