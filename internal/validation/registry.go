package validation

import (
	"fmt"

	"github.com/tendermint/limitorder/crypto/ed25519"
	"github.com/tendermint/limitorder/internal/ledger"
	tmmath "github.com/tendermint/limitorder/libs/math"
	"github.com/tendermint/limitorder/types"
)

func verifyIssuer(pubKey, sig, signBytes []byte) error {
	pub := ed25519.PubKey(pubKey)
	if len(pub) != ed25519.PubKeySize {
		return fmt.Errorf("%w: invalid public key size %d", ErrUnauthorized, len(pub))
	}
	if !pub.VerifySignature(signBytes, sig) {
		return fmt.Errorf("%w: invalid signature", ErrUnauthorized)
	}
	return nil
}

// ValidateRegisterAsset checks that msg is signed by its issuer and that
// the issuer has not registered the symbol before. It returns the asset to
// be created.
func (v *Validator) ValidateRegisterAsset(r ledger.Reader, msg *types.RegisterAsset) (types.Asset, error) {
	if err := msg.ValidateBasic(); err != nil {
		return types.Asset{}, fmt.Errorf("%w: %v", ErrInvalidTx, err)
	}
	if err := verifyIssuer(msg.PubKey, msg.Signature, msg.SignBytes(v.chainID)); err != nil {
		return types.Asset{}, err
	}
	asset := msg.Asset()
	_, exists, err := r.GetAsset(asset.ID)
	if err != nil {
		return asset, err
	}
	if exists {
		return asset, fmt.Errorf("%w: asset %s already registered by %v", ErrDuplicate, asset.Symbol, asset.Issuer)
	}
	return asset, nil
}

// ExecRegisterAsset validates msg against c and creates the asset.
func (v *Validator) ExecRegisterAsset(c *ledger.Cache, msg *types.RegisterAsset) (types.Asset, error) {
	asset, err := v.ValidateRegisterAsset(c, msg)
	if err != nil {
		v.metrics.RejectedTxs.With("reason", Reason(err)).Add(1)
		return asset, err
	}
	return asset, c.SetAsset(asset)
}

// ValidateMint checks that msg is signed by the issuer of an existing asset,
// was not executed before and keeps the supply within range. It returns the
// asset with its supply updated.
func (v *Validator) ValidateMint(r ledger.Reader, msg *types.Mint) (types.Asset, error) {
	if err := msg.ValidateBasic(); err != nil {
		return types.Asset{}, fmt.Errorf("%w: %v", ErrInvalidTx, err)
	}
	asset, ok, err := r.GetAsset(msg.Asset)
	if err != nil {
		return asset, err
	}
	if !ok {
		return asset, fmt.Errorf("%w: %v", ErrUnknownAsset, msg.Asset)
	}
	if types.AddressFromPubKey(msg.PubKey) != asset.Issuer {
		return asset, fmt.Errorf("%w: only the issuer of %s may mint", ErrUnauthorized, asset.Symbol)
	}
	if err := verifyIssuer(msg.PubKey, msg.Signature, msg.SignBytes(v.chainID)); err != nil {
		return asset, err
	}
	seen, err := r.HasMint(msg.Hash())
	if err != nil {
		return asset, err
	}
	if seen {
		return asset, fmt.Errorf("%w: mint %v already executed", ErrDuplicate, msg.Hash())
	}
	if asset.Supply, err = tmmath.SafeAddUint64(asset.Supply, msg.Amount); err != nil {
		return asset, fmt.Errorf("%w: supply of %s overflows", ErrInvalidTx, asset.Symbol)
	}
	return asset, nil
}

// ExecMint validates msg against c, creates the minted coin and records
// the mint at height.
func (v *Validator) ExecMint(c *ledger.Cache, msg *types.Mint, height int64) (types.Coin, error) {
	asset, err := v.ValidateMint(c, msg)
	if err != nil {
		v.metrics.RejectedTxs.With("reason", Reason(err)).Add(1)
		return types.Coin{}, err
	}
	coin := types.Coin{
		ID:     msg.CoinID(),
		Owner:  msg.To,
		Asset:  msg.Asset,
		Amount: msg.Amount,
	}
	if err := c.SetAsset(asset); err != nil {
		return coin, err
	}
	if err := c.AddCoin(coin); err != nil {
		return coin, err
	}
	c.AddMint(msg.Hash(), height)
	return coin, nil
}
