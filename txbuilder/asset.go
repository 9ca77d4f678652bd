package txbuilder

import (
	"github.com/tendermint/limitorder/crypto/ed25519"
	"github.com/tendermint/limitorder/types"
)

// RegisterAsset returns a signed message registering symbol under issuer.
func RegisterAsset(chainID string, issuer ed25519.PrivKey, symbol, name string, decimals uint8) (*types.RegisterAsset, error) {
	msg := &types.RegisterAsset{
		Symbol:   symbol,
		Name:     name,
		Decimals: decimals,
		PubKey:   issuer.PubKey().Bytes(),
	}
	sig, err := issuer.Sign(msg.SignBytes(chainID))
	if err != nil {
		return nil, err
	}
	msg.Signature = sig
	return msg, nil
}

// Mint returns a signed message minting amount of asset to to. Mints with
// equal fields need distinct nonces.
func Mint(chainID string, issuer ed25519.PrivKey, asset types.AssetID, to types.Address, amount, nonce uint64) (*types.Mint, error) {
	msg := &types.Mint{
		Asset:  asset,
		To:     to,
		Amount: amount,
		Nonce:  nonce,
		PubKey: issuer.PubKey().Bytes(),
	}
	sig, err := issuer.Sign(msg.SignBytes(chainID))
	if err != nil {
		return nil, err
	}
	msg.Signature = sig
	return msg, nil
}
