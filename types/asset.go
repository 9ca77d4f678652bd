package types

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/tendermint/limitorder/crypto"
	tmbytes "github.com/tendermint/limitorder/libs/bytes"
)

// MaxDecimals bounds the display precision of an asset.
const MaxDecimals = 18

var symbolRegexp = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,7}$`)

// Asset describes a fungible token. Only its issuer may mint it.
type Asset struct {
	ID       AssetID `json:"id"`
	Issuer   Address `json:"issuer"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Decimals uint8   `json:"decimals"`
	// Supply is the total amount minted so far.
	Supply uint64 `json:"supply"`
}

// DeriveAssetID returns the id of the asset issued by issuer under symbol.
// An issuer cannot register the same symbol twice.
func DeriveAssetID(issuer Address, symbol string) AssetID {
	return AssetID(crypto.Sum256([]byte("limitorder/asset"), issuer[:], []byte(symbol)))
}

func (a Asset) ValidateBasic() error {
	if !symbolRegexp.MatchString(a.Symbol) {
		return fmt.Errorf("invalid symbol %q: expected 1-8 upper case alphanumerics", a.Symbol)
	}
	if len(a.Name) > 32 {
		return errors.New("asset name longer than 32 bytes")
	}
	if a.Decimals > MaxDecimals {
		return fmt.Errorf("decimals must be at most %d", MaxDecimals)
	}
	if a.ID != DeriveAssetID(a.Issuer, a.Symbol) {
		return errors.New("asset id does not match issuer and symbol")
	}
	return nil
}

// RegisterAsset creates a new asset issued by the owner of PubKey.
type RegisterAsset struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`

	PubKey    tmbytes.HexBytes `json:"pub_key"`
	Signature tmbytes.HexBytes `json:"signature"`
}

// Issuer is the address of the signer.
func (msg *RegisterAsset) Issuer() Address {
	return AddressFromPubKey(msg.PubKey)
}

// Asset returns the asset registered by msg with zero supply.
func (msg *RegisterAsset) Asset() Asset {
	issuer := msg.Issuer()
	return Asset{
		ID:       DeriveAssetID(issuer, msg.Symbol),
		Issuer:   issuer,
		Symbol:   msg.Symbol,
		Name:     msg.Name,
		Decimals: msg.Decimals,
	}
}

func (msg *RegisterAsset) SignBytes(chainID string) []byte {
	var e encoder
	e.bytes([]byte(msg.Symbol))
	e.bytes([]byte(msg.Name))
	e.byte(msg.Decimals)
	e.bytes(msg.PubKey)
	h := crypto.Sum256([]byte("limitorder/sign/register_asset"), []byte(chainID), e.buf.Bytes())
	return h[:]
}

func (msg *RegisterAsset) ValidateBasic() error {
	if len(msg.PubKey) == 0 || len(msg.Signature) == 0 {
		return errors.New("register_asset must carry pub_key and signature")
	}
	return msg.Asset().ValidateBasic()
}

// Mint creates Amount of Asset owned by To. It must be signed by the asset
// issuer. Nonce makes otherwise identical mints distinct.
type Mint struct {
	Asset  AssetID `json:"asset"`
	To     Address `json:"to"`
	Amount uint64  `json:"amount"`
	Nonce  uint64  `json:"nonce"`

	PubKey    tmbytes.HexBytes `json:"pub_key"`
	Signature tmbytes.HexBytes `json:"signature"`
}

func (msg *Mint) body() []byte {
	var e encoder
	e.bytes(msg.Asset[:])
	e.bytes(msg.To[:])
	e.uint64(msg.Amount)
	e.uint64(msg.Nonce)
	e.bytes(msg.PubKey)
	return e.buf.Bytes()
}

// Hash identifies the mint; the minted coin is CoinID{Hash, 0}.
func (msg *Mint) Hash() Hash {
	return Hash(crypto.Sum256([]byte("limitorder/mint"), msg.body()))
}

// CoinID is the id of the coin this mint creates.
func (msg *Mint) CoinID() CoinID {
	return CoinID{TxHash: msg.Hash()}
}

func (msg *Mint) SignBytes(chainID string) []byte {
	h := crypto.Sum256([]byte("limitorder/sign/mint"), []byte(chainID), msg.body())
	return h[:]
}

func (msg *Mint) ValidateBasic() error {
	switch {
	case msg.Amount == 0:
		return errors.New("mint amount must be positive")
	case msg.To.IsZero():
		return errors.New("mint recipient is empty")
	case msg.Asset.IsZero():
		return errors.New("mint asset is empty")
	case len(msg.PubKey) == 0 || len(msg.Signature) == 0:
		return errors.New("mint must carry pub_key and signature")
	}
	return nil
}
