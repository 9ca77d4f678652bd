package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"

	"github.com/tendermint/limitorder/crypto"
	tmbytes "github.com/tendermint/limitorder/libs/bytes"
)

const (
	// AddressSize is the size in bytes of account and predicate addresses.
	AddressSize = 32
	// AssetIDSize is the size in bytes of an asset identifier.
	AssetIDSize = 32

	// Bech32Prefix is the human readable part of bech32 encoded addresses.
	Bech32Prefix = "lo"
)

// Address identifies the owner of a coin. It is either the hash of an
// ed25519 public key or the hash of a predicate program and its
// configuration.
type Address [AddressSize]byte

// AssetID identifies a fungible asset.
type AssetID [AssetIDSize]byte

// Hash is a SHA3-256 digest.
type Hash [crypto.HashSize]byte

// AddressFromPubKey returns the account address controlled by pubKey.
func AddressFromPubKey(pubKey []byte) Address {
	return Address(crypto.AddressHash(pubKey))
}

// ParseAddress accepts both the hex and the bech32 forms of an address.
func ParseAddress(s string) (Address, error) {
	var a Address
	if strings.HasPrefix(strings.ToLower(s), Bech32Prefix+"1") {
		hrp, data, err := bech32.Decode(s)
		if err != nil {
			return a, fmt.Errorf("decoding bech32 address: %w", err)
		}
		if hrp != Bech32Prefix {
			return a, fmt.Errorf("invalid address prefix %q", hrp)
		}
		raw, err := bech32.ConvertBits(data, 5, 8, false)
		if err != nil {
			return a, err
		}
		if len(raw) != AddressSize {
			return a, fmt.Errorf("invalid address length %d", len(raw))
		}
		copy(a[:], raw)
		return a, nil
	}
	err := tmbytes.DecodeFixed(a[:], s)
	return a, err
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) IsZero() bool { return a == Address{} }

func (a Address) String() string {
	return strings.ToUpper(hex.EncodeToString(a[:]))
}

// Bech32 returns the human readable form of the address.
func (a Address) Bech32() string {
	conv, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	s, err := bech32.Encode(Bech32Prefix, conv)
	if err != nil {
		panic(err)
	}
	return s
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAssetID parses the hex form of an asset id.
func ParseAssetID(s string) (AssetID, error) {
	var id AssetID
	err := tmbytes.DecodeFixed(id[:], s)
	return id, err
}

func (id AssetID) Bytes() []byte { return id[:] }

func (id AssetID) IsZero() bool { return id == AssetID{} }

func (id AssetID) String() string {
	return strings.ToUpper(hex.EncodeToString(id[:]))
}

func (id AssetID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *AssetID) UnmarshalText(text []byte) error {
	parsed, err := ParseAssetID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) String() string {
	return strings.ToUpper(hex.EncodeToString(h[:]))
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		return errors.New("empty hash")
	}
	return tmbytes.DecodeFixed(h[:], string(text))
}
