package types

import (
	"fmt"
	"strconv"
	"strings"
)

// CoinID identifies an unspent output by the transaction that created it and
// the position of the output within that transaction.
type CoinID struct {
	TxHash Hash   `json:"tx_hash"`
	Index  uint32 `json:"index"`
}

func (id CoinID) String() string {
	return fmt.Sprintf("%s:%d", id.TxHash, id.Index)
}

// ParseCoinID parses the HASH:index form produced by CoinID.String.
func ParseCoinID(s string) (CoinID, error) {
	var id CoinID
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return id, fmt.Errorf("invalid coin id %q: expected HASH:index", s)
	}
	if err := id.TxHash.UnmarshalText([]byte(parts[0])); err != nil {
		return id, fmt.Errorf("invalid coin id hash: %w", err)
	}
	idx, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return id, fmt.Errorf("invalid coin id index: %w", err)
	}
	id.Index = uint32(idx)
	return id, nil
}

// Coin is an entry of the UTXO set.
type Coin struct {
	ID     CoinID  `json:"id"`
	Owner  Address `json:"owner"`
	Asset  AssetID `json:"asset"`
	Amount uint64  `json:"amount"`
}

func (c Coin) String() string {
	return fmt.Sprintf("Coin{%v %d of %X owned by %X}", c.ID, c.Amount, c.Asset[:4], c.Owner[:4])
}

// Coins is a list of coins.
type Coins []Coin

// Total returns the sum of amounts of coins in asset. ok is false if the sum
// overflows.
func (cs Coins) Total(asset AssetID) (total uint64, ok bool) {
	for _, c := range cs {
		if c.Asset != asset {
			continue
		}
		if total+c.Amount < total {
			return 0, false
		}
		total += c.Amount
	}
	return total, true
}

// OfAsset returns the coins denominated in asset, preserving order.
func (cs Coins) OfAsset(asset AssetID) Coins {
	out := make(Coins, 0, len(cs))
	for _, c := range cs {
		if c.Asset == asset {
			out = append(out, c)
		}
	}
	return out
}
