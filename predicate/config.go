package predicate

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tendermint/limitorder/types"
)

const (
	// Scale is the fixed point scale of OrderConfig.Price: a price of
	// Scale means one unit of Asset1 per unit of Asset0.
	Scale uint64 = 1_000_000

	// ConfigSize is the length of the canonical configuration encoding.
	ConfigSize = types.AssetIDSize*2 + types.AddressSize + 8 + 8
)

// OrderConfig holds the five values fixed when an order is created. Together
// with the program they determine the predicate address, so they can never
// change for a given order.
type OrderConfig struct {
	// Asset0 is the asset the maker locks.
	Asset0 types.AssetID `json:"asset0"`
	// Asset1 is the asset the maker wants in return.
	Asset1 types.AssetID `json:"asset1"`
	// Maker is the only address that may receive payment and the only
	// owner whose signature cancels the order.
	Maker types.Address `json:"maker"`
	// Price is amount1 * Scale / amount0.
	Price uint64 `json:"price"`
	// MinFulfillAmount0 is the smallest amount of Asset0 a single fill may
	// consume.
	MinFulfillAmount0 uint64 `json:"min_fulfill_amount0"`
}

// Bytes returns the canonical encoding committed to by the predicate
// address: asset0 || asset1 || maker || price || min, integers big endian.
func (cfg OrderConfig) Bytes() []byte {
	bz := make([]byte, ConfigSize)
	n := copy(bz, cfg.Asset0[:])
	n += copy(bz[n:], cfg.Asset1[:])
	n += copy(bz[n:], cfg.Maker[:])
	binary.BigEndian.PutUint64(bz[n:], cfg.Price)
	binary.BigEndian.PutUint64(bz[n+8:], cfg.MinFulfillAmount0)
	return bz
}

// ParseConfig decodes the canonical encoding produced by Bytes.
func ParseConfig(bz []byte) (OrderConfig, error) {
	var cfg OrderConfig
	if len(bz) != ConfigSize {
		return cfg, fmt.Errorf("invalid order config length %d, expected %d", len(bz), ConfigSize)
	}
	n := copy(cfg.Asset0[:], bz)
	n += copy(cfg.Asset1[:], bz[n:])
	n += copy(cfg.Maker[:], bz[n:])
	cfg.Price = binary.BigEndian.Uint64(bz[n:])
	cfg.MinFulfillAmount0 = binary.BigEndian.Uint64(bz[n+8:])
	return cfg, nil
}

// ValidateBasic reports configurations that no fill could ever satisfy.
// Predicates do not call it; a malformed order can still be cancelled by
// its maker.
func (cfg OrderConfig) ValidateBasic() error {
	switch {
	case cfg.Asset0 == cfg.Asset1:
		return errors.New("asset0 and asset1 must differ")
	case cfg.Price == 0:
		return errors.New("price must be positive")
	case cfg.MinFulfillAmount0 == 0:
		return errors.New("min_fulfill_amount0 must be positive")
	case cfg.Maker.IsZero():
		return errors.New("maker is empty")
	}
	return nil
}

func (cfg OrderConfig) String() string {
	return fmt.Sprintf("OrderConfig{%X->%X maker=%X price=%d min=%d}",
		cfg.Asset0[:4], cfg.Asset1[:4], cfg.Maker[:4], cfg.Price, cfg.MinFulfillAmount0)
}
