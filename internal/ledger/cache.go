package ledger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/tendermint/limitorder/types"
)

type op struct {
	value  []byte
	delete bool
}

// Cache buffers writes on top of the committed store. The application keeps
// one for the block being delivered and one for the mempool view. A Cache
// is not safe for concurrent use.
type Cache struct {
	store  *Store
	writes map[string]op
}

var _ Reader = (*Cache)(nil)

// NewCache returns an empty cache over s.
func (s *Store) NewCache() *Cache {
	return &Cache{store: s, writes: make(map[string]op)}
}

func (c *Cache) get(key []byte) ([]byte, error) {
	if o, ok := c.writes[string(key)]; ok {
		if o.delete {
			return nil, nil
		}
		return o.value, nil
	}
	return c.store.db.Get(key)
}

func (c *Cache) set(key, value []byte) {
	c.writes[string(key)] = op{value: value}
}

func (c *Cache) del(key []byte) {
	c.writes[string(key)] = op{delete: true}
}

func (c *Cache) GetCoin(id types.CoinID) (types.Coin, bool, error) {
	return getCoin(c.get, id)
}

func (c *Cache) GetAsset(id types.AssetID) (types.Asset, bool, error) {
	return getAsset(c.get, id)
}

func (c *Cache) HasMint(hash types.Hash) (bool, error) {
	bz, err := c.get(mintKey(hash))
	return bz != nil, err
}

// AddCoin adds coin to the UTXO set.
func (c *Cache) AddCoin(coin types.Coin) error {
	bz, err := json.Marshal(coin)
	if err != nil {
		return err
	}
	var amount [8]byte
	binary.BigEndian.PutUint64(amount[:], coin.Amount)

	c.set(coinKey(coin.ID), bz)
	c.set(ownerKey(coin.Owner, coin.Asset, coin.ID), amount[:])
	return nil
}

// SpendCoin removes the coin with the given id and returns it.
func (c *Cache) SpendCoin(id types.CoinID) (types.Coin, error) {
	coin, ok, err := c.GetCoin(id)
	if err != nil {
		return coin, err
	}
	if !ok {
		return coin, fmt.Errorf("%w: %v", ErrCoinNotFound, id)
	}
	c.del(coinKey(id))
	c.del(ownerKey(coin.Owner, coin.Asset, id))
	return coin, nil
}

// SetAsset creates or updates an asset.
func (c *Cache) SetAsset(asset types.Asset) error {
	bz, err := json.Marshal(asset)
	if err != nil {
		return err
	}
	c.set(assetKey(asset.ID), bz)
	return nil
}

// AddMint records that the mint with the given hash was executed at height.
func (c *Cache) AddMint(hash types.Hash, height int64) {
	var h [8]byte
	binary.BigEndian.PutUint64(h[:], uint64(height))
	c.set(mintKey(hash), h[:])
}

// Size returns the number of buffered writes.
func (c *Cache) Size() int { return len(c.writes) }

// Write flushes the buffered writes to the store in a single batch and
// empties the cache.
func (c *Cache) Write() error {
	if len(c.writes) == 0 {
		return nil
	}
	batch := c.store.db.NewBatch()
	defer batch.Close()

	for k, o := range c.writes {
		var err error
		if o.delete {
			err = batch.Delete([]byte(k))
		} else {
			err = batch.Set([]byte(k), o.value)
		}
		if err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	c.Discard()
	return nil
}

// Discard drops the buffered writes.
func (c *Cache) Discard() {
	c.writes = make(map[string]op)
}
