// Package ledger stores the UTXO set, the asset registry and the chain
// state of the application in a tm-db database.
package ledger

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	dbm "github.com/tendermint/tm-db"
	"golang.org/x/crypto/sha3"

	tmbytes "github.com/tendermint/limitorder/libs/bytes"
	"github.com/tendermint/limitorder/types"
)

// ErrCoinNotFound is returned when spending a coin that is not in the UTXO
// set.
var ErrCoinNotFound = errors.New("coin not found")

// Reader gives read access to the ledger.
type Reader interface {
	// GetCoin returns the unspent coin with the given id. ok is false if
	// the coin does not exist or was spent.
	GetCoin(id types.CoinID) (coin types.Coin, ok bool, err error)
	GetAsset(id types.AssetID) (asset types.Asset, ok bool, err error)
	// HasMint reports whether a mint with the given hash was executed.
	HasMint(hash types.Hash) (bool, error)
}

// State is the chain state committed together with the ledger.
type State struct {
	Height  int64            `json:"height"`
	AppHash tmbytes.HexBytes `json:"app_hash"`
}

// Store is the committed ledger.
type Store struct {
	db    dbm.DB
	state State
}

var _ Reader = (*Store)(nil)

// NewStore opens the ledger held by db.
func NewStore(db dbm.DB) (*Store, error) {
	s := &Store{db: db}
	bz, err := db.Get(stateKey())
	if err != nil {
		return nil, err
	}
	if len(bz) != 0 {
		if err := json.Unmarshal(bz, &s.state); err != nil {
			return nil, fmt.Errorf("decoding ledger state: %w", err)
		}
	}
	return s, nil
}

// State returns the last committed state.
func (s *Store) State() State {
	return State{Height: s.state.Height, AppHash: s.state.AppHash.Copy()}
}

// Height returns the height of the last committed block.
func (s *Store) Height() int64 { return s.state.Height }

// AppHash returns the app hash of the last committed block.
func (s *Store) AppHash() []byte { return s.state.AppHash.Copy() }

func (s *Store) GetCoin(id types.CoinID) (types.Coin, bool, error) {
	return getCoin(s.db.Get, id)
}

func (s *Store) GetAsset(id types.AssetID) (types.Asset, bool, error) {
	return getAsset(s.db.Get, id)
}

func (s *Store) HasMint(hash types.Hash) (bool, error) {
	return s.db.Has(mintKey(hash))
}

// Balance returns the total amount of asset owned by owner.
func (s *Store) Balance(owner types.Address, asset types.AssetID) (uint64, error) {
	coins, err := s.scanOwner(ownerPrefix(owner, &asset))
	if err != nil {
		return 0, err
	}
	total, ok := coins.Total(asset)
	if !ok {
		return 0, fmt.Errorf("balance of %v in %v overflows", owner, asset)
	}
	return total, nil
}

// Coins returns every coin of owner ordered by asset and coin id.
func (s *Store) Coins(owner types.Address) (types.Coins, error) {
	return s.scanOwner(ownerPrefix(owner, nil))
}

// Assets returns the registered assets ordered by id.
func (s *Store) Assets() ([]types.Asset, error) {
	start, end := prefixRange(prefixAsset)
	iter, err := s.db.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var assets []types.Asset
	for ; iter.Valid(); iter.Next() {
		var a types.Asset
		if err := json.Unmarshal(iter.Value(), &a); err != nil {
			return nil, fmt.Errorf("decoding asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, iter.Error()
}

func (s *Store) scanOwner(prefix []byte) (types.Coins, error) {
	iter, err := dbm.IteratePrefix(s.db, prefix)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var coins types.Coins
	for ; iter.Valid(); iter.Next() {
		owner, asset, id, err := decodeOwnerKey(iter.Key())
		if err != nil {
			return nil, err
		}
		if len(iter.Value()) != 8 {
			return nil, fmt.Errorf("malformed owner index value for %v", id)
		}
		coins = append(coins, types.Coin{
			ID:     id,
			Owner:  owner,
			Asset:  asset,
			Amount: binary.BigEndian.Uint64(iter.Value()),
		})
	}
	return coins, iter.Error()
}

// Commit records height, computes the app hash over every coin, asset and
// mint entry in key order and persists both. It returns the new app hash.
func (s *Store) Commit(height int64) ([]byte, error) {
	appHash, err := s.hash()
	if err != nil {
		return nil, err
	}
	state := State{Height: height, AppHash: appHash}
	bz, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	if err := s.db.SetSync(stateKey(), bz); err != nil {
		return nil, err
	}
	s.state = state
	return state.AppHash.Copy(), nil
}

func (s *Store) hash() ([]byte, error) {
	h := sha3.New256()
	var n [8]byte
	for _, prefix := range []int64{prefixCoin, prefixAsset, prefixMint} {
		start, end := prefixRange(prefix)
		iter, err := s.db.Iterator(start, end)
		if err != nil {
			return nil, err
		}
		for ; iter.Valid(); iter.Next() {
			for _, bz := range [][]byte{iter.Key(), iter.Value()} {
				binary.BigEndian.PutUint64(n[:], uint64(len(bz)))
				h.Write(n[:])
				h.Write(bz)
			}
		}
		err = iter.Error()
		iter.Close()
		if err != nil {
			return nil, err
		}
	}
	return h.Sum(nil), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type getter func(key []byte) ([]byte, error)

func getCoin(get getter, id types.CoinID) (types.Coin, bool, error) {
	var c types.Coin
	bz, err := get(coinKey(id))
	if err != nil || bz == nil {
		return c, false, err
	}
	if err := json.Unmarshal(bz, &c); err != nil {
		return c, false, fmt.Errorf("decoding coin %v: %w", id, err)
	}
	return c, true, nil
}

func getAsset(get getter, id types.AssetID) (types.Asset, bool, error) {
	var a types.Asset
	bz, err := get(assetKey(id))
	if err != nil || bz == nil {
		return a, false, err
	}
	if err := json.Unmarshal(bz, &a); err != nil {
		return a, false, fmt.Errorf("decoding asset %v: %w", id, err)
	}
	return a, true, nil
}
