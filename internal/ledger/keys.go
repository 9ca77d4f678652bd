package ledger

import (
	"fmt"

	"github.com/google/orderedcode"

	"github.com/tendermint/limitorder/types"
)

// key prefixes
const (
	prefixCoin  = int64(0)
	prefixOwner = int64(1)
	prefixAsset = int64(2)
	prefixMint  = int64(3)
	prefixState = int64(4)
)

func coinKey(id types.CoinID) []byte {
	key, err := orderedcode.Append(nil, prefixCoin, string(id.TxHash[:]), int64(id.Index))
	if err != nil {
		panic(err)
	}
	return key
}

func ownerKey(owner types.Address, asset types.AssetID, id types.CoinID) []byte {
	key, err := orderedcode.Append(nil, prefixOwner, string(owner[:]), string(asset[:]),
		string(id.TxHash[:]), int64(id.Index))
	if err != nil {
		panic(err)
	}
	return key
}

// ownerPrefix returns the prefix of the owner index entries of owner and,
// if asset is not nil, of its coins in asset.
func ownerPrefix(owner types.Address, asset *types.AssetID) []byte {
	items := []interface{}{prefixOwner, string(owner[:])}
	if asset != nil {
		items = append(items, string(asset[:]))
	}
	key, err := orderedcode.Append(nil, items...)
	if err != nil {
		panic(err)
	}
	return key
}

func decodeOwnerKey(key []byte) (owner types.Address, asset types.AssetID, id types.CoinID, err error) {
	var (
		prefix                    int64
		ownerStr, assetStr, txStr string
		index                     int64
	)
	remaining, err := orderedcode.Parse(string(key), &prefix, &ownerStr, &assetStr, &txStr, &index)
	if err != nil {
		return
	}
	if len(remaining) != 0 {
		err = fmt.Errorf("expected complete key but got remainder: %s", remaining)
		return
	}
	if prefix != prefixOwner {
		err = fmt.Errorf("incorrect prefix. Expected %v, got %v", prefixOwner, prefix)
		return
	}
	if len(ownerStr) != types.AddressSize || len(assetStr) != types.AssetIDSize || len(txStr) != len(id.TxHash) {
		err = fmt.Errorf("malformed owner index key %X", key)
		return
	}
	copy(owner[:], ownerStr)
	copy(asset[:], assetStr)
	copy(id.TxHash[:], txStr)
	id.Index = uint32(index)
	return
}

func assetKey(id types.AssetID) []byte {
	key, err := orderedcode.Append(nil, prefixAsset, string(id[:]))
	if err != nil {
		panic(err)
	}
	return key
}

func mintKey(hash types.Hash) []byte {
	key, err := orderedcode.Append(nil, prefixMint, string(hash[:]))
	if err != nil {
		panic(err)
	}
	return key
}

func stateKey() []byte {
	key, err := orderedcode.Append(nil, prefixState)
	if err != nil {
		panic(err)
	}
	return key
}

// prefixRange returns the key range [start, end) holding every key of the
// given prefix.
func prefixRange(prefix int64) (start, end []byte) {
	start, err := orderedcode.Append(nil, prefix)
	if err != nil {
		panic(err)
	}
	end, err = orderedcode.Append(nil, prefix+1)
	if err != nil {
		panic(err)
	}
	return start, end
}
