package app

import (
	"fmt"
	"strings"

	abcitypes "github.com/tendermint/tendermint/abci/types"

	"github.com/tendermint/limitorder/abci/code"
	"github.com/tendermint/limitorder/internal/validation"
	"github.com/tendermint/limitorder/types"
)

// Query paths served by the application. Queries read committed state.
const (
	QueryPathCoin     = "/coin"
	QueryPathBalance  = "/balance"
	QueryPathCoins    = "/coins"
	QueryPathAsset    = "/asset"
	QueryPathAssets   = "/assets"
	QueryPathSimulate = "/simulate"
)

// BalanceResponse is the value of a /balance query.
type BalanceResponse struct {
	Owner  types.Address `json:"owner"`
	Asset  types.AssetID `json:"asset"`
	Amount uint64        `json:"amount"`
}

// SimulateResponse is the value of a /simulate query.
type SimulateResponse struct {
	Valid  bool                     `json:"valid"`
	Error  string                   `json:"error,omitempty"`
	Orders []validation.OrderResult `json:"orders"`
}

// Query serves read requests. The data of each path is:
//
//	/coin      HASH:index
//	/balance   OWNER/ASSET
//	/coins     OWNER
//	/asset     ASSET
//	/assets    (empty)
//	/simulate  an encoded transfer message
func (app *Application) Query(req abcitypes.RequestQuery) abcitypes.ResponseQuery {
	value, err := app.query(req.Path, req.Data)
	if err != nil {
		return abcitypes.ResponseQuery{
			Code:   code.CodeTypeQueryError,
			Log:    err.Error(),
			Height: app.store.Height(),
		}
	}
	return abcitypes.ResponseQuery{
		Code:   code.CodeTypeOK,
		Key:    req.Data,
		Value:  value,
		Height: app.store.Height(),
	}
}

func (app *Application) query(path string, data []byte) ([]byte, error) {
	arg := strings.TrimSpace(string(data))
	switch path {
	case QueryPathCoin:
		id, err := types.ParseCoinID(arg)
		if err != nil {
			return nil, err
		}
		coin, ok, err := app.store.GetCoin(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("coin %v not found", id)
		}
		return mustMarshal(coin), nil

	case QueryPathBalance:
		parts := strings.SplitN(arg, "/", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid balance query %q: expected OWNER/ASSET", arg)
		}
		owner, err := types.ParseAddress(parts[0])
		if err != nil {
			return nil, err
		}
		asset, err := types.ParseAssetID(parts[1])
		if err != nil {
			return nil, err
		}
		amount, err := app.store.Balance(owner, asset)
		if err != nil {
			return nil, err
		}
		return mustMarshal(BalanceResponse{Owner: owner, Asset: asset, Amount: amount}), nil

	case QueryPathCoins:
		owner, err := types.ParseAddress(arg)
		if err != nil {
			return nil, err
		}
		coins, err := app.store.Coins(owner)
		if err != nil {
			return nil, err
		}
		if coins == nil {
			coins = types.Coins{}
		}
		return mustMarshal(coins), nil

	case QueryPathAsset:
		id, err := types.ParseAssetID(arg)
		if err != nil {
			return nil, err
		}
		asset, ok, err := app.store.GetAsset(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("asset %v not found", id)
		}
		return mustMarshal(asset), nil

	case QueryPathAssets:
		assets, err := app.store.Assets()
		if err != nil {
			return nil, err
		}
		if assets == nil {
			assets = []types.Asset{}
		}
		return mustMarshal(assets), nil

	case QueryPathSimulate:
		msg, err := types.DecodeMsg(data)
		if err != nil {
			return nil, err
		}
		tx, ok := msg.(*types.Tx)
		if !ok {
			return nil, fmt.Errorf("can only simulate transfers, got %T", msg)
		}
		res := SimulateResponse{Valid: true, Orders: app.validator.Simulate(tx)}
		if res.Orders == nil {
			res.Orders = []validation.OrderResult{}
		}
		if _, err := app.validator.DryRunTx(app.store, tx); err != nil {
			res.Valid = false
			res.Error = err.Error()
		}
		return mustMarshal(res), nil
	}
	return nil, fmt.Errorf("unknown query path %q", path)
}
