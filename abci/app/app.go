// Package app is the ABCI application of the limit order chain: a UTXO
// ledger whose coins are owned by ed25519 keys or by order predicates.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	abcitypes "github.com/tendermint/tendermint/abci/types"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/limitorder/abci/code"
	"github.com/tendermint/limitorder/internal/ledger"
	"github.com/tendermint/limitorder/internal/validation"
	"github.com/tendermint/limitorder/libs/log"
	"github.com/tendermint/limitorder/predicate"
	"github.com/tendermint/limitorder/types"
	"github.com/tendermint/limitorder/version"
)

var _ abcitypes.Application = (*Application)(nil)

// Application executes transfers, mints and asset registrations.
//
// Delivered messages are applied to a block cache that is flushed on
// Commit. Mempool checks run against a separate cache over the committed
// state, so transactions spending outputs of earlier mempool transactions
// are accepted. The check cache is reset on every Commit and rebuilt by
// the mempool's recheck.
type Application struct {
	abcitypes.BaseApplication

	chainID   string
	store     *ledger.Store
	deliver   *ledger.Cache
	check     *ledger.Cache
	validator *validation.Validator

	// height of the block being executed
	height int64

	logger            log.Logger
	metrics           *Metrics
	validationOptions []validation.Option
}

// Option sets an optional parameter on the Application.
type Option func(*Application)

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(app *Application) { app.logger = logger }
}

// WithMetrics sets the metrics of the application and of its validator.
func WithMetrics(metrics *Metrics, validationMetrics *validation.Metrics) Option {
	return func(app *Application) {
		app.metrics = metrics
		app.validationOptions = append(app.validationOptions, validation.WithMetrics(validationMetrics))
	}
}

// WithPolicy sets the node validation policy.
func WithPolicy(p validation.Policy) Option {
	return func(app *Application) {
		app.validationOptions = append(app.validationOptions, validation.WithPolicy(p))
	}
}

// NewApplication opens the application state held in db.
func NewApplication(chainID string, db dbm.DB, options ...Option) (*Application, error) {
	store, err := ledger.NewStore(db)
	if err != nil {
		return nil, err
	}
	app := &Application{
		chainID: chainID,
		store:   store,
		logger:  log.NewNopLogger(),
		metrics: NopMetrics(),
	}
	for _, option := range options {
		option(app)
	}
	app.validator = validation.NewValidator(chainID, app.logger.With("module", "validation"), app.validationOptions...)
	app.deliver = store.NewCache()
	app.check = store.NewCache()
	app.height = store.Height()
	return app, nil
}

// Close closes the application database.
func (app *Application) Close() error {
	return app.store.Close()
}

func (app *Application) Info(req abcitypes.RequestInfo) abcitypes.ResponseInfo {
	v := version.Current()
	return abcitypes.ResponseInfo{
		Data:             fmt.Sprintf("{\"height\":%v}", app.store.Height()),
		Version:          v.Software,
		AppVersion:       v.Protocol.Uint64(),
		LastBlockHeight:  app.store.Height(),
		LastBlockAppHash: app.store.AppHash(),
	}
}

// InitChain loads the genesis assets and coins.
func (app *Application) InitChain(req abcitypes.RequestInitChain) abcitypes.ResponseInitChain {
	if req.ChainId != app.chainID {
		panic(fmt.Sprintf("genesis chain id %q does not match configured chain id %q", req.ChainId, app.chainID))
	}
	genesis, err := types.ParseGenesisState(req.AppStateBytes)
	if err != nil {
		panic(fmt.Errorf("invalid genesis state: %w", err))
	}
	for _, asset := range genesis.Assets {
		if err := app.deliver.SetAsset(asset); err != nil {
			panic(err)
		}
	}
	for _, coin := range genesis.GenesisCoins() {
		if err := app.deliver.AddCoin(coin); err != nil {
			panic(err)
		}
	}
	if err := app.deliver.Write(); err != nil {
		panic(err)
	}
	app.check.Discard()

	app.logger.Info("initialized chain", "chain_id", req.ChainId,
		"assets", len(genesis.Assets), "coins", len(genesis.Coins))
	return abcitypes.ResponseInitChain{}
}

func (app *Application) BeginBlock(req abcitypes.RequestBeginBlock) abcitypes.ResponseBeginBlock {
	app.height = req.Header.Height
	return abcitypes.ResponseBeginBlock{}
}

// CheckTx validates a message against the mempool view and applies it to
// that view.
func (app *Application) CheckTx(req abcitypes.RequestCheckTx) abcitypes.ResponseCheckTx {
	res := app.exec(app.check, req.Tx, app.store.Height()+1)
	app.metrics.CheckedTxs.With("code", strconv.FormatUint(uint64(res.Code), 10)).Add(1)
	return abcitypes.ResponseCheckTx{
		Code:   res.Code,
		Log:    res.Log,
		Events: res.Events,
	}
}

// DeliverTx executes a message in the current block.
func (app *Application) DeliverTx(req abcitypes.RequestDeliverTx) abcitypes.ResponseDeliverTx {
	res := app.exec(app.deliver, req.Tx, app.height)
	app.metrics.DeliveredTxs.With("type", res.Type, "code", strconv.FormatUint(uint64(res.Code), 10)).Add(1)
	if res.Code != code.CodeTypeOK {
		app.logger.Debug("rejected tx", "height", app.height, "code", res.Code, "err", res.Log)
	}
	return abcitypes.ResponseDeliverTx{
		Code:   res.Code,
		Data:   res.Data,
		Log:    res.Log,
		Events: res.Events,
	}
}

// Commit flushes the block, computes the app hash and resets the mempool
// view to the new state.
func (app *Application) Commit() abcitypes.ResponseCommit {
	if err := app.deliver.Write(); err != nil {
		panic(err)
	}
	appHash, err := app.store.Commit(app.height)
	if err != nil {
		panic(err)
	}
	app.check.Discard()

	app.metrics.Height.Set(float64(app.height))
	app.logger.Info("committed state", "height", app.height, "app_hash", log.NewHexadecimal(appHash))
	return abcitypes.ResponseCommit{Data: appHash}
}

type execResult struct {
	Type   string
	Code   uint32
	Data   []byte
	Log    string
	Events []abcitypes.Event
}

func (app *Application) exec(c *ledger.Cache, txBytes []byte, height int64) execResult {
	msg, err := types.DecodeMsg(txBytes)
	if err != nil {
		return execResult{Type: "unknown", Code: code.CodeTypeEncodingError, Log: err.Error()}
	}

	switch msg := msg.(type) {
	case *types.Tx:
		res, err := app.validator.ExecTx(c, msg)
		if err != nil {
			return execResult{Type: types.MsgTypeTransfer, Code: errorCode(err), Log: err.Error()}
		}
		if c == app.deliver {
			for _, o := range res.Orders {
				if o.Decision.Family == predicate.FamilyFill {
					app.metrics.OrderFills.Add(1)
				} else {
					app.metrics.OrderCancels.Add(1)
				}
			}
		}
		return execResult{
			Type:   types.MsgTypeTransfer,
			Code:   code.CodeTypeOK,
			Data:   res.Hash.Bytes(),
			Events: transferEvents(res),
		}

	case *types.Mint:
		coin, err := app.validator.ExecMint(c, msg, height)
		if err != nil {
			return execResult{Type: types.MsgTypeMint, Code: errorCode(err), Log: err.Error()}
		}
		return execResult{
			Type:   types.MsgTypeMint,
			Code:   code.CodeTypeOK,
			Data:   coin.ID.TxHash.Bytes(),
			Events: []abcitypes.Event{mintEvent(coin)},
		}

	case *types.RegisterAsset:
		asset, err := app.validator.ExecRegisterAsset(c, msg)
		if err != nil {
			return execResult{Type: types.MsgTypeRegisterAsset, Code: errorCode(err), Log: err.Error()}
		}
		return execResult{
			Type:   types.MsgTypeRegisterAsset,
			Code:   code.CodeTypeOK,
			Data:   asset.ID.Bytes(),
			Events: []abcitypes.Event{registerAssetEvent(asset)},
		}
	}
	return execResult{Type: "unknown", Code: code.CodeTypeEncodingError, Log: fmt.Sprintf("unexpected message %T", msg)}
}

func errorCode(err error) uint32 {
	switch {
	case errors.Is(err, validation.ErrInvalidTx):
		return code.CodeTypeInvalidTx
	case errors.Is(err, validation.ErrUnknownCoin), errors.Is(err, validation.ErrCoinMismatch):
		return code.CodeTypeUnknownCoin
	case errors.Is(err, validation.ErrUnauthorized):
		return code.CodeTypeUnauthorized
	case errors.Is(err, validation.ErrPredicateRejected), errors.Is(err, validation.ErrProgramDisabled):
		return code.CodeTypePredicateReject
	case errors.Is(err, validation.ErrConservation):
		return code.CodeTypeConservation
	case errors.Is(err, validation.ErrDuplicate):
		return code.CodeTypeDuplicate
	case errors.Is(err, validation.ErrUnknownAsset):
		return code.CodeTypeUnknownAsset
	default:
		return code.CodeTypeUnknownError
	}
}

func mustMarshal(v interface{}) []byte {
	bz, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return bz
}
