package app_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abcitypes "github.com/tendermint/tendermint/abci/types"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/limitorder/abci/app"
	"github.com/tendermint/limitorder/abci/code"
	"github.com/tendermint/limitorder/crypto/ed25519"
	"github.com/tendermint/limitorder/internal/validation"
	"github.com/tendermint/limitorder/libs/log"
	"github.com/tendermint/limitorder/predicate"
	"github.com/tendermint/limitorder/txbuilder"
	"github.com/tendermint/limitorder/types"
)

const chainID = "limitorder-test"

var (
	alice  = ed25519.GenPrivKeyFromSecret([]byte("alice"))
	bob    = ed25519.GenPrivKeyFromSecret([]byte("bob"))
	carol  = ed25519.GenPrivKeyFromSecret([]byte("carol"))
	issuer = ed25519.GenPrivKeyFromSecret([]byte("issuer"))

	usdc = types.DeriveAssetID(addr(issuer), "USDC")
	uni  = types.DeriveAssetID(addr(issuer), "UNI")
)

const (
	amount0 = 1_000_000_000
	amount1 = 200_000_000_000
)

func addr(k ed25519.PrivKey) types.Address {
	return types.AddressFromPubKey(k.PubKey().Bytes())
}

type testChain struct {
	t      *testing.T
	app    *app.Application
	height int64
}

func newTestChain(t *testing.T, options ...app.Option) *testChain {
	options = append([]app.Option{app.WithLogger(log.TestingLogger())}, options...)
	a, err := app.NewApplication(chainID, dbm.NewMemDB(), options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	genesis := types.GenesisState{
		Assets: []types.Asset{
			{ID: usdc, Issuer: addr(issuer), Symbol: "USDC", Decimals: 6},
			{ID: uni, Issuer: addr(issuer), Symbol: "UNI", Decimals: 9},
		},
		Coins: []types.GenesisCoin{
			{Owner: addr(alice), Asset: usdc, Amount: 3 * amount0},
			{Owner: addr(bob), Asset: uni, Amount: 5 * amount1},
		},
	}
	bz, err := json.Marshal(genesis)
	require.NoError(t, err)
	a.InitChain(abcitypes.RequestInitChain{ChainId: chainID, AppStateBytes: bz})
	return &testChain{t: t, app: a}
}

// block delivers msgs in a new block, commits it and returns the delivery
// codes.
func (c *testChain) block(msgs ...interface{}) []uint32 {
	c.height++
	c.app.BeginBlock(abcitypes.RequestBeginBlock{Header: tmproto.Header{ChainID: chainID, Height: c.height}})
	codes := make([]uint32, len(msgs))
	for i, msg := range msgs {
		res := c.app.DeliverTx(abcitypes.RequestDeliverTx{Tx: types.MustEncodeMsg(msg)})
		codes[i] = res.Code
	}
	c.app.EndBlock(abcitypes.RequestEndBlock{Height: c.height})
	c.app.Commit()
	return codes
}

func (c *testChain) query(path, data string) []byte {
	res := c.app.Query(abcitypes.RequestQuery{Path: path, Data: []byte(data)})
	require.Equal(c.t, code.CodeTypeOK, res.Code, res.Log)
	return res.Value
}

func (c *testChain) balance(owner types.Address, asset types.AssetID) uint64 {
	var res app.BalanceResponse
	require.NoError(c.t, json.Unmarshal(c.query(app.QueryPathBalance, owner.String()+"/"+asset.String()), &res))
	return res.Amount
}

func (c *testChain) coins(owner types.Address) types.Coins {
	var coins types.Coins
	require.NoError(c.t, json.Unmarshal(c.query(app.QueryPathCoins, owner.String()), &coins))
	return coins
}

type balances map[types.Address]map[types.AssetID]uint64

func (c *testChain) snapshot(owners ...types.Address) balances {
	b := make(balances)
	for _, o := range owners {
		b[o] = map[types.AssetID]uint64{
			usdc: c.balance(o, usdc),
			uni:  c.balance(o, uni),
		}
	}
	return b
}

// placeOrder funds order with amount of asset0 from alice.
func (c *testChain) placeOrder(order predicate.Order, amount uint64) {
	tx, err := txbuilder.CreateOrder(chainID, alice, order, c.coins(addr(alice)), amount)
	require.NoError(c.t, err)
	require.Equal(c.t, []uint32{code.CodeTypeOK}, c.block(tx))
}

func newOrder(t *testing.T, min uint64) predicate.Order {
	price, err := txbuilder.PriceFromAmounts(amount0, amount1)
	require.NoError(t, err)
	return predicate.NewOrder(predicate.SingleOutput, predicate.OrderConfig{
		Asset0:            usdc,
		Asset1:            uni,
		Maker:             addr(alice),
		Price:             price,
		MinFulfillAmount0: min,
	})
}

func TestHappyPath(t *testing.T) {
	c := newTestChain(t)
	order := newOrder(t, amount0)
	c.placeOrder(order, amount0)
	self := order.Address()
	before := c.snapshot(addr(alice), addr(bob), self)
	require.EqualValues(t, amount0, before[self][usdc])

	tx, err := txbuilder.FulfillOrderWithPayment(chainID, bob, order, c.coins(self), c.coins(addr(bob)), amount0, amount1)
	require.NoError(t, err)
	require.Equal(t, []uint32{code.CodeTypeOK}, c.block(tx))

	after := c.snapshot(addr(alice), addr(bob), self)
	assert.Equal(t, before[addr(alice)][uni]+amount1, after[addr(alice)][uni])
	assert.Equal(t, before[addr(bob)][uni]-amount1, after[addr(bob)][uni])
	assert.Equal(t, before[addr(bob)][usdc]+amount0, after[addr(bob)][usdc])
	assert.Zero(t, after[self][usdc])
	// The zero change output left no coin behind.
	assert.Empty(t, c.coins(self))
}

func TestRejectedFills(t *testing.T) {
	testCases := []struct {
		name     string
		min      uint64
		locked   uint64
		take     uint64
		pay      uint64
		malleate func(tx *types.Tx)
		code     uint32
	}{
		{
			name:   "underpayment",
			min:    amount0,
			locked: amount0,
			take:   amount0,
			pay:    amount1 - 1,
			code:   code.CodeTypePredicateReject,
		},
		{
			name:   "wrong recipient",
			min:    amount0,
			locked: amount0,
			take:   amount0,
			pay:    amount1,
			malleate: func(tx *types.Tx) {
				tx.Outputs[0].To = addr(carol)
			},
			code: code.CodeTypePredicateReject,
		},
		{
			name:   "partial fill below minimum",
			min:    amount0,
			locked: 2 * amount0,
			take:   amount0 / 2,
			pay:    amount1 / 2,
			code:   code.CodeTypePredicateReject,
		},
		{
			name:   "take more than paid for",
			min:    1,
			locked: amount0,
			take:   amount0,
			pay:    amount1 / 2,
			code:   code.CodeTypePredicateReject,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := newTestChain(t)
			order := newOrder(t, tc.min)
			c.placeOrder(order, tc.locked)
			self := order.Address()
			before := c.snapshot(addr(alice), addr(bob), addr(carol), self)

			tx, err := txbuilder.FulfillOrderWithPayment(chainID, bob, order, c.coins(self), c.coins(addr(bob)), tc.take, tc.pay)
			require.NoError(t, err)
			if tc.malleate != nil {
				tc.malleate(tx)
				require.NoError(t, txbuilder.Sign(tx, chainID, bob))
			}
			require.Equal(t, []uint32{tc.code}, c.block(tx))
			assert.Equal(t, before, c.snapshot(addr(alice), addr(bob), addr(carol), self))
		})
	}
}

func TestMakerCancel(t *testing.T) {
	c := newTestChain(t)
	start := c.balance(addr(alice), usdc)
	order := newOrder(t, 1)
	c.placeOrder(order, amount0)
	self := order.Address()
	require.Equal(t, start-amount0, c.balance(addr(alice), usdc))

	aliceCoins := c.coins(addr(alice))
	require.NotEmpty(t, aliceCoins)
	tx, err := txbuilder.CancelOrder(chainID, alice, order, c.coins(self), aliceCoins[0])
	require.NoError(t, err)
	require.Equal(t, []uint32{code.CodeTypeOK}, c.block(tx))

	assert.Equal(t, start, c.balance(addr(alice), usdc))
	assert.Zero(t, c.balance(self, usdc))

	// Bob cannot use the cancel path.
	c.placeOrder(order, amount0)
	bobCoins := c.coins(addr(bob))
	tx, err = txbuilder.CancelOrder(chainID, bob, order, c.coins(self), bobCoins[0])
	require.NoError(t, err)
	require.Equal(t, []uint32{code.CodeTypePredicateReject}, c.block(tx))
}

func TestOverpayment(t *testing.T) {
	c := newTestChain(t)
	order := newOrder(t, amount0)
	c.placeOrder(order, amount0)
	self := order.Address()
	before := c.balance(addr(alice), uni)

	tx, err := txbuilder.FulfillOrderWithPayment(chainID, bob, order, c.coins(self), c.coins(addr(bob)), amount0, 201_000_000_000)
	require.NoError(t, err)
	require.Equal(t, []uint32{code.CodeTypeOK}, c.block(tx))
	assert.Equal(t, before+201_000_000_000, c.balance(addr(alice), uni))
}

func TestPartialFills(t *testing.T) {
	c := newTestChain(t)
	order := newOrder(t, amount0/4)
	c.placeOrder(order, amount0)
	self := order.Address()

	for i := 0; i < 4; i++ {
		tx, err := txbuilder.FulfillOrder(chainID, bob, order, c.coins(self), c.coins(addr(bob)), amount0/4)
		require.NoError(t, err)
		require.Equal(t, []uint32{code.CodeTypeOK}, c.block(tx), "fill %d", i)
	}
	assert.Zero(t, c.balance(self, usdc))
	assert.EqualValues(t, amount1, c.balance(addr(alice), uni))
	assert.EqualValues(t, amount0, c.balance(addr(bob), usdc))
}

func TestCheckTxChainsUncommittedOutputs(t *testing.T) {
	c := newTestChain(t)
	order := newOrder(t, 1)
	self := order.Address()

	create, err := txbuilder.CreateOrder(chainID, alice, order, c.coins(addr(alice)), amount0)
	require.NoError(t, err)
	res := c.app.CheckTx(abcitypes.RequestCheckTx{Tx: types.MustEncodeMsg(create)})
	require.Equal(t, code.CodeTypeOK, res.Code, res.Log)

	// The fill spends the order coin created by the pending transaction.
	orderCoin := types.Coin{
		ID:     types.CoinID{TxHash: create.Hash(), Index: 0},
		Owner:  self,
		Asset:  usdc,
		Amount: amount0,
	}
	fill, err := txbuilder.FulfillOrder(chainID, bob, order, types.Coins{orderCoin}, c.coins(addr(bob)), amount0)
	require.NoError(t, err)
	fillBz := types.MustEncodeMsg(fill)
	res = c.app.CheckTx(abcitypes.RequestCheckTx{Tx: fillBz})
	require.Equal(t, code.CodeTypeOK, res.Code, res.Log)

	// Spending it twice is rejected.
	res = c.app.CheckTx(abcitypes.RequestCheckTx{Tx: fillBz})
	assert.Equal(t, code.CodeTypeUnknownCoin, res.Code)

	// An empty block resets the mempool view to committed state, where the
	// order coin does not exist yet.
	c.block()
	res = c.app.CheckTx(abcitypes.RequestCheckTx{Tx: fillBz})
	assert.Equal(t, code.CodeTypeUnknownCoin, res.Code)

	// Delivering both in one block succeeds.
	require.Equal(t, []uint32{code.CodeTypeOK, code.CodeTypeOK}, c.block(create, fill))
	assert.EqualValues(t, amount0, c.balance(addr(bob), usdc))
}

func TestDeliverTxRejectsGarbage(t *testing.T) {
	c := newTestChain(t)
	c.app.BeginBlock(abcitypes.RequestBeginBlock{Header: tmproto.Header{Height: 1}})
	res := c.app.DeliverTx(abcitypes.RequestDeliverTx{Tx: []byte("not a message")})
	assert.Equal(t, code.CodeTypeEncodingError, res.Code)
}

func TestAggregateProgramDisabled(t *testing.T) {
	c := newTestChain(t, app.WithPolicy(validation.Policy{AllowAggregatePayment: false}))
	price, err := txbuilder.PriceFromAmounts(amount0, amount1)
	require.NoError(t, err)
	order := predicate.NewOrder(predicate.Aggregate, predicate.OrderConfig{
		Asset0: usdc, Asset1: uni, Maker: addr(alice), Price: price, MinFulfillAmount0: 1,
	})
	c.placeOrder(order, amount0)

	tx, err := txbuilder.FulfillOrder(chainID, bob, order, c.coins(order.Address()), c.coins(addr(bob)), amount0)
	require.NoError(t, err)
	require.Equal(t, []uint32{code.CodeTypePredicateReject}, c.block(tx))
}

func TestRegisterAndMint(t *testing.T) {
	c := newTestChain(t)
	reg, err := txbuilder.RegisterAsset(chainID, carol, "GOLD", "Gold", 3)
	require.NoError(t, err)
	gold := types.DeriveAssetID(addr(carol), "GOLD")

	mint, err := txbuilder.Mint(chainID, carol, gold, addr(bob), 42, 0)
	require.NoError(t, err)
	require.Equal(t, []uint32{code.CodeTypeOK, code.CodeTypeOK}, c.block(reg, mint))
	assert.EqualValues(t, 42, c.balance(addr(bob), gold))

	var asset types.Asset
	require.NoError(t, json.Unmarshal(c.query(app.QueryPathAsset, gold.String()), &asset))
	assert.Equal(t, "GOLD", asset.Symbol)
	assert.EqualValues(t, 42, asset.Supply)

	var assets []types.Asset
	require.NoError(t, json.Unmarshal(c.query(app.QueryPathAssets, ""), &assets))
	assert.Len(t, assets, 3)

	// Replays and foreign issuers are rejected.
	forged, err := txbuilder.Mint(chainID, bob, gold, addr(bob), 1, 0)
	require.NoError(t, err)
	codes := c.block(mint, reg, forged)
	assert.Equal(t, []uint32{code.CodeTypeDuplicate, code.CodeTypeDuplicate, code.CodeTypeUnauthorized}, codes)
}

func TestQuerySimulate(t *testing.T) {
	c := newTestChain(t)
	order := newOrder(t, 1)
	c.placeOrder(order, amount0)
	self := order.Address()

	tx, err := txbuilder.FulfillOrderWithPayment(chainID, bob, order, c.coins(self), c.coins(addr(bob)), amount0, amount1-1)
	require.NoError(t, err)

	var res app.SimulateResponse
	require.NoError(t, json.Unmarshal(c.query(app.QueryPathSimulate, string(types.MustEncodeMsg(tx))), &res))
	assert.False(t, res.Valid)
	require.Len(t, res.Orders, 1)
	assert.Equal(t, self, res.Orders[0].Address)
	assert.False(t, res.Orders[0].Decision.Accepted)
	assert.EqualValues(t, amount1, res.Orders[0].Decision.Required)
	assert.Equal(t, predicate.ErrUnderpaid.Error(), res.Orders[0].Reason)

	tx, err = txbuilder.FulfillOrder(chainID, bob, order, c.coins(self), c.coins(addr(bob)), amount0)
	require.NoError(t, err)
	var ok app.SimulateResponse
	require.NoError(t, json.Unmarshal(c.query(app.QueryPathSimulate, string(types.MustEncodeMsg(tx))), &ok))
	assert.True(t, ok.Valid)
	assert.Empty(t, ok.Error)
	require.Len(t, ok.Orders, 1)
	assert.True(t, ok.Orders[0].Decision.Accepted)
}

func TestQueryErrors(t *testing.T) {
	c := newTestChain(t)
	for _, req := range []abcitypes.RequestQuery{
		{Path: "/nope"},
		{Path: app.QueryPathCoin, Data: []byte("xyz")},
		{Path: app.QueryPathCoin, Data: []byte(types.CoinID{}.String())},
		{Path: app.QueryPathBalance, Data: []byte(addr(alice).String())},
		{Path: app.QueryPathAsset, Data: []byte(types.AssetID{0xff}.String())},
		{Path: app.QueryPathSimulate, Data: []byte("{}")},
	} {
		res := c.app.Query(req)
		assert.Equal(t, code.CodeTypeQueryError, res.Code, "%s %s", req.Path, req.Data)
	}
}

func TestCommitPersistsState(t *testing.T) {
	db := dbm.NewMemDB()
	a, err := app.NewApplication(chainID, db)
	require.NoError(t, err)
	genesis := types.GenesisState{
		Assets: []types.Asset{{ID: usdc, Issuer: addr(issuer), Symbol: "USDC", Decimals: 6}},
		Coins:  []types.GenesisCoin{{Owner: addr(alice), Asset: usdc, Amount: 7}},
	}
	bz, err := json.Marshal(genesis)
	require.NoError(t, err)
	a.InitChain(abcitypes.RequestInitChain{ChainId: chainID, AppStateBytes: bz})
	a.BeginBlock(abcitypes.RequestBeginBlock{Header: tmproto.Header{Height: 1}})
	commit := a.Commit()
	require.NotEmpty(t, commit.Data)

	reopened, err := app.NewApplication(chainID, db)
	require.NoError(t, err)
	info := reopened.Info(abcitypes.RequestInfo{})
	assert.EqualValues(t, 1, info.LastBlockHeight)
	assert.Equal(t, commit.Data, info.LastBlockAppHash)
}

func TestInitChainRejectsForeignChain(t *testing.T) {
	a, err := app.NewApplication(chainID, dbm.NewMemDB())
	require.NoError(t, err)
	assert.Panics(t, func() {
		a.InitChain(abcitypes.RequestInitChain{ChainId: "other-chain"})
	})
}
