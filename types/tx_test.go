package types_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/limitorder/types"
)

func testAddress(b byte) types.Address {
	var a types.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func testAsset(b byte) types.AssetID {
	var id types.AssetID
	for i := range id {
		id[i] = b
	}
	return id
}

func sampleTx() *types.Tx {
	return &types.Tx{
		Inputs: []types.Input{
			{
				Kind:      types.InputSigned,
				Coin:      types.CoinID{TxHash: types.Hash{1}, Index: 0},
				Owner:     testAddress(0xb0),
				Asset:     testAsset(0x02),
				Amount:    200,
				PubKey:    []byte{1, 2, 3},
				Signature: []byte{4, 5, 6},
			},
			{
				Kind:      types.InputPredicate,
				Coin:      types.CoinID{TxHash: types.Hash{2}, Index: 3},
				Owner:     testAddress(0xcc),
				Asset:     testAsset(0x01),
				Amount:    1000,
				Predicate: &types.PredicateWitness{Program: "limitorder/single-output/v1", Config: []byte{9}},
			},
		},
		Outputs: []types.Output{
			{Kind: types.OutputCoin, To: testAddress(0xa0), Asset: testAsset(0x02), Amount: 200},
			{Kind: types.OutputCoin, To: testAddress(0xb0), Asset: testAsset(0x01), Amount: 1000},
			{Kind: types.OutputChange, To: testAddress(0xcc), Asset: testAsset(0x01), Amount: 0},
		},
	}
}

func TestTxValidateBasic(t *testing.T) {
	testCases := []struct {
		name     string
		malleate func(tx *types.Tx)
		expErr   bool
	}{
		{"valid", func(tx *types.Tx) {}, false},
		{"no inputs", func(tx *types.Tx) { tx.Inputs = nil }, true},
		{"no outputs", func(tx *types.Tx) { tx.Outputs = nil }, true},
		{"duplicate input", func(tx *types.Tx) { tx.Inputs[1].Coin = tx.Inputs[0].Coin }, true},
		{"zero input amount", func(tx *types.Tx) { tx.Inputs[0].Amount = 0 }, true},
		{"unsigned signed input", func(tx *types.Tx) { tx.Inputs[0].Signature = nil }, true},
		{"predicate input without witness", func(tx *types.Tx) { tx.Inputs[1].Predicate = nil }, true},
		{"predicate input with signature", func(tx *types.Tx) { tx.Inputs[1].Signature = []byte{1} }, true},
		{"unknown input kind", func(tx *types.Tx) { tx.Inputs[0].Kind = 7 }, true},
		{"unknown output kind", func(tx *types.Tx) { tx.Outputs[0].Kind = 0 }, true},
		{"empty recipient", func(tx *types.Tx) { tx.Outputs[0].To = types.Address{} }, true},
		{"zero amount change", func(tx *types.Tx) { tx.Outputs[2].Amount = 0 }, false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tx := sampleTx()
			tc.malleate(tx)
			err := tx.ValidateBasic()
			if tc.expErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestTxHashIgnoresSignatures(t *testing.T) {
	tx := sampleTx()
	h := tx.Hash()

	tx.Inputs[0].Signature = []byte{0xff, 0xff}
	assert.Equal(t, h, tx.Hash())
	assert.Equal(t, sampleTx().SignBytes("chain"), tx.SignBytes("chain"))

	tx.Outputs[0].Amount++
	assert.NotEqual(t, h, tx.Hash())
}

func TestSignBytesDependOnChainID(t *testing.T) {
	tx := sampleTx()
	assert.NotEqual(t, tx.SignBytes("a"), tx.SignBytes("b"))
}

func TestMsgEnvelopeRoundTrip(t *testing.T) {
	tx := sampleTx()
	bz, err := types.EncodeMsg(tx)
	require.NoError(t, err)

	var env types.Msg
	require.NoError(t, json.Unmarshal(bz, &env))
	assert.Equal(t, types.MsgTypeTransfer, env.Type)

	decoded, err := types.DecodeMsg(bz)
	require.NoError(t, err)
	got, ok := decoded.(*types.Tx)
	require.True(t, ok)
	if diff := cmp.Diff(tx, got); diff != "" {
		t.Fatalf("decoded tx mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, tx.Hash(), got.Hash())
}

func TestDecodeMsgErrors(t *testing.T) {
	_, err := types.DecodeMsg([]byte("not json"))
	require.Error(t, err)

	_, err = types.DecodeMsg([]byte(`{"type":"burn","value":{}}`))
	require.Error(t, err)

	_, err = types.DecodeMsg([]byte(`{"type":"transfer","value":{"inputs":[{"kind":"stolen"}]}}`))
	require.Error(t, err)

	_, err = types.EncodeMsg("string")
	require.Error(t, err)
}

func TestAddressEncodings(t *testing.T) {
	a := testAddress(0x5a)

	parsed, err := types.ParseAddress(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	b32 := a.Bech32()
	assert.Regexp(t, `^lo1`, b32)
	parsed, err = types.ParseAddress(b32)
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	_, err = types.ParseAddress("0x1234")
	require.Error(t, err)

	bz, err := json.Marshal(a)
	require.NoError(t, err)
	var back types.Address
	require.NoError(t, json.Unmarshal(bz, &back))
	assert.Equal(t, a, back)
}

func TestCoinIDString(t *testing.T) {
	id := types.CoinID{TxHash: types.Hash{0xab}, Index: 7}
	parsed, err := types.ParseCoinID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = types.ParseCoinID("abc")
	require.Error(t, err)
	_, err = types.ParseCoinID(id.TxHash.String() + ":x")
	require.Error(t, err)
}

func TestCoinsTotal(t *testing.T) {
	usdc, uni := testAsset(1), testAsset(2)
	coins := types.Coins{
		{Asset: usdc, Amount: 5},
		{Asset: uni, Amount: 7},
		{Asset: usdc, Amount: 10},
	}
	total, ok := coins.Total(usdc)
	require.True(t, ok)
	assert.EqualValues(t, 15, total)
	assert.Len(t, coins.OfAsset(uni), 1)

	_, ok = types.Coins{{Asset: usdc, Amount: ^uint64(0)}, {Asset: usdc, Amount: 1}}.Total(usdc)
	assert.False(t, ok)
}
