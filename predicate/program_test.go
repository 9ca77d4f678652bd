package predicate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/limitorder/predicate"
	"github.com/tendermint/limitorder/types"
)

func TestAddressCommitsToEveryParameter(t *testing.T) {
	base := aliceConfig()
	variants := map[string]func(c *predicate.OrderConfig){
		"asset0": func(c *predicate.OrderConfig) { c.Asset0 = other },
		"asset1": func(c *predicate.OrderConfig) { c.Asset1 = other },
		"maker":  func(c *predicate.OrderConfig) { c.Maker = bob },
		"price":  func(c *predicate.OrderConfig) { c.Price++ },
		"min":    func(c *predicate.OrderConfig) { c.MinFulfillAmount0++ },
	}

	seen := map[types.Address]string{
		predicate.SingleOutput.Address(base): "base",
		predicate.Aggregate.Address(base):    "aggregate",
	}
	require.Len(t, seen, 2)

	for name, malleate := range variants {
		c := base
		malleate(&c)
		addr := predicate.SingleOutput.Address(c)
		prev, dup := seen[addr]
		require.False(t, dup, "%s collides with %s", name, prev)
		seen[addr] = name
	}

	assert.Equal(t, predicate.SingleOutput.Address(base), predicate.SingleOutput.Address(aliceConfig()))
}

func TestParseWitness(t *testing.T) {
	order := predicate.NewOrder(predicate.Aggregate, aliceConfig())

	parsed, err := predicate.ParseWitness(*order.Witness())
	require.NoError(t, err)
	assert.Equal(t, order, parsed)
	assert.Equal(t, order.Address(), parsed.Address())

	_, err = predicate.ParseWitness(types.PredicateWitness{Program: "limitorder/v0", Config: aliceConfig().Bytes()})
	require.Error(t, err)

	_, err = predicate.ParseWitness(types.PredicateWitness{Program: predicate.SingleOutputCode, Config: []byte{1, 2}})
	require.Error(t, err)
}

func TestProgramByCode(t *testing.T) {
	p, err := predicate.ProgramByCode(predicate.SingleOutputCode)
	require.NoError(t, err)
	assert.Equal(t, predicate.SingleOutput, p)
	assert.Equal(t, predicate.SingleOutputCode, p.String())

	p, err = predicate.ProgramByCode(predicate.AggregateCode)
	require.NoError(t, err)
	assert.Equal(t, predicate.Aggregate, p)

	_, err = predicate.ProgramByCode("")
	require.Error(t, err)
}

func TestOrderConfigValidateBasic(t *testing.T) {
	testCases := []struct {
		name     string
		malleate func(c *predicate.OrderConfig)
		expErr   bool
	}{
		{"valid", func(c *predicate.OrderConfig) {}, false},
		{"same assets", func(c *predicate.OrderConfig) { c.Asset1 = c.Asset0 }, true},
		{"zero price", func(c *predicate.OrderConfig) { c.Price = 0 }, true},
		{"zero minimum", func(c *predicate.OrderConfig) { c.MinFulfillAmount0 = 0 }, true},
		{"no maker", func(c *predicate.OrderConfig) { c.Maker = types.Address{} }, true},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := aliceConfig()
			tc.malleate(&c)
			if tc.expErr {
				assert.Error(t, c.ValidateBasic())
			} else {
				assert.NoError(t, c.ValidateBasic())
			}
		})
	}
}

func TestOrderEvaluateUsesOwnAddress(t *testing.T) {
	order := predicate.NewOrder(predicate.SingleOutput, aliceConfig())
	tx := fillTx(order.Address(), 1000, 1000, 200, 500)
	assert.True(t, order.Evaluate(tx).Accepted)

	// The same transaction is foreign to an order at another address.
	agg := predicate.NewOrder(predicate.Aggregate, aliceConfig())
	d := agg.Evaluate(tx)
	assert.False(t, d.Accepted)
	assert.ErrorIs(t, d.Reason, predicate.ErrForeignPredicate)
}

func TestFamilyText(t *testing.T) {
	for _, f := range []predicate.Family{predicate.FamilyNone, predicate.FamilyCancel, predicate.FamilyFill} {
		text, err := f.MarshalText()
		require.NoError(t, err)
		var got predicate.Family
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, f, got)
	}
	var f predicate.Family
	assert.Error(t, f.UnmarshalText([]byte("swap")))
}
