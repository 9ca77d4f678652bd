package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/limitorder/crypto/ed25519"
	"github.com/tendermint/limitorder/internal/validation"
	"github.com/tendermint/limitorder/libs/cli"
	"github.com/tendermint/limitorder/predicate"
	"github.com/tendermint/limitorder/txbuilder"
	"github.com/tendermint/limitorder/types"
	"github.com/tendermint/limitorder/version"
)

var (
	rootOnce sync.Once
	rootCmd  *cobra.Command
)

// run executes the root command with args and returns what it printed.
func run(ctx context.Context, t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootOnce.Do(func() { rootCmd = NewRootCmd() })

	viper.Reset()
	initChainID, initAssets = "", nil
	keysForce, verbose, simulateDisableAggregate = false, false, false
	orderProgram, orderAsset0, orderAsset1, orderMaker = "single", "", "", ""
	orderPriceV, orderMin = 0, 1
	priceAmount0, priceAmount1, priceFill, priceRatio = 0, 0, 0, ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetOut(nil)
	err := cli.RunWithArgs(ctx, rootCmd, append([]string{rootCmd.Use}, args...), nil)
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(context.Background(), t, args...)
	require.NoError(t, err)
	return out
}

func TestInitFiles(t *testing.T) {
	home := t.TempDir()
	mustRun(t, "init", "--home", home, "--chain_id", "orders-test", "--asset", "USDC:6:1000", "--asset", "UNI:9:0")

	var fc struct {
		ChainID string `toml:"chain_id"`
	}
	_, err := toml.DecodeFile(filepath.Join(home, "config", "config.toml"), &fc)
	require.NoError(t, err)
	assert.Equal(t, "orders-test", fc.ChainID)

	var key keyInfo
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "keys", "show", "--home", home)), &key))

	doc, err := types.GenesisDocFromFile(filepath.Join(home, "config", "genesis.json"))
	require.NoError(t, err)
	assert.Equal(t, "orders-test", doc.ChainID)
	require.Len(t, doc.AppState.Assets, 2)
	assert.Equal(t, key.Address, doc.AppState.Assets[0].Issuer)
	require.Len(t, doc.AppState.Coins, 1)
	assert.Equal(t, key.Address, doc.AppState.Coins[0].Owner)
	assert.EqualValues(t, 1000, doc.AppState.Coins[0].Amount)

	// A second init keeps the key and the genesis.
	mustRun(t, "init", "--home", home, "--chain_id", "other")
	var again keyInfo
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "keys", "show", "--home", home)), &again))
	assert.Equal(t, key, again)
	_, err = toml.DecodeFile(filepath.Join(home, "config", "config.toml"), &fc)
	require.NoError(t, err)
	assert.Equal(t, "orders-test", fc.ChainID)
}

func TestInitRejectsBadAsset(t *testing.T) {
	for _, arg := range []string{"usdc:6:1", "USDC:6", "USDC:99:1", "USDC:6:-1"} {
		_, err := run(context.Background(), t, "init", "--home", t.TempDir(), "--asset", arg)
		assert.Error(t, err, arg)
	}
}

func TestKeysGen(t *testing.T) {
	home := t.TempDir()
	var gen keyInfo
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "keys", "gen", "--home", home)), &gen))
	assert.False(t, gen.Address.IsZero())

	_, err := run(context.Background(), t, "keys", "gen", "--home", home)
	require.Error(t, err)

	var forced keyInfo
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "keys", "gen", "--home", home, "--force")), &forced))
	assert.NotEqual(t, gen.Address, forced.Address)

	var shown keyInfo
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "keys", "show", "--home", home)), &shown))
	assert.Equal(t, forced, shown)

	_, err = run(context.Background(), t, "keys", "show", "--home", t.TempDir())
	assert.Error(t, err)
}

func TestOrderAddress(t *testing.T) {
	maker := types.AddressFromPubKey(ed25519.GenPrivKeyFromSecret([]byte("alice")).PubKey().Bytes())
	cfg := predicate.OrderConfig{
		Asset0:            types.AssetID{0x01},
		Asset1:            types.AssetID{0x02},
		Maker:             maker,
		Price:             200_000_000,
		MinFulfillAmount0: 10,
	}

	out := mustRun(t, "order", "address", "--home", t.TempDir(),
		"--program", "aggregate",
		"--asset0", cfg.Asset0.String(),
		"--asset1", cfg.Asset1.String(),
		"--maker", maker.Bech32(),
		"--price", "200000000",
		"--min", "10",
	)
	var info orderInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	order := predicate.NewOrder(predicate.Aggregate, cfg)
	assert.Equal(t, order.Address(), info.Address)
	assert.Equal(t, *order.Witness(), info.Witness)
	assert.Equal(t, cfg, info.Config)

	_, err := run(context.Background(), t, "order", "address", "--home", t.TempDir(),
		"--asset0", cfg.Asset0.String(), "--asset1", cfg.Asset0.String(),
		"--maker", maker.String(), "--price", "1")
	assert.Error(t, err, "asset0 equal to asset1")
}

func TestOrderPrice(t *testing.T) {
	out := mustRun(t, "order", "price", "--home", t.TempDir(),
		"--amount0", "1000000000", "--amount1", "200000000000", "--fill", "500000000")
	var info priceInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.EqualValues(t, 200_000_000, info.Price)
	assert.EqualValues(t, 100_000_000_000, info.Required)

	out = mustRun(t, "order", "price", "--home", t.TempDir(), "--ratio", "200000000000/1000000000")
	info = priceInfo{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.EqualValues(t, 200_000_000, info.Price)

	_, err := run(context.Background(), t, "order", "price", "--home", t.TempDir(), "--ratio", "1/0")
	assert.Error(t, err)

	_, err = run(context.Background(), t, "order", "price", "--home", t.TempDir(), "--amount1", "5")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	assert.Contains(t, mustRun(t, "version"), version.Version)

	var v version.App
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "version", "--verbose")), &v))
	assert.Equal(t, version.Current(), v)
}

func simulationFixture(t *testing.T) (Simulation, []*types.Tx) {
	const chainID = "sim-chain"
	alice := ed25519.GenPrivKeyFromSecret([]byte("alice"))
	bob := ed25519.GenPrivKeyFromSecret([]byte("bob"))
	aliceAddr := types.AddressFromPubKey(alice.PubKey().Bytes())
	bobAddr := types.AddressFromPubKey(bob.PubKey().Bytes())
	usdc, uni := types.AssetID{0x01}, types.AssetID{0x02}

	order := predicate.NewOrder(predicate.SingleOutput, predicate.OrderConfig{
		Asset0: usdc, Asset1: uni, Maker: aliceAddr, Price: 200_000, MinFulfillAmount0: 1,
	})
	orderCoins := types.Coins{{ID: types.CoinID{TxHash: types.Hash{1}}, Owner: order.Address(), Asset: usdc, Amount: 1000}}
	bobCoins := types.Coins{{ID: types.CoinID{TxHash: types.Hash{2}}, Owner: bobAddr, Asset: uni, Amount: 500}}

	fill, err := txbuilder.FulfillOrder(chainID, bob, order, orderCoins, bobCoins, 1000)
	require.NoError(t, err)
	cheap, err := txbuilder.FulfillOrderWithPayment(chainID, bob, order, orderCoins, bobCoins, 1000, 199)
	require.NoError(t, err)

	sim := Simulation{ChainID: chainID, Coins: append(orderCoins, bobCoins...)}
	for _, tx := range []*types.Tx{fill, cheap} {
		sim.Txs = append(sim.Txs, types.MustEncodeMsg(tx))
	}
	sim.Txs = append(sim.Txs, json.RawMessage(`{"type":"nope"}`))
	return sim, []*types.Tx{fill, cheap}
}

func TestRunSimulation(t *testing.T) {
	sim, txs := simulationFixture(t)
	results, err := RunSimulation(context.Background(), sim, validation.DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Valid, results[0].Error)
	assert.Equal(t, txs[0].Hash(), results[0].Hash)
	require.Len(t, results[0].Orders, 1)
	assert.EqualValues(t, 200, results[0].Orders[0].Decision.Paid)

	assert.False(t, results[1].Valid)
	require.Len(t, results[1].Orders, 1)
	assert.Equal(t, predicate.ErrUnderpaid.Error(), results[1].Orders[0].Reason)

	assert.False(t, results[2].Valid)
	assert.NotEmpty(t, results[2].Error)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
}

func TestSimulateCmd(t *testing.T) {
	sim, _ := simulationFixture(t)
	bz, err := json.Marshal(sim)
	require.NoError(t, err)
	file := filepath.Join(t.TempDir(), "sim.json")
	require.NoError(t, os.WriteFile(file, bz, 0600))

	var results []SimulationResult
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "simulate", "--home", t.TempDir(), file)), &results))
	require.Len(t, results, 3)
	assert.True(t, results[0].Valid)
}

func TestStartStopsOnCancel(t *testing.T) {
	home := t.TempDir()
	mustRun(t, "init", "--home", home, "--chain_id", "start-test")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := run(ctx, t, "start", "--home", home,
			"--proxy_app", "tcp://127.0.0.1:0", "--db_backend", "memdb")
		done <- err
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("start did not return after cancel")
	}
}

func TestResolveChainID(t *testing.T) {
	conf := config
	conf.ChainID = "explicit"
	id, err := resolveChainID(conf)
	require.NoError(t, err)
	assert.Equal(t, "explicit", id)

	home := t.TempDir()
	mustRun(t, "init", "--home", home, "--chain_id", "from-genesis")
	conf = config
	conf.ChainID = ""
	id, err = resolveChainID(conf)
	require.NoError(t, err)
	assert.Equal(t, "from-genesis", id)
}
