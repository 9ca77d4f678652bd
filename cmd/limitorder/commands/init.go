package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfg "github.com/tendermint/limitorder/config"
	"github.com/tendermint/limitorder/crypto"
	"github.com/tendermint/limitorder/crypto/ed25519"
	tmos "github.com/tendermint/limitorder/libs/os"
	"github.com/tendermint/limitorder/types"
)

var (
	initChainID string
	initAssets  []string
)

// InitFilesCmd initializes a fresh node home: config, account key and
// genesis.
var InitFilesCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the config, account key and genesis files",
	RunE:  initFiles,
}

func init() {
	InitFilesCmd.Flags().StringVar(&initChainID, "chain_id", "",
		"chain id of the new chain (random when empty)")
	InitFilesCmd.Flags().StringSliceVar(&initAssets, "asset", nil,
		"SYMBOL:DECIMALS:AMOUNT asset issued by the account key and funded to it at genesis; repeatable")
}

func initFiles(cmd *cobra.Command, args []string) error {
	if err := cfg.EnsureRoot(config.RootDir); err != nil {
		return err
	}

	keyFile := config.KeyFile()
	var key ed25519.PrivKey
	if tmos.FileExists(keyFile) {
		k, err := ed25519.LoadKeyFile(keyFile)
		if err != nil {
			return err
		}
		key = k
		logger.Info("Found account key", "path", keyFile)
	} else {
		key = ed25519.GenPrivKey()
		if err := ed25519.NewKeyFile(key).Save(keyFile); err != nil {
			return err
		}
		logger.Info("Generated account key", "path", keyFile)
	}

	genFile := config.GenesisFile()
	if tmos.FileExists(genFile) {
		doc, err := types.GenesisDocFromFile(genFile)
		if err != nil {
			return err
		}
		logger.Info("Found genesis file", "path", genFile)
		return setChainID(doc.ChainID)
	}

	chainID := initChainID
	if chainID == "" {
		chainID = fmt.Sprintf("limitorder-%v", crypto.CRandHex(6))
	}
	issuer := types.AddressFromPubKey(key.PubKey().Bytes())
	doc := types.GenesisDoc{ChainID: chainID}
	for _, arg := range initAssets {
		asset, amount, err := parseGenesisAsset(issuer, arg)
		if err != nil {
			return err
		}
		asset.Supply = amount
		doc.AppState.Assets = append(doc.AppState.Assets, asset)
		if amount > 0 {
			doc.AppState.Coins = append(doc.AppState.Coins, types.GenesisCoin{
				Owner: issuer, Asset: asset.ID, Amount: amount,
			})
		}
	}
	if err := doc.AppState.ValidateBasic(); err != nil {
		return err
	}
	if err := doc.SaveAs(genFile); err != nil {
		return err
	}
	logger.Info("Generated genesis file", "path", genFile, "chain_id", chainID)
	return setChainID(chainID)
}

// setChainID records chainID in the config file.
func setChainID(chainID string) error {
	config.ChainID = chainID
	return cfg.WriteConfigFile(config.RootDir, config)
}

func parseGenesisAsset(issuer types.Address, arg string) (types.Asset, uint64, error) {
	parts := strings.Split(arg, ":")
	if len(parts) != 3 {
		return types.Asset{}, 0, fmt.Errorf("invalid asset %q: expected SYMBOL:DECIMALS:AMOUNT", arg)
	}
	decimals, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return types.Asset{}, 0, fmt.Errorf("invalid asset %q decimals: %w", arg, err)
	}
	amount, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return types.Asset{}, 0, fmt.Errorf("invalid asset %q amount: %w", arg, err)
	}
	asset := types.Asset{
		ID:       types.DeriveAssetID(issuer, parts[0]),
		Issuer:   issuer,
		Symbol:   parts[0],
		Decimals: uint8(decimals),
	}
	return asset, amount, asset.ValidateBasic()
}
