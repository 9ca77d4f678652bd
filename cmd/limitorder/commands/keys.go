package commands

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tendermint/limitorder/crypto/ed25519"
	tmbytes "github.com/tendermint/limitorder/libs/bytes"
	tmos "github.com/tendermint/limitorder/libs/os"
	"github.com/tendermint/limitorder/types"
)

// KeysCmd manages the account key of the node home.
var KeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the account key",
}

var keysGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate an account key and print its address",
	RunE:  genKey,
}

var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the address and public key of the account key",
	RunE:  showKey,
}

var keysForce bool

func init() {
	keysGenCmd.Flags().BoolVar(&keysForce, "force", false, "overwrite an existing key file")
	KeysCmd.AddCommand(keysGenCmd, keysShowCmd)
}

type keyInfo struct {
	Address types.Address    `json:"address"`
	Bech32  string           `json:"bech32"`
	PubKey  tmbytes.HexBytes `json:"pub_key"`
}

func newKeyInfo(key ed25519.PrivKey) keyInfo {
	pub := key.PubKey().Bytes()
	addr := types.AddressFromPubKey(pub)
	return keyInfo{Address: addr, Bech32: addr.Bech32(), PubKey: pub}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bz))
	return err
}

func genKey(cmd *cobra.Command, args []string) error {
	keyFile := config.KeyFile()
	if tmos.FileExists(keyFile) && !keysForce {
		return fmt.Errorf("key file at %s already exists", keyFile)
	}
	if err := tmos.EnsureDir(filepath.Dir(keyFile), 0700); err != nil {
		return err
	}
	key := ed25519.GenPrivKey()
	if err := ed25519.NewKeyFile(key).Save(keyFile); err != nil {
		return err
	}
	return printJSON(cmd, newKeyInfo(key))
}

func showKey(cmd *cobra.Command, args []string) error {
	keyFile := config.KeyFile()
	if !tmos.FileExists(keyFile) {
		return fmt.Errorf("key file %s does not exist", keyFile)
	}
	key, err := ed25519.LoadKeyFile(keyFile)
	if err != nil {
		return err
	}
	return printJSON(cmd, newKeyInfo(key))
}
