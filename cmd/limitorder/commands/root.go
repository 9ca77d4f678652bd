package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cfg "github.com/tendermint/limitorder/config"
	"github.com/tendermint/limitorder/libs/cli"
	"github.com/tendermint/limitorder/libs/log"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. LO_CHAIN_ID or LOHOME.
const EnvPrefix = "LO"

var (
	config = cfg.DefaultConfig()
	logger = log.MustNewDefaultLogger(log.LogFormatPlain, cfg.DefaultLogLevel())
)

// DefaultHome is $HOME/.limitorder.
func DefaultHome() string {
	return os.ExpandEnv(filepath.Join("$HOME", cfg.DefaultLimitOrderDir))
}

// ParseConfig retrieves the default environment configuration and sets up
// the root directory.
func ParseConfig(conf *cfg.Config) (*cfg.Config, error) {
	if err := viper.Unmarshal(conf); err != nil {
		return nil, err
	}
	conf.SetRoot(conf.RootDir)
	if err := conf.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("error in config file: %w", err)
	}
	return conf, nil
}

// RootCmd is the root command of the limitorder node.
var RootCmd = &cobra.Command{
	Use:   "limitorder",
	Short: "Non-custodial limit orders on a UTXO chain",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == VersionCmd.Name() {
			return nil
		}
		conf, err := ParseConfig(cfg.DefaultConfig())
		if err != nil {
			return err
		}
		config = conf
		l, err := log.NewDefaultLogger(config.LogFormat, config.LogLevel)
		if err != nil {
			return err
		}
		logger = l.With("module", "main")
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().String("log_level", config.LogLevel, "log level")
	RootCmd.PersistentFlags().String("log_format", config.LogFormat, "log format (plain | json)")
}

// NewRootCmd returns the root command with every subcommand attached and
// the home, trace and environment handling of libs/cli.
func NewRootCmd() *cobra.Command {
	RootCmd.AddCommand(
		InitFilesCmd,
		StartCmd,
		KeysCmd,
		OrderCmd,
		SimulateCmd,
		VersionCmd,
	)
	return cli.PrepareBaseCmd(RootCmd, EnvPrefix, DefaultHome())
}
