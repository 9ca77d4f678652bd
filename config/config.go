package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// LogFormatPlain is a format for colored text
	LogFormatPlain = "plain"
	// LogFormatJSON is a format for json output
	LogFormatJSON = "json"

	// ABCISocket serves the application over the ABCI socket protocol.
	ABCISocket = "socket"
	// ABCIGRPC serves the application over gRPC.
	ABCIGRPC = "grpc"
)

// NOTE: Most of the structs & relevant comments + the
// default configuration options were used to manually
// generate the config.toml. Please reflect any changes
// made here in the defaultConfigTemplate constant in
// config/toml.go
var (
	DefaultLimitOrderDir = ".limitorder"
	defaultConfigDir     = "config"
	defaultDataDir       = "data"

	defaultConfigFileName  = "config.toml"
	defaultGenesisJSONName = "genesis.json"
	defaultKeyName         = "key.json"

	defaultConfigFilePath  = filepath.Join(defaultConfigDir, defaultConfigFileName)
	defaultGenesisJSONPath = filepath.Join(defaultConfigDir, defaultGenesisJSONName)
	defaultKeyPath         = filepath.Join(defaultConfigDir, defaultKeyName)
)

// Config defines the top level configuration of a limit order node.
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	Predicate       *PredicateConfig       `mapstructure:"predicate"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		Predicate:       DefaultPredicateConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		Predicate:       DefaultPredicateConfig(),
		Instrumentation: TestInstrumentationConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	return errors.Wrap(
		cfg.Instrumentation.ValidateBasic(),
		"Error in [instrumentation] section",
	)
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration of a limit order node.
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// Chain the node executes. Transactions signed for another chain are
	// rejected.
	ChainID string `mapstructure:"chain_id"`

	// A custom human readable name for this node
	Moniker string `mapstructure:"moniker"`

	// TCP or UNIX socket address the ABCI server listens on
	ProxyApp string `mapstructure:"proxy_app"`

	// Mechanism to serve the ABCI application: socket | grpc
	ABCI string `mapstructure:"abci"`

	// Database backend: goleveldb | cleveldb | boltdb | rocksdb | badgerdb | memdb
	DBBackend string `mapstructure:"db_backend"`

	// Database directory
	DBPath string `mapstructure:"db_dir"`

	// Output level for logging
	LogLevel string `mapstructure:"log_level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log_format"`

	// Path to the JSON file containing the chain id and the initial assets
	// and coins
	Genesis string `mapstructure:"genesis_file"`

	// Path to the JSON file containing the account key used by the order
	// commands
	Key string `mapstructure:"key_file"`
}

// DefaultBaseConfig returns a default base configuration.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		Genesis:   defaultGenesisJSONPath,
		Key:       defaultKeyPath,
		Moniker:   defaultMoniker,
		ProxyApp:  "tcp://127.0.0.1:26658",
		ABCI:      ABCISocket,
		LogLevel:  DefaultLogLevel(),
		LogFormat: LogFormatPlain,
		DBBackend: "goleveldb",
		DBPath:    "data",
	}
}

// TestBaseConfig returns a base configuration for testing.
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.ChainID = "limitorder_test"
	cfg.ProxyApp = "tcp://127.0.0.1:36658"
	cfg.DBBackend = "memdb"
	return cfg
}

// GenesisFile returns the full path to the genesis.json file
func (cfg BaseConfig) GenesisFile() string {
	return rootify(cfg.Genesis, cfg.RootDir)
}

// KeyFile returns the full path to the key.json file
func (cfg BaseConfig) KeyFile() string {
	return rootify(cfg.Key, cfg.RootDir)
}

// DBDir returns the full path to the database directory
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

var dbBackends = map[string]bool{
	"goleveldb": true,
	"cleveldb":  true,
	"boltdb":    true,
	"rocksdb":   true,
	"badgerdb":  true,
	"memdb":     true,
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case LogFormatPlain, LogFormatJSON:
	default:
		return errors.New("unknown log_format (must be 'plain' or 'json')")
	}
	switch cfg.ABCI {
	case ABCISocket, ABCIGRPC:
	default:
		return errors.New("unknown abci (must be 'socket' or 'grpc')")
	}
	if cfg.ProxyApp == "" {
		return errors.New("proxy_app can't be empty")
	}
	if !dbBackends[cfg.DBBackend] {
		return errors.Errorf("unknown db_backend %q", cfg.DBBackend)
	}
	return nil
}

// DefaultLogLevel returns a default log level of "info"
func DefaultLogLevel() string {
	return "info"
}

//-----------------------------------------------------------------------------
// PredicateConfig

// PredicateConfig holds the node's order validation policy.
type PredicateConfig struct {
	// When false, coins locked by the aggregate payment program cannot be
	// spent by fills. Cancels are unaffected.
	AllowAggregatePayment bool `mapstructure:"allow_aggregate_payment"`
}

// DefaultPredicateConfig accepts both predicate programs.
func DefaultPredicateConfig() *PredicateConfig {
	return &PredicateConfig{
		AllowAggregatePayment: true,
	}
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	Prometheus bool `mapstructure:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus_listen_addr"`

	// Maximum number of simultaneous connections.
	// 0 - unlimited.
	MaxOpenConnections int `mapstructure:"max_open_connections"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26660",
		MaxOpenConnections:   3,
		Namespace:            "limitorder",
	}
}

// TestInstrumentationConfig returns a default configuration for metrics
// reporting.
func TestInstrumentationConfig() *InstrumentationConfig {
	return DefaultInstrumentationConfig()
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.MaxOpenConnections < 0 {
		return errors.New("max_open_connections can't be negative")
	}
	if cfg.Prometheus && cfg.PrometheusListenAddr == "" {
		return errors.New("prometheus_listen_addr can't be empty when prometheus is enabled")
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

//-----------------------------------------------------------------------------
// Moniker

var defaultMoniker = getDefaultMoniker()

// getDefaultMoniker returns a default moniker, which is the host name. If runtime
// fails to get the host name, "anonymous" will be returned.
func getDefaultMoniker() string {
	moniker, err := os.Hostname()
	if err != nil {
		moniker = "anonymous"
	}
	return moniker
}
