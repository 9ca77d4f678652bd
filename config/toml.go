package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/creachadair/atomicfile"

	tmos "github.com/tendermint/limitorder/libs/os"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

var configTemplate *template.Template

func init() {
	var err error
	if configTemplate, err = template.New("configFileTemplate").Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

// EnsureRoot creates the root, config, and data directories if they don't
// exist, and writes the default config file if there is none.
func EnsureRoot(rootDir string) error {
	for _, dir := range []string{
		rootDir,
		filepath.Join(rootDir, defaultConfigDir),
		filepath.Join(rootDir, defaultDataDir),
	} {
		if err := tmos.EnsureDir(dir, defaultDirPerm); err != nil {
			return err
		}
	}
	return writeDefaultConfigFileIfNone(rootDir)
}

// ConfigFile returns the path of the config file under rootDir.
func ConfigFile(rootDir string) string {
	return filepath.Join(rootDir, defaultConfigFilePath)
}

// WriteConfigFile renders config using the template and writes it to
// the config file under rootDir.
func WriteConfigFile(rootDir string, config *Config) error {
	return config.WriteToTemplate(ConfigFile(rootDir))
}

// WriteToTemplate writes the config to the exact file specified by
// the path, in the default toml template and does not mangle the path
// or filename at all.
func (cfg *Config) WriteToTemplate(path string) error {
	var buffer bytes.Buffer
	if err := configTemplate.Execute(&buffer, cfg); err != nil {
		return err
	}
	return atomicfile.WriteData(path, buffer.Bytes(), 0644)
}

func writeDefaultConfigFileIfNone(rootDir string) error {
	if !tmos.FileExists(ConfigFile(rootDir)) {
		return WriteConfigFile(rootDir, DefaultConfig())
	}
	return nil
}

// ResetTestRoot removes and recreates a test root under dir with the test
// config written to it.
func ResetTestRoot(dir, testName string) (*Config, error) {
	rootDir := filepath.Join(dir, testName)
	if err := os.RemoveAll(rootDir); err != nil {
		return nil, err
	}
	cfg := TestConfig().SetRoot(rootDir)
	for _, d := range []string{rootDir, filepath.Join(rootDir, defaultConfigDir), filepath.Join(rootDir, defaultDataDir)} {
		if err := tmos.EnsureDir(d, defaultDirPerm); err != nil {
			return nil, fmt.Errorf("creating test root: %w", err)
		}
	}
	if err := WriteConfigFile(rootDir, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/limitorder/data") or
# relative to the home directory (e.g. "data"). The home directory is
# "$HOME/.limitorder" by default, but could be changed via $LOHOME env variable
# or --home cmd flag.

#######################################################################
###                   Main Base Config Options                      ###
#######################################################################

# Chain the node executes. Transactions signed for another chain are rejected.
chain_id = "{{ .BaseConfig.ChainID }}"

# A custom human readable name for this node
moniker = "{{ .BaseConfig.Moniker }}"

# TCP or UNIX socket address the ABCI server listens on
proxy_app = "{{ .BaseConfig.ProxyApp }}"

# Mechanism to serve the ABCI application: socket | grpc
abci = "{{ .BaseConfig.ABCI }}"

# Database backend: goleveldb | cleveldb | boltdb | rocksdb | badgerdb | memdb
db_backend = "{{ .BaseConfig.DBBackend }}"

# Database directory
db_dir = "{{ js .BaseConfig.DBPath }}"

# Output level for logging: trace | debug | info | warn | error
log_level = "{{ .BaseConfig.LogLevel }}"

# Output format: 'plain' (colored text) or 'json'
log_format = "{{ .BaseConfig.LogFormat }}"

##### additional base config options #####

# Path to the JSON file containing the chain id and the initial assets and coins
genesis_file = "{{ js .BaseConfig.Genesis }}"

# Path to the JSON file containing the account key used by the order commands
key_file = "{{ js .BaseConfig.Key }}"

#######################################################
###       Predicate Configuration Options           ###
#######################################################
[predicate]

# When false, coins locked by the aggregate payment program cannot be spent
# by fills. Cancels are unaffected.
allow_aggregate_payment = {{ .Predicate.AllowAggregatePayment }}

#######################################################
###       Instrumentation Configuration Options     ###
#######################################################
[instrumentation]

# When true, Prometheus metrics are served under /metrics on
# PrometheusListenAddr.
prometheus = {{ .Instrumentation.Prometheus }}

# Address to listen for Prometheus collector(s) connections
prometheus_listen_addr = "{{ .Instrumentation.PrometheusListenAddr }}"

# Maximum number of simultaneous connections.
# 0 - unlimited.
max_open_connections = {{ .Instrumentation.MaxOpenConnections }}

# Instrumentation namespace
namespace = "{{ .Instrumentation.Namespace }}"
`
