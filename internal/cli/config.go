// Config loading for the weft CLI. The config file carries the store
// settings and the resource catalog; both are read through Viper.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/weftdb/weft/internal/paths"
	"github.com/weftdb/weft/pkg/store"
)

const (
	configFileName = "weft"
	configFileType = "yaml"
	configFileExt  = "weft.yaml"

	cfgKeyDriver  = "driver"
	cfgKeyDataDir = "data_dir"
	cfgKeyDSN     = "dsn"

	defaultDriver = store.DriverSQLite
)

// defaultConfigYAML is the content written to weft.yaml on first run.
const defaultConfigYAML = `# Weft CLI configuration.

# Store driver: sqlite or postgres.
driver: sqlite

# Data directory for the sqlite database file (optional; overridable by
# the --data-dir flag).
# data_dir:

# Connection string, required for postgres.
# dsn:

# Resource catalog. Each entry declares one resource type with its
# attributes and relationships. Example:
#
# resources:
#   - name: work_items
#     attributes:
#       - name: title
#       - name: points
#         type: int
#     relationships:
#       - name: assignee
#         kind: to_one
#         target: users
#         foreign_key: assignee_id
#         owns_key: true
#         inverse: assigned_items
#       - name: tags
#         kind: to_many_through
#         target: tags
#         through: work_item_tags
#         local_key: work_item_id
#         target_key: tag_id
#   - name: users
#     relationships:
#       - name: assigned_items
#         kind: to_many
#         target: work_items
#         foreign_key: assignee_id
#         inverse: assignee
#   - name: tags
resources: []
`

// cliConfig is the decoded shape of weft.yaml.
type cliConfig struct {
	Driver    string         `mapstructure:"driver"`
	DataDir   string         `mapstructure:"data_dir"`
	DSN       string         `mapstructure:"dsn"`
	Resources []resourceDecl `mapstructure:"resources"`
}

// loadConfig reads weft.yaml from the resolved config directory using Viper.
// It creates the config directory and a default weft.yaml on first run. A
// missing weft.yaml is not an error.
func loadConfig(configDir string) (*cliConfig, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyDriver, defaultDriver)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// storeConfig resolves the store.Config from the loaded file and the global
// flags.
func (c *cliConfig) storeConfig() (store.Config, error) {
	dataDir, err := paths.ResolveDataDir(flags.dataDir, c.DataDir)
	if err != nil {
		return store.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := store.Config{
		Driver:  c.Driver,
		DataDir: dataDir,
		DSN:     c.DSN,
	}
	if err := cfg.Validate(); err != nil {
		return store.Config{}, err
	}
	return cfg, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default weft.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
