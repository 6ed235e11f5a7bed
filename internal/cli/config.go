package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/loadout/internal/logging"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend        = "backend"
	cfgKeyDataDir        = "data_dir"
	cfgKeyCacheSize      = "cache_size"
	cfgKeyLogLevel       = "log_level"
	cfgKeyActiveGroupSet = "active_group_set"
	cfgKeyGameName       = "game_name"
	cfgKeyGamePath       = "game_path"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend        string `yaml:"backend"`
	DataDir        string `yaml:"data_dir,omitempty"`
	LogLevel       string `yaml:"log_level"`
	ActiveGroupSet int64  `yaml:"active_group_set"`
	GameName       string `yaml:"game_name,omitempty"`
	GamePath       string `yaml:"game_path,omitempty"`
}

// loadConfig reads config.yaml from configDir, writing a default file on
// first run. dataDir, when set, is recorded in a newly written file.
func loadConfig(configDir, dataDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	path := filepath.Join(configDir, configFileExt)
	if err := writeConfigIfMissing(path, dataDir); err != nil {
		return nil, fmt.Errorf("write config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, logging.DefaultLevel)
	v.SetDefault(cfgKeyActiveGroupSet, types.DefaultGroupSetID)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. An existing file is left alone.
func writeConfigIfMissing(path, dataDir string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := configFile{
		Backend:        types.BackendSQLite,
		DataDir:        dataDir,
		LogLevel:       logging.DefaultLevel,
		ActiveGroupSet: types.DefaultGroupSetID,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// installInfo is the game install named in config.yaml. It labels output
// only.
type installInfo struct {
	name string
	path string
}

var _ types.InstallLocator = installInfo{}

func (i installInfo) GameName() string { return i.name }
func (i installInfo) GamePath() string { return i.path }

func (a *app) install() installInfo {
	return installInfo{
		name: a.config.GetString(cfgKeyGameName),
		path: a.config.GetString(cfgKeyGamePath),
	}
}
