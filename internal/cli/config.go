package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/leoashcraft/County-Connect-sub009/internal/paths"
	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "COUNTY"

	// cliLogLevel keeps routine store logs off the terminal.
	cliLogLevel = "warn"
)

// loadConfig reads config.yaml from the resolved config directory, applies
// COUNTY_* environment overrides and then the global flags. A missing
// config.yaml is not an error. Logs go to <data_dir>/logs/countyctl.log
// unless log_file names another file or "-" for stderr.
func (a *app) loadConfig() (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return types.Config{}, sysError(fmt.Errorf("resolve config dir: %w", err))
	}

	v := newViper(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}

	if a.flags.backend != "" {
		cfg.Backend = a.flags.backend
	}
	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
	}
	if a.flags.logFile != "" {
		cfg.LogFile = a.flags.logFile
	}
	cfg.DataDir, err = paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return types.Config{}, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	if cfg.LogFile == "" {
		cfg.LogFile = paths.LogFile(cfg.DataDir)
	}
	return cfg, nil
}

// newViper returns a viper instance with defaults for every key, so that
// environment overrides of nested keys reach Unmarshal.
func newViper(configDir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend", types.BackendSQLite)
	v.SetDefault("data_dir", "")
	v.SetDefault("statement_timeout", types.DefaultStatementTimeout)
	v.SetDefault("log_level", cliLogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("sqlite.path", "")
	v.SetDefault("sqlite.busy_timeout", types.DefaultBusyTimeout)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.host", "")
	v.SetDefault("postgres.port", types.DefaultPostgresPort)
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.database", "")
	v.SetDefault("postgres.sslmode", types.DefaultPostgresSSLMode)
	v.SetDefault("postgres.pool_size", types.DefaultPoolSize)
	v.SetDefault("postgres.conn_max_lifetime", types.DefaultConnMaxLifetime)
	return v
}
