package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leoashcraft/County-Connect-sub009/internal/paths"
	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

// configFile is the structure written to config.yaml.
type configFile struct {
	Backend  string     `yaml:"backend"`
	DataDir  string     `yaml:"data_dir,omitempty"`
	LogLevel string     `yaml:"log_level"`
	SQLite   sqliteFile `yaml:"sqlite"`
}

type sqliteFile struct {
	Path string `yaml:"path"`
}

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long: "Create the configuration directory and a default config.yaml if missing,\n" +
			"then open the configured backend once so its schema is bootstrapped.",
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create config directory: %w", err))
	}
	if err := writeConfigIfMissing(paths.ConfigFile(configDir), a.flags.dataDir); err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}

	s, err := a.open(cmd.Context())
	if err != nil {
		return err
	}
	if err := s.Close(); err != nil {
		return sysError(fmt.Errorf("close store: %w", err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "County store initialized successfully")
	return nil
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left untouched.
func writeConfigIfMissing(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	cfg := configFile{
		Backend:  types.BackendSQLite,
		DataDir:  dataDir,
		LogLevel: cliLogLevel,
		SQLite:   sqliteFile{Path: types.DefaultSQLiteFile},
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
