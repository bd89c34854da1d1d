// Package cli implements the countyctl command-line interface over the
// entity store.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leoashcraft/County-Connect-sub009/internal/logging"
	"github.com/leoashcraft/County-Connect-sub009/pkg/store"
	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values shared by all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	logLevel  string
	logFile   string
	jsonMode  bool
}

// app carries the flags of one command tree.
type app struct {
	flags rootFlags
}

// NewRootCmd creates the top-level "countyctl" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "countyctl",
		Short: "Operate the county entity store",
		Long: "countyctl reads and writes the schema-less entity store and its site\n" +
			"settings on the configured SQLite or PostgreSQL backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	pf.StringVar(&a.flags.backend, "backend", "", "backend override (sqlite or postgres)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVar(&a.flags.logFile, "log-file", "", `log file (default: <data-dir>/logs/countyctl.log, "-" for stderr)`)
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(a.newInitCmd())
	root.AddCommand(a.newGetCmd())
	root.AddCommand(a.newListCmd())
	root.AddCommand(a.newFilterCmd())
	root.AddCommand(a.newCountCmd())
	root.AddCommand(a.newCreateCmd())
	root.AddCommand(a.newUpdateCmd())
	root.AddCommand(a.newDeleteCmd())
	root.AddCommand(a.newDeleteManyCmd())
	root.AddCommand(a.newBulkCreateCmd())
	root.AddCommand(a.newExportCmd())
	root.AddCommand(a.newImportCmd())
	root.AddCommand(a.newSettingCmd())

	return root
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "countyctl:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// session is an opened store plus the logger it writes to.
type session struct {
	entities types.EntityStore
	settings types.SettingStore
	log      *logging.Logger
}

func (s *session) Close() error {
	err := s.entities.Close()
	if lerr := s.log.Close(); err == nil {
		err = lerr
	}
	return err
}

// open loads configuration and attaches the store. The caller must Close the
// session.
func (a *app) open(ctx context.Context) (*session, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	b := logging.New().Level(cfg.LogLevel)
	if cfg.LogFile == types.LogToStderr {
		b = b.Console(true)
	} else {
		b = b.FromPath(cfg.LogFile)
	}
	log, err := b.Make()
	if err != nil {
		return nil, err
	}

	entities, settings, err := store.Open(ctx, cfg, store.WithLogger(log.Logger))
	if err != nil {
		log.Close()
		return nil, storeError(fmt.Errorf("open store: %w", err))
	}
	return &session{entities: entities, settings: settings, log: log}, nil
}

// exitError pins the exit code of a failure.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func sysError(err error) error {
	return &exitError{code: exitSysError, err: err}
}

// storeError classifies an error returned by the store: rejected input is a
// user error, anything else is a system error.
func storeError(err error) error {
	if isUserError(err) {
		return &exitError{code: exitUserError, err: err}
	}
	return sysError(err)
}

func isUserError(err error) bool {
	for _, target := range []error{
		types.ErrInvalidFieldName,
		types.ErrInvalidEntityType,
		types.ErrInvalidID,
		types.ErrInvalidData,
		types.ErrInvalidFilter,
		types.ErrInvalidSort,
		types.ErrInvalidKey,
		types.ErrBackendEmpty,
		types.ErrBackendUnknown,
		types.ErrPostgresTarget,
		types.ErrPoolSizeInvalid,
		types.ErrTimeoutInvalid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// exitCode maps an error to the process exit code. Argument and flag errors
// reported by cobra are user errors.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
