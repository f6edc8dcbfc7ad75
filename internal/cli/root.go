// Package cli implements the shelf command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/shelfmark/internal/engine"
	"github.com/mesh-intelligence/shelfmark/internal/store"
	"github.com/mesh-intelligence/shelfmark/pkg/shelfmark"
	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// app carries global flag values and the resources opened for one command.
type app struct {
	configDir string
	dataDir   string
	user      string
	output    string
	verbose   bool
	yes       bool

	v   *viper.Viper
	log *zap.Logger

	cupboard types.Cupboard
	store    *store.Adapter
	engine   *engine.Engine
	prompt   *prompter
}

// NewRootCmd creates the top-level "shelf" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:     "shelf",
		Short:   "Track the books you read, shelved by status and category",
		Long:    "shelf keeps a personal library of books. Every book has one reading status\nand any number of your own categories.",
		Version: shelfmark.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/shelfmark)")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/shelfmark)")
	pf.StringVar(&a.user, "user", "", "library owner (default from config)")
	pf.StringVarP(&a.output, "output", "o", outputText, "output format: text, json or yaml")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
	pf.BoolVarP(&a.yes, "yes", "y", false, "answer yes to every confirmation")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newBookCmd(a),
		newCategoryCmd(a),
		newShelvesCmd(a),
		newToggleCmd(a),
		newDragCmd(a),
		newRemoveCmd(a),
		newProfileCmd(a),
		newPublicCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "shelf:", err)
	}
	os.Exit(exitCode(err))
}

// usageError marks errors caused by how the command was invoked.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// userErrors are the sentinel errors that mean the input was wrong rather
// than the system failing.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidData,
	types.ErrInvalidFilter,
	types.ErrDuplicateBook,
	types.ErrInvalidState,
	types.ErrInvalidRating,
	types.ErrInvalidName,
	types.ErrInvalidCategory,
	types.ErrInvalidTransition,
	types.ErrInvalidUser,
	types.ErrBackendEmpty,
	types.ErrBackendUnknown,
	types.ErrSyncStrategyUnknown,
	types.ErrBatchSizeInvalid,
	types.ErrBatchIntervalInvalid,
	errRejected,
}

func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue usageError
	if errors.As(err, &ue) {
		return exitUserError
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// run wraps a command body so the backend is detached however it returns.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := a.close(); err == nil && cerr != nil {
				err = fmt.Errorf("close library: %w", cerr)
			}
		}()
		return fn(cmd, args)
	}
}

// posArgs wraps a cobra positional-args validator so its failures count as
// usage errors.
func posArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := fn(cmd, a); err != nil {
			return usageError{err}
		}
		return nil
	}
}
