// Package cli wires the todo-svc commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"todo-svc/internal/config"
	"todo-svc/internal/store"
	"todo-svc/internal/task"
	"todo-svc/pkg/mq"
)

var (
	appVersion = "dev"
	appCommit  = "none"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit string) {
	appVersion = version
	appCommit = commit
}

// app carries what every subcommand needs once the root pre-run has loaded
// config and opened the store.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	log     *slog.Logger
	bus     *mq.Bus
	st      store.Backend
	mgr     *task.Manager

	open func(ctx context.Context, cfg store.Config) (store.Backend, error)
}

func NewRootCmd() *cobra.Command {
	root, _ := newRootCmd()
	return root
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{open: store.Open}
	root := &cobra.Command{
		Use:   "todo-svc",
		Short: "Task list with categories, served over HTTP or kept on this device",
		Long: `todo-svc keeps a list of short text tasks grouped by category.

Run "todo-svc serve" for the JSON collection service, or use the add, list,
toggle, category, rm and clear commands to work on the local store directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skipStore"] == "true" {
				return nil
			}
			return a.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./todo.yaml or ~/.config/todo-svc/todo.yaml)")
	pf.String("store", "", "store backend: memory, local or mysql")
	pf.String("path", "", "local store file")
	pf.String("dsn", "", "mysql DSN")
	pf.String("log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newToggleCmd(a),
		newCategoryCmd(a),
		newRmCmd(a),
		newClearCmd(a),
		newCategoriesCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newVersionCmd(),
	)
	return root, a
}

// execute runs root and closes whatever store the pre-run opened, also when
// the command itself failed.
func execute(root *cobra.Command, a *app) error {
	err := root.Execute()
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (a *app) close() error {
	if a.st == nil {
		return nil
	}
	st := a.st
	a.st = nil
	return st.Close()
}

func (a *app) setup(cmd *cobra.Command) error {
	a.v = config.New(a.cfgFile)
	for key, flag := range map[string]string{
		"store.backend":     "store",
		"store.path":        "path",
		"store.dsn":         "dsn",
		"log.level":         "log-level",
		"server.addr":       "addr",
		"server.static_dir": "static-dir",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.Log.Logger(cmd.ErrOrStderr())
	a.bus = mq.NewBus()

	st, err := a.open(cmd.Context(), cfg.Store)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	a.st = st
	a.mgr = task.NewManager(st, task.WithLogger(a.log), task.WithPublisher(a.bus))
	return a.mgr.Load(cmd.Context())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{"skipStore": "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "todo-svc %s\ncommit: %s\n", appVersion, appCommit)
		},
	}
}

// Execute runs the root command.
func Execute() error {
	return execute(newRootCmd())
}

// Main runs Execute and exits non-zero on error.
func Main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
