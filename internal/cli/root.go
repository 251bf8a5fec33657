package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/adriangreen/tasklog/internal/config"
	"github.com/adriangreen/tasklog/internal/logger"
	"github.com/adriangreen/tasklog/internal/store"
	"github.com/spf13/cobra"
)

// app carries the state shared by every subcommand
type app struct {
	configPath string
	storePath  string
	backend    string
	logLevel   string
	logJSON    bool

	manager *config.ConfigManager
	cfg     *config.Config
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "tasklog",
		Short: "Normalize and store daily task logs",
		Long: `tasklog reads daily task logs written by any version of the task
tracker, flattens nested subtasks into a depth-annotated list, maps legacy
statuses onto the current set and keeps the result in a local store.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./tasklog.json or the user config dir)")
	flags.StringVar(&a.storePath, "store", "", "directory holding the log store")
	flags.StringVar(&a.backend, "backend", "", "store backend: file, badger or sqlite")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&a.logJSON, "log-json", false, "write logs as JSON")

	cmd.AddCommand(
		newNormalizeCommand(a),
		newImportCommand(a),
		newShowCommand(a),
		newListCommand(a),
		newMigrateCommand(a),
		newWatchCommand(a),
	)

	return cmd
}

// setup loads the configuration, applies flag overrides and initializes logging
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	manager, err := config.NewConfigManager(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}
	a.manager = manager

	if err := a.refresh(cmd); err != nil {
		return err
	}

	logger.Init(&logger.Config{
		Level:      a.cfg.LogLevel,
		Output:     cmd.ErrOrStderr(),
		JSON:       a.cfg.LogJSON,
		TimeFormat: logger.DefaultConfig().TimeFormat,
	})
	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), logger.Default()))

	logger.Default().Debug("configuration loaded",
		"path", a.cfg.Path(), "backend", a.cfg.Backend, "store", a.cfg.StorePath)
	return nil
}

// refresh takes the manager's current config and lays the flags over it.
// Flags always win, including after a config file reload.
func (a *app) refresh(cmd *cobra.Command) error {
	cfg := *a.manager.GetConfig()

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.StorePath = a.storePath
	}
	if flags.Changed("backend") {
		cfg.Backend = a.backend
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-json") {
		cfg.LogJSON = a.logJSON
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = &cfg
	return nil
}

// openService opens the configured store. The caller must close the store.
func (a *app) openService() (*store.Service, store.Store, error) {
	st, err := store.Open(a.cfg.Backend, a.cfg.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store: %w", a.cfg.Backend, err)
	}
	return store.NewService(st, store.WithLogger(logger.Default())), st, nil
}

// readInput reads the named file, or stdin for "-" and no name
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "" || name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
