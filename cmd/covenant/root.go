package main

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/covenant"
	"github.com/aretw0/covenant/examples/counter"
	"github.com/aretw0/covenant/internal/config"
	"github.com/aretw0/covenant/internal/logging"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/registry"
	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	logLevel   string
	backend    string
	storePath  string

	cfg       config.Config
	logger    *slog.Logger
	contracts *registry.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{contracts: registry.NewRegistry()}
	a.contracts.MustRegister(counter.MustDefinition())

	rootCmd := &cobra.Command{
		Use:   "covenant",
		Short: "Covenant binds Go methods as contract entry points",
		Long: `Covenant classifies the methods of a contract state type, derives their
schemas and runs them with transactional state persistence.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.load() },
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default covenant.yaml or $COVENANT_CONFIG)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.backend, "store", "", "State backend: memory, file, redis, sqlite")
	flags.StringVar(&a.storePath, "store-path", "", "Path for the file and sqlite backends")

	rootCmd.AddCommand(
		newABICmd(a),
		newCheckCmd(a),
		newCallCmd(a, false),
		newCallCmd(a, true),
		newStateCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newReplCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.backend != "" {
		cfg.Store.Backend = a.backend
	}
	if a.storePath != "" {
		cfg.Store.Path = a.storePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.NewWithFormat(errWriter, level, cfg.Log.Format)
	return nil
}

// definition resolves a contract name; empty means the only (or first)
// registered contract.
func (a *app) definition(name string) (covenant.Definition, error) {
	if name == "" {
		names := a.contracts.Names()
		if len(names) == 0 {
			return covenant.Definition{}, fmt.Errorf("no contracts registered")
		}
		name = names[0]
	}
	return a.contracts.Lookup(name)
}

// runtime opens the configured store and binds the named contract to it.
// The returned func releases the store.
func (a *app) runtime(name string, hooks ...domain.LifecycleHooks) (*covenant.Runtime, func() error, error) {
	def, err := a.definition(name)
	if err != nil {
		return nil, nil, err
	}
	backend, err := a.cfg.Store.Open()
	if err != nil {
		return nil, nil, err
	}

	opts := []covenant.Option{
		covenant.WithStore(backend.Store),
		covenant.WithLogger(a.logger),
		covenant.WithStoreMiddleware(backend.Middlewares...),
	}
	if backend.Locker != nil {
		opts = append(opts, covenant.WithLocker(backend.Locker))
	}
	if len(hooks) > 0 {
		opts = append(opts, covenant.WithLifecycleHooks(hooks[0]))
	}

	rt, err := covenant.New(def, opts...)
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}
	return rt, backend.Close, nil
}

func (a *app) account(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if a.cfg.Account != "" {
		return a.cfg.Account, nil
	}
	return "", fmt.Errorf("no account: pass --account or set account in the config")
}
