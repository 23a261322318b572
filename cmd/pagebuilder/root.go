package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/pagebuilder/internal/cli"
	"github.com/aretw0/pagebuilder/internal/config"
	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/aretw0/pagebuilder/pkg/observability"
	"github.com/aretw0/pagebuilder/pkg/session"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	dir        string
	configPath string
	backend    string
	logLevel   string
	logFormat  string

	cfg     config.Config
	logger  *slog.Logger
	storage *cli.Backend
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pagebuilder",
		Short: "Compose pages from heading, paragraph, image and list blocks",
		Long: `pagebuilder keeps an ordered collection of page elements per document.
Elements are placed, reordered, edited and deleted through the same input
events a drag-and-drop canvas produces, and persisted to a pluggable store.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.storage == nil {
				return nil
			}
			return a.storage.Close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.dir, "dir", ".", "Project directory; relative store paths resolve against it")
	flags.StringVar(&a.configPath, "config", "", "Config file (default <dir>/pagebuilder.yaml)")
	flags.StringVar(&a.backend, "backend", "", "Store backend: memory, file, redis or sqlite")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")

	root.AddCommand(
		newDocCmd(a),
		newAddCmd(a),
		newMoveCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newReplayCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and applies flag overrides. Stores are opened
// lazily so commands such as version never touch them.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	path := a.configPath
	if path == "" && a.dir != "" && a.dir != "." {
		path = filepath.Join(a.dir, config.DefaultFile)
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	overrides := map[string]any{}
	if a.backend != "" {
		config.Set(overrides, "store.backend", a.backend)
	}
	if a.logLevel != "" {
		config.Set(overrides, "log.level", a.logLevel)
	}
	if a.logFormat != "" {
		config.Set(overrides, "log.format", a.logFormat)
	}
	if err := config.Decode(overrides, &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cli.NewLogger(cfg.Log)
	return nil
}

func (a *app) open(ctx context.Context) (*cli.Backend, error) {
	if a.storage != nil {
		return a.storage, nil
	}
	b, err := cli.OpenBackend(ctx, a.cfg.Store, a.dir, a.logger)
	if err != nil {
		return nil, err
	}
	a.storage = b
	return b, nil
}

// manager opens the store and returns a session manager whose documents log
// every notification at debug level.
func (a *app) manager(ctx context.Context, hooks ...domain.LifecycleHooks) (*session.Manager, error) {
	b, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	all := observability.LoggingHooks(a.logger)
	for _, h := range hooks {
		all = all.Merge(h)
	}
	return cli.NewManager(b, all, a.logger), nil
}

// mutate applies fn to a stored document and saves it.
func (a *app) mutate(ctx context.Context, documentID string, fn func(context.Context, session.Document) error) ([]domain.Element, error) {
	mgr, err := a.manager(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Element
	err = mgr.WithDocument(ctx, documentID, func(ctx context.Context, doc session.Document) error {
		if err := fn(ctx, doc); err != nil {
			return err
		}
		out = doc.Elements()
		return doc.SaveDocument(ctx)
	})
	return out, err
}
