// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/orchestrator"
	"go.trai.ch/kiln/internal/engine/stage"
	"go.trai.ch/kiln/internal/engine/watch"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Deps are the adapters the App builds its engine from.
type Deps struct {
	Loader       ports.ConfigLoader
	Logger       ports.Logger
	Resolver     ports.SourceResolver
	Tree         ports.OutputTree
	Digester     stage.Digester
	Transformers ports.TransformerSet
	Tracer       ports.Tracer
	Metrics      ports.Metrics
	Notifier     ports.ReloadNotifier
	Server       ports.DevServer
	Watcher      ports.Watcher
}

// App represents the main application logic.
type App struct {
	deps    Deps
	workDir string
}

// New creates a new App instance.
func New(deps Deps) *App {
	return &App{deps: deps}
}

// WithWorkDir sets the directory configuration discovery starts from.
// By default the process working directory is used.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// Options configure every command.
type Options struct {
	ConfigPath string
	Production bool
	// Classes restricts the command to the named asset classes. Empty means all.
	Classes []string
}

// WatchOptions configure the Watch method.
type WatchOptions struct {
	Options
	Addr     string
	NoServe  bool
	Debounce time.Duration
}

// SetJSONLogs switches the logger to JSON output when it supports it.
func (a *App) SetJSONLogs(enable bool) {
	if l, ok := a.deps.Logger.(interface{ SetJSON(bool) }); ok {
		l.SetJSON(enable)
	}
}

// Clean removes the generated output of the selected classes.
func (a *App) Clean(ctx context.Context, opts Options) error {
	cfg, classes, err := a.prepare(opts, a.overrides(opts))
	if err != nil {
		return err
	}

	if err := a.engine(cfg).CleanAll(ctx, classes); err != nil {
		return errors.Join(domain.ErrCleanFailed, err)
	}
	return nil
}

// Build runs a one-shot build of the selected classes. Generated output is
// cleaned first. Every failed class has already been logged when
// ErrBuildExecutionFailed is returned.
func (a *App) Build(ctx context.Context, opts Options) error {
	cfg, classes, err := a.prepare(opts, a.overrides(opts))
	if err != nil {
		return err
	}
	if err := a.checkEntryModule(cfg, classes); err != nil {
		return err
	}

	orch := a.engine(cfg)
	_ = orch.CleanAll(ctx, classes)
	if _, err := orch.BuildAll(ctx, classes); err != nil {
		return errors.Join(domain.ErrBuildExecutionFailed, err)
	}
	return nil
}

// Watch cleans, builds and then watches the selected classes until ctx is
// cancelled, serving the output with live reload unless disabled.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	overrides := a.overrides(opts.Options)
	overrides.Addr = opts.Addr
	overrides.Debounce = opts.Debounce
	if opts.NoServe {
		serve := false
		overrides.Serve = &serve
	}

	cfg, classes, err := a.prepare(opts.Options, overrides)
	if err != nil {
		return err
	}
	if err := a.checkEntryModule(cfg, classes); err != nil {
		return err
	}

	// The port is bound before the first build so a busy port fails fast.
	if cfg.Server.Enabled {
		addr, err := a.deps.Server.Listen(cfg.Server.Addr, cfg.ServeRoot)
		if err != nil {
			return err
		}
		a.deps.Logger.Info(fmt.Sprintf("serving %s at http://%s", relToRoot(cfg.Paths.Root, cfg.ServeRoot), addr))
	}

	orch := a.engine(cfg)
	g, ctx := errgroup.WithContext(ctx)
	if cfg.Server.Enabled {
		g.Go(func() error {
			return a.deps.Server.Serve(ctx)
		})
	}
	g.Go(func() error {
		return orch.Run(ctx, classes)
	})

	return g.Wait()
}

func (a *App) overrides(opts Options) domain.Overrides {
	overrides := domain.Overrides{ConfigPath: opts.ConfigPath}
	if opts.Production {
		mode := domain.Production
		overrides.Mode = &mode
	}
	return overrides
}

func (a *App) prepare(opts Options, overrides domain.Overrides) (*domain.Config, []domain.AssetClass, error) {
	classes, err := domain.ParseAssetClasses(opts.Classes)
	if err != nil {
		return nil, nil, err
	}

	cwd := a.workDir
	if cwd == "" {
		if cwd, err = os.Getwd(); err != nil {
			return nil, nil, zerr.Wrap(err, "failed to get working directory")
		}
	}

	cfg, err := a.deps.Loader.Load(cwd, overrides)
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to load configuration")
	}
	return cfg, classes, nil
}

// checkEntryModule fails when scripts are selected and the scripts source does
// not resolve to exactly one entry module.
func (a *App) checkEntryModule(cfg *domain.Config, classes []domain.AssetClass) error {
	if !slices.Contains(classes, domain.Scripts) {
		return nil
	}
	entry, ok := cfg.Paths.Entry(domain.Scripts)
	if !ok {
		return zerr.With(domain.ErrInvalidPathConfig, "class", domain.Scripts.String())
	}

	sources, err := a.deps.Resolver.ResolveSources(cfg.Paths.Root, entry.SourcePattern())
	if err != nil {
		return err
	}
	if len(sources) != 1 {
		err := zerr.With(domain.ErrEntryModuleNotFound, "source", entry.Source)
		return zerr.With(err, "matched", len(sources))
	}
	return nil
}

// engine assembles the stages for one process from the resolved config.
func (a *App) engine(cfg *domain.Config) *orchestrator.Orchestrator {
	builder := stage.NewBuilder(cfg, stage.BuilderDeps{
		Resolver:     a.deps.Resolver,
		Transformers: a.deps.Transformers,
		Tree:         a.deps.Tree,
		Digester:     a.deps.Digester,
		Tracer:       a.deps.Tracer,
		Metrics:      a.deps.Metrics,
		Logger:       a.deps.Logger,
	})
	cleaner := stage.NewCleaner(cfg.Paths, a.deps.Tree, a.deps.Logger)
	watcher := watch.New(cfg, watch.Deps{
		Watcher:      a.deps.Watcher,
		Builder:      builder,
		Tree:         a.deps.Tree,
		Transformers: a.deps.Transformers,
		Notifier:     a.deps.Notifier,
		Logger:       a.deps.Logger,
	})
	return orchestrator.New(cleaner, builder, watcher, a.deps.Tracer, a.deps.Logger)
}

func relToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
