package multi

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/xraph/multi/config"
	"github.com/xraph/multi/internal/compose"
	"github.com/xraph/multi/internal/container"
	"github.com/xraph/multi/internal/metrics"
	"github.com/xraph/multi/logger"
)

// AppConfig configures an App.
type AppConfig struct {
	Name string

	// Config holds logging, composition, metrics and tracing settings.
	Config config.Config

	// Logger overrides the logger built from Config.Logging.
	Logger Logger

	// Registerer receives the Prometheus collectors when metrics are
	// enabled. Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// DefaultAppConfig returns a default application configuration
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Name:   "multi-app",
		Config: config.Default(),
	}
}

// App couples a composition with the container that hosts it.
type App struct {
	name        string
	logger      Logger
	composition *Composition
	container   *Container
	lifecycle   *lifecycleManager
}

// NewApp creates an application from config.
func NewApp(cfg AppConfig) (*App, error) {
	if err := cfg.Config.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewLogger(cfg.Config.Logging)
	}
	if cfg.Name != "" {
		log = log.Named(cfg.Name)
	}

	rec := metrics.NewNoOpMetrics()
	if cfg.Config.Metrics.Enabled {
		reg := cfg.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		var err error
		if rec, err = metrics.New(cfg.Config.Metrics.Namespace, reg); err != nil {
			return nil, err
		}
	}

	var tp trace.TracerProvider = noop.NewTracerProvider()
	if cfg.Config.Tracing.Enabled {
		tp = otel.GetTracerProvider()
	}

	app := &App{
		name:      cfg.Name,
		logger:    log,
		lifecycle: newLifecycleManager(log.Named("lifecycle")),
	}

	comp := compose.New(
		compose.WithLogger(log.Named("compose")),
		compose.WithMetrics(rec),
		compose.WithConfig(cfg.Config.Composition),
		compose.WithTracer(tp.Tracer("github.com/xraph/multi/internal/compose")),
	)
	c := container.New(
		container.WithHook(comp),
		container.WithHook(&finalizeHook{app: app}),
		container.WithLogger(log.Named("container")),
		container.WithMetrics(rec),
		container.WithTracer(tp.Tracer("github.com/xraph/multi/internal/container")),
	)

	app.composition = comp
	app.container = c

	return app, nil
}

// Name returns the application name.
func (a *App) Name() string { return a.name }

// Logger returns the application logger.
func (a *App) Logger() Logger { return a.logger }

// Composition returns the composition driving declare and resolve.
func (a *App) Composition() *Composition { return a.composition }

// Container returns the host container.
func (a *App) Container() *Container { return a.container }

// Collect requests the aggregation of token.
func (a *App) Collect(token Token) *Collection {
	return a.composition.Collect(token)
}

// RegisterHook registers a lifecycle hook for phase.
func (a *App) RegisterHook(phase LifecyclePhase, hook LifecycleHook, opts LifecycleHookOptions) error {
	return a.lifecycle.register(phase, hook, opts)
}

// RegisterHookFn registers a lifecycle hook with default options.
func (a *App) RegisterHookFn(phase LifecyclePhase, name string, hook LifecycleHook) error {
	return a.lifecycle.register(phase, hook, DefaultLifecycleHookOptions(name))
}

// RemoveHook removes the named hook from phase.
func (a *App) RemoveHook(phase LifecyclePhase, name string) error {
	return a.lifecycle.remove(phase, name)
}

// Hooks lists the hooks of phase in execution order.
func (a *App) Hooks(phase LifecyclePhase) []LifecycleHookOptions {
	return a.lifecycle.list(phase)
}

// Start compiles the module tree rooted at root. Every module in the tree
// is processed for multi-contributions and the composition is finalized at
// the end of the static scan.
func (a *App) Start(ctx context.Context, root any) error {
	if err := a.lifecycle.execute(ctx, PhaseBeforeCompile, a); err != nil {
		return err
	}

	if err := a.container.Compile(ctx, root); err != nil {
		a.logger.Error("composition failed", logger.Error(err))
		return err
	}

	return a.lifecycle.execute(ctx, PhaseAfterStart, a)
}
