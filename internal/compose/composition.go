package compose

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/multi/config"
	"github.com/xraph/multi/errors"
	"github.com/xraph/multi/internal/container"
	"github.com/xraph/multi/internal/metrics"
	"github.com/xraph/multi/internal/provider"
	"github.com/xraph/multi/internal/registry"
	"github.com/xraph/multi/logger"
)

const tracerName = "github.com/xraph/multi/internal/compose"

// State is the phase a composition is in.
type State int

const (
	StateIdle State = iota
	StateDeclaring
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateDeclaring:
		return "declaring"
	case StateFinalized:
		return "finalized"
	default:
		return "idle"
	}
}

// Composition owns the contributions of one composition and drives the
// declare and resolve phases.
type Composition struct {
	registry *registry.Registry
	logger   logger.Logger
	metrics  metrics.Metrics
	tracer   trace.Tracer
	config   config.CompositionConfig

	mu          sync.Mutex
	state       State
	collections []*Collection
	byToken     map[provider.Token]*Collection
	declared    map[*container.Module]container.Metadata
	plain       []plainProvider
}

// plainProvider is a non-multi provider seen during the declare phase.
type plainProvider struct {
	token  provider.Token
	desc   string
	module string
}

// Option configures a Composition.
type Option func(*Composition)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Composition) {
		c.logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Metrics) Option {
	return func(c *Composition) {
		c.metrics = m
	}
}

// WithConfig sets the composition configuration.
func WithConfig(cfg config.CompositionConfig) Option {
	return func(c *Composition) {
		c.config = cfg
	}
}

// WithRegistry uses r instead of a fresh registry.
func WithRegistry(r *registry.Registry) Option {
	return func(c *Composition) {
		c.registry = r
	}
}

// WithTracer sets the tracer used for finalize spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Composition) {
		c.tracer = t
	}
}

// New creates an idle composition.
func New(opts ...Option) *Composition {
	c := &Composition{
		registry: registry.New(),
		logger:   logger.NewNoopLogger(),
		metrics:  metrics.NewNoOpMetrics(),
		tracer:   otel.Tracer(tracerName),
		config:   config.Default().Composition,
		byToken:  make(map[provider.Token]*Collection),
		declared: make(map[*container.Module]container.Metadata),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry backing the composition.
func (c *Composition) Registry() *registry.Registry {
	return c.registry
}

// State returns the current phase.
func (c *Composition) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Begin opens the declare phase. It is a no-op while already declaring.
func (c *Composition) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateIdle:
		c.state = StateDeclaring
		c.logger.Debug("composition begun")
		return nil
	case StateDeclaring:
		return nil
	default:
		return errors.ErrCompositionState("begin", c.state.String())
	}
}

// Finalize closes the declare phase, freezes the registry and builds every
// requested collection in the order Collect was called.
func (c *Composition) Finalize(ctx context.Context) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateDeclaring {
		return errors.ErrCompositionState("finalize", c.state.String())
	}

	start := time.Now()
	_, span := c.tracer.Start(ctx, "compose.finalize")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if c.config.Strict {
		if err := c.checkStrict(); err != nil {
			return err
		}
	}

	c.registry.Freeze()
	c.state = StateFinalized

	for _, col := range c.collections {
		c.build(col)
	}

	c.metrics.ObserveFinalize(time.Since(start))
	span.SetAttributes(
		attribute.Int("compose.tokens", len(c.registry.Tokens())),
		attribute.Int("compose.contributions", c.registry.Len()),
		attribute.Int("compose.collections", len(c.collections)),
	)
	c.logger.Info("composition finalized",
		logger.Int("tokens", len(c.registry.Tokens())),
		logger.Int("contributions", c.registry.Len()),
		logger.Int("collections", len(c.collections)),
		logger.Duration("duration", time.Since(start)),
	)

	return nil
}

// checkStrict catches non-multi providers declared before the first
// multi-contribution to the same token.
func (c *Composition) checkStrict() error {
	for _, p := range c.plain {
		if c.registry.Has(p.token) {
			return errors.ErrMissingMulti(p.desc).WithContext("module", p.module)
		}
	}
	return nil
}

// Reset returns the composition to idle with an empty registry. Collections
// still pending fail with COMPOSITION_STATE.
func (c *Composition) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, col := range c.collections {
		col.complete(nil, errors.ErrCompositionState("collect", "reset"))
	}

	c.registry.Reset()
	c.state = StateIdle
	c.collections = nil
	c.byToken = make(map[provider.Token]*Collection)
	c.declared = make(map[*container.Module]container.Metadata)
	c.plain = nil

	c.logger.Debug("composition reset")
}
