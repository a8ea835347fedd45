package container

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/multi/errors"
	"github.com/xraph/multi/internal/metrics"
	"github.com/xraph/multi/internal/provider"
	"github.com/xraph/multi/logger"
)

const tracerName = "github.com/xraph/multi/internal/container"

// Container scans a module tree, links providers across module scopes and
// instantiates them as singletons.
type Container struct {
	hooks   []Hook
	logger  logger.Logger
	metrics metrics.Metrics
	tracer  trace.Tracer

	mu       sync.RWMutex
	root     *moduleInstance
	modules  []*moduleInstance
	byRef    map[*Module]*moduleInstance
	bindings []*binding
	deferred []deferredSlot
	started  bool
	ready    bool
}

type deferredSlot struct {
	owner *moduleInstance
	index int
	imp   DeferredImport
}

// Option configures a Container.
type Option func(*Container)

// WithHook adds a hook that sees every module's metadata before its
// providers are registered. Hooks run in the order they were added.
func WithHook(h Hook) Option {
	return func(c *Container) {
		c.hooks = append(c.hooks, h)
	}
}

// WithLogger sets the container logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Container) {
		c.logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Metrics) Option {
	return func(c *Container) {
		c.metrics = m
	}
}

// WithTracer sets the tracer used for compile spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Container) {
		c.tracer = t
	}
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		logger:  logger.NewNoopLogger(),
		metrics: metrics.NewNoOpMetrics(),
		tracer:  otel.Tracer(tracerName),
		byRef:   make(map[*Module]*moduleInstance),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile scans root and everything it imports, then instantiates every
// provider. Static imports are scanned depth first in declaration order and
// a module is transformed and bound after everything it imports; deferred
// imports are resolved after the scan boundary. A container can
// be compiled once.
func (c *Container) Compile(ctx context.Context, root any) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return errors.ErrAlreadyCompiled
	}
	c.started = true

	ctx, span := c.tracer.Start(ctx, "container.compile")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	for _, h := range c.hooks {
		if ph, ok := h.(PhaseHook); ok {
			if err := ph.BeginScan(ctx); err != nil {
				return err
			}
		}
	}

	c.root, err = c.scan(ctx, root)
	if err != nil {
		return err
	}

	for _, h := range c.hooks {
		if ph, ok := h.(PhaseHook); ok {
			if err := ph.EndScan(ctx); err != nil {
				return err
			}
		}
	}

	if err := c.resolveDeferred(ctx); err != nil {
		return err
	}

	if err := c.linkExports(); err != nil {
		return err
	}

	order, err := c.link()
	if err != nil {
		return err
	}

	for _, b := range order {
		if err := c.instantiate(b); err != nil {
			return err
		}
	}

	c.ready = true
	c.metrics.ProvidersInstantiated(len(order))
	span.SetAttributes(
		attribute.Int("container.modules", len(c.modules)),
		attribute.Int("container.providers", len(order)),
	)
	c.logger.Info("container compiled",
		logger.Int("modules", len(c.modules)),
		logger.Int("providers", len(order)),
	)

	return nil
}

// scan registers the module named by item and, recursively, its imports.
func (c *Container) scan(ctx context.Context, item any) (*moduleInstance, error) {
	switch v := item.(type) {
	case *Module:
		if v == nil {
			return nil, errors.ErrValidationError("imports", fmt.Errorf("nil module"))
		}
		return c.register(ctx, v, nil)
	case ForwardRef:
		m := v.Module()
		if m == nil {
			return nil, errors.ErrValidationError("imports", fmt.Errorf("forward reference resolved to nil"))
		}
		return c.register(ctx, m, nil)
	case *DynamicModule:
		if v == nil || v.Module == nil {
			return nil, errors.ErrValidationError("imports", fmt.Errorf("dynamic module without a module"))
		}
		return c.register(ctx, v.Module, v)
	default:
		return nil, errors.ErrValidationError("imports", fmt.Errorf("unsupported import %T", item))
	}
}

func (c *Container) register(ctx context.Context, ref *Module, dyn *DynamicModule) (*moduleInstance, error) {
	if inst, ok := c.byRef[ref]; ok {
		return inst, nil
	}

	name := ref.Name
	if name == "" {
		name = fmt.Sprintf("module%d", len(c.modules))
	}
	inst := newModuleInstance(ref, name)
	c.byRef[ref] = inst
	c.modules = append(c.modules, inst)

	md := ref.Metadata()
	imports := append([]any(nil), md.Imports...)
	if dyn != nil {
		imports = append(imports, dyn.Imports...)
	}

	// Imports come first so their declarations precede the module's own.
	for _, imp := range imports {
		if d, ok := imp.(DeferredImport); ok {
			inst.imports = append(inst.imports, nil)
			c.deferred = append(c.deferred, deferredSlot{owner: inst, index: len(inst.imports) - 1, imp: d})
			continue
		}
		child, err := c.scan(ctx, imp)
		if err != nil {
			return nil, err
		}
		inst.imports = append(inst.imports, child)
	}

	for _, h := range c.hooks {
		var err error
		if md, err = h.TransformModule(ref, md); err != nil {
			return nil, fmt.Errorf("module %s: %w", name, err)
		}
	}
	if dyn != nil {
		md.Providers = append(md.Providers, dyn.Providers...)
		md.Exports = append(md.Exports, dyn.Exports...)
	}

	for _, raw := range md.Providers {
		if err := c.bind(inst, raw); err != nil {
			return nil, fmt.Errorf("module %s: %w", name, err)
		}
	}
	inst.exports = md.Exports

	c.metrics.ModuleScanned()
	c.logger.Debug("module scanned",
		logger.String("module", name),
		logger.Int("providers", len(inst.order)),
		logger.Int("imports", len(imports)),
	)

	return inst, nil
}

func (c *Container) bind(inst *moduleInstance, raw any) error {
	p, err := provider.From(raw)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if _, exists := inst.providers[p.Provide]; exists {
		return errors.ErrServiceAlreadyExists(provider.DescribeToken(p.Provide))
	}

	b := &binding{
		id:       fmt.Sprintf("%s#%d:%s", inst.name, len(c.bindings), provider.DescribeToken(p.Provide)),
		token:    p.Provide,
		provider: p,
		owner:    inst,
	}
	inst.providers[p.Provide] = b
	inst.order = append(inst.order, b)
	c.bindings = append(c.bindings, b)
	return nil
}

// resolveDeferred resolves deferred imports in the order they were met.
// Modules they pull in may add further deferred imports.
func (c *Container) resolveDeferred(ctx context.Context) error {
	for i := 0; i < len(c.deferred); i++ {
		slot := c.deferred[i]

		res, err := slot.imp.ResolveImport(ctx)
		if err != nil {
			return fmt.Errorf("module %s: %w", slot.owner.name, err)
		}
		if d, ok := res.(DeferredImport); ok {
			c.deferred = append(c.deferred, deferredSlot{owner: slot.owner, index: slot.index, imp: d})
			continue
		}

		child, err := c.scan(ctx, res)
		if err != nil {
			return err
		}
		slot.owner.imports[slot.index] = child
	}
	return nil
}

// linkExports classifies every module's exports and checks that each
// exported token is visible in the exporting module.
func (c *Container) linkExports() error {
	for _, m := range c.modules {
		for _, exp := range m.exports {
			ref := exportedModule(exp)
			if ref == nil {
				if err := provider.ValidateToken(exp); err != nil {
					return fmt.Errorf("module %s: %w", m.name, err)
				}
				m.exported[exp] = true
				continue
			}
			inst, ok := c.byRef[ref]
			if !ok || !m.imported(inst) {
				return errors.ErrInvalidExport(m.name, ref.Name)
			}
			m.reexports = append(m.reexports, inst)
		}
	}

	for _, m := range c.modules {
		for _, exp := range m.exports {
			if exportedModule(exp) != nil {
				continue
			}
			if lookup(m, exp) == nil {
				return errors.ErrInvalidExport(m.name, provider.DescribeToken(exp))
			}
		}
	}
	return nil
}

func exportedModule(exp any) *Module {
	switch v := exp.(type) {
	case *Module:
		return v
	case ForwardRef:
		return v.Module()
	case *DynamicModule:
		return v.Module
	}
	return nil
}

// link resolves every binding's dependencies in its module scope and
// returns the bindings in instantiation order.
func (c *Container) link() ([]*binding, error) {
	graph := NewDependencyGraph()
	byID := make(map[string]*binding, len(c.bindings))

	for _, b := range c.bindings {
		deps, err := b.provider.Dependencies()
		if err != nil {
			return nil, errors.NewServiceError(provider.DescribeToken(b.token), "link", err)
		}

		ids := make([]string, len(deps))
		b.deps = make([]*binding, len(deps))
		for i, tok := range deps {
			d := lookup(b.owner, tok)
			if d == nil {
				return nil, errors.NewServiceError(provider.DescribeToken(b.token), "resolve",
					errors.ErrDependencyNotFound(b.owner.name, provider.DescribeToken(tok)))
			}
			b.deps[i] = d
			ids[i] = d.id
		}

		byID[b.id] = b
		graph.AddNode(b.id, ids)
	}

	sorted, err := graph.TopologicalSort()
	if err != nil {
		return nil, err
	}

	order := make([]*binding, len(sorted))
	for i, id := range sorted {
		order[i] = byID[id]
	}
	return order, nil
}

func (c *Container) instantiate(b *binding) error {
	args := make([]any, len(b.deps))
	for i, d := range b.deps {
		args[i] = d.instance
	}

	var (
		instance any
		err      error
	)
	switch b.provider.Kind() {
	case provider.KindClass:
		instance, err = provider.Call(b.provider.UseClass, args)
	case provider.KindFactory:
		instance, err = provider.Call(b.provider.UseFactory, args)
	case provider.KindExisting:
		instance = args[0]
	default:
		instance = b.provider.UseValue
	}
	if err != nil {
		return errors.NewServiceError(provider.DescribeToken(b.token), "instantiate", err)
	}

	b.instance = instance
	b.built = true
	return nil
}

// Get returns the instance for token as seen from the root module. Tokens
// not visible from the root fall back to the first module that provides
// them.
func (c *Container) Get(token provider.Token) (any, error) {
	if err := provider.ValidateToken(token); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.ready {
		return nil, errors.ErrNotCompiled
	}
	if b := lookup(c.root, token); b != nil {
		return b.instance, nil
	}
	for _, m := range c.modules {
		if b, ok := m.providers[token]; ok {
			return b.instance, nil
		}
	}
	return nil, errors.ErrServiceNotFound(provider.DescribeToken(token))
}

// GetFrom returns the instance for token strictly within mod's scope.
func (c *Container) GetFrom(mod *Module, token provider.Token) (any, error) {
	if err := provider.ValidateToken(token); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.ready {
		return nil, errors.ErrNotCompiled
	}
	inst, ok := c.byRef[mod]
	if !ok {
		return nil, errors.ErrServiceNotFound(provider.DescribeToken(token))
	}
	if b := lookup(inst, token); b != nil {
		return b.instance, nil
	}
	return nil, errors.ErrDependencyNotFound(inst.name, provider.DescribeToken(token))
}

// Has reports whether token can be resolved with Get.
func (c *Container) Has(token provider.Token) bool {
	_, err := c.Get(token)
	return err == nil
}

// Modules returns module names in scan order.
func (c *Container) Modules() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.modules))
	for i, m := range c.modules {
		names[i] = m.name
	}
	return names
}

// BindingInfo describes a registered provider.
type BindingInfo struct {
	Module       string
	Token        string
	Kind         string
	Dependencies []string
	Exported     bool
	Built        bool
}

// Inspect lists every binding in registration order.
func (c *Container) Inspect() []BindingInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]BindingInfo, 0, len(c.bindings))
	for _, b := range c.bindings {
		deps := make([]string, len(b.deps))
		for i, d := range b.deps {
			deps[i] = provider.DescribeToken(d.token)
		}
		infos = append(infos, BindingInfo{
			Module:       b.owner.name,
			Token:        provider.DescribeToken(b.token),
			Kind:         b.provider.Kind().String(),
			Dependencies: deps,
			Exported:     b.owner.exported[b.token],
			Built:        b.built,
		})
	}
	return infos
}
