package multi

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/multi/errors"
	"github.com/xraph/multi/internal/container"
	"github.com/xraph/multi/logger"
)

// LifecyclePhase names a point in App.Start at which hooks run.
type LifecyclePhase string

const (
	// PhaseBeforeCompile runs before the module tree is scanned.
	PhaseBeforeCompile LifecyclePhase = "before_compile"

	// PhaseAfterFinalize runs once the static scan is over and every
	// requested collection has been built, before deferred imports are
	// resolved and before anything is instantiated. Hooks in this phase
	// run while the container is compiling and must not call it.
	PhaseAfterFinalize LifecyclePhase = "after_finalize"

	// PhaseAfterStart runs after every provider has been instantiated.
	PhaseAfterStart LifecyclePhase = "after_start"
)

// LifecycleHook is a function called during a lifecycle phase.
type LifecycleHook func(ctx context.Context, app *App) error

// LifecycleHookOptions configures a lifecycle hook.
type LifecycleHookOptions struct {
	// Name identifies the hook within its phase.
	Name string

	// Priority determines execution order (higher runs first).
	Priority int

	// ContinueOnError lets later hooks run when this one fails. The first
	// error is still returned.
	ContinueOnError bool
}

// DefaultLifecycleHookOptions returns default hook options.
func DefaultLifecycleHookOptions(name string) LifecycleHookOptions {
	return LifecycleHookOptions{Name: name}
}

type lifecycleHookEntry struct {
	hook LifecycleHook
	opts LifecycleHookOptions
}

type lifecycleManager struct {
	mu     sync.RWMutex
	hooks  map[LifecyclePhase][]lifecycleHookEntry
	logger Logger
}

func newLifecycleManager(log Logger) *lifecycleManager {
	if log == nil {
		log = logger.NewNoopLogger()
	}

	return &lifecycleManager{
		hooks:  make(map[LifecyclePhase][]lifecycleHookEntry),
		logger: log,
	}
}

func (m *lifecycleManager) register(phase LifecyclePhase, hook LifecycleHook, opts LifecycleHookOptions) error {
	if hook == nil {
		return errors.ErrValidationError("hook", errors.New("hook cannot be nil"))
	}

	if opts.Name == "" {
		return errors.ErrValidationError("hook", errors.New("hook name is required"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, entry := range m.hooks[phase] {
		if entry.opts.Name == opts.Name {
			return errors.ErrServiceAlreadyExists(fmt.Sprintf("%s/%s", phase, opts.Name))
		}
	}

	hooks := append(m.hooks[phase], lifecycleHookEntry{hook: hook, opts: opts})
	// Equal priorities keep registration order.
	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].opts.Priority > hooks[j].opts.Priority
	})
	m.hooks[phase] = hooks

	m.logger.Debug("lifecycle hook registered",
		logger.String("phase", string(phase)),
		logger.String("name", opts.Name),
		logger.Int("priority", opts.Priority),
	)

	return nil
}

func (m *lifecycleManager) remove(phase LifecyclePhase, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hooks := m.hooks[phase]
	for i, entry := range hooks {
		if entry.opts.Name == name {
			m.hooks[phase] = append(hooks[:i:i], hooks[i+1:]...)
			return nil
		}
	}

	return errors.ErrServiceNotFound(fmt.Sprintf("%s/%s", phase, name))
}

func (m *lifecycleManager) list(phase LifecyclePhase) []LifecycleHookOptions {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]LifecycleHookOptions, len(m.hooks[phase]))
	for i, entry := range m.hooks[phase] {
		out[i] = entry.opts
	}

	return out
}

func (m *lifecycleManager) execute(ctx context.Context, phase LifecyclePhase, app *App) error {
	m.mu.RLock()
	hooks := append([]lifecycleHookEntry(nil), m.hooks[phase]...)
	m.mu.RUnlock()

	if len(hooks) == 0 {
		return nil
	}

	var firstErr error

	executed := 0
	for _, entry := range hooks {
		if err := entry.hook(ctx, app); err != nil {
			m.logger.Error("lifecycle hook failed",
				logger.String("phase", string(phase)),
				logger.String("name", entry.opts.Name),
				logger.Error(err),
			)

			if firstErr == nil {
				firstErr = errors.NewServiceError(entry.opts.Name, string(phase), err)
			}

			if !entry.opts.ContinueOnError {
				m.logger.Warn("stopping hook execution due to error",
					logger.String("phase", string(phase)),
					logger.String("failed_hook", entry.opts.Name),
					logger.Int("remaining", len(hooks)-executed-1),
				)

				return firstErr
			}

			continue
		}

		executed++
	}

	m.logger.Debug("lifecycle hooks completed",
		logger.String("phase", string(phase)),
		logger.Int("executed", executed),
		logger.Int("total", len(hooks)),
	)

	return firstErr
}

// finalizeHook runs PhaseAfterFinalize hooks at the end of the static scan.
// It is installed after the composition so the collections are already
// built when it runs.
type finalizeHook struct {
	app *App
}

var (
	_ container.Hook      = (*finalizeHook)(nil)
	_ container.PhaseHook = (*finalizeHook)(nil)
)

func (h *finalizeHook) TransformModule(_ *Module, md Metadata) (Metadata, error) {
	return md, nil
}

func (h *finalizeHook) BeginScan(context.Context) error { return nil }

func (h *finalizeHook) EndScan(ctx context.Context) error {
	return h.app.lifecycle.execute(ctx, PhaseAfterFinalize, h.app)
}
