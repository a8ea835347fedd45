package compose

import (
	"context"

	"github.com/xraph/multi/errors"
	"github.com/xraph/multi/internal/container"
	"github.com/xraph/multi/internal/provider"
	"github.com/xraph/multi/internal/registry"
	"github.com/xraph/multi/logger"
)

// Collection is the pending aggregation of one token. It completes when
// the composition is finalized and can be imported by a module before
// then, as a container.DeferredImport.
type Collection struct {
	token  provider.Token
	done   chan struct{}
	module *container.DynamicModule
	err    error
}

func newCollection(token provider.Token) *Collection {
	return &Collection{token: token, done: make(chan struct{})}
}

// Token returns the aggregated token.
func (col *Collection) Token() provider.Token {
	return col.token
}

// Done is closed once the collection is built or has failed.
func (col *Collection) Done() <-chan struct{} {
	return col.done
}

// Module returns the aggregation module. Before finalization it fails with
// NOT_FINALIZED.
func (col *Collection) Module() (*container.DynamicModule, error) {
	select {
	case <-col.done:
		return col.module, col.err
	default:
		return nil, errors.ErrNotFinalized(provider.DescribeToken(col.token))
	}
}

// Wait blocks until the collection is built or ctx is done.
func (col *Collection) Wait(ctx context.Context) (*container.DynamicModule, error) {
	select {
	case <-col.done:
		return col.module, col.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ResolveImport implements container.DeferredImport.
func (col *Collection) ResolveImport(ctx context.Context) (any, error) {
	mod, err := col.Module()
	if err != nil {
		return nil, err
	}
	return mod, nil
}

func (col *Collection) complete(mod *container.DynamicModule, err error) {
	select {
	case <-col.done:
		return
	default:
	}
	col.module = mod
	col.err = err
	close(col.done)
}

// Collect requests the aggregation of token. Collecting the same token
// twice returns the same collection. After finalization the collection is
// built immediately.
func (c *Composition) Collect(token provider.Token) *Collection {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := provider.ValidateToken(token); err != nil {
		col := newCollection(nil)
		col.complete(nil, err)
		return col
	}

	if col, ok := c.byToken[token]; ok {
		return col
	}

	col := newCollection(token)
	c.byToken[token] = col
	c.collections = append(c.collections, col)

	if c.state == StateFinalized {
		c.build(col)
	}
	return col
}

func (c *Composition) build(col *Collection) {
	records := c.registry.List(col.token)
	mod := BuildAggregation(col.token, records)

	c.metrics.CollectionBuilt(provider.DescribeToken(col.token), len(records))
	c.logger.Debug("collection built",
		logger.String("token", provider.DescribeToken(col.token)),
		logger.String("module", mod.Module.Name),
		logger.Int("contributions", len(records)),
		logger.Int("imports", len(mod.Imports)),
	)

	col.complete(mod, nil)
}

// BuildAggregation builds the module exposing token as the ordered
// sequence of its contributions. Standalone contributions are provided by
// the module itself; the others are reached by importing their owner.
func BuildAggregation(token provider.Token, records []registry.Record) *container.DynamicModule {
	mod := &container.Module{
		Name:    "CollectionModule(" + provider.DescribeToken(token) + ")",
		Exports: []any{token},
	}

	providers := make([]any, 0, len(records)+1)
	imports := make([]any, 0)
	inject := make([]provider.Token, len(records))

	for i, rec := range records {
		inject[i] = rec.Key
		if rec.Replacement() != nil {
			imports = append(imports, rec.Owner)
			continue
		}
		providers = append(providers, rec.Provider)
	}

	providers = append(providers, &provider.Provider{
		Provide:    token,
		UseFactory: aggregate,
		Inject:     inject,
	})

	return &container.DynamicModule{
		Module:    mod,
		Imports:   imports,
		Providers: providers,
	}
}

func aggregate(values ...any) []any {
	out := make([]any, len(values))
	copy(out, values)
	return out
}
