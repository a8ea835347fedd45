package compose

import (
	"fmt"

	"github.com/xraph/multi/errors"
	"github.com/xraph/multi/internal/container"
	"github.com/xraph/multi/internal/provider"
	"github.com/xraph/multi/internal/registry"
	"github.com/xraph/multi/logger"
)

// Normalize records raw as a contribution to its token, keyed under a fresh
// private key. It returns nil for standalone contributions and the keyed
// provider for the rest, which must stay declared in owner.
func (c *Composition) Normalize(raw any, owner *container.Module) (*provider.Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.normalize(raw, owner)
}

func (c *Composition) normalize(raw any, owner *container.Module) (*provider.Provider, error) {
	if c.state != StateDeclaring {
		return nil, errors.ErrCompositionState("declare", c.state.String())
	}

	contrib, err := c.prepare(raw, owner)
	if err != nil {
		return nil, err
	}
	return c.commit(contrib, owner)
}

// contribution is a validated multi entry that has not been registered yet.
type contribution struct {
	p          *provider.Provider
	desc       string
	standalone bool
}

func (c *Composition) prepare(raw any, owner *container.Module) (contribution, error) {
	p, err := provider.From(raw)
	if err != nil {
		return contribution{}, err
	}
	if err := p.Validate(); err != nil {
		return contribution{}, err
	}

	desc := provider.Describe(raw)
	standalone := p.IsStandalone()
	if !standalone && owner == nil {
		return contribution{}, errors.ErrInvalidProvider(desc, fmt.Errorf("standalone=false contribution without an owner module"))
	}
	return contribution{p: p, desc: desc, standalone: standalone}, nil
}

func (c *Composition) commit(contrib contribution, owner *container.Module) (*provider.Provider, error) {
	p := contrib.p
	key := provider.NewKey(c.config.KeyPrefix, p.Provide, contrib.desc, c.config.DescribeLimit)
	normalized := p.WithToken(key)

	rec := registry.Record{
		Key:        key,
		Token:      p.Provide,
		Owner:      container.Forward(func() *container.Module { return owner }),
		Provider:   normalized,
		Standalone: contrib.standalone,
	}
	if err := c.registry.Register(rec); err != nil {
		return nil, err
	}

	c.metrics.ContributionDeclared(provider.DescribeToken(p.Provide))
	c.logger.Debug("contribution declared",
		logger.String("token", provider.DescribeToken(p.Provide)),
		logger.Stringer("key", key),
		logger.String("module", moduleName(owner)),
		logger.Bool("standalone", contrib.standalone),
	)

	if contrib.standalone {
		return nil, nil
	}
	return normalized, nil
}

func moduleName(m *container.Module) string {
	if m == nil {
		return "<none>"
	}
	return m.Name
}
