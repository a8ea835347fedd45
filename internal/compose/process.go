package compose

import (
	"github.com/xraph/multi/errors"
	"github.com/xraph/multi/internal/container"
	"github.com/xraph/multi/internal/provider"
)

// ProcessProviders routes every multi-marked entry of providers through the
// normalizer and validates what is left. kept is the rewritten list;
// replacements are the keyed providers that stayed in it. Nothing is
// registered unless every entry is valid.
func (c *Composition) ProcessProviders(owner *container.Module, providers []any) (kept []any, replacements []*provider.Provider, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processProviders(owner, providers)
}

func (c *Composition) processProviders(owner *container.Module, providers []any) ([]any, []*provider.Provider, error) {
	if c.state != StateDeclaring {
		for _, raw := range providers {
			if provider.IsMulti(raw) {
				return nil, nil, errors.ErrCompositionState("declare", c.state.String())
			}
		}
	}

	contribs := make(map[int]contribution)
	multi := make(map[provider.Token]bool)
	for i, raw := range providers {
		if !provider.IsMulti(raw) {
			continue
		}
		contrib, err := c.prepare(raw, owner)
		if err != nil {
			return nil, nil, err
		}
		contribs[i] = contrib
		multi[contrib.p.Provide] = true
	}

	var plain []plainProvider
	for _, raw := range providers {
		if provider.IsMulti(raw) {
			continue
		}
		token, err := provider.TokenOf(raw)
		if err != nil {
			return nil, nil, err
		}
		desc := provider.Describe(raw)
		if multi[token] || c.registry.Has(token) {
			return nil, nil, errors.ErrMissingMulti(desc).WithContext("module", moduleName(owner))
		}
		plain = append(plain, plainProvider{token: token, desc: desc, module: moduleName(owner)})
	}

	kept := make([]any, 0, len(providers))
	var replacements []*provider.Provider
	for i, raw := range providers {
		contrib, ok := contribs[i]
		if !ok {
			kept = append(kept, raw)
			continue
		}
		rep, err := c.commit(contrib, owner)
		if err != nil {
			return nil, nil, err
		}
		if rep != nil {
			kept = append(kept, rep)
			replacements = append(replacements, rep)
		}
	}

	if c.state == StateDeclaring {
		c.plain = append(c.plain, plain...)
	}
	return kept, replacements, nil
}

// ProcessModule rewrites a module's metadata: multi-contributions are moved
// into the registry and the keys of the ones that stay are exported. A
// module is processed once; later calls return the first result.
func (c *Composition) ProcessModule(owner *container.Module, md container.Metadata) (container.Metadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processModule(owner, md)
}

func (c *Composition) processModule(owner *container.Module, md container.Metadata) (container.Metadata, error) {
	if out, ok := c.declared[owner]; ok {
		return copyMetadata(out), nil
	}

	kept, replacements, err := c.processProviders(owner, md.Providers)
	if err != nil {
		return container.Metadata{}, err
	}

	out := container.Metadata{
		Imports:   append([]any(nil), md.Imports...),
		Providers: kept,
		Exports:   append([]any(nil), md.Exports...),
	}
	for _, rep := range replacements {
		out.Exports = append(out.Exports, rep.Provide)
	}

	if owner != nil {
		c.declared[owner] = out
	}
	return copyMetadata(out), nil
}

// Declare processes m's own metadata in place.
func (c *Composition) Declare(m *container.Module) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	md, err := c.processModule(m, m.Metadata())
	if err != nil {
		return err
	}
	m.Imports = md.Imports
	m.Providers = md.Providers
	m.Exports = md.Exports
	return nil
}

func copyMetadata(md container.Metadata) container.Metadata {
	return container.Metadata{
		Imports:   append([]any(nil), md.Imports...),
		Providers: append([]any(nil), md.Providers...),
		Exports:   append([]any(nil), md.Exports...),
	}
}
