package container

import (
	"github.com/xraph/multi/internal/provider"
)

// moduleInstance is a scanned module and its providers.
type moduleInstance struct {
	ref  *Module
	name string

	// imports keeps declaration order; deferred imports hold nil until
	// they are resolved.
	imports   []*moduleInstance
	providers map[provider.Token]*binding
	order     []*binding

	exports   []any
	exported  map[provider.Token]bool
	reexports []*moduleInstance
}

func newModuleInstance(ref *Module, name string) *moduleInstance {
	return &moduleInstance{
		ref:       ref,
		name:      name,
		providers: make(map[provider.Token]*binding),
		exported:  make(map[provider.Token]bool),
	}
}

// binding is a provider registered in a module.
type binding struct {
	id       string
	token    provider.Token
	provider *provider.Provider
	owner    *moduleInstance
	deps     []*binding
	instance any
	built    bool
}

// lookup resolves token in the scope of m: its own providers first, then
// whatever its imports export, in import order.
func lookup(m *moduleInstance, token provider.Token) *binding {
	if b, ok := m.providers[token]; ok {
		return b
	}
	seen := make(map[*moduleInstance]bool)
	for _, imp := range m.imports {
		if imp == nil {
			continue
		}
		if b := imp.exportedBinding(token, seen); b != nil {
			return b
		}
	}
	return nil
}

// exportedBinding returns the binding m makes visible to importers.
func (m *moduleInstance) exportedBinding(token provider.Token, seen map[*moduleInstance]bool) *binding {
	if seen[m] {
		return nil
	}
	seen[m] = true

	if m.exported[token] {
		if b, ok := m.providers[token]; ok {
			return b
		}
		for _, imp := range m.imports {
			if imp == nil {
				continue
			}
			if b := imp.exportedBinding(token, seen); b != nil {
				return b
			}
		}
	}

	for _, re := range m.reexports {
		if b := re.exportedBinding(token, seen); b != nil {
			return b
		}
	}
	return nil
}

func (m *moduleInstance) imported(other *moduleInstance) bool {
	for _, imp := range m.imports {
		if imp == other {
			return true
		}
	}
	return false
}
