package container

import (
	"context"
)

// Module is a unit of composition. Its pointer is its identity: a module
// imported from several places is instantiated once.
//
// Imports may hold *Module, ForwardRef, *DynamicModule or DeferredImport
// values. Exports may hold tokens or modules (re-exporting everything the
// named import exports).
type Module struct {
	Name      string
	Imports   []any
	Providers []any
	Exports   []any
}

// Metadata returns a copy of the module's declared metadata.
func (m *Module) Metadata() Metadata {
	return Metadata{
		Imports:   append([]any(nil), m.Imports...),
		Providers: append([]any(nil), m.Providers...),
		Exports:   append([]any(nil), m.Exports...),
	}
}

// Metadata is the declared shape of a module.
type Metadata struct {
	Imports   []any
	Providers []any
	Exports   []any
}

// ForwardRef lazily names a module that may not be fully defined yet.
type ForwardRef struct {
	resolve func() *Module
}

// Forward creates a forward reference.
func Forward(fn func() *Module) ForwardRef {
	return ForwardRef{resolve: fn}
}

// Module resolves the reference. A zero ForwardRef resolves to nil.
func (r ForwardRef) Module() *Module {
	if r.resolve == nil {
		return nil
	}
	return r.resolve()
}

// DynamicModule is a module whose shape is computed at runtime. Its fields
// extend the static metadata of Module.
type DynamicModule struct {
	Module    *Module
	Imports   []any
	Providers []any
	Exports   []any
}

// DeferredImport is an import that can only be resolved once the static
// scan of the composition is complete.
type DeferredImport interface {
	ResolveImport(ctx context.Context) (any, error)
}

// Hook rewrites module metadata before the module's providers are
// registered. It is called once per module instance, after the module's
// static imports have been scanned. Imports in the returned metadata are
// not scanned again.
type Hook interface {
	TransformModule(ref *Module, md Metadata) (Metadata, error)
}

// PhaseHook is optionally implemented by hooks that need to observe the
// boundary between the static scan and the resolution of deferred imports.
type PhaseHook interface {
	BeginScan(ctx context.Context) error
	EndScan(ctx context.Context) error
}
