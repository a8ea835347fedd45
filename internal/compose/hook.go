package compose

import (
	"context"

	"github.com/xraph/multi/internal/container"
)

var (
	_ container.Hook           = (*Composition)(nil)
	_ container.PhaseHook      = (*Composition)(nil)
	_ container.DeferredImport = (*Collection)(nil)
)

// TransformModule implements container.Hook.
func (c *Composition) TransformModule(ref *container.Module, md container.Metadata) (container.Metadata, error) {
	return c.ProcessModule(ref, md)
}

// BeginScan opens the declare phase when the container starts scanning.
func (c *Composition) BeginScan(context.Context) error {
	return c.Begin()
}

// EndScan finalizes the composition once the static scan is complete.
func (c *Composition) EndScan(ctx context.Context) error {
	return c.Finalize(ctx)
}
