// Package vesselbridge publishes aggregated tokens of a compiled container
// into a vessel container, so services wired with vessel can consume them.
package vesselbridge

import (
	"sort"

	"github.com/xraph/vessel"

	"github.com/xraph/multi/internal/container"
	"github.com/xraph/multi/internal/provider"
)

// Publish registers the aggregated value of every token in names as a named
// singleton []any in v. Names are registered in sorted order.
func Publish(v vessel.Vessel, c *container.Container, names map[string]provider.Token) error {
	keys := make([]string, 0, len(names))
	for name := range names {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	for _, name := range keys {
		token := names[name]
		if err := vessel.ProvideNamed(v, name, func() ([]any, error) {
			return container.Resolve[[]any](c, token)
		}, vessel.AsSingleton()); err != nil {
			return err
		}
	}
	return nil
}

// PublishTyped registers the aggregation of token as a named singleton []T.
func PublishTyped[T any](v vessel.Vessel, c *container.Container, name string, token provider.Token) error {
	return vessel.ProvideNamed(v, name, func() ([]T, error) {
		return container.ResolveAll[T](c, token)
	}, vessel.AsSingleton())
}
