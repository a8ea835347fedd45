package container

import (
	"fmt"

	"github.com/xraph/multi/errors"
	"github.com/xraph/multi/internal/provider"
)

// Resolve with type safety
func Resolve[T any](c *Container, token provider.Token) (T, error) {
	var zero T
	instance, err := c.Get(token)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T, not %T",
			errors.ErrTypeMismatch, provider.DescribeToken(token), instance, zero)
	}
	return typed, nil
}

// ResolveAll resolves an aggregated token and asserts every element to T.
func ResolveAll[T any](c *Container, token provider.Token) ([]T, error) {
	items, err := Resolve[[]any](c, token)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(items))
	for i, item := range items {
		typed, ok := item.(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("%w: element %d of %s is %T, not %T",
				errors.ErrTypeMismatch, i, provider.DescribeToken(token), item, zero)
		}
		out[i] = typed
	}
	return out, nil
}

// Must resolves or panics - use only during startup
func Must[T any](c *Container, token provider.Token) T {
	instance, err := Resolve[T](c, token)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", provider.DescribeToken(token), err))
	}
	return instance
}
