package multi

import (
	"reflect"

	"github.com/xraph/multi/config"
	"github.com/xraph/multi/internal/compose"
	"github.com/xraph/multi/internal/container"
	"github.com/xraph/multi/internal/provider"
	"github.com/xraph/multi/internal/registry"
	"github.com/xraph/multi/logger"
)

// Tokens and providers.
type (
	Token    = provider.Token
	Symbol   = provider.Symbol
	Key      = provider.Key
	Provider = provider.Provider
	Kind     = provider.Kind
)

const (
	KindValue    = provider.KindValue
	KindClass    = provider.KindClass
	KindFactory  = provider.KindFactory
	KindExisting = provider.KindExisting
)

var (
	NewToken = provider.NewToken
	Bool     = provider.Bool
	Describe = provider.Describe
)

// TypeOf returns the type token for T.
func TypeOf[T any]() reflect.Type {
	return provider.TypeOf[T]()
}

// Modules and the container.
type (
	Module         = container.Module
	Metadata       = container.Metadata
	ForwardRef     = container.ForwardRef
	DynamicModule  = container.DynamicModule
	DeferredImport = container.DeferredImport
	Hook           = container.Hook
	PhaseHook      = container.PhaseHook
	Container      = container.Container
	BindingInfo    = container.BindingInfo
)

var (
	Forward      = container.Forward
	NewContainer = container.New
	WithHook     = container.WithHook
)

// Resolve returns the instance of token asserted to T.
func Resolve[T any](c *Container, token Token) (T, error) {
	return container.Resolve[T](c, token)
}

// ResolveAll returns the aggregation of token with every element asserted to T.
func ResolveAll[T any](c *Container, token Token) ([]T, error) {
	return container.ResolveAll[T](c, token)
}

// Composition.
type (
	Composition         = compose.Composition
	Collection          = compose.Collection
	State               = compose.State
	TokenSummary        = compose.TokenSummary
	ContributionSummary = compose.ContributionSummary
	Record              = registry.Record
	Registry            = registry.Registry
)

const (
	StateIdle      = compose.StateIdle
	StateDeclaring = compose.StateDeclaring
	StateFinalized = compose.StateFinalized
)

var (
	NewComposition   = compose.New
	NewRegistry      = registry.New
	BuildAggregation = compose.BuildAggregation
)

// Ambient.
type (
	Config = config.Config
	Logger = logger.Logger
)
