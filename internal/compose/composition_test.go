package compose

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xraph/multi/config"
	"github.com/xraph/multi/errors"
	"github.com/xraph/multi/internal/container"
	"github.com/xraph/multi/internal/provider"
	"github.com/xraph/multi/internal/registry"
	"github.com/xraph/multi/logger"
)

func multiValue(token provider.Token, v any) provider.Provider {
	return provider.Provider{Provide: token, UseValue: v, Multi: true}
}

func begun(t *testing.T, opts ...Option) *Composition {
	t.Helper()
	c := New(opts...)
	require.NoError(t, c.Begin())
	return c
}

func TestComposition_Phases(t *testing.T) {
	c := New()
	assert.Equal(t, StateIdle, c.State())

	err := c.Finalize(context.Background())
	assert.True(t, errors.IsCompositionState(err))

	require.NoError(t, c.Begin())
	require.NoError(t, c.Begin())
	assert.Equal(t, StateDeclaring, c.State())

	require.NoError(t, c.Finalize(context.Background()))
	assert.Equal(t, StateFinalized, c.State())
	assert.True(t, c.Registry().Frozen())

	assert.True(t, errors.IsCompositionState(c.Begin()))
	assert.True(t, errors.IsCompositionState(c.Finalize(context.Background())))
}

func TestNormalize_RequiresDeclaring(t *testing.T) {
	tok := provider.NewToken("Value")
	owner := &container.Module{Name: "Plugin"}

	c := New()
	_, err := c.Normalize(multiValue(tok, 1), owner)
	assert.True(t, errors.IsCompositionState(err))

	require.NoError(t, c.Begin())
	require.NoError(t, c.Finalize(context.Background()))

	_, err = c.Normalize(multiValue(tok, 1), owner)
	assert.True(t, errors.IsCompositionState(err))
	assert.Equal(t, 0, c.Registry().Len())
}

func TestNormalize_Standalone(t *testing.T) {
	c := begun(t)
	tok := provider.NewToken("Value")
	owner := &container.Module{Name: "Plugin"}

	rep, err := c.Normalize(multiValue(tok, 1), owner)
	require.NoError(t, err)
	assert.Nil(t, rep)

	recs := c.Registry().List(tok)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.True(t, rec.Standalone)
	assert.Nil(t, rec.Replacement())
	assert.Same(t, owner, rec.Owner.Module())
	assert.Equal(t, provider.Token(rec.Key), rec.Provider.Provide)
	assert.Equal(t, 1, rec.Provider.UseValue)
	assert.Equal(t, "{provide: Symbol(Value), useValue: 1, multi: true}", rec.Key.Description)
}

func TestNormalize_NotStandalone(t *testing.T) {
	c := begun(t)
	tok := provider.NewToken("Value")
	owner := &container.Module{Name: "Plugin"}

	raw := provider.Provider{
		Provide:    tok,
		UseFactory: func(n int) int { return n + 1 },
		Inject:     []provider.Token{"Other"},
		Multi:      true,
		Standalone: provider.Bool(false),
	}
	rep, err := c.Normalize(raw, owner)
	require.NoError(t, err)
	require.NotNil(t, rep)

	rec := c.Registry().List(tok)[0]
	assert.False(t, rec.Standalone)
	assert.Same(t, rep, rec.Replacement())
	assert.Equal(t, provider.Token(rec.Key), rep.Provide)
	assert.Equal(t, []provider.Token{"Other"}, rep.Inject)
	assert.Equal(t, tok, raw.Provide)
}

func TestNormalize_NotStandaloneNeedsOwner(t *testing.T) {
	c := begun(t)
	raw := provider.Provider{Provide: "x", UseValue: 1, Multi: true, Standalone: provider.Bool(false)}

	_, err := c.Normalize(raw, nil)
	assert.True(t, errors.IsInvalidProvider(err))
}

func TestNormalize_DuplicatesGetDistinctKeys(t *testing.T) {
	c := begun(t)
	tok := provider.NewToken("Value")
	owner := &container.Module{Name: "Plugin"}
	raw := multiValue(tok, 1)

	_, err := c.Normalize(raw, owner)
	require.NoError(t, err)
	_, err = c.Normalize(raw, owner)
	require.NoError(t, err)

	recs := c.Registry().List(tok)
	require.Len(t, recs, 2)
	assert.NotSame(t, recs[0].Key, recs[1].Key)
	assert.Equal(t, recs[0].Key.Description, recs[1].Key.Description)
}

func TestNormalize_KeyConfig(t *testing.T) {
	c := begun(t, WithConfig(config.CompositionConfig{KeyPrefix: "plug", DescribeLimit: 10}))
	tok := provider.NewToken("Value")

	_, err := c.Normalize(multiValue(tok, 1), nil)
	require.NoError(t, err)

	key := c.Registry().List(tok)[0].Key
	assert.Equal(t, "{provide: ...", key.Description)
	assert.True(t, strings.HasPrefix(key.String(), "plug("))
}

func TestNormalize_InvalidProvider(t *testing.T) {
	c := begun(t)

	_, err := c.Normalize(provider.Provider{Provide: "x", UseValue: 1, UseClass: func() int { return 1 }, Multi: true}, nil)
	assert.True(t, errors.IsInvalidProvider(err))
	assert.Equal(t, 0, c.Registry().Len())
}

func TestProcessProviders(t *testing.T) {
	c := begun(t)
	tok := provider.NewToken("Value")
	owner := &container.Module{Name: "Plugin"}
	plain := provider.Provider{Provide: "Other", UseValue: 3}
	coupled := provider.Provider{
		Provide:    tok,
		UseFactory: func(n int) int { return n + 1 },
		Inject:     []provider.Token{"Other"},
		Multi:      true,
		Standalone: provider.Bool(false),
	}

	kept, reps, err := c.ProcessProviders(owner, []any{multiValue(tok, 1), plain, coupled, multiValue(tok, 2)})
	require.NoError(t, err)

	require.Len(t, kept, 2)
	assert.Equal(t, plain, kept[0])
	require.Len(t, reps, 1)
	assert.Same(t, reps[0], kept[1])
	assert.Len(t, c.Registry().List(tok), 3)
}

func TestProcessProviders_MissingMulti(t *testing.T) {
	c := begun(t)
	tok := provider.NewToken("Value")

	_, _, err := c.ProcessProviders(&container.Module{Name: "A"}, []any{multiValue(tok, 1)})
	require.NoError(t, err)

	_, _, err = c.ProcessProviders(&container.Module{Name: "B"}, []any{provider.Provider{Provide: tok, UseValue: 2}})
	require.Error(t, err)
	assert.True(t, errors.IsMissingMulti(err))
	assert.Contains(t, err.Error(), "{provide: Symbol(Value), useValue: 2}")

	var me *errors.MultiError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "B", me.Context["module"])
}

func TestProcessProviders_MissingMultiWithinModule(t *testing.T) {
	c := begun(t)
	tok := provider.NewToken("Value")

	_, _, err := c.ProcessProviders(&container.Module{Name: "A"}, []any{
		provider.Provider{Provide: tok, UseValue: 0},
		multiValue(tok, 1),
	})
	assert.True(t, errors.IsMissingMulti(err))
}

func TestProcessProviders_FailureRegistersNothing(t *testing.T) {
	c := begun(t, WithConfig(config.CompositionConfig{Strict: true}))
	tok := provider.NewToken("Value")
	owner := &container.Module{Name: "A"}

	_, _, err := c.ProcessProviders(owner, []any{
		multiValue(tok, 1),
		provider.Provider{Provide: tok, UseValue: 2},
	})
	assert.True(t, errors.IsMissingMulti(err))
	assert.Equal(t, 0, c.Registry().Len())

	_, _, err = c.ProcessProviders(owner, []any{
		provider.Provider{Provide: "Other", UseValue: 0},
		multiValue(tok, 1),
		provider.Provider{Provide: tok, UseValue: 2, UseClass: newTransformer, Multi: true},
	})
	assert.True(t, errors.IsInvalidProvider(err))
	assert.Equal(t, 0, c.Registry().Len())

	_, _, err = c.ProcessProviders(owner, []any{multiValue(tok, 1), multiValue(tok, 2)})
	require.NoError(t, err)
	assert.Len(t, c.Registry().List(tok), 2)

	// "Other" was only seen by a failed call, so strict mode has nothing to report.
	_, _, err = c.ProcessProviders(&container.Module{Name: "B"}, []any{multiValue("Other", 1)})
	require.NoError(t, err)
	require.NoError(t, c.Finalize(context.Background()))
}

func TestProcessProviders_InvalidToken(t *testing.T) {
	c := begun(t)
	owner := &container.Module{Name: "A"}

	assert.NotPanics(t, func() {
		_, _, err := c.ProcessProviders(owner, []any{provider.Provider{Provide: []string{"x"}, UseValue: 1}})
		assert.ErrorIs(t, err, errors.ErrInvalidTokenSentinel)
	})
	assert.NotPanics(t, func() {
		_, _, err := c.ProcessProviders(owner, []any{provider.Provider{Provide: []string{"x"}, UseValue: 1, Multi: true}})
		assert.ErrorIs(t, err, errors.ErrInvalidTokenSentinel)
	})
	assert.Equal(t, 0, c.Registry().Len())
}

func TestProcessModule_ExportsReplacementsOnce(t *testing.T) {
	c := begun(t)
	tok := provider.NewToken("Value")
	owner := &container.Module{
		Name:    "Plugin",
		Exports: []any{"Other"},
		Providers: []any{
			provider.Provider{Provide: "Other", UseValue: 3},
			provider.Provider{Provide: tok, UseExisting: "Other", Multi: true, Standalone: provider.Bool(false)},
		},
	}

	md, err := c.ProcessModule(owner, owner.Metadata())
	require.NoError(t, err)

	key := c.Registry().List(tok)[0].Key
	assert.Equal(t, []any{"Other", provider.Token(key)}, md.Exports)
	assert.Len(t, md.Providers, 2)

	again, err := c.ProcessModule(owner, owner.Metadata())
	require.NoError(t, err)
	assert.Equal(t, md, again)
	assert.Equal(t, 1, c.Registry().Len())
}

func TestDeclare_InPlace(t *testing.T) {
	c := begun(t)
	tok := provider.NewToken("Value")
	m := &container.Module{Name: "Plugin", Providers: []any{multiValue(tok, 1), multiValue(tok, 2)}}

	require.NoError(t, c.Declare(m))
	assert.Empty(t, m.Providers)
	require.NoError(t, c.Declare(m))
	assert.Equal(t, 2, c.Registry().Len())
}

func TestComposition_StrictMode(t *testing.T) {
	tok := provider.NewToken("Value")
	declare := func(c *Composition) {
		_, _, err := c.ProcessProviders(&container.Module{Name: "A"}, []any{provider.Provider{Provide: tok, UseValue: 0}})
		require.NoError(t, err)
		_, _, err = c.ProcessProviders(&container.Module{Name: "B"}, []any{multiValue(tok, 1)})
		require.NoError(t, err)
	}

	lenient := begun(t)
	declare(lenient)
	require.NoError(t, lenient.Finalize(context.Background()))

	strict := begun(t, WithConfig(config.CompositionConfig{Strict: true}))
	declare(strict)
	err := strict.Finalize(context.Background())
	require.True(t, errors.IsMissingMulti(err))
	assert.Equal(t, StateDeclaring, strict.State())
	assert.False(t, strict.Registry().Frozen())
}

func TestComposition_Reset(t *testing.T) {
	c := begun(t)
	tok := provider.NewToken("Value")
	_, err := c.Normalize(multiValue(tok, 1), nil)
	require.NoError(t, err)
	pending := c.Collect(tok)

	c.Reset()

	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 0, c.Registry().Len())
	<-pending.Done()
	_, err = pending.Module()
	assert.True(t, errors.IsCompositionState(err))

	require.NoError(t, c.Begin())
	require.NoError(t, c.Finalize(context.Background()))
	mod, err := c.Collect(tok).Module()
	require.NoError(t, err)
	assert.Empty(t, mod.Imports)
	assert.Len(t, mod.Providers, 1)
}

func TestComposition_WithRegistry(t *testing.T) {
	reg := registry.New()
	c := begun(t, WithRegistry(reg))

	_, err := c.Normalize(multiValue("x", 1), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
}

func TestComposition_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := begun(t, WithLogger(logger.NewLoggerFromZap(zap.New(core))))
	tok := provider.NewToken("Value")

	_, err := c.Normalize(multiValue(tok, 1), &container.Module{Name: "Plugin"})
	require.NoError(t, err)
	require.NoError(t, c.Finalize(context.Background()))

	declared := logs.FilterMessage("contribution declared").All()
	require.Len(t, declared, 1)
	fields := declared[0].ContextMap()
	assert.Equal(t, "Symbol(Value)", fields["token"])
	assert.Equal(t, "Plugin", fields["module"])
	assert.Equal(t, true, fields["standalone"])

	finalized := logs.FilterMessage("composition finalized").All()
	require.Len(t, finalized, 1)
	assert.Equal(t, int64(1), finalized[0].ContextMap()["contributions"])
}

func TestComposition_Inspect(t *testing.T) {
	c := begun(t)
	value := provider.NewToken("Value")
	listener := provider.NewToken("Listener")
	owner := &container.Module{Name: "Plugin"}

	_, _, err := c.ProcessProviders(owner, []any{
		multiValue(value, 1),
		provider.Provider{Provide: listener, UseClass: func() int { return 0 }, Multi: true, Standalone: provider.Bool(false)},
		multiValue(value, 2),
	})
	require.NoError(t, err)

	summary := c.Inspect()
	require.Len(t, summary, 2)
	assert.Equal(t, "Symbol(Value)", summary[0].Token)
	require.Len(t, summary[0].Contributions, 2)
	assert.Equal(t, 0, summary[0].Contributions[0].Seq)
	assert.Equal(t, 2, summary[0].Contributions[1].Seq)
	assert.Equal(t, "Plugin", summary[0].Contributions[0].Owner)

	assert.Equal(t, "Symbol(Listener)", summary[1].Token)
	assert.Equal(t, "useClass", summary[1].Contributions[0].Kind)
	assert.False(t, summary[1].Contributions[0].Standalone)
}
