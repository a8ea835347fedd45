package vesselbridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/vessel"

	"github.com/xraph/multi/internal/compose"
	"github.com/xraph/multi/internal/container"
	"github.com/xraph/multi/internal/provider"
)

func compiled(t *testing.T, tok provider.Token, values ...any) *container.Container {
	t.Helper()

	comp := compose.New()
	providers := make([]any, len(values))
	for i, v := range values {
		providers[i] = provider.Provider{Provide: tok, UseValue: v, Multi: true}
	}
	plugin := &container.Module{Name: "Plugin", Providers: providers}

	c := container.New(container.WithHook(comp))
	require.NoError(t, c.Compile(context.Background(), &container.Module{
		Name:    "App",
		Imports: []any{plugin, comp.Collect(tok)},
	}))
	return c
}

func TestPublish(t *testing.T) {
	tok := provider.NewToken("Value")
	c := compiled(t, tok, 1, 2, 3)

	v := vessel.New()
	require.NoError(t, Publish(v, c, map[string]provider.Token{"values": tok}))

	got, err := vessel.InjectNamed[[]any](v, "values")
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, got)
}

func TestPublishTyped(t *testing.T) {
	tok := provider.NewToken("Name")
	c := compiled(t, tok, "a", "b")

	v := vessel.New()
	require.NoError(t, PublishTyped[string](v, c, "names", tok))

	got, err := vessel.InjectNamed[[]string](v, "names")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestPublish_UnknownToken(t *testing.T) {
	c := compiled(t, provider.NewToken("Value"), 1)

	v := vessel.New()
	require.NoError(t, Publish(v, c, map[string]provider.Token{"missing": provider.NewToken("Other")}))

	_, err := vessel.InjectNamed[[]any](v, "missing")
	assert.Error(t, err)
}
