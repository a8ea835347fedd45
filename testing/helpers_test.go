package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xraph/multi"
)

func TestNewTestApp(t *testing.T) {
	app := NewTestApp("test")
	assert.Equal(t, "test", app.Name())
	assert.Equal(t, multi.StateIdle, app.Composition().State())
}

func TestNewTestAppWithLogger(t *testing.T) {
	log, logs := NewObservedLogger(zapcore.InfoLevel)
	app := NewTestAppWithLogger("observed", log)

	tok := multi.NewToken("Value")
	root := &multi.Module{Name: "App", Imports: []any{app.Collect(tok)}}
	StartApp(t, app, root)

	got, err := multi.ResolveAll[int](app.Container(), tok)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Equal(t, 1, logs.FilterMessage("composition finalized").Len())
	assert.Equal(t, 1, logs.FilterMessage("container compiled").Len())
}
