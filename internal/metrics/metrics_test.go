package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New("multi", reg)
	require.NoError(t, err)

	m.ContributionDeclared("Symbol(Value)")
	m.ContributionDeclared("Symbol(Value)")
	m.CollectionBuilt("Symbol(Value)", 4)
	m.ModuleScanned()
	m.ProvidersInstantiated(7)
	m.ObserveFinalize(5 * time.Millisecond)

	pm := m.(*prometheusMetrics)
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.contributions.WithLabelValues("Symbol(Value)")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.collections.WithLabelValues("Symbol(Value)")))
	assert.Equal(t, 4.0, testutil.ToFloat64(pm.collected.WithLabelValues("Symbol(Value)")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.modules))
	assert.Equal(t, 7.0, testutil.ToFloat64(pm.providers))

	expected := `
# HELP multi_modules_scanned_total Module instances scanned by the container.
# TYPE multi_modules_scanned_total counter
multi_modules_scanned_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "multi_modules_scanned_total"))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New("multi", reg)
	require.NoError(t, err)

	_, err = New("multi", reg)
	assert.Error(t, err)
}

func TestNew_NilRegisterer(t *testing.T) {
	m, err := New("multi", nil)
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestNoOpMetrics(t *testing.T) {
	m := NewNoOpMetrics()

	assert.NotPanics(t, func() {
		m.ContributionDeclared("x")
		m.CollectionBuilt("x", 1)
		m.ModuleScanned()
		m.ProvidersInstantiated(1)
		m.ObserveFinalize(time.Second)
	})
}
