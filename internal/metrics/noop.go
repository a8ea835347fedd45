package metrics

import "time"

// NewNoOpMetrics creates a metrics recorder that discards everything.
// Useful for testing or when metrics are disabled.
func NewNoOpMetrics() Metrics {
	return noOpMetrics{}
}

type noOpMetrics struct{}

func (noOpMetrics) ContributionDeclared(string)   {}
func (noOpMetrics) CollectionBuilt(string, int)   {}
func (noOpMetrics) ModuleScanned()                {}
func (noOpMetrics) ProvidersInstantiated(int)     {}
func (noOpMetrics) ObserveFinalize(time.Duration) {}
