package http

import (
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/monitoring"
)

// HandlerMetrics times studio operations behind the HTTP handlers.
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper. A nil metrics records nothing.
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// Track starts timing operation; call the returned func with its result.
func (hm *HandlerMetrics) Track(operation string) func(err error) {
	if hm == nil || hm.metrics == nil {
		return func(error) {}
	}
	return monitoring.NewTimer(hm.metrics, "studio", operation).Done
}
