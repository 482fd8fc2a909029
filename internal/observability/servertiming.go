package observability

import (
	"context"

	servertiming "github.com/mitchellh/go-server-timing"
)

// TimingMetric is a running Server-Timing entry. The zero value is a no-op.
type TimingMetric struct {
	metric *servertiming.Metric
}

// Stop ends the timed operation.
func (m *TimingMetric) Stop() {
	if m != nil && m.metric != nil {
		m.metric.Stop()
	}
}

// StartTiming starts a Server-Timing entry when the request carries a
// timing header (installed by servertiming.Middleware).
func StartTiming(ctx context.Context, name, description string) *TimingMetric {
	timing := servertiming.FromContext(ctx)
	if timing == nil {
		return &TimingMetric{}
	}
	m := timing.NewMetric(name)
	if description != "" {
		m = m.WithDesc(description)
	}
	return &TimingMetric{metric: m.Start()}
}
