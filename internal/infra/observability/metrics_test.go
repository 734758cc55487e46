package observability_test

import (
	"testing"
	"time"

	"github.com/boddenberg/card-validation-bfa-go/internal/infra/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetValidationSnapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.ObserveValidation(observability.OutcomeValid, 10*time.Millisecond)
	m.ObserveValidation(observability.OutcomeValid, 10*time.Millisecond)
	m.ObserveValidation(observability.OutcomeInvalid, 10*time.Millisecond)
	m.ObserveValidation(observability.OutcomeClientError, time.Millisecond)
	m.ObserveValidation(observability.OutcomeGatewayError, time.Second)

	snap := m.GetValidationSnapshot()

	assert.EqualValues(t, 5, snap.TotalRequests)
	assert.EqualValues(t, 2, snap.ValidCards)
	assert.EqualValues(t, 1, snap.InvalidCards)
	assert.EqualValues(t, 1, snap.ClientErrors)
	assert.EqualValues(t, 1, snap.GatewayErrors)
	assert.InDelta(t, 0.2, snap.ErrorRate, 1e-9)
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := observability.NewMetrics()
	b := observability.NewMetrics()

	a.IncrDownstreamError("network")
	a.ObserveDownstream(502, time.Millisecond)
	a.SetBreakerState("marca", 2)

	assert.Equal(t, 1, countSeries(t, a.Registry, "card_validation_marca_errors_total"))
	assert.Equal(t, 0, countSeries(t, b.Registry, "card_validation_marca_errors_total"))
}

func countSeries(t *testing.T, reg *prometheus.Registry, name string) int {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return len(f.GetMetric())
		}
	}
	return 0
}
