package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewAppMetrics(t *testing.T) {
	m, err := NewAppMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	assert.NotNil(t, m.TripSavesTotal)
	assert.NotNil(t, m.GeocodeDurationSeconds)
	assert.NotPanics(t, func() {
		m.ItemMovesTotal.Add(context.Background(), 1)
		m.ActiveSessions.Add(context.Background(), -1)
	})
}
