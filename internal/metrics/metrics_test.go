package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "booking_test")

	m.Bookings.WithLabelValues("success").Inc()
	m.Bookings.WithLabelValues("slot_conflict").Add(2)
	m.Transitions.WithLabelValues("cancelled", "success").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Bookings.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Bookings.WithLabelValues("slot_conflict")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	// A second registry must accept the same collector names.
	assert.NotPanics(t, func() { New(prometheus.NewRegistry(), "booking_test") })
}
