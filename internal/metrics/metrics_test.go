package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionTransition("authenticated")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.live))
	c.RecordSessionTransition("unauthenticated")
	c.RecordSessionTransition("unauthenticated")
	c.RecordSignOut(true)
	c.RecordSignOut(false)
	c.RecordSignOut(false)
	c.RecordResolution("redirect")

	assert.Equal(t, 0.0, testutil.ToFloat64(c.live))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("authenticated")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.transitions.WithLabelValues("unauthenticated")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.signOuts.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.resolutions.WithLabelValues("redirect")))
}

func TestCollectorRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) })
}
