// Package metrics counts session transitions, route resolutions and
// sign-out outcomes for Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements session.TransitionRecorder and
// session.SignOutRecorder, and counts route outcomes for the shell.
type Collector struct {
	transitions *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	signOuts    *prometheus.CounterVec
	live        prometheus.Gauge
}

// NewCollector registers the application metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ideacrowd_session_transitions_total",
			Help: "Session state changes by resulting state.",
		}, []string{"state"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ideacrowd_route_resolutions_total",
			Help: "Route resolutions by outcome.",
		}, []string{"outcome"}),
		signOuts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ideacrowd_signouts_total",
			Help: "Sign-out attempts by result.",
		}, []string{"result"}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ideacrowd_session_authenticated",
			Help: "1 while a session is live.",
		}),
	}
	reg.MustRegister(c.transitions, c.resolutions, c.signOuts, c.live)
	return c
}

func (c *Collector) RecordSessionTransition(state string) {
	c.transitions.WithLabelValues(state).Inc()
	if state == "authenticated" {
		c.live.Set(1)
	} else {
		c.live.Set(0)
	}
}

func (c *Collector) RecordSignOut(ok bool) {
	result := "ok"
	if !ok {
		result = "rejected"
	}
	c.signOuts.WithLabelValues(result).Inc()
}

// RecordResolution takes "render", "redirect" or "not_found".
func (c *Collector) RecordResolution(outcome string) {
	c.resolutions.WithLabelValues(outcome).Inc()
}
