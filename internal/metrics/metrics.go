// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is the Prometheus-backed implementation used by the reconciler
// and the task handlers.
type Collector struct {
	membersResolved prometheus.Counter
	membersDeleted  *prometheus.CounterVec
	priorityUpdates *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		membersResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskspace_workspace_member_resolved_total",
			Help: "Workspace members whose user_id was resolved from user_email",
		}),
		membersDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskspace_workspace_member_deleted_total",
			Help: "Workspace members deleted during reconciliation, by reason",
		}, []string{"reason"}),
		priorityUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskspace_task_priority_updates_total",
			Help: "Task priority selections, by priority and result",
		}, []string{"priority", "result"}),
	}

	reg.MustRegister(c.membersResolved, c.membersDeleted, c.priorityUpdates)

	return c
}

func (c *Collector) RecordMembersResolved(n int64) {
	c.membersResolved.Add(float64(n))
}

func (c *Collector) RecordMembersDeleted(reason string, n int64) {
	c.membersDeleted.WithLabelValues(reason).Add(float64(n))
}

// RecordPriorityUpdate counts one selection attempt.
func (c *Collector) RecordPriorityUpdate(priority string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.priorityUpdates.WithLabelValues(priority, result).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
