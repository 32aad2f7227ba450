package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	inflightTasks = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "contest_status_inflight_tasks",
		Help: "Number of batch tasks currently executing by stage",
	}, []string{"stage"})

	tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contest_status_tasks_total",
		Help: "Total batch tasks by stage and outcome",
	}, []string{"stage", "outcome"}) // "ok", "error", "skipped"
)
