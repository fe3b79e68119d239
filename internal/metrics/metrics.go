// Package metrics counts recomputes and settlement runs in a private
// Prometheus registry that can be dumped in the textfile exposition format.
package metrics

import (
	"errors"
	"time"

	"github.com/alexanderramin/budgetree/internal/allocation"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "budgetree"

type Recorder struct {
	registry *prometheus.Registry

	recomputes       *prometheus.CounterVec
	recomputeSeconds prometheus.Histogram
	treeNodes        prometheus.Gauge
	settlements      *prometheus.CounterVec
	outstanding      *prometheus.GaugeVec
	residuals        *prometheus.CounterVec
	linkRejections   prometheus.Counter
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recompute_total",
			Help:      "Budget recomputes by result.",
		}, []string{"result"}),
		recomputeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Time spent building and rolling up a budget.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		treeNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_nodes",
			Help:      "Nodes in the most recently built budget tree.",
		}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_runs_total",
			Help:      "FIFO settlement runs by direction.",
		}, []string{"direction"}),
		outstanding: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outstanding_amount",
			Help:      "Outstanding invoice total after the last settlement run.",
		}, []string{"direction"}),
		residuals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overpayment_residuals_total",
			Help:      "Payments that left an unallocated residual.",
		}, []string{"direction"}),
		linkRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_rejections_total",
			Help:      "Need-request links refused for exceeding the requested quantity.",
		}),
	}
	r.registry.MustRegister(
		r.recomputes, r.recomputeSeconds, r.treeNodes,
		r.settlements, r.outstanding, r.residuals, r.linkRejections,
	)
	return r
}

func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// ObserveRecompute records one recompute attempt. Validation failures are
// labelled separately from other errors.
func (r *Recorder) ObserveRecompute(d time.Duration, nodes int, err error) {
	result := "ok"
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		result = "invalid"
	case err != nil:
		result = "error"
	}
	r.recomputes.WithLabelValues(result).Inc()
	r.recomputeSeconds.Observe(d.Seconds())
	if err == nil {
		r.treeNodes.Set(float64(nodes))
	}
}

func (r *Recorder) ObserveSettlement(dir domain.Direction, results []*allocation.Result) {
	r.settlements.WithLabelValues(string(dir)).Inc()
	total := 0.0
	for _, res := range results {
		total += res.TotalOutstanding.InexactFloat64()
		r.residuals.WithLabelValues(string(dir)).Add(float64(len(res.Residuals)))
	}
	r.outstanding.WithLabelValues(string(dir)).Set(total)
}

func (r *Recorder) ObserveLinkRejected() {
	r.linkRejections.Inc()
}

// WriteTextfile writes every metric to path for a node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
