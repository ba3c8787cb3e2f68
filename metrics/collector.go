package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type Collector interface {
	OperationBuilt()
	MiddlewareFailed(name string)
	AccountResolved()
	SettlementPollExecuted()
	OperationSettled(waited time.Duration)
	SettlementTimedOut()
	OperationsSettledByTracker(count int)
}

type DefaultCollector struct {
	operationsBuiltCounter    prometheus.Counter
	middlewareFailureCounters *prometheus.CounterVec
	accountsResolvedCounter   prometheus.Counter
	settlementPollsCounter    prometheus.Counter
	settlementWaits           prometheus.Histogram
	settlementTimeoutsCounter prometheus.Counter
	trackerSettlementsCounter prometheus.Counter
}

func NewCollector(logger zerolog.Logger) Collector {
	operationsBuilt := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "operations_built_total",
		Help: "Total number of user operations assembled and signed",
	})

	middlewareFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "middleware_failures_total",
		Help: "Total number of pipeline failures per middleware",
	}, []string{"middleware"})

	accountsResolved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accounts_resolved_total",
		Help: "Total number of counterfactual account resolutions",
	})

	settlementPolls := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_polls_total",
		Help: "Total number of settlement log scans",
	})

	settlementWaits := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_wait_seconds",
		Help:    "Time between submitting a wait and observing the settlement event",
		Buckets: prometheus.DefBuckets,
	})

	settlementTimeouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_timeouts_total",
		Help: "Total number of settlement waits that expired without an event",
	})

	trackerSettlements := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "operations_settled_by_tracker_total",
		Help: "Total number of pending operations the background tracker marked settled",
	})

	metrics := []prometheus.Collector{
		operationsBuilt,
		middlewareFailures,
		accountsResolved,
		settlementPolls,
		settlementWaits,
		settlementTimeouts,
		trackerSettlements,
	}
	if err := registerMetrics(logger, metrics...); err != nil {
		logger.Info().Msg("using nop collector as metric register failed")
		return NopCollector
	}

	return &DefaultCollector{
		operationsBuiltCounter:    operationsBuilt,
		middlewareFailureCounters: middlewareFailures,
		accountsResolvedCounter:   accountsResolved,
		settlementPollsCounter:    settlementPolls,
		settlementWaits:           settlementWaits,
		settlementTimeoutsCounter: settlementTimeouts,
		trackerSettlementsCounter: trackerSettlements,
	}
}

func registerMetrics(logger zerolog.Logger, metrics ...prometheus.Collector) error {
	for _, m := range metrics {
		if err := prometheus.Register(m); err != nil {
			logger.Err(err).Msg("failed to register metric")
			return err
		}
	}

	return nil
}

func (c *DefaultCollector) OperationBuilt() {
	c.operationsBuiltCounter.Inc()
}

func (c *DefaultCollector) MiddlewareFailed(name string) {
	c.middlewareFailureCounters.With(prometheus.Labels{"middleware": name}).Inc()
}

func (c *DefaultCollector) AccountResolved() {
	c.accountsResolvedCounter.Inc()
}

func (c *DefaultCollector) SettlementPollExecuted() {
	c.settlementPollsCounter.Inc()
}

func (c *DefaultCollector) OperationSettled(waited time.Duration) {
	c.settlementWaits.Observe(waited.Seconds())
}

func (c *DefaultCollector) SettlementTimedOut() {
	c.settlementTimeoutsCounter.Inc()
}

func (c *DefaultCollector) OperationsSettledByTracker(count int) {
	c.trackerSettlementsCounter.Add(float64(count))
}
