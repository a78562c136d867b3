// Package collectors provides prometheus collectors for evaluator statistics.
package collectors

import (
	"fmt"
	"slices"
	"strings"

	"github.com/OmprakashShyamalan/QueryBench/evaluator"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "querybench"

type collector struct {
	fn func() evaluator.Stats

	inFlightQueries *prometheus.Desc
	evaluations     *prometheus.Desc
	queriesRun      *prometheus.Desc
	queryErrors     *prometheus.Desc
	rateLimited     *prometheus.Desc
	replicaFailures *prometheus.Desc
	queryDurations  *prometheus.Desc
}

func newCollector(fn func() evaluator.Stats, subsystem string, labels prometheus.Labels) prometheus.Collector {
	// fqName: namespace, subsystem, name
	fqName := func(name string) string { return strings.Join([]string{namespace, subsystem, name}, "_") }
	return &collector{
		fn: fn,
		inFlightQueries: prometheus.NewDesc(
			fqName("in_flight_queries"),
			fmt.Sprintf("The number of %s queries currently holding a run permit.", subsystem),
			nil,
			labels,
		),
		evaluations: prometheus.NewDesc(
			fqName("evaluations_total"),
			fmt.Sprintf("The total number of completed %s evaluations by verdict.", subsystem),
			[]string{"verdict"},
			labels,
		),
		queriesRun: prometheus.NewDesc(
			fqName("queries_run_total"),
			fmt.Sprintf("The total number of %s queries executed against a database target.", subsystem),
			nil,
			labels,
		),
		queryErrors: prometheus.NewDesc(
			fqName("query_errors_total"),
			fmt.Sprintf("The total number of %s queries that failed against a database target.", subsystem),
			nil,
			labels,
		),
		rateLimited: prometheus.NewDesc(
			fqName("rate_limited_total"),
			fmt.Sprintf("The total number of %s submissions denied by the rate limiter.", subsystem),
			nil,
			labels,
		),
		replicaFailures: prometheus.NewDesc(
			fqName("replica_failures_total"),
			fmt.Sprintf("The total number of %s replica connects that failed over.", subsystem),
			nil,
			labels,
		),
		queryDurations: prometheus.NewDesc(
			fqName("query_duration_milliseconds"),
			fmt.Sprintf("The %s query execution duration measured in milliseconds.", subsystem),
			nil,
			labels,
		),
	}
}

// Describe implements Collector.
func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.inFlightQueries
	ch <- c.evaluations
	ch <- c.queriesRun
	ch <- c.queryErrors
	ch <- c.rateLimited
	ch <- c.replicaFailures
	ch <- c.queryDurations
}

// Collect implements Collector.
func (c *collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.fn()
	ch <- prometheus.MustNewConstMetric(c.inFlightQueries, prometheus.GaugeValue, float64(stats.InFlightQueries))
	for i, text := range evaluator.StatsVerdictTexts {
		ch <- prometheus.MustNewConstMetric(c.evaluations, prometheus.CounterValue, float64(stats.Evaluations[i]), text)
	}
	ch <- prometheus.MustNewConstMetric(c.queriesRun, prometheus.CounterValue, float64(stats.QueriesRun))
	ch <- prometheus.MustNewConstMetric(c.queryErrors, prometheus.CounterValue, float64(stats.QueryErrors))
	ch <- prometheus.MustNewConstMetric(c.rateLimited, prometheus.CounterValue, float64(stats.RateLimited))
	ch <- prometheus.MustNewConstMetric(c.replicaFailures, prometheus.CounterValue, float64(stats.ReplicaFailures))
	ch <- prometheus.MustNewConstHistogram(c.queryDurations, stats.QueryDurations.Count, float64(stats.QueryDurations.Sum), cumulativeBuckets(stats.QueryDurations.Buckets))
}

// cumulativeBuckets converts the evaluator's per-bucket counters into the
// cumulative float-keyed buckets prometheus histograms expect.
func cumulativeBuckets(buckets map[uint64]uint64) map[float64]uint64 {
	bounds := make([]uint64, 0, len(buckets))
	for bound := range buckets {
		bounds = append(bounds, bound)
	}
	slices.Sort(bounds)
	rv := make(map[float64]uint64, len(bounds))
	var cum uint64
	for _, bound := range bounds {
		cum += buckets[bound]
		rv[float64(bound)] = cum
	}
	return rv
}

// NewEvaluatorStatsCollector returns a collector that exports *evaluator.Evaluator statistics.
func NewEvaluatorStatsCollector(ev *evaluator.Evaluator, dbName string) prometheus.Collector {
	return newCollector(ev.Stats, "evaluator", prometheus.Labels{"db_name": dbName})
}
