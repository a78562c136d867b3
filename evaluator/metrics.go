package evaluator

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// StatsNumVerdict is the number of verdict categories.
const StatsNumVerdict = 3

// StatsVerdictTexts are the texts used for the verdict categories.
var StatsVerdictTexts = [StatsNumVerdict]string{"correct", "incorrect", "error"}

// StatsDurationBuckets are the used query duration buckets in milliseconds.
var StatsDurationBuckets = []uint64{1, 10, 100, 1000, 10000, 100000}

// DurationStat represents a duration statistic.
type DurationStat struct {
	Count   uint64
	Sum     uint64            // Values in milliseconds.
	Buckets map[uint64]uint64 // map[<duration in ms>]<counter>.
}

func (s *DurationStat) String() string {
	return fmt.Sprintf("count %d sum %d values %v", s.Count, s.Sum, s.Buckets)
}

// Stats contains evaluator statistics.
type Stats struct {
	// Gauges
	InFlightQueries int // The number of queries currently holding a run permit.
	// Counters
	Evaluations     [StatsNumVerdict]uint64 // Completed evaluations by verdict category.
	QueriesRun      uint64                  // Total queries executed against a target.
	QueryErrors     uint64                  // Queries that failed against a target.
	RateLimited     uint64                  // Submissions denied by the rate limiter.
	ReplicaFailures uint64                  // Replica connects that failed over.
	// Histograms
	QueryDurations *DurationStat // Query execution duration statistics.
}

func (s Stats) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("\ninFlightQueries %d", s.InFlightQueries))
	for i, text := range StatsVerdictTexts {
		sb.WriteString(fmt.Sprintf("\nevaluations %-9s %d", text, s.Evaluations[i]))
	}
	sb.WriteString(fmt.Sprintf("\nqueriesRun      %d", s.QueriesRun))
	sb.WriteString(fmt.Sprintf("\nqueryErrors     %d", s.QueryErrors))
	sb.WriteString(fmt.Sprintf("\nrateLimited     %d", s.RateLimited))
	sb.WriteString(fmt.Sprintf("\nreplicaFailures %d", s.ReplicaFailures))
	sb.WriteString(fmt.Sprintf("\nqueryDurations  %s", s.QueryDurations.String()))
	return sb.String()
}

// Constants for counter statistics.
const (
	counterQueriesRun = iota
	counterQueryErrors
	counterRateLimited
	counterReplicaFailures
	numCounter
)

type counter struct {
	n atomic.Uint64
}

func (c *counter) add(n uint64)  { c.n.Add(n) }
func (c *counter) value() uint64 { return c.n.Load() }

type durationHistogram struct {
	mu              sync.Mutex
	count           uint64
	sum             uint64
	durationBuckets []uint64
	buckets         []uint64
	underflow       uint64 // in case of negative duration (will add to zero bucket)
}

func newDurationHistogram(durationBuckets []uint64) *durationHistogram {
	clone := make([]uint64, len(durationBuckets))
	copy(clone, durationBuckets)
	if len(clone) == 0 {
		panic("number of duration buckets cannot be zero")
	}
	return &durationHistogram{durationBuckets: clone, buckets: make([]uint64, len(clone))}
}

func (h *durationHistogram) stats() *DurationStat {
	h.mu.Lock()
	rv := &DurationStat{
		Count:   h.count,
		Sum:     h.sum,
		Buckets: make(map[uint64]uint64, len(h.buckets)),
	}
	for i, durationBucket := range h.durationBuckets {
		rv.Buckets[durationBucket] = h.buckets[i]
	}
	h.mu.Unlock()
	return rv
}

func (h *durationHistogram) add(ms int64) {
	h.mu.Lock()
	h.count++
	if ms < 0 {
		h.underflow++
		h.mu.Unlock()
		return
	}
	h.sum += uint64(ms)
	i := sort.Search(len(h.durationBuckets), func(i int) bool { return h.durationBuckets[i] >= uint64(ms) })
	if i < len(h.durationBuckets) {
		h.buckets[i]++
	}
	h.mu.Unlock()
}

type metrics struct {
	verdicts       [StatsNumVerdict]counter
	counters       [numCounter]counter
	queryDurations *durationHistogram
}

func newMetrics() *metrics {
	return &metrics{queryDurations: newDurationHistogram(StatsDurationBuckets)}
}

func (m *metrics) addVerdict(status Status) {
	switch status {
	case StatusCorrect:
		m.verdicts[0].add(1)
	case StatusIncorrect:
		m.verdicts[1].add(1)
	case StatusError:
		m.verdicts[2].add(1)
	}
}

func (m *metrics) addCounterValue(kind int, v uint64) { m.counters[kind].add(v) }

func (m *metrics) addQueryDuration(ms int64) { m.queryDurations.add(ms) }

func (m *metrics) stats(inFlight int) Stats {
	s := Stats{
		InFlightQueries: inFlight,
		QueriesRun:      m.counters[counterQueriesRun].value(),
		QueryErrors:     m.counters[counterQueryErrors].value(),
		RateLimited:     m.counters[counterRateLimited].value(),
		ReplicaFailures: m.counters[counterReplicaFailures].value(),
		QueryDurations:  m.queryDurations.stats(),
	}
	for i := range m.verdicts {
		s.Evaluations[i] = m.verdicts[i].value()
	}
	return s
}
