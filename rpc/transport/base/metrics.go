package base

import (
	"fmt"
	"github.com/ValentinKolb/serialkv/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"io"
	"time"
)

// clientMetrics holds the counters of one client transport.
// Every transport owns its own metrics.Set so several transports (and tests)
// do not share counters.
type clientMetrics struct {
	set *metrics.Set

	submitted    *metrics.Counter
	completed    *metrics.Counter
	timedOut     *metrics.Counter
	failed       map[common.ErrorKind]*metrics.Counter
	dials        *metrics.Counter
	dialFailures *metrics.Counter
	discards     *metrics.Counter
	latency      *metrics.Histogram
}

func newClientMetrics(transportName string, queueLen func() float64) *clientMetrics {
	set := metrics.NewSet()
	label := fmt.Sprintf(`transport=%q`, transportName)

	m := &clientMetrics{
		set:          set,
		submitted:    set.NewCounter(fmt.Sprintf(`skv_client_requests_submitted_total{%s}`, label)),
		completed:    set.NewCounter(fmt.Sprintf(`skv_client_requests_completed_total{%s}`, label)),
		timedOut:     set.NewCounter(fmt.Sprintf(`skv_client_requests_timed_out_total{%s}`, label)),
		failed:       make(map[common.ErrorKind]*metrics.Counter),
		dials:        set.NewCounter(fmt.Sprintf(`skv_client_dials_total{%s}`, label)),
		dialFailures: set.NewCounter(fmt.Sprintf(`skv_client_dial_failures_total{%s}`, label)),
		discards:     set.NewCounter(fmt.Sprintf(`skv_client_connection_discards_total{%s}`, label)),
		latency:      set.NewHistogram(fmt.Sprintf(`skv_client_request_duration_seconds{%s}`, label)),
	}

	for _, kind := range []common.ErrorKind{
		common.KindConnectionFailed,
		common.KindTransportError,
		common.KindMalformedFrame,
		common.KindClosed,
		common.KindFrameTooLarge,
	} {
		m.failed[kind] = set.NewCounter(fmt.Sprintf(`skv_client_requests_failed_total{%s,kind=%q}`, label, kind.String()))
	}

	set.NewGauge(fmt.Sprintf(`skv_client_queue_length{%s}`, label), queueLen)
	return m
}

// observe records the outcome of a resolved request
func (m *clientMetrics) observe(submitted time.Time, err error) {
	m.latency.UpdateDuration(submitted)
	if err == nil {
		m.completed.Inc()
		return
	}
	kind := common.KindOf(err)
	if kind == common.KindTimeout {
		m.timedOut.Inc()
		return
	}
	if c, ok := m.failed[kind]; ok {
		c.Inc()
	}
}

// write writes all metrics in Prometheus text format
func (m *clientMetrics) write(w io.Writer) {
	m.set.WritePrometheus(w)
}
