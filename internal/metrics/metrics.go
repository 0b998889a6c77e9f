package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Results shared by the counters below.
const (
	ResultOK            = "ok"
	ResultApplied       = "applied"
	ResultNoop          = "noop"
	ResultInvalid       = "invalid_signature"
	ResultDeclined      = "declined"
	ResultDuplicate     = "duplicate"
	ResultNotFound      = "not_found"
	ResultAmount        = "amount_mismatch"
	ResultError         = "error"
	ResultSkipped       = "skipped"
	ResultDedupReplayed = "replayed"
)

var reconcileDuration = metrics.NewHistogram(`reconcile_duration_milliseconds`)

// CallbackReceived counts inbound gateway callbacks by source (return, ipn,
// client) and outcome.
func CallbackReceived(source, result string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`vnpay_callbacks_total{source=%q,result=%q}`, source, result)).Inc()
}

// Settlement counts settlement outcomes.
func Settlement(result string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`settlements_total{result=%q}`, result)).Inc()
}

// ReconcileRun counts reconcile passes and records how long they took.
func ReconcileRun(result string, started time.Time) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`reconcile_runs_total{result=%q}`, result)).Inc()
	reconcileDuration.Update(float64(time.Since(started).Milliseconds()))
}

// Handler writes every registered metric in Prometheus text format.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})
}

// Push enables periodic pushing to a remote collector. It is a no-op when url
// is empty.
func Push(url string, interval time.Duration, labels string) error {
	if url == "" {
		return nil
	}
	return metrics.InitPush(url, interval, labels, true)
}
