package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHandler_ExposesCounters(t *testing.T) {
	CallbackReceived("ipn", ResultApplied)
	Settlement(ResultDuplicate)
	ReconcileRun(ResultOK, time.Now())

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `vnpay_callbacks_total{source="ipn",result="applied"}`)
	assert.Contains(t, body, `settlements_total{result="duplicate"}`)
	assert.Contains(t, body, `reconcile_runs_total{result="ok"}`)
	assert.Contains(t, body, "reconcile_duration_milliseconds")
}

func TestPush_DisabledWithoutURL(t *testing.T) {
	assert.NoError(t, Push("", time.Second, ""))
}
