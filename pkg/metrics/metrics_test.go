package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecord(t *testing.T) {
	m := New()
	m.RecordBalanceRead(time.Millisecond, nil)
	m.RecordBalanceRead(time.Millisecond, errors.New("boom"))
	m.RecordAction("deposit", nil)
	m.RecordProviderEvent("accountsChanged")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.balanceReads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.balanceReads.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actions.WithLabelValues("deposit", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.providerEvents.WithLabelValues("accountsChanged")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordBalanceRead(time.Second, nil)
		m.RecordAction("withdraw", errors.New("x"))
		m.RecordProviderEvent("chainChanged")
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordAction("withdraw", nil)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `ethfaucet_actions_total{kind="withdraw",result="ok"} 1`)
}
