package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecordRequest(t *testing.T) {
	m := New()
	m.RecordRequest(ContextOriginal, OutcomeHit, time.Millisecond)
	m.RecordRequest(ContextOriginal, OutcomeHit, time.Millisecond)
	m.RecordRequest(ContextBorrowed, OutcomeMiss, time.Millisecond)

	out := scrape(t, m)
	assert.Contains(t, out, `stubd_requests_total{context="original",outcome="hit"} 2`)
	assert.Contains(t, out, `stubd_requests_total{context="borrowed",outcome="miss"} 1`)
	assert.Contains(t, out, `stubd_request_duration_seconds_count{context="original"} 2`)
}

func TestBorrowMetrics(t *testing.T) {
	m := New()
	m.RecordBorrow(BorrowAcquired)
	m.RecordBorrow(BorrowRejected)
	m.SetBorrowActive(true)

	out := scrape(t, m)
	assert.Contains(t, out, `stubd_borrows_total{result="acquired"} 1`)
	assert.Contains(t, out, `stubd_borrows_total{result="rejected"} 1`)
	assert.Contains(t, out, "stubd_borrow_active 1")

	m.SetBorrowActive(false)
	assert.Contains(t, scrape(t, m), "stubd_borrow_active 0")
}

func TestSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordRequest(ContextOriginal, OutcomeHit, 0)

	assert.NotContains(t, scrape(t, b), `outcome="hit"`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest(ContextOriginal, OutcomeHit, time.Second)
		m.RecordBorrow(BorrowAcquired)
		m.SetBorrowActive(true)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
