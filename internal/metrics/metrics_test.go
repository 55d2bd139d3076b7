package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveAttempt(t *testing.T) {
	m := metrics.New(false)

	m.ObserveAttempt(commands.AttemptReserved, 20*time.Millisecond)
	m.ObserveAttempt(commands.AttemptReserved, 30*time.Millisecond)
	m.ObserveAttempt(commands.AttemptNoCandidates, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues(commands.AttemptReserved)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues(commands.AttemptNoCandidates)), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.AttemptDuration))
}

func TestMetrics_ObserveTransition(t *testing.T) {
	m := metrics.New(false)

	m.ObserveTransition(assignment.Pending, assignment.Assigned)
	m.ObserveTransition(assignment.Assigned, assignment.Pending)
	m.ObserveTransition(assignment.Pending, assignment.Assigned)

	assert.InDelta(t, 2, testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("pending", "assigned")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("assigned", "pending")), 0)
}

func TestMetrics_SweepAndReconcile(t *testing.T) {
	m := metrics.New(false)

	m.ObserveSweep(3, time.Second)
	m.ObserveSweep(0, time.Second)
	m.ObserveReconcile(2)

	assert.InDelta(t, 3, testutil.ToFloat64(m.LeasesExpiredTotal), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.LedgerRepairsTotal), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.SweepDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New(true)
	m.ObserveReconcile(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dispatch_capacity_ledger_repairs_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMetrics_InstancesDoNotShareState(t *testing.T) {
	a := metrics.New(false)
	b := metrics.New(false)

	a.ObserveReconcile(5)

	assert.InDelta(t, 0, testutil.ToFloat64(b.LedgerRepairsTotal), 0)
}
