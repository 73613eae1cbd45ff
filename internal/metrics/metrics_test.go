package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRecompute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRecompute(time.Millisecond, nil)
	m.ObserveRecompute(time.Millisecond, nil)
	m.ObserveRecompute(time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Recomputations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Recomputations.WithLabelValues("error")))

	n, err := testutil.GatherAndCount(reg, "ledger_recompute_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestObserveWrite(t *testing.T) {
	m := New(nil)
	m.ObserveWrite("create", "committed")
	m.ObserveWrite("create", "rejected")
	m.ObserveWrite("create", "committed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TransactionWrites.WithLabelValues("create", "committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionWrites.WithLabelValues("create", "rejected")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRecompute(time.Second, nil)
		m.ObserveWrite("delete", "committed")
	})
}
