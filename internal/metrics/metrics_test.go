package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveAppendIncrementsCounters(t *testing.T) {
	r := New()
	r.ObserveAppend(0.25, "")
	r.ObserveAppend(0.10, "analyzer_unavailable")

	require.Equal(t, float64(2), testutil.ToFloat64(r.AppendTotal))
	require.Equal(t, float64(1), testutil.ToFloat64(r.AppendFailures.WithLabelValues("analyzer_unavailable")))
}

func TestConflictsGaugeSettable(t *testing.T) {
	r := New()
	r.ConflictsTotal.Set(3)
	require.Equal(t, float64(3), testutil.ToFloat64(r.ConflictsTotal))
}
