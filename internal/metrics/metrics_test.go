package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"editstate/internal/memo"
)

func TestMemoObserver(t *testing.T) {
	m := New(prometheus.NewRegistry())
	cache := memo.New[string, int]("getThing", memo.WithSize(1), memo.WithObserver(m))

	deps := []any{"a"}
	cache.Get("x", deps, func() int { return 1 })
	cache.Get("x", deps, func() int { return 2 })
	cache.Get("y", deps, func() int { return 3 })

	assert.Equal(t, 1.0, testutil.ToFloat64(m.memoHits.WithLabelValues("getThing")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.memoMisses.WithLabelValues("getThing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.memoEvictions.WithLabelValues("getThing")))
}

func TestRecordOutcomes(t *testing.T) {
	m := New(nil)
	m.RecordSave("postType", "page", false, nil)
	m.RecordSave("postType", "page", true, errors.New("conflict"))
	m.RecordDelete("postType", "page", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues("postType", "page", "false", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues("postType", "page", "true", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deletes.WithLabelValues("postType", "page", OutcomeSuccess)))
}

func TestHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Hit("getEntityRecord")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `editstate_selector_cache_hits_total{selector="getEntityRecord"} 1`)
}
