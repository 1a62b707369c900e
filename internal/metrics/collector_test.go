package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOperation(t *testing.T) {
	c := NewCollector("test")

	c.RecordOperation("list_objects", 25*time.Millisecond, false)
	c.RecordOperation("list_objects", 40*time.Millisecond, false)
	c.RecordOperation("put_object", 10*time.Millisecond, true)

	families, err := c.Gather()
	require.NoError(t, err)

	byName := make(map[string]bool)
	for _, mf := range families {
		byName[mf.GetName()] = true
	}
	assert.True(t, byName["test_operations_total"])
	assert.True(t, byName["test_operation_errors_total"])
	assert.True(t, byName["test_operation_duration_seconds"])

	for _, mf := range families {
		switch mf.GetName() {
		case "test_operations_total":
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			assert.Equal(t, 3.0, total)
		case "test_operation_errors_total":
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, 1.0, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
}

func TestNamespaceDefault(t *testing.T) {
	c := NewCollector("")
	c.RecordOperation("list_buckets", time.Millisecond, false)

	families, err := c.Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() == "s3bridge_operations_total" {
			found = true
		}
	}
	assert.True(t, found, "empty namespace falls back to the default")
}

func TestHandlerServesMetrics(t *testing.T) {
	c := NewCollector("test")
	c.RecordOperation("get_object_content", 5*time.Millisecond, false)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_operations_total")
	assert.Contains(t, rec.Body.String(), `operation="get_object_content"`)
}

func TestCollectorsAreIsolated(t *testing.T) {
	a := NewCollector("one")
	b := NewCollector("two")
	a.RecordOperation("copy_object", time.Millisecond, false)

	families, err := b.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			assert.Zero(t, m.GetCounter().GetValue(), "registries must not share state")
		}
	}
}
