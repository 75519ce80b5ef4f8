package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordScoring(t *testing.T) {
	before := testutil.ToFloat64(CandidatesScored.WithLabelValues("test_catalog"))

	RecordScoring("test_catalog", 12, time.Millisecond)

	after := testutil.ToFloat64(CandidatesScored.WithLabelValues("test_catalog"))
	assert.Equal(t, 12.0, after-before)
}

func TestRecordSourceRequest(t *testing.T) {
	ok := SourceRequests.WithLabelValues("test_src", "success")
	failed := SourceRequests.WithLabelValues("test_src", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordSourceRequest("test_src", 10*time.Millisecond, nil)
	RecordSourceRequest("test_src", 10*time.Millisecond, errors.New("boom"))
	RecordSourceRequest("test_src", 10*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(ok)-okBefore)
	assert.Equal(t, 2.0, testutil.ToFloat64(failed)-failedBefore)
}

func TestRecordAPIRequest(t *testing.T) {
	RecordAPIRequest("GET", "/health", 200, time.Millisecond)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(APIRequestDuration), 1)
}
