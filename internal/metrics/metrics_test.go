package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(CacheLookups.WithLabelValues("test", CacheHit))
	RecordCacheLookup("test", CacheHit)
	RecordCacheLookup("test", CacheHit)
	after := testutil.ToFloat64(CacheLookups.WithLabelValues("test", CacheHit))

	assert.Equal(t, before+2, after)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, TokenSuccess, Outcome(nil))
	assert.Equal(t, TokenFailure, Outcome(errors.New("boom")))
}
