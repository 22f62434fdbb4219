package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(queueJoins.WithLabelValues("created"))
	IncJoin(true)
	assert.Equal(t, before+1, testutil.ToFloat64(queueJoins.WithLabelValues("created")))

	dupBefore := testutil.ToFloat64(queueJoins.WithLabelValues("duplicate"))
	IncJoin(false)
	assert.Equal(t, dupBefore+1, testutil.ToFloat64(queueJoins.WithLabelValues("duplicate")))

	failed := testutil.ToFloat64(notifications.WithLabelValues("tableReady", "failed"))
	IncNotification("tableReady", false)
	assert.Equal(t, failed+1, testutil.ToFloat64(notifications.WithLabelValues("tableReady", "failed")))

	seated := testutil.ToFloat64(seatings.WithLabelValues("auto"))
	IncSeating("auto")
	assert.Equal(t, seated+1, testutil.ToFloat64(seatings.WithLabelValues("auto")))
}

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("/ping", "200"))
	ObserveHTTP("/ping", "200", 0.01)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("/ping", "200")))
}
