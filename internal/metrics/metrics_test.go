package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHooksRecordCalls(t *testing.T) {
	n := 3
	hooks := Hooks(func() int { return n })
	ctx := context.Background()

	before := testutil.ToFloat64(meshCalls.WithLabelValues("metrics-users", "GET", OutcomeOK))
	hooks.OnCallReturn(ctx, &domain.CallEvent{ShardID: "metrics-users", Method: "GET", Duration: time.Millisecond})
	hooks.OnCallReturn(ctx, &domain.CallEvent{ShardID: "metrics-users", Method: "GET", IsError: true})

	assert.Equal(t, before+1, testutil.ToFloat64(meshCalls.WithLabelValues("metrics-users", "GET", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(meshCalls.WithLabelValues("metrics-users", "GET", OutcomeError)))

	hooks.OnShardCreated(ctx, &domain.ShardEvent{})
	assert.Equal(t, 3.0, testutil.ToFloat64(shards))

	n = 1
	hooks.OnShardDeleted(ctx, &domain.ShardEvent{})
	assert.Equal(t, 1.0, testutil.ToFloat64(shards))
}
