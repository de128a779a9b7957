//go:build integration

package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cleargate/pkg/testutil/containers"
)

func TestRedisQueueRoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, rc.FlushAll(ctx))

	queue := NewRedisQueue(rc.Client, "cleargate:test:notices")

	sent := Notice{
		StudentID: "ETS0001/14",
		Email:     "student@example.edu",
		Name:      "Almaz Tesfaye",
		Status:    "approved",
		QueuedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, queue.Publish(ctx, sent))

	notices, err := queue.Consume(ctx)
	require.NoError(t, err)

	select {
	case got := <-notices:
		require.Equal(t, sent, got)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for notice")
	}
}

// Notices published while nothing consumes must survive until a consumer
// appears; that is the point of backing the queue on a redis list.
func TestRedisQueueBuffersWithoutConsumer(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, rc.FlushAll(ctx))

	queue := NewRedisQueue(rc.Client, "cleargate:test:buffered")
	for i := 0; i < 3; i++ {
		require.NoError(t, queue.Publish(ctx, Notice{StudentID: "ETS0002/14", Status: "rejected"}))
	}

	length, err := rc.Client.LLen(ctx, "cleargate:test:buffered").Result()
	require.NoError(t, err)
	require.Equal(t, int64(3), length)

	notices, err := queue.Consume(ctx)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		select {
		case got := <-notices:
			require.Equal(t, "ETS0002/14", got.StudentID)
		case <-time.After(10 * time.Second):
			t.Fatalf("timed out waiting for notice %d", i)
		}
	}
}
