package notifier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connecthq/connect/internal/logger"
	"github.com/connecthq/connect/internal/models"
)

// In-memory notification repo
type fakeRepo struct {
	mu      sync.Mutex
	created []models.Notification
}

func (r *fakeRepo) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, n)
	return n, nil
}

func (r *fakeRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []models.Notification
	for _, n := range r.created {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.created)
}

func Test_Notifier(t *testing.T) {
	t.Parallel()

	t.Run("deliver notification", func(t *testing.T) {
		repo := &fakeRepo{}
		n := New(Config{}, repo, logger.NewNoOpLogger())

		ctx, cancel := context.WithCancel(t.Context())
		stopped := n.Run(ctx)

		userID := uuid.New()
		n.Notify(userID, "Referral reward", "Someone used your code", models.NotificationKindReferral)

		require.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 10*time.Millisecond, "notification should be persisted by the worker")

		got, err := n.List(t.Context(), userID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Referral reward", got[0].Title)
		assert.Equal(t, models.NotificationKindReferral, got[0].Kind)
		assert.NotEqual(t, uuid.Nil, got[0].ID, "id should be assigned at enqueue time")

		cancel()
		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("worker should stop after context cancel")
		}
	})

	t.Run("notify never blocks on full queue", func(t *testing.T) {
		repo := &fakeRepo{}
		n := New(Config{QueueSize: 1}, repo, logger.NewNoOpLogger())

		// Worker not running: the second message overflows the queue and
		// must be dropped without blocking
		done := make(chan struct{})
		go func() {
			defer close(done)
			n.Notify(uuid.New(), "first", "fits the queue", models.NotificationKindReferral)
			n.Notify(uuid.New(), "second", "dropped", models.NotificationKindReferral)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Notify must not block the caller")
		}

		// Start the worker: the fitting message only should be delivered
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		n.Run(ctx)

		require.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 10*time.Millisecond)
		assert.Equal(t, "first", repo.created[0].Title)
	})

	t.Run("drains queue on stop", func(t *testing.T) {
		repo := &fakeRepo{}
		n := New(Config{}, repo, logger.NewNoOpLogger())

		// Enqueue before the worker starts, then stop it right away:
		// buffered messages must still be persisted
		userID := uuid.New()
		n.Notify(userID, "first", "queued before stop", models.NotificationKindReferral)
		n.Notify(userID, "second", "queued before stop", models.NotificationKindWithdrawal)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		stopped := n.Run(ctx)

		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("worker should stop after context cancel")
		}

		require.Equal(t, 2, repo.count(), "buffered notifications should be persisted before stopping")
	})

	t.Run("default queue size", func(t *testing.T) {
		n := New(Config{}, &fakeRepo{}, logger.NewNoOpLogger())
		assert.Equal(t, defaultQueueSize, cap(n.queue))
	})
}
