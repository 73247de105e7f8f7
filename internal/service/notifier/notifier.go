package notifier

import (
	"context"

	"github.com/google/uuid"

	"github.com/connecthq/connect/internal/logger"
	"github.com/connecthq/connect/internal/models"
	"github.com/connecthq/connect/internal/repository"
)

const defaultQueueSize = 128

type Config struct {
	// Size of the in-process queue between Notify and the worker
	// If not set than default is used
	QueueSize int
}

// Best-effort notification fan-out
// Notify enqueues and returns immediately; the worker persists
// notifications in background. A full queue drops the message with a
// warning: delivery failure must never block or roll back the caller
type Notifier struct {
	queue  chan models.Notification
	repo   repository.NotificationRepo
	logger logger.Logger
}

func New(cfg Config, repo repository.NotificationRepo, logger logger.Logger) *Notifier {
	size := cfg.QueueSize
	if size == 0 {
		size = defaultQueueSize
	}

	return &Notifier{
		queue:  make(chan models.Notification, size),
		repo:   repo,
		logger: logger,
	}
}

// Start the delivery worker
// Returned channel is closed when the worker drained and stopped
func (n *Notifier) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	go func() {
		defer close(idleStopped)

		for {
			select {
			case <-ctx.Done():
				n.drain(context.WithoutCancel(ctx))
				n.logger.Debug("Notifier stopped by context")
				return

			case notification := <-n.queue:
				n.deliver(ctx, notification)
			}
		}
	}()

	return idleStopped
}

// Persist whatever is still buffered before stopping
func (n *Notifier) drain(ctx context.Context) {
	for {
		select {
		case notification := <-n.queue:
			n.deliver(ctx, notification)
		default:
			return
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, notification models.Notification) {
	_, err := n.repo.Create(ctx, notification)
	if err != nil {
		n.logger.Warn("Failed to deliver notification",
			"error", err,
			"user_id", notification.UserID,
			"kind", notification.Kind,
		)
	}
}

// Enqueue notification, never blocks and never fails the caller
func (n *Notifier) Notify(userID uuid.UUID, title string, message string, kind string) {
	notification := models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Title:   title,
		Message: message,
		Kind:    kind,
	}

	select {
	case n.queue <- notification:
	default:
		n.logger.Warn("Notification queue is full, message dropped", "user_id", userID, "kind", kind)
	}
}

// List user's notifications, newest first
func (n *Notifier) List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return n.repo.ListByUser(ctx, userID)
}
