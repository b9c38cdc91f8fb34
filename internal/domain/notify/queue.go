// Package notify implements the desktop's transient toast queue.
//
// The queue keeps only the five most recent notifications; the oldest
// is dropped silently on overflow, with no backpressure to the caller.
package notify

import (
	"sync"

	"github.com/agencyrpg/backend/internal/infrastructure/monitoring"
	"github.com/agencyrpg/backend/internal/infrastructure/persist"
	"github.com/agencyrpg/backend/internal/shared/id"
	"github.com/agencyrpg/backend/internal/shared/types"
)

const (
	maxNotifications = 5
	keyNotifications = "notifications"
)

// Publisher fans desktop events out to connected clients.
type Publisher interface {
	Publish(event types.Event)
}

// Queue is the bounded toast queue.
type Queue struct {
	mu    sync.Mutex
	items []types.Notification // Protected by mu; oldest first

	store   persist.Store
	events  Publisher
	metrics *monitoring.Metrics
}

// NewQueue creates a queue, restoring persisted toasts.
func NewQueue(store persist.Store, events Publisher) *Queue {
	q := &Queue{store: store, events: events}
	store.Load(keyNotifications, &q.items)
	return q
}

// WithMetrics adds metrics tracking to the queue.
func (q *Queue) WithMetrics(metrics *monitoring.Metrics) *Queue {
	q.metrics = metrics
	return q
}

// Push appends a toast, assigning it an id, and truncates to the five
// most recent.
func (q *Queue) Push(title, message, icon string) types.Notification {
	n := types.Notification{
		ID:      id.NewNotificationID().String(),
		Title:   title,
		Message: message,
		Icon:    icon,
	}

	q.mu.Lock()
	q.items = append(q.items, n)
	if len(q.items) > maxNotifications {
		q.items = q.items[len(q.items)-maxNotifications:]
	}
	q.store.Put(keyNotifications, q.items)
	q.mu.Unlock()

	if q.metrics != nil {
		q.metrics.NotificationsPushed.Inc()
	}
	if q.events != nil {
		q.events.Publish(types.Event{Type: types.EventNotification, Payload: n})
	}
	return n
}

// Remove dismisses a toast by id. Unknown ids are no-ops.
func (q *Queue) Remove(ntfID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	for _, n := range q.items {
		if n.ID != ntfID {
			kept = append(kept, n)
		}
	}
	q.items = kept
	q.store.Put(keyNotifications, q.items)
}

// List returns the current toasts, oldest first.
func (q *Queue) List() []types.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]types.Notification, len(q.items))
	copy(out, q.items)
	return out
}

// Reset drops all toasts. Backs the "new game" action.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = nil
	q.store.Delete(keyNotifications)
}
