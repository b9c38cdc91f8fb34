// Package mail composes and delivers inbox emails.
package mail

import (
	"sync"
	"time"

	"github.com/agencyrpg/backend/internal/infrastructure/persist"
	"github.com/agencyrpg/backend/internal/narrative/schedule"
	"github.com/agencyrpg/backend/internal/shared/id"
	"github.com/agencyrpg/backend/internal/shared/types"
)

const keyInbox = "inbox"

// Publisher fans desktop events out to connected clients.
type Publisher interface {
	Publish(event types.Event)
}

// Service owns the inbox and timed email delivery.
type Service struct {
	mu    sync.Mutex
	inbox []types.Email // Protected by mu; oldest first

	store  persist.Store
	sched  *schedule.Scheduler
	events Publisher
}

// NewService creates a mail service, restoring the persisted inbox.
func NewService(store persist.Store, sched *schedule.Scheduler, events Publisher) *Service {
	s := &Service{store: store, sched: sched, events: events}
	store.Load(keyInbox, &s.inbox)
	return s
}

// Deliver adds an email to the inbox immediately.
func (s *Service) Deliver(from, subject, body string) types.Email {
	email := types.Email{
		ID:       id.NewEmailID().String(),
		From:     from,
		Subject:  subject,
		Body:     body,
		Received: time.Now(),
	}

	s.mu.Lock()
	s.inbox = append(s.inbox, email)
	s.store.Put(keyInbox, s.inbox)
	s.mu.Unlock()

	if s.events != nil {
		s.events.Publish(types.Event{Type: types.EventEmail, Payload: email})
	}
	return email
}

// DeliverAfter schedules an email for later delivery.
func (s *Service) DeliverAfter(delay time.Duration, from, subject, body string) {
	s.sched.After(delay, func() {
		s.Deliver(from, subject, body)
	})
}

// List returns the inbox, oldest first.
func (s *Service) List() []types.Email {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Email, len(s.inbox))
	copy(out, s.inbox)
	return out
}

// MarkRead flags an email as read. Unknown ids are no-ops.
func (s *Service) MarkRead(emailID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.inbox {
		if s.inbox[i].ID == emailID {
			s.inbox[i].Read = true
			s.store.Put(keyInbox, s.inbox)
			return true
		}
	}
	return false
}

// Reset drops the inbox and any pending deliveries.
func (s *Service) Reset() {
	s.sched.CancelAll()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbox = nil
	s.store.Delete(keyInbox)
}
