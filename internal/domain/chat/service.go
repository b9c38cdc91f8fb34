// Package chat delivers scripted chat-message sequences to the
// desktop's chat client.
//
// Sequences are self-driving: each line arrives after its delay, and
// the optional completion callback fires once after the last line,
// which is how ending phases signal that they are done.
package chat

import (
	"sync"
	"time"

	"github.com/agencyrpg/backend/internal/infrastructure/persist"
	"github.com/agencyrpg/backend/internal/narrative/schedule"
	"github.com/agencyrpg/backend/internal/shared/id"
	"github.com/agencyrpg/backend/internal/shared/types"
)

const (
	keyTranscript = "chat_transcript"
	maxTranscript = 200
)

// Publisher fans desktop events out to connected clients.
type Publisher interface {
	Publish(event types.Event)
}

// Line is one scripted message: who says it, what they say, and how
// long after the previous line it arrives.
type Line struct {
	From  string
	Body  string
	Delay time.Duration
}

// Service owns the chat transcript and timed delivery.
type Service struct {
	mu         sync.Mutex
	transcript []types.ChatMessage // Protected by mu; oldest first

	store  persist.Store
	sched  *schedule.Scheduler
	events Publisher
}

// NewService creates a chat service, restoring the persisted transcript.
func NewService(store persist.Store, sched *schedule.Scheduler, events Publisher) *Service {
	s := &Service{store: store, sched: sched, events: events}
	store.Load(keyTranscript, &s.transcript)
	return s
}

// Deliver appends one message immediately.
func (s *Service) Deliver(channel, from, body string) types.ChatMessage {
	msg := types.ChatMessage{
		ID:        id.NewMessageID().String(),
		Channel:   channel,
		From:      from,
		Body:      body,
		Delivered: time.Now(),
	}

	s.mu.Lock()
	s.transcript = append(s.transcript, msg)
	if len(s.transcript) > maxTranscript {
		s.transcript = s.transcript[len(s.transcript)-maxTranscript:]
	}
	s.store.Put(keyTranscript, s.transcript)
	s.mu.Unlock()

	if s.events != nil {
		s.events.Publish(types.Event{Type: types.EventChatMessage, Payload: msg})
	}
	return msg
}

// SendSequence schedules a scripted sequence on the channel. Delays are
// relative to the previous line. onDone, if set, fires once after the
// final line has been delivered.
func (s *Service) SendSequence(channel string, lines []Line, onDone func()) {
	elapsed := time.Duration(0)
	for i, line := range lines {
		elapsed += line.Delay
		last := i == len(lines)-1
		from, body := line.From, line.Body
		s.sched.After(elapsed, func() {
			s.Deliver(channel, from, body)
			if last && onDone != nil {
				onDone()
			}
		})
	}
	if len(lines) == 0 && onDone != nil {
		onDone()
	}
}

// Transcript returns delivered messages, optionally filtered by channel.
func (s *Service) Transcript(channel string) []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.ChatMessage, 0, len(s.transcript))
	for _, msg := range s.transcript {
		if channel == "" || msg.Channel == channel {
			out = append(out, msg)
		}
	}
	return out
}

// Reset drops the transcript and any pending deliveries.
func (s *Service) Reset() {
	s.sched.CancelAll()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = nil
	s.store.Delete(keyTranscript)
}
