// Package id provides centralized ID generation for the backend.
//
// All identifiers are ULIDs with a type-specific prefix (win_*, ntf_*,
// inc_*), which keeps logs readable and makes it impossible to hand a
// notification ID to a window operation without it reading wrong.
// ULIDs are lexicographically sortable, so incident logs and inbox
// listings order by creation time with a plain string sort.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// WindowID identifies an open window.
type WindowID string

// NotificationID identifies a desktop toast.
type NotificationID string

// IncidentID identifies a conduct incident record.
type IncidentID string

// EmailID identifies an inbox item.
type EmailID string

// MessageID identifies a delivered chat message.
type MessageID string

// Prefixes for each ID type.
const (
	WindowPrefix       = "win"
	NotificationPrefix = "ntf"
	IncidentPrefix     = "inc"
	EmailPrefix        = "eml"
	MessagePrefix      = "msg"
)

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewWindowID generates a new window ID.
func NewWindowID() WindowID {
	return WindowID(Default().GenerateWithPrefix(WindowPrefix))
}

// NewNotificationID generates a new notification ID.
func NewNotificationID() NotificationID {
	return NotificationID(Default().GenerateWithPrefix(NotificationPrefix))
}

// NewIncidentID generates a new incident ID.
func NewIncidentID() IncidentID {
	return IncidentID(Default().GenerateWithPrefix(IncidentPrefix))
}

// NewEmailID generates a new email ID.
func NewEmailID() EmailID {
	return EmailID(Default().GenerateWithPrefix(EmailPrefix))
}

// NewMessageID generates a new message ID.
func NewMessageID() MessageID {
	return MessageID(Default().GenerateWithPrefix(MessagePrefix))
}

func (id WindowID) String() string       { return string(id) }
func (id NotificationID) String() string { return string(id) }
func (id IncidentID) String() string     { return string(id) }
func (id EmailID) String() string        { return string(id) }
func (id MessageID) String() string      { return string(id) }
