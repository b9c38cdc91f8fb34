// Package ledger tracks the agency's funds.
//
// The ledger applies deductions and additions by name and amount on
// behalf of other subsystems; it deliberately has no negative-balance
// guard, matching the game's rule that going broke is a narrative
// outcome, not an error.
package ledger

import (
	"sync"

	"go.uber.org/zap"

	"github.com/agencyrpg/backend/internal/infrastructure/logging"
	"github.com/agencyrpg/backend/internal/infrastructure/persist"
	"github.com/agencyrpg/backend/internal/shared/types"
)

const keyFunds = "funds"

// StartingFunds is the agency's balance at the top of a playthrough.
const StartingFunds = 10000

// Publisher fans desktop events out to connected clients.
type Publisher interface {
	Publish(event types.Event)
}

// Ledger is the funds accumulator.
type Ledger struct {
	mu    sync.Mutex
	funds int // Protected by mu

	store  persist.Store
	events Publisher
	logger *logging.Logger
}

type fundsSnapshot struct {
	Funds int `json:"funds"`
}

// New creates a ledger, restoring the persisted balance.
func New(store persist.Store, events Publisher, logger *logging.Logger) *Ledger {
	l := &Ledger{funds: StartingFunds, store: store, events: events, logger: logger}
	var snap fundsSnapshot
	if store.Load(keyFunds, &snap) {
		l.funds = snap.Funds
	}
	return l
}

// Deduct removes amount from the balance.
func (l *Ledger) Deduct(reason string, amount int) {
	l.adjust(reason, -amount)
}

// Add credits amount to the balance.
func (l *Ledger) Add(reason string, amount int) {
	l.adjust(reason, amount)
}

// Funds returns the current balance.
func (l *Ledger) Funds() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.funds
}

// Reset returns the balance to its starting value.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.funds = StartingFunds
	l.store.Delete(keyFunds)
	l.mu.Unlock()

	l.publish()
}

func (l *Ledger) adjust(reason string, delta int) {
	l.mu.Lock()
	l.funds += delta
	l.store.Put(keyFunds, fundsSnapshot{Funds: l.funds})
	balance := l.funds
	l.mu.Unlock()

	l.logger.Info("funds adjusted",
		zap.String("reason", reason),
		zap.Int("delta", delta),
		zap.Int("balance", balance),
	)
	l.publish()
}

func (l *Ledger) publish() {
	if l.events == nil {
		return
	}
	l.events.Publish(types.Event{
		Type:    types.EventFunds,
		Payload: map[string]int{"funds": l.Funds()},
	})
}
