package ending

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/agencyrpg/backend/internal/infrastructure/logging"
	"github.com/agencyrpg/backend/internal/infrastructure/monitoring"
	"github.com/agencyrpg/backend/internal/infrastructure/persist"
	"github.com/agencyrpg/backend/internal/shared/types"
)

const keyEnding = "ending"

// ErrAlreadyEnding is returned when Start is called mid-sequence. A
// second start would silently rewind the phase index, so the machine
// itself rejects it rather than leaning on caller-side guards.
var ErrAlreadyEnding = errors.New("ending already in progress")

// Publisher fans desktop events out to connected clients.
type Publisher interface {
	Publish(event types.Event)
}

// State is the orchestrator's persisted state.
type State struct {
	Acquisition          AcquisitionState `json:"acquisition_state"`
	CampaignsAtRejection int              `json:"campaigns_at_rejection"`
	IsEnding             bool             `json:"is_ending"`
	EndingType           Type             `json:"ending_type,omitempty"`
	PhaseIndex           int              `json:"current_phase_index"`
}

// Orchestrator walks an ending's fixed phase list. It is purely an
// index stepper: each concrete phase drives its own duration and calls
// Advance exactly once when it judges itself complete.
type Orchestrator struct {
	mu    sync.Mutex
	state State // Protected by mu

	store   persist.Store
	events  Publisher
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// NewOrchestrator creates an orchestrator, restoring persisted state.
func NewOrchestrator(store persist.Store, events Publisher, logger *logging.Logger) *Orchestrator {
	o := &Orchestrator{
		state:  State{Acquisition: AcquisitionNone},
		store:  store,
		events: events,
		logger: logger,
	}
	var saved State
	if store.Load(keyEnding, &saved) {
		o.state = saved
	}
	return o
}

// WithMetrics adds metrics tracking to the orchestrator.
func (o *Orchestrator) WithMetrics(metrics *monitoring.Metrics) *Orchestrator {
	o.metrics = metrics
	return o
}

// Start begins the ending sequence for the given type. Valid only from
// a non-ending state; the chosen type is immutable for the playthrough.
func (o *Orchestrator) Start(endingType Type) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.IsEnding {
		return ErrAlreadyEnding
	}
	if _, ok := scripts[endingType]; !ok {
		return fmt.Errorf("unknown ending type %q", endingType)
	}

	o.state.IsEnding = true
	o.state.EndingType = endingType
	o.state.PhaseIndex = 0
	// The acquisition branch exists to gate which ending becomes
	// reachable; once one starts, the branch's only job is to stop
	// moving. Start therefore jumps it to its terminal state from
	// wherever it is (a forced resignation can begin at any point in
	// the branch), bypassing the step-by-step table that
	// AdvanceAcquisition enforces for narrative transitions.
	o.state.Acquisition = AcquisitionEnding

	if o.metrics != nil {
		o.metrics.EndingsStarted.WithLabelValues(string(endingType)).Inc()
	}
	o.logger.Info("ending started", zap.String("type", string(endingType)))

	o.commitLocked()
	return nil
}

// Advance steps to the next phase. Once the index runs off the end of
// the list the sequence is complete and further calls do nothing.
func (o *Orchestrator) Advance() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.state.IsEnding {
		return
	}
	script := scripts[o.state.EndingType]
	if o.state.PhaseIndex >= len(script) {
		return
	}

	o.state.PhaseIndex++
	o.commitLocked()
}

// Current returns the phase now showing. The second return is false
// before any ending starts and after the last phase completes.
func (o *Orchestrator) Current() (Phase, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.state.IsEnding {
		return "", false
	}
	script := scripts[o.state.EndingType]
	if o.state.PhaseIndex >= len(script) {
		return "", false
	}
	return script[o.state.PhaseIndex], true
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// AdvanceAcquisition moves the acquisition branch forward. Backward or
// skipping transitions are rejected.
func (o *Orchestrator) AdvanceAcquisition(next AcquisitionState) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, allowed := range acquisitionNext[o.state.Acquisition] {
		if next == allowed {
			o.state.Acquisition = next
			o.commitLocked()
			return nil
		}
	}
	return fmt.Errorf("illegal acquisition transition %s -> %s", o.state.Acquisition, next)
}

// RecordRejection notes how many campaigns were live when the player
// turned the acquirer down, and moves the branch to rejected.
func (o *Orchestrator) RecordRejection(campaigns int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, allowed := range acquisitionNext[o.state.Acquisition] {
		if allowed == AcquisitionRejected {
			o.state.Acquisition = AcquisitionRejected
			o.state.CampaignsAtRejection = campaigns
			o.commitLocked()
			return nil
		}
	}
	return fmt.Errorf("illegal acquisition transition %s -> %s", o.state.Acquisition, AcquisitionRejected)
}

// Reset wipes ending state. Backs the "new game" action.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state = State{Acquisition: AcquisitionNone}
	o.store.Delete(keyEnding)
	o.publishLocked()
}

// commitLocked persists and broadcasts. Caller holds mu.
func (o *Orchestrator) commitLocked() {
	o.store.Put(keyEnding, o.state)
	o.publishLocked()
}

func (o *Orchestrator) publishLocked() {
	if o.events == nil {
		return
	}
	payload := map[string]interface{}{
		"state": o.state,
	}
	if o.state.IsEnding {
		script := scripts[o.state.EndingType]
		if o.state.PhaseIndex < len(script) {
			payload["current_phase"] = script[o.state.PhaseIndex]
		}
	}
	o.events.Publish(types.Event{Type: types.EventEnding, Payload: payload})
}
