package conduct

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agencyrpg/backend/internal/domain/chat"
	"github.com/agencyrpg/backend/internal/domain/ending"
	"github.com/agencyrpg/backend/internal/infrastructure/logging"
	"github.com/agencyrpg/backend/internal/infrastructure/monitoring"
	"github.com/agencyrpg/backend/internal/infrastructure/persist"
	"github.com/agencyrpg/backend/internal/narrative/schedule"
	"github.com/agencyrpg/backend/internal/shared/id"
	"github.com/agencyrpg/backend/internal/shared/types"
)

const keyConduct = "conduct"

// Score and level bounds.
const (
	scoreMin = -100
	scoreMax = 100
	maxLevel = 7

	positiveDelta  = 5
	defaultPenalty = 10
)

// penalties maps incident flags to score deductions. Severity shapes
// the score and the stored record only; the warning level always steps
// exactly +1 regardless of flag.
var penalties = map[string]int{
	"hostile":        15,
	"discrimination": 20,
	"harassment":     20,
	"threat":         25,
}

// positiveThresholds are the one-shot reward boundaries, ascending.
var positiveThresholds = []int{25, 50, 75, 90}

const (
	bonusThreshold  = 50
	bonusAmount     = 2000
	unlockThreshold = 75
	unlockPremier   = "premier_clients"
)

// roster is the agency's fixed team.
var roster = []string{"Margot", "Dev", "Priya", "Lukas", "Sandra", "Theo"}

// Lawsuit outcomes and their settlements.
const (
	LawsuitWon     = "won"
	LawsuitLost    = "lost"
	LawsuitSettled = "settled"
)

var lawsuitCosts = map[string]int{
	LawsuitWon:     5000,
	LawsuitSettled: 25000,
	LawsuitLost:    50000,
}

// Chat delivers scripted message sequences.
type Chat interface {
	SendSequence(channel string, lines []chat.Line, onDone func())
}

// Mail composes and delivers inbox emails.
type Mail interface {
	Deliver(from, subject, body string) types.Email
	DeliverAfter(delay time.Duration, from, subject, body string)
}

// Windows surfaces mini-applications on the desktop.
type Windows interface {
	FocusOrOpen(appID, title string) *types.Window
}

// Funds applies deductions and bonuses by name and amount.
type Funds interface {
	Deduct(reason string, amount int)
	Add(reason string, amount int)
}

// Endings starts an ending sequence.
type Endings interface {
	Start(endingType ending.Type) error
}

// Publisher fans desktop events out to connected clients.
type Publisher interface {
	Publish(event types.Event)
}

// Incident is one logged conduct violation.
type Incident struct {
	ID          string    `json:"id"`
	Flag        string    `json:"flag"`
	Description string    `json:"description"`
	Penalty     int       `json:"penalty"`
	Reported    time.Time `json:"reported_at"`
}

// State is the machine's persisted state.
type State struct {
	ConductScore      int        `json:"conduct_score"`
	Incidents         []Incident `json:"incident_log"`
	WarningLevel      int        `json:"warning_level"`
	PositiveStreak    int        `json:"positive_streak"`
	TeamUnavailable   []string   `json:"team_unavailable"`
	LawsuitResult     string     `json:"lawsuit_result,omitempty"`
	TrainingCompleted bool       `json:"training_completed"`
	ForcedResignation bool       `json:"forced_resignation"`
	HadTeamDeparture  bool       `json:"had_team_departure"`
	ThresholdsHit     []int      `json:"positive_thresholds_hit"`
	Unlocks           []string   `json:"unlocks"`
}

// Machine is the conduct escalation state machine: a monotonic warning
// ladder from 0 to 7, each rung firing a distinct scripted consequence,
// plus an independent positive-reputation accumulator with one-shot
// thresholds.
type Machine struct {
	mu    sync.Mutex
	state State // Protected by mu

	chat    Chat
	mail    Mail
	windows Windows
	funds   Funds
	endings Endings
	sched   *schedule.Scheduler
	store   persist.Store
	events  Publisher
	metrics *monitoring.Metrics
	logger  *logging.Logger
	rng     *rand.Rand
}

// NewMachine creates a conduct machine, restoring persisted state.
func NewMachine(
	chatSvc Chat,
	mailSvc Mail,
	windows Windows,
	funds Funds,
	endings Endings,
	sched *schedule.Scheduler,
	store persist.Store,
	events Publisher,
	logger *logging.Logger,
) *Machine {
	m := &Machine{
		chat:    chatSvc,
		mail:    mailSvc,
		windows: windows,
		funds:   funds,
		endings: endings,
		sched:   sched,
		store:   store,
		events:  events,
		logger:  logger,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	var saved State
	if store.Load(keyConduct, &saved) {
		m.state = saved
	}
	return m
}

// WithMetrics adds metrics tracking to the machine.
func (m *Machine) WithMetrics(metrics *monitoring.Metrics) *Machine {
	m.metrics = metrics
	return m
}

// ReportIncident records a flagged incident: append to the log, apply
// the flag's score penalty, reset the positive streak, step the warning
// level by one (capped at 7), and fire the new level's consequence.
// Level 7 is absorbing; incidents reported there change the score and
// log but fire nothing further.
func (m *Machine) ReportIncident(flag, description string) State {
	m.mu.Lock()

	penalty, ok := penalties[flag]
	if !ok {
		penalty = defaultPenalty
	}

	m.state.Incidents = append(m.state.Incidents, Incident{
		ID:          id.NewIncidentID().String(),
		Flag:        flag,
		Description: description,
		Penalty:     penalty,
		Reported:    time.Now(),
	})
	m.state.ConductScore = clampScore(m.state.ConductScore - penalty)
	m.state.PositiveStreak = 0

	prev := m.state.WarningLevel
	if m.state.WarningLevel < maxLevel {
		m.state.WarningLevel++
	}
	level := m.state.WarningLevel

	if m.metrics != nil {
		m.metrics.IncidentsTotal.WithLabelValues(flag).Inc()
		m.metrics.WarningLevel.Set(float64(level))
	}
	m.logger.Warn("conduct incident",
		zap.String("flag", flag),
		zap.Int("penalty", penalty),
		zap.Int("warning_level", level),
	)

	if level > prev {
		m.applyConsequenceLocked(level)
	}

	m.commitLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()
	return snap
}

// ReportPositive credits the positive accumulator and fires any
// first-time threshold rewards. Re-crossing an already-hit threshold
// never refires it.
func (m *Machine) ReportPositive() State {
	m.mu.Lock()

	m.state.ConductScore = clampScore(m.state.ConductScore + positiveDelta)
	m.state.PositiveStreak++

	for _, threshold := range positiveThresholds {
		if m.state.ConductScore >= threshold && !m.thresholdHitLocked(threshold) {
			m.state.ThresholdsHit = append(m.state.ThresholdsHit, threshold)
			m.fireThresholdRewardLocked(threshold)
		}
	}

	m.commitLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()
	return snap
}

// ResolveLawsuit ingests the litigation mini-game's outcome. Every
// outcome costs money and gets a scripted line; a loss with the ladder
// already at its pre-terminal ceiling escalates straight to forced
// resignation. This is the one path to level 7 that bypasses
// ReportIncident.
func (m *Machine) ResolveLawsuit(outcome string) State {
	m.mu.Lock()

	cost, ok := lawsuitCosts[outcome]
	if !ok {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}

	m.state.LawsuitResult = outcome
	m.funds.Deduct("lawsuit_"+outcome, cost)
	m.sendLawsuitScriptLocked(outcome)

	if outcome == LawsuitLost && m.state.WarningLevel == maxLevel-1 {
		m.state.WarningLevel = maxLevel
		if m.metrics != nil {
			m.metrics.WarningLevel.Set(float64(maxLevel))
		}
		m.applyConsequenceLocked(maxLevel)
	}

	m.commitLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()
	return snap
}

// CompleteTraining records that the mandatory training mini-app was
// finished.
func (m *Machine) CompleteTraining() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.TrainingCompleted = true
	m.commitLocked()
}

// ClearUnavailable explicitly returns everyone to the roster, used when
// the triggering condition clears before the timer does.
func (m *Machine) ClearUnavailable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearUnavailableLocked()
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Roster returns the fixed team list.
func (m *Machine) Roster() []string {
	out := make([]string, len(roster))
	copy(out, roster)
	return out
}

// Reset wipes conduct state and drains pending consequences. Backs the
// "new game" action.
func (m *Machine) Reset() {
	m.sched.CancelAll()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{}
	m.store.Delete(keyConduct)
	if m.metrics != nil {
		m.metrics.WarningLevel.Set(0)
	}
	m.publishLocked()
}

func (m *Machine) thresholdHitLocked(threshold int) bool {
	for _, hit := range m.state.ThresholdsHit {
		if hit == threshold {
			return true
		}
	}
	return false
}

func (m *Machine) clearUnavailableLocked() {
	if len(m.state.TeamUnavailable) == 0 {
		return
	}
	m.state.TeamUnavailable = nil
	m.commitLocked()
	if m.events != nil {
		m.events.Publish(types.Event{
			Type:    types.EventTeam,
			Payload: map[string]interface{}{"unavailable": []string{}},
		})
	}
}

// commitLocked persists and broadcasts. Caller holds mu.
func (m *Machine) commitLocked() {
	m.store.Put(keyConduct, m.state)
	m.publishLocked()
}

func (m *Machine) publishLocked() {
	if m.events == nil {
		return
	}
	m.events.Publish(types.Event{Type: types.EventConduct, Payload: m.snapshotLocked()})
}

func (m *Machine) snapshotLocked() State {
	snap := m.state
	snap.Incidents = append([]Incident(nil), m.state.Incidents...)
	snap.TeamUnavailable = append([]string(nil), m.state.TeamUnavailable...)
	snap.ThresholdsHit = append([]int(nil), m.state.ThresholdsHit...)
	snap.Unlocks = append([]string(nil), m.state.Unlocks...)
	return snap
}

func clampScore(score int) int {
	if score < scoreMin {
		return scoreMin
	}
	if score > scoreMax {
		return scoreMax
	}
	return score
}
