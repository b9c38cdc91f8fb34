package conduct

import (
	"sync"
	"testing"
	"time"

	"github.com/agencyrpg/backend/internal/domain/chat"
	"github.com/agencyrpg/backend/internal/domain/ending"
	"github.com/agencyrpg/backend/internal/infrastructure/logging"
	"github.com/agencyrpg/backend/internal/infrastructure/persist"
	"github.com/agencyrpg/backend/internal/narrative/schedule"
	"github.com/agencyrpg/backend/internal/shared/types"
)

type mockChat struct {
	mu        sync.Mutex
	sequences [][]chat.Line
}

func (c *mockChat) SendSequence(channel string, lines []chat.Line, onDone func()) {
	c.mu.Lock()
	c.sequences = append(c.sequences, lines)
	c.mu.Unlock()
	if onDone != nil {
		onDone()
	}
}

func (c *mockChat) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sequences)
}

type mockMail struct {
	mu        sync.Mutex
	delivered []string
	scheduled []string
}

func (m *mockMail) Deliver(from, subject, body string) types.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered = append(m.delivered, subject)
	return types.Email{Subject: subject}
}

func (m *mockMail) DeliverAfter(delay time.Duration, from, subject, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduled = append(m.scheduled, subject)
}

type mockWindows struct {
	mu     sync.Mutex
	opened []string
}

func (w *mockWindows) FocusOrOpen(appID, title string) *types.Window {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opened = append(w.opened, appID)
	return &types.Window{AppID: appID, Title: title}
}

type mockFunds struct {
	mu        sync.Mutex
	deducted  int
	credited  int
	deduction []string
}

func (f *mockFunds) Deduct(reason string, amount int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deducted += amount
	f.deduction = append(f.deduction, reason)
}

func (f *mockFunds) Add(reason string, amount int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credited += amount
}

type mockEndings struct {
	mu      sync.Mutex
	started []ending.Type
}

func (e *mockEndings) Start(endingType ending.Type) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = append(e.started, endingType)
	return nil
}

type fixture struct {
	machine *Machine
	chat    *mockChat
	mail    *mockMail
	windows *mockWindows
	funds   *mockFunds
	endings *mockEndings
	sched   *schedule.Scheduler
}

func newFixture() *fixture {
	f := &fixture{
		chat:    &mockChat{},
		mail:    &mockMail{},
		windows: &mockWindows{},
		funds:   &mockFunds{},
		endings: &mockEndings{},
		sched:   schedule.New(),
	}
	f.machine = NewMachine(
		f.chat, f.mail, f.windows, f.funds, f.endings,
		f.sched, persist.NewMemoryStore(), nil, logging.NewNop(),
	)
	return f
}

func TestSevenIncidentsForceResignation(t *testing.T) {
	f := newFixture()

	var state State
	for i := 0; i < 7; i++ {
		state = f.machine.ReportIncident("hostile", "test")
		if state.WarningLevel != i+1 {
			t.Fatalf("incident %d: expected level %d, got %d", i+1, i+1, state.WarningLevel)
		}
	}

	if !state.ForcedResignation {
		t.Error("7th incident should force resignation")
	}
	if len(state.Incidents) != 7 {
		t.Errorf("expected 7 logged incidents, got %d", len(state.Incidents))
	}
}

func TestLevelSevenAbsorbing(t *testing.T) {
	f := newFixture()

	for i := 0; i < 7; i++ {
		f.machine.ReportIncident("hostile", "test")
	}
	before := f.chat.count()

	state := f.machine.ReportIncident("hostile", "again")
	if state.WarningLevel != 7 {
		t.Errorf("level must stay capped at 7, got %d", state.WarningLevel)
	}
	if f.chat.count() != before {
		t.Error("incidents at the cap must not refire the resignation script")
	}
	if len(state.Incidents) != 8 {
		t.Error("the incident itself is still logged")
	}
}

func TestScoreClamped(t *testing.T) {
	f := newFixture()

	for i := 0; i < 20; i++ {
		state := f.machine.ReportIncident("threat", "test")
		if state.ConductScore < -100 || state.ConductScore > 100 {
			t.Fatalf("score %d outside [-100,100]", state.ConductScore)
		}
	}
	if got := f.machine.Snapshot().ConductScore; got != -100 {
		t.Errorf("expected floor of -100, got %d", got)
	}

	for i := 0; i < 100; i++ {
		state := f.machine.ReportPositive()
		if state.ConductScore < -100 || state.ConductScore > 100 {
			t.Fatalf("score %d outside [-100,100]", state.ConductScore)
		}
	}
	if got := f.machine.Snapshot().ConductScore; got != 100 {
		t.Errorf("expected ceiling of 100, got %d", got)
	}
}

func TestFlagSeverityDoesNotSkipLevels(t *testing.T) {
	f := newFixture()

	state := f.machine.ReportIncident("threat", "worst flag")
	if state.WarningLevel != 1 {
		t.Errorf("severity is cosmetic; level must step exactly +1, got %d", state.WarningLevel)
	}
	if state.Incidents[0].Penalty != 25 {
		t.Errorf("threat penalty should be 25, got %d", state.Incidents[0].Penalty)
	}
}

func TestIncidentResetsPositiveStreak(t *testing.T) {
	f := newFixture()

	f.machine.ReportPositive()
	f.machine.ReportPositive()
	state := f.machine.ReportIncident("hostile", "test")
	if state.PositiveStreak != 0 {
		t.Errorf("incident should zero the streak, got %d", state.PositiveStreak)
	}
}

func TestThresholdRewardsAreOneShot(t *testing.T) {
	f := newFixture()

	// Climb past 50: 10 positives = +50.
	for i := 0; i < 10; i++ {
		f.machine.ReportPositive()
	}
	state := f.machine.Snapshot()
	if len(state.ThresholdsHit) != 2 { // 25 and 50
		t.Fatalf("expected thresholds 25 and 50 hit, got %v", state.ThresholdsHit)
	}
	if f.funds.credited != 2000 {
		t.Errorf("expected $2000 bonus at 50, got %d", f.funds.credited)
	}
	// Drop below 50 and climb back over it.
	f.machine.ReportIncident("harassment", "drop") // -20, level 1 fires one sequence
	celebrationsAfterIncident := f.chat.count()
	for i := 0; i < 6; i++ {
		f.machine.ReportPositive()
	}

	state = f.machine.Snapshot()
	if state.ConductScore < 50 {
		t.Fatalf("test setup: expected score back above 50, got %d", state.ConductScore)
	}
	if f.funds.credited != 2000 {
		t.Error("re-crossing 50 must not refire the bonus")
	}
	if f.chat.count() != celebrationsAfterIncident {
		t.Error("re-crossing must not refire the celebration")
	}
}

func TestUnlockAtSeventyFive(t *testing.T) {
	f := newFixture()

	for i := 0; i < 15; i++ { // +75
		f.machine.ReportPositive()
	}
	state := f.machine.Snapshot()
	found := false
	for _, u := range state.Unlocks {
		if u == "premier_clients" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected premier_clients unlock at 75, got %v", state.Unlocks)
	}
}

func TestLevelThreeMarksTeamUnavailable(t *testing.T) {
	f := newFixture()

	f.machine.ReportIncident("hostile", "1")
	f.machine.ReportIncident("hostile", "2")
	state := f.machine.ReportIncident("hostile", "3")

	if n := len(state.TeamUnavailable); n < 2 || n > 3 {
		t.Fatalf("expected 2-3 unavailable members, got %d", n)
	}
	seen := make(map[string]bool)
	for _, name := range state.TeamUnavailable {
		if seen[name] {
			t.Errorf("member %s selected twice", name)
		}
		seen[name] = true
	}
	if !state.HadTeamDeparture {
		t.Error("level 3 should flag a team departure")
	}

	f.machine.ClearUnavailable()
	if len(f.machine.Snapshot().TeamUnavailable) != 0 {
		t.Error("explicit clear should empty the unavailable list")
	}
}

func TestLevelSixConsequences(t *testing.T) {
	f := newFixture()

	for i := 0; i < 6; i++ {
		f.machine.ReportIncident("hostile", "x")
	}

	f.mail.mu.Lock()
	legal := len(f.mail.delivered)
	f.mail.mu.Unlock()
	if legal != 1 {
		t.Errorf("level 6 should deliver the legal notice immediately, got %d emails", legal)
	}
	if f.funds.deducted != legalFeeAmount {
		t.Errorf("expected legal retainer deduction of %d, got %d", legalFeeAmount, f.funds.deducted)
	}
}

func TestLevelTwoOpensTrainingWindow(t *testing.T) {
	saved := trainingOpenDelay
	trainingOpenDelay = time.Millisecond
	defer func() { trainingOpenDelay = saved }()

	f := newFixture()

	f.machine.ReportIncident("hostile", "1")
	f.machine.ReportIncident("hostile", "2")

	waitForOpened(t, f.windows, "training")
}

func TestLevelSixOpensLawsuitWindow(t *testing.T) {
	saved := lawsuitOpenDelay
	lawsuitOpenDelay = time.Millisecond
	defer func() { lawsuitOpenDelay = saved }()

	f := newFixture()

	for i := 0; i < 6; i++ {
		f.machine.ReportIncident("hostile", "x")
	}

	waitForOpened(t, f.windows, "lawsuit")
}

// waitForOpened polls until the mock has seen a window open for appID.
func waitForOpened(t *testing.T, w *mockWindows, appID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		w.mu.Lock()
		for _, opened := range w.opened {
			if opened == appID {
				w.mu.Unlock()
				return
			}
		}
		w.mu.Unlock()
		if time.Now().After(deadline) {
			t.Fatalf("%s window never opened", appID)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLawsuitOutcomes(t *testing.T) {
	f := newFixture()

	state := f.machine.ResolveLawsuit(LawsuitSettled)
	if state.LawsuitResult != LawsuitSettled {
		t.Errorf("expected settled result, got %s", state.LawsuitResult)
	}
	if f.funds.deducted != 25000 {
		t.Errorf("expected settlement cost 25000, got %d", f.funds.deducted)
	}
	if state.WarningLevel != 0 {
		t.Error("lawsuit outcome alone must not touch the warning level")
	}
}

func TestLawsuitLostAtCeilingEscalates(t *testing.T) {
	f := newFixture()

	for i := 0; i < 6; i++ {
		f.machine.ReportIncident("hostile", "x")
	}

	state := f.machine.ResolveLawsuit(LawsuitLost)
	if state.WarningLevel != 7 {
		t.Fatalf("lost lawsuit at level 6 should escalate to 7, got %d", state.WarningLevel)
	}
	if !state.ForcedResignation {
		t.Error("escalation should force resignation")
	}
}

func TestLawsuitLostBelowCeilingDoesNotEscalate(t *testing.T) {
	f := newFixture()

	f.machine.ReportIncident("hostile", "x")
	state := f.machine.ResolveLawsuit(LawsuitLost)
	if state.WarningLevel != 1 {
		t.Errorf("lost lawsuit below level 6 must not escalate, got %d", state.WarningLevel)
	}
}

func TestUnknownLawsuitOutcomeIgnored(t *testing.T) {
	f := newFixture()
	state := f.machine.ResolveLawsuit("mistrial")
	if state.LawsuitResult != "" || f.funds.deducted != 0 {
		t.Error("unknown outcome should change nothing")
	}
}

func TestResignationSchedulesEnding(t *testing.T) {
	saved := resignationDelay
	resignationDelay = time.Millisecond
	defer func() { resignationDelay = saved }()

	f := newFixture()

	for i := 0; i < 7; i++ {
		f.machine.ReportIncident("hostile", "x")
	}

	// The handoff into the ending is a scheduled beat; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		f.endings.mu.Lock()
		n := len(f.endings.started)
		f.endings.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("resignation ending never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	f.endings.mu.Lock()
	defer f.endings.mu.Unlock()
	if f.endings.started[0] != ending.TypeResignation {
		t.Errorf("expected resignation ending, got %s", f.endings.started[0])
	}
}

func TestPersistenceAcrossRestart(t *testing.T) {
	store := persist.NewMemoryStore()
	f := newFixture()
	f.machine.store = store
	f.machine.ReportIncident("hostile", "x")
	f.machine.ReportPositive()

	m2 := NewMachine(
		f.chat, f.mail, f.windows, f.funds, f.endings,
		schedule.New(), store, nil, logging.NewNop(),
	)
	state := m2.Snapshot()
	if state.WarningLevel != 1 || len(state.Incidents) != 1 {
		t.Errorf("state not restored: %+v", state)
	}
}
