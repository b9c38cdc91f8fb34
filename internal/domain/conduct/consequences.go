package conduct

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agencyrpg/backend/internal/domain/chat"
	"github.com/agencyrpg/backend/internal/domain/ending"
	"github.com/agencyrpg/backend/internal/shared/types"
)

// Consequence timing. Second-scale beats so the desktop feels live
// rather than instantaneous. Vars so tests can compress them.
var (
	chatBeat            = 2 * time.Second
	trainingOpenDelay   = 8 * time.Second
	unavailableDuration = 45 * time.Second
	newsEmailDelay      = 10 * time.Second
	clientEmailDelay    = 20 * time.Second
	personalEmailDelay  = 15 * time.Second
	lawsuitOpenDelay    = 12 * time.Second
	resignationDelay    = 10 * time.Second
)

const legalFeeAmount = 7500

const (
	channelHR   = "hr"
	channelTeam = "team"
)

// applyConsequenceLocked fires the scripted consequence for the level
// just reached. Each rung is a distinct, hardcoded script with
// escalating stakes. Caller holds mu.
func (m *Machine) applyConsequenceLocked(level int) {
	switch level {
	case 1:
		m.chat.SendSequence(channelHR, []chat.Line{
			{From: "Margot (HR)", Body: "Hey. We need to talk about what just happened.", Delay: chatBeat},
			{From: "Margot (HR)", Body: "Consider this a formal warning. It goes in the file.", Delay: chatBeat},
			{From: "Margot (HR)", Body: "I really don't want to have this conversation twice.", Delay: chatBeat},
		}, nil)

	case 2:
		m.chat.SendSequence(channelHR, []chat.Line{
			{From: "Margot (HR)", Body: "Twice. We're having it twice.", Delay: chatBeat},
			{From: "Margot (HR)", Body: "Corporate is mandating sensitivity training. It's opening on your desktop shortly.", Delay: chatBeat},
			{From: "Margot (HR)", Body: "Attendance is not optional.", Delay: chatBeat},
		}, nil)
		m.sched.After(trainingOpenDelay, func() {
			m.windows.FocusOrOpen("training", "Mandatory Training")
		})

	case 3:
		m.markUnavailableLocked()

	case 4:
		m.chat.SendSequence(channelHR, []chat.Line{
			{From: "Margot (HR)", Body: "The trade press picked it up. Check your inbox.", Delay: chatBeat},
			{From: "Margot (HR)", Body: "Clients read AdWeek Daily too, you know.", Delay: chatBeat},
		}, nil)
		m.mail.DeliverAfter(newsEmailDelay,
			"tips@adweekdaily.example",
			"EXCLUSIVE: Trouble brewing at your agency?",
			"Multiple sources describe a pattern of workplace incidents at the agency. A spokesperson declined to comment.")
		m.mail.DeliverAfter(clientEmailDelay,
			"procurement@keystone-client.example",
			"Pausing our engagement",
			"In light of recent reporting, we are pausing all active work with your agency, effective immediately, pending an internal review.")

	case 5:
		m.chat.SendSequence(channelHR, []chat.Line{
			{From: "Margot (HR)", Body: "This has gone beyond the office.", Delay: chatBeat},
		}, nil)
		m.mail.DeliverAfter(personalEmailDelay,
			"sam.reyes@personalmail.example",
			"heard some things",
			"Hey. It's been a while. Someone I trust told me what's been going on over there. I'm not writing to pile on. I'm writing because I remember who you used to be. Call me if you want to talk.")

	case 6:
		m.chat.SendSequence(channelHR, []chat.Line{
			{From: "Margot (HR)", Body: "Legal is involved now. I can't protect you from this one.", Delay: chatBeat},
		}, nil)
		m.mail.Deliver(
			"counsel@tannerfelt-llp.example",
			"NOTICE OF PENDING LITIGATION",
			"This firm represents a former employee of your agency. Preserve all relevant records. A claim is being filed against the agency and you personally.")
		m.funds.Deduct("legal_retainer", legalFeeAmount)
		m.sched.After(lawsuitOpenDelay, func() {
			m.windows.FocusOrOpen("lawsuit", "Deposition")
		})

	case maxLevel:
		m.forceResignationLocked()
	}
}

// markUnavailableLocked pulls two or three random team members off the
// roster for a fixed duration, selected without replacement. A timer
// returns them; ClearUnavailable can return them sooner. Caller holds mu.
func (m *Machine) markUnavailableLocked() {
	count := 2 + m.rng.Intn(2)
	perm := m.rng.Perm(len(roster))
	out := make([]string, 0, count)
	for _, idx := range perm[:count] {
		out = append(out, roster[idx])
	}
	m.state.TeamUnavailable = out
	m.state.HadTeamDeparture = true

	m.chat.SendSequence(channelTeam, []chat.Line{
		{From: out[0], Body: "Taking a few days. Not feeling up to being here right now.", Delay: chatBeat},
		{From: out[1], Body: "Same. You know why.", Delay: chatBeat},
	}, nil)

	if m.events != nil {
		m.events.Publish(types.Event{
			Type:    types.EventTeam,
			Payload: map[string]interface{}{"unavailable": out},
		})
	}

	m.sched.After(unavailableDuration, m.ClearUnavailable)
}

// forceResignationLocked is the terminal rung: the fixed resignation
// script, a permanent flag, and a scheduled handoff into the
// resignation ending. Caller holds mu.
func (m *Machine) forceResignationLocked() {
	m.state.ForcedResignation = true

	m.chat.SendSequence(channelHR, []chat.Line{
		{From: "Margot (HR)", Body: "The board met this morning.", Delay: chatBeat},
		{From: "Margot (HR)", Body: "They're asking for your resignation. It wasn't a close vote.", Delay: chatBeat},
		{From: "Margot (HR)", Body: "Security will be up in a few minutes. I'm sorry it ended like this.", Delay: chatBeat},
	}, nil)

	m.sched.After(resignationDelay, func() {
		if err := m.endings.Start(ending.TypeResignation); err != nil {
			m.logger.Warn("resignation ending not started", zap.Error(err))
		}
	})
}

// fireThresholdRewardLocked fires the one-shot reward for a
// first-crossed positive threshold. Caller holds mu.
func (m *Machine) fireThresholdRewardLocked(threshold int) {
	m.logger.Info("positive threshold crossed", zap.Int("threshold", threshold))

	m.chat.SendSequence(channelTeam, []chat.Line{
		{From: "Priya", Body: fmt.Sprintf("Reputation score just cleared %d! 🎉", threshold), Delay: chatBeat},
		{From: "Theo", Body: "People are actually saying nice things about working here.", Delay: chatBeat},
	}, nil)

	switch threshold {
	case bonusThreshold:
		m.funds.Add("reputation_bonus", bonusAmount)
	case unlockThreshold:
		if !m.hasUnlockLocked(unlockPremier) {
			m.state.Unlocks = append(m.state.Unlocks, unlockPremier)
		}
	}
}

// sendLawsuitScriptLocked delivers the scripted reaction to a lawsuit
// outcome. Caller holds mu.
func (m *Machine) sendLawsuitScriptLocked(outcome string) {
	var lines []chat.Line
	switch outcome {
	case LawsuitWon:
		lines = []chat.Line{
			{From: "Margot (HR)", Body: "We won. The legal bill still stings, but we won.", Delay: chatBeat},
		}
	case LawsuitSettled:
		lines = []chat.Line{
			{From: "Margot (HR)", Body: "We settled. It's over, but it wasn't cheap, and there's an NDA.", Delay: chatBeat},
		}
	case LawsuitLost:
		lines = []chat.Line{
			{From: "Margot (HR)", Body: "The verdict came in. We lost. Badly.", Delay: chatBeat},
		}
	}
	m.chat.SendSequence(channelHR, lines, nil)
}

func (m *Machine) hasUnlockLocked(name string) bool {
	for _, u := range m.state.Unlocks {
		if strings.EqualFold(u, name) {
			return true
		}
	}
	return false
}
