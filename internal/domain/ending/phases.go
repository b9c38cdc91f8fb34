package ending

// Type names one of the four ways a playthrough can end.
type Type string

const (
	TypeAcquired    Type = "acquired"
	TypeHostile     Type = "hostile"
	TypeIndependent Type = "independent"
	TypeResignation Type = "resignation"
)

// Phase is one named narrative beat in an ending sequence.
type Phase string

const (
	PhaseFarewellChat      Phase = "farewell_chat"
	PhaseCelebrationChat   Phase = "celebration_chat"
	PhaseHostileChat       Phase = "hostile_chat"
	PhaseResignationLetter Phase = "resignation_letter"
	PhaseSlowFade          Phase = "slow_fade"
	PhaseWhereAreThey      Phase = "where_are_they"
	PhasePortfolio         Phase = "portfolio"
	PhaseCredits           Phase = "credits"
	PhasePostCredits       Phase = "post_credits"
)

// scripts maps each ending type to its fixed, ordered phase list. The
// lists differ in length and content; the hostile ending opens straight
// on a chat vignette and skips the slow fade.
var scripts = map[Type][]Phase{
	TypeAcquired: {
		PhaseFarewellChat,
		PhaseSlowFade,
		PhaseWhereAreThey,
		PhasePortfolio,
		PhaseCredits,
		PhasePostCredits,
	},
	TypeHostile: {
		PhaseHostileChat,
		PhaseWhereAreThey,
		PhasePortfolio,
		PhaseCredits,
		PhasePostCredits,
	},
	TypeIndependent: {
		PhaseCelebrationChat,
		PhaseSlowFade,
		PhasePortfolio,
		PhaseCredits,
		PhasePostCredits,
	},
	TypeResignation: {
		PhaseResignationLetter,
		PhaseWhereAreThey,
		PhasePortfolio,
		PhaseCredits,
		PhasePostCredits,
	},
}

// AcquisitionState tracks the strictly forward-moving acquisition
// narrative branch that gates which ending becomes reachable.
type AcquisitionState string

const (
	AcquisitionNone             AcquisitionState = "none"
	AcquisitionEmailSent        AcquisitionState = "email_sent"
	AcquisitionRejected         AcquisitionState = "rejected"
	AcquisitionHostilePending   AcquisitionState = "hostile_pending"
	AcquisitionHostileEmailSent AcquisitionState = "hostile_email_sent"
	AcquisitionEnding           AcquisitionState = "ending"
)

// acquisitionNext lists the legal forward transitions. Nothing moves
// backward.
var acquisitionNext = map[AcquisitionState][]AcquisitionState{
	AcquisitionNone:             {AcquisitionEmailSent},
	AcquisitionEmailSent:        {AcquisitionRejected, AcquisitionHostilePending, AcquisitionEnding},
	AcquisitionRejected:         {AcquisitionHostilePending, AcquisitionEnding},
	AcquisitionHostilePending:   {AcquisitionHostileEmailSent},
	AcquisitionHostileEmailSent: {AcquisitionEnding},
	AcquisitionEnding:           {},
}
