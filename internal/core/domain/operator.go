package domain

// Operator identifies one of the supported carrier rewards programs. Each
// program runs an independent backend with its own authentication scheme,
// header set and event vocabulary; the carrier adapters hide those
// differences behind a single contract.
type Operator string

const (
	// OperatorPrezao is the web-channel program. Tokens are static per
	// session and the tracker is addressed by wallet id.
	OperatorPrezao Operator = "prezao"
	// OperatorPontos is an android-channel program that rotates the session
	// token on nearly every response.
	OperatorPontos Operator = "pontos"
	// OperatorFun is an android-channel program addressed by an internal
	// user id and requiring a campaign-closing event after the last media.
	OperatorFun Operator = "fun"
)

// Valid reports whether o names a known program.
func (o Operator) Valid() bool {
	switch o {
	case OperatorPrezao, OperatorPontos, OperatorFun:
		return true
	}
	return false
}

// Event is the operator-agnostic tracking vocabulary used by the redemption
// orchestrator. Adapters translate these into whatever wire names their
// upstream expects.
type Event string

const (
	// EventStart marks the beginning of a media view ("start" or
	// "impression" on the wire, depending on the operator).
	EventStart Event = "start"
	// EventComplete marks a finished media view.
	EventComplete Event = "complete"
	// EventCampaignDone closes a campaign after all of its media completed.
	// Operators without a closing event treat it as a no-op.
	EventCampaignDone Event = "campaign_done"
)
