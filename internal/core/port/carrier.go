package port

import (
	"context"

	"carrier-rewards/internal/core/domain"
)

// Fault classifies the outcome of a carrier call. Carrier methods never
// return Go errors for upstream failures; they tag the result instead so the
// orchestration layer can make item-level continue/skip/abort decisions
// without unwrapping.
type Fault int

const (
	// FaultNone marks a successful call.
	FaultNone Fault = iota
	// FaultInvalidPhone rejects input that does not normalize to exactly 11
	// digits after stripping the country code.
	FaultInvalidPhone
	// FaultInvalidCode rejects verification codes that are not 6 digits.
	FaultInvalidCode
	// FaultTransport covers timeouts and connection failures after the
	// transport-level retries are exhausted.
	FaultTransport
	// FaultUpstreamRejected covers non-2xx responses and 2xx bodies that
	// signal a business failure. Not retried.
	FaultUpstreamRejected
	// FaultSessionExpired is detected from 401/403 responses or expiry
	// keywords in the body. The caller should trigger a re-login.
	FaultSessionExpired
	// FaultQuotaExceeded is heuristically detected from daily-limit wording
	// in redemption responses. It stops a purchase run early but is an
	// informational stop reason, not a hard error.
	FaultQuotaExceeded
)

// OK reports whether the call succeeded.
func (f Fault) OK() bool { return f == FaultNone }

// CodeResult is the outcome of a verification-code request.
type CodeResult struct {
	Fault   Fault
	Message string
}

// VerifyResult carries the credential block issued after code verification.
type VerifyResult struct {
	Fault      Fault
	Message    string
	Credential domain.Credential
}

// BalanceResult carries the current coin balance. WalletID is filled by
// operators whose balance endpoint also exposes the wallet identity, so
// callers can refresh it opportunistically.
type BalanceResult struct {
	Fault    Fault
	Message  string
	Balance  int64
	WalletID string
	NewToken string
}

// PackagesResult carries the purchasable catalog.
type PackagesResult struct {
	Fault    Fault
	Message  string
	Packages []domain.Package
}

// RedeemResult is the outcome of a package redemption. LimitReached is set
// together with FaultQuotaExceeded when the upstream wording indicates the
// daily redemption cap.
type RedeemResult struct {
	Fault        Fault
	Message      string
	LimitReached bool
	NewToken     string
}

// CampaignsResult carries the media discovered in one campaign zone.
type CampaignsResult struct {
	Fault    Fault
	Message  string
	Items    []domain.CampaignMedia
	NewToken string
}

// TrackRequest addresses one tracking event. Identity is whichever
// per-operator identifier the upstream requires (wallet id or internal user
// id), never the raw phone number.
type TrackRequest struct {
	Token      string
	Event      domain.Event
	CampaignID string
	TrackingID string
	Identity   string
	MediaID    string
}

// TrackResult is the outcome of a tracking event. NewToken must be persisted
// immediately when set: upstream sessions rotate silently and a stale token
// fails the next call, not the current one.
type TrackResult struct {
	Fault    Fault
	Message  string
	NewToken string
}

// Carrier is the operator-agnostic contract over the three upstream rewards
// APIs. Implementations normalize request shapes, header sets and event
// vocabularies; the orchestrator never branches on operator identity except
// to pick the adapter.
type Carrier interface {
	// Operator names the program this adapter talks to.
	Operator() domain.Operator

	// RequestCode asks the upstream to send a verification code by SMS.
	RequestCode(ctx context.Context, phone string) CodeResult

	// VerifyCode exchanges the SMS code for a credential block.
	VerifyCode(ctx context.Context, phone, code string) VerifyResult

	// Balance returns the current coin balance for the token.
	Balance(ctx context.Context, token string) BalanceResult

	// Packages returns the purchasable catalog.
	Packages(ctx context.Context, token string) PackagesResult

	// Redeem spends coins on a package. Destination semantics differ per
	// operator (phone number, or ignored entirely); the adapter hides this.
	Redeem(ctx context.Context, token, packageID, destination string) RedeemResult

	// Sources lists the campaign zones this operator is queried through.
	Sources() []string

	// Campaigns lists the redeemable media of one zone.
	Campaigns(ctx context.Context, token, identity, zone string) CampaignsResult

	// Track sends one tracking event. Adapters map the event vocabulary to
	// their wire names; operators without a campaign-closing event answer
	// EventCampaignDone with a successful no-op.
	Track(ctx context.Context, req TrackRequest) TrackResult
}

// CarrierResolver picks the concrete adapter for a stored operator value.
type CarrierResolver interface {
	Carrier(op domain.Operator) (Carrier, error)
}
