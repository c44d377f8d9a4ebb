package port

import (
	"context"
	"errors"
	"time"

	"carrier-rewards/internal/core/domain"
)

var (
	// ErrSessionNotFound is returned when no session exists for a user.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoActiveSession is returned when a session carries no usable
	// credential for its active operator.
	ErrNoActiveSession = errors.New("no active session")
	// ErrAlreadyRunning rejects a collect trigger while another run is
	// active for the same user.
	ErrAlreadyRunning = errors.New("collect already running for user")
	// ErrUnknownOperator is returned for operator values outside the enum.
	ErrUnknownOperator = errors.New("unknown operator")
	// ErrSubscriptionExpired gates actions behind an active subscription.
	ErrSubscriptionExpired = errors.New("subscription expired")
	// ErrThrottled is returned when a button cooldown is still running.
	ErrThrottled = errors.New("action throttled")
	// ErrNoCampaigns terminates a run that discovered zero media.
	ErrNoCampaigns = errors.New("no campaigns available")
)

// SubscriptionStatus summarizes a user's access entitlement.
type SubscriptionStatus struct {
	Active    bool
	DaysLeft  int
	Suspended bool
}

// SessionStore is the persistence boundary for per-user session and
// subscription state. Implementations must persist credential rotations
// synchronously: the callers rely on the newest token being durable before
// the next upstream call.
type SessionStore interface {
	LoadSession(ctx context.Context, userID string) (*domain.UserSession, error)
	SaveSession(ctx context.Context, s *domain.UserSession) error
	SetOperator(ctx context.Context, userID string, op domain.Operator) error
	SubscriptionStatus(ctx context.Context, userID string) (SubscriptionStatus, error)
	// ExtendSubscription adds days to the subscription, starting from now
	// when it already lapsed.
	ExtendSubscription(ctx context.Context, userID string, days int) error
	// MarkPaymentConfirmed records a confirmed payment once. It returns
	// false when the payment id was already processed.
	MarkPaymentConfirmed(ctx context.Context, paymentID, userID string, amount int64) (bool, error)
	// ListAutoCollectUsers returns the ids of users with auto-collect
	// enabled, for the scheduled sweep.
	ListAutoCollectUsers(ctx context.Context) ([]string, error)
}

// CooldownStore throttles repeated button presses. CheckAndSet returns true
// when the action is still cooling down; otherwise it arms the cooldown and
// returns false.
type CooldownStore interface {
	CheckAndSet(ctx context.Context, userID, action string, ttl time.Duration) (bool, error)
}

// MessageHandle identifies a previously sent message for later edits.
type MessageHandle string

// Notifier pushes progress and reports to the user. Failures to notify are
// logged and swallowed by callers; they never abort the underlying workflow.
type Notifier interface {
	Send(ctx context.Context, userID, text string) (MessageHandle, error)
	Edit(ctx context.Context, userID string, handle MessageHandle, text string) error
}
