package domain

import "time"

// Credential is one operator's authorization block inside a session. Blocks
// are kept per operator so that switching programs does not discard a still
// valid login on the previous one.
type Credential struct {
	// Authorization is the bearer token sent on the x-authorization header.
	// Upstreams rotate it silently; the newest value must always win.
	Authorization string `json:"authorization"`
	// WalletID addresses the user's coin wallet on operators whose tracker
	// is keyed by wallet rather than by user.
	WalletID string `json:"wallet_id,omitempty"`
	// UserID is the carrier-internal user identifier, where one exists. It
	// is never the phone number.
	UserID string `json:"user_id,omitempty"`
	// TransactionID is returned by some verification endpoints and echoed
	// back on later calls.
	TransactionID string `json:"transaction_id,omitempty"`
}

// UserSession is the per-user authorization state shared by every component.
// One session exists per platform user; at most one operator is active at a
// time while historical credential blocks are preserved.
type UserSession struct {
	UserID      string
	Operator    Operator
	PhoneNumber string

	// Credentials holds one block per operator the user ever logged into.
	Credentials map[Operator]Credential

	// Authorization mirrors the active operator's token at the root level.
	// Old records carry only this field, so readers fall back to it when
	// the operator block is missing.
	Authorization string

	AutoCollect     bool
	SubscriptionEnd *time.Time
	Suspended       bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Credential returns the block for the given operator and whether it exists.
func (s *UserSession) Credential(op Operator) (Credential, bool) {
	if s.Credentials == nil {
		return Credential{}, false
	}
	c, ok := s.Credentials[op]
	return c, ok
}

// SetCredential stores the block for the given operator, allocating the map
// on first use, and mirrors the token at the root level when the operator is
// the active one.
func (s *UserSession) SetCredential(op Operator, c Credential) {
	if s.Credentials == nil {
		s.Credentials = make(map[Operator]Credential, 1)
	}
	s.Credentials[op] = c
	if op == s.Operator {
		s.Authorization = c.Authorization
	}
}
