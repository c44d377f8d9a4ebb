package usecase

import (
	"context"
	"log/slog"
	"sync"

	"carrier-rewards/internal/core/domain"
	"carrier-rewards/internal/core/port"
)

// SessionRegistry owns per-user authorization state. All credential writes
// for a session go through a per-session mutex, so two workers rotating
// tokens concurrently cannot interleave store writes; the last completed
// rotation wins, but the store never sees a torn credential block.
type SessionRegistry struct {
	store    port.SessionStore
	carriers port.CarrierResolver
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionRegistry builds a registry over the given store and adapters.
func NewSessionRegistry(store port.SessionStore, carriers port.CarrierResolver, logger *slog.Logger) *SessionRegistry {
	return &SessionRegistry{
		store:    store,
		carriers: carriers,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (r *SessionRegistry) sessionLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[userID] = l
	}
	return l
}

// ResolveCredential returns the active operator's credential block, falling
// back to the legacy root-level token carried by old records.
func (r *SessionRegistry) ResolveCredential(s *domain.UserSession) (domain.Credential, error) {
	if cred, ok := s.Credential(s.Operator); ok && cred.Authorization != "" {
		return cred, nil
	}
	if s.Authorization != "" {
		return domain.Credential{Authorization: s.Authorization}, nil
	}
	return domain.Credential{}, port.ErrNoActiveSession
}

// RotateToken overwrites both the operator-scoped and root-level token and
// persists the session synchronously. Upstream sessions are single-use
// rotating: a stale token fails the next call, not the current one, so the
// write cannot be deferred. The overwrite is idempotent.
func (r *SessionRegistry) RotateToken(ctx context.Context, s *domain.UserSession, op domain.Operator, newToken string) error {
	if newToken == "" {
		return nil
	}
	lock := r.sessionLock(s.UserID)
	lock.Lock()
	defer lock.Unlock()

	cred, _ := s.Credential(op)
	if cred.Authorization == newToken && s.Authorization == newToken {
		return nil
	}
	cred.Authorization = newToken
	s.SetCredential(op, cred)
	s.Authorization = newToken
	return r.store.SaveSession(ctx, s)
}

// UpdateCredential replaces the operator's whole credential block under the
// session lock and persists it. Used after login and when a probe refreshes
// the wallet identity.
func (r *SessionRegistry) UpdateCredential(ctx context.Context, s *domain.UserSession, op domain.Operator, cred domain.Credential) error {
	lock := r.sessionLock(s.UserID)
	lock.Lock()
	defer lock.Unlock()

	s.SetCredential(op, cred)
	return r.store.SaveSession(ctx, s)
}

// Validate probes the upstream with a lightweight balance call and reports
// whether the session is still accepted. A successful probe opportunistically
// refreshes the rotated token and wallet identity on the credential block.
func (r *SessionRegistry) Validate(ctx context.Context, s *domain.UserSession) bool {
	cred, err := r.ResolveCredential(s)
	if err != nil {
		return false
	}
	carrier, err := r.carriers.Carrier(s.Operator)
	if err != nil {
		return false
	}
	res := carrier.Balance(ctx, cred.Authorization)
	if !res.Fault.OK() {
		r.logger.Debug("session probe rejected",
			slog.String("user_id", s.UserID),
			slog.String("operator", string(s.Operator)),
			slog.String("message", res.Message))
		return false
	}

	changed := false
	if res.NewToken != "" && res.NewToken != cred.Authorization {
		cred.Authorization = res.NewToken
		changed = true
	}
	if res.WalletID != "" && res.WalletID != cred.WalletID {
		cred.WalletID = res.WalletID
		changed = true
	}
	if changed {
		if err := r.UpdateCredential(ctx, s, s.Operator, cred); err != nil {
			r.logger.Warn("failed to persist refreshed credential",
				slog.String("user_id", s.UserID), slog.Any("error", err))
		}
	}
	return true
}

// trackerIdentity picks the identifier the upstream tracker is keyed by.
// Wallet id where one exists, internal user id otherwise; never the phone.
func trackerIdentity(cred domain.Credential) string {
	if cred.WalletID != "" {
		return cred.WalletID
	}
	return cred.UserID
}
