package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"carrier-rewards/internal/core/domain"
	"carrier-rewards/internal/core/port"
)

// SessionRepository implements port.SessionStore using pgxpool for
// PostgreSQL. Credential blocks are stored as a jsonb column keyed by
// operator so a new operator never needs a schema change.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a new repository instance.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// LoadSession returns the session for the user or port.ErrSessionNotFound.
func (r *SessionRepository) LoadSession(ctx context.Context, userID string) (*domain.UserSession, error) {
	var (
		s        domain.UserSession
		operator string
		credsRaw []byte
	)
	err := r.pool.QueryRow(ctx, `
        SELECT user_id, operator, phone_number, credentials, auth_token,
               auto_collect, subscription_end, suspended, created_at, updated_at
        FROM sessions WHERE user_id = $1`, userID).
		Scan(&s.UserID, &operator, &s.PhoneNumber, &credsRaw, &s.Authorization,
			&s.AutoCollect, &s.SubscriptionEnd, &s.Suspended, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Operator = domain.Operator(operator)
	if len(credsRaw) > 0 {
		if err = json.Unmarshal(credsRaw, &s.Credentials); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// SaveSession upserts the whole session row. Callers serialize concurrent
// writes per user, so last-write-wins here is safe.
func (r *SessionRepository) SaveSession(ctx context.Context, s *domain.UserSession) error {
	credsRaw, err := json.Marshal(s.Credentials)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	_, err = r.pool.Exec(ctx, `
        INSERT INTO sessions (user_id, operator, phone_number, credentials, auth_token,
                              auto_collect, subscription_end, suspended, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (user_id) DO UPDATE SET
            operator = EXCLUDED.operator,
            phone_number = EXCLUDED.phone_number,
            credentials = EXCLUDED.credentials,
            auth_token = EXCLUDED.auth_token,
            auto_collect = EXCLUDED.auto_collect,
            subscription_end = EXCLUDED.subscription_end,
            suspended = EXCLUDED.suspended,
            updated_at = EXCLUDED.updated_at`,
		s.UserID, string(s.Operator), s.PhoneNumber, credsRaw, s.Authorization,
		s.AutoCollect, s.SubscriptionEnd, s.Suspended, s.CreatedAt, s.UpdatedAt)
	return err
}

// SetOperator switches the user's active operator without touching the stored
// credential blocks.
func (r *SessionRepository) SetOperator(ctx context.Context, userID string, op domain.Operator) error {
	if !op.Valid() {
		return port.ErrUnknownOperator
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions SET operator = $1, updated_at = now() WHERE user_id = $2`,
		string(op), userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return port.ErrSessionNotFound
	}
	return nil
}

// SubscriptionStatus computes the entitlement from the stored end date.
func (r *SessionRepository) SubscriptionStatus(ctx context.Context, userID string) (port.SubscriptionStatus, error) {
	var (
		end       *time.Time
		suspended bool
	)
	err := r.pool.QueryRow(ctx,
		`SELECT subscription_end, suspended FROM sessions WHERE user_id = $1`, userID).
		Scan(&end, &suspended)
	if errors.Is(err, pgx.ErrNoRows) {
		return port.SubscriptionStatus{}, port.ErrSessionNotFound
	}
	if err != nil {
		return port.SubscriptionStatus{}, err
	}

	status := port.SubscriptionStatus{Suspended: suspended}
	if end != nil && end.After(time.Now()) {
		status.Active = true
		status.DaysLeft = int(time.Until(*end).Hours() / 24)
	}
	return status, nil
}

// ExtendSubscription adds days to the subscription. A lapsed subscription
// restarts from now instead of back-filling the gap.
func (r *SessionRepository) ExtendSubscription(ctx context.Context, userID string, days int) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE sessions
        SET subscription_end = GREATEST(COALESCE(subscription_end, now()), now()) + make_interval(days => $1),
            suspended = false,
            updated_at = now()
        WHERE user_id = $2`, days, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return port.ErrSessionNotFound
	}
	return nil
}

// MarkPaymentConfirmed records a payment exactly once. The payment id is the
// primary key, so a replayed webhook hits the conflict clause and reports
// false without a second insert.
func (r *SessionRepository) MarkPaymentConfirmed(ctx context.Context, paymentID, userID string, amount int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
        INSERT INTO payments (payment_id, user_id, amount, confirmed_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (payment_id) DO NOTHING`, paymentID, userID, amount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListAutoCollectUsers returns every user opted into the scheduled sweep.
func (r *SessionRepository) ListAutoCollectUsers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM sessions WHERE auto_collect AND NOT suspended ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var id string
		err := row.Scan(&id)
		return id, err
	})
}
