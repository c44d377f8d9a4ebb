package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"carrier-rewards/internal/config/configs"
	"carrier-rewards/internal/core/domain"
	"carrier-rewards/internal/core/port"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCollectorConfig() configs.Collector {
	return configs.Collector{
		MaxBatches:     10,
		BatchTimeout:   5 * time.Second,
		WatchMin:       time.Millisecond,
		WatchMax:       2 * time.Millisecond,
		PurchasePause:  0,
		Cooldown:       time.Second,
		VoicePackageID: "12",
		DataPackageID:  "7",
		DataUnits:      4,
		AutoCollectAt:  "05:30",
		Timezone:       "America/Sao_Paulo",
	}
}

// fakeCarrier is a scriptable port.Carrier. Unset hooks answer success with
// zero values.
type fakeCarrier struct {
	op      domain.Operator
	sources []string

	balanceFn   func(token string) port.BalanceResult
	packagesFn  func(token string) port.PackagesResult
	redeemFn    func(token, packageID, destination string) port.RedeemResult
	campaignsFn func(token, identity, zone string) port.CampaignsResult
	trackFn     func(req port.TrackRequest) port.TrackResult

	mu         sync.Mutex
	trackCalls []port.TrackRequest
}

func (f *fakeCarrier) Operator() domain.Operator {
	if f.op == "" {
		return domain.OperatorPrezao
	}
	return f.op
}

func (f *fakeCarrier) RequestCode(context.Context, string) port.CodeResult { return port.CodeResult{} }

func (f *fakeCarrier) VerifyCode(context.Context, string, string) port.VerifyResult {
	return port.VerifyResult{}
}

func (f *fakeCarrier) Balance(_ context.Context, token string) port.BalanceResult {
	if f.balanceFn != nil {
		return f.balanceFn(token)
	}
	return port.BalanceResult{}
}

func (f *fakeCarrier) Packages(_ context.Context, token string) port.PackagesResult {
	if f.packagesFn != nil {
		return f.packagesFn(token)
	}
	return port.PackagesResult{}
}

func (f *fakeCarrier) Redeem(_ context.Context, token, packageID, destination string) port.RedeemResult {
	if f.redeemFn != nil {
		return f.redeemFn(token, packageID, destination)
	}
	return port.RedeemResult{}
}

func (f *fakeCarrier) Sources() []string { return f.sources }

func (f *fakeCarrier) Campaigns(_ context.Context, token, identity, zone string) port.CampaignsResult {
	if f.campaignsFn != nil {
		return f.campaignsFn(token, identity, zone)
	}
	return port.CampaignsResult{}
}

func (f *fakeCarrier) Track(_ context.Context, req port.TrackRequest) port.TrackResult {
	f.mu.Lock()
	f.trackCalls = append(f.trackCalls, req)
	f.mu.Unlock()
	if f.trackFn != nil {
		return f.trackFn(req)
	}
	return port.TrackResult{}
}

func (f *fakeCarrier) tracked() []port.TrackRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]port.TrackRequest, len(f.trackCalls))
	copy(out, f.trackCalls)
	return out
}

// fakeResolver resolves every operator to the same carrier.
type fakeResolver struct {
	carrier port.Carrier
}

func (f *fakeResolver) Carrier(domain.Operator) (port.Carrier, error) {
	return f.carrier, nil
}

// fakeStore is an in-memory port.SessionStore.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.UserSession
	payments map[string]bool
	saves    int
}

func newFakeStore(sessions ...*domain.UserSession) *fakeStore {
	s := &fakeStore{
		sessions: make(map[string]*domain.UserSession),
		payments: make(map[string]bool),
	}
	for _, sess := range sessions {
		s.sessions[sess.UserID] = sess
	}
	return s
}

func (s *fakeStore) LoadSession(_ context.Context, userID string) (*domain.UserSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, port.ErrSessionNotFound
	}
	return sess, nil
}

func (s *fakeStore) SaveSession(_ context.Context, sess *domain.UserSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.UserID] = sess
	s.saves++
	return nil
}

func (s *fakeStore) SetOperator(_ context.Context, userID string, op domain.Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return port.ErrSessionNotFound
	}
	sess.Operator = op
	return nil
}

func (s *fakeStore) SubscriptionStatus(_ context.Context, userID string) (port.SubscriptionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return port.SubscriptionStatus{}, port.ErrSessionNotFound
	}
	active := sess.SubscriptionEnd != nil && sess.SubscriptionEnd.After(time.Now())
	return port.SubscriptionStatus{Active: active, Suspended: sess.Suspended}, nil
}

func (s *fakeStore) ExtendSubscription(_ context.Context, userID string, days int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return port.ErrSessionNotFound
	}
	start := time.Now()
	if sess.SubscriptionEnd != nil && sess.SubscriptionEnd.After(start) {
		start = *sess.SubscriptionEnd
	}
	end := start.AddDate(0, 0, days)
	sess.SubscriptionEnd = &end
	return nil
}

func (s *fakeStore) MarkPaymentConfirmed(_ context.Context, paymentID, _ string, _ int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payments[paymentID] {
		return false, nil
	}
	s.payments[paymentID] = true
	return true, nil
}

func (s *fakeStore) ListAutoCollectUsers(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for id, sess := range s.sessions {
		if sess.AutoCollect && !sess.Suspended {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// fakeNotifier records everything pushed to the user.
type fakeNotifier struct {
	mu    sync.Mutex
	sends []string
	edits []string
}

func (n *fakeNotifier) Send(_ context.Context, _, text string) (port.MessageHandle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends = append(n.sends, text)
	return port.MessageHandle("h1"), nil
}

func (n *fakeNotifier) Edit(_ context.Context, _ string, _ port.MessageHandle, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.edits = append(n.edits, text)
	return nil
}

// fakeCooldown arms in memory.
type fakeCooldown struct {
	mu    sync.Mutex
	armed map[string]bool
}

func newFakeCooldown() *fakeCooldown {
	return &fakeCooldown{armed: make(map[string]bool)}
}

func (c *fakeCooldown) CheckAndSet(_ context.Context, userID, action string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := action + ":" + userID
	if c.armed[key] {
		return true, nil
	}
	c.armed[key] = true
	return false, nil
}

func testSession(userID string) *domain.UserSession {
	end := time.Now().Add(30 * 24 * time.Hour)
	return &domain.UserSession{
		UserID:      userID,
		Operator:    domain.OperatorPrezao,
		PhoneNumber: "11987654321",
		Credentials: map[domain.Operator]domain.Credential{
			domain.OperatorPrezao: {Authorization: "tok-0", WalletID: "w-1"},
		},
		Authorization:   "tok-0",
		SubscriptionEnd: &end,
	}
}
