package usecase

import (
	"context"
	"sync"
	"testing"

	"carrier-rewards/internal/core/domain"
	"carrier-rewards/internal/core/port"
)

func TestResolveCredentialOperatorBlock(t *testing.T) {
	registry := NewSessionRegistry(newFakeStore(), &fakeResolver{}, testLogger())
	session := testSession("u1")

	cred, err := registry.ResolveCredential(session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Authorization != "tok-0" || cred.WalletID != "w-1" {
		t.Fatalf("got %+v", cred)
	}
}

// Records written before per-operator blocks existed carry only the root
// token; those sessions must still resolve.
func TestResolveCredentialLegacyFallback(t *testing.T) {
	registry := NewSessionRegistry(newFakeStore(), &fakeResolver{}, testLogger())
	session := &domain.UserSession{
		UserID:        "u1",
		Operator:      domain.OperatorPontos,
		Authorization: "legacy-token",
	}

	cred, err := registry.ResolveCredential(session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Authorization != "legacy-token" {
		t.Fatalf("got %+v", cred)
	}
}

func TestResolveCredentialNoSession(t *testing.T) {
	registry := NewSessionRegistry(newFakeStore(), &fakeResolver{}, testLogger())
	_, err := registry.ResolveCredential(&domain.UserSession{UserID: "u1", Operator: domain.OperatorFun})
	if err != port.ErrNoActiveSession {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestRotateTokenPersistsImmediately(t *testing.T) {
	store := newFakeStore()
	registry := NewSessionRegistry(store, &fakeResolver{}, testLogger())
	session := testSession("u1")

	if err := registry.RotateToken(context.Background(), session, domain.OperatorPrezao, "tok-1"); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if store.saveCount() != 1 {
		t.Fatalf("expected 1 save, got %d", store.saveCount())
	}
	cred, _ := session.Credential(domain.OperatorPrezao)
	if cred.Authorization != "tok-1" || session.Authorization != "tok-1" {
		t.Fatalf("token not written through: block=%q root=%q", cred.Authorization, session.Authorization)
	}
}

func TestRotateTokenIdempotent(t *testing.T) {
	store := newFakeStore()
	registry := NewSessionRegistry(store, &fakeResolver{}, testLogger())
	session := testSession("u1")

	for i := 0; i < 3; i++ {
		if err := registry.RotateToken(context.Background(), session, domain.OperatorPrezao, "tok-0"); err != nil {
			t.Fatalf("rotate: %v", err)
		}
	}
	if store.saveCount() != 0 {
		t.Fatalf("same-token rotation must not write, got %d saves", store.saveCount())
	}
	if err := registry.RotateToken(context.Background(), session, domain.OperatorPrezao, ""); err != nil {
		t.Fatalf("empty rotate: %v", err)
	}
	if store.saveCount() != 0 {
		t.Fatalf("empty-token rotation must not write, got %d saves", store.saveCount())
	}
}

// Concurrent rotations must serialize the store writes; the session must end
// up with one of the rotated tokens in both the block and the root mirror.
func TestRotateTokenConcurrent(t *testing.T) {
	store := newFakeStore()
	registry := NewSessionRegistry(store, &fakeResolver{}, testLogger())
	session := testSession("u1")

	tokens := []string{"tok-a", "tok-b", "tok-c", "tok-d"}
	var wg sync.WaitGroup
	for _, tok := range tokens {
		wg.Add(1)
		go func(tok string) {
			defer wg.Done()
			_ = registry.RotateToken(context.Background(), session, domain.OperatorPrezao, tok)
		}(tok)
	}
	wg.Wait()

	cred, _ := session.Credential(domain.OperatorPrezao)
	if cred.Authorization != session.Authorization {
		t.Fatalf("torn write: block=%q root=%q", cred.Authorization, session.Authorization)
	}
	found := false
	for _, tok := range tokens {
		if session.Authorization == tok {
			found = true
		}
	}
	if !found {
		t.Fatalf("final token %q is not one of the rotations", session.Authorization)
	}
}

func TestValidateRefreshesCredential(t *testing.T) {
	carrier := &fakeCarrier{
		balanceFn: func(token string) port.BalanceResult {
			return port.BalanceResult{Balance: 10, WalletID: "w-new", NewToken: "tok-new"}
		},
	}
	store := newFakeStore()
	registry := NewSessionRegistry(store, &fakeResolver{carrier: carrier}, testLogger())
	session := testSession("u1")
	store.sessions["u1"] = session

	if !registry.Validate(context.Background(), session) {
		t.Fatal("expected valid session")
	}
	cred, _ := session.Credential(domain.OperatorPrezao)
	if cred.Authorization != "tok-new" || cred.WalletID != "w-new" {
		t.Fatalf("credential not refreshed: %+v", cred)
	}
}

func TestValidateRejectedProbe(t *testing.T) {
	carrier := &fakeCarrier{
		balanceFn: func(string) port.BalanceResult {
			return port.BalanceResult{Fault: port.FaultSessionExpired}
		},
	}
	registry := NewSessionRegistry(newFakeStore(), &fakeResolver{carrier: carrier}, testLogger())
	if registry.Validate(context.Background(), testSession("u1")) {
		t.Fatal("expected invalid session")
	}
}

func TestTrackerIdentity(t *testing.T) {
	if got := trackerIdentity(domain.Credential{WalletID: "w", UserID: "u"}); got != "w" {
		t.Fatalf("wallet should win, got %q", got)
	}
	if got := trackerIdentity(domain.Credential{UserID: "u"}); got != "u" {
		t.Fatalf("user id fallback, got %q", got)
	}
}
