package carrier

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carrier-rewards/internal/config/configs"
	"carrier-rewards/internal/core/domain"
	"carrier-rewards/internal/core/port"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testUpstream() configs.Upstream {
	return configs.Upstream{
		Timeout:       2 * time.Second,
		RetryAttempts: 0,
		RetryDelay:    time.Millisecond,
		UserAgent:     "test-agent",
	}
}

func newTestPrezao(baseURL string) *Prezao {
	return NewPrezao(configs.Prezao{
		BaseURL: baseURL,
		Channel: "WEB",
		Zones:   []string{"zone-a", "zone-b"},
	}, testUpstream(), testLogger())
}

func TestPrezaoBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hmld" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-authorization") != "tok-1" {
			t.Errorf("missing auth header")
		}
		w.Write([]byte(`{"wallet":{"id":"w-9","balance":350}}`))
	}))
	defer srv.Close()

	res := newTestPrezao(srv.URL).Balance(context.Background(), "tok-1")
	if !res.Fault.OK() {
		t.Fatalf("unexpected fault: %v (%s)", res.Fault, res.Message)
	}
	if res.Balance != 350 || res.WalletID != "w-9" {
		t.Fatalf("got balance=%d wallet=%q", res.Balance, res.WalletID)
	}
}

func TestPrezaoRedeemQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Limite diário excedido"}`))
	}))
	defer srv.Close()

	res := newTestPrezao(srv.URL).Redeem(context.Background(), "tok", "12", "")
	if res.Fault != port.FaultQuotaExceeded || !res.LimitReached {
		t.Fatalf("expected quota fault, got %v limit=%v", res.Fault, res.LimitReached)
	}
}

func TestPrezaoTrackEvents(t *testing.T) {
	var gotEvent, gotMedia string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEvent = r.URL.Query().Get("e")
		gotMedia = r.URL.Query().Get("m")
		w.Header().Set("x-authorization", "tok-next")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	p := newTestPrezao(srv.URL)

	res := p.Track(context.Background(), port.TrackRequest{
		Token: "tok", Event: domain.EventStart, CampaignID: "c1", TrackingID: "r1", Identity: "w1", MediaID: "m1",
	})
	if !res.Fault.OK() || gotEvent != "impression" || gotMedia != "" {
		t.Fatalf("start event: fault=%v e=%q m=%q", res.Fault, gotEvent, gotMedia)
	}
	if res.NewToken != "tok-next" {
		t.Fatalf("rotated token not captured: %q", res.NewToken)
	}

	res = p.Track(context.Background(), port.TrackRequest{
		Token: "tok", Event: domain.EventComplete, CampaignID: "c1", TrackingID: "r1", Identity: "w1", MediaID: "m1",
	})
	if !res.Fault.OK() || gotEvent != "complete" || gotMedia != "m1" {
		t.Fatalf("complete event: fault=%v e=%q m=%q", res.Fault, gotEvent, gotMedia)
	}
}

// The web-channel program has no campaign-closing event; the request must be
// answered as a successful no-op without touching the upstream.
func TestPrezaoTrackCampaignDoneNoOp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer srv.Close()

	res := newTestPrezao(srv.URL).Track(context.Background(), port.TrackRequest{
		Token: "tok", Event: domain.EventCampaignDone, CampaignID: "c1",
	})
	if !res.Fault.OK() {
		t.Fatalf("expected no-op success, got %v", res.Fault)
	}
}

func TestPrezaoVerifyCodeValidation(t *testing.T) {
	p := newTestPrezao("http://invalid.test")
	if res := p.VerifyCode(context.Background(), "123", "123456"); res.Fault != port.FaultInvalidPhone {
		t.Fatalf("expected invalid phone, got %v", res.Fault)
	}
	if res := p.VerifyCode(context.Background(), "11987654321", "12x"); res.Fault != port.FaultInvalidCode {
		t.Fatalf("expected invalid code, got %v", res.Fault)
	}
}

func TestPrezaoVerifyCodeBodyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"u-3","authorization":"body-token"}`))
	}))
	defer srv.Close()

	res := newTestPrezao(srv.URL).VerifyCode(context.Background(), "5511987654321", "654321")
	if !res.Fault.OK() {
		t.Fatalf("unexpected fault: %v (%s)", res.Fault, res.Message)
	}
	if res.Credential.Authorization != "body-token" || res.Credential.UserID != "u-3" {
		t.Fatalf("got credential %+v", res.Credential)
	}
}
