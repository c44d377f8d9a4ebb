package carrier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"carrier-rewards/internal/config/configs"
	"carrier-rewards/internal/core/domain"
	"carrier-rewards/internal/core/port"
)

func newTestPontos(baseURL string) *Pontos {
	return NewPontos(configs.Pontos{
		BaseURL:      baseURL,
		InitialToken: "bootstrap",
		Zones:        []string{"zone-1", "zone-2"},
	}, testUpstream(), testLogger())
}

// Validation issues a token on the response header, and the balance probe
// right after picks up the first rotation. The wallet identity comes out of
// the token claims, not out of any response body.
func TestPontosVerifyCodeRotation(t *testing.T) {
	rotated := signedToken(t, jwt.MapClaims{
		"X-USER-ID":   "u-77",
		"X-WALLET-ID": "w-77",
	})
	mux := http.NewServeMux()
	mux.HandleFunc("/authentication/anonymous/validate", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-authorization") != "bootstrap" {
			t.Errorf("expected bootstrap token, got %q", r.Header.Get("x-authorization"))
		}
		if r.Header.Get("x-msisdn") != "5511987654321" {
			t.Errorf("expected international msisdn, got %q", r.Header.Get("x-msisdn"))
		}
		w.Header().Set("x-authorization", "first-token")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/hmld", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-authorization") != "first-token" {
			t.Errorf("probe used %q", r.Header.Get("x-authorization"))
		}
		w.Header().Set("x-authorization", rotated)
		w.Write([]byte(`{"wallet":{"id":"w-77","balance":10}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := newTestPontos(srv.URL).VerifyCode(context.Background(), "11987654321", "123456")
	if !res.Fault.OK() {
		t.Fatalf("unexpected fault: %v (%s)", res.Fault, res.Message)
	}
	if res.Credential.Authorization != rotated {
		t.Fatalf("expected probe rotation to win, got %q", res.Credential.Authorization)
	}
	if res.Credential.UserID != "u-77" || res.Credential.WalletID != "w-77" {
		t.Fatalf("claims not extracted: %+v", res.Credential)
	}
}

func TestPontosRedeemRejectedByBodyCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["packageId"] != float64(7) {
			t.Errorf("package id not numeric: %v", body["packageId"])
		}
		if body["destinationMsisdn"] != "5511987654321" {
			t.Errorf("destination %v", body["destinationMsisdn"])
		}
		w.Write([]byte(`{"code":"FAILED","message":"saldo insuficiente"}`))
	}))
	defer srv.Close()

	res := newTestPontos(srv.URL).Redeem(context.Background(), "tok", "7", "11987654321")
	if res.Fault != port.FaultUpstreamRejected {
		t.Fatalf("expected rejection, got %v", res.Fault)
	}
	if res.Message != "saldo insuficiente" {
		t.Fatalf("got message %q", res.Message)
	}
}

func TestPontosCampaignsEmptyZone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-authorization", "tok-next")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	res := newTestPontos(srv.URL).Campaigns(context.Background(), "tok", "w-1", "zone-1")
	if !res.Fault.OK() || len(res.Items) != 0 {
		t.Fatalf("expected empty success, got fault=%v items=%d", res.Fault, len(res.Items))
	}
	if res.NewToken != "tok-next" {
		t.Fatalf("rotation lost on 204: %q", res.NewToken)
	}
}

func TestPontosTrackEventNames(t *testing.T) {
	var gotEvent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEvent = r.URL.Query().Get("e")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	p := newTestPontos(srv.URL)

	p.Track(context.Background(), port.TrackRequest{Token: "t", Event: domain.EventStart})
	if gotEvent != "start" {
		t.Fatalf("start mapped to %q", gotEvent)
	}
	p.Track(context.Background(), port.TrackRequest{Token: "t", Event: domain.EventComplete})
	if gotEvent != "complete" {
		t.Fatalf("complete mapped to %q", gotEvent)
	}

	gotEvent = ""
	res := p.Track(context.Background(), port.TrackRequest{Token: "t", Event: domain.EventCampaignDone})
	if !res.Fault.OK() || gotEvent != "" {
		t.Fatalf("campaign-done must be a no-op, fault=%v e=%q", res.Fault, gotEvent)
	}
}
