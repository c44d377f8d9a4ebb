package carrier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"carrier-rewards/internal/config/configs"
	"carrier-rewards/internal/core/domain"
	"carrier-rewards/internal/core/port"
)

func newTestFun(baseURL string) *Fun {
	return NewFun(configs.Fun{
		BaseURL:      baseURL,
		InitialToken: "bootstrap",
		Zone:         "zone-x",
	}, testUpstream(), testLogger())
}

const mixedZonePayload = `{"campaigns":[{
  "campaignUuid":"c-1","campaignName":"Promo","trackingId":"t-1",
  "benefitOffers":[{"type":"coins","amount":5}],
  "mainData":{"media":[
    {"uuid":"m-video","title":"Video","type":"programatica",
     "fallbackNoFill":{"type":"vast","modeVideo":true,"originalContent":"https://cdn/video.mp4"}},
    {"uuid":"m-banner","title":"Banner","type":"banner",
     "fallbackNoFill":{"type":"image","modeVideo":false,"originalContent":"https://cdn/banner.png"}},
    {"uuid":"m-novast","title":"NoFill","type":"programatica",
     "fallbackNoFill":{"type":"vast","modeVideo":true,"originalContent":""}}
  ]}
}]}`

// Only programmatic media with a filled VAST video fallback survive the zone
// filter on this operator.
func TestFunCampaignsVideoFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mixedZonePayload))
	}))
	defer srv.Close()

	res := newTestFun(srv.URL).Campaigns(context.Background(), "tok", "user-internal", "zone-x")
	if !res.Fault.OK() {
		t.Fatalf("unexpected fault: %v (%s)", res.Fault, res.Message)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 playable video, got %d", len(res.Items))
	}
	item := res.Items[0]
	if item.Media.ID != "m-video" || item.Media.VideoURL != "https://cdn/video.mp4" {
		t.Fatalf("wrong media survived: %+v", item.Media)
	}
	if item.Campaign.ID != "c-1" || item.Campaign.TrackingID != "t-1" || item.Source != "zone-x" {
		t.Fatalf("campaign context lost: %+v", item)
	}
}

func TestFunRejectsPhoneShapedIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for rejected identity")
	}))
	defer srv.Close()
	f := newTestFun(srv.URL)

	if res := f.Campaigns(context.Background(), "tok", "11987654321", "zone-x"); res.Fault != port.FaultUpstreamRejected {
		t.Fatalf("campaigns accepted phone identity: %v", res.Fault)
	}
	if res := f.Campaigns(context.Background(), "tok", "", "zone-x"); res.Fault != port.FaultUpstreamRejected {
		t.Fatalf("campaigns accepted empty identity: %v", res.Fault)
	}
	if res := f.Track(context.Background(), port.TrackRequest{Token: "tok", Event: domain.EventStart, Identity: "11987654321"}); res.Fault != port.FaultUpstreamRejected {
		t.Fatalf("track accepted phone identity: %v", res.Fault)
	}
}

func TestFunTrackCampaignDone(t *testing.T) {
	var gotEvent, gotMedia string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEvent = r.URL.Query().Get("e")
		gotMedia = r.URL.Query().Get("m")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := newTestFun(srv.URL).Track(context.Background(), port.TrackRequest{
		Token: "tok", Event: domain.EventCampaignDone, CampaignID: "c-1",
		TrackingID: "t-1", Identity: "user-internal", MediaID: "m-1",
	})
	if !res.Fault.OK() {
		t.Fatalf("unexpected fault: %v", res.Fault)
	}
	if gotEvent != "success_impression" {
		t.Fatalf("campaign-done mapped to %q", gotEvent)
	}
	if gotMedia != "" {
		t.Fatalf("closing event must not carry media id, got %q", gotMedia)
	}
}

// The login flow resolves the carrier-internal user id from the wallet; a
// session whose wallet cannot be resolved is refused outright.
func TestFunVerifyCodeResolvesUserID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/authentication/anonymous/validate", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-authorization", "session-token")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/home", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"wallet":{"id":"internal-55","balance":0}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := newTestFun(srv.URL).VerifyCode(context.Background(), "11987654321", "123456")
	if !res.Fault.OK() {
		t.Fatalf("unexpected fault: %v (%s)", res.Fault, res.Message)
	}
	if res.Credential.UserID != "internal-55" {
		t.Fatalf("user id not resolved: %+v", res.Credential)
	}
}

func TestFunVerifyCodeUnresolvableUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/authentication/anonymous/validate", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-authorization", "opaque-token")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/home", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := newTestFun(srv.URL).VerifyCode(context.Background(), "11987654321", "123456")
	if res.Fault != port.FaultUpstreamRejected {
		t.Fatalf("expected rejection, got %v", res.Fault)
	}
}
