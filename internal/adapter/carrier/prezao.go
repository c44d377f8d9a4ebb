package carrier

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"carrier-rewards/internal/config/configs"
	"carrier-rewards/internal/core/domain"
	"carrier-rewards/internal/core/port"
)

// Prezao talks to the web-channel rewards program. Authentication rides on
// the x-authorization header and never rotates within a session; the tracker
// is addressed by the wallet id exposed on the balance endpoint. Campaigns
// are queried across a fixed list of zones.
type Prezao struct {
	cfg configs.Prezao
	tr  *transport
}

// NewPrezao builds the adapter over a shared transport configuration.
func NewPrezao(cfg configs.Prezao, up configs.Upstream, logger *slog.Logger) *Prezao {
	headers := map[string]string{
		"x-channel":       cfg.Channel,
		"x-app-version":   cfg.AppVersion,
		"user-agent":      up.UserAgent,
		"x-connectivity":  "true",
		"accept":          "application/json, text/plain, */*",
		"accept-language": "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
	}
	return &Prezao{
		cfg: cfg,
		tr:  newTransport(cfg.BaseURL, up.Timeout, up.RetryAttempts, up.RetryDelay, headers, logger.With(slog.String("carrier", string(domain.OperatorPrezao)))),
	}
}

func (p *Prezao) Operator() domain.Operator { return domain.OperatorPrezao }

func (p *Prezao) RequestCode(ctx context.Context, phone string) port.CodeResult {
	msisdn, ok := normalizePhone(phone)
	if !ok {
		return port.CodeResult{Fault: port.FaultInvalidPhone, Message: "phone must have 11 digits"}
	}
	resp, err := p.tr.do(ctx, "POST", "pnde", map[string]string{"x-user-id": msisdn}, nil,
		map[string]string{"msisdn": msisdn})
	if err != nil {
		return port.CodeResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if !resp.ok() {
		return port.CodeResult{Fault: classifyFailure(resp.Status, resp.text()), Message: upstreamMessage(resp.Body)}
	}
	return port.CodeResult{}
}

func (p *Prezao) VerifyCode(ctx context.Context, phone, code string) port.VerifyResult {
	msisdn, ok := normalizePhone(phone)
	if !ok {
		return port.VerifyResult{Fault: port.FaultInvalidPhone, Message: "phone must have 11 digits"}
	}
	if !validCode(code) {
		return port.VerifyResult{Fault: port.FaultInvalidCode, Message: "code must have 6 digits"}
	}
	resp, err := p.tr.do(ctx, "POST", "vapi",
		map[string]string{"x-user-id": msisdn, "x-pincode": code}, nil,
		map[string]string{"token": code})
	if err != nil {
		return port.VerifyResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if !resp.ok() {
		return port.VerifyResult{Fault: port.FaultUpstreamRejected, Message: upstreamMessage(resp.Body)}
	}

	// The token usually arrives on the response header; older backends put
	// it in the body instead.
	token := resp.token()
	var body struct {
		ID            string `json:"id"`
		Authorization string `json:"authorization"`
	}
	_ = resp.decode(&body)
	if token == "" {
		token = body.Authorization
	}
	if token == "" {
		return port.VerifyResult{Fault: port.FaultUpstreamRejected, Message: "no authorization token issued"}
	}
	return port.VerifyResult{Credential: domain.Credential{
		Authorization: token,
		UserID:        body.ID,
		TransactionID: resp.Header.Get("x-transaction-id"),
	}}
}

func (p *Prezao) Balance(ctx context.Context, token string) port.BalanceResult {
	resp, err := p.tr.do(ctx, "GET", "hmld", map[string]string{"x-authorization": token}, nil, nil)
	if err != nil {
		return port.BalanceResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if !resp.ok() {
		return port.BalanceResult{Fault: classifyFailure(resp.Status, resp.text()), Message: upstreamMessage(resp.Body)}
	}
	var env walletEnvelope
	if err := resp.decode(&env); err != nil || env.Wallet.ID == "" {
		return port.BalanceResult{Fault: port.FaultUpstreamRejected, Message: "wallet missing in response"}
	}
	return port.BalanceResult{Balance: env.Wallet.Balance, WalletID: env.Wallet.ID}
}

func (p *Prezao) Packages(ctx context.Context, token string) port.PackagesResult {
	resp, err := p.tr.do(ctx, "GET", "przl", map[string]string{"x-authorization": token}, nil, nil)
	if err != nil {
		return port.PackagesResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if !resp.ok() {
		return port.PackagesResult{Fault: classifyFailure(resp.Status, resp.text()), Message: upstreamMessage(resp.Body)}
	}
	var env packagesEnvelope
	if err := resp.decode(&env); err != nil {
		return port.PackagesResult{Fault: port.FaultUpstreamRejected, Message: "malformed package list"}
	}
	return port.PackagesResult{Packages: toPackages(env)}
}

// Redeem spends coins on a package. The destination is always implicit for
// this operator; the payload carries a null destinationMsisdn.
func (p *Prezao) Redeem(ctx context.Context, token, packageID, _ string) port.RedeemResult {
	resp, err := p.tr.do(ctx, "POST", "wtdr", map[string]string{"x-authorization": token}, nil,
		map[string]any{"packageId": packageID, "destinationMsisdn": nil})
	if err != nil {
		return port.RedeemResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if !resp.ok() {
		if quotaReached(resp.text()) {
			return port.RedeemResult{Fault: port.FaultQuotaExceeded, LimitReached: true, Message: "daily redemption limit reached"}
		}
		return port.RedeemResult{Fault: classifyFailure(resp.Status, resp.text()), Message: upstreamMessage(resp.Body)}
	}
	return port.RedeemResult{}
}

func (p *Prezao) Sources() []string { return p.cfg.Zones }

func (p *Prezao) Campaigns(ctx context.Context, token, identity, zone string) port.CampaignsResult {
	headers := map[string]string{
		"x-authorization":        token,
		"x-artemis-channel-uuid": p.cfg.ArtemisChannelUUID,
		"x-access-token":         p.cfg.AccessToken,
	}
	body := map[string]any{
		"userId": identity,
		"contextInfo": map[string]string{
			"os":           p.cfg.Channel,
			"brand":        p.tr.headers["user-agent"],
			"manufacturer": "Win32",
			"osVersion":    "Win32",
			"eventDate":    strconv.FormatInt(time.Now().UnixMilli(), 10),
			"battery":      "63",
			"lat":          "Unknown",
			"long":         "Unknown",
		},
	}
	resp, err := p.tr.do(ctx, "POST", "adserver/campaign/v3/"+zone, headers, url.Values{"size": {"100"}}, body)
	if err != nil {
		return port.CampaignsResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if resp.Status == 204 {
		return port.CampaignsResult{}
	}
	if !resp.ok() {
		return port.CampaignsResult{Fault: classifyFailure(resp.Status, resp.text()), Message: upstreamMessage(resp.Body)}
	}
	var env zoneResponse
	if err := resp.decode(&env); err != nil {
		return port.CampaignsResult{Fault: port.FaultUpstreamRejected, Message: "malformed campaign response"}
	}
	return port.CampaignsResult{Items: env.flatten(zone, false)}
}

// Track sends one tracking event through the ad-server tracker. The event
// rides in query parameters; the media id is only attached on completion.
func (p *Prezao) Track(ctx context.Context, req port.TrackRequest) port.TrackResult {
	event, ok := p.eventName(req.Event)
	if !ok {
		// No campaign-closing event on this operator.
		return port.TrackResult{}
	}
	params := url.Values{
		"e":         {event},
		"c":         {req.CampaignID},
		"u":         {req.Identity},
		"requestId": {req.TrackingID},
	}
	if req.Event == domain.EventComplete && req.MediaID != "" {
		params.Set("m", req.MediaID)
	}
	headers := map[string]string{
		"x-authorization":        req.Token,
		"x-access-token":         p.cfg.AccessToken,
		"x-artemis-channel-uuid": p.cfg.ArtemisChannelUUID,
	}
	resp, err := p.tr.do(ctx, "POST", "adserver/tracker", headers, params, nil)
	if err != nil {
		return port.TrackResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if !resp.ok() {
		return port.TrackResult{Fault: classifyFailure(resp.Status, resp.text()), Message: upstreamMessage(resp.Body)}
	}
	return port.TrackResult{NewToken: resp.token()}
}

func (p *Prezao) eventName(e domain.Event) (string, bool) {
	switch e {
	case domain.EventStart:
		return "impression", true
	case domain.EventComplete:
		return "complete", true
	default:
		return "", false
	}
}
