package carrier

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"carrier-rewards/internal/config/configs"
	"carrier-rewards/internal/core/domain"
	"carrier-rewards/internal/core/port"
)

// Pontos talks to the first android-channel program. Its defining quirk is
// aggressive token rotation: nearly every response may carry a fresh token
// on the x-authorization header, and the previous one dies with it. Every
// result therefore surfaces NewToken for the session registry to persist.
// The tracker identity is the wallet id, recovered from the token claims.
type Pontos struct {
	cfg configs.Pontos
	tr  *transport
}

// NewPontos builds the adapter over a shared transport configuration.
func NewPontos(cfg configs.Pontos, up configs.Upstream, logger *slog.Logger) *Pontos {
	headers := map[string]string{
		"x-channel":              "ANDROID",
		"x-app-version":          cfg.AppVersion,
		"user-agent":             up.UserAgent,
		"x-artemis-channel-uuid": cfg.ArtemisChannelUUID,
		"x-access-token":         cfg.AccessToken,
		"accept-encoding":        "gzip",
	}
	return &Pontos{
		cfg: cfg,
		tr:  newTransport(cfg.BaseURL, up.Timeout, up.RetryAttempts, up.RetryDelay, headers, logger.With(slog.String("carrier", string(domain.OperatorPontos)))),
	}
}

func (p *Pontos) Operator() domain.Operator { return domain.OperatorPontos }

func (p *Pontos) RequestCode(ctx context.Context, phone string) port.CodeResult {
	if _, ok := normalizePhone(phone); !ok {
		return port.CodeResult{Fault: port.FaultInvalidPhone, Message: "phone must have 11 digits"}
	}
	msisdn := internationalMSISDN(phone)
	headers := map[string]string{
		"x-authorization": p.cfg.InitialToken,
		"x-msisdn":        msisdn,
	}
	resp, err := p.tr.do(ctx, "POST", "authentication/anonymous/activate", headers, nil,
		map[string]string{"msisdn": msisdn})
	if err != nil {
		return port.CodeResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if !resp.ok() {
		return port.CodeResult{Fault: classifyFailure(resp.Status, resp.text()), Message: upstreamMessage(resp.Body)}
	}
	return port.CodeResult{}
}

func (p *Pontos) VerifyCode(ctx context.Context, phone, code string) port.VerifyResult {
	if _, ok := normalizePhone(phone); !ok {
		return port.VerifyResult{Fault: port.FaultInvalidPhone, Message: "phone must have 11 digits"}
	}
	if !validCode(code) {
		return port.VerifyResult{Fault: port.FaultInvalidCode, Message: "code must have 6 digits"}
	}
	headers := map[string]string{
		"x-authorization": p.cfg.InitialToken,
		"x-msisdn":        internationalMSISDN(phone),
		"x-pincode":       code,
	}
	resp, err := p.tr.do(ctx, "POST", "authentication/anonymous/validate", headers, nil, nil)
	if err != nil {
		return port.VerifyResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if !resp.ok() {
		return port.VerifyResult{Fault: port.FaultUpstreamRejected, Message: upstreamMessage(resp.Body)}
	}
	token := resp.token()
	if token == "" {
		return port.VerifyResult{Fault: port.FaultUpstreamRejected, Message: "no authorization token issued"}
	}

	// A balance probe right after validation picks up the first rotation,
	// leaving the session with a token that is actually usable.
	if probe := p.Balance(ctx, token); probe.Fault.OK() && probe.NewToken != "" {
		token = probe.NewToken
	}

	userID, walletID := tokenClaims(token)
	return port.VerifyResult{Credential: domain.Credential{
		Authorization: token,
		UserID:        userID,
		WalletID:      walletID,
	}}
}

func (p *Pontos) Balance(ctx context.Context, token string) port.BalanceResult {
	resp, err := p.tr.do(ctx, "GET", "hmld", map[string]string{"x-authorization": token}, nil, nil)
	if err != nil {
		return port.BalanceResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if !resp.ok() {
		return port.BalanceResult{Fault: classifyFailure(resp.Status, resp.text()), Message: upstreamMessage(resp.Body)}
	}
	var env walletEnvelope
	if err := resp.decode(&env); err != nil {
		return port.BalanceResult{Fault: port.FaultUpstreamRejected, Message: "malformed wallet response"}
	}
	return port.BalanceResult{Balance: env.Wallet.Balance, WalletID: env.Wallet.ID, NewToken: resp.token()}
}

func (p *Pontos) Packages(ctx context.Context, token string) port.PackagesResult {
	resp, err := p.tr.do(ctx, "GET", "prize-list/v2", map[string]string{"x-authorization": token}, nil, nil)
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

// Redeem spends coins on a package. This operator delivers the bonus to a
// phone number, so the destination is sent in full international form.
func (p *Pontos) Redeem(ctx context.Context, token, packageID, destination string) port.RedeemResult {
	id, err := strconv.Atoi(packageID)
	if err != nil {
		return port.RedeemResult{Fault: port.FaultUpstreamRejected, Message: "package id must be numeric"}
	}
	resp, err := p.tr.do(ctx, "POST", "withdraw", map[string]string{"x-authorization": token}, nil,
		map[string]any{"packageId": id, "destinationMsisdn": internationalMSISDN(destination)})
	if err != nil {
		return port.RedeemResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = resp.decode(&body)
	if !resp.ok() || (body.Code != "" && body.Code != "SUCCESS") {
		if quotaReached(resp.text()) {
			return port.RedeemResult{Fault: port.FaultQuotaExceeded, LimitReached: true, Message: "daily redemption limit reached", NewToken: resp.token()}
		}
		msg := body.Message
		if msg == "" {
			msg = upstreamMessage(resp.Body)
		}
		return port.RedeemResult{Fault: classifyFailure(resp.Status, resp.text()), Message: msg, NewToken: resp.token()}
	}
	return port.RedeemResult{NewToken: resp.token()}
}

func (p *Pontos) Sources() []string { return p.cfg.Zones }

func (p *Pontos) Campaigns(ctx context.Context, token, identity, zone string) port.CampaignsResult {
	body := map[string]any{
		"context": androidAdContext(p.cfg.AppVersion),
		"userId":  identity,
	}
	resp, err := p.tr.do(ctx, "POST", "adserver/campaign/v3/"+zone,
		map[string]string{"x-authorization": token}, url.Values{"size": {"100"}}, body)
	if err != nil {
		return port.CampaignsResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if resp.Status == 204 {
		return port.CampaignsResult{NewToken: resp.token()}
	}
	if !resp.ok() {
		return port.CampaignsResult{Fault: classifyFailure(resp.Status, resp.text()), Message: upstreamMessage(resp.Body), NewToken: resp.token()}
	}
	var env zoneResponse
	if err := resp.decode(&env); err != nil {
		return port.CampaignsResult{Fault: port.FaultUpstreamRejected, Message: "malformed campaign response", NewToken: resp.token()}
	}
	return port.CampaignsResult{Items: env.flatten(zone, false), NewToken: resp.token()}
}

func (p *Pontos) Track(ctx context.Context, req port.TrackRequest) port.TrackResult {
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
	resp, err := p.tr.do(ctx, "POST", "adserver/tracker",
		map[string]string{"x-authorization": req.Token}, params, map[string]any{})
	if err != nil {
		return port.TrackResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if !resp.ok() {
		return port.TrackResult{Fault: classifyFailure(resp.Status, resp.text()), Message: upstreamMessage(resp.Body), NewToken: resp.token()}
	}
	return port.TrackResult{NewToken: resp.token()}
}

func (p *Pontos) eventName(e domain.Event) (string, bool) {
	switch e {
	case domain.EventStart:
		return "start", true
	case domain.EventComplete:
		return "complete", true
	default:
		return "", false
	}
}
