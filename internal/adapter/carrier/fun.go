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

// Fun talks to the second android-channel program. It exposes a single
// campaign zone whose payload mixes video and non-video media, is addressed
// by a carrier-internal user id (never the phone number), and expects a
// success_impression closing event once every media of a campaign has been
// watched.
type Fun struct {
	cfg configs.Fun
	tr  *transport
}

// NewFun builds the adapter over a shared transport configuration.
func NewFun(cfg configs.Fun, up configs.Upstream, logger *slog.Logger) *Fun {
	headers := map[string]string{
		"x-channel":       "ANDROID",
		"x-app-version":   cfg.AppVersion,
		"user-agent":      up.UserAgent,
		"x-connectivity":  "true",
		"accept-encoding": "gzip",
	}
	return &Fun{
		cfg: cfg,
		tr:  newTransport(cfg.BaseURL, up.Timeout, up.RetryAttempts, up.RetryDelay, headers, logger.With(slog.String("carrier", string(domain.OperatorFun)))),
	}
}

func (f *Fun) Operator() domain.Operator { return domain.OperatorFun }

func (f *Fun) RequestCode(ctx context.Context, phone string) port.CodeResult {
	msisdn, ok := normalizePhone(phone)
	if !ok {
		return port.CodeResult{Fault: port.FaultInvalidPhone, Message: "phone must have 11 digits"}
	}
	headers := map[string]string{
		"x-authorization": f.cfg.InitialToken,
		"x-msisdn":        msisdn,
		"x-ignore-session-expired": "true",
	}
	resp, err := f.tr.do(ctx, "POST", "authentication/anonymous/activate", headers, nil,
		map[string]string{"msisdn": msisdn})
	if err != nil {
		return port.CodeResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if !resp.ok() {
		return port.CodeResult{Fault: classifyFailure(resp.Status, resp.text()), Message: upstreamMessage(resp.Body)}
	}
	return port.CodeResult{}
}

func (f *Fun) VerifyCode(ctx context.Context, phone, code string) port.VerifyResult {
	msisdn, ok := normalizePhone(phone)
	if !ok {
		return port.VerifyResult{Fault: port.FaultInvalidPhone, Message: "phone must have 11 digits"}
	}
	if !validCode(code) {
		return port.VerifyResult{Fault: port.FaultInvalidCode, Message: "code must have 6 digits"}
	}
	headers := map[string]string{
		"x-authorization": f.cfg.InitialToken,
		"x-msisdn":        msisdn,
		"x-pincode":       code,
		"x-ignore-session-expired": "true",
	}
	resp, err := f.tr.do(ctx, "POST", "authentication/anonymous/validate", headers, nil,
		map[string]string{"token": code})
	if err != nil {
		return port.VerifyResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if !resp.ok() {
		return port.VerifyResult{Fault: port.FaultUpstreamRejected, Message: upstreamMessage(resp.Body)}
	}
	token := resp.token()
	if token == "" {
		var body struct {
			Authorization string `json:"authorization"`
		}
		_ = resp.decode(&body)
		token = body.Authorization
	}
	if token == "" {
		return port.VerifyResult{Fault: port.FaultUpstreamRejected, Message: "no authorization token issued"}
	}

	// The tracker refuses phone numbers, so the internal user id is
	// resolved from the wallet; token claims are the fallback.
	cred := domain.Credential{
		Authorization: token,
		TransactionID: resp.Header.Get("x-transaction-id"),
	}
	if probe := f.Balance(ctx, token); probe.Fault.OK() && probe.WalletID != "" {
		cred.UserID = probe.WalletID
		cred.WalletID = probe.WalletID
	}
	if cred.UserID == "" {
		userID, walletID := tokenClaims(token)
		cred.UserID = userID
		cred.WalletID = walletID
	}
	if cred.UserID == "" {
		return port.VerifyResult{Fault: port.FaultUpstreamRejected, Message: "could not resolve user id"}
	}
	return port.VerifyResult{Credential: cred}
}

func (f *Fun) Balance(ctx context.Context, token string) port.BalanceResult {
	resp, err := f.tr.do(ctx, "GET", "home", map[string]string{"x-authorization": token}, nil, nil)
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

func (f *Fun) Packages(ctx context.Context, token string) port.PackagesResult {
	resp, err := f.tr.do(ctx, "GET", "prize-list", map[string]string{"x-authorization": token}, nil, nil)
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

// Redeem spends coins on a package. The destination is implicit for this
// operator; the payload carries a null destinationMsisdn.
func (f *Fun) Redeem(ctx context.Context, token, packageID, _ string) port.RedeemResult {
	id, err := strconv.Atoi(packageID)
	if err != nil {
		return port.RedeemResult{Fault: port.FaultUpstreamRejected, Message: "package id must be numeric"}
	}
	resp, err := f.tr.do(ctx, "POST", "withdraw", map[string]string{"x-authorization": token}, nil,
		map[string]any{"packageId": id, "destinationMsisdn": nil})
	if err != nil {
		return port.RedeemResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if !resp.ok() {
		if quotaReached(resp.text()) {
			return port.RedeemResult{Fault: port.FaultQuotaExceeded, LimitReached: true, Message: "daily redemption limit reached", NewToken: resp.token()}
		}
		return port.RedeemResult{Fault: classifyFailure(resp.Status, resp.text()), Message: upstreamMessage(resp.Body), NewToken: resp.token()}
	}
	return port.RedeemResult{NewToken: resp.token()}
}

func (f *Fun) Sources() []string { return []string{f.cfg.Zone} }

func (f *Fun) Campaigns(ctx context.Context, token, identity, zone string) port.CampaignsResult {
	if identity == "" {
		return port.CampaignsResult{Fault: port.FaultUpstreamRejected, Message: "identity required"}
	}
	if phoneShaped(identity) {
		return port.CampaignsResult{Fault: port.FaultUpstreamRejected, Message: "identity looks like a phone number"}
	}
	headers := map[string]string{
		"x-authorization":        token,
		"x-access-token":         f.cfg.AccessToken,
		"x-artemis-channel-uuid": f.cfg.ArtemisChannelUUID,
	}
	body := map[string]any{
		"context": androidAdContext(f.cfg.AppVersion),
		"userId":  identity,
	}
	resp, err := f.tr.do(ctx, "POST", "adserver/campaign/v3/"+zone, headers, url.Values{"size": {"100"}}, body)
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
	// The zone payload mixes playable videos with other media; only the
	// videos yield rewards when tracked.
	return port.CampaignsResult{Items: env.flatten(zone, true), NewToken: resp.token()}
}

func (f *Fun) Track(ctx context.Context, req port.TrackRequest) port.TrackResult {
	if phoneShaped(req.Identity) {
		return port.TrackResult{Fault: port.FaultUpstreamRejected, Message: "identity looks like a phone number"}
	}
	params := url.Values{
		"e":         {f.eventName(req.Event)},
		"c":         {req.CampaignID},
		"u":         {req.Identity},
		"requestId": {req.TrackingID},
	}
	if req.MediaID != "" && req.Event != domain.EventCampaignDone {
		params.Set("m", req.MediaID)
	}
	headers := map[string]string{
		"x-authorization":        req.Token,
		"x-access-token":         f.cfg.AccessToken,
		"x-artemis-channel-uuid": f.cfg.ArtemisChannelUUID,
	}
	resp, err := f.tr.do(ctx, "POST", "adserver/tracker", headers, params, map[string]any{})
	if err != nil {
		return port.TrackResult{Fault: port.FaultTransport, Message: err.Error()}
	}
	if !resp.ok() {
		return port.TrackResult{Fault: classifyFailure(resp.Status, resp.text()), Message: upstreamMessage(resp.Body), NewToken: resp.token()}
	}
	return port.TrackResult{NewToken: resp.token()}
}

func (f *Fun) eventName(e domain.Event) string {
	switch e {
	case domain.EventStart:
		return "impression"
	case domain.EventCampaignDone:
		return "success_impression"
	default:
		return "complete"
	}
}
