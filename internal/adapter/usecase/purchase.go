package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"carrier-rewards/internal/config/configs"
	"carrier-rewards/internal/core/domain"
	"carrier-rewards/internal/core/port"
)

// PurchasePlanner spends a live coin balance on bonus packages. The primary
// strategy is an exact-id lookup of the well-known voice and data packages;
// the keyword scan over package descriptions is an explicit last resort,
// kept separate so both paths stay independently testable.
type PurchasePlanner struct {
	registry *SessionRegistry
	logger   *slog.Logger

	voiceID   string
	dataID    string
	dataUnits int
	pause     time.Duration
}

// NewPurchasePlanner builds the planner.
func NewPurchasePlanner(registry *SessionRegistry, cfg configs.Collector, logger *slog.Logger) *PurchasePlanner {
	dataUnits := cfg.DataUnits
	if dataUnits <= 0 {
		dataUnits = 4
	}
	return &PurchasePlanner{
		registry:  registry,
		logger:    logger,
		voiceID:   cfg.VoicePackageID,
		dataID:    cfg.DataPackageID,
		dataUnits: dataUnits,
		pause:     cfg.PurchasePause,
	}
}

// Run fetches the catalog and the live balance, then executes the shopping
// list in order. An unaffordable item is skipped, not the whole run; a
// daily-limit signal stops the run early. Spent is computed from fresh
// balance queries before and after, so concurrent balance changes from a
// running redemption task cannot skew the figure.
func (p *PurchasePlanner) Run(ctx context.Context, carrier port.Carrier, session *domain.UserSession) (domain.PurchaseReport, error) {
	cred, err := p.registry.ResolveCredential(session)
	if err != nil {
		return domain.PurchaseReport{}, err
	}

	before := carrier.Balance(ctx, cred.Authorization)
	if !before.Fault.OK() {
		return domain.PurchaseReport{}, fmt.Errorf("balance fetch failed: %s", before.Message)
	}
	p.persistRotation(ctx, session, before.NewToken)

	catalog := carrier.Packages(ctx, p.token(session, cred))
	if !catalog.Fault.OK() {
		return domain.PurchaseReport{}, fmt.Errorf("package fetch failed: %s", catalog.Message)
	}

	shopping := p.shoppingList(catalog.Packages)
	if len(shopping) == 0 {
		p.logger.Info("no suitable packages in catalog", slog.String("user_id", session.UserID))
		return domain.PurchaseReport{Spent: 0}, nil
	}

	report := domain.PurchaseReport{}
	running := before.Balance
	for _, pkg := range shopping {
		if ctx.Err() != nil {
			break
		}
		if running < pkg.Price {
			p.logger.Debug("insufficient balance for item",
				slog.String("package_id", pkg.ID),
				slog.Int64("price", pkg.Price),
				slog.Int64("balance", running))
			continue
		}

		cred, err = p.registry.ResolveCredential(session)
		if err != nil {
			break
		}
		res := carrier.Redeem(ctx, cred.Authorization, pkg.ID, session.PhoneNumber)
		p.persistRotation(ctx, session, res.NewToken)

		switch {
		case res.Fault.OK():
			running -= pkg.Price
			report.Items = append(report.Items, domain.Purchase{
				PackageID: pkg.ID,
				Name:      packageLabel(pkg),
				Price:     pkg.Price,
			})
			time.Sleep(p.pause)
		case res.LimitReached || res.Fault == port.FaultQuotaExceeded:
			report.QuotaReached = true
			p.logger.Info("daily redemption limit reached", slog.String("user_id", session.UserID))
		default:
			p.logger.Warn("package redemption failed",
				slog.String("package_id", pkg.ID),
				slog.String("message", res.Message))
		}
		if report.QuotaReached {
			break
		}
	}

	cred, err = p.registry.ResolveCredential(session)
	if err == nil {
		if after := carrier.Balance(ctx, cred.Authorization); after.Fault.OK() {
			p.persistRotation(ctx, session, after.NewToken)
			report.Spent = before.Balance - after.Balance
			return report, nil
		}
	}
	// Final balance unavailable; fall back to the running figure.
	report.Spent = before.Balance - running
	return report, nil
}

// shoppingList builds the priority-ordered purchase queue: one voice
// package, then the configured number of data packages. When neither fixed
// id is present, fallbackList takes over.
func (p *PurchasePlanner) shoppingList(catalog []domain.Package) []domain.Package {
	var voice, data *domain.Package
	for i := range catalog {
		switch catalog[i].ID {
		case p.voiceID:
			voice = &catalog[i]
		case p.dataID:
			data = &catalog[i]
		}
	}

	var list []domain.Package
	if voice != nil {
		list = append(list, *voice)
	}
	if data != nil {
		for i := 0; i < p.dataUnits; i++ {
			list = append(list, *data)
		}
	}
	if len(list) > 0 {
		return list
	}
	return p.fallbackList(catalog)
}

// fallbackList scans descriptions for data/internet offers, excludes SMS
// bundles and queues the cheapest match.
func (p *PurchasePlanner) fallbackList(catalog []domain.Package) []domain.Package {
	var candidates []domain.Package
	for _, pkg := range catalog {
		desc := strings.ToLower(pkg.Description)
		if (strings.Contains(desc, "mb") || strings.Contains(desc, "internet")) &&
			!strings.Contains(desc, "sms") {
			candidates = append(candidates, pkg)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Price < candidates[j].Price })

	cheapest := candidates[0]
	list := make([]domain.Package, 0, p.dataUnits)
	for i := 0; i < p.dataUnits; i++ {
		list = append(list, cheapest)
	}
	return list
}

func (p *PurchasePlanner) persistRotation(ctx context.Context, s *domain.UserSession, newToken string) {
	if newToken == "" {
		return
	}
	if err := p.registry.RotateToken(ctx, s, s.Operator, newToken); err != nil {
		p.logger.Warn("token rotation not persisted",
			slog.String("user_id", s.UserID), slog.Any("error", err))
	}
}

func (p *PurchasePlanner) token(s *domain.UserSession, fallback domain.Credential) string {
	if cred, err := p.registry.ResolveCredential(s); err == nil {
		return cred.Authorization
	}
	return fallback.Authorization
}

func packageLabel(pkg domain.Package) string {
	if pkg.Name != "" {
		return pkg.Name
	}
	return pkg.Description
}
