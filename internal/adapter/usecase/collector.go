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

// Collector wires the full collect flow: admission, session validation,
// campaign discovery, concurrent redemption and the optional auto-purchase
// of bonus packages with the earned coins.
type Collector struct {
	store        port.SessionStore
	cooldown     port.CooldownStore
	notifier     port.Notifier
	carriers     port.CarrierResolver
	registry     *SessionRegistry
	discovery    *Discovery
	orchestrator *RedemptionOrchestrator
	planner      *PurchasePlanner
	logger       *slog.Logger
	cooldownTTL  time.Duration
}

// NewCollector assembles the collect flow from its parts.
func NewCollector(
	store port.SessionStore,
	cooldown port.CooldownStore,
	notifier port.Notifier,
	carriers port.CarrierResolver,
	registry *SessionRegistry,
	discovery *Discovery,
	orchestrator *RedemptionOrchestrator,
	planner *PurchasePlanner,
	cfg configs.Collector,
	logger *slog.Logger,
) *Collector {
	return &Collector{
		store:        store,
		cooldown:     cooldown,
		notifier:     notifier,
		carriers:     carriers,
		registry:     registry,
		discovery:    discovery,
		orchestrator: orchestrator,
		planner:      planner,
		logger:       logger,
		cooldownTTL:  cfg.Cooldown,
	}
}

// CollectOptions tunes one collect run. Silent runs (the scheduled sweep)
// skip the button cooldown and all progress messages; AutoPurchase chains
// the purchase planner after redemption.
type CollectOptions struct {
	Silent       bool
	AutoPurchase bool
}

// Cancel stops the user's active run, if any.
func (c *Collector) Cancel(userID string) bool {
	return c.orchestrator.Cancel(userID)
}

// Collect runs the whole flow for one user. It returns ErrThrottled while
// the button cooldown is armed, ErrAlreadyRunning when a run is active,
// ErrNoCampaigns when discovery comes back empty and ErrSubscriptionExpired
// or ErrNoActiveSession when the user is not entitled to run.
func (c *Collector) Collect(ctx context.Context, userID string, opts CollectOptions) (domain.CollectReport, error) {
	if !opts.Silent {
		throttled, err := c.cooldown.CheckAndSet(ctx, userID, "collect", c.cooldownTTL)
		if err != nil {
			c.logger.Warn("cooldown check failed", slog.Any("error", err))
		} else if throttled {
			return domain.CollectReport{}, port.ErrThrottled
		}
	}

	session, err := c.store.LoadSession(ctx, userID)
	if err != nil {
		return domain.CollectReport{}, err
	}
	sub, err := c.store.SubscriptionStatus(ctx, userID)
	if err != nil {
		return domain.CollectReport{}, err
	}
	if !sub.Active || sub.Suspended {
		return domain.CollectReport{}, port.ErrSubscriptionExpired
	}

	carrier, err := c.carriers.Carrier(session.Operator)
	if err != nil {
		return domain.CollectReport{}, err
	}
	if !c.registry.Validate(ctx, session) {
		return domain.CollectReport{}, port.ErrNoActiveSession
	}
	cred, err := c.registry.ResolveCredential(session)
	if err != nil {
		return domain.CollectReport{}, err
	}

	report := domain.CollectReport{}
	if res := carrier.Balance(ctx, cred.Authorization); res.Fault.OK() {
		report.InitialBalance = res.Balance
	}

	var handle port.MessageHandle
	if !opts.Silent {
		handle = c.send(ctx, userID, "🔍 Procurando campanhas disponíveis...")
	}

	disc := c.discovery.Discover(ctx, carrier, cred.Authorization, trackerIdentity(cred))
	if disc.NewToken != "" {
		if err := c.registry.RotateToken(ctx, session, session.Operator, disc.NewToken); err != nil {
			c.logger.Warn("token rotation not persisted", slog.Any("error", err))
		}
	}
	report.Found = len(disc.Items)
	report.PerSource = disc.PerSource

	if len(disc.Items) == 0 {
		if !opts.Silent {
			c.edit(ctx, userID, handle, "😢 Nenhuma campanha disponível no momento.")
		}
		return report, port.ErrNoCampaigns
	}

	if !opts.Silent {
		c.edit(ctx, userID, handle, summaryText(disc))
		handle = c.send(ctx, userID, "🎮 Processando campanhas...")
	}

	run, err := c.orchestrator.Run(ctx, RunParams{
		Session:        session,
		Carrier:        carrier,
		Items:          disc.Items,
		InitialBalance: report.InitialBalance,
		Silent:         opts.Silent,
		StatusHandle:   handle,
	})
	if err != nil {
		return report, err
	}
	report.Completed = run.Completed

	if cred, err = c.registry.ResolveCredential(session); err == nil {
		if res := carrier.Balance(ctx, cred.Authorization); res.Fault.OK() {
			report.FinalBalance = res.Balance
		}
	}

	if opts.AutoPurchase {
		purchases, err := c.planner.Run(ctx, carrier, session)
		if err != nil {
			c.logger.Warn("auto-purchase failed",
				slog.String("user_id", userID), slog.Any("error", err))
		} else {
			report.Purchases = &purchases
		}
	}

	if !opts.Silent {
		c.edit(ctx, userID, handle, finalText(report))
	}
	c.logger.Info("collect run finished",
		slog.String("user_id", userID),
		slog.Int("found", report.Found),
		slog.Int("completed", report.Completed),
		slog.Int64("earned", report.FinalBalance-report.InitialBalance))
	return report, nil
}

// send pushes a message and swallows notifier failures.
func (c *Collector) send(ctx context.Context, userID, text string) port.MessageHandle {
	handle, err := c.notifier.Send(ctx, userID, text)
	if err != nil {
		c.logger.Debug("notify failed", slog.Any("error", err))
	}
	return handle
}

func (c *Collector) edit(ctx context.Context, userID string, handle port.MessageHandle, text string) {
	if err := c.notifier.Edit(ctx, userID, handle, text); err != nil {
		c.logger.Debug("notify edit failed", slog.Any("error", err))
	}
}

// summaryText lists the discovered media per zone before the run starts.
func summaryText(disc DiscoveryResult) string {
	var b strings.Builder
	b.WriteString("📋 CAMPANHAS ENCONTRADAS:\n\n")
	zones := make([]string, 0, len(disc.PerSource))
	for zone := range disc.PerSource {
		zones = append(zones, zone)
	}
	sort.Strings(zones)
	for _, zone := range zones {
		fmt.Fprintf(&b, "📺 %s: %d vídeos\n", zone, disc.PerSource[zone])
	}
	fmt.Fprintf(&b, "\n🎯 Total: %d vídeos\n\n🚀 Iniciando coleta de moedas!", len(disc.Items))
	return b.String()
}

// finalText renders the end-of-run report.
func finalText(r domain.CollectReport) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"🎉 COLETA DE MOEDAS CONCLUÍDA!\n\n"+
			"📊 RELATÓRIO:\n"+
			"💎 Moedas iniciais: %d\n"+
			"⭐ Moedas coletadas: +%d\n"+
			"💰 Saldo atual: %d\n\n"+
			"📺 Campanhas: %d/%d",
		r.InitialBalance, r.CoinsEarned(), r.FinalBalance, r.Completed, r.Found)
	if r.Purchases != nil {
		b.WriteString("\n\n")
		b.WriteString(purchaseText(*r.Purchases))
	}
	return b.String()
}

// purchaseText renders the shopping report of one purchase run.
func purchaseText(r domain.PurchaseReport) string {
	if len(r.Items) == 0 {
		return "❌ Nenhum pacote foi comprado"
	}
	var b strings.Builder
	b.WriteString("📦 PACOTES COMPRADOS:\n\n")
	for i, item := range r.Items {
		fmt.Fprintf(&b, "%d. %s - %d moedas\n", i+1, item.Name, item.Price)
	}
	fmt.Fprintf(&b, "\n💰 Total gasto: %d moedas", r.Spent)
	if r.QuotaReached {
		b.WriteString("\n⚠️ Limite diário de resgate atingido.")
	}
	return b.String()
}
