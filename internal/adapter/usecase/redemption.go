package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"carrier-rewards/internal/config/configs"
	"carrier-rewards/internal/core/domain"
	"carrier-rewards/internal/core/port"
)

// RedemptionOrchestrator drives the watch-and-claim workflow. The media list
// is partitioned into a bounded number of batches; each batch is one worker
// goroutine processing its items strictly in order, while a shared
// cancellation flag is polled before every remote call. The completed
// counter and the progress message are the only state mutated by multiple
// workers and sit behind one task-scoped mutex.
type RedemptionOrchestrator struct {
	registry *SessionRegistry
	notifier port.Notifier
	logger   *slog.Logger

	maxBatches   int
	batchTimeout time.Duration
	watchMin     time.Duration
	watchMax     time.Duration

	mu     sync.Mutex
	active map[string]*redemptionTask
}

// NewRedemptionOrchestrator builds the orchestrator.
func NewRedemptionOrchestrator(registry *SessionRegistry, notifier port.Notifier, cfg configs.Collector, logger *slog.Logger) *RedemptionOrchestrator {
	maxBatches := cfg.MaxBatches
	if maxBatches <= 0 {
		maxBatches = 10
	}
	return &RedemptionOrchestrator{
		registry:     registry,
		notifier:     notifier,
		logger:       logger,
		maxBatches:   maxBatches,
		batchTimeout: cfg.BatchTimeout,
		watchMin:     cfg.WatchMin,
		watchMax:     cfg.WatchMax,
		active:       make(map[string]*redemptionTask),
	}
}

type redemptionTask struct {
	cancelled atomic.Bool

	mu        sync.Mutex
	total     int
	completed int
	// doneByCampaign drives the campaign-closing event: once every media
	// of a campaign completed, the closing event is sent exactly once.
	perCampaign    map[string]int
	doneByCampaign map[string]int
	closed         map[string]struct{}
}

// RunParams carries everything one redemption run needs.
type RunParams struct {
	Session        *domain.UserSession
	Carrier        port.Carrier
	Items          []domain.CampaignMedia
	InitialBalance int64
	Silent         bool
	StatusHandle   port.MessageHandle
}

// RunReport summarizes a finished run.
type RunReport struct {
	Total     int
	Completed int
	Cancelled bool
}

// Run processes the media list and blocks until all batches join or the
// batch timeout elapses. At most one run may be active per user; a second
// trigger is rejected with ErrAlreadyRunning instead of being queued.
func (o *RedemptionOrchestrator) Run(ctx context.Context, p RunParams) (RunReport, error) {
	userID := p.Session.UserID

	task := &redemptionTask{
		total:          len(p.Items),
		perCampaign:    make(map[string]int),
		doneByCampaign: make(map[string]int),
		closed:         make(map[string]struct{}),
	}
	for _, item := range p.Items {
		task.perCampaign[item.Campaign.ID]++
	}

	o.mu.Lock()
	if _, busy := o.active[userID]; busy {
		o.mu.Unlock()
		return RunReport{}, port.ErrAlreadyRunning
	}
	o.active[userID] = task
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.active, userID)
		o.mu.Unlock()
	}()

	var g errgroup.Group
	for _, batch := range partition(p.Items, o.maxBatches) {
		batch := batch
		g.Go(func() error {
			o.runBatch(ctx, task, p, batch)
			return nil
		})
	}

	joined := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(joined)
	}()
	select {
	case <-joined:
	case <-time.After(o.batchTimeout):
		// Finalize with whatever the counters reached; stragglers observe
		// the cancel flag at their next poll point.
		task.cancelled.Store(true)
		o.logger.Warn("batch join timed out", slog.String("user_id", userID))
	}

	task.mu.Lock()
	defer task.mu.Unlock()
	return RunReport{
		Total:     task.total,
		Completed: task.completed,
		Cancelled: task.cancelled.Load(),
	}, nil
}

// Cancel sets the cancellation flag of the user's active run. Workers stop
// initiating new remote calls at their next poll point; already-issued calls
// are allowed to finish. Returns false when no run is active.
func (o *RedemptionOrchestrator) Cancel(userID string) bool {
	o.mu.Lock()
	task, ok := o.active[userID]
	o.mu.Unlock()
	if !ok {
		return false
	}
	task.cancelled.Store(true)
	return true
}

// Running reports whether a run is active for the user.
func (o *RedemptionOrchestrator) Running(userID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.active[userID]
	return ok
}

// partition splits items into at most maxBatches contiguous slices. Small
// lists stay in one batch.
func partition(items []domain.CampaignMedia, maxBatches int) [][]domain.CampaignMedia {
	if len(items) <= maxBatches {
		return [][]domain.CampaignMedia{items}
	}
	size := (len(items) + maxBatches - 1) / maxBatches
	var batches [][]domain.CampaignMedia
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

func (o *RedemptionOrchestrator) runBatch(ctx context.Context, task *redemptionTask, p RunParams, batch []domain.CampaignMedia) {
	for _, item := range batch {
		if task.cancelled.Load() || ctx.Err() != nil {
			return
		}
		o.processItem(ctx, task, p, item)
	}
}

// processItem walks one media item through the start → complete transitions.
// A failed transition marks the item failed and moves on; transport-level
// retries already happened inside the adapter.
func (o *RedemptionOrchestrator) processItem(ctx context.Context, task *redemptionTask, p RunParams, item domain.CampaignMedia) {
	cred, err := o.registry.ResolveCredential(p.Session)
	if err != nil {
		return
	}
	req := port.TrackRequest{
		Token:      cred.Authorization,
		Event:      domain.EventStart,
		CampaignID: item.Campaign.ID,
		TrackingID: trackingID(item),
		Identity:   trackerIdentity(cred),
		MediaID:    item.Media.ID,
	}
	res := p.Carrier.Track(ctx, req)
	o.persistRotation(ctx, p.Session, res.NewToken)
	if !res.Fault.OK() {
		o.logger.Debug("start event rejected",
			slog.String("user_id", p.Session.UserID),
			slog.String("media_id", item.Media.ID),
			slog.String("message", res.Message))
		return
	}

	time.Sleep(o.watchDuration())

	if task.cancelled.Load() || ctx.Err() != nil {
		return
	}
	if cred, err = o.registry.ResolveCredential(p.Session); err != nil {
		return
	}
	req.Token = cred.Authorization
	req.Event = domain.EventComplete
	res = p.Carrier.Track(ctx, req)
	o.persistRotation(ctx, p.Session, res.NewToken)
	if !res.Fault.OK() {
		o.logger.Debug("complete event rejected",
			slog.String("user_id", p.Session.UserID),
			slog.String("media_id", item.Media.ID),
			slog.String("message", res.Message))
		return
	}

	campaignDone := o.recordCompletion(ctx, task, p, item)
	if campaignDone && !task.cancelled.Load() {
		o.closeCampaign(ctx, p, item)
	}
}

// recordCompletion bumps the shared counter under the task mutex, pushes one
// progress update and reports whether the item's campaign is now fully
// watched.
func (o *RedemptionOrchestrator) recordCompletion(ctx context.Context, task *redemptionTask, p RunParams, item domain.CampaignMedia) bool {
	task.mu.Lock()
	defer task.mu.Unlock()

	task.completed++
	task.doneByCampaign[item.Campaign.ID]++

	campaignDone := false
	if task.doneByCampaign[item.Campaign.ID] == task.perCampaign[item.Campaign.ID] {
		if _, already := task.closed[item.Campaign.ID]; !already {
			task.closed[item.Campaign.ID] = struct{}{}
			campaignDone = true
		}
	}

	if !p.Silent {
		balance := p.InitialBalance
		if cred, err := o.registry.ResolveCredential(p.Session); err == nil {
			if res := p.Carrier.Balance(ctx, cred.Authorization); res.Fault.OK() {
				balance = res.Balance
				o.persistRotation(ctx, p.Session, res.NewToken)
			}
		}
		text := progressText(task.completed, task.total, p.InitialBalance, balance)
		if err := o.notifier.Edit(ctx, p.Session.UserID, p.StatusHandle, text); err != nil {
			o.logger.Debug("progress update failed", slog.Any("error", err))
		}
	}
	return campaignDone
}

// closeCampaign sends the campaign-level closing event. Operators without a
// closing event answer it as a successful no-op.
func (o *RedemptionOrchestrator) closeCampaign(ctx context.Context, p RunParams, item domain.CampaignMedia) {
	cred, err := o.registry.ResolveCredential(p.Session)
	if err != nil {
		return
	}
	res := p.Carrier.Track(ctx, port.TrackRequest{
		Token:      cred.Authorization,
		Event:      domain.EventCampaignDone,
		CampaignID: item.Campaign.ID,
		TrackingID: trackingID(item),
		Identity:   trackerIdentity(cred),
	})
	o.persistRotation(ctx, p.Session, res.NewToken)
	if !res.Fault.OK() {
		o.logger.Debug("campaign close rejected",
			slog.String("campaign_id", item.Campaign.ID),
			slog.String("message", res.Message))
	}
}

func (o *RedemptionOrchestrator) persistRotation(ctx context.Context, s *domain.UserSession, newToken string) {
	if newToken == "" {
		return
	}
	if err := o.registry.RotateToken(ctx, s, s.Operator, newToken); err != nil {
		o.logger.Warn("token rotation not persisted",
			slog.String("user_id", s.UserID), slog.Any("error", err))
	}
}

func (o *RedemptionOrchestrator) watchDuration() time.Duration {
	if o.watchMax <= o.watchMin {
		return o.watchMin
	}
	return o.watchMin + time.Duration(rand.Int63n(int64(o.watchMax-o.watchMin)))
}

// trackingID is the request id echoed on tracker calls; campaigns without a
// tracking id fall back to the media id.
func trackingID(item domain.CampaignMedia) string {
	if item.Campaign.TrackingID != "" {
		return item.Campaign.TrackingID
	}
	return item.Media.ID
}

// progressText renders the live progress message pushed after each
// completed item.
func progressText(completed, total int, initial, balance int64) string {
	percent := 0
	if total > 0 {
		percent = completed * 100 / total
	}
	filled := percent / 10
	bar := strings.Repeat("🟦", filled) + strings.Repeat("⬜", 10-filled)
	return fmt.Sprintf(
		"🚀 COLETANDO MOEDAS...\n\n"+
			"🎮 Progresso: %d%%\n%s\n\n"+
			"💎 Moedas iniciais: %d\n"+
			"⭐ Moedas coletadas: +%d\n"+
			"💰 Saldo atual: %d\n\n"+
			"📺 Campanhas: %d/%d",
		percent, bar, initial, balance-initial, balance, completed, total)
}
