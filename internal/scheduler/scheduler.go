package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/RajshekharX12/as/internal/admission"
	"github.com/RajshekharX12/as/internal/cooldown"
	"github.com/RajshekharX12/as/internal/feed"
	"github.com/RajshekharX12/as/internal/ledger"
	"github.com/RajshekharX12/as/internal/model"
	"github.com/RajshekharX12/as/internal/notify"
	"github.com/RajshekharX12/as/internal/pkg/clock"
	"github.com/RajshekharX12/as/internal/pkg/errs"
	"github.com/RajshekharX12/as/internal/purchase"
	"github.com/RajshekharX12/as/internal/scheduler/config"
)

var tracer = otel.Tracer("github.com/RajshekharX12/as/internal/scheduler")

// Scheduler - цикл опроса одного пользователя.
// Команды управления не применяются посреди итерации: они копятся
// и вступают в силу на границе итераций.
type Scheduler interface {
	Start(ctx context.Context)
	Stop(ctx context.Context)
	SetConstraints(ctx context.Context, cs model.ConstraintSet)
	SetBudgets(ctx context.Context, budgets model.Budgets)
	SetNotifications(ctx context.Context, on bool)
	Status() model.Status
	Buy(ctx context.Context, offerID string) (purchase.Outcome, error)
	TestDrop(ctx context.Context) purchase.Outcome
	RunIteration(ctx context.Context) IterationResult
	Run(ctx context.Context)
	Persist(ctx context.Context)
}

// StateSaver сохраняет состояние пользователя после итераций и команд
type StateSaver interface {
	SaveUser(ctx context.Context, state model.UserState) error
}

type Params struct {
	Config   config.Config
	UserID   string
	Feed     feed.Adapter
	Cooldown cooldown.Tracker
	Ledger   ledger.Ledger
	Executor purchase.Executor
	Notifier notify.Notifier
	Saver    StateSaver
	Clock    clock.Clock
	Logger   *zap.Logger
	// состояние, восстановленное из хранилища
	Initial model.UserState
}

// OfferOutcome - что случилось с одним предложением за итерацию
type OfferOutcome struct {
	Offer    model.Offer
	Cooldown bool
	Decision model.Decision
	Reason   string
	Purchase *model.PurchaseRecord
	Err      error
}

type IterationResult struct {
	State         model.RunState
	Stopped       model.StopReason
	OutsideWindow bool
	Source        string
	Offers        []OfferOutcome
	Drops         []model.Offer
	// пауза до следующей итерации; 0 - ждать команды
	Sleep time.Duration
}

type commands struct {
	start         bool
	stop          bool
	constraints   *model.ConstraintSet
	budgets       *model.Budgets
	notifications *bool
}

type runCounters struct {
	purchases  int64
	alerts     int64
	failures   int64
	iterations int64
}

type scheduler struct {
	cfg      config.Config
	userID   string
	feed     feed.Adapter
	cooldown cooldown.Tracker
	ledger   ledger.Ledger
	executor purchase.Executor
	notifier notify.Notifier
	saver    StateSaver
	clock    clock.Clock
	location *time.Location
	zaplog   *zap.Logger
	wake     chan struct{}

	// runMu удерживается всю итерацию; поля ниже принадлежат циклу
	runMu         sync.Mutex
	state         model.RunState
	reason        model.StopReason
	runID         string
	constraints   model.ConstraintSet
	budgets       model.Budgets
	notifications bool
	counters      runCounters
	totals        model.Totals
	lastOffers    []model.Offer
	seenLimited   map[string]struct{}
	primed        bool

	// mu защищает очередь команд и опубликованный снимок
	mu        sync.Mutex
	pending   commands
	published model.Status
}

func New(params Params) (Scheduler, error) {
	location, err := time.LoadLocation(params.Config.WindowLocation)
	if err != nil {
		return nil, err
	}

	initial := params.Initial
	scheduler := &scheduler{
		cfg:           params.Config,
		userID:        params.UserID,
		feed:          params.Feed,
		cooldown:      params.Cooldown,
		ledger:        params.Ledger,
		executor:      params.Executor,
		notifier:      params.Notifier,
		saver:         params.Saver,
		clock:         params.Clock,
		location:      location,
		zaplog:        params.Logger.With(zap.String("user", params.UserID)),
		wake:          make(chan struct{}, 1),
		state:         model.RunStateIdle,
		constraints:   initial.Constraints.Clone(),
		budgets:       initial.Budgets,
		notifications: initial.Notifications,
		totals:        initial.Totals,
		seenLimited:   make(map[string]struct{}),
	}

	// прогон, прерванный перезапуском, продолжается без сброса счётчиков
	switch initial.State {
	case model.RunStatePolling:
		scheduler.state = model.RunStatePolling
		scheduler.runID = initial.RunID
		scheduler.executor.BeginRun(initial.RunID)
	case model.RunStateStopped:
		scheduler.state = model.RunStateStopped
		scheduler.reason = initial.Reason
		scheduler.runID = initial.RunID
	}
	scheduler.publish()
	return scheduler, nil
}

// Команды управления

func (scheduler *scheduler) Start(ctx context.Context) {
	scheduler.enqueue(ctx, func(pending *commands) {
		pending.start, pending.stop = true, false
	})
}

func (scheduler *scheduler) Stop(ctx context.Context) {
	scheduler.enqueue(ctx, func(pending *commands) {
		pending.start, pending.stop = false, true
	})
}

func (scheduler *scheduler) SetConstraints(ctx context.Context, cs model.ConstraintSet) {
	cs = cs.Clone()
	scheduler.enqueue(ctx, func(pending *commands) {
		pending.constraints = &cs
	})
}

func (scheduler *scheduler) SetBudgets(ctx context.Context, budgets model.Budgets) {
	scheduler.enqueue(ctx, func(pending *commands) {
		pending.budgets = &budgets
	})
}

func (scheduler *scheduler) SetNotifications(ctx context.Context, on bool) {
	scheduler.enqueue(ctx, func(pending *commands) {
		pending.notifications = &on
	})
}

// enqueue ставит команду в очередь. Если цикл сейчас не в итерации,
// команда применяется сразу, иначе - на следующей границе.
func (scheduler *scheduler) enqueue(ctx context.Context, update func(pending *commands)) {
	scheduler.mu.Lock()
	update(&scheduler.pending)
	scheduler.mu.Unlock()

	if scheduler.runMu.TryLock() {
		scheduler.applyPending(ctx)
		scheduler.runMu.Unlock()
	}
	select {
	case scheduler.wake <- struct{}{}:
	default:
	}
}

// applyPending вызывается под runMu
func (scheduler *scheduler) applyPending(ctx context.Context) {
	scheduler.mu.Lock()
	pending := scheduler.pending
	scheduler.pending = commands{}
	scheduler.mu.Unlock()

	changed := false
	if pending.constraints != nil {
		scheduler.constraints = *pending.constraints
		changed = true
	}
	if pending.budgets != nil {
		// дневной бюджет действует сразу, остальные лимиты - со следующего старта
		scheduler.budgets = *pending.budgets
		scheduler.ledger.SetDailyBudget(pending.budgets.Daily)
		changed = true
	}
	if pending.notifications != nil {
		scheduler.notifications = *pending.notifications
		changed = true
	}
	if pending.stop && scheduler.state != model.RunStateIdle {
		scheduler.state = model.RunStateIdle
		scheduler.reason = model.StopReasonNone
		scheduler.zaplog.Info("run stopped by command", zap.String("run_id", scheduler.runID))
		changed = true
	}
	if pending.start && scheduler.state != model.RunStatePolling {
		scheduler.beginRun()
		changed = true
	}
	if changed {
		scheduler.persist(ctx)
		scheduler.publish()
	}
}

func (scheduler *scheduler) beginRun() {
	scheduler.ledger.ResetRun(scheduler.budgets)
	scheduler.runID = uuid.NewString()
	scheduler.executor.BeginRun(scheduler.runID)
	scheduler.counters = runCounters{}
	scheduler.state = model.RunStatePolling
	scheduler.reason = model.StopReasonNone
	scheduler.zaplog.Info("run started",
		zap.String("run_id", scheduler.runID),
		zap.Int64("daily_budget", scheduler.budgets.Daily),
		zap.Int64("overall_limit", scheduler.budgets.Overall),
		zap.Int64("supply_limit", scheduler.budgets.Supply),
		zap.Int64("cycles", scheduler.budgets.Cycles))
}

// Цикл

func (scheduler *scheduler) Run(ctx context.Context) {
	for {
		result := scheduler.RunIteration(ctx)
		if ctx.Err() != nil {
			return
		}
		if !scheduler.wait(ctx, result.Sleep) {
			return
		}
	}
}

func (scheduler *scheduler) wait(ctx context.Context, d time.Duration) bool {
	var timeout <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-ctx.Done():
		return false
	case <-timeout:
	case <-scheduler.wake:
	}
	return true
}

func (scheduler *scheduler) RunIteration(ctx context.Context) IterationResult {
	scheduler.runMu.Lock()
	defer scheduler.runMu.Unlock()

	scheduler.applyPending(ctx)
	if scheduler.state != model.RunStatePolling {
		return IterationResult{State: scheduler.state, Stopped: scheduler.reason}
	}

	now := scheduler.clock.Now()
	if window := scheduler.constraints.Window; window != nil && !window.Contains(now.In(scheduler.location)) {
		return IterationResult{
			State:         model.RunStatePolling,
			OutsideWindow: true,
			Sleep:         scheduler.cfg.WindowIdleInterval,
		}
	}

	if reason := scheduler.ledger.StopReason(); reason != model.StopReasonNone {
		scheduler.halt(ctx, reason)
		return IterationResult{State: model.RunStateStopped, Stopped: reason}
	}

	ctx, span := tracer.Start(ctx, "scheduler.iteration", trace.WithAttributes(
		attribute.String("user", scheduler.userID),
		attribute.String("run_id", scheduler.runID),
	))
	defer span.End()

	scheduler.ledger.TickCycle()
	scheduler.counters.iterations++

	source, offers := scheduler.feed.Fetch(ctx)
	result := IterationResult{
		State:  model.RunStatePolling,
		Source: source,
		Offers: make([]OfferOutcome, 0, len(offers)),
		Sleep:  scheduler.cfg.PollInterval,
	}
	for _, offer := range offers {
		result.Offers = append(result.Offers, scheduler.process(ctx, offer))
	}
	result.Drops = scheduler.detectDrops(ctx, offers)
	scheduler.lastOffers = offers

	span.SetAttributes(attribute.String("feed.source", source), attribute.Int("feed.offers", len(offers)))
	scheduler.persist(ctx)
	scheduler.publish()
	return result
}

func (scheduler *scheduler) process(ctx context.Context, offer model.Offer) OfferOutcome {
	outcome := OfferOutcome{Offer: offer}

	ok, err := scheduler.cooldown.ShouldProcess(ctx, offer.ID, scheduler.clock.Now())
	if err != nil {
		// без трекера нельзя исключить повторную покупку - пропускаем
		scheduler.zaplog.Warn("cooldown check failed", zap.String("offer_id", offer.ID), zap.Error(err))
		outcome.Cooldown, outcome.Err = true, err
		return outcome
	}
	if !ok {
		outcome.Cooldown = true
		return outcome
	}

	verdict := admission.Evaluate(offer, scheduler.constraints)
	outcome.Decision, outcome.Reason = verdict.Decision, verdict.Reason
	scheduler.zaplog.Debug("offer evaluated",
		zap.String("offer_id", offer.ID),
		zap.Int64("price", offer.Price),
		zap.Stringer("decision", verdict.Decision),
		zap.String("reason", verdict.Reason))

	switch verdict.Decision {
	case model.DecisionBuy:
		result := scheduler.executor.Execute(ctx, offer, model.PurchaseModeAuto)
		scheduler.account(ctx, offer, result)
		outcome.Purchase, outcome.Err = result.Record, result.Err
	case model.DecisionAlert:
		scheduler.counters.alerts++
		scheduler.totals.Alerts++
		scheduler.notify(ctx, notify.AlertEvent(scheduler.userID, offer, scheduler.clock.Now()))
	}

	// после попытки, при любом исходе
	scheduler.mark(ctx, offer.ID)
	return outcome
}

func (scheduler *scheduler) mark(ctx context.Context, offerID string) {
	if err := scheduler.cooldown.Mark(context.WithoutCancel(ctx), offerID, scheduler.clock.Now()); err != nil {
		scheduler.zaplog.Warn("cooldown mark failed", zap.String("offer_id", offerID), zap.Error(err))
	}
}

// account обновляет счётчики по исходу покупки
func (scheduler *scheduler) account(ctx context.Context, offer model.Offer, result purchase.Outcome) {
	if result.Sent() {
		if result.Record.Mode != model.PurchaseModeTest {
			scheduler.counters.purchases++
			scheduler.totals.Purchases++
			scheduler.totals.Spent += result.Record.Price
		}
		scheduler.zaplog.Info("offer purchased",
			zap.String("offer_id", offer.ID),
			zap.Int64("price", offer.Price),
			zap.String("mode", string(result.Record.Mode)),
			zap.Int64("purchase_id", result.Record.ID),
			zap.String("run_id", scheduler.runID))
		scheduler.notify(ctx, notify.PurchasedEvent(*result.Record, scheduler.clock.Now()))
		return
	}

	scheduler.counters.failures++
	scheduler.totals.Failures++
	if errs.IsBudgetRejection(result.Err) {
		scheduler.zaplog.Info("purchase rejected by budget",
			zap.String("offer_id", offer.ID),
			zap.Int64("price", offer.Price),
			zap.Error(result.Err))
		return
	}
	scheduler.zaplog.Warn("purchase failed",
		zap.String("offer_id", offer.ID),
		zap.Int64("price", offer.Price),
		zap.Error(result.Err))
}

// detectDrops сообщает о впервые замеченных лимитированных предложениях.
// Первая итерация только запоминает текущий набор. Пустая лента (сбой источника)
// набор не меняет, иначе после восстановления все предложения считались бы новыми.
func (scheduler *scheduler) detectDrops(ctx context.Context, offers []model.Offer) []model.Offer {
	if len(offers) == 0 {
		return nil
	}
	current := make(map[string]struct{})
	var drops []model.Offer
	for _, offer := range offers {
		if offer.Remaining == nil || *offer.Remaining <= 0 {
			continue
		}
		current[offer.ID] = struct{}{}
		if _, seen := scheduler.seenLimited[offer.ID]; !seen && scheduler.primed {
			drops = append(drops, offer)
		}
	}
	scheduler.seenLimited = current
	scheduler.primed = true

	if len(drops) > 0 {
		scheduler.notify(ctx, notify.DropEvent(scheduler.userID, drops, scheduler.clock.Now()))
	}
	return drops
}

func (scheduler *scheduler) halt(ctx context.Context, reason model.StopReason) {
	scheduler.state = model.RunStateStopped
	scheduler.reason = reason
	scheduler.zaplog.Info("run finished",
		zap.String("run_id", scheduler.runID),
		zap.String("reason", string(reason)))

	// об остановке сообщаем всегда
	event := notify.StoppedEvent(scheduler.userID, reason, scheduler.clock.Now())
	if err := scheduler.notifier.Notify(ctx, event); err != nil {
		scheduler.zaplog.Warn("notification failed", zap.Error(err))
	}
	scheduler.persist(ctx)
	scheduler.publish()
}

func (scheduler *scheduler) notify(ctx context.Context, event notify.Event) {
	if !scheduler.notifications {
		return
	}
	if err := scheduler.notifier.Notify(ctx, event); err != nil {
		scheduler.zaplog.Warn("notification failed", zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}

// Ручные операции

func (scheduler *scheduler) Buy(ctx context.Context, offerID string) (purchase.Outcome, error) {
	scheduler.runMu.Lock()
	defer scheduler.runMu.Unlock()

	scheduler.applyPending(ctx)
	offer, ok := findOffer(scheduler.lastOffers, offerID)
	if !ok {
		// в последнем снимке нет - смотрим свежую ленту
		_, offers := scheduler.feed.Fetch(ctx)
		if offer, ok = findOffer(offers, offerID); !ok {
			return purchase.Outcome{}, errs.Wrapf(errs.ErrNotFound, "offer %s", offerID)
		}
	}

	result := scheduler.executor.Execute(ctx, offer, model.PurchaseModeManual)
	scheduler.account(ctx, offer, result)
	scheduler.mark(ctx, offer.ID)
	scheduler.persist(ctx)
	scheduler.publish()
	return result, nil
}

// TestDrop прогоняет покупку в тестовом режиме: бюджет проверяется, но не тратится
func (scheduler *scheduler) TestDrop(ctx context.Context) purchase.Outcome {
	scheduler.runMu.Lock()
	defer scheduler.runMu.Unlock()

	offer := model.Offer{ID: "test-drop", Title: "Test drop"}
	if len(scheduler.lastOffers) > 0 {
		offer = scheduler.lastOffers[0]
	}
	result := scheduler.executor.Execute(ctx, offer, model.PurchaseModeTest)
	scheduler.account(ctx, offer, result)
	scheduler.publish()
	return result
}

func findOffer(offers []model.Offer, offerID string) (model.Offer, bool) {
	for _, offer := range offers {
		if offer.ID == offerID {
			return offer, true
		}
	}
	return model.Offer{}, false
}

// Состояние

func (scheduler *scheduler) Persist(ctx context.Context) {
	scheduler.runMu.Lock()
	defer scheduler.runMu.Unlock()

	scheduler.persist(ctx)
	scheduler.publish()
}

// persist вызывается под runMu
func (scheduler *scheduler) persist(ctx context.Context) {
	if scheduler.saver == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if scheduler.cfg.SaveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, scheduler.cfg.SaveTimeout)
		defer cancel()
	}
	state := model.UserState{
		UserID:        scheduler.userID,
		Constraints:   scheduler.constraints,
		Budgets:       scheduler.budgets,
		Ledger:        scheduler.ledger.Snapshot(),
		Totals:        scheduler.totals,
		State:         scheduler.state,
		Reason:        scheduler.reason,
		RunID:         scheduler.runID,
		Notifications: scheduler.notifications,
	}
	if err := scheduler.saver.SaveUser(ctx, state); err != nil {
		scheduler.zaplog.Error("state not saved", zap.Error(err))
	}
}

// publish вызывается под runMu
func (scheduler *scheduler) publish() {
	status := model.Status{
		UserID: scheduler.userID,
		State:  scheduler.state,
		Reason: scheduler.reason,
		RunID:  scheduler.runID,
		Counters: model.Counters{
			Purchases:  scheduler.counters.purchases,
			Alerts:     scheduler.counters.alerts,
			Failures:   scheduler.counters.failures,
			Iterations: scheduler.counters.iterations,
		},
		Totals:        scheduler.totals,
		Constraints:   scheduler.constraints.Clone(),
		Budgets:       scheduler.budgets,
		Notifications: scheduler.notifications,
	}

	scheduler.mu.Lock()
	scheduler.published = status
	scheduler.mu.Unlock()
}

// Status не ждёт окончания итерации: снимок цикла плюс текущий бюджет
func (scheduler *scheduler) Status() model.Status {
	scheduler.mu.Lock()
	status := scheduler.published
	scheduler.mu.Unlock()

	state := scheduler.ledger.Snapshot()
	status.Counters.Balance = state.Balance
	status.Counters.DailySpent = state.DailySpent
	status.Counters.DailyBudget = state.DailyBudget
	status.Counters.OverallRemaining = state.OverallRemaining
	status.Counters.SupplyRemaining = state.SupplyRemaining
	status.Counters.CyclesRemaining = state.CyclesRemaining
	status.LiveSource = scheduler.feed.LiveSource()
	return status
}
