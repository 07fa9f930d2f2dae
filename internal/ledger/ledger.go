package ledger

import (
	"sync"

	"github.com/RajshekharX12/as/internal/model"
	"github.com/RajshekharX12/as/internal/pkg/clock"
	"github.com/RajshekharX12/as/internal/pkg/errs"
)

const dayKeyLayout = "2006-01-02"

type Ledger interface {
	CanAfford(price int64) bool
	Reserve(price int64) (*Reservation, error)
	Commit(token *Reservation)
	Rollback(token *Reservation) bool
	Credit(amount int64) error
	ResetRun(budgets model.Budgets)
	SetDailyBudget(daily int64)
	TickCycle()
	StopReason() model.StopReason
	Snapshot() model.LedgerState
}

type reservationState int

const (
	reservationPending reservationState = iota
	reservationCommitted
	reservationRolledBack
)

// Reservation - списание, уже применённое к бюджету.
// Хранит дельты, чтобы откат был точной инверсией.
type Reservation struct {
	price   int64
	dayKey  string
	overall bool
	supply  bool
	state   reservationState
}

func (token *Reservation) Price() int64 {
	return token.price
}

type ledger struct {
	mu    sync.Mutex
	clock clock.Clock
	state model.LedgerState
}

// NewLedger восстанавливает бюджет из сохранённого состояния.
// Устаревший день сбрасывается сразу.
func NewLedger(clock clock.Clock, state model.LedgerState) Ledger {
	ledger := ledger{clock: clock, state: state}
	ledger.state.OverallRemaining = copyPtr(state.OverallRemaining)
	ledger.state.SupplyRemaining = copyPtr(state.SupplyRemaining)
	ledger.state.CyclesRemaining = copyPtr(state.CyclesRemaining)
	ledger.rollover()
	return &ledger
}

func (ledger *ledger) CanAfford(price int64) bool {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	ledger.rollover()
	return ledger.check(price) == nil
}

func (ledger *ledger) Reserve(price int64) (*Reservation, error) {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	ledger.rollover()
	if err := ledger.check(price); err != nil {
		return nil, err
	}

	// списание сразу, откат через токен
	token := &Reservation{price: price, dayKey: ledger.state.DayKey}
	ledger.state.Balance -= price
	ledger.state.DailySpent += price
	if ledger.state.OverallRemaining != nil {
		*ledger.state.OverallRemaining -= price
		token.overall = true
	}
	if ledger.state.SupplyRemaining != nil {
		*ledger.state.SupplyRemaining--
		token.supply = true
	}
	return token, nil
}

func (ledger *ledger) Commit(token *Reservation) {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	if token != nil && token.state == reservationPending {
		token.state = reservationCommitted
	}
}

// Rollback возвращает true, если состояние было изменено.
// Повторный откат и откат подтверждённого списания ничего не делают.
func (ledger *ledger) Rollback(token *Reservation) bool {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	if token == nil || token.state != reservationPending {
		return false
	}
	token.state = reservationRolledBack

	ledger.state.Balance += token.price
	// после смены дня daily_spent уже обнулён
	if ledger.state.DayKey == token.dayKey {
		ledger.state.DailySpent -= token.price
	}
	if token.overall && ledger.state.OverallRemaining != nil {
		*ledger.state.OverallRemaining += token.price
	}
	if token.supply && ledger.state.SupplyRemaining != nil {
		*ledger.state.SupplyRemaining++
	}
	return true
}

// Credit - пополнение или компенсирующий возврат
func (ledger *ledger) Credit(amount int64) error {
	if amount <= 0 {
		return errs.ErrInvalidAmount
	}
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	ledger.state.Balance += amount
	return nil
}

// ResetRun - начало нового прогона, счётчики берутся из бюджетов
func (ledger *ledger) ResetRun(budgets model.Budgets) {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	ledger.rollover()
	ledger.state.DailyBudget = budgets.Daily
	ledger.state.OverallRemaining = limit(budgets.Overall)
	ledger.state.SupplyRemaining = limit(budgets.Supply)
	ledger.state.CyclesRemaining = limit(budgets.Cycles)
}

func (ledger *ledger) SetDailyBudget(daily int64) {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	ledger.state.DailyBudget = daily
}

func (ledger *ledger) TickCycle() {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	if ledger.state.CyclesRemaining != nil && *ledger.state.CyclesRemaining > 0 {
		*ledger.state.CyclesRemaining--
	}
}

func (ledger *ledger) StopReason() model.StopReason {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	switch {
	case exhausted(ledger.state.CyclesRemaining):
		return model.StopReasonCyclesExhausted
	case exhausted(ledger.state.OverallRemaining):
		return model.StopReasonOverallExceeded
	case exhausted(ledger.state.SupplyRemaining):
		return model.StopReasonSupplyExhausted
	default:
		return model.StopReasonNone
	}
}

func (ledger *ledger) Snapshot() model.LedgerState {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	ledger.rollover()
	snapshot := ledger.state
	snapshot.OverallRemaining = copyPtr(ledger.state.OverallRemaining)
	snapshot.SupplyRemaining = copyPtr(ledger.state.SupplyRemaining)
	snapshot.CyclesRemaining = copyPtr(ledger.state.CyclesRemaining)
	return snapshot
}

// check не меняет состояние
func (ledger *ledger) check(price int64) error {
	state := &ledger.state
	if price < 0 {
		return errs.ErrInvalidAmount
	}
	if state.Balance < price {
		return errs.ErrInsufficientFunds
	}
	if state.DailyBudget > 0 && state.DailySpent+price > state.DailyBudget {
		return errs.ErrDailyBudgetExceeded
	}
	if state.OverallRemaining != nil && *state.OverallRemaining < price {
		return errs.ErrOverallBudgetExceeded
	}
	if state.SupplyRemaining != nil && *state.SupplyRemaining < 1 {
		return errs.ErrSupplyExhausted
	}
	return nil
}

// rollover - ленивая смена дня по UTC
func (ledger *ledger) rollover() {
	today := ledger.clock.Now().UTC().Format(dayKeyLayout)
	if ledger.state.DayKey != today {
		ledger.state.DayKey = today
		ledger.state.DailySpent = 0
	}
}

func limit(value int64) *int64 {
	if value <= 0 {
		return nil
	}
	return &value
}

func exhausted(counter *int64) bool {
	return counter != nil && *counter <= 0
}

func copyPtr(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
