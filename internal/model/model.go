package model

import (
	"time"
)

// Предложения из ленты

type Offer struct {
	ID        string
	Title     string
	Price     int64
	Remaining *int64 // nil - тираж не ограничен
	Emoji     string
}

// Limited - предложение с ограниченным тиражом
func (offer Offer) Limited() bool {
	return offer.Remaining != nil
}

// Ограничения пользователя

type ConstraintSet struct {
	PriceMin          int64       `json:"price_min"`
	PriceMax          int64       `json:"price_max"`
	AllowIDs          []string    `json:"allow_ids"`
	AllowKeywords     []string    `json:"allow_keywords"`
	Window            *TimeWindow `json:"window,omitempty"`
	NotifyOnlyOverCap bool        `json:"notify_only_over_cap"`
	LimitedOnly       bool        `json:"limited_only"`
}

// Clone возвращает копию, не разделяющую срезы с оригиналом.
func (cs ConstraintSet) Clone() ConstraintSet {
	clone := cs
	clone.AllowIDs = append([]string(nil), cs.AllowIDs...)
	clone.AllowKeywords = append([]string(nil), cs.AllowKeywords...)
	if cs.Window != nil {
		window := *cs.Window
		clone.Window = &window
	}
	return clone
}

// Бюджеты. 0 - без ограничения

type Budgets struct {
	Daily   int64 `json:"daily"`
	Overall int64 `json:"overall"`
	Supply  int64 `json:"supply"`
	Cycles  int64 `json:"cycles"`
}

// Состояние бюджета

type LedgerState struct {
	Balance          int64  `json:"balance"`
	DayKey           string `json:"day_key"`
	DailySpent       int64  `json:"daily_spent"`
	DailyBudget      int64  `json:"daily_budget"`
	OverallRemaining *int64 `json:"overall_remaining"`
	SupplyRemaining  *int64 `json:"supply_remaining"`
	CyclesRemaining  *int64 `json:"cycles_remaining"`
}

// Покупки

type PurchaseMode string

const (
	PurchaseModeManual PurchaseMode = "manual"
	PurchaseModeAuto   PurchaseMode = "auto"
	PurchaseModeTest   PurchaseMode = "test"
)

type PurchaseRecord struct {
	ID        int64        `json:"id"`
	UserID    string       `json:"user_id"`
	RunID     string       `json:"run_id"`
	OfferID   string       `json:"offer_id"`
	Title     string       `json:"title"`
	Price     int64        `json:"price"`
	Mode      PurchaseMode `json:"mode"`
	Timestamp time.Time    `json:"timestamp"`
}

// Решение политики допуска

type Decision int

const (
	DecisionSkip Decision = iota
	DecisionBuy
	DecisionAlert
)

func (d Decision) String() string {
	switch d {
	case DecisionBuy:
		return "buy"
	case DecisionAlert:
		return "alert"
	default:
		return "skip"
	}
}

// Состояние цикла опроса

type RunState string

const (
	RunStateIdle    RunState = "idle"
	RunStatePolling RunState = "polling"
	RunStateStopped RunState = "stopped"
)

type StopReason string

const (
	StopReasonNone            StopReason = ""
	StopReasonCyclesExhausted StopReason = "cycles_exhausted"
	StopReasonOverallExceeded StopReason = "overall_budget_exhausted"
	StopReasonSupplyExhausted StopReason = "supply_exhausted"
)

// Describe - текст причины остановки для пользователя
func (reason StopReason) Describe() string {
	switch reason {
	case StopReasonCyclesExhausted:
		return "iteration limit reached"
	case StopReasonOverallExceeded:
		return "overall spending limit reached"
	case StopReasonSupplyExhausted:
		return "supply limit reached"
	default:
		return ""
	}
}

// Накопительные счетчики, переживают перезапуск
type Totals struct {
	Purchases int64 `json:"purchases"`
	Spent     int64 `json:"spent"`
	Alerts    int64 `json:"alerts"`
	Failures  int64 `json:"failures"`
}

type Counters struct {
	Balance          int64  `json:"balance"`
	DailySpent       int64  `json:"daily_spent"`
	DailyBudget      int64  `json:"daily_budget"`
	OverallRemaining *int64 `json:"overall_remaining"`
	SupplyRemaining  *int64 `json:"supply_remaining"`
	CyclesRemaining  *int64 `json:"cycles_remaining"`
	Purchases        int64  `json:"purchases"`
	Alerts           int64  `json:"alerts"`
	Failures         int64  `json:"failures"`
	Iterations       int64  `json:"iterations"`
}

type Status struct {
	UserID        string        `json:"user_id"`
	State         RunState      `json:"state"`
	Reason        StopReason    `json:"reason,omitempty"`
	RunID         string        `json:"run_id,omitempty"`
	Counters      Counters      `json:"counters"`
	Totals        Totals        `json:"totals"`
	Constraints   ConstraintSet `json:"constraints"`
	Budgets       Budgets       `json:"budgets"`
	Notifications bool          `json:"notifications"`
	LiveSource    string        `json:"live_source"`
}

// Сохраняемое состояние пользователя

type UserState struct {
	UserID        string
	Constraints   ConstraintSet
	Budgets       Budgets
	Ledger        LedgerState
	Totals        Totals
	State         RunState
	Reason        StopReason
	RunID         string
	Notifications bool
}
