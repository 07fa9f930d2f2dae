package admission

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RajshekharX12/as/internal/model"
)

func remaining(n int64) *int64 {
	return &n
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		offer  model.Offer
		cs     model.ConstraintSet
		want   model.Decision
		reason string
	}{
		{
			name:   "no constraints buys anything",
			offer:  model.Offer{ID: "g1", Title: "Bear", Price: 15},
			want:   model.DecisionBuy,
			reason: ReasonEligible,
		},
		{
			name:   "sold out with unbounded max",
			offer:  model.Offer{ID: "g1", Title: "Bear", Price: 200, Remaining: remaining(0)},
			cs:     model.ConstraintSet{PriceMax: 0},
			want:   model.DecisionSkip,
			reason: ReasonSoldOut,
		},
		{
			name:   "limited with stock",
			offer:  model.Offer{ID: "g1", Title: "Bear", Price: 200, Remaining: remaining(3)},
			want:   model.DecisionBuy,
			reason: ReasonEligible,
		},
		{
			name:   "id not allowed",
			offer:  model.Offer{ID: "g2", Title: "Bear", Price: 10},
			cs:     model.ConstraintSet{AllowIDs: []string{"g1"}},
			want:   model.DecisionSkip,
			reason: ReasonIDNotAllowed,
		},
		{
			name:   "keyword case insensitive",
			offer:  model.Offer{ID: "g2", Title: "Golden BEAR", Price: 10},
			cs:     model.ConstraintSet{AllowKeywords: []string{"cake", "bear"}},
			want:   model.DecisionBuy,
			reason: ReasonEligible,
		},
		{
			name:   "keyword missing",
			offer:  model.Offer{ID: "g2", Title: "Rose", Price: 10},
			cs:     model.ConstraintSet{AllowKeywords: []string{"cake", "bear"}},
			want:   model.DecisionSkip,
			reason: ReasonNoKeyword,
		},
		{
			name:   "blank keywords ignored",
			offer:  model.Offer{ID: "g2", Title: "Rose", Price: 10},
			cs:     model.ConstraintSet{AllowKeywords: []string{"", " "}},
			want:   model.DecisionBuy,
			reason: ReasonEligible,
		},
		{
			name:   "below minimum",
			offer:  model.Offer{ID: "g1", Title: "Bear", Price: 5},
			cs:     model.ConstraintSet{PriceMin: 10},
			want:   model.DecisionSkip,
			reason: ReasonBelowMin,
		},
		{
			name:   "bounds inclusive",
			offer:  model.Offer{ID: "g1", Title: "Bear", Price: 10},
			cs:     model.ConstraintSet{PriceMin: 10, PriceMax: 10},
			want:   model.DecisionBuy,
			reason: ReasonEligible,
		},
		{
			name:   "above max without alert",
			offer:  model.Offer{ID: "g1", Title: "Bear", Price: 500},
			cs:     model.ConstraintSet{PriceMax: 100},
			want:   model.DecisionSkip,
			reason: ReasonAboveMax,
		},
		{
			name:   "above max with alert",
			offer:  model.Offer{ID: "g1", Title: "Bear", Price: 500},
			cs:     model.ConstraintSet{PriceMax: 100, NotifyOnlyOverCap: true},
			want:   model.DecisionAlert,
			reason: ReasonOverCap,
		},
		{
			name:   "alert needs id match",
			offer:  model.Offer{ID: "g9", Title: "Bear", Price: 500},
			cs:     model.ConstraintSet{PriceMax: 100, NotifyOnlyOverCap: true, AllowIDs: []string{"g1"}},
			want:   model.DecisionSkip,
			reason: ReasonIDNotAllowed,
		},
		{
			name:   "limited only rejects unlimited",
			offer:  model.Offer{ID: "g1", Title: "Bear", Price: 10},
			cs:     model.ConstraintSet{LimitedOnly: true},
			want:   model.DecisionSkip,
			reason: ReasonNotLimited,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Evaluate(tt.offer, tt.cs)
			require.Equal(t, tt.want, verdict.Decision)
			require.Equal(t, tt.reason, verdict.Reason)
		})
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	offer := model.Offer{ID: "g1", Title: "Bear", Price: 120, Remaining: remaining(2)}
	cs := model.ConstraintSet{PriceMax: 100, NotifyOnlyOverCap: true, AllowKeywords: []string{"bear"}}

	first := Evaluate(offer, cs)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, Evaluate(offer, cs))
	}
}
