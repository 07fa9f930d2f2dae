// Package admission решает судьбу одного предложения при заданных ограничениях.
// Функции пакета чистые: одинаковые входные данные всегда дают одинаковый результат.
package admission

import (
	"slices"
	"strings"

	"github.com/RajshekharX12/as/internal/model"
)

// Причины решения, попадают в логи
const (
	ReasonEligible        = "eligible"
	ReasonOverCap         = "price above cap, alert requested"
	ReasonIDNotAllowed    = "id not in allow list"
	ReasonNoKeyword       = "title matches no keyword"
	ReasonBelowMin        = "price below minimum"
	ReasonAboveMax        = "price above maximum"
	ReasonSoldOut         = "scarcity exhausted"
	ReasonNotLimited      = "offer is not limited"
	ReasonNegativePricing = "negative price"
)

type Verdict struct {
	Decision model.Decision
	Reason   string
}

func Evaluate(offer model.Offer, cs model.ConstraintSet) Verdict {
	if !idAllowed(offer.ID, cs.AllowIDs) {
		return skip(ReasonIDNotAllowed)
	}
	if !keywordMatched(offer.Title, cs.AllowKeywords) {
		return skip(ReasonNoKeyword)
	}
	if offer.Price < 0 {
		return skip(ReasonNegativePricing)
	}

	// цена выше потолка: только уведомление, если оно включено
	if cs.PriceMax > 0 && offer.Price > cs.PriceMax {
		if cs.NotifyOnlyOverCap {
			return Verdict{Decision: model.DecisionAlert, Reason: ReasonOverCap}
		}
		return skip(ReasonAboveMax)
	}
	if cs.PriceMin > 0 && offer.Price < cs.PriceMin {
		return skip(ReasonBelowMin)
	}

	// price_max == 0 - нет верхней границы, remaining == 0 - распродано
	if offer.Remaining != nil && *offer.Remaining <= 0 {
		return skip(ReasonSoldOut)
	}
	if cs.LimitedOnly && !offer.Limited() {
		return skip(ReasonNotLimited)
	}

	return Verdict{Decision: model.DecisionBuy, Reason: ReasonEligible}
}

func skip(reason string) Verdict {
	return Verdict{Decision: model.DecisionSkip, Reason: reason}
}

func idAllowed(id string, allow []string) bool {
	return len(allow) == 0 || slices.Contains(allow, id)
}

func keywordMatched(title string, keywords []string) bool {
	title = strings.ToLower(title)
	matched, checked := false, false
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		checked = true
		if strings.Contains(title, strings.ToLower(keyword)) {
			matched = true
			break
		}
	}
	// пустой список (или только пустые строки) - подходит любое название
	return matched || !checked
}
