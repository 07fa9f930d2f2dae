package feed

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/RajshekharX12/as/internal/model"
	"github.com/RajshekharX12/as/internal/pkg/errs"
)

const defaultTitle = "Gift"

// ключи, под которыми лента может держать коллекцию, в порядке приоритета
var collectionKeys = []string{"gifts", "offers", "items", "result", "data"}

// candidate - сырые поля одного предложения; key - ключ словаря, если лента была словарём
type candidate struct {
	fields map[string]any
	key    string
}

// Правила извлечения полей. Каждое возвращает значение и признак успеха,
// правила одного поля проверяются по порядку до первого совпадения.
// Числовое правило возвращает ошибку, если поле есть, но целым не является.
type (
	stringRule func(c candidate) (string, bool)
	intRule    func(c candidate) (int64, bool, error)
)

var (
	idRules = []stringRule{
		field("id"),
		field("gift_id"),
		field("offer_id"),
		mapKey,
	}
	titleRules = []stringRule{
		field("title"),
		field("name"),
	}
	emojiRules = []stringRule{
		field("emoji"),
		nested("sticker", "emoji"),
	}
	priceRules = []intRule{
		number("star_count"),
		nestedNumber("price", "star_count"),
		nestedNumber("price", "amount"),
		number("price"),
	}
	remainingRules = []intRule{
		number("remaining_count"),
		number("remaining"),
	}
)

// Normalize разбирает документ ленты в список предложений в порядке ленты.
// Ошибка возвращается только для невалидного JSON; записи без id отбрасываются.
func Normalize(raw []byte) ([]model.Offer, []error, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, nil, errs.Mark(errs.Wrap(err, "decode feed"), errs.ErrFeedUnavailable)
	}

	var (
		offers  []model.Offer
		dropped []error
	)
	for _, c := range collect(doc) {
		offer, err := extract(c)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		offers = append(offers, offer)
	}
	return offers, dropped, nil
}

func collect(doc any) []candidate {
	switch v := doc.(type) {
	case []any:
		candidates := make([]candidate, 0, len(v))
		for _, item := range v {
			if fields, ok := item.(map[string]any); ok {
				candidates = append(candidates, candidate{fields: fields})
			}
		}
		return candidates
	case map[string]any:
		for _, key := range collectionKeys {
			switch inner := v[key].(type) {
			case []any, map[string]any:
				return collect(inner)
			}
		}
		// одиночное предложение на верхнем уровне
		if _, ok := firstString(candidate{fields: v}, idRules[:3]); ok {
			return []candidate{{fields: v}}
		}
		// словарь id -> поля; ключи сортируются для детерминированного порядка
		keys := make([]string, 0, len(v))
		for key, item := range v {
			if _, ok := item.(map[string]any); ok {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		candidates := make([]candidate, 0, len(keys))
		for _, key := range keys {
			candidates = append(candidates, candidate{fields: v[key].(map[string]any), key: key})
		}
		return candidates
	default:
		return nil
	}
}

func extract(c candidate) (model.Offer, error) {
	id, ok := firstString(c, idRules)
	if !ok {
		return model.Offer{}, errs.Mark(errs.New("offer without id"), errs.ErrMalformedOffer)
	}

	offer := model.Offer{ID: id, Title: defaultTitle}
	if title, ok := firstString(c, titleRules); ok {
		offer.Title = title
	}
	if emoji, ok := firstString(c, emojiRules); ok {
		offer.Emoji = emoji
	}
	price, ok, err := firstInt(c, priceRules)
	if err != nil {
		return model.Offer{}, errs.Mark(errs.Wrapf(err, "offer %s: price", id), errs.ErrMalformedOffer)
	}
	if ok {
		if price < 0 {
			return model.Offer{}, errs.Mark(errs.Newf("offer %s: negative price %d", id, price), errs.ErrMalformedOffer)
		}
		offer.Price = price
	}
	remaining, ok, err := firstInt(c, remainingRules)
	if err != nil {
		return model.Offer{}, errs.Mark(errs.Wrapf(err, "offer %s: remaining", id), errs.ErrMalformedOffer)
	}
	if ok {
		offer.Remaining = &remaining
	}
	return offer, nil
}

func firstString(c candidate, rules []stringRule) (string, bool) {
	for _, rule := range rules {
		if value, ok := rule(c); ok {
			return value, true
		}
	}
	return "", false
}

func firstInt(c candidate, rules []intRule) (int64, bool, error) {
	for _, rule := range rules {
		value, ok, err := rule(c)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return value, true, nil
		}
	}
	return 0, false, nil
}

func field(name string) stringRule {
	return func(c candidate) (string, bool) {
		return asString(c.fields[name])
	}
}

func nested(parent, name string) stringRule {
	return func(c candidate) (string, bool) {
		inner, ok := c.fields[parent].(map[string]any)
		if !ok {
			return "", false
		}
		return asString(inner[name])
	}
}

func mapKey(c candidate) (string, bool) {
	key := strings.TrimSpace(c.key)
	return key, key != ""
}

func number(name string) intRule {
	return func(c candidate) (int64, bool, error) {
		return asInt(c.fields[name])
	}
}

func nestedNumber(parent, name string) intRule {
	return func(c candidate) (int64, bool, error) {
		inner, ok := c.fields[parent].(map[string]any)
		if !ok {
			return 0, false, nil
		}
		return asInt(inner[name])
	}
}

func asString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

// asInt принимает целые и числа с нулевой дробной частью в пределах int64.
// Нечисловая строка считается отсутствующим полем, дробное или слишком
// большое число - ошибкой.
func asInt(value any) (int64, bool, error) {
	var s string
	switch v := value.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = strings.TrimSpace(v)
	default:
		return 0, false, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errs.Is(err, strconv.ErrRange) {
		return 0, false, nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false, errs.Newf("number %s out of range", s)
	}
	if f != math.Trunc(f) {
		return 0, false, errs.Newf("number %s is not integral", s)
	}
	return int64(f), true, nil
}
