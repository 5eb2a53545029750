package model

import "strings"

// Intent is the closed set of actions a turn can resolve to.
type Intent string

const (
	IntentOrderInfo             Intent = "order_info"
	IntentProductInfo           Intent = "product_info"
	IntentCompareProducts       Intent = "compare_products"
	IntentProductRecommendation Intent = "product_recommendation"
	IntentJoinedQuery           Intent = "joined_query"
)

// Intents lists every valid intent in prompt order.
var Intents = []Intent{
	IntentOrderInfo,
	IntentProductInfo,
	IntentCompareProducts,
	IntentProductRecommendation,
	IntentJoinedQuery,
}

// ParseIntent matches s against the enumeration, ignoring case and surrounding space.
func ParseIntent(s string) (Intent, bool) {
	s = strings.TrimSpace(s)
	for _, it := range Intents {
		if strings.EqualFold(s, string(it)) {
			return it, true
		}
	}
	return "", false
}

type ClassificationKind string

const (
	KindIntent       ClassificationKind = "intent"
	KindClarify      ClassificationKind = "clarify"
	KindUnrecognized ClassificationKind = "unrecognized"
)

// Classification is the classifier result. Exactly one of Intent or Question
// is meaningful, selected by Kind. Raw keeps the model output for logging only.
type Classification struct {
	Kind     ClassificationKind
	Intent   Intent
	Question string
	Raw      string
}

func (c Classification) HasIntent() bool {
	return c.Kind == KindIntent
}
