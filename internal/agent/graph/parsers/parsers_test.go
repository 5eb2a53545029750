package parsers

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
)

func TestParseClassification(t *testing.T) {
	cases := []struct {
		name     string
		content  string
		kind     model.ClassificationKind
		intent   model.Intent
		question string
	}{
		{name: "json intent", content: `{"intent": "order_info", "clarification": null}`, kind: model.KindIntent, intent: model.IntentOrderInfo},
		{name: "json intent any case", content: `{"intent": "Compare_Products"}`, kind: model.KindIntent, intent: model.IntentCompareProducts},
		{name: "fenced json", content: "```json\n{\"intent\": \"joined_query\"}\n```", kind: model.KindIntent, intent: model.IntentJoinedQuery},
		{name: "json clarification", content: `{"intent": null, "clarification": "Which order number?"}`, kind: model.KindClarify, question: "Which order number?"},
		{name: "bare intent", content: "product_recommendation\n", kind: model.KindIntent, intent: model.IntentProductRecommendation},
		{name: "bare question", content: "Could you share your customer ID?", kind: model.KindClarify, question: "Could you share your customer ID?"},
		{name: "unknown intent", content: `{"intent": "refund"}`, kind: model.KindUnrecognized},
		{name: "free text", content: "Sure, here is your answer.", kind: model.KindUnrecognized},
		{name: "empty", content: "", kind: model.KindUnrecognized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseClassification(tc.content)
			require.Equal(t, tc.kind, got.Kind)
			require.Equal(t, tc.intent, got.Intent)
			require.Equal(t, tc.question, got.Question)
		})
	}
}

func TestParseEntities_Valid(t *testing.T) {
	ent, err := ParseEntities(model.IntentOrderInfo, `{"order_id": 42}`)
	require.NoError(t, err)
	oi := ent.(model.OrderInfoEntities)
	require.NotNil(t, oi.OrderID)
	require.Equal(t, int64(42), *oi.OrderID)

	ent, err = ParseEntities(model.IntentProductInfo, "```json\n{\"product_id\": null, \"product_name\": \" UltraView 50 TV \"}\n```")
	require.NoError(t, err)
	pi := ent.(model.ProductInfoEntities)
	require.Nil(t, pi.ProductID)
	require.Equal(t, "UltraView 50 TV", *pi.ProductName)

	ent, err = ParseEntities(model.IntentCompareProducts, `{"product_names": ["A", "B"]}`)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, ent.(model.CompareProductsEntities).ProductNames)

	ent, err = ParseEntities(model.IntentProductRecommendation, `{"category": "Audio"}`)
	require.NoError(t, err)
	require.Equal(t, "Audio", *ent.(model.ProductRecommendationEntities).Category)

	ent, err = ParseEntities(model.IntentJoinedQuery, `{"customer_id": null}`)
	require.NoError(t, err)
	require.Nil(t, ent.(model.JoinedQueryEntities).CustomerID)
}

func TestParseEntities_NumericCoercion(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    *int64
	}{
		{name: "numeric string", content: `{"order_id": "42"}`, want: ptr(42)},
		{name: "integral float", content: `{"order_id": 42.0}`, want: ptr(42)},
		{name: "fraction", content: `{"order_id": 4.2}`},
		{name: "word", content: `{"order_id": "forty-two"}`},
		{name: "bool", content: `{"order_id": true}`},
		{name: "object", content: `{"order_id": {"id": 1}}`},
		{name: "null", content: `{"order_id": null}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ent, err := ParseEntities(model.IntentOrderInfo, tc.content)
			require.NoError(t, err)
			require.Equal(t, tc.want, ent.(model.OrderInfoEntities).OrderID)
		})
	}
}

func TestParseEntities_StructuralFailures(t *testing.T) {
	cases := []struct {
		name    string
		intent  model.Intent
		content string
	}{
		{name: "not json", intent: model.IntentOrderInfo, content: "order 42"},
		{name: "array", intent: model.IntentOrderInfo, content: `[42]`},
		{name: "broken json", intent: model.IntentOrderInfo, content: `{"order_id": 42`},
		{name: "trailing text", intent: model.IntentOrderInfo, content: `{"order_id": 1} trailing junk }`},
		{name: "two objects", intent: model.IntentOrderInfo, content: "{\"order_id\": 1}\n{\"order_id\": 2}"},
		{name: "missing key", intent: model.IntentProductInfo, content: `{"product_id": 1}`},
		{name: "names not array", intent: model.IntentCompareProducts, content: `{"product_names": "A, B"}`},
		{name: "name not string", intent: model.IntentCompareProducts, content: `{"product_names": ["A", 2]}`},
		{name: "category object", intent: model.IntentProductRecommendation, content: `{"category": {"name": "Audio"}}`},
		{name: "unknown intent", intent: model.Intent("refund"), content: `{}`},
		{name: "too many names", intent: model.IntentCompareProducts, content: `{"product_names": [` + strings.Repeat(`"x",`, maxNames) + `"y"]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ent, err := ParseEntities(tc.intent, tc.content)
			require.Nil(t, ent)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want *ParseError, got %v", err)
			require.Equal(t, tc.intent, pe.Intent)
		})
	}
}

func TestParseError_SnippetIsBounded(t *testing.T) {
	_, err := ParseEntities(model.IntentOrderInfo, strings.Repeat("x", 10_000))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	require.LessOrEqual(t, len(pe.Snippet), maxErrSnippet)
}

func ptr(n int64) *int64 { return &n }
