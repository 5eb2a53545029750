package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/commerce-agent/internal/core/error"
	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
)

// ParseEntities validates extractor output for an intent. Every required key
// must be present; numeric fields that are not integers become nil; values
// with the wrong container type fail the parse with *ParseError.
func ParseEntities(intent model.Intent, content string) (ent model.ExtractedEntities, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "entity_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("entity parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			ent = nil
		}
	}()

	raw := content
	content, truncated := cleanContent(content)
	if truncated {
		logx.Warn().
			Str("component", "entity_parser").
			Int("max_len", maxContentLen).
			Msg("content truncated due to size limit")
	}
	if !utf8.ValidString(content) {
		return nil, newParseError(intent, raw, "invalid utf8")
	}

	fields, perr := decodeObject(content)
	if perr != nil {
		return nil, newParseError(intent, raw, "%v", perr)
	}
	required := model.RequiredKeys(intent)
	if required == nil {
		return nil, newParseError(intent, raw, "unknown intent")
	}
	for _, key := range required {
		if _, ok := fields[key]; !ok {
			return nil, newParseError(intent, raw, "missing key %q", key)
		}
	}

	switch intent {
	case model.IntentOrderInfo:
		return model.OrderInfoEntities{OrderID: parseInt(fields["order_id"])}, nil

	case model.IntentProductInfo:
		name, err := parseString(fields["product_name"])
		if err != nil {
			return nil, newParseError(intent, raw, "product_name: %v", err)
		}
		return model.ProductInfoEntities{ProductID: parseInt(fields["product_id"]), ProductName: name}, nil

	case model.IntentCompareProducts:
		names, err := parseStringList(fields["product_names"])
		if err != nil {
			return nil, newParseError(intent, raw, "product_names: %v", err)
		}
		return model.CompareProductsEntities{ProductNames: names}, nil

	case model.IntentProductRecommendation:
		category, err := parseString(fields["category"])
		if err != nil {
			return nil, newParseError(intent, raw, "category: %v", err)
		}
		return model.ProductRecommendationEntities{Category: category}, nil

	case model.IntentJoinedQuery:
		return model.JoinedQueryEntities{CustomerID: parseInt(fields["customer_id"])}, nil
	}
	return nil, newParseError(intent, raw, "unknown intent")
}

func decodeObject(content string) (map[string]any, error) {
	if !strings.HasPrefix(content, "{") || !strings.HasSuffix(content, "}") {
		return nil, fmt.Errorf("not a json object")
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after json object")
	}
	if fields == nil {
		return nil, fmt.Errorf("not a json object")
	}
	return fields, nil
}

// parseInt accepts integral JSON numbers and numeric strings; anything else is nil.
func parseInt(v any) *int64 {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	default:
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
		return nil
	}
	n := int64(f)
	return &n
}

// parseString allows null and scalars; objects and arrays are structural errors.
func parseString(v any) (*string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		if len(s) > maxNameLen {
			return nil, fmt.Errorf("value too long")
		}
		return &s, nil
	case json.Number:
		s := t.String()
		return &s, nil
	case bool:
		s := strconv.FormatBool(t)
		return &s, nil
	default:
		return nil, fmt.Errorf("expected string, got %T", v)
	}
}

func parseStringList(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		if len(t) > maxNames {
			return nil, fmt.Errorf("too many names")
		}
		names := make([]string, 0, len(t))
		for i, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("entry %d: expected string, got %T", i, item)
			}
			if len(s) > maxNameLen {
				return nil, fmt.Errorf("entry %d: value too long", i)
			}
			names = append(names, strings.TrimSpace(s))
		}
		return names, nil
	default:
		return nil, fmt.Errorf("expected array, got %T", v)
	}
}
