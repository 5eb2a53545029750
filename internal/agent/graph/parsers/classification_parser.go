package parsers

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
)

type classifierOutput struct {
	Intent        *string `json:"intent"`
	Clarification *string `json:"clarification"`
}

// ParseClassification maps classifier output to exactly one variant.
// JSON {"intent": ..., "clarification": ...} is preferred; bare text is
// accepted when it is an intent name or a question.
func ParseClassification(content string) (out model.Classification) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "classification_parser").Msgf("panic recovered: %v", r)
			out = model.Classification{Kind: model.KindUnrecognized, Raw: safeSnippet(content)}
		}
	}()

	raw := content
	content, truncated := cleanContent(content)
	if truncated {
		logx.Warn().
			Str("component", "classification_parser").
			Int("max_len", maxContentLen).
			Msg("content truncated due to size limit")
	}

	if strings.HasPrefix(content, "{") {
		var co classifierOutput
		if err := json.Unmarshal([]byte(content), &co); err == nil {
			if co.Intent != nil {
				if it, ok := model.ParseIntent(*co.Intent); ok {
					return model.Classification{Kind: model.KindIntent, Intent: it, Raw: raw}
				}
			}
			if co.Clarification != nil {
				if q := strings.TrimSpace(*co.Clarification); q != "" && utf8.ValidString(q) {
					return model.Classification{Kind: model.KindClarify, Question: q, Raw: raw}
				}
			}
			return model.Classification{Kind: model.KindUnrecognized, Raw: safeSnippet(raw)}
		}
	}

	text := strings.Trim(content, "\"'` \n\t")
	if it, ok := model.ParseIntent(text); ok {
		return model.Classification{Kind: model.KindIntent, Intent: it, Raw: raw}
	}
	if strings.HasSuffix(text, "?") && utf8.ValidString(text) && !strings.ContainsAny(text, "{}") {
		return model.Classification{Kind: model.KindClarify, Question: text, Raw: raw}
	}
	return model.Classification{Kind: model.KindUnrecognized, Raw: safeSnippet(raw)}
}
