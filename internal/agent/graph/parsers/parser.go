package parsers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxNameLen    = 512       // longest accepted product name / category
	maxNames      = 16        // product_names entries considered
	maxErrSnippet = 200       // limit error snippet size
)

// ParseError marks model output that is structurally unusable for the turn.
type ParseError struct {
	Intent  model.Intent
	Reason  string
	Snippet string
}

func (e *ParseError) Error() string {
	if e.Intent == "" {
		return fmt.Sprintf("parse model output: %s", e.Reason)
	}
	return fmt.Sprintf("parse %s entities: %s", e.Intent, e.Reason)
}

func newParseError(intent model.Intent, content, format string, args ...any) *ParseError {
	return &ParseError{Intent: intent, Reason: fmt.Sprintf(format, args...), Snippet: safeSnippet(content)}
}

// cleanContent trims, caps length, and unwraps a single markdown code fence.
func cleanContent(content string) (string, bool) {
	truncated := false
	if len(content) > maxContentLen {
		content = content[:maxContentLen]
		truncated = true
	}
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		// drop the info string, e.g. ```json
		if nl := strings.IndexByte(content, '\n'); nl >= 0 {
			content = content[nl+1:]
		} else {
			content = strings.TrimPrefix(strings.TrimSpace(content), "json")
		}
		if end := strings.LastIndex(content, "```"); end >= 0 {
			content = content[:end]
		}
		content = strings.TrimSpace(content)
	}
	return content, truncated
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	s = s[:maxErrSnippet]
	for !utf8.ValidString(s) && len(s) > 0 {
		s = s[:len(s)-1]
	}
	return s
}
