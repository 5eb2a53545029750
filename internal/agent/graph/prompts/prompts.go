package prompts

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
)

var (
	//go:embed template/classifier_prompt.txt
	classifierSystemPrompt string

	//go:embed template/extractor_prompt.txt
	extractorSystemPrompt string

	//go:embed template/response_prompt.txt
	responseSystemPrompt string
)

// RefusalSentence is what the response model must say when the rows do not answer the question.
const RefusalSentence = "I'm sorry, but I don't have enough information in our records to answer that."

// entityShapes documents each intent's JSON shape for the extractor.
var entityShapes = map[model.Intent]string{
	model.IntentOrderInfo:             `Example: {"order_id": 1024}`,
	model.IntentProductInfo:           `Example: {"product_id": null, "product_name": "UltraView 50 TV"}`,
	model.IntentCompareProducts:       `Example: {"product_names": ["UltraView 50 TV", "SoundMax Bar"]}`,
	model.IntentProductRecommendation: `Example: {"category": "Televisions"}`,
	model.IntentJoinedQuery:           `Example: {"customer_id": 311}`,
}

// render formats a system template plus the history placeholder through the
// eino prompt component so prompt callbacks fire.
func render(ctx context.Context, name, tpl string, vars map[string]any, history []*schema.Message) ([]*schema.Message, error) {
	t := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(tpl),
		schema.MessagesPlaceholder("history", false),
	)
	vars["history"] = history
	msgs, err := t.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("%s prompt render: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("%s prompt render: empty result", name)
	}
	return msgs, nil
}

// RenderClassifier builds the classifier input: system prompt then history.
func RenderClassifier(ctx context.Context, cfg model.PromptConfig, categories []string, history []*schema.Message) ([]*schema.Message, error) {
	return render(ctx, "classifier", classifierSystemPrompt, map[string]any{
		"BusinessName": cfg.BusinessName,
		"Categories":   joinOrNone(categories),
	}, history)
}

// RenderExtractor builds the extractor input for one intent.
func RenderExtractor(ctx context.Context, intent model.Intent, categories []string, history []*schema.Message) ([]*schema.Message, error) {
	keys := model.RequiredKeys(intent)
	if keys == nil {
		return nil, fmt.Errorf("extractor prompt: unknown intent %q", intent)
	}
	return render(ctx, "extractor", extractorSystemPrompt, map[string]any{
		"Intent":     string(intent),
		"Keys":       strings.Join(keys, ", "),
		"Shape":      entityShapes[intent],
		"Categories": joinOrNone(categories),
	}, history)
}

// RenderResponse builds the response input around the retrieved rows.
func RenderResponse(ctx context.Context, cfg model.PromptConfig, res model.Resolution, history []*schema.Message) ([]*schema.Message, error) {
	retrieved, err := BuildRetrievedContext(res.Rows, cfg.MaxRows)
	if err != nil {
		return nil, err
	}
	return render(ctx, "response", responseSystemPrompt, map[string]any{
		"BusinessName": cfg.BusinessName,
		"Intent":       string(res.Intent),
		"Context":      retrieved,
		"Refusal":      RefusalSentence,
	}, history)
}

// TruncationNotice is appended when rows were dropped from the context.
func TruncationNotice(maxRows int) string {
	return fmt.Sprintf("Note: Only the first %d rows of retrieved data are shown due to space limitations.", maxRows)
}

// BuildRetrievedContext renders at most maxRows rows, one JSON object per
// line, followed by the truncation notice when rows were dropped.
func BuildRetrievedContext(rows []any, maxRows int) (string, error) {
	if maxRows <= 0 {
		maxRows = 10
	}
	shown := rows
	if len(rows) > maxRows {
		shown = rows[:maxRows]
	}

	var b strings.Builder
	for _, row := range shown {
		line, err := json.Marshal(row)
		if err != nil {
			return "", fmt.Errorf("encode retrieved row: %w", err)
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	if len(rows) > maxRows {
		b.WriteString(TruncationNotice(maxRows))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none loaded)"
	}
	return strings.Join(items, ", ")
}
