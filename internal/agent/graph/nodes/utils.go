package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/graph/conversations"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
)

// ===== Small helpers to keep handlers simple/readable =====

// recordUsage computes the call cost, logs it and adds it to the turn total.
func recordUsage(state *model.TurnState, node, modelName string, out *schema.Message) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))
	if out.Extra == nil {
		out.Extra = map[string]any{}
	}
	out.Extra["usage_cost"] = map[string]any{
		"currency":          "USD",
		"model":             modelName,
		"prompt_tokens":     usage.PromptTokens,
		"completion_tokens": usage.CompletionTokens,
		"total_tokens":      usage.TotalTokens,
		"input_cost":        inC,
		"output_cost":       outC,
		"total_cost":        totalC,
	}
	logx.Debug().
		Str("username", state.Username).
		Str("node", node).
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")

	// Accumulate only total cost into state
	state.TotalCostUSD += totalC
	out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
}

// turnSnapshot copies what lambdas need out of graph state.
type turnSnapshot struct {
	Username string
	History  []*schema.Message
	Intent   model.Intent
}

func snapshot(ctx context.Context) (turnSnapshot, error) {
	var snap turnSnapshot
	err := compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
		snap.Username = state.Username
		snap.History = conversations.ToSchemaMessages(state.History)
		if state.Classification != nil {
			snap.Intent = state.Classification.Intent
		}
		return nil
	})
	if err != nil {
		return snap, fmt.Errorf("failed to access state: %w", err)
	}
	return snap, nil
}
