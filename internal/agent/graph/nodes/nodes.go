package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/graph/conversations"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/graph/parsers"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
)

// QueryResolver fetches catalog rows for extracted entities.
type QueryResolver interface {
	Resolve(entities model.ExtractedEntities) model.Resolution
}

// NewInputConverterPreHandler creates the pre-handler for InputConverter node
func NewInputConverterPreHandler() func(context.Context, model.TurnInput, *model.TurnState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.TurnState) (model.TurnInput, error) {
		s.Username = in.Username
		s.Stage = model.StageReceived
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputConverterNode loads the recent history window into state and
// renders the classifier input. The user message is already persisted.
func NewInputConverterNode(
	mm *conversations.MessagesManager,
	promptCfg *model.PromptConfig,
	categories []string,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.TurnInput) ([]*schema.Message, error) {
		history, err := mm.RecentHistory(ctx, input.Username)
		if err != nil {
			return nil, fmt.Errorf("error getting session history: %w", err)
		}
		if err := compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
			state.History = history
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		return prompts.RenderClassifier(ctx, *promptCfg, categories, conversations.ToSchemaMessages(history))
	})
}

// NewUsagePostHandler records token usage and cost for a chat model node.
func NewUsagePostHandler(node, modelName string) func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.TurnState) (*schema.Message, error) {
		recordUsage(state, node, modelName, out)
		return out, nil
	}
}

// NewClassificationParserNode maps classifier output to a Classification.
func NewClassificationParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (model.Classification, error) {
		if resp == nil {
			return model.Classification{}, fmt.Errorf("classifier returned nil message")
		}
		return parsers.ParseClassification(resp.Content), nil
	})
}

func NewClassificationParserPostHandler() func(context.Context, model.Classification, *model.TurnState) (model.Classification, error) {
	return func(ctx context.Context, out model.Classification, state *model.TurnState) (model.Classification, error) {
		state.Classification = &out
		state.Stage = model.StageClassified
		logx.Debug().
			Str("username", state.Username).
			Str("kind", string(out.Kind)).
			Str("intent", string(out.Intent)).
			Msg("Classified turn")
		return out, nil
	}
}

// NewClassificationCondition routes follow-ups and unrecognized output to Clarify.
func NewClassificationCondition() func(context.Context, model.Classification) (string, error) {
	return func(ctx context.Context, c model.Classification) (string, error) {
		if c.HasIntent() {
			return NodeExtractorAssembler, nil
		}
		return NodeClarify, nil
	}
}

// NewClarifyNode answers with the classifier's question, or a fixed fallback
// when the classifier output matched nothing. Raw output is never echoed.
func NewClarifyNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, c model.Classification) (model.TurnReply, error) {
		if c.Kind == model.KindClarify {
			return model.TurnReply{Content: c.Question, Outcome: model.OutcomeClarify, Stage: model.StageClassified}, nil
		}
		snap, _ := snapshot(ctx)
		logx.Warn().
			Str("username", snap.Username).
			Str("raw", c.Raw).
			Msg("classification_unrecognized")
		return model.TurnReply{Content: UnrecognizedReply, Outcome: model.OutcomeUnrecognized, Stage: model.StageClassified}, nil
	})
}

// NewExtractorAssemblerNode renders the extractor input for the classified intent.
func NewExtractorAssemblerNode(categories []string) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, c model.Classification) ([]*schema.Message, error) {
		snap, err := snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return prompts.RenderExtractor(ctx, c.Intent, categories, snap.History)
	})
}

// NewEntityParserNode validates extractor output. Structural failures are
// carried in the result so the graph can branch on them.
func NewEntityParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (model.Extraction, error) {
		snap, err := snapshot(ctx)
		if err != nil {
			return model.Extraction{}, err
		}
		content := ""
		if resp != nil {
			content = resp.Content
		}

		entities, err := parsers.ParseEntities(snap.Intent, content)
		if err != nil {
			var pe *parsers.ParseError
			if errors.As(err, &pe) {
				return model.Extraction{Intent: snap.Intent, ParseErr: pe}, nil
			}
			return model.Extraction{}, err
		}
		return model.Extraction{Intent: snap.Intent, Entities: entities}, nil
	})
}

func NewEntityParserPostHandler() func(context.Context, model.Extraction, *model.TurnState) (model.Extraction, error) {
	return func(ctx context.Context, out model.Extraction, state *model.TurnState) (model.Extraction, error) {
		state.Entities = out.Entities
		state.Stage = model.StageExtracted
		return out, nil
	}
}

func NewEntityCondition() func(context.Context, model.Extraction) (string, error) {
	return func(ctx context.Context, ex model.Extraction) (string, error) {
		if ex.ParseErr != nil {
			return NodeParseError, nil
		}
		return NodeResolver, nil
	}
}

func NewParseErrorNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, ex model.Extraction) (model.TurnReply, error) {
		snap, _ := snapshot(ctx)
		ev := logx.Warn().Str("username", snap.Username).Str("intent", string(ex.Intent)).Err(ex.ParseErr)
		var pe *parsers.ParseError
		if errors.As(ex.ParseErr, &pe) {
			ev = ev.Str("snippet", pe.Snippet)
		}
		ev.Msg("entities_parse_failed")
		return model.TurnReply{Content: ParseFailureReply, Outcome: model.OutcomeParseError, Stage: model.StageExtracted, Intent: ex.Intent}, nil
	})
}

// NewResolverNode runs the deterministic catalog lookup.
func NewResolverNode(resolver QueryResolver) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, ex model.Extraction) (model.Resolution, error) {
		res := resolver.Resolve(ex.Entities)
		res.Intent = ex.Intent
		return res, nil
	})
}

func NewResolverPostHandler() func(context.Context, model.Resolution, *model.TurnState) (model.Resolution, error) {
	return func(ctx context.Context, out model.Resolution, state *model.TurnState) (model.Resolution, error) {
		state.Stage = model.StageResolved
		logx.Debug().
			Str("username", state.Username).
			Str("intent", string(out.Intent)).
			Int("rows", len(out.Rows)).
			Msg("Resolved catalog rows")
		return out, nil
	}
}

func NewResolutionCondition() func(context.Context, model.Resolution) (string, error) {
	return func(ctx context.Context, res model.Resolution) (string, error) {
		if res.NoData {
			return NodeNoData, nil
		}
		return NodeResponseAssembler, nil
	}
}

func NewNoDataNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, res model.Resolution) (model.TurnReply, error) {
		snap, _ := snapshot(ctx)
		logx.Info().Str("username", snap.Username).Str("intent", string(res.Intent)).Msg("no_data")
		return model.TurnReply{Content: NoDataReply, Outcome: model.OutcomeNoData, Stage: model.StageResolved, Intent: res.Intent}, nil
	})
}

// NewResponseAssemblerNode renders the response input around the retrieved rows.
func NewResponseAssemblerNode(promptCfg *model.PromptConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, res model.Resolution) ([]*schema.Message, error) {
		snap, err := snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return prompts.RenderResponse(ctx, *promptCfg, res, snap.History)
	})
}

// NewResponseChatModelPostHandler records usage and marks the turn generated.
func NewResponseChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.TurnState) (*schema.Message, error) {
		recordUsage(state, NodeResponseChatModel, modelName, out)
		state.Stage = model.StageGenerated
		return out, nil
	}
}

// NewFinalizerNode turns the response model output into a reply. Empty
// output is replaced with the refusal sentence.
func NewFinalizerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, out *schema.Message) (model.TurnReply, error) {
		snap, _ := snapshot(ctx)
		content := ""
		if out != nil {
			content = strings.TrimSpace(out.Content)
		}
		if content == "" {
			logx.Warn().Str("username", snap.Username).Msg("empty response from model, sending refusal")
			content = prompts.RefusalSentence
		}
		return model.TurnReply{Content: content, Outcome: model.OutcomeAnswered, Stage: model.StageGenerated, Intent: snap.Intent}, nil
	})
}

// NewPersistNode appends the assistant reply. Every branch ends here.
func NewPersistNode(mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, reply model.TurnReply) (model.TurnReply, error) {
		snap, err := snapshot(ctx)
		if err != nil {
			return model.TurnReply{}, err
		}
		if err := mm.SaveResponse(ctx, snap.Username, reply.Content); err != nil {
			logx.Error().Err(err).Str("username", snap.Username).Msg("Error saving assistant response")
			return model.TurnReply{}, err
		}
		return reply, nil
	})
}

func NewPersistPostHandler() func(context.Context, model.TurnReply, *model.TurnState) (model.TurnReply, error) {
	return func(ctx context.Context, out model.TurnReply, state *model.TurnState) (model.TurnReply, error) {
		state.Stage = model.StagePersisted
		logx.Info().
			Str("username", state.Username).
			Str("outcome", string(out.Outcome)).
			Str("intent", string(out.Intent)).
			Float64("total_cost_usd", state.TotalCostUSD).
			Msg("Turn completed")
		return out, nil
	}
}
