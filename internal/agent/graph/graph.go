package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/graph/conversations"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/graph/observers"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/commerce-agent/internal/core/error"
	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
)

const maxRunSteps = 20

// Runner executes chat turns and the session operations around them.
type Runner interface {
	Invoke(ctx context.Context, in model.TurnInput) (model.TurnReply, error)
	History(ctx context.Context, username string) ([]model.ChatMessage, error)
	EndSession(ctx context.Context, username string) error
}

// Config holds everything needed to compose the turn graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs ChatModels and MessagesManager.
type Config struct {
	APIKey       string
	BaseURL      string
	Classifier   model.ClassifierModelConfig
	Extractor    model.ExtractorModelConfig
	Response     model.ResponseModelConfig
	LLM          model.LLMConfig
	Prompt       model.PromptConfig
	Conversation model.ConversationConfig
	SessionRepo  model.SessionRepository
	Resolver     nodes.QueryResolver
	Categories   []string
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels      *nodes.ChatModels
	MessagesManager *conversations.MessagesManager
	Resolver        nodes.QueryResolver
	PromptConfig    *model.PromptConfig
	Categories      []string
}

// GraphBuilder handles the construction of the turn graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.TurnInput, model.TurnReply]
}

type graphRunner struct {
	runnable compose.Runnable[model.TurnInput, model.TurnReply]
	mm       *conversations.MessagesManager
	locks    *keyedMutex
}

// Invoke runs one turn. Turns of the same user never overlap. Pipeline
// failures become the generic failure reply (Outcome failed) which is
// persisted like any other reply; an error is returned only for invalid input
// or when the session store itself cannot be written.
func (r *graphRunner) Invoke(ctx context.Context, in model.TurnInput) (model.TurnReply, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return model.TurnReply{}, errx.Invalid("username is required")
	}
	if strings.TrimSpace(in.Message) == "" {
		return model.TurnReply{}, errx.Invalid("message is required")
	}

	unlock := r.locks.Lock(in.Username)
	defer unlock()

	if err := r.mm.AppendUser(ctx, in.Username, in.Message); err != nil {
		logx.Error().Err(err).Str("username", in.Username).Msg("turn_failed")
		return model.TurnReply{}, err
	}

	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err == nil {
		return out, nil
	}

	logx.Error().Err(err).Str("username", in.Username).Msg("turn_failed")
	reply := model.TurnReply{Content: nodes.FailureReply, Outcome: model.OutcomeFailed}
	// the turn still closes with an assistant message
	if serr := r.mm.SaveResponse(context.WithoutCancel(ctx), in.Username, reply.Content); serr != nil {
		logx.Error().Err(serr).Str("username", in.Username).Msg("failed to persist failure reply")
		return model.TurnReply{}, serr
	}
	return reply, nil
}

// History returns the full session of a user; unknown users have none.
func (r *graphRunner) History(ctx context.Context, username string) ([]model.ChatMessage, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errx.Invalid("username is required")
	}
	return r.mm.History(ctx, username)
}

// EndSession clears a user's session once any running turn has finished.
func (r *graphRunner) EndSession(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errx.Invalid("username is required")
	}
	unlock := r.locks.Lock(username)
	defer unlock()
	cleared, err := r.mm.EndSession(ctx, username)
	if err != nil {
		logx.Error().Err(err).Str("username", username).Msg("failed to end session")
		return err
	}
	logx.Info().Str("username", username).Int("messages_cleared", cleared).Msg("Session ended")
	return nil
}

// BuildTurnGraph composes ChatModels, MessagesManager, builds the graph, and returns a Runner.
func BuildTurnGraph(ctx context.Context, cfg Config) (Runner, error) {
	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Classifier: cfg.Classifier.ChatModel(),
		Extractor:  cfg.Extractor.ChatModel(),
		Response:   cfg.Response.ChatModel(),
		LLM:        cfg.LLM,
	})
	if err != nil {
		return nil, err
	}
	return NewRunner(ctx, cms, cfg)
}

// NewRunner builds the graph around already constructed chat models.
func NewRunner(ctx context.Context, cms *nodes.ChatModels, cfg Config) (Runner, error) {
	if cfg.SessionRepo == nil {
		return nil, fmt.Errorf("session repo is nil")
	}
	mm := conversations.NewMessagesManager(cfg.SessionRepo, cfg.Conversation)

	prompt := cfg.Prompt
	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:      cms,
		MessagesManager: mm,
		Resolver:        cfg.Resolver,
		PromptConfig:    &prompt,
		Categories:      cfg.Categories,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Turn graph built successfully")
	return &graphRunner{runnable: runnable, mm: mm, locks: newKeyedMutex()}, nil
}

// BuildGraph constructs and returns the compiled turn graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TurnInput, model.TurnReply], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	cms := config.ChatModels
	if cms == nil || cms.Classifier == nil || cms.Extractor == nil || cms.Response == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.Resolver == nil {
		return nil, fmt.Errorf("query resolver is nil")
	}
	if config.PromptConfig == nil {
		return nil, fmt.Errorf("prompt config is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, model.TurnReply](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	cfg := b.config
	cms := cfg.ChatModels
	g := b.graph

	errs := []error{
		g.AddLambdaNode(nodes.NodeInputConverter,
			nodes.NewInputConverterNode(cfg.MessagesManager, cfg.PromptConfig, cfg.Categories),
			compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
		),
		g.AddChatModelNode(nodes.NodeClassifierChatModel, cms.Classifier,
			compose.WithStatePostHandler(nodes.NewUsagePostHandler(nodes.NodeClassifierChatModel, cms.ClassifierModelName)),
		),
		g.AddLambdaNode(nodes.NodeClassificationParser,
			nodes.NewClassificationParserNode(),
			compose.WithStatePostHandler(nodes.NewClassificationParserPostHandler()),
		),
		g.AddLambdaNode(nodes.NodeClarify, nodes.NewClarifyNode()),
		g.AddLambdaNode(nodes.NodeExtractorAssembler, nodes.NewExtractorAssemblerNode(cfg.Categories)),
		g.AddChatModelNode(nodes.NodeExtractorChatModel, cms.Extractor,
			compose.WithStatePostHandler(nodes.NewUsagePostHandler(nodes.NodeExtractorChatModel, cms.ExtractorModelName)),
		),
		g.AddLambdaNode(nodes.NodeEntityParser,
			nodes.NewEntityParserNode(),
			compose.WithStatePostHandler(nodes.NewEntityParserPostHandler()),
		),
		g.AddLambdaNode(nodes.NodeParseError, nodes.NewParseErrorNode()),
		g.AddLambdaNode(nodes.NodeResolver,
			nodes.NewResolverNode(cfg.Resolver),
			compose.WithStatePostHandler(nodes.NewResolverPostHandler()),
		),
		g.AddLambdaNode(nodes.NodeNoData, nodes.NewNoDataNode()),
		g.AddLambdaNode(nodes.NodeResponseAssembler, nodes.NewResponseAssemblerNode(cfg.PromptConfig)),
		g.AddChatModelNode(nodes.NodeResponseChatModel, cms.Response,
			compose.WithStatePostHandler(nodes.NewResponseChatModelPostHandler(cms.ResponseModelName)),
		),
		g.AddLambdaNode(nodes.NodeFinalizer, nodes.NewFinalizerNode()),
		g.AddLambdaNode(nodes.NodePersist,
			nodes.NewPersistNode(cfg.MessagesManager),
			compose.WithStatePostHandler(nodes.NewPersistPostHandler()),
		),
	}
	for _, err := range errs {
		if err != nil {
			logx.Error().Err(err).Msg("Error adding node")
			return fmt.Errorf("error adding node: %w", err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeClassifierChatModel},
		{nodes.NodeClassifierChatModel, nodes.NodeClassificationParser},
		{nodes.NodeExtractorAssembler, nodes.NodeExtractorChatModel},
		{nodes.NodeExtractorChatModel, nodes.NodeEntityParser},
		{nodes.NodeResponseAssembler, nodes.NodeResponseChatModel},
		{nodes.NodeResponseChatModel, nodes.NodeFinalizer},

		// every terminal branch persists its reply
		{nodes.NodeClarify, nodes.NodePersist},
		{nodes.NodeParseError, nodes.NodePersist},
		{nodes.NodeNoData, nodes.NodePersist},
		{nodes.NodeFinalizer, nodes.NodePersist},
		{nodes.NodePersist, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	branches := []struct {
		from   string
		branch *compose.GraphBranch
	}{
		{
			from: nodes.NodeClassificationParser,
			branch: compose.NewGraphBranch(nodes.NewClassificationCondition(), map[string]bool{
				nodes.NodeClarify:            true,
				nodes.NodeExtractorAssembler: true,
			}),
		},
		{
			from: nodes.NodeEntityParser,
			branch: compose.NewGraphBranch(nodes.NewEntityCondition(), map[string]bool{
				nodes.NodeParseError: true,
				nodes.NodeResolver:   true,
			}),
		},
		{
			from: nodes.NodeResolver,
			branch: compose.NewGraphBranch(nodes.NewResolutionCondition(), map[string]bool{
				nodes.NodeNoData:            true,
				nodes.NodeResponseAssembler: true,
			}),
		},
	}

	for _, br := range branches {
		if err := b.graph.AddBranch(br.from, br.branch); err != nil {
			logx.Error().Err(err).Str("from", br.from).Msg("Error adding branch")
			return fmt.Errorf("error adding branch after %s: %w", br.from, err)
		}
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, model.TurnReply], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxRunSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
