package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey     string
	BaseURL    string
	Classifier model.ChatModelConfig
	Extractor  model.ChatModelConfig
	Response   model.ChatModelConfig
	LLM        model.LLMConfig
}

// ChatModels holds the three per-step chat models
type ChatModels struct {
	Classifier einomodel.BaseChatModel
	Extractor  einomodel.BaseChatModel
	Response   einomodel.BaseChatModel

	ClassifierModelName string
	ExtractorModelName  string
	ResponseModelName   string
}

// NewChatModels creates the classifier, extractor and response Gemini models
// on one shared client, each wrapped with timeout and retry handling.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	build := func(step string, c model.ChatModelConfig) (einomodel.BaseChatModel, error) {
		temperature := c.Temperature
		maxTokens := c.MaxTokens
		cm, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client:      client,
			Model:       c.Model,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
			ThinkingConfig: &genai.ThinkingConfig{
				IncludeThoughts: false,
				ThinkingBudget:  genai.Ptr(c.ThinkingBudget),
			},
		})
		if err != nil {
			logx.Error().Err(err).Str("step", step).Msg("Error creating chat model")
			return nil, fmt.Errorf("error creating %s model: %w", step, err)
		}
		return newResilientModel(cm, c.Model, config.LLM.Timeout, config.LLM.MaxRetries), nil
	}

	classifier, err := build("classifier", config.Classifier)
	if err != nil {
		return nil, err
	}
	extractor, err := build("extractor", config.Extractor)
	if err != nil {
		return nil, err
	}
	response, err := build("response", config.Response)
	if err != nil {
		return nil, err
	}

	return &ChatModels{
		Classifier:          classifier,
		Extractor:           extractor,
		Response:            response,
		ClassifierModelName: config.Classifier.Model,
		ExtractorModelName:  config.Extractor.Model,
		ResponseModelName:   config.Response.Model,
	}, nil
}
