package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	// HistoryWindow is how many trailing session messages the models see.
	HistoryWindow int `envconfig:"CONVERSATION_HISTORY_WINDOW" default:"10"`
}

type SessionConfig struct {
	Backend string        `envconfig:"SESSION_BACKEND" default:"redis"`
	File    string        `envconfig:"SESSION_FILE" default:"user_info.json"`
	TTL     time.Duration `envconfig:"SESSION_TTL" default:"0s"`
}

type LLMConfig struct {
	Timeout    time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
	MaxRetries int           `envconfig:"LLM_MAX_RETRIES" default:"1"`
}

// ChatModelConfig is the shared shape of the three per-step model configs.
type ChatModelConfig struct {
	Model          string
	MaxTokens      int
	Temperature    float32
	ThinkingBudget int32
}

type ClassifierModelConfig struct {
	Model          string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"300"`
	Temperature    float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0"`
	ThinkingBudget int32   `envconfig:"CLASSIFIER_THINKING_BUDGET" default:"0"`
}

func (c ClassifierModelConfig) ChatModel() ChatModelConfig {
	return ChatModelConfig{Model: c.Model, MaxTokens: c.MaxTokens, Temperature: c.Temperature, ThinkingBudget: c.ThinkingBudget}
}

type ExtractorModelConfig struct {
	Model          string  `envconfig:"EXTRACTOR_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"EXTRACTOR_MAX_TOKENS" default:"500"`
	Temperature    float32 `envconfig:"EXTRACTOR_TEMPERATURE" default:"0"`
	ThinkingBudget int32   `envconfig:"EXTRACTOR_THINKING_BUDGET" default:"0"`
}

func (c ExtractorModelConfig) ChatModel() ChatModelConfig {
	return ChatModelConfig{Model: c.Model, MaxTokens: c.MaxTokens, Temperature: c.Temperature, ThinkingBudget: c.ThinkingBudget}
}

type ResponseModelConfig struct {
	Model          string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"RESPONSE_MAX_TOKENS" default:"500"`
	Temperature    float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0"`
	ThinkingBudget int32   `envconfig:"RESPONSE_THINKING_BUDGET" default:"0"`
}

func (c ResponseModelConfig) ChatModel() ChatModelConfig {
	return ChatModelConfig{Model: c.Model, MaxTokens: c.MaxTokens, Temperature: c.Temperature, ThinkingBudget: c.ThinkingBudget}
}

type PromptConfig struct {
	BusinessName string `envconfig:"PROMPT_BUSINESS_NAME" default:"Velociraptor"`
	MaxRows      int    `envconfig:"RESPONSE_MAX_ROWS" default:"10"`
}
