// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by source adapters.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "evidence-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourcesConfig holds settings for the evidence source adapters.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	// DefaultLimit is the per-source result count requested by the
	// aggregator (default 3).
	DefaultLimit int `json:"default_limit" yaml:"default_limit"`

	// RegionalPriorityLimit is the regional-source result count when a
	// regional disease is detected (default 5).
	RegionalPriorityLimit int `json:"regional_priority_limit" yaml:"regional_priority_limit"`

	// MinInterval is the minimum interval between calls to the same
	// adapter (default 1s). Enforced per adapter, not globally.
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`

	// OpenFDAAPIKey raises OpenFDA rate limits when set.
	OpenFDAAPIKey string `json:"openfda_api_key,omitempty" yaml:"openfda_api_key,omitempty"`

	// SemanticScholarAPIKey raises Semantic Scholar rate limits when set.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`
}

// LLMConfig holds settings for the completion provider.
type LLMConfig struct {
	// Provider selects the completion backend: "openai" or "gemini".
	Provider string `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "gpt-4o").
	Model string `json:"model" yaml:"model"`

	// TranslationModel is the cheaper model used for query translation
	// (e.g. "gpt-4o-mini"). Defaults to Model when empty.
	TranslationModel string `json:"translation_model,omitempty" yaml:"translation_model,omitempty"`

	// APIKey authenticates against the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout bounds each completion call. The workflow never retries a
	// failed call; the provider owns its own deadline.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Temperature and MaxTokens apply to synthesis and revision calls.
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
}

// WorkflowConfig holds settings for the loop controller.
type WorkflowConfig struct {
	// MaxAuditPasses bounds the audit/revise loop (default 2). With two
	// passes at most one revision is ever performed.
	MaxAuditPasses int `json:"max_audit_passes" yaml:"max_audit_passes"`

	// SystemMessage is the default assistant policy used when the caller
	// supplies none.
	SystemMessage string `json:"system_message,omitempty" yaml:"system_message,omitempty"`
}

// SessionConfig holds settings for the conversation cache.
type SessionConfig struct {
	// Capacity is the maximum number of conversations kept; the least
	// recently used entry is evicted past it (default 100).
	Capacity int `json:"capacity" yaml:"capacity"`

	// MaxTurns bounds the history replayed into the synthesizer per
	// conversation (default 20).
	MaxTurns int `json:"max_turns" yaml:"max_turns"`
}

// RunLogConfig holds settings for the run journal.
type RunLogConfig struct {
	// Path is the SQLite database file. Empty disables the journal.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// MaxList is the default number of entries the runs command shows
	// (default 20).
	MaxList int `json:"max_list" yaml:"max_list"`
}

// NormalizeConfig holds settings for query normalization.
type NormalizeConfig struct {
	// DictionaryFile optionally extends the built-in translation
	// dictionary with entries from a YAML file.
	DictionaryFile string `json:"dictionary_file,omitempty" yaml:"dictionary_file,omitempty"`

	// DiseaseFile optionally replaces the built-in regional disease table
	// with entries from a YAML file.
	DiseaseFile string `json:"disease_file,omitempty" yaml:"disease_file,omitempty"`
}

// EngineConfig groups all stage configurations.
type EngineConfig struct {
	Sources   SourcesConfig   `json:"sources" yaml:"sources"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	Workflow  WorkflowConfig  `json:"workflow" yaml:"workflow"`
	Session   SessionConfig   `json:"session" yaml:"session"`
	RunLog    RunLogConfig    `json:"run_log" yaml:"run_log"`
	Normalize NormalizeConfig `json:"normalize" yaml:"normalize"`
}
