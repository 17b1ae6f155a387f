package config

import (
	"time"

	"github.com/danielpatrickdp/search-agent/internal/eval"
	"github.com/danielpatrickdp/search-agent/internal/extract"
	"github.com/danielpatrickdp/search-agent/internal/gate"
	"github.com/danielpatrickdp/search-agent/internal/llm"
	"github.com/danielpatrickdp/search-agent/internal/orchestrator"
	"github.com/danielpatrickdp/search-agent/internal/query"
	"github.com/danielpatrickdp/search-agent/internal/retrieval"
	"github.com/danielpatrickdp/search-agent/internal/selector"
	"github.com/danielpatrickdp/search-agent/internal/websearch"
)

// DefaultSystemPrompt is the assistant's system message.
const DefaultSystemPrompt = `You are an AI assistant that has another AI model working to get you live data from search engine results that will be attached before a USER PROMPT. You must analyze the SEARCH RESULT and use any relevant data to generate the most useful and intelligent response an AI assistant that always impresses the user would generate.`

type Config struct {
	Model     ModelConfig     `mapstructure:"model"`
	Search    SearchConfig    `mapstructure:"search"`
	Extract   ExtractConfig   `mapstructure:"extract"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ModelConfig struct {
	Provider      string        `mapstructure:"provider"` // "ollama" or "codec"
	BaseURL       string        `mapstructure:"base_url"`
	Name          string        `mapstructure:"name"`
	CodecAddr     string        `mapstructure:"codec_addr"`
	Timeout       time.Duration `mapstructure:"timeout"`
	StreamTimeout time.Duration `mapstructure:"stream_timeout"`
}

type SearchConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Provider    string        `mapstructure:"provider"` // "duckduckgo" or "codec"
	Endpoint    string        `mapstructure:"endpoint"`
	MaxResults  int           `mapstructure:"max_results"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	RedisAddr   string        `mapstructure:"redis_addr"` // empty keeps the rate gate in memory
	RedisKey    string        `mapstructure:"redis_key"`
}

type ExtractConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxChars     int           `mapstructure:"max_chars"`
	IncludeLinks bool          `mapstructure:"include_links"`
}

type RetrievalConfig struct {
	SelectorAttempts   int  `mapstructure:"selector_attempts"`
	MaxStaleSelections int  `mapstructure:"max_stale_selections"`
	KeepSearchContext  bool `mapstructure:"keep_search_context"`
}

type ChatConfig struct {
	SystemPrompt string `mapstructure:"system_prompt"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// #region component-configs

func (c *Config) Ollama() llm.OllamaConfig {
	return llm.OllamaConfig{BaseURL: c.Model.BaseURL, Model: c.Model.Name, Timeout: c.Model.Timeout}
}

func (c *Config) WebSearch() websearch.Config {
	cfg := websearch.DefaultConfig()
	cfg.Enabled = c.Search.Enabled
	cfg.Provider = c.Search.Provider
	cfg.Endpoint = c.Search.Endpoint
	cfg.MaxResults = c.Search.MaxResults
	cfg.Timeout = c.Search.Timeout
	cfg.MinInterval = c.Search.MinInterval
	return cfg
}

func (c *Config) Extractor() extract.Config {
	cfg := extract.DefaultConfig()
	cfg.Timeout = c.Extract.Timeout
	cfg.MaxChars = c.Extract.MaxChars
	cfg.IncludeLinks = c.Extract.IncludeLinks
	return cfg
}

func (c *Config) Gate() gate.Config { return gate.Config{Timeout: c.Model.Timeout} }

func (c *Config) Query() query.Config { return query.Config{Timeout: c.Model.Timeout} }

func (c *Config) Verifier() eval.Config { return eval.Config{Timeout: c.Model.Timeout} }

func (c *Config) Selector() selector.Config {
	return selector.Config{Attempts: c.Retrieval.SelectorAttempts, Timeout: c.Model.Timeout}
}

func (c *Config) Loop() retrieval.Config {
	return retrieval.Config{
		MaxStaleSelections: c.Retrieval.MaxStaleSelections,
		SearchTimeout:      c.Search.Timeout,
		FetchTimeout:       c.Extract.Timeout,
	}
}

func (c *Config) Orchestrator() orchestrator.Config {
	return orchestrator.Config{
		SearchEnabled:     c.Search.Enabled,
		KeepSearchContext: c.Retrieval.KeepSearchContext,
		ReplyTimeout:      c.Model.StreamTimeout,
	}
}

// #endregion component-configs
