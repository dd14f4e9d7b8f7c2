package model

import "time"

// Config holds the complete miner configuration
type Config struct {
	Miner      MinerConfig      `yaml:"miner" mapstructure:"miner"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Market     MarketConfig     `yaml:"market" mapstructure:"market"`
	Resolution ResolutionConfig `yaml:"resolution" mapstructure:"resolution"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	History    HistoryConfig    `yaml:"history" mapstructure:"history"`
	HTTP       HTTPConfig       `yaml:"http" mapstructure:"http"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// MinerConfig selects and tunes the verification strategy
type MinerConfig struct {
	Strategy            string        `yaml:"strategy" mapstructure:"strategy"` // dummy, ai_reasoning, resolution_api
	UID                 int           `yaml:"uid" mapstructure:"uid"`           // -1 when unregistered
	VerificationTimeout time.Duration `yaml:"verification_timeout" mapstructure:"verification_timeout"`
	Dummy               DummyConfig   `yaml:"dummy" mapstructure:"dummy"`
}

// DummyConfig tunes the baseline agent
type DummyConfig struct {
	Accuracy      float64       `yaml:"accuracy" mapstructure:"accuracy"` // nominal, outcomes stay 50/50
	Delay         time.Duration `yaml:"delay" mapstructure:"delay"`
	ConfidenceMin float64       `yaml:"confidence_min" mapstructure:"confidence_min"`
	ConfidenceMax float64       `yaml:"confidence_max" mapstructure:"confidence_max"`
}

// ProviderCredentials holds per-backend LLM settings
type ProviderCredentials struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// ChutesCredentials adds the deployment slug chutes URLs are built from
type ChutesCredentials struct {
	ProviderCredentials `yaml:",inline" mapstructure:",squash"`
	Slug                string `yaml:"slug" mapstructure:"slug"`
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	Provider    string              `yaml:"provider" mapstructure:"provider"` // openai, anthropic, groq, gemini, openrouter, chutes, ollama
	Timeout     time.Duration       `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens   int                 `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64             `yaml:"temperature" mapstructure:"temperature"`
	OpenAI      ProviderCredentials `yaml:"openai" mapstructure:"openai"`
	Anthropic   ProviderCredentials `yaml:"anthropic" mapstructure:"anthropic"`
	Groq        ProviderCredentials `yaml:"groq" mapstructure:"groq"`
	Gemini      ProviderCredentials `yaml:"gemini" mapstructure:"gemini"`
	OpenRouter  ProviderCredentials `yaml:"openrouter" mapstructure:"openrouter"`
	Chutes      ChutesCredentials   `yaml:"chutes" mapstructure:"chutes"`
	Ollama      ProviderCredentials `yaml:"ollama" mapstructure:"ollama"`
}

// MarketConfig configures the CoinGecko client
type MarketConfig struct {
	APIKey            string        `yaml:"api_key" mapstructure:"api_key"` // enables the pro endpoint
	BaseURL           string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	CacheTTL          time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	CacheDir          string        `yaml:"cache_dir,omitempty" mapstructure:"cache_dir"` // persists the coin lookup table
}

// ResolutionConfig configures the resolution authority client
type ResolutionConfig struct {
	APIURL  string        `yaml:"api_url" mapstructure:"api_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ServerConfig configures the inbound HTTP surface
type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // per client IP
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// HistoryConfig configures the response history database
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// HTTPConfig holds outbound proxy settings
type HTTPConfig struct {
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Miner: MinerConfig{
			Strategy:            "dummy",
			UID:                 -1,
			VerificationTimeout: 30 * time.Second,
			Dummy: DummyConfig{
				Accuracy:      0.7,
				Delay:         500 * time.Millisecond,
				ConfidenceMin: 60,
				ConfidenceMax: 95,
			},
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Timeout:     30 * time.Second,
			MaxTokens:   1000,
			Temperature: 0.1,
			OpenAI:      ProviderCredentials{Model: "gpt-4o"},
			Anthropic:   ProviderCredentials{Model: "claude-3-sonnet-20240229"},
			Groq:        ProviderCredentials{Model: "llama3-70b-8192"},
			Gemini:      ProviderCredentials{Model: "gemini-1.5-pro"},
			OpenRouter:  ProviderCredentials{Model: "mistralai/mistral-7b-instruct"},
			Chutes:      ChutesCredentials{ProviderCredentials: ProviderCredentials{Model: "unsloth/Llama-3.2-3B-Instruct"}},
			Ollama:      ProviderCredentials{Model: "llama3.1:8b", BaseURL: "http://localhost:11434"},
		},
		Market: MarketConfig{
			Timeout:           10 * time.Second,
			RequestsPerSecond: 0.5, // free tier allows ~30 calls per minute
			Burst:             3,
			CacheTTL:          5 * time.Minute,
		},
		Resolution: ResolutionConfig{
			APIURL:  "https://api.subnet90.com",
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Addr:              ":8091",
			RequestsPerSecond: 5,
			Burst:             10,
			ShutdownTimeout:   30 * time.Second,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    "miner-history.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// AgentConfig flattens the configuration into the key space agents read
func (c *Config) AgentConfig() AgentConfig {
	ac := AgentConfig{
		"strategy":         c.Miner.Strategy,
		"accuracy":         c.Miner.Dummy.Accuracy,
		"delay":            c.Miner.Dummy.Delay,
		"confidence_range": [2]float64{c.Miner.Dummy.ConfidenceMin, c.Miner.Dummy.ConfidenceMax},

		"llm_provider": c.LLM.Provider,
		"llm_timeout":  c.LLM.Timeout,
		"max_tokens":   c.LLM.MaxTokens,
		"temperature":  c.LLM.Temperature,

		"chutes_cpk_api_key": c.LLM.Chutes.APIKey,
		"chutes_model":       c.LLM.Chutes.Model,
		"chutes_slug":        c.LLM.Chutes.Slug,

		"coingecko_api_key":  c.Market.APIKey,
		"coingecko_base_url": c.Market.BaseURL,
		"market_timeout":     c.Market.Timeout,
		"market_rps":         c.Market.RequestsPerSecond,
		"market_burst":       c.Market.Burst,
		"market_cache_ttl":   c.Market.CacheTTL,
		"market_cache_dir":   c.Market.CacheDir,

		"api_url":            c.Resolution.APIURL,
		"resolution_timeout": c.Resolution.Timeout,

		"http_proxy":  c.HTTP.HTTPProxy,
		"https_proxy": c.HTTP.HTTPSProxy,
		"no_proxy":    c.HTTP.NoProxy,
	}

	for name, creds := range map[string]ProviderCredentials{
		"openai":     c.LLM.OpenAI,
		"anthropic":  c.LLM.Anthropic,
		"groq":       c.LLM.Groq,
		"gemini":     c.LLM.Gemini,
		"openrouter": c.LLM.OpenRouter,
		"ollama":     c.LLM.Ollama,
	} {
		ac[name+"_api_key"] = creds.APIKey
		ac[name+"_model"] = creds.Model
		ac[name+"_base_url"] = creds.BaseURL
	}
	if c.LLM.Chutes.BaseURL != "" {
		ac["chutes_base_url"] = c.LLM.Chutes.BaseURL
	}

	return ac
}
