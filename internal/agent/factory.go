package agent

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/subnet-miner/internal/llm"
	"github.com/ppiankov/subnet-miner/internal/market"
	"github.com/ppiankov/subnet-miner/internal/model"
	"github.com/ppiankov/subnet-miner/internal/resolution"
)

// Strategies lists the names New accepts
var Strategies = []string{"dummy", "ai_reasoning", "resolution_api"}

// Deps are optional collaborators. Nil fields are built from the agent config.
type Deps struct {
	Provider llm.Provider
	Prices   PriceSource
	Resolver ResolutionSource
	Logger   *slog.Logger
}

// New creates an agent for strategy. An empty strategy reads "strategy"
// from config and defaults to dummy.
func New(strategy string, config model.AgentConfig, deps Deps) (Agent, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if strategy == "" {
		strategy = config.String("strategy", "dummy")
	}

	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "dummy":
		return NewDummyAgent(config, deps.Logger), nil

	case "ai_reasoning", "ai":
		return newAIAgent(config, &deps), nil

	case "resolution_api", "resolution":
		var fallback Agent
		if provider := deps.provider(config); provider != nil {
			deps.Provider = provider
			fallback = newAIAgent(config, &deps)
		} else {
			fallback = NewDummyAgent(config, deps.Logger)
		}
		return NewResolutionAgent(config, deps.resolver(config), fallback, deps.Logger), nil

	default:
		return nil, fmt.Errorf("unknown strategy: %s (supported: %s)", strategy, strings.Join(Strategies, ", "))
	}
}

func newAIAgent(config model.AgentConfig, deps *Deps) *AIAgent {
	provider := deps.provider(config)
	var prices PriceSource
	if provider != nil {
		prices = deps.prices(config)
	}
	return NewAIAgent(config, provider, prices, deps.Logger)
}

// provider returns the injected provider or builds one from config.
// Missing credentials yield nil, not an error.
func (d *Deps) provider(config model.AgentConfig) llm.Provider {
	if d.Provider != nil {
		return d.Provider
	}

	p, err := llm.NewProvider(llm.ConfigFromAgentConfig(config, "", d.Logger))
	if err != nil {
		if errors.Is(err, llm.ErrNoProvider) {
			d.Logger.Warn("LLM provider unavailable", "provider", config.String("llm_provider", "openai"), "reason", err)
		} else {
			d.Logger.Error("failed to initialize LLM provider", "error", err)
		}
		return nil
	}
	d.Provider = p
	return p
}

func (d *Deps) prices(config model.AgentConfig) PriceSource {
	if d.Prices == nil {
		d.Prices = market.NewClient(MarketConfig(config, d.Logger))
	}
	return d.Prices
}

func (d *Deps) resolver(config model.AgentConfig) ResolutionSource {
	if d.Resolver == nil {
		d.Resolver = resolution.NewClient(ResolutionConfig(config, d.Logger))
	}
	return d.Resolver
}

// MarketConfig reads market data settings from the agent config
func MarketConfig(config model.AgentConfig, logger *slog.Logger) market.Config {
	def := market.DefaultConfig()
	return market.Config{
		APIKey:            config.String("coingecko_api_key", ""),
		BaseURL:           config.String("coingecko_base_url", ""),
		Timeout:           config.Duration("market_timeout", def.Timeout),
		RequestsPerSecond: config.Float("market_rps", def.RequestsPerSecond),
		Burst:             config.Int("market_burst", def.Burst),
		CacheTTL:          config.Duration("market_cache_ttl", def.CacheTTL),
		LookupCacheDir:    config.String("market_cache_dir", ""),
		HTTPProxy:         config.String("http_proxy", ""),
		HTTPSProxy:        config.String("https_proxy", ""),
		NoProxy:           config.String("no_proxy", ""),
		Logger:            logger,
	}
}

// ResolutionConfig reads resolution authority settings from the agent config
func ResolutionConfig(config model.AgentConfig, logger *slog.Logger) resolution.Config {
	def := resolution.DefaultConfig()
	return resolution.Config{
		APIURL:     config.String("api_url", def.APIURL),
		Timeout:    config.Duration("resolution_timeout", def.Timeout),
		HTTPProxy:  config.String("http_proxy", ""),
		HTTPSProxy: config.String("https_proxy", ""),
		NoProxy:    config.String("no_proxy", ""),
		Logger:     logger,
	}
}
