package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/subnet-miner/internal/model"
)

// Version is the miner release
const Version = "v1.0.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "miner",
	Short: "Prediction verification miner for subnet 90",
	Long: `Miner receives prediction statements from validators and answers each one
with a verdict (TRUE, FALSE or PENDING), a confidence score, a summary,
sources and a proof hash.

Strategies:
  dummy            random baseline, no external calls
  ai_reasoning     LLM analysis with market data lookups
  resolution_api   official resolution first, then a fallback agent`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and the protocol version spoken to validators.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("subnet-miner %s (protocol %s)\n", Version, model.ProtocolVersion)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.miner/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.miner")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match MINER_* (llm.timeout -> MINER_LLM_TIMEOUT)
	viper.SetEnvPrefix("MINER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	registerDefaults()
	bindEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// legacyEnv maps config keys to the unprefixed variables operators already export
var legacyEnv = map[string][]string{
	"miner.strategy":             {"MINER_STRATEGY"},
	"miner.uid":                  {"MINER_UID"},
	"llm.provider":               {"LLM_PROVIDER"},
	"llm.timeout":                {"REQUEST_TIMEOUT"},
	"llm.openai.api_key":         {"OPENAI_API_KEY"},
	"llm.openai.model":           {"OPENAI_MODEL"},
	"llm.anthropic.api_key":      {"ANTHROPIC_API_KEY"},
	"llm.anthropic.model":        {"ANTHROPIC_MODEL"},
	"llm.groq.api_key":           {"GROQ_API_KEY"},
	"llm.groq.model":             {"GROQ_MODEL"},
	"llm.gemini.api_key":         {"GEMINI_API_KEY"},
	"llm.gemini.model":           {"GEMINI_MODEL"},
	"llm.openrouter.api_key":     {"OPENROUTER_API_KEY"},
	"llm.openrouter.model":       {"OPENROUTER_MODEL"},
	"llm.chutes.api_key":         {"CHUTES_CPK_API_KEY"},
	"llm.chutes.model":           {"CHUTES_MODEL"},
	"llm.chutes.slug":            {"CHUTES_SLUG"},
	"llm.ollama.model":           {"OLLAMA_MODEL"},
	"llm.ollama.base_url":        {"OLLAMA_BASE_URL"},
	"market.api_key":             {"COINGECKO_API_KEY"},
	"resolution.api_url":         {"API_URL"},
	"http.http_proxy":            {"HTTP_PROXY"},
	"http.https_proxy":           {"HTTPS_PROXY"},
	"http.no_proxy":              {"NO_PROXY"},
	"log.level":                  {"LOG_LEVEL"},
	"log.format":                 {"LOG_FORMAT"},
	"market.base_url":            nil,
	"market.cache_dir":           nil,
	"llm.openai.base_url":        nil,
	"llm.anthropic.base_url":     nil,
	"llm.groq.base_url":          nil,
	"llm.gemini.base_url":        nil,
	"llm.openrouter.base_url":    nil,
	"llm.chutes.base_url":        nil,
	"miner.verification_timeout": {"VERIFICATION_TIMEOUT"},
}

// bindEnv binds each key to its MINER_* name first, then its legacy names
func bindEnv() {
	for key, legacy := range legacyEnv {
		names := append([]string{key, envName(key)}, legacy...)
		_ = viper.BindEnv(names...)
	}
}

func envName(key string) string {
	return "MINER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// registerDefaults makes every default key known to viper so AutomaticEnv can override it
func registerDefaults() {
	raw, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return
	}
	setDefaults("", tree)
}

func setDefaults(prefix string, tree map[string]any) {
	for k, v := range tree {
		key := prefix + k
		if sub, ok := v.(map[string]any); ok {
			setDefaults(key+".", sub)
			continue
		}
		viper.SetDefault(key, v)
	}
}

// loadConfig decodes the effective configuration
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from the log section. --verbose forces debug.
func newLogger(cfg model.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
