// Package config loads runtime configuration from (in increasing priority)
// defaults, an optional config.yaml, environment variables and command-line
// flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys, shared by the config file and flag names (with "_" → "-").
const (
	KeyPort            = "port"
	KeyGeminiAPIKey    = "gemini_api_key"
	KeyGeminiModel     = "gemini_model"
	KeyMaxOutputTokens = "gemini_max_output_tokens"
	KeyLogLevel        = "log_level"
	KeyContactTable    = "contact_table_name"
	KeySSMAPIKeyParam  = "ssm_api_key_param"
	KeyRateLimitRPS    = "rate_limit_rps"
	KeyRateLimitBurst  = "rate_limit_burst"
	KeyEnhanceTimeout  = "enhance_timeout"
	KeyFetchTimeout    = "fetch_timeout"
	KeyAllowedOrigins  = "allowed_origins"
)

// Defaults.
const (
	DefaultPort            = 8080
	DefaultModel           = "gemini-2.5-flash"
	DefaultMaxOutputTokens = 2048
	DefaultLogLevel        = "info"
	DefaultTimeout         = 30 * time.Second
	DefaultRateLimitBurst  = 5
)

// envNames maps each key to the environment variable it is read from.
var envNames = map[string]string{
	KeyPort:            "PORT",
	KeyGeminiAPIKey:    "GEMINI_API_KEY",
	KeyGeminiModel:     "GEMINI_MODEL",
	KeyMaxOutputTokens: "GEMINI_MAX_OUTPUT_TOKENS",
	KeyLogLevel:        "LOG_LEVEL",
	KeyContactTable:    "CONTACT_TABLE_NAME",
	KeySSMAPIKeyParam:  "SSM_API_KEY_PARAM",
	KeyRateLimitRPS:    "RATE_LIMIT_RPS",
	KeyRateLimitBurst:  "RATE_LIMIT_BURST",
	KeyEnhanceTimeout:  "ENHANCE_TIMEOUT",
	KeyFetchTimeout:    "FETCH_TIMEOUT",
	KeyAllowedOrigins:  "ALLOWED_ORIGINS",
}

// RequiredEnv lists the environment variables whose presence the API logs
// on each request.
var RequiredEnv = []string{"GEMINI_API_KEY", "CONTACT_TABLE_NAME"}

// Config is the resolved runtime configuration.
type Config struct {
	Port            int
	GeminiAPIKey    string
	GeminiModel     string
	MaxOutputTokens int32
	LogLevel        string
	// ContactTableName is the DynamoDB table for contact submissions. Empty
	// selects the in-memory store (server) or disables contact (Lambda).
	ContactTableName string
	// SSMAPIKeyParam, when set and GeminiAPIKey is empty, names an SSM
	// parameter holding the API key.
	SSMAPIKeyParam string
	// RateLimitRPS <= 0 disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
	EnhanceTimeout time.Duration
	FetchTimeout   time.Duration
	AllowedOrigins []string
}

// Options controls where Load looks for configuration.
type Options struct {
	// ConfigFile is an explicit config file path. Empty searches for
	// config.yaml in the working directory and ./config.
	ConfigFile string
	// Flags, when non-nil, overrides file and environment values for any
	// flag the user set explicitly.
	Flags *pflag.FlagSet
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if opts.Flags != nil {
		for key := range envNames {
			if f := opts.Flags.Lookup(FlagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	cfg := &Config{
		Port:             v.GetInt(KeyPort),
		GeminiAPIKey:     strings.TrimSpace(v.GetString(KeyGeminiAPIKey)),
		GeminiModel:      v.GetString(KeyGeminiModel),
		MaxOutputTokens:  v.GetInt32(KeyMaxOutputTokens),
		LogLevel:         strings.ToLower(v.GetString(KeyLogLevel)),
		ContactTableName: v.GetString(KeyContactTable),
		SSMAPIKeyParam:   v.GetString(KeySSMAPIKeyParam),
		RateLimitRPS:     v.GetFloat64(KeyRateLimitRPS),
		RateLimitBurst:   v.GetInt(KeyRateLimitBurst),
		EnhanceTimeout:   v.GetDuration(KeyEnhanceTimeout),
		FetchTimeout:     v.GetDuration(KeyFetchTimeout),
		AllowedOrigins:   splitList(v.GetStringSlice(KeyAllowedOrigins)),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyGeminiModel, DefaultModel)
	v.SetDefault(KeyMaxOutputTokens, DefaultMaxOutputTokens)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyRateLimitRPS, 0)
	v.SetDefault(KeyRateLimitBurst, DefaultRateLimitBurst)
	v.SetDefault(KeyEnhanceTimeout, DefaultTimeout)
	v.SetDefault(KeyFetchTimeout, DefaultTimeout)
}

// Validate checks ranges that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxOutputTokens <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", envNames[KeyMaxOutputTokens]))
	}
	if c.EnhanceTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", envNames[KeyEnhanceTimeout]))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", envNames[KeyFetchTimeout]))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1 when rate limiting is enabled", envNames[KeyRateLimitBurst]))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// FlagName returns the command-line flag name for a config key.
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// EnvName returns the environment variable a config key is read from.
func EnvName(key string) string {
	return envNames[key]
}

// splitList accepts both YAML lists and comma-separated environment values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
