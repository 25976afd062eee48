package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/aescanero/dago-template-bridge/internal/bridge"
)

// Config holds all configuration for the renderer
type Config struct {
	// Template layout
	DocumentRoot     string `env:"DOCUMENT_ROOT" envDefault:"/var/www/htdocs"`
	DocumentBasename string `env:"DOCUMENT_BASENAME" envDefault:"htdocs"`
	TemplateBasename string `env:"TEMPLATE_BASENAME" envDefault:"templates"`
	TemplateExt      string `env:"TEMPLATE_EXT" envDefault:".html"`
	MobilePrefix     string `env:"MOBILE_PREFIX" envDefault:"/sp/"`
	MobileSegment    string `env:"MOBILE_SEGMENT" envDefault:"sp"`

	// Engine configuration
	OpenDelimiter  string `env:"OPEN_DELIMITER" envDefault:"{{"`
	CloseDelimiter string `env:"CLOSE_DELIMITER" envDefault:"}}"`
	OutputCharset  string `env:"OUTPUT_CHARSET" envDefault:"utf-8"`

	// Bridge configuration: "match[=Prefix]" entries
	PrefixRules []string `env:"PREFIX_RULES" envDefault:"/admin/" envSeparator:","`
	BridgesFile string   `env:"BRIDGES_FILE"`

	// Worker configuration
	WorkerID string `env:"WORKER_ID" envDefault:"renderer-1"`

	// Redis configuration
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASS" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Stream configuration
	StreamKey     string        `env:"STREAM_KEY" envDefault:"template.render"`
	ConsumerGroup string        `env:"CONSUMER_GROUP" envDefault:"template-renderers"`
	ResultStream  string        `env:"RESULT_STREAM" envDefault:"template.rendered"`
	BlockTime     time.Duration `env:"BLOCK_TIME" envDefault:"1s"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFrom loads configuration from the given variables instead of the
// process environment
func LoadFrom(environment map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DocumentRoot == "" {
		return fmt.Errorf("DOCUMENT_ROOT is required")
	}

	if c.TemplateBasename == "" {
		return fmt.Errorf("TEMPLATE_BASENAME is required")
	}

	if c.OpenDelimiter == "" || c.CloseDelimiter == "" {
		return fmt.Errorf("OPEN_DELIMITER and CLOSE_DELIMITER are required")
	}

	if c.OpenDelimiter == c.CloseDelimiter {
		return fmt.Errorf("OPEN_DELIMITER and CLOSE_DELIMITER must differ")
	}

	if _, err := htmlindex.Get(c.OutputCharset); err != nil {
		return fmt.Errorf("OUTPUT_CHARSET %q is not a known charset", c.OutputCharset)
	}

	for _, rule := range c.Rules() {
		if rule.Match == "" {
			return fmt.Errorf("PREFIX_RULES entries need a match, got %q", rule.Prefix)
		}
	}

	if c.WorkerID == "" {
		return fmt.Errorf("WORKER_ID is required")
	}

	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.StreamKey == "" {
		return fmt.Errorf("STREAM_KEY is required")
	}

	if c.ConsumerGroup == "" {
		return fmt.Errorf("CONSUMER_GROUP is required")
	}

	if c.ResultStream == "" {
		return fmt.Errorf("RESULT_STREAM is required")
	}

	if c.BlockTime <= 0 {
		return fmt.Errorf("BLOCK_TIME must be positive")
	}

	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	return nil
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	return validLevels[level]
}

// Paths returns the template layout
func (c *Config) Paths() bridge.Paths {
	return bridge.Paths{
		DocumentRoot:     c.DocumentRoot,
		DocumentBasename: c.DocumentBasename,
		TemplateBasename: c.TemplateBasename,
		TemplateExt:      c.TemplateExt,
		MobilePrefix:     c.MobilePrefix,
		MobileSegment:    c.MobileSegment,
	}
}

// Rules returns the parsed PREFIX_RULES
func (c *Config) Rules() []bridge.PrefixRule {
	return bridge.ParsePrefixRules(c.PrefixRules)
}

// RedisOptions returns Redis client options
func (c *Config) RedisOptions() *redis.Options {
	return &redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{DocumentRoot=%s, TemplateBasename=%s, OutputCharset=%s, PrefixRules=%v, BridgesFile=%s, "+
			"WorkerID=%s, RedisAddr=%s, RedisDB=%d, StreamKey=%s, ConsumerGroup=%s, LogLevel=%s}",
		c.DocumentRoot,
		c.TemplateBasename,
		c.OutputCharset,
		c.PrefixRules,
		c.BridgesFile,
		c.WorkerID,
		c.RedisAddr,
		c.RedisDB,
		c.StreamKey,
		c.ConsumerGroup,
		c.LogLevel,
	)
}
