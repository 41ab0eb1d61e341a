// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// GenConfig holds code generation collaborator configuration. The
// collaborator is optional: with no endpoint configured the service falls
// back to the built-in rule-based generator.
type GenConfig struct {
	Endpoint string        // OpenAI-compatible chat completion endpoint
	Model    string        // model name (default "gpt-4o-mini")
	APIKey   string        // bearer token for the endpoint
	Timeout  time.Duration // per-request budget (default 30s)
}

// Enabled returns true when an external collaborator is configured.
func (g *GenConfig) Enabled() bool { return g.Endpoint != "" }

// Config holds the configuration for the HTTP API, sessions, and the
// sandboxed executor.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	LogFormat  string // "json" (default) or "text"
	Env        string // environment: "development" (default) or "production"

	// Session lifecycle
	SessionTTL time.Duration // idle expiry (default 30m)
	SweepEvery time.Duration // expiry sweep interval (default 1m)

	// Executor limits
	ExecTimeout    time.Duration // wall-clock budget per execution (default 10s)
	ExecMaxSteps   uint64        // interpreter step budget (default 500k)
	MaxProcessRows int           // working-copy row ceiling (default 100k)

	// Ingest limits
	MaxUploadBytes int64 // upload size cap (default 50MiB)
	SampleRows     int   // preview sample size (default 10)

	// Audit trail
	AuditDBPath string // path to SQLite audit file (default "dataclean_audit.sqlite")

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Gen holds code generation collaborator configuration.
	Gen GenConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables. Generation
// variables are optional — the app can start without a collaborator.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:  os.Getenv("HTTP_ADDR"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFormat:   os.Getenv("LOG_FORMAT"),
		Env:         os.Getenv("ENV"),
		AuditDBPath: os.Getenv("AUDIT_DB_PATH"),
	}

	var err error
	if cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SweepEvery, err = parseDurationEnv("SESSION_SWEEP_EVERY", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ExecTimeout, err = parseDurationEnv("EXEC_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.ExecMaxSteps = 500_000
	if v := os.Getenv("EXEC_MAX_STEPS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid EXEC_MAX_STEPS %q: %w", v, err)
		}
		cfg.ExecMaxSteps = n
	}
	if cfg.MaxProcessRows, err = parseIntEnv("MAX_PROCESS_ROWS", 100_000); err != nil {
		return nil, err
	}
	if cfg.SampleRows, err = parseIntEnv("SAMPLE_ROWS", 10); err != nil {
		return nil, err
	}

	cfg.MaxUploadBytes = 50 * 1024 * 1024
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q: %w", v, err)
		}
		cfg.MaxUploadBytes = n
	}

	// Rate limiting
	if v := os.Getenv("RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}

	// Generation collaborator
	cfg.Gen = GenConfig{
		Endpoint: os.Getenv("GEN_ENDPOINT"),
		Model:    os.Getenv("GEN_MODEL"),
		APIKey:   os.Getenv("GEN_API_KEY"),
	}
	if cfg.Gen.Timeout, err = parseDurationEnv("GEN_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Gen.Model == "" {
		cfg.Gen.Model = "gpt-4o-mini"
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
	if cfg.AuditDBPath == "" {
		cfg.AuditDBPath = "dataclean_audit.sqlite"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if !cfg.Gen.Enabled() {
		cfg.Warnings = append(cfg.Warnings, "GEN_ENDPOINT not set — using the rule-based generator")
	}
	if cfg.Gen.Enabled() && cfg.Gen.APIKey == "" {
		cfg.Warnings = append(cfg.Warnings, "GEN_ENDPOINT set without GEN_API_KEY — requests will be unauthenticated")
	}

	// Production mode: permissive defaults are fatal errors.
	if cfg.IsProduction() {
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func parseDurationEnv(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func parseIntEnv(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
