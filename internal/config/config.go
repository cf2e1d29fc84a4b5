// Package config loads the book service configuration from environment
// variables. Unset or empty variables take their default; set but malformed
// values are reported, never silently replaced. Load collects every problem
// before returning so a misconfigured deployment fails with the full list.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string // empty allows any origin
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry tracing settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string // just the number
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration // grace period for in-flight requests
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string // mount point of /books
	GzipEnabled    bool

	// Storage
	DBPath string // SQLite file

	// Rate limiting
	RateRPS       float64 // tokens per second per client
	RateBurst     int     // bucket size
	RateWriteCost int     // tokens per POST/PUT/DELETE

	CORS     CORSConfig
	Security SecurityConfig

	// IdempotencyTTL is how long an Idempotency-Key replays its book.
	IdempotencyTTL time.Duration

	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if it is invalid.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads, normalizes and validates the configuration.
func Load() (Config, error) {
	e := &env{lookup: os.LookupEnv}

	cfg := Config{
		Port:              e.getenv("PORT", "8080"),
		ReadTimeout:       e.getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       e.getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   e.getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    e.getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(e.getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(e.getenv("LOG_LEVEL", "info")),
		LogPretty:      e.getbool("LOG_PRETTY", false),
		SwaggerEnabled: e.getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(e.getenv("API_BASE_PATH", "/api/v1")),
		GzipEnabled:    e.getbool("GZIP_ENABLED", false),

		DBPath: e.getenv("DB_PATH", "books.db"),

		RateRPS:       e.getfloat("RATE_RPS", 5.0),
		RateBurst:     e.getint("RATE_BURST", 10),
		RateWriteCost: e.getint("RATE_WRITE_COST", 1),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(e.getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: e.getbool("ENABLE_HSTS", false),
			HSTSMaxAge: e.getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: e.getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     e.getbool("OTEL_ENABLED", false),
			Endpoint:    e.getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.getenv("OTEL_SERVICE_NAME", "go-book-service"),
			SampleRatio: e.getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	return cfg, errors.Join(append(e.errs, cfg.validate()...)...)
}

// validate returns one error per violated constraint.
func (cfg Config) validate() []error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"))
	}
	check(strings.TrimSpace(cfg.Port) != "", "PORT must not be empty")
	if port, err := strconv.Atoi(cfg.Port); err == nil {
		check(port >= 1 && port <= 65535, "PORT must be between 1 and 65535")
	}
	check(cfg.ReadTimeout > 0 && cfg.ReadHeaderTimeout > 0 && cfg.WriteTimeout > 0 &&
		cfg.IdleTimeout > 0 && cfg.ShutdownTimeout > 0, "timeouts must be positive durations")
	check(cfg.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")
	check(strings.TrimSpace(cfg.DBPath) != "", "DB_PATH must not be empty")
	check(cfg.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(cfg.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(cfg.RateWriteCost >= 1 && cfg.RateWriteCost <= cfg.RateBurst, "RATE_WRITE_COST must be in [1, RATE_BURST]")
	check(cfg.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(cfg.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")
	check(cfg.OTEL.SampleRatio >= 0 && cfg.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	return errs
}

// env reads typed variables and remembers every value it could not parse.
type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

// raw returns the trimmed value of k, or ok=false when unset or blank.
func (e *env) raw(k string) (string, bool) {
	v, ok := e.lookup(k)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *env) invalid(k, kind, v string) {
	e.errs = append(e.errs, fmt.Errorf("%s: invalid %s %q", k, kind, v))
}

func (e *env) getenv(k, def string) string {
	if v, ok := e.raw(k); ok {
		return v
	}
	return def
}

func (e *env) getint(k string, def int) int {
	v, ok := e.raw(k)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.invalid(k, "integer", v)
		return def
	}
	return i
}

func (e *env) getfloat(k string, def float64) float64 {
	v, ok := e.raw(k)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.invalid(k, "number", v)
		return def
	}
	return f
}

func (e *env) getbool(k string, def bool) bool {
	v, ok := e.raw(k)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	e.invalid(k, "boolean", v)
	return def
}

func (e *env) getdur(k string, def time.Duration) time.Duration {
	v, ok := e.raw(k)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.invalid(k, "duration", v)
		return def
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing ones (except root).
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
