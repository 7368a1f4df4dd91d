package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const upstreamHost = "http://p1-77815598.us-east-1.elb.amazonaws.com"

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	PatientsAPIURL  string        `mapstructure:"PATIENTS_API_URL"`
	DoctorsAPIURL   string        `mapstructure:"DOCTORS_API_URL"`
	ExamsAPIURL     string        `mapstructure:"EXAMS_API_URL"`
	SummaryAPIURL   string        `mapstructure:"SUMMARY_API_URL"`
	OrchestratorURL string        `mapstructure:"ORCHESTRATOR_API_URL"`
	HTTPTimeout     time.Duration `mapstructure:"HTTP_TIMEOUT"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit       string        `mapstructure:"BODY_LIMIT"`
	ExamsLoadCap    int           `mapstructure:"EXAMS_LOAD_CAP"`
	DebounceWindow  time.Duration `mapstructure:"DEBOUNCE_WINDOW"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	SandboxPort     string        `mapstructure:"SANDBOX_PORT"`
	SandboxSeed     int64         `mapstructure:"SANDBOX_SEED"`
	SandboxPatients int           `mapstructure:"SANDBOX_PATIENTS"`
	SandboxDoctors  int           `mapstructure:"SANDBOX_DOCTORS"`
	SandboxExams    int           `mapstructure:"SANDBOX_EXAMS"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32         `mapstructure:"DB_MIN_CONNS"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"PATIENTS_API_URL", "DOCTORS_API_URL", "EXAMS_API_URL", "SUMMARY_API_URL", "ORCHESTRATOR_API_URL",
	"HTTP_TIMEOUT", "REQUEST_TIMEOUT", "BODY_LIMIT", "EXAMS_LOAD_CAP", "DEBOUNCE_WINDOW", "CORS_ORIGINS",
	"SANDBOX_PORT", "SANDBOX_SEED", "SANDBOX_PATIENTS", "SANDBOX_DOCTORS", "SANDBOX_EXAMS",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	// each backend is deployed on its own port
	v.SetDefault("PATIENTS_API_URL", upstreamHost+":5000")
	v.SetDefault("DOCTORS_API_URL", upstreamHost+":3000")
	v.SetDefault("EXAMS_API_URL", upstreamHost+":5002")
	v.SetDefault("SUMMARY_API_URL", upstreamHost+":8080")
	v.SetDefault("ORCHESTRATOR_API_URL", upstreamHost+":5002")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("EXAMS_LOAD_CAP", 100)
	v.SetDefault("DEBOUNCE_WINDOW", "300ms")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SANDBOX_PORT", "9000")
	v.SetDefault("SANDBOX_SEED", 42)
	v.SetDefault("SANDBOX_PATIENTS", 25)
	v.SetDefault("SANDBOX_DOCTORS", 8)
	v.SetDefault("SANDBOX_EXAMS", 23)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Upstreams maps each backend name to its base URL.
func (c *Config) Upstreams() map[string]string {
	return map[string]string{
		"PATIENTS_API_URL":     c.PatientsAPIURL,
		"DOCTORS_API_URL":      c.DoctorsAPIURL,
		"EXAMS_API_URL":        c.ExamsAPIURL,
		"SUMMARY_API_URL":      c.SummaryAPIURL,
		"ORCHESTRATOR_API_URL": c.OrchestratorURL,
	}
}

// PointAt replaces every upstream with baseURL. The sandbox command uses
// it to serve all backends from one port.
func (c *Config) PointAt(baseURL string) {
	c.PatientsAPIURL = baseURL
	c.DoctorsAPIURL = baseURL
	c.ExamsAPIURL = baseURL
	c.SummaryAPIURL = baseURL
	c.OrchestratorURL = baseURL
}

// Validate checks that every upstream is an absolute http(s) URL and that
// durations and limits are positive.
func (c *Config) Validate() error {
	for name, raw := range c.Upstreams() {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s is not a valid URL: %w", name, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
		}
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.DebounceWindow <= 0 {
		return fmt.Errorf("DEBOUNCE_WINDOW must be positive, got %s", c.DebounceWindow)
	}
	if c.ExamsLoadCap < 0 {
		return fmt.Errorf("EXAMS_LOAD_CAP must not be negative, got %d", c.ExamsLoadCap)
	}
	if c.SandboxPatients < 0 || c.SandboxDoctors < 0 || c.SandboxExams < 0 {
		return fmt.Errorf("sandbox record counts must not be negative")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
