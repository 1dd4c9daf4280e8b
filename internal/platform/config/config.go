package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	strutil "carewatch/pkg/platform/strings"
)

// DefaultProofMaxBytes is the proof upload limit when none is configured (5 MiB).
const DefaultProofMaxBytes int64 = 5 << 20

// Server captures process-level configuration. Zero values for the optional
// backends (database, redis, kafka, advisor) mean "not configured" and the
// in-memory implementations are used instead.
type Server struct {
	Addr      string          `yaml:"addr"`
	Log       LogConfig       `yaml:"log"`
	Database  DBConfig        `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Audit     AuditConfig     `yaml:"audit"`
	Proof     ProofConfig     `yaml:"proof"`
	Receipt   ReceiptConfig   `yaml:"receipt"`
	Advisor   AdvisorConfig   `yaml:"advisor"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	// SeedDemoData replays the demo donations into the ledger at startup.
	SeedDemoData bool `yaml:"seed_demo_data"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

type DBConfig struct {
	URL          string        `yaml:"url"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	ConnMaxLife  time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type AuditConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type ProofConfig struct {
	MaxBytes int64  `yaml:"max_bytes"`
	Dir      string `yaml:"dir"` // empty keeps proofs in memory
}

type ReceiptConfig struct {
	BaseURL string `yaml:"base_url"`
}

type AdvisorConfig struct {
	URL          string        `yaml:"url"`
	Timeout      time.Duration `yaml:"timeout"`
	ScanSchedule string        `yaml:"scan_schedule"` // cron spec with seconds; empty disables the job
}

// RateLimitConfig bounds requests per client IP and minute.
type RateLimitConfig struct {
	Disabled       bool `yaml:"disabled"`
	ReadPerMinute  int  `yaml:"read_per_minute"`
	WritePerMinute int  `yaml:"write_per_minute"`
}

// Default returns the development configuration.
func Default() Server {
	return Server{
		Addr: ":8080",
		Log:  LogConfig{Level: "info", Format: "text"},
		Database: DBConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			ConnMaxLife:  30 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Audit:   AuditConfig{Topic: "carewatch.audit"},
		Proof:   ProofConfig{MaxBytes: DefaultProofMaxBytes},
		Receipt: ReceiptConfig{BaseURL: "https://carewatch.local"},
		Advisor: AdvisorConfig{Timeout: 10 * time.Second},
		RateLimit: RateLimitConfig{
			ReadPerMinute:  300,
			WritePerMinute: 60,
		},
	}
}

// FromEnv builds the Server config so main stays lean. An optional .env file
// is loaded first; when CAREWATCH_CONFIG names a YAML file it is applied on top
// of the defaults, and environment variables win over both.
func FromEnv() (Server, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CAREWATCH_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Server{}, err
		}
	}
	if err := cfg.overrideWithEnv(os.LookupEnv); err != nil {
		return Server{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Server) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Server) overrideWithEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("CAREWATCH_ADDR", &c.Addr)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("DATABASE_URL", &c.Database.URL)
	str("REDIS_URL", &c.Redis.URL)
	str("AUDIT_TOPIC", &c.Audit.Topic)
	str("PROOF_DIR", &c.Proof.Dir)
	str("RECEIPT_BASE_URL", &c.Receipt.BaseURL)
	str("ADVISOR_URL", &c.Advisor.URL)
	str("ADVISORY_SCAN_SCHEDULE", &c.Advisor.ScanSchedule)

	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Audit.Brokers = strutil.SplitList(v, ",")
	}
	if v, ok := lookup("PROOF_MAX_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("PROOF_MAX_BYTES: %w", err)
		}
		c.Proof.MaxBytes = n
	}
	if v, ok := lookup("ADVISOR_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ADVISOR_TIMEOUT: %w", err)
		}
		c.Advisor.Timeout = d
	}
	if v, ok := lookup("RATE_LIMIT_DISABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_DISABLED: %w", err)
		}
		c.RateLimit.Disabled = b
	}
	for key, dst := range map[string]*int{
		"RATE_LIMIT_READ_PER_MINUTE":  &c.RateLimit.ReadPerMinute,
		"RATE_LIMIT_WRITE_PER_MINUTE": &c.RateLimit.WritePerMinute,
	} {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	if v, ok := lookup("SEED_DEMO_DATA"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SEED_DEMO_DATA: %w", err)
		}
		c.SeedDemoData = b
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c *Server) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.Proof.MaxBytes <= 0 {
		return fmt.Errorf("proof max bytes must be positive, got %d", c.Proof.MaxBytes)
	}
	if c.Advisor.Timeout <= 0 {
		return fmt.Errorf("advisor timeout must be positive")
	}
	if !c.RateLimit.Disabled && (c.RateLimit.ReadPerMinute <= 0 || c.RateLimit.WritePerMinute <= 0) {
		return fmt.Errorf("rate limits must be positive unless rate limiting is disabled")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if len(c.Audit.Brokers) > 0 && c.Audit.Topic == "" {
		return fmt.Errorf("audit topic is required when kafka brokers are set")
	}
	return nil
}
