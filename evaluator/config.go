package evaluator

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names recognized by ConfigFromEnv.
const (
	EnvQueryTimeout      = "QUERY_TIMEOUT_SECONDS"
	EnvMaxResultRows     = "MAX_RESULT_ROWS"
	EnvRunRateLimit      = "RUN_RATE_LIMIT"
	EnvMaxConcurrentRuns = "MAX_CONCURRENT_QUERY_RUNS"
	EnvDecimalPrecision  = "DECIMAL_PRECISION"
	EnvCaseInsensitive   = "CASE_INSENSITIVE_COLUMNS"
	EnvStripStrings      = "STRIP_STRINGS"
	EnvHealthCooldown    = "HEALTH_COOLDOWN_SECONDS"
	EnvPrimaryConn       = "PRIMARY_CONN"
	EnvReplicaConns      = "REPLICA_CONNS"
)

// Config default values.
const (
	DefaultQueryTimeout      = 5 * time.Second   // default per-statement execution timeout.
	DefaultMaxResultRows     = 100               // default hard row cap.
	DefaultRunRateLimit      = 10                // default submissions per user per rolling minute.
	DefaultMaxConcurrentRuns = 20                // default process-wide in-flight query cap.
	DefaultDecimalPrecision  = 4                 // default decimal-to-float rounding precision.
	DefaultHealthCooldown    = 300 * time.Second // default replica unhealthy cooldown.
	DefaultConnectTimeout    = 2 * time.Second   // connect timeout for every database target.
)

// minimal values.
const (
	minQueryTimeout      = 1 * time.Second
	minMaxResultRows     = 1
	minRunRateLimit      = 1
	minMaxConcurrentRuns = 1
)

// ErrMissingPrimary is returned by ConfigFromEnv if no primary connection string is configured.
var ErrMissingPrimary = errors.New("missing primary connection string (PRIMARY_CONN)")

// A ConnectionSpec names a database target. The connection string is opaque
// to the evaluator and handed to the SQL Server driver unmodified.
type ConnectionSpec struct {
	Label   string
	ConnStr string
}

func (s ConnectionSpec) String() string { return s.Label }

// Config holds the immutable process configuration of an Evaluator.
// Populate it via ConfigFromEnv or construct it directly; in both cases
// call validate indirectly through NewEvaluator.
type Config struct {
	QueryTimeout           time.Duration // per-statement execution timeout.
	ConnectTimeout         time.Duration // per-target connect timeout.
	HealthCooldown         time.Duration // replica unhealthy cooldown.
	MaxResultRows          int           // hard row cap (rewrite and fetch).
	RunRateLimit           int           // submissions per user per rolling minute.
	MaxConcurrentRuns      int           // process-wide in-flight query cap.
	DecimalPrecision       int           // decimal-to-float rounding precision.
	CaseInsensitiveColumns bool          // fold result set column names.
	StripStrings           bool          // trim whitespace from string values.
	Primary                ConnectionSpec
	Replicas               []ConnectionSpec
}

// ConfigFromEnv returns a Config populated from the environment,
// falling back to default values for any unset option.
func ConfigFromEnv() (*Config, error) {
	primary := getStringEnv(EnvPrimaryConn, "")
	if primary == "" {
		return nil, ErrMissingPrimary
	}
	cfg := &Config{
		QueryTimeout:           time.Duration(getIntEnv(EnvQueryTimeout, int(DefaultQueryTimeout/time.Second))) * time.Second,
		ConnectTimeout:         DefaultConnectTimeout,
		HealthCooldown:         time.Duration(getIntEnv(EnvHealthCooldown, int(DefaultHealthCooldown/time.Second))) * time.Second,
		MaxResultRows:          getIntEnv(EnvMaxResultRows, DefaultMaxResultRows),
		RunRateLimit:           getIntEnv(EnvRunRateLimit, DefaultRunRateLimit),
		MaxConcurrentRuns:      getIntEnv(EnvMaxConcurrentRuns, DefaultMaxConcurrentRuns),
		DecimalPrecision:       getIntEnv(EnvDecimalPrecision, DefaultDecimalPrecision),
		CaseInsensitiveColumns: getBoolEnv(EnvCaseInsensitive, true),
		StripStrings:           getBoolEnv(EnvStripStrings, true),
		Primary:                ConnectionSpec{Label: "primary", ConnStr: primary},
		Replicas:               parseReplicas(getStringEnv(EnvReplicaConns, "")),
	}
	cfg.clamp()
	return cfg, nil
}

// clamp raises out-of-range options to their minimal values.
func (c *Config) clamp() {
	if c.QueryTimeout < minQueryTimeout {
		c.QueryTimeout = minQueryTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.HealthCooldown <= 0 {
		c.HealthCooldown = DefaultHealthCooldown
	}
	if c.MaxResultRows < minMaxResultRows {
		c.MaxResultRows = minMaxResultRows
	}
	if c.RunRateLimit < minRunRateLimit {
		c.RunRateLimit = minRunRateLimit
	}
	if c.MaxConcurrentRuns < minMaxConcurrentRuns {
		c.MaxConcurrentRuns = minMaxConcurrentRuns
	}
	if c.DecimalPrecision < 0 {
		c.DecimalPrecision = DefaultDecimalPrecision
	}
}

func parseReplicas(s string) []ConnectionSpec {
	if s == "" {
		return nil
	}
	var specs []ConnectionSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		specs = append(specs, ConnectionSpec{Label: fmt.Sprintf("replica-%d", len(specs)+1), ConnStr: part})
	}
	return specs
}

func getStringEnv(name, defValue string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return defValue
}

func getIntEnv(name string, defValue int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return defValue
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return defValue
	}
	return i
}

func getBoolEnv(name string, defValue bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return defValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return defValue
	}
	return b
}
