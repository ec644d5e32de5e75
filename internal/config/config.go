// Package config provides configuration parsing and validation for udp-relay.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/netfold/udp-relay/internal/endpoint"
)

// Forwarding policies.
const (
	// PolicyFixedDestination bridges two parties: datagrams received on one
	// side are always sent to the other side's preconfigured destination,
	// regardless of who sent them.
	PolicyFixedDestination = "fixed-destination"

	// PolicyAddressPreserving re-emits each datagram out the peer socket
	// addressed back to its own reported sender. This is an
	// address-translating echo, not a bridge; see internal/relay.
	PolicyAddressPreserving = "address-preserving"
)

// Dispatch strategies.
const (
	// DispatchReadiness blocks on the OS readiness multiplexer while idle.
	// Linux only.
	DispatchReadiness = "readiness"

	// DispatchPoll drains both directions in a tight loop without ever
	// blocking. Portable, spends CPU while idle.
	DispatchPoll = "poll"
)

// Config represents the complete relay configuration.
type Config struct {
	Log           LogConfig     `yaml:"log"`
	Relay         RelayConfig   `yaml:"relay"`
	StatsInterval time.Duration `yaml:"stats_interval"`
	Health        HealthConfig  `yaml:"health"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// RelayConfig defines the relay pair and its forwarding behavior.
type RelayConfig struct {
	Policy      string     `yaml:"policy"`       // fixed-destination, address-preserving
	Dispatch    string     `yaml:"dispatch"`     // readiness, poll
	DrainBudget int        `yaml:"drain_budget"` // max datagrams per direction per drain visit
	A           SideConfig `yaml:"a"`
	B           SideConfig `yaml:"b"`
}

// SideConfig defines one side of the relay pair.
type SideConfig struct {
	// Bind is the local endpoint this side listens on.
	Bind string `yaml:"bind"`

	// Destination is the egress target used when this side sends, i.e.
	// datagrams received on the opposite side go out this side to
	// Destination. Required for the fixed-destination policy, forbidden
	// for address-preserving.
	Destination string `yaml:"destination"`
}

// HealthConfig defines the monitoring HTTP server settings.
type HealthConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Relay: RelayConfig{
			Policy:      PolicyFixedDestination,
			Dispatch:    DispatchReadiness,
			DrainBudget: 128,
		},
		StatsInterval: time.Minute,
		Health: HealthConfig{
			Enabled:      false,
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := expandEnvVars(string(data))

	// Start with defaults
	cfg := Default()

	// Parse YAML
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// envVarRegex matches ${VAR} or $VAR patterns
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars replaces environment variable references with their values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name
		var name string
		if strings.HasPrefix(match, "${") {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}

		// Handle default values: ${VAR:-default}
		if idx := strings.Index(name, ":-"); idx != -1 {
			varName := name[:idx]
			defaultVal := name[idx+2:]
			if val, ok := os.LookupEnv(varName); ok {
				return val
			}
			return defaultVal
		}

		// Simple lookup
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match // Keep original if not found
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if !isValidLogLevel(c.Log.Level) {
		errs = append(errs, fmt.Sprintf("invalid log.level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}
	if !isValidLogFormat(c.Log.Format) {
		errs = append(errs, fmt.Sprintf("invalid log.format: %s (must be text or json)", c.Log.Format))
	}

	switch c.Relay.Policy {
	case PolicyFixedDestination, PolicyAddressPreserving:
	default:
		errs = append(errs, fmt.Sprintf("invalid relay.policy: %s (must be %s or %s)",
			c.Relay.Policy, PolicyFixedDestination, PolicyAddressPreserving))
	}

	switch c.Relay.Dispatch {
	case DispatchReadiness, DispatchPoll:
	default:
		errs = append(errs, fmt.Sprintf("invalid relay.dispatch: %s (must be %s or %s)",
			c.Relay.Dispatch, DispatchReadiness, DispatchPoll))
	}

	if c.Relay.DrainBudget < 1 {
		errs = append(errs, "relay.drain_budget must be positive")
	}

	bindA, sideErrs := validateSide("relay.a", c.Relay.A, c.Relay.Policy)
	errs = append(errs, sideErrs...)
	bindB, sideErrs := validateSide("relay.b", c.Relay.B, c.Relay.Policy)
	errs = append(errs, sideErrs...)

	if !bindA.IsZero() && bindA == bindB {
		errs = append(errs, "relay.a.bind and relay.b.bind must differ")
	}

	if c.StatsInterval < 0 {
		errs = append(errs, "stats_interval must not be negative")
	}

	if c.Health.Enabled && c.Health.Address == "" {
		errs = append(errs, "health.address is required when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func validateSide(prefix string, side SideConfig, policy string) (endpoint.Endpoint, []string) {
	var errs []string

	var bind endpoint.Endpoint
	if side.Bind == "" {
		errs = append(errs, fmt.Sprintf("%s.bind is required", prefix))
	} else {
		ep, err := endpoint.Parse(side.Bind)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s.bind: %v", prefix, err))
		}
		bind = ep
	}

	switch policy {
	case PolicyFixedDestination:
		if side.Destination == "" {
			errs = append(errs, fmt.Sprintf("%s.destination is required for the %s policy", prefix, PolicyFixedDestination))
		} else if _, err := endpoint.Parse(side.Destination); err != nil {
			errs = append(errs, fmt.Sprintf("%s.destination: %v", prefix, err))
		}
	case PolicyAddressPreserving:
		if side.Destination != "" {
			errs = append(errs, fmt.Sprintf("%s.destination must be empty for the %s policy", prefix, PolicyAddressPreserving))
		}
	}

	return bind, errs
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidLogFormat(format string) bool {
	switch format {
	case "text", "json":
		return true
	default:
		return false
	}
}

// String returns a YAML representation of the config (for debugging).
func (c *Config) String() string {
	data, _ := yaml.Marshal(c)
	return string(data)
}
