package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validFixedYAML = `
relay:
  policy: fixed-destination
  a:
    bind: 127.0.0.1:319
    destination: 192.0.2.10:319
  b:
    bind: 127.0.0.1:1319
    destination: 192.0.2.20:319
`

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want text", cfg.Log.Format)
	}
	if cfg.Relay.Policy != PolicyFixedDestination {
		t.Errorf("Relay.Policy = %q, want %q", cfg.Relay.Policy, PolicyFixedDestination)
	}
	if cfg.Relay.Dispatch != DispatchReadiness {
		t.Errorf("Relay.Dispatch = %q, want %q", cfg.Relay.Dispatch, DispatchReadiness)
	}
	if cfg.Relay.DrainBudget != 128 {
		t.Errorf("Relay.DrainBudget = %d, want 128", cfg.Relay.DrainBudget)
	}
	if cfg.StatsInterval != time.Minute {
		t.Errorf("StatsInterval = %v, want 1m", cfg.StatsInterval)
	}
	if cfg.Health.Enabled {
		t.Error("Health.Enabled = true, want false")
	}
}

func TestParse_ValidFixed(t *testing.T) {
	cfg, err := Parse([]byte(validFixedYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Relay.A.Bind != "127.0.0.1:319" {
		t.Errorf("Relay.A.Bind = %q, want 127.0.0.1:319", cfg.Relay.A.Bind)
	}
	if cfg.Relay.B.Destination != "192.0.2.20:319" {
		t.Errorf("Relay.B.Destination = %q, want 192.0.2.20:319", cfg.Relay.B.Destination)
	}
	// Defaults survive a partial file.
	if cfg.Relay.DrainBudget != 128 {
		t.Errorf("Relay.DrainBudget = %d, want 128", cfg.Relay.DrainBudget)
	}
}

func TestParse_ValidAddressPreserving(t *testing.T) {
	yaml := `
relay:
  policy: address-preserving
  dispatch: poll
  drain_budget: 64
  a:
    bind: 127.0.0.1:319
  b:
    bind: 127.0.0.1:1319
stats_interval: 30s
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Relay.Policy != PolicyAddressPreserving {
		t.Errorf("Relay.Policy = %q, want %q", cfg.Relay.Policy, PolicyAddressPreserving)
	}
	if cfg.Relay.Dispatch != DispatchPoll {
		t.Errorf("Relay.Dispatch = %q, want %q", cfg.Relay.Dispatch, DispatchPoll)
	}
	if cfg.Relay.DrainBudget != 64 {
		t.Errorf("Relay.DrainBudget = %d, want 64", cfg.Relay.DrainBudget)
	}
	if cfg.StatsInterval != 30*time.Second {
		t.Errorf("StatsInterval = %v, want 30s", cfg.StatsInterval)
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	os.Setenv("UDP_RELAY_TEST_BIND", "127.0.0.1:9000")
	defer os.Unsetenv("UDP_RELAY_TEST_BIND")

	yaml := `
relay:
  policy: address-preserving
  a:
    bind: ${UDP_RELAY_TEST_BIND}
  b:
    bind: ${UDP_RELAY_TEST_MISSING:-127.0.0.1:9001}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Relay.A.Bind != "127.0.0.1:9000" {
		t.Errorf("Relay.A.Bind = %q, want expanded env value", cfg.Relay.A.Bind)
	}
	if cfg.Relay.B.Bind != "127.0.0.1:9001" {
		t.Errorf("Relay.B.Bind = %q, want default value", cfg.Relay.B.Bind)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "missing bind",
			mutate:  func(c *Config) { c.Relay.A.Bind = "" },
			wantMsg: "relay.a.bind is required",
		},
		{
			name:    "malformed bind",
			mutate:  func(c *Config) { c.Relay.B.Bind = "not-an-address" },
			wantMsg: "relay.b.bind",
		},
		{
			name: "identical binds",
			mutate: func(c *Config) {
				c.Relay.A.Bind = "127.0.0.1:319"
				c.Relay.B.Bind = "127.0.0.1:319"
			},
			wantMsg: "must differ",
		},
		{
			name:    "missing destination for fixed policy",
			mutate:  func(c *Config) { c.Relay.A.Destination = "" },
			wantMsg: "relay.a.destination is required",
		},
		{
			name: "destination set for address-preserving policy",
			mutate: func(c *Config) {
				c.Relay.Policy = PolicyAddressPreserving
				c.Relay.B.Destination = "192.0.2.1:1"
			},
			wantMsg: "relay.a.destination must be empty",
		},
		{
			name:    "unknown policy",
			mutate:  func(c *Config) { c.Relay.Policy = "broadcast" },
			wantMsg: "invalid relay.policy",
		},
		{
			name:    "unknown dispatch",
			mutate:  func(c *Config) { c.Relay.Dispatch = "select" },
			wantMsg: "invalid relay.dispatch",
		},
		{
			name:    "zero drain budget",
			mutate:  func(c *Config) { c.Relay.DrainBudget = 0 },
			wantMsg: "drain_budget must be positive",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantMsg: "invalid log.level",
		},
		{
			name: "health enabled without address",
			mutate: func(c *Config) {
				c.Health.Enabled = true
				c.Health.Address = ""
			},
			wantMsg: "health.address is required",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Parse([]byte(validFixedYAML))
			if err != nil {
				t.Fatalf("Parse of valid base failed: %v", err)
			}

			tc.mutate(cfg)

			err = cfg.Validate()
			if err == nil {
				t.Fatal("Validate succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("Validate error = %q, want it to contain %q", err, tc.wantMsg)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte(validFixedYAML), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Relay.A.Bind != "127.0.0.1:319" {
		t.Errorf("Relay.A.Bind = %q, want 127.0.0.1:319", cfg.Relay.A.Bind)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load of missing file succeeded, want error")
	}
}
