// Package wizard provides an interactive setup wizard for udp-relay.
package wizard

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/netfold/udp-relay/internal/config"
	"github.com/netfold/udp-relay/internal/endpoint"
)

// Result contains the wizard output.
type Result struct {
	Config     *config.Config
	ConfigPath string
}

// Wizard manages the interactive setup process.
type Wizard struct {
	theme *huh.Theme
}

// New creates a new setup wizard.
func New() *Wizard {
	return &Wizard{
		theme: huh.ThemeDracula(),
	}
}

// Run executes the interactive setup wizard.
func (w *Wizard) Run() (*Result, error) {
	w.printBanner()

	// Step 1: Config file location
	configPath, err := w.askConfigPath()
	if err != nil {
		return nil, err
	}

	// Step 2: Forwarding policy
	policy, err := w.askPolicy()
	if err != nil {
		return nil, err
	}

	// Step 3: Socket pair
	sideA, sideB, err := w.askSockets(policy)
	if err != nil {
		return nil, err
	}

	// Step 4: Dispatch strategy
	dispatch, err := w.askDispatch()
	if err != nil {
		return nil, err
	}

	// Step 5: Advanced options
	drainBudget, logLevel, healthEnabled, healthAddr, err := w.askAdvancedOptions()
	if err != nil {
		return nil, err
	}

	// Build and validate the configuration
	cfg := w.buildConfig(policy, dispatch, sideA, sideB, drainBudget, logLevel, healthEnabled, healthAddr)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Write configuration file
	if err := w.writeConfig(cfg, configPath); err != nil {
		return nil, err
	}

	// Print summary
	w.printSummary(configPath, cfg)

	return &Result{
		Config:     cfg,
		ConfigPath: configPath,
	}, nil
}

func (w *Wizard) printBanner() {
	banner := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")).
		Render(`
  _   _ ____  ____        ____      _
 | | | |  _ \|  _ \      |  _ \ ___| | __ _ _   _
 | | | | | | | |_) |_____| |_) / _ \ |/ _` + "`" + ` | | | |
 | |_| | |_| |  __/______|  _ <  __/ | (_| | |_| |
  \___/|____/|_|         |_| \_\___|_|\__,_|\__, |
                                            |___/
`)

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render("  Bidirectional UDP Datagram Relay - Setup Wizard\n")

	fmt.Println(banner)
	fmt.Println(subtitle)
}

// validateEndpoint rejects anything that is not a literal IPv4 host:port.
func validateEndpoint(s string) error {
	if s == "" {
		return fmt.Errorf("endpoint is required")
	}
	_, err := endpoint.Parse(s)
	return err
}

func (w *Wizard) askConfigPath() (string, error) {
	configPath := "./config.yaml"

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Basic Setup").
				Description("Configure where the relay configuration is written."),

			huh.NewInput().
				Title("Config File Path").
				Description("Where to write the configuration file").
				Placeholder("./config.yaml").
				Value(&configPath).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("config path is required")
					}
					if !strings.HasSuffix(s, ".yaml") && !strings.HasSuffix(s, ".yml") {
						return fmt.Errorf("config file should have .yaml or .yml extension")
					}
					return nil
				}),
		),
	).WithTheme(w.theme)

	if err := form.Run(); err != nil {
		return "", err
	}

	return configPath, nil
}

func (w *Wizard) askPolicy() (string, error) {
	policy := config.PolicyFixedDestination

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Forwarding Policy").
				Description("How should datagrams crossing the relay be addressed?"),

			huh.NewSelect[string]().
				Title("Policy").
				Options(
					huh.NewOption("Fixed destination (bridge two known parties)", config.PolicyFixedDestination),
					huh.NewOption("Address preserving (echo back to each sender)", config.PolicyAddressPreserving),
				).
				Value(&policy),
		),
	).WithTheme(w.theme)

	if err := form.Run(); err != nil {
		return "", err
	}

	return policy, nil
}

func (w *Wizard) askSockets(policy string) (sideA, sideB config.SideConfig, err error) {
	sideA.Bind = "127.0.0.1:319"
	sideB.Bind = "127.0.0.1:320"

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Socket Pair").
				Description("The relay binds two UDP sockets, A and B.\nAddresses must be literal IPv4 host:port pairs."),

			huh.NewInput().
				Title("Bind Address A").
				Description("Local endpoint for socket A").
				Placeholder("127.0.0.1:319").
				Value(&sideA.Bind).
				Validate(validateEndpoint),

			huh.NewInput().
				Title("Bind Address B").
				Description("Local endpoint for socket B").
				Placeholder("127.0.0.1:320").
				Value(&sideB.Bind).
				Validate(validateEndpoint),
		),
	).WithTheme(w.theme)

	if err = form.Run(); err != nil {
		return
	}

	// Fixed-destination bridging needs an egress target per side.
	if policy == config.PolicyFixedDestination {
		destForm := huh.NewForm(
			huh.NewGroup(
				huh.NewNote().
					Title("Destinations").
					Description("Datagrams received on A leave via B to B's destination,\nand the other way around."),

				huh.NewInput().
					Title("Destination for B").
					Description("Where datagrams arriving on A are delivered").
					Placeholder("192.0.2.10:9000").
					Value(&sideB.Destination).
					Validate(validateEndpoint),

				huh.NewInput().
					Title("Destination for A").
					Description("Where datagrams arriving on B are delivered").
					Placeholder("192.0.2.20:9000").
					Value(&sideA.Destination).
					Validate(validateEndpoint),
			),
		).WithTheme(w.theme)

		if err = destForm.Run(); err != nil {
			return
		}
	}

	return
}

func (w *Wizard) askDispatch() (string, error) {
	dispatch := config.DispatchReadiness

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Dispatch Strategy").
				Description("How the relay waits for traffic."),

			huh.NewSelect[string]().
				Title("Dispatch").
				Options(
					huh.NewOption("Readiness (blocks while idle, Linux only)", config.DispatchReadiness),
					huh.NewOption("Poll (busy loop, portable, burns CPU)", config.DispatchPoll),
				).
				Value(&dispatch),
		),
	).WithTheme(w.theme)

	if err := form.Run(); err != nil {
		return "", err
	}

	return dispatch, nil
}

func (w *Wizard) askAdvancedOptions() (drainBudget int, logLevel string, healthEnabled bool, healthAddr string, err error) {
	drainBudget = 128
	logLevel = "info"
	healthAddr = ":8080"

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Advanced Options").
				Description("Tuning, monitoring and logging."),

			huh.NewInput().
				Title("Drain Budget").
				Description("Max datagrams moved per direction per visit").
				Placeholder("128").
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					n, err := strconv.Atoi(s)
					if err != nil || n < 1 {
						return fmt.Errorf("must be a positive number")
					}
					drainBudget = n
					return nil
				}),

			huh.NewSelect[string]().
				Title("Log Level").
				Options(
					huh.NewOption("Debug (verbose)", "debug"),
					huh.NewOption("Info (recommended)", "info"),
					huh.NewOption("Warning", "warn"),
					huh.NewOption("Error (quiet)", "error"),
				).
				Value(&logLevel),

			huh.NewConfirm().
				Title("Enable health check endpoint?").
				Description("HTTP endpoint for monitoring (/health, /metrics)").
				Value(&healthEnabled),
		),
	).WithTheme(w.theme)

	if err = form.Run(); err != nil {
		return
	}

	if healthEnabled {
		addrForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Health Listen Address").
					Placeholder(":8080").
					Value(&healthAddr).
					Validate(func(s string) error {
						if s == "" {
							return fmt.Errorf("address is required")
						}
						return nil
					}),
			),
		).WithTheme(w.theme)

		if err = addrForm.Run(); err != nil {
			return
		}
	}

	return
}

func (w *Wizard) buildConfig(
	policy, dispatch string,
	sideA, sideB config.SideConfig,
	drainBudget int,
	logLevel string,
	healthEnabled bool,
	healthAddr string,
) *config.Config {
	cfg := config.Default()

	cfg.Log.Level = logLevel
	cfg.Log.Format = "text"

	cfg.Relay.Policy = policy
	cfg.Relay.Dispatch = dispatch
	cfg.Relay.DrainBudget = drainBudget
	cfg.Relay.A = sideA
	cfg.Relay.B = sideB

	cfg.Health.Enabled = healthEnabled
	if healthEnabled {
		cfg.Health.Address = healthAddr
	}

	return cfg
}

func (w *Wizard) writeConfig(cfg *config.Config, path string) error {
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Add header comment
	header := `# udp-relay Configuration
# Generated by setup wizard

`
	if err := os.WriteFile(path, []byte(header+string(data)), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (w *Wizard) printSummary(configPath string, cfg *config.Config) {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("42"))

	divider := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render("─────────────────────────────────────────────────")

	fmt.Println()
	fmt.Println(divider)
	fmt.Println(style.Render("✓ Setup Complete!"))
	fmt.Println(divider)
	fmt.Println()

	fmt.Printf("  Config file:  %s\n", configPath)
	fmt.Printf("  Policy:       %s\n", cfg.Relay.Policy)
	fmt.Printf("  Dispatch:     %s\n", cfg.Relay.Dispatch)
	fmt.Printf("  Socket A:     %s\n", cfg.Relay.A.Bind)
	fmt.Printf("  Socket B:     %s\n", cfg.Relay.B.Bind)

	if cfg.Relay.Policy == config.PolicyFixedDestination {
		fmt.Printf("  A -> %s, B -> %s\n", cfg.Relay.B.Destination, cfg.Relay.A.Destination)
	}

	if cfg.Health.Enabled {
		fmt.Printf("  Health:       http://%s/health\n", cfg.Health.Address)
	}

	fmt.Println()
	fmt.Println("  To start the relay:")
	fmt.Printf("    udp-relay run -c %s\n", configPath)
	fmt.Println()
}
