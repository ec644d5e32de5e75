// Package main provides the CLI entry point for the udp-relay daemon.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/netfold/udp-relay/internal/config"
	"github.com/netfold/udp-relay/internal/endpoint"
	"github.com/netfold/udp-relay/internal/health"
	"github.com/netfold/udp-relay/internal/logging"
	"github.com/netfold/udp-relay/internal/metrics"
	"github.com/netfold/udp-relay/internal/relay"
	"github.com/netfold/udp-relay/internal/wizard"
)

var (
	// Version is set at build time
	Version = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "udp-relay",
		Short: "udp-relay - Bidirectional UDP datagram relay",
		Long: `udp-relay shuttles datagrams between two bound UDP sockets.

It supports two forwarding policies: bridging two known parties via
fixed destinations, or re-emitting each datagram out the peer socket
back to its own sender. Dispatch is either readiness-driven (epoll)
or a portable busy-poll loop.`,
		Version: Version,
	}

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(runCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive setup wizard",
		Long:  "Create a relay configuration file through an interactive wizard.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := wizard.New().Run(); err != nil {
				return fmt.Errorf("setup failed: %w", err)
			}
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	var (
		configPath string
		bindA      string
		bindB      string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the relay",
		Long:  "Start the relay with the specified configuration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// Flag overrides re-run validation since they may break
			// constraints the file satisfied.
			if bindA != "" || bindB != "" {
				if bindA != "" {
					cfg.Relay.A.Bind = bindA
				}
				if bindB != "" {
					cfg.Relay.B.Bind = bindB
				}
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("config validation failed: %w", err)
				}
			}

			return run(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "./config.yaml", "Path to configuration file")
	cmd.Flags().StringVar(&bindA, "bind-a", "", "Override bind address for socket A")
	cmd.Flags().StringVar(&bindB, "bind-b", "", "Override bind address for socket B")

	return cmd
}

func run(cfg *config.Config) error {
	logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	m := metrics.Default()

	sockA, err := openSide("a", cfg.Relay.A)
	if err != nil {
		return err
	}
	defer sockA.Close()

	sockB, err := openSide("b", cfg.Relay.B)
	if err != nil {
		return err
	}
	defer sockB.Close()

	policyAToB, policyBToA, err := buildPolicies(cfg.Relay)
	if err != nil {
		return err
	}

	engine, err := relay.New(relay.Config{
		Strategy:    relay.Strategy(cfg.Relay.Dispatch),
		DrainBudget: cfg.Relay.DrainBudget,
		PolicyAToB:  policyAToB,
		PolicyBToA:  policyBToA,
	}, sockA, sockB, logger, m)
	if err != nil {
		return fmt.Errorf("failed to create relay: %w", err)
	}
	defer engine.Close()

	logger.Info("relay starting",
		logging.KeyStrategy, cfg.Relay.Dispatch,
		"policy", cfg.Relay.Policy,
		"a", sockA.LocalEndpoint().String(),
		"b", sockB.LocalEndpoint().String(),
	)

	if cfg.Health.Enabled {
		hs := health.NewServer(health.ServerConfig{
			Address:      cfg.Health.Address,
			ReadTimeout:  cfg.Health.ReadTimeout,
			WriteTimeout: cfg.Health.WriteTimeout,
		}, engine)
		if err := hs.Start(); err != nil {
			return fmt.Errorf("failed to start health server: %w", err)
		}
		defer hs.Stop()
		logger.Info("health server listening", logging.KeyAddress, hs.Address().String())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.StatsInterval > 0 {
		go statsLoop(ctx, engine, logger, cfg.StatsInterval)
	}

	if err := engine.Run(ctx); err != nil {
		logger.Error("relay failed", logging.KeyError, err)
		return err
	}

	logger.Info("relay stopped")
	return nil
}

func openSide(name string, side config.SideConfig) (*endpoint.Socket, error) {
	local, err := endpoint.Parse(side.Bind)
	if err != nil {
		return nil, fmt.Errorf("relay.%s.bind: %w", name, err)
	}
	s, err := endpoint.Open(local)
	if err != nil {
		return nil, fmt.Errorf("failed to open socket %s: %w", name, err)
	}
	return s, nil
}

// buildPolicies maps the configured policy onto per-direction forwarding.
// Under fixed-destination bridging, datagrams received on A leave via B to
// B's destination, and the other way around.
func buildPolicies(rc config.RelayConfig) (aToB, bToA relay.ForwardPolicy, err error) {
	switch rc.Policy {
	case config.PolicyFixedDestination:
		destB, err := endpoint.Parse(rc.B.Destination)
		if err != nil {
			return nil, nil, fmt.Errorf("relay.b.destination: %w", err)
		}
		destA, err := endpoint.Parse(rc.A.Destination)
		if err != nil {
			return nil, nil, fmt.Errorf("relay.a.destination: %w", err)
		}
		return relay.FixedDestination(destB), relay.FixedDestination(destA), nil
	case config.PolicyAddressPreserving:
		return relay.PreserveSender(), relay.PreserveSender(), nil
	default:
		return nil, nil, fmt.Errorf("unknown relay policy %q", rc.Policy)
	}
}

// statsLoop logs a periodic traffic summary until ctx is done.
func statsLoop(ctx context.Context, engine *relay.Engine, logger *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := engine.Stats()
			logger.Info("relay stats",
				"a_to_b_forwarded", humanize.Comma(int64(stats.AToB.Forwarded)),
				"a_to_b_bytes", humanize.Bytes(stats.AToB.Bytes),
				"a_to_b_dropped", stats.AToB.Dropped,
				"b_to_a_forwarded", humanize.Comma(int64(stats.BToA.Forwarded)),
				"b_to_a_bytes", humanize.Bytes(stats.BToA.Bytes),
				"b_to_a_dropped", stats.BToA.Dropped,
			)
		}
	}
}
