package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/opsgrid/cbcheck/internal/config"
	"github.com/opsgrid/cbcheck/internal/engine"
	"github.com/opsgrid/cbcheck/internal/metrics"
	"github.com/opsgrid/cbcheck/internal/notify"
	"github.com/opsgrid/cbcheck/internal/repo"
	"github.com/opsgrid/cbcheck/internal/utils"
)

type flags struct {
	configFile    string
	allNodes      bool
	dumpServices  bool
	noMetrics     bool
	verbose       bool
	couchbaseHost string
	monitorHost   string
	monitorPort   int
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "cbcheck -c CONFIG_FILE",
		Short:         "Evaluate Couchbase cluster metrics and forward passive check results",
		Long:          "cbcheck polls a Couchbase cluster's administrative REST API, evaluates\nconfigured metric rules against thresholds, and forwards OK/WARNING/CRITICAL\npassive check results to a monitoring receiver.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), &f)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.configFile, "config", "c", "", "path to the cbcheck YAML config file")
	fs.BoolVarP(&f.allNodes, "all-nodes", "a", false, "return metrics for all cluster nodes")
	fs.BoolVarP(&f.dumpServices, "dump-services", "d", false, "print service descriptions and exit")
	fs.BoolVarP(&f.noMetrics, "no-metrics", "n", false, "do not send results to the monitoring host")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	fs.StringVarP(&f.couchbaseHost, "couchbase-host", "C", "", "override the configured Couchbase host")
	fs.StringVarP(&f.monitorHost, "monitor-host", "H", "", "override the configured monitoring host")
	fs.IntVarP(&f.monitorPort, "monitor-port", "p", 0, "override the configured monitoring port")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func run(ctx context.Context, f *flags) error {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return err
	}

	// Flag overrides are folded in before the config is handed to any
	// component; nothing mutates it afterwards.
	if f.allNodes {
		cfg.AllNodes = true
	}
	if f.dumpServices {
		cfg.DumpServices = true
	}
	if f.noMetrics {
		cfg.SendMetrics = false
	}
	if f.couchbaseHost != "" {
		cfg.CouchbaseHost = f.couchbaseHost
	}
	if f.monitorHost != "" {
		cfg.MonitorHost = f.monitorHost
	}
	if f.monitorPort != 0 {
		cfg.MonitorPort = f.monitorPort
	}
	if f.verbose {
		cfg.Logging.Level = "debug"
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	client := repo.NewClient(repo.Config{
		Host:      cfg.CouchbaseHost,
		AdminPort: cfg.CouchbaseAdminPort,
		QueryPort: cfg.CouchbaseQueryPort,
		UseTLS:    cfg.CouchbaseSSL,
		User:      cfg.CouchbaseUser,
		Password:  cfg.CouchbasePassword,
	}, logger)

	var notifier engine.Notifier
	switch {
	case cfg.DumpServices:
		notifier = notify.Dump{W: os.Stdout}
	case !cfg.SendMetrics:
		notifier = notify.Discard{}
	case cfg.MonitorType == "nagios":
		nsca, err := notify.NewNSCA(cfg.NSCAPath, cfg.MonitorHost, cfg.MonitorPort, logger)
		if err != nil {
			return err
		}
		notifier = nsca
	default:
		return fmt.Errorf("unknown monitor_type %q configured, no metrics have been sent", cfg.MonitorType)
	}

	runner := engine.NewRunner(logger, client, notifier, cfg)

	start := time.Now()
	results, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	metrics.SetRunDuration(time.Since(start))

	if cfg.Metrics.PushgatewayURL != "" {
		if err := metrics.PushToGateway(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			logger.Warn("pushgateway delivery failed", slog.Any("error", err))
		}
	}

	logger.Info("run complete",
		slog.Int("results", len(results)),
		slog.Duration("elapsed", time.Since(start)))

	if !cfg.DumpServices {
		fmt.Println("OK - cbcheck ran successfully")
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
