package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opsgrid/cbcheck/internal/config"
	"github.com/opsgrid/cbcheck/internal/metrics"
	"github.com/opsgrid/cbcheck/internal/models"
	"github.com/opsgrid/cbcheck/internal/utils"
)

// AllBuckets is the wildcard bucket selector that expands to every bucket
// currently present on the cluster.
const AllBuckets = "_all"

// StatsSource defines the Couchbase REST operations the runner consumes.
type StatsSource interface {
	FetchPools(ctx context.Context) (models.PoolsResponse, error)
	FetchTasks(ctx context.Context) ([]models.Task, error)
	FetchBucketNames(ctx context.Context, host string) ([]string, error)
	FetchBucketStats(ctx context.Context, host, bucket string) (models.SampleSet, error)
	FetchQueryStats(ctx context.Context, host string) (models.SampleSet, error)
	FetchReplicationStats(ctx context.Context, host, sourceBucket, taskID, metric string) (map[string][]float64, error)
}

// Notifier delivers one evaluated check result to the monitoring receiver.
type Notifier interface {
	Send(ctx context.Context, result models.CheckResult) error
}

// Runner drives one evaluation pass: fetch topology, walk the target nodes,
// and run each domain processor in turn. Execution is strictly sequential;
// the only state shared across domains is the read-only topology snapshot
// and the accumulated result list.
type Runner struct {
	logger   *slog.Logger
	source   StatsSource
	notifier Notifier
	cfg      *config.Config
	display  DisplayOptions
}

// NewRunner constructs a runner over the given source and notifier.
func NewRunner(logger *slog.Logger, source StatsSource, notifier Notifier, cfg *config.Config) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger:   logger,
		source:   source,
		notifier: notifier,
		cfg:      cfg,
		display: DisplayOptions{
			Prefix:             cfg.ServicePrefix,
			IncludeClusterName: cfg.ServiceIncludeClusterName,
			IncludeLabel:       cfg.ServiceIncludeLabel,
		},
	}
}

// Run executes one evaluation pass and returns the results in emission
// order. Fetch failures are fatal; malformed rules and absent metrics only
// skip the affected rule.
func (r *Runner) Run(ctx context.Context) ([]models.CheckResult, error) {
	tasks, err := r.source.FetchTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	pools, err := r.source.FetchPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch topology: %w", err)
	}

	cluster := models.ClusterContext{
		ClusterName: pools.ClusterName,
		Nodes:       pools.Nodes,
		Tasks:       tasks,
	}

	var results []models.CheckResult
	for _, node := range cluster.Nodes {
		if !r.cfg.AllNodes && !node.ThisNode {
			continue
		}
		host := node.Host()
		r.logger.Debug("processing node", slog.String("host", host))

		if err := r.processNode(ctx, host, node, cluster.ClusterName, &results); err != nil {
			return nil, err
		}

		if node.HasService("kv") {
			if err := r.processReplications(ctx, host, cluster, &results); err != nil {
				return nil, err
			}
			for _, item := range r.cfg.Data {
				if item.Bucket == AllBuckets {
					names, err := r.source.FetchBucketNames(ctx, host)
					if err != nil {
						return nil, fmt.Errorf("enumerate buckets: %w", err)
					}
					for _, name := range names {
						if err := r.processBucket(ctx, host, name, item.Metrics, cluster.ClusterName, &results); err != nil {
							return nil, err
						}
					}
				} else if err := r.processBucket(ctx, host, item.Bucket, item.Metrics, cluster.ClusterName, &results); err != nil {
					return nil, err
				}
			}
		}

		if node.HasService("n1ql") {
			if err := r.processQuery(ctx, host, cluster.ClusterName, &results); err != nil {
				return nil, err
			}
		}
	}

	return results, nil
}

// emit evaluates one rule against its reduced value, composes the service
// description and message, and hands the result to the notifier.
func (r *Runner) emit(ctx context.Context, host, clusterName, label string, rule models.MetricRule, value models.Value, results *[]models.CheckResult) error {
	op, ok := models.ParseOp(rule.Op)
	if !ok {
		r.logger.Warn("skipped: invalid operator",
			slog.String("op", rule.Op),
			slog.String("metric", rule.Metric))
		return nil
	}

	severity, statusText := Evaluate(value, rule.Critical, rule.Warning, op)

	display := value.Text()
	if value.IsNumber() {
		display = utils.FormatNumber(value.Number())
	}

	result := models.CheckResult{
		Host:     host,
		Service:  ServiceDescription(rule.Description, clusterName, label, r.display),
		Severity: severity,
		Message:  fmt.Sprintf("%s - %s: %s", statusText, rule.Metric, display),
	}

	r.logger.Debug(fmt.Sprintf("%s %s %s %s %s %s %s %s",
		utils.Bold("Host:"), result.Host,
		utils.Bold("Service:"), result.Service,
		utils.Bold("Status:"), result.Severity,
		utils.Bold("Message:"), result.Message))

	metrics.ObserveCheck(severity)
	*results = append(*results, result)

	if r.notifier != nil {
		if err := r.notifier.Send(ctx, result); err != nil {
			return fmt.Errorf("send check result: %w", err)
		}
	}
	return nil
}
