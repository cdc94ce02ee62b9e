package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opsgrid/cbcheck/internal/models"
)

// queryLatencyMetrics are reported by the query engine in nanoseconds and
// compared in milliseconds.
var queryLatencyMetrics = map[string]struct{}{
	"request_timer.75%": {},
	"request_timer.95%": {},
	"request_timer.99%": {},
}

// processNode evaluates node rules against the node's own topology document;
// no extra request is needed. Node metrics are categorical, so values are
// stringified and the default operator is equality.
func (r *Runner) processNode(ctx context.Context, host string, node models.NodeInfo, clusterName string, results *[]models.CheckResult) error {
	samples := node.Samples()
	for _, rule := range r.cfg.Node {
		if !ValidateRule(rule, samples, r.logger) {
			continue
		}
		value, err := SampleValue(samples[rule.Metric])
		if err != nil {
			r.logger.Warn("skipped: unreadable node metric",
				slog.String("metric", rule.Metric), slog.Any("error", err))
			continue
		}
		if err := r.emit(ctx, host, clusterName, "node", rule, value, results); err != nil {
			return err
		}
	}
	return nil
}

// processBucket fetches one bucket's stats window and evaluates the
// configured rules against it. Derived metrics are computed by formula and
// bypass sample-set validation, mirroring their composite nature.
func (r *Runner) processBucket(ctx context.Context, host, bucket string, rules []models.MetricRule, clusterName string, results *[]models.CheckResult) error {
	samples, err := r.source.FetchBucketStats(ctx, host, bucket)
	if err != nil {
		return fmt.Errorf("fetch stats for bucket %s: %w", bucket, err)
	}

	for _, rule := range rules {
		var value models.Value
		if IsDerivedBucketMetric(rule.Metric) {
			value, err = DerivedBucketValue(rule.Metric, samples)
			if err != nil {
				r.logger.Warn("skipped: derived metric",
					slog.String("metric", rule.Metric),
					slog.String("bucket", bucket),
					slog.Any("error", err))
				continue
			}
		} else {
			if !ValidateRule(rule, samples, r.logger) {
				continue
			}
			value, err = SampleValue(samples[rule.Metric])
			if err != nil {
				r.logger.Warn("skipped: unreadable bucket metric",
					slog.String("metric", rule.Metric),
					slog.String("bucket", bucket),
					slog.Any("error", err))
				continue
			}
		}
		if err := r.emit(ctx, host, clusterName, bucket, rule, value, results); err != nil {
			return err
		}
	}
	return nil
}

// processQuery evaluates query-engine rules. The node advertises the query
// service, so a missing rule list is worth a diagnostic but nothing more.
func (r *Runner) processQuery(ctx context.Context, host, clusterName string, results *[]models.CheckResult) error {
	if len(r.cfg.Query) == 0 {
		r.logger.Warn("query service is running but no metrics are configured")
		return nil
	}

	samples, err := r.source.FetchQueryStats(ctx, host)
	if err != nil {
		return fmt.Errorf("fetch query stats: %w", err)
	}

	for _, rule := range r.cfg.Query {
		if !ValidateRule(rule, samples, r.logger) {
			continue
		}
		value, err := SampleValue(samples[rule.Metric])
		if err != nil {
			r.logger.Warn("skipped: unreadable query metric",
				slog.String("metric", rule.Metric), slog.Any("error", err))
			continue
		}
		if _, isLatency := queryLatencyMetrics[rule.Metric]; isLatency && value.IsNumber() {
			value = models.NumberValue(value.Number() / 1000 / 1000)
		}
		if err := r.emit(ctx, host, clusterName, "query", rule, value, results); err != nil {
			return err
		}
	}
	return nil
}

// processReplications walks the running replication tasks. A status rule
// emits the task's lifecycle state directly; any other rule only applies to
// running or paused tasks and reads the per-node statistic series for this
// host. An empty series aborts the remaining rules for that task only.
func (r *Runner) processReplications(ctx context.Context, host string, cluster models.ClusterContext, results *[]models.CheckResult) error {
	for _, task := range cluster.Tasks {
		if task.Type != "xdcr" {
			continue
		}
		if len(r.cfg.XDCR) == 0 {
			r.logger.Warn("xdcr is running but no metrics are configured")
			return nil
		}

		label := task.ReplicationLabel()

	rules:
		for _, rule := range r.cfg.XDCR {
			if rule.Description == "" {
				r.logger.Warn("skipped: service description is not set",
					slog.String("metric", rule.Metric))
				continue
			}

			if rule.Metric == "status" {
				if err := r.emit(ctx, host, cluster.ClusterName, label, rule, models.StringValue(task.Status), results); err != nil {
					return err
				}
				continue
			}

			if task.Status != "running" && task.Status != "paused" {
				continue
			}

			stats, err := r.source.FetchReplicationStats(ctx, host, task.Source, task.ID, rule.Metric)
			if err != nil {
				return fmt.Errorf("fetch replication stats for %s: %w", task.ID, err)
			}

			for nodeKey, series := range stats {
				nodeHost, _, _ := strings.Cut(nodeKey, ":")
				if nodeHost != host {
					continue
				}
				if len(series) == 0 {
					r.logger.Error("invalid replication metric",
						slog.String("metric", rule.Metric),
						slog.String("task", task.ID))
					break rules
				}
				mean, err := Average(series)
				if err != nil {
					return err
				}
				if err := r.emit(ctx, host, cluster.ClusterName, label, rule, models.NumberValue(mean), results); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
