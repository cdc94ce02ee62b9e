package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/opsgrid/cbcheck/internal/config"
	"github.com/opsgrid/cbcheck/internal/models"
	"github.com/opsgrid/cbcheck/internal/notify"
)

type fakeSource struct {
	pools       models.PoolsResponse
	tasks       []models.Task
	bucketNames []string
	bucketStats map[string]models.SampleSet
	queryStats  models.SampleSet
	replStats   map[string]map[string][]float64
}

func (f *fakeSource) FetchPools(context.Context) (models.PoolsResponse, error) {
	return f.pools, nil
}

func (f *fakeSource) FetchTasks(context.Context) ([]models.Task, error) {
	return f.tasks, nil
}

func (f *fakeSource) FetchBucketNames(context.Context, string) ([]string, error) {
	return f.bucketNames, nil
}

func (f *fakeSource) FetchBucketStats(_ context.Context, _ string, bucket string) (models.SampleSet, error) {
	stats, ok := f.bucketStats[bucket]
	if !ok {
		return nil, fmt.Errorf("no stats for bucket %s", bucket)
	}
	return stats, nil
}

func (f *fakeSource) FetchQueryStats(context.Context, string) (models.SampleSet, error) {
	return f.queryStats, nil
}

func (f *fakeSource) FetchReplicationStats(_ context.Context, _, _, _ string, metric string) (map[string][]float64, error) {
	stats, ok := f.replStats[metric]
	if !ok {
		return nil, fmt.Errorf("no replication stats for %s", metric)
	}
	return stats, nil
}

func snapshotSource(t *testing.T) *fakeSource {
	t.Helper()

	const topology = `{
		"clusterName": "prod",
		"nodes": [
			{
				"hostname": "cb1.example.com:8091",
				"services": ["kv", "n1ql"],
				"thisNode": true,
				"status": "healthy",
				"clusterMembership": "active"
			},
			{
				"hostname": "cb2.example.com:8091",
				"services": ["kv"],
				"thisNode": false,
				"status": "healthy",
				"clusterMembership": "active"
			}
		]
	}`

	var pools models.PoolsResponse
	if err := json.Unmarshal([]byte(topology), &pools); err != nil {
		t.Fatalf("unmarshal topology fixture: %v", err)
	}

	return &fakeSource{
		pools: pools,
		tasks: []models.Task{
			{Type: "xdcr", ID: "3aab57f2/beer-sample/backup", Status: "running", Source: "beer-sample"},
		},
		bucketNames: []string{"beer-sample"},
		bucketStats: map[string]models.SampleSet{
			"beer-sample": {
				"curr_connections": models.SeriesSamples(95, 95),
				"ep_queue_size":    models.SeriesSamples(2, 4),
				"ep_flusher_todo":  models.SeriesSamples(1, 1),
			},
		},
		queryStats: models.SampleSet{
			"request_timer.95%": models.ScalarSamples(models.NumberValue(2e9)),
		},
		replStats: map[string]map[string][]float64{
			"changes_left": {"cb1.example.com:8091": {120, 130}},
		},
	}
}

func snapshotConfig() *config.Config {
	return &config.Config{
		ServicePrefix:             "CB",
		ServiceIncludeClusterName: true,
		ServiceIncludeLabel:       true,
		Node: []models.MetricRule{
			{Metric: "clusterMembership", Description: "Cluster Membership", Op: "=", Critical: models.TextualThreshold("inactiveFailed")},
		},
		Data: []config.BucketRules{
			{Bucket: "beer-sample", Metrics: []models.MetricRule{
				{Metric: "curr_connections", Description: "Connections", Op: ">=", Critical: models.NumericThreshold(90)},
				{Metric: "disk_write_queue", Description: "Disk Write Queue", Op: ">=", Warning: models.NumericThreshold(10)},
			}},
		},
		Query: []models.MetricRule{
			{Metric: "request_timer.95%", Description: "Query Latency", Op: ">=", Critical: models.NumericThreshold(1000)},
		},
		XDCR: []models.MetricRule{
			{Metric: "status", Description: "Replication Status", Op: "=", Critical: models.TextualThreshold("notRunning")},
			{Metric: "changes_left", Description: "Replication Backlog", Op: ">=", Warning: models.NumericThreshold(100)},
		},
	}
}

func findResult(t *testing.T, results []models.CheckResult, service string) models.CheckResult {
	t.Helper()
	for _, res := range results {
		if res.Service == service {
			return res
		}
	}
	t.Fatalf("no result for service %q in %+v", service, results)
	return models.CheckResult{}
}

func TestRunnerFullPass(t *testing.T) {
	source := snapshotSource(t)
	recorder := &notify.Recorder{}
	runner := NewRunner(discardLogger(), source, recorder, snapshotConfig())

	results, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d: %+v", len(results), results)
	}
	if !reflect.DeepEqual(recorder.Results, results) {
		t.Fatalf("recorder diverged from returned results")
	}

	node := findResult(t, results, "CB prod node - Cluster Membership")
	if node.Severity != models.SeverityOK {
		t.Fatalf("node severity = %v, want OK", node.Severity)
	}
	if node.Host != "cb1.example.com" {
		t.Fatalf("node host = %q, want port stripped", node.Host)
	}
	if node.Message != "OK - clusterMembership: active" {
		t.Fatalf("node message = %q", node.Message)
	}

	conns := findResult(t, results, "CB prod beer-sample - Connections")
	if conns.Severity != models.SeverityCritical {
		t.Fatalf("connections severity = %v, want CRITICAL", conns.Severity)
	}
	if !strings.Contains(conns.Message, "CRITICAL") || !strings.Contains(conns.Message, "curr_connections") {
		t.Fatalf("connections message = %q", conns.Message)
	}
	if !strings.Contains(conns.Message, "95") {
		t.Fatalf("connections message missing value: %q", conns.Message)
	}

	queue := findResult(t, results, "CB prod beer-sample - Disk Write Queue")
	if queue.Severity != models.SeverityOK {
		t.Fatalf("disk write queue severity = %v, want OK", queue.Severity)
	}
	if queue.Message != "OK - disk_write_queue: 4" {
		t.Fatalf("disk write queue message = %q", queue.Message)
	}

	status := findResult(t, results, "CB prod xdcr beer-sample/backup - Replication Status")
	if status.Severity != models.SeverityOK {
		t.Fatalf("replication status severity = %v, want OK", status.Severity)
	}

	backlog := findResult(t, results, "CB prod xdcr beer-sample/backup - Replication Backlog")
	if backlog.Severity != models.SeverityWarning {
		t.Fatalf("backlog severity = %v, want WARNING", backlog.Severity)
	}
	if !strings.Contains(backlog.Message, "125") {
		t.Fatalf("backlog message = %q, want averaged 125", backlog.Message)
	}

	latency := findResult(t, results, "CB prod query - Query Latency")
	if latency.Severity != models.SeverityCritical {
		t.Fatalf("query latency severity = %v, want CRITICAL", latency.Severity)
	}
	if latency.Message != "CRITICAL - request_timer.95%: 2000" {
		t.Fatalf("query latency message = %q, want milliseconds", latency.Message)
	}
}

func TestRunnerIdempotentOverFixedSnapshot(t *testing.T) {
	source := snapshotSource(t)
	runner := NewRunner(discardLogger(), source, &notify.Recorder{}, snapshotConfig())

	first, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("runs over the same snapshot diverge:\n%+v\n%+v", first, second)
	}
}

func TestRunnerAllNodes(t *testing.T) {
	source := snapshotSource(t)
	cfg := snapshotConfig()
	cfg.Query = nil
	cfg.XDCR = nil

	runner := NewRunner(discardLogger(), source, &notify.Recorder{}, cfg)
	results, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Only cb1 is thisNode: one node check plus two bucket checks.
	if len(results) != 3 {
		t.Fatalf("expected 3 results without all-nodes, got %d", len(results))
	}

	cfg.AllNodes = true
	results, err = runner.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// cb2 adds its own node check and bucket pass.
	if len(results) != 6 {
		t.Fatalf("expected 6 results with all-nodes, got %d", len(results))
	}
	if findResult(t, results, "CB prod node - Cluster Membership").Host != "cb1.example.com" {
		t.Fatalf("expected cb1 result first")
	}
}

func TestRunnerWildcardBucket(t *testing.T) {
	source := snapshotSource(t)
	source.bucketNames = []string{"beer-sample", "travel-sample"}
	source.bucketStats["travel-sample"] = models.SampleSet{
		"curr_connections": models.SeriesSamples(10),
		"ep_queue_size":    models.SeriesSamples(0),
		"ep_flusher_todo":  models.SeriesSamples(0),
	}

	cfg := snapshotConfig()
	cfg.Query = nil
	cfg.XDCR = nil
	cfg.Data = []config.BucketRules{
		{Bucket: AllBuckets, Metrics: cfg.Data[0].Metrics},
	}

	runner := NewRunner(discardLogger(), source, &notify.Recorder{}, cfg)
	results, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One node check, then two rules for each enumerated bucket.
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d: %+v", len(results), results)
	}
	findResult(t, results, "CB prod travel-sample - Connections")
}

func TestRunnerEmptyReplicationSeriesAbortsTask(t *testing.T) {
	source := snapshotSource(t)
	source.replStats["changes_left"] = map[string][]float64{"cb1.example.com:8091": {}}

	runner := NewRunner(discardLogger(), source, &notify.Recorder{}, snapshotConfig())
	results, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("an empty series must not abort the run: %v", err)
	}

	// The status rule still emitted; the backlog rule was dropped.
	findResult(t, results, "CB prod xdcr beer-sample/backup - Replication Status")
	for _, res := range results {
		if strings.Contains(res.Service, "Replication Backlog") {
			t.Fatalf("backlog rule should have been aborted: %+v", res)
		}
	}
}

func TestRunnerNotifierFailureIsFatal(t *testing.T) {
	source := snapshotSource(t)
	runner := NewRunner(discardLogger(), source, failingNotifier{}, snapshotConfig())

	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("expected notifier failure to abort the run")
	}
}

type failingNotifier struct{}

func (failingNotifier) Send(context.Context, models.CheckResult) error {
	return errors.New("receiver unreachable")
}
