package repo

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v5"

	"github.com/opsgrid/cbcheck/internal/metrics"
	"github.com/opsgrid/cbcheck/internal/models"
)

// Config holds connection settings for the Couchbase administrative API.
type Config struct {
	Host      string
	AdminPort int
	QueryPort int
	UseTLS    bool
	User      string
	Password  string
	Timeout   time.Duration
	Attempts  uint
}

// Client issues authenticated GET requests against a Couchbase cluster's
// admin and query REST endpoints.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a client for the configured cluster.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.UseTLS {
		// Couchbase ships self-signed certificates by default.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// FetchPools retrieves the cluster topology document.
func (c *Client) FetchPools(ctx context.Context) (models.PoolsResponse, error) {
	var out models.PoolsResponse
	err := c.get(ctx, c.cfg.Host, c.cfg.AdminPort, "/pools/default", &out)
	return out, err
}

// FetchTasks retrieves the cluster task list, including replication tasks.
func (c *Client) FetchTasks(ctx context.Context) ([]models.Task, error) {
	var out []models.Task
	err := c.get(ctx, c.cfg.Host, c.cfg.AdminPort, "/pools/default/tasks", &out)
	return out, err
}

// FetchBucketNames enumerates the buckets currently present on the cluster.
func (c *Client) FetchBucketNames(ctx context.Context, host string) ([]string, error) {
	var buckets []models.BucketInfo
	if err := c.get(ctx, host, c.cfg.AdminPort, "/pools/default/buckets?skipMap=true", &buckets); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(buckets))
	for _, b := range buckets {
		names = append(names, b.Name)
	}
	return names, nil
}

// FetchBucketStats retrieves the operational statistics window for a bucket.
func (c *Client) FetchBucketStats(ctx context.Context, host, bucket string) (models.SampleSet, error) {
	var out struct {
		Op struct {
			Samples map[string]json.RawMessage `json:"samples"`
		} `json:"op"`
	}
	uri := "/pools/default/buckets/" + url.PathEscape(bucket) + "/stats"
	if err := c.get(ctx, host, c.cfg.AdminPort, uri, &out); err != nil {
		return nil, err
	}
	return sampleSetFromRaw(out.Op.Samples), nil
}

// FetchQueryStats retrieves query-engine statistics from the query port.
func (c *Client) FetchQueryStats(ctx context.Context, host string) (models.SampleSet, error) {
	var raw map[string]json.RawMessage
	if err := c.get(ctx, host, c.cfg.QueryPort, "/admin/stats", &raw); err != nil {
		return nil, err
	}
	return sampleSetFromRaw(raw), nil
}

// FetchReplicationStats retrieves the per-node statistic series for one
// replication task metric. The replication endpoint segment must be fully
// URL-encoded, slashes included.
func (c *Client) FetchReplicationStats(ctx context.Context, host, sourceBucket, taskID, metric string) (map[string][]float64, error) {
	var out struct {
		NodeStats map[string][]float64 `json:"nodeStats"`
	}
	endpoint := url.QueryEscape("replications/" + taskID + "/" + metric)
	uri := "/pools/default/buckets/" + url.PathEscape(sourceBucket) + "/stats/" + endpoint
	if err := c.get(ctx, host, c.cfg.AdminPort, uri, &out); err != nil {
		return nil, err
	}
	return out.NodeStats, nil
}

// get performs an authenticated GET with bounded retries. Transport errors
// and 5xx responses are retried; anything the server answered conclusively
// is not.
func (c *Client) get(ctx context.Context, host string, port int, uri string, out any) error {
	scheme := "http"
	if c.cfg.UseTLS {
		scheme = "https"
	}
	endpoint := fmt.Sprintf("%s://%s:%d%s", scheme, host, port, uri)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", endpoint, err)
	}
	req.SetBasicAuth(c.cfg.User, c.cfg.Password)

	var body []byte
	var statusCode int
	var status string

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(c.cfg.Attempts),
		retry.DelayType(retry.BackOffDelay),
	)
	err = r.Do(func() error {
		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return doErr
		}
		defer resp.Body.Close()

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return readErr
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return &StatusError{URL: endpoint, StatusCode: resp.StatusCode, Status: resp.Status}
		}

		body, statusCode, status = data, resp.StatusCode, resp.Status
		return nil
	})
	if err != nil {
		metrics.ObserveFetch(metrics.OutcomeError)
		return fmt.Errorf("request %s: %w", endpoint, err)
	}

	if statusCode == http.StatusForbidden {
		metrics.ObserveFetch(metrics.OutcomeError)
		perm := &PermissionError{URL: endpoint}
		var payload struct {
			Message     string   `json:"message"`
			Permissions []string `json:"permissions"`
		}
		if jsonErr := json.Unmarshal(body, &payload); jsonErr == nil {
			perm.Message = payload.Message
			perm.Permissions = payload.Permissions
		}
		return perm
	}
	if statusCode != http.StatusOK {
		metrics.ObserveFetch(metrics.OutcomeError)
		return &StatusError{URL: endpoint, StatusCode: statusCode, Status: status}
	}

	metrics.ObserveFetch(metrics.OutcomeSuccess)
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// sampleSetFromRaw converts a raw stats document into a SampleSet: numeric
// arrays become series, scalars stay scalar, and nested structures are not
// addressable by rules.
func sampleSetFromRaw(raw map[string]json.RawMessage) models.SampleSet {
	set := make(models.SampleSet, len(raw))
	for name, rawVal := range raw {
		var series []float64
		if err := json.Unmarshal(rawVal, &series); err == nil {
			set[name] = models.SeriesSamples(series...)
			continue
		}
		var num float64
		if err := json.Unmarshal(rawVal, &num); err == nil {
			set[name] = models.ScalarSamples(models.NumberValue(num))
			continue
		}
		var text string
		if err := json.Unmarshal(rawVal, &text); err == nil {
			set[name] = models.ScalarSamples(models.StringValue(text))
		}
	}
	return set
}
