package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opsgrid/cbcheck/internal/models"
)

// Config captures the fully-resolved settings for one check run. It is
// constructed once by Load and treated as immutable afterwards.
type Config struct {
	CouchbaseHost      string `yaml:"couchbase_host"`
	CouchbaseAdminPort int    `yaml:"couchbase_admin_port"`
	CouchbaseQueryPort int    `yaml:"couchbase_query_port"`
	CouchbaseSSL       bool   `yaml:"couchbase_ssl"`
	CouchbaseUser      string `yaml:"couchbase_user"`
	CouchbasePassword  string `yaml:"couchbase_password"`

	MonitorType string `yaml:"monitor_type"`
	MonitorHost string `yaml:"monitor_host"`
	MonitorPort int    `yaml:"monitor_port"`
	NSCAPath    string `yaml:"nsca_path"`

	ServicePrefix             string `yaml:"service_prefix"`
	ServiceIncludeClusterName bool   `yaml:"service_include_cluster_name"`
	ServiceIncludeLabel       bool   `yaml:"service_include_label"`

	AllNodes     bool `yaml:"all_nodes"`
	SendMetrics  bool `yaml:"send_metrics"`
	DumpServices bool `yaml:"dump_services"`

	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`

	Node  []models.MetricRule `yaml:"node"`
	Data  []BucketRules       `yaml:"data"`
	Query []models.MetricRule `yaml:"query"`
	XDCR  []models.MetricRule `yaml:"xdcr"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig controls the optional end-of-run Pushgateway push.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// BucketRules binds a rule list to one data bucket. The bucket name "_all"
// expands at run time to every bucket present in the cluster.
type BucketRules struct {
	Bucket  string              `yaml:"bucket"`
	Metrics []models.MetricRule `yaml:"metrics"`
}

// Load initialises Config from a YAML file, environment overrides, and
// schema defaults, then validates the result. Any failure here is
// unrecoverable for the run.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s not found: %w", path, err)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(path); err != nil {
		return nil, err
	}

	applyRuleDefaults(cfg.Node, "=")
	for i := range cfg.Data {
		applyRuleDefaults(cfg.Data[i].Metrics, ">=")
	}
	applyRuleDefaults(cfg.Query, ">=")
	applyRuleDefaults(cfg.XDCR, ">=")

	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		CouchbaseHost:      "localhost",
		CouchbaseAdminPort: 18091,
		CouchbaseQueryPort: 18093,
		CouchbaseSSL:       true,
		NSCAPath:           "/sbin/send_nsca",
		SendMetrics:        true,
		Logging:            LoggingConfig{Level: "info", JSON: false},
		Metrics:            MetricsConfig{Job: "cbcheck"},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CBCHECK_COUCHBASE_HOST"); v != "" {
		cfg.CouchbaseHost = v
	}
	if v := os.Getenv("CBCHECK_COUCHBASE_USER"); v != "" {
		cfg.CouchbaseUser = v
	}
	if v := os.Getenv("CBCHECK_COUCHBASE_PASSWORD"); v != "" {
		cfg.CouchbasePassword = v
	}
	if v := os.Getenv("CBCHECK_MONITOR_HOST"); v != "" {
		cfg.MonitorHost = v
	}
	if v := os.Getenv("CBCHECK_MONITOR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MonitorPort = port
		}
	}
	if v := os.Getenv("CBCHECK_NSCA_PATH"); v != "" {
		cfg.NSCAPath = v
	}
	if v := os.Getenv("CBCHECK_PUSHGATEWAY_URL"); v != "" {
		cfg.Metrics.PushgatewayURL = v
	}
	if v := os.Getenv("CBCHECK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CBCHECK_LOG_FORMAT"); strings.EqualFold(v, "json") {
		cfg.Logging.JSON = true
	}
}

func (c *Config) validate(path string) error {
	required := []struct {
		name string
		set  bool
	}{
		{"couchbase_user", c.CouchbaseUser != ""},
		{"couchbase_password", c.CouchbasePassword != ""},
		{"monitor_type", c.MonitorType != ""},
		{"monitor_host", c.MonitorHost != ""},
		{"monitor_port", c.MonitorPort != 0},
		{"node", len(c.Node) > 0},
		{"data", len(c.Data) > 0},
	}
	for _, item := range required {
		if !item.set {
			return fmt.Errorf("%s is not set in %s", item.name, path)
		}
	}

	for _, item := range c.Data {
		if item.Bucket == "" {
			return fmt.Errorf("bucket name is not set in %s", path)
		}
		if len(item.Metrics) == 0 {
			return fmt.Errorf("metrics are not set for bucket %s in %s", item.Bucket, path)
		}
	}

	return nil
}

// applyRuleDefaults fills missing operators in place. Node rules default to
// equality because node metrics are categorical; everything else defaults
// to ">=".
func applyRuleDefaults(rules []models.MetricRule, defaultOp string) {
	for i := range rules {
		if rules[i].Op == "" {
			rules[i].Op = defaultOp
		}
	}
}
