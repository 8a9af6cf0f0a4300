package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for mercascan.
type Config struct {
	Process    ProcessConfig    `mapstructure:"process"    yaml:"process"`
	Fetcher    FetcherConfig    `mapstructure:"fetcher"    yaml:"fetcher"`
	Taxonomy   TaxonomyConfig   `mapstructure:"taxonomy"   yaml:"taxonomy"`
	Translator TranslatorConfig `mapstructure:"translator" yaml:"translator"`
	Judge      JudgeConfig      `mapstructure:"judge"      yaml:"judge"`
	Storage    StorageConfig    `mapstructure:"storage"    yaml:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    yaml:"metrics"`
}

// ProcessConfig controls the extraction run.
type ProcessConfig struct {
	InputDir       string        `mapstructure:"input_dir"       yaml:"input_dir"`
	Concurrency    int           `mapstructure:"concurrency"     yaml:"concurrency"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"     yaml:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"     yaml:"retry_delay"`
	UserAgents     []string      `mapstructure:"user_agents"     yaml:"user_agents"`
}

// FetcherConfig controls page downloads.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
}

// TaxonomyConfig points at the category vocabulary.
type TaxonomyConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// TranslatorConfig controls Portuguese→Spanish normalization.
type TranslatorConfig struct {
	Enabled    bool   `mapstructure:"enabled"     yaml:"enabled"`
	Endpoint   string `mapstructure:"endpoint"    yaml:"endpoint"`
	APIKey     string `mapstructure:"api_key"     yaml:"api_key"`
	Source     string `mapstructure:"source"      yaml:"source"`
	Target     string `mapstructure:"target"      yaml:"target"`
	MaxRetries int    `mapstructure:"max_retries" yaml:"max_retries"`
}

// JudgeConfig controls the decision stage.
type JudgeConfig struct {
	Mode         string  `mapstructure:"mode"          yaml:"mode"` // heuristic or llm
	Provider     string  `mapstructure:"provider"      yaml:"provider"`
	Model        string  `mapstructure:"model"         yaml:"model"`
	Endpoint     string  `mapstructure:"endpoint"      yaml:"endpoint"`
	APIKey       string  `mapstructure:"api_key"       yaml:"api_key"`
	Temperature  float64 `mapstructure:"temperature"   yaml:"temperature"`
	DropUnusable bool    `mapstructure:"drop_unusable" yaml:"drop_unusable"`
}

// StorageConfig controls outputs.
type StorageConfig struct {
	Formats         []string `mapstructure:"formats"          yaml:"formats"` // csv, jsonl, text, mongodb
	OutputDir       string   `mapstructure:"output_dir"       yaml:"output_dir"`
	MongoURI        string   `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string   `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string   `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Process: ProcessConfig{
			InputDir:       "./htmls",
			Concurrency:    8,
			RequestTimeout: 30 * time.Second,
			MaxRetries:     3,
			RetryDelay:     2 * time.Second,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
		},
		Translator: TranslatorConfig{
			Enabled:    false,
			Source:     "pt",
			Target:     "es",
			MaxRetries: 3,
		},
		Judge: JudgeConfig{
			Mode:        "heuristic",
			Provider:    "ollama",
			Model:       "llama3",
			Temperature: 0.1,
		},
		Storage: StorageConfig{
			Formats:         []string{"csv"},
			OutputDir:       "./output",
			MongoDatabase:   "mercascan",
			MongoCollection: "records",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
