package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is the hard configuration error raised before any network
// call when the upstream credential is absent.
var ErrMissingAPIKey = errors.New("missing upstream API key")

// UpstreamConfig locates the chat/embedding provider. The credential is never
// stored in the file; only the name of the environment variable holding it is.
type UpstreamConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// CorpusConfig describes the documentation tree the index is built from.
type CorpusConfig struct {
	Root          string   `yaml:"root"`
	PublishDir    string   `yaml:"publish_dir"`
	OutputFile    string   `yaml:"output_file"`
	MinSegmentLen int      `yaml:"min_segment_len"`
	Exclude       []string `yaml:"exclude,omitempty"`
}

// EmbeddingConfig configures the batch embeddings client.
type EmbeddingConfig struct {
	Model       string `yaml:"model"`
	BatchSize   int    `yaml:"batch_size"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ProxyConfig configures the credential-hiding edge proxy.
type ProxyConfig struct {
	Addr string `yaml:"addr"`
	// DevRewrite scrubs Referer/Origin on upstream-bound requests so a
	// development origin does not trip edge firewalls at the provider.
	DevRewrite bool `yaml:"dev_rewrite"`
}

// AskConfig configures the streaming ask client.
type AskConfig struct {
	ProxyURL string `yaml:"proxy_url"`
	Model    string `yaml:"model"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Proxy     ProxyConfig     `yaml:"proxy"`
	Ask       AskConfig       `yaml:"ask"`
}

// Load reads a config from path. If the file does not exist, returns defaults.
// Environment variables MS_BASE_URL and MS_EMBED_MODEL override the file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &AppConfig{}
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// APIKey resolves the upstream credential from the configured environment
// variable. A missing or empty value is a hard configuration error.
func (c *AppConfig) APIKey() (string, error) {
	key := os.Getenv(c.Upstream.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%w: set %s", ErrMissingAPIKey, c.Upstream.APIKeyEnv)
	}
	return key, nil
}

func applyDefaults(cfg *AppConfig) {
	if v := os.Getenv("MS_BASE_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = "https://api.missionsquad.ai"
	}
	if cfg.Upstream.APIKeyEnv == "" {
		cfg.Upstream.APIKeyEnv = "MS_API_KEY"
	}
	if cfg.Corpus.Root == "" {
		cfg.Corpus.Root = "."
	}
	if cfg.Corpus.PublishDir == "" {
		cfg.Corpus.PublishDir = "public"
	}
	if cfg.Corpus.OutputFile == "" {
		cfg.Corpus.OutputFile = "search-index.json"
	}
	if cfg.Corpus.MinSegmentLen == 0 {
		cfg.Corpus.MinSegmentLen = 10
	}
	if cfg.Corpus.Exclude == nil {
		cfg.Corpus.Exclude = []string{"node_modules", ".vitepress"}
	}
	if v := os.Getenv("MS_EMBED_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 64
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = 60
	}
	if cfg.Proxy.Addr == "" {
		cfg.Proxy.Addr = ":8787"
	}
	if cfg.Ask.ProxyURL == "" {
		cfg.Ask.ProxyURL = "http://localhost:8787"
	}
	if cfg.Ask.Model == "" {
		cfg.Ask.Model = "docs-agent"
	}
}
