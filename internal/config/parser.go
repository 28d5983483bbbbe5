package config

import (
	"encoding/json"
	"path/filepath"
)

func ParseConfig(byteConfig []byte) (*Config, error) {
	var cfg Config
	err := json.Unmarshal(byteConfig, &cfg)
	if err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	absPath, err := filepath.Abs(cfg.Spider.OutputDir)
	if err != nil {
		return nil, err
	}
	cfg.Spider.OutputDir = absPath
	return &cfg, nil
}

// applyDefaults 填充未配置的字段,保证零值配置也能跑起来
func applyDefaults(cfg *Config) {
	if cfg.Chrome.Host == "" {
		cfg.Chrome.Host = "127.0.0.1"
	}
	if cfg.Chrome.Port == 0 {
		cfg.Chrome.Port = 9222
	}
	if cfg.Chrome.ConnectTimeoutSeconds == 0 {
		cfg.Chrome.ConnectTimeoutSeconds = 5
	}
	if cfg.Chrome.CallTimeoutSeconds == 0 {
		cfg.Chrome.CallTimeoutSeconds = 30
	}
	if cfg.Spider.OutputDir == "" {
		cfg.Spider.OutputDir = "spider_exports"
	}
	if cfg.Spider.ScrollTimes == 0 {
		cfg.Spider.ScrollTimes = 50
	}
	if cfg.Spider.ScrollDelaySeconds == 0 {
		cfg.Spider.ScrollDelaySeconds = 2.0
	}
	if cfg.Spider.ExpandDelaySeconds == 0 {
		cfg.Spider.ExpandDelaySeconds = 1.0
	}
	if cfg.Spider.EmptyRoundThreshold == 0 {
		cfg.Spider.EmptyRoundThreshold = 2
	}
	if cfg.Spider.RetryBackoffMillis == 0 {
		cfg.Spider.RetryBackoffMillis = 500
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 5
	}
}
