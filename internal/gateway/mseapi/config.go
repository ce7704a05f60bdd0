package mseapi

import "time"

// Config 描述 API 数据源运行所需的参数。
type Config struct {
	BaseURL     string
	HTTPTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = "http://localhost:8080"
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	return out
}
