package mseapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"berza/internal/logger"
	"berza/internal/market"
)

// Source 实现 market.Source，对接公司/成交历史 JSON API。
type Source struct {
	cfg        Config
	httpClient *http.Client
}

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	return &Source{
		cfg:        final,
		httpClient: &http.Client{Timeout: final.HTTPTimeout},
	}
}

func (s *Source) Name() string { return "mseapi" }

// Companies 调用 GET /api/companies。
func (s *Source) Companies(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.getJSON(ctx, "/api/companies", &out); err != nil {
		return nil, err
	}
	// 空白与重复公司代码在边界处清掉，下游不再关心
	seen := make(map[string]struct{}, len(out))
	cleaned := make([]string, 0, len(out))
	for _, c := range out {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		cleaned = append(cleaned, c)
	}
	return cleaned, nil
}

// History 调用 GET /api/transactions/{company}，顺序原样返回。
func (s *Source) History(ctx context.Context, company string) ([]market.RawTransaction, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, fmt.Errorf("company is required")
	}
	var out []market.RawTransaction
	if err := s.getJSON(ctx, "/api/transactions/"+url.PathEscape(company), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Source) getJSON(ctx context.Context, path string, dst any) error {
	u := strings.TrimRight(s.cfg.BaseURL, "/") + path
	logger.Debugf("[mseapi] GET %s", u)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("mseapi error: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
