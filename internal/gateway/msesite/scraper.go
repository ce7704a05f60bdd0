// Package msesite scrapes company codes and per-company transaction history
// directly from the exchange website, as an alternative market.Source for
// deployments without the JSON API in front.
package msesite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"berza/internal/logger"
	"berza/internal/market"
)

// Config controls the headless browser and the crawl window.
type Config struct {
	BaseURL     string
	YearsBack   int
	PageTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = "https://www.mse.mk/mk"
	}
	if out.YearsBack <= 0 {
		out.YearsBack = 10
	}
	if out.PageTimeout <= 0 {
		out.PageTimeout = 30 * time.Second
	}
	return out
}

// Source drives a shared headless browser; tabs are created per request.
type Source struct {
	cfg      Config
	allocCtx context.Context
	cancel   context.CancelFunc
}

func New(ctx context.Context, cfg Config) *Source {
	final := cfg.withDefaults()
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	return &Source{cfg: final, allocCtx: allocCtx, cancel: cancel}
}

func (s *Source) Name() string { return "msesite" }

// Close releases the browser allocator.
func (s *Source) Close() error {
	s.cancel()
	return nil
}

const issuerCodesJS = `Array.from(document.querySelectorAll("#Code > option"))
    .map(o => o.textContent.trim())
    .filter(c => c.length > 0 && !/[0-9]/.test(c))`

const firstIssuerJS = `(() => {
    const td = document.querySelector("#otherlisting-table > tbody > tr > td");
    return td ? td.textContent.trim() : "";
})()`

const resultRowsJS = `Array.from(document.querySelectorAll("#resultsTable tbody tr"))
    .map(tr => Array.from(tr.querySelectorAll("td")).map(td => td.textContent.trim()))`

// Companies pulls the issuer code list: the free-market listing names one
// issuer, whose history page carries the full code dropdown. Codes with
// digits are bonds and are skipped, matching the upstream listing rules.
func (s *Source) Companies(ctx context.Context) ([]string, error) {
	var first string
	if err := s.run(ctx, s.cfg.BaseURL+"/issuers/free-market", firstIssuerJS, &first); err != nil {
		return nil, fmt.Errorf("loading issuer listing: %w", err)
	}
	if first == "" {
		return nil, fmt.Errorf("issuer listing is empty")
	}
	var codes []string
	if err := s.run(ctx, s.cfg.BaseURL+"/stats/symbolhistory/"+first, issuerCodesJS, &codes); err != nil {
		return nil, fmt.Errorf("loading code dropdown: %w", err)
	}
	return codes, nil
}

// History walks the symbol history in yearly windows (the site caps a single
// query at one year) and maps table rows onto RawTransaction.
func (s *Source) History(ctx context.Context, company string) ([]market.RawTransaction, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, fmt.Errorf("company is required")
	}
	now := time.Now()
	from := now.AddDate(-s.cfg.YearsBack, 0, 0)
	var out []market.RawTransaction
	for from.Before(now) {
		to := from.AddDate(1, 0, 0)
		url := fmt.Sprintf("%s/stats/symbolhistory/%s?FromDate=%s&ToDate=%s",
			s.cfg.BaseURL, company, from.Format("02.01.2006"), to.Format("02.01.2006"))
		var rows [][]string
		if err := s.run(ctx, url, resultRowsJS, &rows); err != nil {
			return nil, fmt.Errorf("loading history window %s: %w", from.Format("2006"), err)
		}
		for _, cells := range rows {
			raw, ok := rowToRaw(cells)
			if !ok {
				continue
			}
			out = append(out, raw)
		}
		from = to
	}
	logger.Infof("[msesite] %s: %d 行", company, len(out))
	return out, nil
}

// Result table column order: Date, last price, Max, Min, Average Price,
// %change, Quantity, Turnover in BEST, Total turnover. Indicator and signal
// columns only exist on the JSON API side; missing fields normalize to NaN.
func rowToRaw(cells []string) (market.RawTransaction, bool) {
	if len(cells) < 9 {
		return market.RawTransaction{}, false
	}
	return market.RawTransaction{
		Date:             cells[0],
		LastPrice:        cleanNumber(cells[1]),
		Max:              cleanNumber(cells[2]),
		Min:              cleanNumber(cells[3]),
		AveragePrice:     cleanNumber(cells[4]),
		PercentageChange: cleanNumber(cells[5]),
		Quantity:         cleanNumber(cells[6]),
		Turnover:         cleanNumber(cells[7]),
		TotalTurnover:    cleanNumber(cells[8]),
	}, true
}

// cleanNumber strips the site's thousands separators ("1.234,56") so the
// normalizer only ever sees a single decimal separator.
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
	}
	return s
}

func (s *Source) run(ctx context.Context, url, js string, dst any) error {
	tabCtx, cancel := chromedp.NewContext(s.allocCtx)
	defer cancel()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, s.cfg.PageTimeout)
	defer cancelTimeout()
	go func() {
		// 调用方取消时连带关闭标签页
		select {
		case <-ctx.Done():
			cancel()
		case <-tabCtx.Done():
		}
	}()
	logger.Debugf("[msesite] navigate %s", url)
	return chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(js, dst),
	)
}
