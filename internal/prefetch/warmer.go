package prefetch

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"berza/internal/logger"
	"berza/internal/market"
	"berza/internal/store"
)

// Warmer 批量预热：把全部公司的历史拉取、规范化后写入本地缓存。
// 单个公司失败只计数不中断，整体照常完成。
type Warmer struct {
	source  market.Source
	cache   store.HistoryStore
	workers int
}

// Report 一次预热的汇总。
type Report struct {
	Companies int
	Records   int
	Skipped   int
	Failed    []string
}

func NewWarmer(source market.Source, cache store.HistoryStore, workers int) (*Warmer, error) {
	if source == nil || cache == nil {
		return nil, errors.New("source/cache 不能为空")
	}
	if workers <= 0 {
		workers = 10
	}
	return &Warmer{source: source, cache: cache, workers: workers}, nil
}

// Run 并发预热所有公司，并发度受 workers 限制。
func (w *Warmer) Run(ctx context.Context) (Report, error) {
	companies, err := w.source.Companies(ctx)
	if err != nil {
		return Report{}, err
	}
	var (
		mu  sync.Mutex
		rep = Report{Companies: len(companies)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for _, company := range companies {
		company := company
		g.Go(func() error {
			raws, err := w.source.History(gctx, company)
			if err != nil {
				logger.Warnf("[prefetch] %s 拉取失败: %v", company, err)
				mu.Lock()
				rep.Failed = append(rep.Failed, company)
				mu.Unlock()
				return nil
			}
			txs, skipped := market.NormalizeAll(raws)
			sorted := market.SortByDate(txs)
			if err := w.cache.Put(gctx, company, sorted); err != nil {
				logger.Warnf("[prefetch] %s 写缓存失败: %v", company, err)
				mu.Lock()
				rep.Failed = append(rep.Failed, company)
				mu.Unlock()
				return nil
			}
			mu.Lock()
			rep.Records += len(sorted)
			rep.Skipped += skipped
			mu.Unlock()
			logger.Infof("[prefetch] %s: %d 条 (跳过 %d)", company, len(sorted), skipped)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, err
	}
	return rep, nil
}
