package store

import (
	"context"
	"errors"
	"sync"

	"berza/internal/market"
)

// HistoryStore 抽象：按公司读写规范化后的成交历史快照。
type HistoryStore interface {
	// Put 整体替换该公司的历史序列。
	Put(ctx context.Context, company string, txs []market.Transaction) error
	// Get 返回该公司历史的拷贝；未知公司返回空序列。
	Get(ctx context.Context, company string) ([]market.Transaction, error)
	// Companies 返回已缓存的公司代码（无序）。
	Companies(ctx context.Context) ([]string, error)
}

// MemoryHistoryStore 内存实现。
type MemoryHistoryStore struct {
	mu   sync.RWMutex
	data map[string][]market.Transaction
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{data: make(map[string][]market.Transaction)}
}

// Put 全量替换指定公司的序列
func (s *MemoryHistoryStore) Put(ctx context.Context, company string, txs []market.Transaction) error {
	if company == "" {
		return errors.New("company 不能为空")
	}
	dst := make([]market.Transaction, len(txs))
	copy(dst, txs)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[company] = dst
	return nil
}

// Get 返回拷贝
func (s *MemoryHistoryStore) Get(ctx context.Context, company string) ([]market.Transaction, error) {
	if company == "" {
		return nil, errors.New("company 不能为空")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur := s.data[company]
	out := make([]market.Transaction, len(cur))
	copy(out, cur)
	return out, nil
}

func (s *MemoryHistoryStore) Companies(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for c := range s.data {
		out = append(out, c)
	}
	return out, nil
}
