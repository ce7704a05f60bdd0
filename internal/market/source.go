package market

import "context"

// Source 统一对接公司与成交历史的数据提供方。
type Source interface {
	// Companies 返回可选公司代码列表。
	Companies(ctx context.Context) ([]string, error)
	// History 拉取指定公司的全部原始成交记录（顺序不保证）。
	History(ctx context.Context, company string) ([]RawTransaction, error)
	// Name 返回数据源名称（用于日志）。
	Name() string
}
