package market

import (
	"math"

	"github.com/shopspring/decimal"
)

// Summary 当前视图的聚合统计，用于表格页脚与 /api/summary。
type Summary struct {
	Records       int
	TotalQuantity decimal.Decimal
	TotalTurnover decimal.Decimal
	AveragePrice  decimal.Decimal
	Buys          int
	Sells         int
}

// Summarize 对过滤后的序列做精确聚合。NaN 字段跳过不计，
// 用 decimal 累加避免长序列下的浮点漂移。
func Summarize(txs []Transaction) Summary {
	s := Summary{Records: len(txs)}
	priceSum := decimal.Zero
	priced := 0
	for _, tx := range txs {
		if !math.IsNaN(tx.Quantity) {
			s.TotalQuantity = s.TotalQuantity.Add(decimal.NewFromFloat(tx.Quantity))
		}
		if !math.IsNaN(tx.Turnover) {
			s.TotalTurnover = s.TotalTurnover.Add(decimal.NewFromFloat(tx.Turnover))
		}
		if !math.IsNaN(tx.LastPrice) {
			priceSum = priceSum.Add(decimal.NewFromFloat(tx.LastPrice))
			priced++
		}
		switch tx.Signal {
		case SignalBuy:
			s.Buys++
		case SignalSell:
			s.Sells++
		}
	}
	if priced > 0 {
		s.AveragePrice = priceSum.Div(decimal.NewFromInt(int64(priced))).Round(4)
	}
	return s
}
