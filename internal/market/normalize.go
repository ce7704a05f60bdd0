package market

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedRecord 表示单条记录无法规范化。调用方应跳过该条继续处理，
// 绝不能因此中断整批数据。
var ErrMalformedRecord = errors.New("malformed transaction record")

// 依次尝试的日期格式：API 输出 ISO 日期，站点表格输出 dd.MM.yyyy。
var dateLayouts = []string{"2006-01-02", "02.01.2006", time.RFC3339}

// ParseLocalizedFloat 把本地化数字文本解析为 float64。
// 逗号小数分隔符先替换为点；解析失败返回 NaN 而非错误，
// 这样各数值字段可以相互独立地缺失。
func ParseLocalizedFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ParseFlag 只有精确的 "True" 视为 true，其余任何文本一律静默为 false。
func ParseFlag(s string) bool { return s == "True" }

// ParseDate 解析日期文本；全部格式失败时返回零值（非错误）。
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ClassifySignal 从两个独立的上游标志推导三值信号。
// buy 为 true 时无条件判定买入（即使 sell 同时为 true，买入优先）。
func ClassifySignal(buy, sell bool) Signal {
	switch {
	case buy:
		return SignalBuy
	case sell:
		return SignalSell
	default:
		return SignalHold
	}
}

// Normalize 把一条原始记录转换为类型化的 Transaction。
// 数值字段解析失败留 NaN、日期格式错误留零值，都不算记录失败；
// 只有日期字段整体缺失（空白）时才返回 ErrMalformedRecord。
func Normalize(raw RawTransaction) (Transaction, error) {
	if strings.TrimSpace(raw.Date) == "" {
		return Transaction{}, ErrMalformedRecord
	}
	buy := ParseFlag(raw.BuySignal)
	sell := ParseFlag(raw.SellSignal)
	return Transaction{
		Date:             ParseDate(raw.Date),
		LastPrice:        ParseLocalizedFloat(raw.LastPrice),
		Min:              ParseLocalizedFloat(raw.Min),
		Max:              ParseLocalizedFloat(raw.Max),
		AveragePrice:     ParseLocalizedFloat(raw.AveragePrice),
		PercentageChange: ParseLocalizedFloat(raw.PercentageChange),
		Quantity:         ParseLocalizedFloat(raw.Quantity),
		Turnover:         ParseLocalizedFloat(raw.Turnover),
		TotalTurnover:    ParseLocalizedFloat(raw.TotalTurnover),
		SMA20:            ParseLocalizedFloat(raw.SMA20),
		SMA50:            ParseLocalizedFloat(raw.SMA50),
		EMA20:            ParseLocalizedFloat(raw.EMA20),
		EMA50:            ParseLocalizedFloat(raw.EMA50),
		BBMid:            ParseLocalizedFloat(raw.BBMid),
		RSI:              ParseLocalizedFloat(raw.RSI),
		OBV:              ParseLocalizedFloat(raw.OBV),
		Momentum:         ParseLocalizedFloat(raw.Momentum),
		BuySignal:        buy,
		SellSignal:       sell,
		Signal:           ClassifySignal(buy, sell),
	}, nil
}

// NormalizeAll 逐条规范化，坏记录跳过并统计，永不中断整批。
func NormalizeAll(raws []RawTransaction) (txs []Transaction, skipped int) {
	txs = make([]Transaction, 0, len(raws))
	for _, raw := range raws {
		tx, err := Normalize(raw)
		if err != nil {
			skipped++
			continue
		}
		txs = append(txs, tx)
	}
	return txs, skipped
}
