package market

import "time"

// RawTransaction 是 /api/transactions/{company} 返回的单条原始记录。
// 所有数值字段都是字符串，且小数分隔符可能是逗号（本地化格式）或点，
// 各字段之间并不保证一致；信号字段是 "True"/"False" 文本。
type RawTransaction struct {
	Date             string `json:"date"`
	LastPrice        string `json:"lastPrice"`
	Min              string `json:"min"`
	Max              string `json:"max"`
	AveragePrice     string `json:"averagePrice"`
	PercentageChange string `json:"percentageChange"`
	Quantity         string `json:"quantity"`
	Turnover         string `json:"turnover"`
	TotalTurnover    string `json:"totalTurnover"`
	SMA20            string `json:"sma20"`
	SMA50            string `json:"sma50"`
	EMA20            string `json:"ema20"`
	EMA50            string `json:"ema50"`
	BBMid            string `json:"bbMid"`
	RSI              string `json:"rsi"`
	OBV              string `json:"obv"`
	Momentum         string `json:"momentum"`
	BuySignal        string `json:"buySignal"`
	SellSignal       string `json:"sellSignal"`
}

// Signal 是由 buy/sell 两个上游标志推导出的交易信号。
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// Transaction 规范化后的单日成交记录。数值字段解析失败时保留 NaN，
// 各字段相互独立；Date 为零值表示原始日期不可解析（排序时置于末尾）。
type Transaction struct {
	Date             time.Time
	LastPrice        float64
	Min              float64
	Max              float64
	AveragePrice     float64
	PercentageChange float64
	Quantity         float64
	Turnover         float64
	TotalTurnover    float64
	SMA20            float64
	SMA50            float64
	EMA20            float64
	EMA50            float64
	BBMid            float64
	RSI              float64
	OBV              float64
	Momentum         float64
	BuySignal        bool
	SellSignal       bool
	Signal           Signal
}

// FormatDate 输出 dd.MM.yyyy（补零）；零值日期输出空串。
func (t Transaction) FormatDate() string {
	if t.Date.IsZero() {
		return ""
	}
	return t.Date.Format("02.01.2006")
}

// DateRange 可选的闭区间日期过滤。零值一侧视为未设置；
// 只有两端都设置时才会触发过滤，From > To 时结果为空（非错误）。
type DateRange struct {
	From time.Time
	To   time.Time
}

// Bounded 两端是否都已设置。
func (r DateRange) Bounded() bool { return !r.From.IsZero() && !r.To.IsZero() }

// Contains 判断日期是否落在闭区间内；零值日期永远不在区间内。
func (r DateRange) Contains(d time.Time) bool {
	if d.IsZero() {
		return false
	}
	return !d.Before(r.From) && !d.After(r.To)
}
