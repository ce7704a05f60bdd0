package chart

import (
	"berza/internal/market"
)

// SeriesID 可切换显隐的序列标识，集合固定。
type SeriesID string

const (
	SeriesSMA20      SeriesID = "sma20"
	SeriesSMA50      SeriesID = "sma50"
	SeriesEMA20      SeriesID = "ema20"
	SeriesEMA50      SeriesID = "ema50"
	SeriesBBMid      SeriesID = "bbMid"
	SeriesRSI        SeriesID = "rsi"
	SeriesOBV        SeriesID = "obv"
	SeriesMomentum   SeriesID = "momentum"
	SeriesBuySignal  SeriesID = "buySignal"
	SeriesSellSignal SeriesID = "sellSignal"
)

// AllSeriesIDs 图例/装配的固定遍历顺序。
var AllSeriesIDs = []SeriesID{
	SeriesSMA20, SeriesSMA50, SeriesEMA20, SeriesEMA50, SeriesBBMid,
	SeriesRSI, SeriesOBV, SeriesMomentum,
	SeriesBuySignal, SeriesSellSignal,
}

// Visibility 序列显隐选择。缺失键按默认可见处理（默认全开）。
type Visibility map[SeriesID]bool

// DefaultVisibility 全部可见。
func DefaultVisibility() Visibility {
	vis := make(Visibility, len(AllSeriesIDs))
	for _, id := range AllSeriesIDs {
		vis[id] = true
	}
	return vis
}

// Visible 查询某序列是否可见；未登记的键视为可见。
func (v Visibility) Visible(id SeriesID) bool {
	if v == nil {
		return true
	}
	on, ok := v[id]
	if !ok {
		return true
	}
	return on
}

// Toggle 返回翻转指定序列后的新快照，原值不被修改。
// 固定集合之外的 id 原样拷贝返回。
func (v Visibility) Toggle(id SeriesID) Visibility {
	out := make(Visibility, len(v))
	for k, val := range v {
		out[k] = val
	}
	if _, known := out[id]; known {
		out[id] = !out[id]
	}
	return out
}

// 坐标轴标识。价格类序列共享主轴，振荡器各占独立轴（量纲互不兼容）。
const (
	AxisPrice    = "price"
	AxisRSI      = "rsi"
	AxisOBV      = "obv"
	AxisMomentum = "momentum"
)

// SeriesStyle 渲染样式。
type SeriesStyle string

const (
	StyleLine   SeriesStyle = "line"
	StyleMarker SeriesStyle = "marker"
)

// Marker 稀疏标记点：类目标签 + 取值（信号日的成交价）。
type Marker struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// Series 单条序列描述。密集序列 Values 与类目一一对齐；
// 标记序列只携带 Markers。
type Series struct {
	ID      SeriesID    `json:"id"`
	Label   string      `json:"label"`
	Axis    string      `json:"axis"`
	Style   SeriesStyle `json:"style"`
	Values  []float64   `json:"values,omitempty"`
	Markers []Marker    `json:"markers,omitempty"`
}

// Description 提交给渲染层的完整图表描述。
// 隐藏的序列完全不出现在 Series 中，消费方无需再查显隐状态。
type Description struct {
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
}

type overlayDef struct {
	id    SeriesID
	label string
	value func(market.Transaction) float64
}

// 主轴叠加线与独立轴振荡器的固定装配顺序。
var (
	overlays = []overlayDef{
		{SeriesSMA20, "SMA 20", func(t market.Transaction) float64 { return t.SMA20 }},
		{SeriesSMA50, "SMA 50", func(t market.Transaction) float64 { return t.SMA50 }},
		{SeriesEMA20, "EMA 20", func(t market.Transaction) float64 { return t.EMA20 }},
		{SeriesEMA50, "EMA 50", func(t market.Transaction) float64 { return t.EMA50 }},
		{SeriesBBMid, "BB Mid", func(t market.Transaction) float64 { return t.BBMid }},
	}
	oscillators = []struct {
		overlayDef
		axis string
	}{
		{overlayDef{SeriesRSI, "RSI", func(t market.Transaction) float64 { return t.RSI }}, AxisRSI},
		{overlayDef{SeriesOBV, "OBV", func(t market.Transaction) float64 { return t.OBV }}, AxisOBV},
		{overlayDef{SeriesMomentum, "Momentum", func(t market.Transaction) float64 { return t.Momentum }}, AxisMomentum},
	}
)

// Assemble 由过滤后的有序序列与显隐选择装配图表描述。
// 对任意合法输入全函数（空序列得到零类目 + 零点主序列），
// 相同输入产出逐字段相同的结果。
func Assemble(txs []market.Transaction, vis Visibility) Description {
	desc := Description{Categories: make([]string, len(txs))}
	for i, tx := range txs {
		desc.Categories[i] = tx.FormatDate()
	}

	// 1. 主价格序列：永远存在，不受显隐开关影响。
	price := Series{ID: "lastPrice", Label: "Transaction Price", Axis: AxisPrice, Style: StyleLine, Values: make([]float64, len(txs))}
	for i, tx := range txs {
		price.Values[i] = tx.LastPrice
	}
	desc.Series = append(desc.Series, price)

	// 2. 主轴叠加指标。
	for _, o := range overlays {
		if !vis.Visible(o.id) {
			continue
		}
		s := Series{ID: o.id, Label: o.label, Axis: AxisPrice, Style: StyleLine, Values: make([]float64, len(txs))}
		for i, tx := range txs {
			s.Values[i] = o.value(tx)
		}
		desc.Series = append(desc.Series, s)
	}

	// 3. 振荡器：每类独立坐标轴。
	for _, o := range oscillators {
		if !vis.Visible(o.id) {
			continue
		}
		s := Series{ID: o.id, Label: o.label, Axis: o.axis, Style: StyleLine, Values: make([]float64, len(txs))}
		for i, tx := range txs {
			s.Values[i] = o.value(tx)
		}
		desc.Series = append(desc.Series, s)
	}

	// 4/5. 买卖信号标记：稀疏 (类目, 成交价) 点，挂在价格轴上。
	if vis.Visible(SeriesBuySignal) {
		desc.Series = append(desc.Series, markerSeries(SeriesBuySignal, "Buy Signal", txs, desc.Categories, market.SignalBuy))
	}
	if vis.Visible(SeriesSellSignal) {
		desc.Series = append(desc.Series, markerSeries(SeriesSellSignal, "Sell Signal", txs, desc.Categories, market.SignalSell))
	}
	return desc
}

func markerSeries(id SeriesID, label string, txs []market.Transaction, cats []string, want market.Signal) Series {
	s := Series{ID: id, Label: label, Axis: AxisPrice, Style: StyleMarker}
	for i, tx := range txs {
		if tx.Signal != want {
			continue
		}
		s.Markers = append(s.Markers, Marker{Category: cats[i], Value: tx.LastPrice})
	}
	return s
}
