package chart

import (
	"math"
	"reflect"
	"testing"
	"time"

	"berza/internal/market"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleTxs() []market.Transaction {
	return []market.Transaction{
		{Date: day("2024-01-01"), LastPrice: 100.50, SMA20: 99, SMA50: 98, EMA20: 99.5, EMA50: 98.5, BBMid: 99.2, RSI: 25, OBV: 1000, Momentum: 1.5, BuySignal: true, Signal: market.SignalBuy},
		{Date: day("2024-01-02"), LastPrice: 101, SMA20: 99.1, SMA50: 98.1, EMA20: 99.6, EMA50: 98.6, BBMid: 99.3, RSI: 55, OBV: 1100, Momentum: 0.5, Signal: market.SignalHold},
		{Date: day("2024-01-03"), LastPrice: 99, SMA20: 99.2, SMA50: 98.2, EMA20: 99.7, EMA50: 98.7, BBMid: 99.4, RSI: 75, OBV: 900, Momentum: -2, SellSignal: true, Signal: market.SignalSell},
	}
}

// TestSeriesCountInvariant 序列数 = 主序列 + 每个开启的开关各一条。
func TestSeriesCountInvariant(t *testing.T) {
	txs := sampleTxs()
	full := Assemble(txs, DefaultVisibility())
	if len(full.Series) != 1+len(AllSeriesIDs) {
		t.Fatalf("全开时序列数期望 %d, 实际 %d", 1+len(AllSeriesIDs), len(full.Series))
	}

	vis := DefaultVisibility()
	for _, id := range AllSeriesIDs {
		vis[id] = false
	}
	bare := Assemble(txs, vis)
	if len(bare.Series) != 1 {
		t.Fatalf("全关时应只剩主序列, 实际 %d 条", len(bare.Series))
	}
	if bare.Series[0].Label != "Transaction Price" {
		t.Fatalf("主序列不可被隐藏, 实际首条 %q", bare.Series[0].Label)
	}
}

// TestHiddenSeriesAbsent 隐藏 = 完全缺席，而非存在但为空。
func TestHiddenSeriesAbsent(t *testing.T) {
	vis := DefaultVisibility()
	vis[SeriesRSI] = false
	desc := Assemble(sampleTxs(), vis)
	for _, s := range desc.Series {
		if s.ID == SeriesRSI {
			t.Fatalf("隐藏的 RSI 序列不应出现在输出中")
		}
	}
	if len(desc.Series) != len(AllSeriesIDs) {
		t.Fatalf("关掉一条后序列数应为 %d, 实际 %d", len(AllSeriesIDs), len(desc.Series))
	}
}

// TestStableOrder 相同输入两次装配顺序与内容完全一致。
func TestStableOrder(t *testing.T) {
	txs := sampleTxs()
	a := Assemble(txs, DefaultVisibility())
	b := Assemble(txs, DefaultVisibility())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("装配结果不确定")
	}
	want := []string{"Transaction Price", "SMA 20", "SMA 50", "EMA 20", "EMA 50", "BB Mid", "RSI", "OBV", "Momentum", "Buy Signal", "Sell Signal"}
	for i, s := range a.Series {
		if s.Label != want[i] {
			t.Fatalf("第 %d 条序列期望 %q, 实际 %q", i, want[i], s.Label)
		}
	}
}

// TestToggleRoundTrip 关掉再打开应逐字段还原此前的描述。
func TestToggleRoundTrip(t *testing.T) {
	txs := sampleTxs()
	vis := DefaultVisibility()
	before := Assemble(txs, vis)
	vis = vis.Toggle(SeriesEMA50)
	vis = vis.Toggle(SeriesEMA50)
	after := Assemble(txs, vis)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("toggle 往返后描述应一致")
	}
}

// TestMarkersAndAxes 对应规格场景：Buy 标记落在 01.01.2024、值 100.50。
func TestMarkersAndAxes(t *testing.T) {
	desc := Assemble(sampleTxs(), DefaultVisibility())
	if got := desc.Categories[0]; got != "01.01.2024" {
		t.Fatalf("首个类目期望 01.01.2024, 实际 %q", got)
	}
	var buy, sell *Series
	axes := map[SeriesID]string{}
	for i := range desc.Series {
		s := &desc.Series[i]
		axes[s.ID] = s.Axis
		switch s.ID {
		case SeriesBuySignal:
			buy = s
		case SeriesSellSignal:
			sell = s
		}
	}
	if buy == nil || len(buy.Markers) != 1 {
		t.Fatalf("应有且仅有 1 个买入标记: %+v", buy)
	}
	if buy.Markers[0].Category != "01.01.2024" || math.Abs(buy.Markers[0].Value-100.50) > 1e-9 {
		t.Fatalf("买入标记错误: %+v", buy.Markers[0])
	}
	if sell == nil || len(sell.Markers) != 1 || sell.Markers[0].Category != "03.01.2024" {
		t.Fatalf("卖出标记错误: %+v", sell)
	}
	// 轴划分：价格类共享主轴，振荡器各自独立轴。
	if axes[SeriesSMA20] != AxisPrice || axes[SeriesBuySignal] != AxisPrice {
		t.Fatalf("价格类序列应挂主轴: %+v", axes)
	}
	if axes[SeriesRSI] != AxisRSI || axes[SeriesOBV] != AxisOBV || axes[SeriesMomentum] != AxisMomentum {
		t.Fatalf("振荡器应各占独立轴: %+v", axes)
	}
}

// TestAssembleEmpty 空输入同样全函数：零类目 + 零点主序列。
func TestAssembleEmpty(t *testing.T) {
	desc := Assemble(nil, DefaultVisibility())
	if len(desc.Categories) != 0 {
		t.Fatalf("空输入类目应为 0")
	}
	if len(desc.Series) != 1+len(AllSeriesIDs) {
		t.Fatalf("空输入不改变序列结构, 实际 %d 条", len(desc.Series))
	}
	if len(desc.Series[0].Values) != 0 {
		t.Fatalf("主序列应为零点")
	}
}

func TestToggleImmutable(t *testing.T) {
	vis := DefaultVisibility()
	next := vis.Toggle(SeriesRSI)
	if !vis[SeriesRSI] {
		t.Fatalf("Toggle 不应修改原快照")
	}
	if next[SeriesRSI] {
		t.Fatalf("新快照应翻转 RSI")
	}
	if unknown := next.Toggle(SeriesID("bogus")); !reflect.DeepEqual(unknown, next) {
		t.Fatalf("未知序列 id 应原样返回")
	}
}
