package market

import (
	"errors"
	"math"
	"testing"
)

// TestParseLocalizedFloat 验证逗号与点小数在解析后等价。
func TestParseLocalizedFloat(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"100,50", 100.50},
		{"100.50", 100.50},
		{" 7,3 ", 7.3},
		{"-2,25", -2.25},
		{"0", 0},
	}
	for _, c := range cases {
		got := ParseLocalizedFloat(c.in)
		if math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("解析 %q 期望 %v, 实际 %v", c.in, c.want, got)
		}
	}
	for _, bad := range []string{"", "abc", "12,34,56", "--1"} {
		if !math.IsNaN(ParseLocalizedFloat(bad)) {
			t.Fatalf("非法数字 %q 应得到 NaN", bad)
		}
	}
}

func TestParseFlag(t *testing.T) {
	if !ParseFlag("True") {
		t.Fatalf("\"True\" 应解析为 true")
	}
	for _, s := range []string{"true", "TRUE", "False", "1", "", "yes"} {
		if ParseFlag(s) {
			t.Fatalf("%q 应静默解析为 false", s)
		}
	}
}

// TestClassifySignal 覆盖优先级法则：buy 为 true 时无条件胜出。
func TestClassifySignal(t *testing.T) {
	cases := []struct {
		buy, sell bool
		want      Signal
	}{
		{true, false, SignalBuy},
		{true, true, SignalBuy},
		{false, true, SignalSell},
		{false, false, SignalHold},
	}
	for _, c := range cases {
		if got := ClassifySignal(c.buy, c.sell); got != c.want {
			t.Fatalf("buy=%v sell=%v 期望 %s, 实际 %s", c.buy, c.sell, c.want, got)
		}
	}
}

func TestParseDateLayouts(t *testing.T) {
	for _, s := range []string{"2024-01-01", "01.01.2024"} {
		d := ParseDate(s)
		if d.IsZero() {
			t.Fatalf("日期 %q 应可解析", s)
		}
		if d.Year() != 2024 || int(d.Month()) != 1 || d.Day() != 1 {
			t.Fatalf("日期 %q 解析结果错误: %v", s, d)
		}
	}
	if !ParseDate("not-a-date").IsZero() {
		t.Fatalf("非法日期应返回零值")
	}
}

// TestNormalizeScenario 对应规格场景：逗号价格 + Buy 信号。
func TestNormalizeScenario(t *testing.T) {
	tx, err := Normalize(RawTransaction{
		Date:       "01.01.2024",
		LastPrice:  "100,50",
		BuySignal:  "True",
		SellSignal: "False",
	})
	if err != nil {
		t.Fatalf("规范化失败: %v", err)
	}
	if math.Abs(tx.LastPrice-100.50) > 1e-9 {
		t.Fatalf("lastPrice 期望 100.50, 实际 %v", tx.LastPrice)
	}
	if tx.Signal != SignalBuy {
		t.Fatalf("信号期望 buy, 实际 %s", tx.Signal)
	}
	if tx.FormatDate() != "01.01.2024" {
		t.Fatalf("日期格式化期望 01.01.2024, 实际 %q", tx.FormatDate())
	}
	// 缺失字段各自独立落为 NaN，不影响整条记录。
	if !math.IsNaN(tx.SMA20) || !math.IsNaN(tx.RSI) {
		t.Fatalf("缺失指标应为 NaN")
	}
}

func TestNormalizeUnparsableDate(t *testing.T) {
	tx, err := Normalize(RawTransaction{Date: "garbage", LastPrice: "1"})
	if err != nil {
		t.Fatalf("日期格式错误不应导致记录失败: %v", err)
	}
	if !tx.Date.IsZero() {
		t.Fatalf("不可解析日期应保留零值")
	}
	if tx.FormatDate() != "" {
		t.Fatalf("零值日期应格式化为空串, 实际 %q", tx.FormatDate())
	}
}

func TestNormalizeMalformed(t *testing.T) {
	_, err := Normalize(RawTransaction{Date: "  "})
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("空日期应判定为 ErrMalformedRecord, 实际 %v", err)
	}
}

// TestNormalizeAllSkips 坏记录跳过计数，好记录继续处理。
func TestNormalizeAllSkips(t *testing.T) {
	txs, skipped := NormalizeAll([]RawTransaction{
		{Date: "2024-01-02", LastPrice: "10"},
		{Date: ""},
		{Date: "2024-01-03", LastPrice: "11"},
	})
	if skipped != 1 {
		t.Fatalf("应跳过 1 条, 实际 %d", skipped)
	}
	if len(txs) != 2 {
		t.Fatalf("应保留 2 条, 实际 %d", len(txs))
	}
}
