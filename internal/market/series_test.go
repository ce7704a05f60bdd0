package market

import (
	"reflect"
	"testing"
	"time"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func txOn(date time.Time, price float64) Transaction {
	return Transaction{Date: date, LastPrice: price, Signal: SignalHold}
}

func TestSortByDate(t *testing.T) {
	in := []Transaction{
		txOn(day("2024-03-01"), 3),
		txOn(time.Time{}, 99), // 不可解析日期排在末尾
		txOn(day("2024-01-01"), 1),
		txOn(day("2024-02-01"), 2),
	}
	out := SortByDate(in)
	if len(out) != 4 {
		t.Fatalf("排序不应改变长度: %d", len(out))
	}
	if out[0].LastPrice != 1 || out[1].LastPrice != 2 || out[2].LastPrice != 3 {
		t.Fatalf("排序顺序错误: %+v", out)
	}
	if !out[3].Date.IsZero() {
		t.Fatalf("零值日期应排在末尾")
	}
	// 输入不被修改
	if in[0].LastPrice != 3 {
		t.Fatalf("SortByDate 不应修改输入")
	}
}

// TestSortStable 同日期记录保持输入相对顺序。
func TestSortStable(t *testing.T) {
	d := day("2024-01-01")
	in := []Transaction{txOn(d, 1), txOn(d, 2), txOn(d, 3)}
	out := SortByDate(in)
	for i, tx := range out {
		if tx.LastPrice != float64(i+1) {
			t.Fatalf("稳定排序被破坏: %+v", out)
		}
	}
}

func TestFilterRangeUnbounded(t *testing.T) {
	sorted := SortByDate([]Transaction{
		txOn(day("2024-01-01"), 1),
		txOn(day("2024-02-01"), 2),
	})
	// 无区间 → 完整拷贝，且幂等
	once := FilterRange(sorted, DateRange{})
	twice := FilterRange(once, DateRange{})
	if !reflect.DeepEqual(once, sorted) || !reflect.DeepEqual(twice, once) {
		t.Fatalf("无界过滤应返回完整序列且幂等")
	}
	// 只设一端 → 不过滤
	half := FilterRange(sorted, DateRange{From: day("2024-01-15")})
	if len(half) != 2 {
		t.Fatalf("单边区间不应触发过滤, 实际 %d 条", len(half))
	}
}

func TestFilterRangeInclusive(t *testing.T) {
	sorted := []Transaction{
		txOn(day("2024-01-01"), 1),
		txOn(day("2024-01-15"), 2),
		txOn(day("2024-01-31"), 3),
		txOn(day("2024-02-01"), 4),
	}
	out := FilterRange(sorted, DateRange{From: day("2024-01-01"), To: day("2024-01-31")})
	if len(out) != 3 {
		t.Fatalf("闭区间应含两端, 期望 3 条, 实际 %d", len(out))
	}
}

// TestFilterRangeInverted 对应规格场景：from > to 静默得到空结果。
func TestFilterRangeInverted(t *testing.T) {
	sorted := []Transaction{txOn(day("2024-01-15"), 1)}
	out := FilterRange(sorted, DateRange{From: day("2024-02-01"), To: day("2024-01-01")})
	if len(out) != 0 {
		t.Fatalf("倒置区间应得到空序列, 实际 %d 条", len(out))
	}
}

func TestFilterRangeExcludesZeroDates(t *testing.T) {
	sorted := []Transaction{
		txOn(day("2024-01-15"), 1),
		txOn(time.Time{}, 2),
	}
	out := FilterRange(sorted, DateRange{From: day("2024-01-01"), To: day("2024-12-31")})
	if len(out) != 1 || out[0].LastPrice != 1 {
		t.Fatalf("带界过滤应排除零值日期记录: %+v", out)
	}
}

func TestFilterRangeEmptyInput(t *testing.T) {
	if out := FilterRange(nil, DateRange{From: day("2024-01-01"), To: day("2024-12-31")}); len(out) != 0 {
		t.Fatalf("空输入应得到空输出")
	}
}

func TestSummarize(t *testing.T) {
	txs := []Transaction{
		{Date: day("2024-01-01"), LastPrice: 100, Quantity: 10, Turnover: 1000, Signal: SignalBuy},
		{Date: day("2024-01-02"), LastPrice: 200, Quantity: 20, Turnover: 4000, Signal: SignalSell},
	}
	s := Summarize(txs)
	if s.Records != 2 || s.Buys != 1 || s.Sells != 1 {
		t.Fatalf("统计计数错误: %+v", s)
	}
	if s.TotalQuantity.String() != "30" {
		t.Fatalf("总量期望 30, 实际 %s", s.TotalQuantity)
	}
	if s.TotalTurnover.String() != "5000" {
		t.Fatalf("总额期望 5000, 实际 %s", s.TotalTurnover)
	}
	if s.AveragePrice.String() != "150" {
		t.Fatalf("均价期望 150, 实际 %s", s.AveragePrice)
	}
}
