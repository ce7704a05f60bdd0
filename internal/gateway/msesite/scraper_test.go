package msesite

import "testing"

func TestCleanNumber(t *testing.T) {
	cases := []struct{ in, want string }{
		{"1.234,56", "1234,56"},
		{"100,50", "100,50"},
		{"100.50", "100.50"}, // 无逗号时点视为小数分隔符，原样保留
		{" 2.000.000,00 ", "2000000,00"},
		{"", ""},
	}
	for _, c := range cases {
		if got := cleanNumber(c.in); got != c.want {
			t.Fatalf("cleanNumber(%q) 期望 %q, 实际 %q", c.in, c.want, got)
		}
	}
}

func TestRowToRaw(t *testing.T) {
	cells := []string{"01.01.2024", "4.580,00", "4.600,00", "4.500,00", "4.550,00", "0,22", "120", "549.600,00", "1.200.000,00"}
	raw, ok := rowToRaw(cells)
	if !ok {
		t.Fatalf("完整行应可转换")
	}
	if raw.Date != "01.01.2024" || raw.LastPrice != "4580,00" || raw.TotalTurnover != "1200000,00" {
		t.Fatalf("字段映射错误: %+v", raw)
	}
	if _, ok := rowToRaw([]string{"01.01.2024", "1"}); ok {
		t.Fatalf("列数不足的行应被拒绝")
	}
}
