package report

import (
	"math"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"berza/internal/market"
)

// TransactionTable 把当前可见序列渲染为文本表格（与图表类目同序），
// 页脚附聚合统计。无数据时返回明确的空态提示而非空表。
func TransactionTable(company string, txs []market.Transaction) string {
	if len(txs) == 0 {
		return "No transactions found."
	}
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("Transactions for " + company)
	t.AppendHeader(table.Row{"Date", "Last Price", "Min", "Max", "Avg", "%Chg", "Quantity", "Turnover", "Signal"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	for _, tx := range txs {
		t.AppendRow(table.Row{
			tx.FormatDate(),
			cell(tx.LastPrice), cell(tx.Min), cell(tx.Max), cell(tx.AveragePrice),
			cell(tx.PercentageChange), cell(tx.Quantity), cell(tx.Turnover),
			string(tx.Signal),
		})
	}
	s := market.Summarize(txs)
	t.AppendFooter(table.Row{
		strconv.Itoa(s.Records) + " records", "", "", "",
		"avg " + s.AveragePrice.String(), "",
		s.TotalQuantity.String(), s.TotalTurnover.String(),
		strconv.Itoa(s.Buys) + " buy / " + strconv.Itoa(s.Sells) + " sell",
	})
	return t.Render()
}

// NaN 字段展示为短横线。
func cell(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
