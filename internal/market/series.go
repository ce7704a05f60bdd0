package market

import "sort"

// SortByDate 返回按日期升序排列的拷贝。排序稳定：同日期记录保持输入
// 相对顺序；零值（不可解析）日期统一排在末尾。
func SortByDate(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.Before(b)
	})
	return out
}

// FilterRange 对已排序序列应用闭区间过滤。仅当两端都设置时过滤，
// 否则原样返回拷贝；From > To 自然得到空结果。
// 零值日期的记录位置未定义，带界过滤时一律排除。
func FilterRange(sorted []Transaction, r DateRange) []Transaction {
	if !r.Bounded() {
		out := make([]Transaction, len(sorted))
		copy(out, sorted)
		return out
	}
	out := make([]Transaction, 0, len(sorted))
	for _, tx := range sorted {
		if r.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out
}
