package chart

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderOptions 控制 ECharts 页面输出。
type RenderOptions struct {
	Title  string
	Width  string
	Height string
}

func (o RenderOptions) withDefaults() RenderOptions {
	out := o
	if out.Width == "" {
		out.Width = "1200px"
	}
	if out.Height == "" {
		out.Height = "640px"
	}
	if out.Title == "" {
		out.Title = "Transactions"
	}
	return out
}

// RenderECharts 把图表描述翻译成 go-echarts 折线图并写出 HTML 页面。
// 描述中的轴标识映射为 ECharts 的 yAxisIndex：主轴固定为 0，
// 其余轴按首次出现顺序扩展；标记序列以 scatter 叠加在同一 X 轴上。
func RenderECharts(w io.Writer, desc Description, ro RenderOptions) error {
	ro = ro.withDefaults()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: ro.Title, Width: ro.Width, Height: ro.Height}),
		charts.WithTitleOpts(opts.Title{Title: ro.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		// 缩放/平移能力：滚轮 + 滑条，只作用于 X 轴。
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "inside", Start: 0, End: 100},
			opts.DataZoom{Type: "slider", Start: 0, End: 100},
		),
		charts.WithYAxisOpts(opts.YAxis{Name: "Price", Type: "value", Scale: opts.Bool(true)}),
	)

	axisIndex := map[string]int{AxisPrice: 0}
	nextAxis := 1
	resolveAxis := func(axis string) int {
		if idx, ok := axisIndex[axis]; ok {
			return idx
		}
		line.ExtendYAxis(opts.YAxis{Name: axisLabel(axis), Type: "value", Scale: opts.Bool(true), Show: opts.Bool(false)})
		axisIndex[axis] = nextAxis
		nextAxis++
		return axisIndex[axis]
	}

	line.SetXAxis(desc.Categories)
	for _, s := range desc.Series {
		if s.Style == StyleMarker {
			continue
		}
		data := make([]opts.LineData, len(s.Values))
		for i, v := range s.Values {
			if math.IsNaN(v) {
				// ECharts 的缺失值写法
				data[i] = opts.LineData{Value: "-"}
				continue
			}
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(s.Label, data,
			charts.WithLineChartOpts(opts.LineChart{YAxisIndex: resolveAxis(s.Axis), Smooth: opts.Bool(true)}),
		)
	}

	for _, s := range desc.Series {
		if s.Style != StyleMarker || len(s.Markers) == 0 {
			continue
		}
		symbol := "triangle"
		rotate := 0
		if s.ID == SeriesSellSignal {
			rotate = 180
		}
		data := make([]opts.ScatterData, len(s.Markers))
		for i, m := range s.Markers {
			data[i] = opts.ScatterData{
				Value:        []any{m.Category, m.Value},
				Symbol:       symbol,
				SymbolSize:   14,
				SymbolRotate: rotate,
			}
		}
		scatter := charts.NewScatter()
		scatter.SetXAxis(desc.Categories)
		scatter.AddSeries(s.Label, data)
		line.Overlap(scatter)
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("渲染 ECharts 页面失败: %w", err)
	}
	return nil
}

func axisLabel(axis string) string {
	switch axis {
	case AxisRSI:
		return "RSI"
	case AxisOBV:
		return "OBV"
	case AxisMomentum:
		return "Momentum"
	default:
		return axis
	}
}
