package dashboard

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"berza/internal/chart"
	"berza/internal/market"
	"berza/internal/report"
)

// HTTPServer 提供 Gin 接口，供前端驱动选择/过滤/显隐并取回图表描述。
type HTTPServer struct {
	addr   string
	ctrl   *Controller
	router *gin.Engine
}

type HTTPConfig struct {
	Addr string
	Ctrl *Controller
}

func NewHTTPServer(cfg HTTPConfig) (*HTTPServer, error) {
	if cfg.Ctrl == nil {
		return nil, errors.New("controller 不能为空")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9980"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &HTTPServer{addr: cfg.Addr, ctrl: cfg.Ctrl, router: router}
	s.registerRoutes()
	return s, nil
}

func (s *HTTPServer) registerRoutes() {
	s.router.GET("/", s.handleIndex)
	api := s.router.Group("/api")
	api.GET("/companies", s.handleCompanies)
	api.POST("/select", s.handleSelect)
	api.POST("/refresh", s.handleRefresh)
	api.POST("/range", s.handleRange)
	api.POST("/toggle", s.handleToggle)
	api.POST("/reset", s.handleReset)
	api.GET("/chart", s.handleChart)
	api.GET("/transactions", s.handleTransactions)
	api.GET("/table", s.handleTable)
	api.GET("/summary", s.handleSummary)
	api.GET("/job", s.handleLastJob)
	api.GET("/job/:id", s.handleJob)
}

// handleIndex 渲染当前视图的 ECharts 页面；无数据时给出明确的空态页。
func (s *HTTPServer) handleIndex(c *gin.Context) {
	if s.ctrl.Empty() {
		msg := "No transactions found."
		if err := s.ctrl.LastError(); err != "" {
			msg = "No data: " + err
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8",
			[]byte("<html><body><p>"+msg+"</p></body></html>"))
		return
	}
	title := "Transactions for " + s.ctrl.Company()
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := chart.RenderECharts(c.Writer, s.ctrl.ChartDescription(), chart.RenderOptions{Title: title}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *HTTPServer) handleCompanies(c *gin.Context) {
	list, err := s.ctrl.Companies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": list})
}

func (s *HTTPServer) handleSelect(c *gin.Context) {
	var req struct {
		Company string `json:"company" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job, err := s.ctrl.SetCompany(context.Background(), req.Company)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

func (s *HTTPServer) handleRefresh(c *gin.Context) {
	job, err := s.ctrl.Refresh(context.Background())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

// handleRange 设置闭区间过滤；两个字段都允许缺省（缺省侧为无界）。
func (s *HTTPServer) handleRange(c *gin.Context) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	from, ok := parseOptionalDate(req.From)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from 日期非法"})
		return
	}
	to, ok := parseOptionalDate(req.To)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to 日期非法"})
		return
	}
	s.ctrl.SetDateRange(from, to)
	c.JSON(http.StatusOK, gin.H{"rows": len(s.ctrl.VisibleTransactions())})
}

func (s *HTTPServer) handleToggle(c *gin.Context) {
	var req struct {
		Series string `json:"series" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.ctrl.ToggleSeries(chart.SeriesID(req.Series))
	c.JSON(http.StatusOK, gin.H{"series": len(s.ctrl.ChartDescription().Series)})
}

func (s *HTTPServer) handleReset(c *gin.Context) {
	s.ctrl.ResetFilter()
	c.JSON(http.StatusOK, gin.H{"rows": len(s.ctrl.VisibleTransactions())})
}

func (s *HTTPServer) handleChart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"chart": descriptionDTO(s.ctrl.ChartDescription())})
}

func (s *HTTPServer) handleTransactions(c *gin.Context) {
	txs := s.ctrl.VisibleTransactions()
	rows := make([]transactionDTO, len(txs))
	for i, tx := range txs {
		rows[i] = toTransactionDTO(tx)
	}
	c.JSON(http.StatusOK, gin.H{
		"company":      s.ctrl.Company(),
		"transactions": rows,
		"empty":        len(rows) == 0,
		"error":        s.ctrl.LastError(),
	})
}

func (s *HTTPServer) handleTable(c *gin.Context) {
	c.String(http.StatusOK, report.TransactionTable(s.ctrl.Company(), s.ctrl.VisibleTransactions()))
}

func (s *HTTPServer) handleSummary(c *gin.Context) {
	sum := s.ctrl.Summary()
	c.JSON(http.StatusOK, gin.H{
		"records":        sum.Records,
		"total_quantity": sum.TotalQuantity.String(),
		"total_turnover": sum.TotalTurnover.String(),
		"average_price":  sum.AveragePrice.String(),
		"buys":           sum.Buys,
		"sells":          sum.Sells,
	})
}

func (s *HTTPServer) handleJob(c *gin.Context) {
	job, ok := s.ctrl.Job(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

func (s *HTTPServer) handleLastJob(c *gin.Context) {
	job, ok := s.ctrl.LastJob()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no job submitted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

// Start 启动 HTTP 服务，阻塞直到 ctx 取消或出现错误。
func (s *HTTPServer) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func parseOptionalDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	d := market.ParseDate(s)
	if d.IsZero() {
		return time.Time{}, false
	}
	return d, true
}

// JSON 不接受 NaN，线上表示用 null（指针缺省）。

type transactionDTO struct {
	Date             string   `json:"date"`
	LastPrice        *float64 `json:"lastPrice"`
	Min              *float64 `json:"min"`
	Max              *float64 `json:"max"`
	AveragePrice     *float64 `json:"averagePrice"`
	PercentageChange *float64 `json:"percentageChange"`
	Quantity         *float64 `json:"quantity"`
	Turnover         *float64 `json:"turnover"`
	TotalTurnover    *float64 `json:"totalTurnover"`
	SMA20            *float64 `json:"sma20"`
	SMA50            *float64 `json:"sma50"`
	EMA20            *float64 `json:"ema20"`
	EMA50            *float64 `json:"ema50"`
	BBMid            *float64 `json:"bbMid"`
	RSI              *float64 `json:"rsi"`
	OBV              *float64 `json:"obv"`
	Momentum         *float64 `json:"momentum"`
	BuySignal        bool     `json:"buySignal"`
	SellSignal       bool     `json:"sellSignal"`
	Signal           string   `json:"signal"`
}

func numPtr(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func toTransactionDTO(tx market.Transaction) transactionDTO {
	return transactionDTO{
		Date:             tx.FormatDate(),
		LastPrice:        numPtr(tx.LastPrice),
		Min:              numPtr(tx.Min),
		Max:              numPtr(tx.Max),
		AveragePrice:     numPtr(tx.AveragePrice),
		PercentageChange: numPtr(tx.PercentageChange),
		Quantity:         numPtr(tx.Quantity),
		Turnover:         numPtr(tx.Turnover),
		TotalTurnover:    numPtr(tx.TotalTurnover),
		SMA20:            numPtr(tx.SMA20),
		SMA50:            numPtr(tx.SMA50),
		EMA20:            numPtr(tx.EMA20),
		EMA50:            numPtr(tx.EMA50),
		BBMid:            numPtr(tx.BBMid),
		RSI:              numPtr(tx.RSI),
		OBV:              numPtr(tx.OBV),
		Momentum:         numPtr(tx.Momentum),
		BuySignal:        tx.BuySignal,
		SellSignal:       tx.SellSignal,
		Signal:           string(tx.Signal),
	}
}

type seriesDTO struct {
	ID      string         `json:"id"`
	Label   string         `json:"label"`
	Axis    string         `json:"axis"`
	Style   string         `json:"style"`
	Values  []*float64     `json:"values,omitempty"`
	Markers []chart.Marker `json:"markers,omitempty"`
}

type chartDTO struct {
	Categories []string    `json:"categories"`
	Series     []seriesDTO `json:"series"`
}

func descriptionDTO(desc chart.Description) chartDTO {
	out := chartDTO{Categories: desc.Categories, Series: make([]seriesDTO, len(desc.Series))}
	for i, s := range desc.Series {
		dto := seriesDTO{ID: string(s.ID), Label: s.Label, Axis: s.Axis, Style: string(s.Style), Markers: s.Markers}
		if s.Style != chart.StyleMarker {
			dto.Values = make([]*float64, len(s.Values))
			for j, v := range s.Values {
				dto.Values[j] = numPtr(v)
			}
		}
		out.Series[i] = dto
	}
	return out
}
