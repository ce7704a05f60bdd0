package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"berza/internal/chart"
	"berza/internal/logger"
	"berza/internal/market"
	"berza/internal/store"
)

// ErrEmptySelection 未选择公司就触发拉取，在进入任何网络调用前同步拒绝。
var ErrEmptySelection = errors.New("no company selected")

// snapshot 是控制器对外可见状态的不可变快照。每次变更整体替换，
// 过滤/装配阶段只读，不存在跨协程的共享可变状态。
type snapshot struct {
	company    string
	all        []market.Transaction // 完整序列，按日期升序
	filtered   []market.Transaction
	dateRange  market.DateRange
	visibility chart.Visibility
	desc       chart.Description
	lastErr    string
}

// Controller 负责公司选择 → 拉取 → 规范化 → 过滤 → 装配的状态机。
// 拉取是唯一的异步边界；显隐/区间变更只做同步的重过滤与重装配。
type Controller struct {
	source market.Source
	cache  store.HistoryStore // 可选，nil 时无缓存回退

	mu         sync.Mutex
	generation uint64
	snap       snapshot
	jobs       map[string]FetchJob
	lastJobID  string
}

func NewController(source market.Source, cache store.HistoryStore) *Controller {
	return &Controller{
		source: source,
		cache:  cache,
		snap:   snapshot{visibility: chart.DefaultVisibility(), desc: chart.Assemble(nil, chart.DefaultVisibility())},
		jobs:   make(map[string]FetchJob),
	}
}

// Companies 透传数据源的公司列表；源不可用时回退到本地缓存。
func (c *Controller) Companies(ctx context.Context) ([]string, error) {
	list, err := c.source.Companies(ctx)
	if err == nil {
		return list, nil
	}
	if c.cache != nil {
		if cached, cerr := c.cache.Companies(ctx); cerr == nil && len(cached) > 0 {
			logger.Warnf("公司列表拉取失败，回退缓存: %v", err)
			return cached, nil
		}
	}
	return nil, err
}

// SetCompany 切换当前公司并启动异步拉取。空 id 同步拒绝。
// 显隐选择与日期区间跨公司保留（会话内状态）。
func (c *Controller) SetCompany(ctx context.Context, id string) (FetchJob, error) {
	if id == "" {
		return FetchJob{}, ErrEmptySelection
	}
	c.mu.Lock()
	c.generation++
	gen := c.generation
	next := c.snap
	next.company = id
	c.snap = next
	job := c.newJobLocked(id)
	c.mu.Unlock()

	go c.runFetch(ctx, id, gen, job.ID)
	return job, nil
}

// Refresh 重新拉取当前公司，不改变任何过滤状态。
func (c *Controller) Refresh(ctx context.Context) (FetchJob, error) {
	c.mu.Lock()
	id := c.snap.company
	if id == "" {
		c.mu.Unlock()
		return FetchJob{}, ErrEmptySelection
	}
	c.generation++
	gen := c.generation
	job := c.newJobLocked(id)
	c.mu.Unlock()

	go c.runFetch(ctx, id, gen, job.ID)
	return job, nil
}

func (c *Controller) newJobLocked(company string) FetchJob {
	now := time.Now()
	job := FetchJob{ID: uuid.NewString(), Company: company, Status: JobStatusRunning, StartedAt: now, UpdatedAt: now}
	c.jobs[job.ID] = job
	c.lastJobID = job.ID
	return job
}

// runFetch 拉取 + 规范化，并在仍是最新一代时应用结果。
func (c *Controller) runFetch(ctx context.Context, company string, gen uint64, jobID string) {
	raws, err := c.source.History(ctx, company)
	if err != nil {
		// 拉取失败：能用缓存就用缓存顶上，否则保留先前状态并记录错误
		if c.cache != nil {
			if cached, cerr := c.cache.Get(ctx, company); cerr == nil && len(cached) > 0 {
				logger.Warnf("拉取 %s 失败，使用缓存数据 (%d 条): %v", company, len(cached), err)
				c.applyFetch(company, gen, jobID, cached, 0, "serving cached data: "+err.Error())
				return
			}
		}
		logger.Errorf("拉取 %s 失败: %v", company, err)
		c.failJob(gen, jobID, err)
		return
	}

	txs, skipped := market.NormalizeAll(raws)
	if skipped > 0 {
		logger.Warnf("%s: 跳过 %d 条坏记录", company, skipped)
	}
	sorted := market.SortByDate(txs)
	if c.cache != nil {
		if err := c.cache.Put(ctx, company, sorted); err != nil {
			logger.Warnf("写入缓存失败: %v", err)
		}
	}
	c.applyFetch(company, gen, jobID, sorted, skipped, "")
}

func (c *Controller) applyFetch(company string, gen uint64, jobID string, sorted []market.Transaction, skipped int, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.snap.company != company {
		// 陈旧响应：选择已变，整批丢弃
		logger.Debugf("丢弃 %s 的陈旧拉取结果 (gen=%d, 当前=%d)", company, gen, c.generation)
		c.updateJobLocked(jobID, func(j *FetchJob) {
			j.Status = JobStatusDiscarded
			j.Records = len(sorted)
		})
		return
	}
	next := c.snap
	next.all = sorted
	next.lastErr = ""
	c.snap = recompute(next)
	c.updateJobLocked(jobID, func(j *FetchJob) {
		j.Status = JobStatusDone
		j.Records = len(sorted)
		j.Skipped = skipped
		j.Message = message
	})
}

func (c *Controller) failJob(gen uint64, jobID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// 陈旧拉取的失败同样不得污染当前状态
		c.updateJobLocked(jobID, func(j *FetchJob) { j.Status = JobStatusDiscarded })
		return
	}
	next := c.snap
	next.lastErr = err.Error()
	c.snap = next
	c.updateJobLocked(jobID, func(j *FetchJob) {
		j.Status = JobStatusFailed
		j.Message = err.Error()
	})
}

func (c *Controller) updateJobLocked(id string, fn func(*FetchJob)) {
	job, ok := c.jobs[id]
	if !ok {
		return
	}
	fn(&job)
	job.UpdatedAt = time.Now()
	c.jobs[id] = job
}

// recompute 由完整序列 + 区间 + 显隐推导派生状态。纯函数，入参快照不被修改。
func recompute(s snapshot) snapshot {
	s.filtered = market.FilterRange(s.all, s.dateRange)
	s.desc = chart.Assemble(s.filtered, s.visibility)
	return s
}

// SetDateRange 设置日期区间并同步重过滤+重装配，不触发拉取。
func (c *Controller) SetDateRange(from, to time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.snap
	next.dateRange = market.DateRange{From: from, To: to}
	c.snap = recompute(next)
}

// ResetFilter 清空区间恢复完整视图，不触发拉取。
func (c *Controller) ResetFilter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.snap
	next.dateRange = market.DateRange{}
	c.snap = recompute(next)
}

// ToggleSeries 翻转单条序列显隐并同步重装配。
func (c *Controller) ToggleSeries(id chart.SeriesID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.snap
	next.visibility = next.visibility.Toggle(id)
	c.snap = recompute(next)
}

// ChartDescription 返回当前图表描述。
func (c *Controller) ChartDescription() chart.Description {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.desc
}

// VisibleTransactions 返回当前过滤视图（与类目轴同序）的拷贝。
func (c *Controller) VisibleTransactions() []market.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]market.Transaction, len(c.snap.filtered))
	copy(out, c.snap.filtered)
	return out
}

// Summary 当前视图的聚合统计。
func (c *Controller) Summary() market.Summary {
	return market.Summarize(c.VisibleTransactions())
}

// Company 当前选中的公司（可能为空）。
func (c *Controller) Company() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.company
}

// LastError 最近一次拉取失败的描述，成功后清空。
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.lastErr
}

// Empty 当前无可展示数据（渲染层据此走空态提示而非空白区域）。
func (c *Controller) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snap.filtered) == 0
}

// Job 查询拉取任务进度。
func (c *Controller) Job(id string) (FetchJob, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.jobs[id]
	return job, ok
}

// LastJob 最近一次提交的拉取任务。
func (c *Controller) LastJob() (FetchJob, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.jobs[c.lastJobID]
	return job, ok
}
