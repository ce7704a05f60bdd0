package dashboard

import "time"

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusDone      = "done"
	JobStatusFailed    = "failed"
	JobStatusDiscarded = "discarded"
)

// FetchJob 在内存中跟踪一次拉取的进度。结果因选择已变更而被丢弃时，
// 状态落为 discarded（陈旧响应保护）。
type FetchJob struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	Status    string    `json:"status"`
	Records   int       `json:"records"`
	Skipped   int       `json:"skipped"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Message   string    `json:"message"`
}
