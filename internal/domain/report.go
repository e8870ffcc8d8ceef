package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	ActionKeepRaw    = "keep_raw"
	ActionKeepJPEG   = "keep_jpeg"
	ActionDeleteBoth = "delete_both"
)

const (
	FileStatusMoved   = "moved"
	FileStatusSkipped = "skipped"
)

// SessionReport 是一次整理会话的审计输出（report JSON）。
// 只写不读：下一次运行不会从它恢复任何状态。
type SessionReport struct {
	SessionID string `json:"session_id"`

	RawFolder  string `json:"raw_folder"`
	JPEGFolder string `json:"jpeg_folder"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	OriginalCount  int `json:"original_count"`
	RemainingCount int `json:"remaining_count"`

	Summary ReportSummary `json:"summary"`
	Items   []ReportItem  `json:"items"`
}

type ReportSummary struct {
	KeptRaw      int `json:"kept_raw"`
	KeptJPEG     int `json:"kept_jpeg"`
	DeletedBoth  int `json:"deleted_both"`
	FilesMoved   int `json:"files_moved"`
	FilesSkipped int `json:"files_skipped"`
}

type ReportItem struct {
	Seq    int          `json:"seq"`
	Title  string       `json:"title"`
	Action string       `json:"action"`
	At     time.Time    `json:"at"`
	Files  []FileResult `json:"files"`
}

type FileResult struct {
	Src      string `json:"src"`
	Dst      string `json:"dst"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// FileResultFromOutcome 把移动结果转换为 report 中的文件条目。
func FileResultFromOutcome(o MoveOutcome) FileResult {
	fr := FileResult{
		Src:      o.Src,
		Dst:      o.Dst,
		Status:   FileStatusMoved,
		Attempts: o.Attempts,
	}
	if !o.Succeeded() {
		fr.Status = FileStatusSkipped
		if o.Err != nil {
			fr.Error = o.Err.Error()
		}
	}
	return fr
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 按 seq 稳定排序
// 3) summary 由 items 计算得出
func (r *SessionReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool { return r.Items[i].Seq < r.Items[j].Seq })

	var s ReportSummary
	for i := range r.Items {
		it := &r.Items[i]
		it.At = it.At.UTC()
		switch it.Action {
		case ActionKeepRaw:
			s.KeptRaw++
		case ActionKeepJPEG:
			s.KeptJPEG++
		case ActionDeleteBoth:
			s.DeletedBoth++
		}
		for _, f := range it.Files {
			switch f.Status {
			case FileStatusMoved:
				s.FilesMoved++
			case FileStatusSkipped:
				s.FilesSkipped++
			}
		}
	}
	r.Summary = s
}

// MarshalJSON 保证 items 为 [] 而不是 null。
func (r SessionReport) MarshalJSON() ([]byte, error) {
	type Alias SessionReport
	if r.Items == nil {
		r.Items = []ReportItem{}
	}
	return json.Marshal(Alias(r))
}
