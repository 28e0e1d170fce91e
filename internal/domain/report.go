package domain

import (
	"time"
)

const (
	StatusRenamed = "renamed"
	StatusPlanned = "planned" // dry-run
	StatusSkipped = "skipped"
	StatusFailed  = "failed"

	// StatusRolledBack：该难度已重命名，但同一次运行中后续步骤失败，文件已改回原名。
	StatusRolledBack = "rolled_back"
)

const (
	FileStatusPlanned    = "planned"
	FileStatusMoved      = "moved"
	FileStatusRolledBack = "rolled_back"
	FileStatusFailed     = "failed"
)

// RunReport 汇总一次运行（每个难度一条 LevelResult，顺序 = 难度固定顺序）。
type RunReport struct {
	Path   string `json:"path"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary  ReportSummary `json:"summary"`
	Levels   []LevelResult `json:"levels"`
	Manifest string        `json:"manifest"` // 写出的清单绝对路径；未写出时为空
}

type ReportSummary struct {
	Renamed    int `json:"renamed"`
	Planned    int `json:"planned"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	RolledBack int `json:"rolled_back"`
	Files      int `json:"files"`
}

type LevelResult struct {
	Level        Level  `json:"level"`
	Stem         string `json:"stem"`
	ID           string `json:"id"`
	CreationTime string `json:"creation_time"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Files []FileResult `json:"files"`
}

type FileResult struct {
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Status string `json:"status"`
}

// Finalize 做两件事：
// 1) 时间统一为 UTC
// 2) summary 由 levels 计算得出（levels 顺序保持不变，它本身就是契约的一部分）
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	var s ReportSummary
	for _, lv := range r.Levels {
		switch lv.Status {
		case StatusRenamed:
			s.Renamed++
		case StatusPlanned:
			s.Planned++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		case StatusRolledBack:
			s.RolledBack++
		}
		for _, f := range lv.Files {
			if f.Status == FileStatusMoved || f.Status == FileStatusPlanned {
				s.Files++
			}
		}
	}
	r.Summary = s
}
