package run

import (
	"errors"
	"fmt"

	"github.com/nbsp1221/yt-manager/internal/domain"
)

const (
	ErrCodeScanFailed     = "scan_failed"
	ErrCodePromptFailed   = "prompt_failed"
	ErrCodePlanFailed     = "plan_failed"
	ErrCodeProbeFailed    = "probe_failed"
	ErrCodeRenameFailed   = "rename_failed"
	ErrCodeManifestFailed = "manifest_failed"
)

// Error 是一次运行的结构化失败（带 error_code 与出错位置）。
type Error struct {
	Code  string
	Level domain.Level // 与具体难度无关时为空
	Path  string       // 与具体文件无关时为空
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Level != "" && e.Path != "":
		return fmt.Sprintf("%s：%s：%q：%v", e.Code, e.Level, e.Path, e.Err)
	case e.Level != "":
		return fmt.Sprintf("%s：%s：%v", e.Code, e.Level, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s：%q：%v", e.Code, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s：%v", e.Code, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Degradable 报告该错误在 hold 模式下是否应进入等待循环（而不是直接退出）。
//
// 规则：扫描/交互失败永远致命（此时还没有做任何事，重跑即可）；
// 规划之后的失败才需要人工介入。
func Degradable(err error) bool {
	switch Code(err) {
	case ErrCodePlanFailed, ErrCodeProbeFailed, ErrCodeRenameFailed, ErrCodeManifestFailed:
		return true
	default:
		return false
	}
}
