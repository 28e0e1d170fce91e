package run

import (
	"time"

	"github.com/nbsp1221/yt-manager/internal/config"
	"github.com/nbsp1221/yt-manager/internal/domain"
)

// Observer 用于把“运行进度/阶段/难度结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出
// - 事件按顺序在调用 Execute 的 goroutine 上发出
type Observer interface {
	// OnStart 在 Execute 开始时调用（早于任何提问）。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束时调用（scan/prompt/plan/manifest/rollback）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnLevelDone 在某个难度处理完成（或失败）时调用。idx 从 1 开始，total 为未跳过的难度数。
	OnLevelDone(idx, total int, res domain.LevelResult, dur time.Duration)
}
