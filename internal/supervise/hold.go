// Package supervise 实现无人值守模式下的“挂起等待人工介入”。
//
// 进程出错后不退出，而是按固定间隔反复记录日志并休眠：监控方看到进程仍在、
// 日志不断重复同一错误，即知道需要有人处理。
package supervise

import (
	"time"

	"github.com/rs/zerolog"
)

// Holder 持有一个错误并进入等待循环。
type Holder struct {
	Interval time.Duration
	Log      zerolog.Logger

	// Ticks>0 时只循环 Ticks 次后返回（测试用）；<=0 表示永不返回。
	Ticks int
	// Sleep 可替换（测试用）；nil 时使用 time.Sleep。
	Sleep func(time.Duration)
}

// Hold 记录 cause 并按 Interval 反复休眠。
//
// 约束：
// - 不响应取消；只有外部信号能结束进程
// - 每一轮都重新记录错误，便于日志轮转后仍能看到原因
func (h Holder) Hold(cause error, fields map[string]any) {
	sleep := h.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	interval := h.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	for n := 1; h.Ticks <= 0 || n <= h.Ticks; n++ {
		h.Log.Error().
			Err(cause).
			Fields(fields).
			Int("round", n).
			Dur("interval", interval).
			Msg("等待人工介入")
		sleep(interval)
	}
}
