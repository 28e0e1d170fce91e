package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/nbsp1221/yt-manager/internal/app/run"
	"github.com/nbsp1221/yt-manager/internal/config"
	"github.com/nbsp1221/yt-manager/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端上的进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr，不污染 stdout 的报告输出
// - 事件驱动：run 层只发事件，CLI 决定如何展示
type progressUI struct {
	w io.Writer

	mu        sync.Mutex
	startedAt time.Time

	ok   *color.Color
	warn *color.Color
	fail *color.Color
	dim  *color.Color
}

func newProgressUI(w io.Writer, colorize bool) *progressUI {
	p := &progressUI{
		w:    w,
		ok:   color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed, color.Bold),
		dim:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.ok, p.warn, p.fail, p.dim} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	mode := "apply"
	modeHint := ""
	if eff.DryRun {
		mode = "dry-run"
		modeHint = " (不重命名/不写清单)"
	}

	fmt.Fprintf(p.w, "[%s] yt-manager (%s)\n", now.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  dir: %s\n", eff.Dir)
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  title: %s\n", onOff(eff.WithTitle))
	fmt.Fprintf(p.w, "  probe: %s\n", formatProbe(eff))
	fmt.Fprintf(p.w, "  id: %s\n", eff.IDFormat)
	fmt.Fprintf(p.w, "  on_error: %s\n", formatOnError(eff))
	if eff.LogFile != "" {
		fmt.Fprintf(p.w, "  log: %s\n", eff.LogFile)
	}
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "scan":
		fmt.Fprintf(p.w, "扫描: files=%d stems=%d (%s)\n",
			intField(fields, "files"), intField(fields, "stems"), formatShortDuration(dur),
		)
	case "prompt":
		fmt.Fprintf(p.w, "选择: levels=%d selected=%d\n",
			intField(fields, "levels"), intField(fields, "selected"),
		)
	case "plan":
		fmt.Fprintf(p.w, "规划: levels=%d moves=%d (%s)\n\n",
			intField(fields, "levels"), intField(fields, "moves"), formatShortDuration(dur),
		)
	case "manifest":
		fmt.Fprintf(p.w, "\n清单: entries=%d (%s) elapsed=%s\n",
			intField(fields, "entries"), formatShortDuration(dur), formatShortDuration(time.Since(p.startedAt)),
		)
	case "rollback":
		failed := intField(fields, "failed")
		msg := fmt.Sprintf("回滚: files=%d failed=%d (%s)", intField(fields, "files"), failed, formatShortDuration(dur))
		if failed > 0 {
			fmt.Fprintln(p.w, p.fail.Sprint(msg))
		} else {
			fmt.Fprintln(p.w, p.warn.Sprint(msg))
		}
	default:
		// 兜底：未知阶段也不要静默（便于调试/演进）。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnLevelDone(idx, total int, res domain.LevelResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch res.Status {
	case domain.StatusFailed:
		fmt.Fprintf(p.w, "[%d/%d] %s %s %s: %s (%s)\n",
			idx, total, res.Level, p.fail.Sprint("FAIL"), res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	default:
		status := p.ok.Sprint("OK")
		if res.Status == domain.StatusPlanned {
			status = p.dim.Sprint("PLAN")
		}
		fmt.Fprintf(p.w, "[%d/%d] %s %s %s -> %s files=%d%s (%s)\n",
			idx, total, res.Level, status, res.Stem, res.ID, len(res.Files), formatCreationTime(res), formatShortDuration(dur),
		)
	}
}

// printManifest 以人类可读的形式输出清单（show 命令）。
func printManifest(w io.Writer, m domain.Manifest, colorize bool) {
	key := color.New(color.FgCyan, color.Bold)
	if colorize {
		key.EnableColor()
	} else {
		key.DisableColor()
	}

	if len(m.LevelInfo) == 0 {
		fmt.Fprintln(w, "（清单为空）")
		return
	}
	for _, e := range m.LevelInfo {
		fmt.Fprintln(w, key.Sprint(e.ID))
		fmt.Fprintf(w, "  originalFileName: %s\n", e.OriginalFileName)
		if e.VideoTitle != nil {
			fmt.Fprintf(w, "  videoTitle: %s\n", *e.VideoTitle)
		}
		if e.CreationTime != nil {
			ct := *e.CreationTime
			if ct == "" {
				ct = "-"
			}
			fmt.Fprintf(w, "  creationTime: %s\n", ct)
		}
	}
}

func formatCreationTime(res domain.LevelResult) string {
	if res.CreationTime == "" {
		return ""
	}
	return " creation_time=" + res.CreationTime
}

func formatProbe(eff config.EffectiveConfig) string {
	if !eff.Probe {
		return "off"
	}
	if eff.ProbeTimeout > 0 {
		return fmt.Sprintf("on (timeout=%s)", eff.ProbeTimeout)
	}
	return "on"
}

func formatOnError(eff config.EffectiveConfig) string {
	if eff.Hold() {
		return fmt.Sprintf("hold (interval=%s)", eff.HoldInterval)
	}
	return eff.OnError
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:runeCut(s, max)]
	}
	return s[:runeCut(s, max-3)] + "..."
}

// runeCut 把字节下标 n 回退到最近的 rune 起点，避免切断多字节字符。
func runeCut(s string, n int) int {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	default:
		return 0
	}
}
