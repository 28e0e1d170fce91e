package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nbsp1221/yt-manager/internal/idgen"
)

const (
	// FileName 是可选配置文件名；它包含清单保留子串，因此永远不会被当作重命名候选。
	FileName = "yt-manager.yaml"

	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	OnErrorExit = "exit"
	OnErrorHold = "hold"
)

const (
	// DefaultHoldInterval 是 hold 循环的默认休眠间隔。
	DefaultHoldInterval = 10 * time.Second
)

// CLIArgs 是 CLI 暴露的参数，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --probe 必须能覆盖 probe: false。
type CLIArgs struct {
	Dir string

	WithTitle    bool
	WithTitleSet bool

	Probe    bool
	ProbeSet bool

	OnError    string
	OnErrorSet bool

	HoldInterval    time.Duration
	HoldIntervalSet bool

	ProbeTimeout    time.Duration
	ProbeTimeoutSet bool

	IDFormat    string
	IDFormatSet bool

	LogFile    string
	LogFileSet bool

	DryRun  bool
	Verbose bool
}

// FileConfig 对应 yt-manager.yaml 的解析结构。指针字段用于区分“未写”和“写了零值”。
type FileConfig struct {
	WithTitle    *bool   `yaml:"with_title"`
	Probe        *bool   `yaml:"probe"`
	OnError      string  `yaml:"on_error"`
	HoldInterval *string `yaml:"hold_interval"`
	ProbeTimeout *string `yaml:"probe_timeout"`
	IDFormat     string  `yaml:"id_format"`
	LogFile      string  `yaml:"log_file"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Dir string

	WithTitle bool
	Probe     bool

	OnError      string
	HoldInterval time.Duration
	ProbeTimeout time.Duration

	IDFormat string
	LogFile  string

	DryRun  bool
	Verbose bool
}

// Hold 报告是否运行在“挂起等待人工介入”的模式。
func (c EffectiveConfig) Hold() bool { return c.OnError == OnErrorHold }

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
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

// LoadEffective 读取 <dir>/yt-manager.yaml（可选）并与 CLI 参数合并为最终配置。
//
// 覆盖优先级（固定）：CLI 显式指定 > 配置文件 > 内置默认。
// dir 为空时使用 cwd。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	dir := cwdAbs
	if strings.TrimSpace(cli.Dir) != "" {
		dir = absCleanFrom(cwdAbs, cli.Dir)
	}

	cfgPath := filepath.Join(dir, FileName)
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	return merge(dir, cli, fc, cfgPath)
}

func merge(dir string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	eff := EffectiveConfig{
		Dir:          dir,
		WithTitle:    true,
		Probe:        true,
		OnError:      OnErrorExit,
		HoldInterval: DefaultHoldInterval,
		IDFormat:     idgen.FormatUUID,
		DryRun:       cli.DryRun,
		Verbose:      cli.Verbose,
	}
	invalid := func(err error) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	if cli.WithTitleSet {
		eff.WithTitle = cli.WithTitle
	} else if fc.WithTitle != nil {
		eff.WithTitle = *fc.WithTitle
	}

	if cli.ProbeSet {
		eff.Probe = cli.Probe
	} else if fc.Probe != nil {
		eff.Probe = *fc.Probe
	}

	onError := eff.OnError
	if cli.OnErrorSet {
		onError = cli.OnError
	} else if strings.TrimSpace(fc.OnError) != "" {
		onError = fc.OnError
	}
	onError = strings.ToLower(strings.TrimSpace(onError))
	if onError != OnErrorExit && onError != OnErrorHold {
		return invalid(fmt.Errorf("on_error 只能是 exit 或 hold，实际是 %q", onError))
	}
	eff.OnError = onError

	if cli.HoldIntervalSet {
		eff.HoldInterval = cli.HoldInterval
	} else if fc.HoldInterval != nil {
		d, err := time.ParseDuration(strings.TrimSpace(*fc.HoldInterval))
		if err != nil {
			return invalid(fmt.Errorf("hold_interval 无效：%w", err))
		}
		eff.HoldInterval = d
	}
	if eff.HoldInterval <= 0 {
		return invalid(fmt.Errorf("hold_interval 必须为正，实际是 %s", eff.HoldInterval))
	}

	if cli.ProbeTimeoutSet {
		eff.ProbeTimeout = cli.ProbeTimeout
	} else if fc.ProbeTimeout != nil {
		d, err := time.ParseDuration(strings.TrimSpace(*fc.ProbeTimeout))
		if err != nil {
			return invalid(fmt.Errorf("probe_timeout 无效：%w", err))
		}
		eff.ProbeTimeout = d
	}
	if eff.ProbeTimeout < 0 {
		return invalid(fmt.Errorf("probe_timeout 不能为负，实际是 %s", eff.ProbeTimeout))
	}

	idFormat := eff.IDFormat
	if cli.IDFormatSet {
		idFormat = cli.IDFormat
	} else if strings.TrimSpace(fc.IDFormat) != "" {
		idFormat = fc.IDFormat
	}
	idFormat = strings.ToLower(strings.TrimSpace(idFormat))
	if _, err := idgen.ForFormat(idFormat); err != nil {
		return invalid(err)
	}
	eff.IDFormat = idFormat

	logFile := strings.TrimSpace(fc.LogFile)
	if cli.LogFileSet {
		logFile = strings.TrimSpace(cli.LogFile)
	}
	if logFile != "" {
		logFile = absCleanFrom(dir, logFile)
	}
	eff.LogFile = logFile

	return eff, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 YAML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
