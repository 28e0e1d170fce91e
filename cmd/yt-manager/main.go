package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/nbsp1221/yt-manager/internal/app/run"
	"github.com/nbsp1221/yt-manager/internal/config"
	"github.com/nbsp1221/yt-manager/internal/domain"
	"github.com/nbsp1221/yt-manager/internal/idgen"
	"github.com/nbsp1221/yt-manager/internal/logging"
	"github.com/nbsp1221/yt-manager/internal/manifest"
	"github.com/nbsp1221/yt-manager/internal/probe"
	"github.com/nbsp1221/yt-manager/internal/prompt"
	"github.com/nbsp1221/yt-manager/internal/selection"
	"github.com/nbsp1221/yt-manager/internal/supervise"
)

// 测试可替换：真实终端交互 / 真实 ffprobe / 真实的无限等待。
var (
	newPrompter = func() selection.Prompter {
		// 提问写 stderr，stdout 只留给报告。
		return prompt.Survey{In: os.Stdin, Out: os.Stderr, Err: os.Stderr}
	}
	newProber = func(eff config.EffectiveConfig) probe.Prober {
		return probe.FFProbe{Timeout: eff.ProbeTimeout}
	}
	hold = func(h supervise.Holder, cause error, fields map[string]any) {
		h.Hold(cause, fields)
	}
)

func main() {
	if code := runMain(os.Args, os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

// runMain 运行 CLI 并返回进程退出码：0 成功，1 运行失败，2 参数错误。
func runMain(args []string, stdout, stderr io.Writer) int {
	err := newApp(stdout, stderr).Run(args)
	if err == nil {
		return 0
	}
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(stderr, msg)
		}
		return ec.ExitCode()
	}
	fmt.Fprintf(stderr, "参数错误：%v\n", err)
	return 2
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "yt-manager",
		Usage:     "把 WJMAX 各难度的录像重命名为唯一 ID，并生成 yt-manager.json",
		ArgsUsage: "[dir]",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     runFlags(),
		Action:    runAction,
		// 退出码由 runMain 统一处理，避免 cli 在库内部直接 os.Exit。
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "扫描目录、交互选择并重命名（默认命令）",
				ArgsUsage: "[dir]",
				Flags:     runFlags(),
				Action:    runAction,
			},
			{
				Name:      "show",
				Usage:     "打印目录下的 yt-manager.json",
				ArgsUsage: "[dir]",
				Action:    showAction,
			},
		},
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "no-title", Usage: "不询问歌曲名/歌手/按键模式，也不生成 videoTitle"},
		&cli.BoolFlag{Name: "probe", Usage: "探测视频的 creation_time（默认开启）"},
		&cli.BoolFlag{Name: "no-probe", Usage: "不探测 creation_time"},
		&cli.StringFlag{Name: "on-error", Usage: "出错后的行为：exit|hold"},
		&cli.DurationFlag{Name: "hold-interval", Usage: "hold 模式下重复记录错误的间隔"},
		&cli.DurationFlag{Name: "probe-timeout", Usage: "单个文件的探测超时（0 表示不限时）"},
		&cli.StringFlag{Name: "id", Usage: "ID 格式：uuid|nanoid"},
		&cli.BoolFlag{Name: "dry-run", Usage: "只规划与探测，不重命名、不写清单"},
		&cli.StringFlag{Name: "log", Usage: "额外写入的日志文件（按大小滚动）"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "输出 debug 日志"},
	}
}

func cliArgs(c *cli.Context) (config.CLIArgs, error) {
	if c.NArg() > 1 {
		return config.CLIArgs{}, fmt.Errorf("只接受一个目录参数，实际是 %v", c.Args().Slice())
	}
	if c.IsSet("probe") && c.IsSet("no-probe") {
		return config.CLIArgs{}, fmt.Errorf("--probe 与 --no-probe 不能同时使用")
	}

	a := config.CLIArgs{
		Dir:     c.Args().First(),
		DryRun:  c.Bool("dry-run"),
		Verbose: c.Bool("verbose"),
	}
	if c.IsSet("no-title") {
		a.WithTitle, a.WithTitleSet = !c.Bool("no-title"), true
	}
	if c.IsSet("probe") {
		a.Probe, a.ProbeSet = c.Bool("probe"), true
	}
	if c.IsSet("no-probe") {
		a.Probe, a.ProbeSet = !c.Bool("no-probe"), true
	}
	if c.IsSet("on-error") {
		a.OnError, a.OnErrorSet = c.String("on-error"), true
	}
	if c.IsSet("hold-interval") {
		a.HoldInterval, a.HoldIntervalSet = c.Duration("hold-interval"), true
	}
	if c.IsSet("probe-timeout") {
		a.ProbeTimeout, a.ProbeTimeoutSet = c.Duration("probe-timeout"), true
	}
	if c.IsSet("id") {
		a.IDFormat, a.IDFormatSet = c.String("id"), true
	}
	if c.IsSet("log") {
		a.LogFile, a.LogFileSet = c.String("log"), true
	}
	return a, nil
}

func runAction(c *cli.Context) error {
	stdout, stderr := c.App.Writer, c.App.ErrWriter

	ca, err := cliArgs(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("参数错误：%v", err), 2)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return cli.Exit(fmt.Sprintf("读取当前目录失败：%v", err), 1)
	}
	eff, err := config.LoadEffective(cwd, ca)
	if err != nil {
		if config.Code(err) == config.ErrCodeInvalid {
			return cli.Exit(fmt.Sprintf("%v\n请检查 %s 或命令行参数", err, config.FileName), 1)
		}
		return cli.Exit(err.Error(), 1)
	}

	logger, closeLog, err := logging.New(logging.Options{
		Console: stderr,
		NoColor: !isTTY(stderr),
		File:    eff.LogFile,
		Verbose: eff.Verbose,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("初始化日志失败：%v", err), 1)
	}
	defer closeLog()

	ids, err := idgen.ForFormat(eff.IDFormat)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	var obs run.Observer
	if isTTY(stderr) {
		obs = newProgressUI(stderr, true)
	}

	rr, err := run.Execute(context.Background(), eff, run.Deps{
		Prompter: newPrompter(),
		Prober:   newProber(eff),
		IDs:      ids,
		Log:      logger,
	}, obs)

	emitReport(stdout, stderr, rr)
	if err == nil {
		return nil
	}

	if eff.Hold() && run.Degradable(err) {
		hold(supervise.Holder{
			Interval: eff.HoldInterval,
			Log:      logging.Component(logger, "supervise"),
		}, err, map[string]any{"code": run.Code(err), "dir": eff.Dir})
	}
	// 详细错误已由 run 记录到日志；这里只决定退出码。
	return cli.Exit("", 1)
}

func showAction(c *cli.Context) error {
	if c.NArg() > 1 {
		return cli.Exit(fmt.Sprintf("参数错误：只接受一个目录参数，实际是 %v", c.Args().Slice()), 2)
	}
	dir := c.Args().First()
	if dir == "" {
		dir = "."
	}
	m, err := manifest.Read(manifest.Path(dir))
	if err != nil {
		return cli.Exit(fmt.Sprintf("读取清单失败：%v", err), 1)
	}
	printManifest(c.App.Writer, m, isTTY(c.App.Writer))
	return nil
}

func emitReport(stdout, stderr io.Writer, rr domain.RunReport) {
	s := rr.Summary
	line := fmt.Sprintf("完成：renamed=%d planned=%d skipped=%d failed=%d rolled_back=%d files=%d",
		s.Renamed, s.Planned, s.Skipped, s.Failed, s.RolledBack, s.Files,
	)

	if isTTY(stdout) {
		fmt.Fprintln(stdout, line)
		for _, lv := range rr.Levels {
			if lv.Status != domain.StatusFailed {
				continue
			}
			fmt.Fprintf(stderr, "%s %s: %s\n", lv.Level, lv.ErrorCode, lv.ErrorMsg)
		}
		if rr.Manifest != "" {
			fmt.Fprintf(stdout, "manifest: %s\n", rr.Manifest)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(rr)
	fmt.Fprintln(stderr, line)
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
