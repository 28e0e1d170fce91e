package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nbsp1221/yt-manager/internal/app/run"
	"github.com/nbsp1221/yt-manager/internal/config"
	"github.com/nbsp1221/yt-manager/internal/domain"
	"github.com/nbsp1221/yt-manager/internal/probe"
	"github.com/nbsp1221/yt-manager/internal/selection"
	"github.com/nbsp1221/yt-manager/internal/supervise"
)

type scriptedPrompter struct {
	seq     []string
	options [][]string
}

func (s *scriptedPrompter) next() (string, error) {
	if len(s.seq) == 0 {
		return "", io.EOF
	}
	v := s.seq[0]
	s.seq = s.seq[1:]
	return v, nil
}

func (s *scriptedPrompter) Input(ctx context.Context, label string) (string, error) { return s.next() }

func (s *scriptedPrompter) Select(ctx context.Context, label string, options []string) (string, error) {
	s.options = append(s.options, options)
	return s.next()
}

type failingProber struct{ err error }

func (p failingProber) CreationTime(ctx context.Context, path string) (string, error) {
	return "", &probe.Error{Path: path, Err: p.err}
}

func stubPrompter(t *testing.T, answers ...string) {
	t.Helper()
	old := newPrompter
	newPrompter = func() selection.Prompter { return &scriptedPrompter{seq: answers} }
	t.Cleanup(func() { newPrompter = old })
}

func stubRecordingPrompter(t *testing.T, answers ...string) *scriptedPrompter {
	t.Helper()
	p := &scriptedPrompter{seq: answers}
	old := newPrompter
	newPrompter = func() selection.Prompter { return p }
	t.Cleanup(func() { newPrompter = old })
	return p
}

func stubProber(t *testing.T, p probe.Prober) {
	t.Helper()
	old := newProber
	newProber = func(config.EffectiveConfig) probe.Prober { return p }
	t.Cleanup(func() { newProber = old })
}

func setup(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
	return dir
}

func names(t *testing.T, dir string) []string {
	t.Helper()
	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	out := []string{}
	for _, e := range ents {
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func TestCLI_NoTTY_StdoutOnlyRunReportJSON(t *testing.T) {
	dir := setup(t, "take1.mp4", "take1.srt")
	stubPrompter(t, "take1", selection.NoneChoice, selection.NoneChoice, selection.NoneChoice)

	var stdout, stderr bytes.Buffer
	code := runMain([]string{"yt-manager", "run", "--no-title", "--no-probe", "--id", "nanoid", dir}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr=%s", stderr.String())

	var rr domain.RunReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rr), "stdout=%q", stdout.String())
	require.Equal(t, 1, rr.Summary.Renamed)
	require.Equal(t, 2, rr.Summary.Files)
	require.Equal(t, filepath.Join(dir, "yt-manager.json"), rr.Manifest)

	id := rr.Levels[0].ID
	require.Len(t, id, 21)
	require.ElementsMatch(t, []string{id + ".mp4", id + ".srt", "yt-manager.json"}, names(t, dir))
	require.Contains(t, stderr.String(), "完成：renamed=1")
}

func TestCLI_DefaultCommandIsRun(t *testing.T) {
	dir := setup(t, "solo.mkv")
	stubPrompter(t, selection.NoneChoice, selection.NoneChoice, "solo", selection.NoneChoice)

	var stdout, stderr bytes.Buffer
	code := runMain([]string{"yt-manager", "--no-title", "--no-probe", "--dry-run", dir}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr=%s", stderr.String())
	require.Equal(t, []string{"solo.mkv"}, names(t, dir))

	var rr domain.RunReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rr))
	require.True(t, rr.DryRun)
	require.Equal(t, 1, rr.Summary.Planned)
}

func TestCLI_ProbeFailure_HoldMode(t *testing.T) {
	dir := setup(t, "corrupt.mp4")
	stubPrompter(t, "corrupt", selection.NoneChoice, selection.NoneChoice, selection.NoneChoice)
	stubProber(t, failingProber{err: errors.New("Invalid data found when processing input")})

	var held error
	old := hold
	hold = func(h supervise.Holder, cause error, fields map[string]any) {
		held = cause
		require.Equal(t, run.ErrCodeProbeFailed, fields["code"])
	}
	t.Cleanup(func() { hold = old })

	var stdout, stderr bytes.Buffer
	code := runMain([]string{"yt-manager", "run", "--no-title", "--on-error", "hold", dir}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Error(t, held, "hold 模式下探测失败应进入等待循环")
	require.Equal(t, run.ErrCodeProbeFailed, run.Code(held))

	// 没有清单，源文件保持原名。
	require.Equal(t, []string{"corrupt.mp4"}, names(t, dir))
}

func TestCLI_ProbeFailure_ExitMode(t *testing.T) {
	dir := setup(t, "corrupt.mp4")
	stubPrompter(t, "corrupt", selection.NoneChoice, selection.NoneChoice, selection.NoneChoice)
	stubProber(t, failingProber{err: errors.New("corrupt")})

	old := hold
	hold = func(supervise.Holder, error, map[string]any) { t.Fatalf("exit 模式不应进入等待循环") }
	t.Cleanup(func() { hold = old })

	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, runMain([]string{"yt-manager", "--no-title", dir}, &stdout, &stderr))
}

func TestCLI_PromptFailureNeverHolds(t *testing.T) {
	dir := setup(t, "take1.mp4")
	stubPrompter(t) // 输入流立即关闭

	old := hold
	hold = func(supervise.Holder, error, map[string]any) { t.Fatalf("交互失败不应进入等待循环") }
	t.Cleanup(func() { hold = old })

	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, runMain([]string{"yt-manager", "--on-error", "hold", dir}, &stdout, &stderr))
}

func TestCLI_ConfigInvalid(t *testing.T) {
	dir := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("on_error: retry\n"), 0o644))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, runMain([]string{"yt-manager", dir}, &stdout, &stderr))
	require.Contains(t, stderr.String(), config.ErrCodeInvalid)
	require.Contains(t, stderr.String(), "请检查 "+config.FileName)
}

func TestCLI_UsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 2, runMain([]string{"yt-manager", "--probe", "--no-probe", t.TempDir()}, &stdout, &stderr))
	require.Equal(t, 2, runMain([]string{"yt-manager", "a", "b"}, &stdout, &stderr))
	require.Equal(t, 2, runMain([]string{"yt-manager", "--unknown"}, &stdout, &stderr))
}

func TestCLI_Show(t *testing.T) {
	dir := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "yt-manager.json"),
		[]byte(`{"levelInfo":{"b":{"id":"b","originalFileName":"take2"},"a":{"id":"a","originalFileName":"take1"}}}`), 0o644))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, runMain([]string{"yt-manager", "show", dir}, &stdout, &stderr))
	require.Equal(t, "b\n  originalFileName: take2\na\n  originalFileName: take1\n", stdout.String())

	stdout.Reset()
	require.Equal(t, 1, runMain([]string{"yt-manager", "show", t.TempDir()}, &stdout, &stderr))
}

func TestCLI_RelativeLogFileIsNotACandidate(t *testing.T) {
	dir := setup(t, "take.mp4")
	// 上一次运行留下的日志。
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.log"), []byte("{}\n"), 0o644))
	p := stubRecordingPrompter(t, "take", selection.NoneChoice, selection.NoneChoice, selection.NoneChoice)

	var stdout, stderr bytes.Buffer
	code := runMain([]string{"yt-manager", "--no-title", "--no-probe", "--verbose", "--log", "run.log", dir}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr=%s", stderr.String())

	require.NotEmpty(t, p.options)
	for _, opts := range p.options {
		require.Equal(t, []string{selection.NoneChoice, "take"}, opts)
	}

	var rr domain.RunReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rr))
	id := rr.Levels[0].ID
	require.ElementsMatch(t, []string{"run.log", "yt-manager.json", id + ".mp4"}, names(t, dir))
}
