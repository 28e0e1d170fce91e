package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEffective_DefaultsWithoutFile(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Dir != cwd {
		t.Fatalf("期望 dir=%q，实际=%q", cwd, eff.Dir)
	}
	if !eff.WithTitle || !eff.Probe {
		t.Fatalf("期望 with_title/probe 默认开启：%+v", eff)
	}
	if eff.OnError != OnErrorExit || eff.Hold() {
		t.Fatalf("期望 on_error=exit，实际=%q", eff.OnError)
	}
	if eff.HoldInterval != DefaultHoldInterval || eff.ProbeTimeout != 0 {
		t.Fatalf("时间默认值不符合预期：%+v", eff)
	}
	if eff.IDFormat != "uuid" || eff.LogFile != "" || eff.DryRun {
		t.Fatalf("默认值不符合预期：%+v", eff)
	}
}

func TestLoadEffective_FileValues(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`
with_title: false
probe: false
on_error: HOLD
hold_interval: 30s
probe_timeout: 5s
id_format: nanoid
log_file: logs/yt.log
`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.WithTitle || eff.Probe {
		t.Fatalf("期望 with_title/probe 被配置关闭：%+v", eff)
	}
	if !eff.Hold() || eff.HoldInterval != 30*time.Second || eff.ProbeTimeout != 5*time.Second {
		t.Fatalf("on_error/时间配置不符合预期：%+v", eff)
	}
	if eff.IDFormat != "nanoid" {
		t.Fatalf("期望 id_format=nanoid，实际=%q", eff.IDFormat)
	}
	if want := filepath.Join(cwd, "logs", "yt.log"); eff.LogFile != want {
		t.Fatalf("期望 log_file=%q，实际=%q", want, eff.LogFile)
	}
}

func TestLoadEffective_CLIOverridesFile(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte("with_title: false\nprobe: false\non_error: hold\nid_format: nanoid\n"))

	eff, err := LoadEffective(cwd, CLIArgs{
		WithTitle: true, WithTitleSet: true,
		Probe: true, ProbeSet: true,
		OnError: "exit", OnErrorSet: true,
		IDFormat: "uuid", IDFormatSet: true,
		HoldInterval: time.Second, HoldIntervalSet: true,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !eff.WithTitle || !eff.Probe || eff.Hold() || eff.IDFormat != "uuid" || eff.HoldInterval != time.Second {
		t.Fatalf("期望 CLI 覆盖配置文件：%+v", eff)
	}
}

func TestLoadEffective_ExplicitFalseOverridesDefault(t *testing.T) {
	cwd := t.TempDir()

	// --no-probe：显式 false 也必须生效。
	eff, err := LoadEffective(cwd, CLIArgs{Probe: false, ProbeSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Probe {
		t.Fatalf("期望 probe=false")
	}
}

func TestLoadEffective_CLIDirReadsConfigThere(t *testing.T) {
	cwd := t.TempDir()
	dir := filepath.Join(cwd, "takes")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	writeFile(t, filepath.Join(dir, FileName), []byte("id_format: nanoid\n"))

	eff, err := LoadEffective(cwd, CLIArgs{Dir: "takes"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Dir != dir || eff.IDFormat != "nanoid" {
		t.Fatalf("期望读取 %q 下的配置：%+v", dir, eff)
	}
}

func TestLoadEffective_Invalid(t *testing.T) {
	cases := map[string]string{
		"yaml":          "with_title: [",
		"on_error":      "on_error: retry\n",
		"hold_interval": "hold_interval: soon\n",
		"hold_zero":     "hold_interval: 0s\n",
		"probe_timeout": "probe_timeout: -1s\n",
		"id_format":     "id_format: ulid\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			cwd := t.TempDir()
			writeFile(t, filepath.Join(cwd, FileName), []byte(content))

			_, err := LoadEffective(cwd, CLIArgs{})
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
			}
		})
	}
}

func TestLoadEffective_InvalidCLIValue(t *testing.T) {
	_, err := LoadEffective(t.TempDir(), CLIArgs{OnError: "panic", OnErrorSet: true})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v", ErrCodeInvalid, err)
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写文件失败：%v", err)
	}
}
