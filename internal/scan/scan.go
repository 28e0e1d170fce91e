package scan

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nbsp1221/yt-manager/internal/domain"
)

// Inventory 列出 dir 下的全部目录项（不递归），排除名字里含 marker 的项，以及任一 skip 命中的项。
//
// 规则（硬约束）：
// - 只看名字，不读内容、不做 stat
// - 顺序 = 目录列举顺序（os.ReadDir 按文件名排序），后续重命名也按这个顺序执行
// - 目录列举失败直接返回错误：没有可用文件集合，上层无从恢复
func Inventory(dir, marker string, skip ...func(name string) bool) ([]domain.FileEntry, error) {
	entries, err := os.ReadDir(filepath.Clean(dir))
	if err != nil {
		return nil, err
	}

	files := make([]domain.FileEntry, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if marker != "" && strings.Contains(name, marker) {
			continue
		}
		if skipped(name, skip) {
			continue
		}
		stem, ext := SplitName(name)
		files = append(files, domain.FileEntry{
			FullName: name,
			Stem:     stem,
			Ext:      ext,
		})
	}
	return files, nil
}

func skipped(name string, skip []func(string) bool) bool {
	for _, fn := range skip {
		if fn != nil && fn(name) {
			return true
		}
	}
	return false
}

// SplitName 按最后一个 '.' 把文件名拆成 (stem, ext)。ext 含 '.'，没有则为空。
//
// 例外：
// - 最后一个 '.' 在第一个字符上时不算分隔符：".bashrc" 的 stem 是 ".bashrc"、ext 为空
// - ".." 整体是 stem
// 其余情况（"...mp4"、"..a"）照常在最后一个 '.' 处拆分。
func SplitName(name string) (stem, ext string) {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 || name == ".." {
		return name, ""
	}
	return name[:dot], name[dot:]
}

// lumberjack 轮转备份文件名里的时间戳格式：<name>-<timestamp><ext>[.gz]。
const logBackupTimeFormat = "2006-01-02T15-04-05.000"

// LogFiles 返回一个 skip 函数，命中 logFile 本身及其 lumberjack 轮转备份。
//
// logFile 不在 dir 下（或为空）时，返回的函数永远不命中。
func LogFiles(dir, logFile string) func(name string) bool {
	if logFile == "" || filepath.Clean(filepath.Dir(logFile)) != filepath.Clean(dir) {
		return func(string) bool { return false }
	}
	base := filepath.Base(logFile)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext) + "-"

	return func(name string) bool {
		if name == base {
			return true
		}
		name = strings.TrimSuffix(name, ".gz")
		if len(name) < len(prefix)+len(ext) || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			return false
		}
		_, err := time.Parse(logBackupTimeFormat, name[len(prefix):len(name)-len(ext)])
		return err == nil
	}
}

// Stems 返回去重后的 stem 列表（大小写敏感），保持首次出现的顺序。
func Stems(files []domain.FileEntry) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := seen[f.Stem]; ok {
			continue
		}
		seen[f.Stem] = struct{}{}
		out = append(out, f.Stem)
	}
	return out
}
