// Package manifest 负责 yt-manager.json 的构建、落盘与读取。
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nbsp1221/yt-manager/internal/domain"
	"github.com/nbsp1221/yt-manager/internal/infra/fsx"
)

// Entry 为一个已完成的难度构建清单条目。
//
// 规则：
// - sel.WithTitle=false 时不产出 videoTitle
// - probed=false（本次运行不探测）时不产出 creationTime
// - probed=true 但未找到标签时，creationTime 为空串（而不是缺失）
func Entry(sel domain.Selection, lp domain.LevelPlan, creationTime string, probed bool) domain.ManifestEntry {
	e := domain.ManifestEntry{
		ID:               lp.ID,
		OriginalFileName: lp.Stem,
	}
	if sel.WithTitle {
		title := domain.VideoTitle(sel.Singer, sel.SongTitle, sel.ButtonType, lp.Level)
		e.VideoTitle = &title
	}
	if probed {
		ct := creationTime
		e.CreationTime = &ct
	}
	return e
}

// Path 返回 dir 下清单文件的路径。
func Path(dir string) string {
	return filepath.Join(dir, domain.ManifestName)
}

// Write 把清单整体写入 dir/yt-manager.json（临时文件 + rename，覆盖旧文件）。
//
// 注意：即使所有难度都被跳过，也会写出 {"levelInfo": {}}。
func Write(dir string, m domain.Manifest) (string, error) {
	data, err := domain.EncodeManifest(m)
	if err != nil {
		return "", fmt.Errorf("编码清单失败：%w", err)
	}
	if err := fsx.WriteFileAtomicReplace(dir, domain.ManifestName, data); err != nil {
		return "", err
	}
	return Path(dir), nil
}

// Read 读取并解析清单文件。
func Read(path string) (domain.Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Manifest{}, err
	}
	var m domain.Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return domain.Manifest{}, fmt.Errorf("解析清单失败：%s：%w", path, err)
	}
	return m, nil
}
