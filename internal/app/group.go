package app

import (
	"github.com/nbsp1221/yt-manager/internal/domain"
)

// StemGroup 是共享同一 stem 的文件集合（例如 take1.mp4 + take1.srt）。
// 为了数据局部性，只保存文件下标（指向 []FileEntry）。
type StemGroup struct {
	Stem    string
	FileIdx []int
}

// GroupByStem 把扫描结果按 stem 分组。
//
// - 组的顺序：stem 首次出现的顺序
// - 组内 FileIdx：扫描发现顺序（不排序，重命名顺序以此为准）
func GroupByStem(files []domain.FileEntry) []StemGroup {
	index := make(map[string]int, len(files))
	groups := make([]StemGroup, 0, len(files))

	for i := range files {
		stem := files[i].Stem
		if idx, ok := index[stem]; ok {
			groups[idx].FileIdx = append(groups[idx].FileIdx, i)
			continue
		}
		index[stem] = len(groups)
		groups = append(groups, StemGroup{
			Stem:    stem,
			FileIdx: []int{i},
		})
	}
	return groups
}

// Lookup 把分组结果转成 stem -> FileIdx 的索引。
func Lookup(groups []StemGroup) map[string][]int {
	out := make(map[string][]int, len(groups))
	for _, g := range groups {
		out[g.Stem] = g.FileIdx
	}
	return out
}
