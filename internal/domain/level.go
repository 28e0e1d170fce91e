package domain

import "fmt"

// Level 是一个难度档位（WJMAX 的四个固定难度之一）。
type Level string

// Levels 是固定的难度顺序表。处理顺序、提示顺序都以它为准；运行期不可扩展。
//
// 注意：返回的是副本，调用方修改不会影响全局表。
func Levels() []Level {
	return []Level{"MESSI", "ANGEL", "WAKGOOD", "MINSU"}
}

// ButtonTypes 是按键模式的固定候选表。
func ButtonTypes() []string {
	return []string{"4B", "5B", "6B", "8B"}
}

// LevelPick 是某个难度上用户选中的 stem；Stem=="" 表示跳过该难度。
type LevelPick struct {
	Level Level
	Stem  string
}

// Skipped 报告该难度是否被跳过。
func (p LevelPick) Skipped() bool { return p.Stem == "" }

// Selection 是一次交互得到的全部输入（构建后不可变）。
//
// 约束：
// - Picks 与传入 Resolver 的 levels 一一对应、顺序一致
// - WithTitle=false 时 SongTitle/Singer/ButtonType 均为空，且不生成 videoTitle
type Selection struct {
	WithTitle  bool
	SongTitle  string
	Singer     string
	ButtonType string

	Picks []LevelPick
}

// VideoTitle 生成上传用的视频标题。
func VideoTitle(singer, songTitle, buttonType string, level Level) string {
	return fmt.Sprintf("【WJMAX】 %s — %s [%s %s] PERFECT PLAY", singer, songTitle, buttonType, level)
}
