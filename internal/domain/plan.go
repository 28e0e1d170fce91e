package domain

// MovePlan 规划一次同目录重命名（只描述 src/dst；真正执行由 run 层负责）。
type MovePlan struct {
	SrcAbs string
	DstAbs string

	// Video 表示该文件按扩展名被识别为视频容器，执行时需要探测 creation_time。
	Video bool
}

// LevelPlan 是某个难度的最小执行计划。
//
// 约束：
// - 只有未跳过的难度才会生成 LevelPlan（因此也只有它们会分配 ID）
// - Moves 顺序 = 扫描发现顺序，不排序
type LevelPlan struct {
	Level Level
	Stem  string
	ID    string

	Moves []MovePlan
}
