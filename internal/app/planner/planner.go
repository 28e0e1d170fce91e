package planner

import (
	"fmt"
	"path/filepath"

	"github.com/nbsp1221/yt-manager/internal/app"
	"github.com/nbsp1221/yt-manager/internal/domain"
	"github.com/nbsp1221/yt-manager/internal/idgen"
	"github.com/nbsp1221/yt-manager/internal/probe"
)

// Error 表示规划阶段发现的问题（此时还没有任何重命名发生）。
type Error struct {
	Level domain.Level
	Stem  string
	Msg   string
}

func (e *Error) Error() string {
	if e.Stem == "" {
		return fmt.Sprintf("%s：%s", e.Level, e.Msg)
	}
	return fmt.Sprintf("%s（%q）：%s", e.Level, e.Stem, e.Msg)
}

// Plan 基于扫描结果与用户选择生成确定性的执行计划（不做任何写入/移动）。
//
// 规则：
// - 按 sel.Picks 的顺序处理；跳过的难度不生成 LevelPlan，也不消耗 ID
// - 每个未跳过的难度只调用一次 ids.New()
// - 目标名 = {id}{原扩展名}；同组文件共享同一个 ID
// - 同一 stem 被多个难度选中视为错误（第二次移动时源文件已不存在）
// - 目标名与目录现有文件名冲突视为错误（绝不覆盖）
func Plan(dir string, files []domain.FileEntry, sel domain.Selection, ids idgen.Generator) ([]domain.LevelPlan, error) {
	byStem := app.Lookup(app.GroupByStem(files))

	used := make(map[string]struct{}, len(files))
	for _, f := range files {
		used[f.FullName] = struct{}{}
	}

	claimed := make(map[string]domain.Level, len(sel.Picks))
	plans := make([]domain.LevelPlan, 0, len(sel.Picks))
	for _, pick := range sel.Picks {
		if pick.Skipped() {
			continue
		}
		if prev, ok := claimed[pick.Stem]; ok {
			return nil, &Error{Level: pick.Level, Stem: pick.Stem, Msg: fmt.Sprintf("已被 %s 选中", prev)}
		}
		claimed[pick.Stem] = pick.Level

		idx, ok := byStem[pick.Stem]
		if !ok {
			return nil, &Error{Level: pick.Level, Stem: pick.Stem, Msg: "目录中没有该 stem 的文件"}
		}

		id, err := ids.New()
		if err != nil {
			return nil, &Error{Level: pick.Level, Stem: pick.Stem, Msg: fmt.Sprintf("生成 ID 失败：%v", err)}
		}

		lp, err := planLevel(dir, files, pick, id, idx, used)
		if err != nil {
			return nil, err
		}
		plans = append(plans, lp)
	}
	return plans, nil
}

func planLevel(dir string, files []domain.FileEntry, pick domain.LevelPick, id string, idx []int, used map[string]struct{}) (domain.LevelPlan, error) {
	moves := make([]domain.MovePlan, 0, len(idx))
	for _, i := range idx {
		if i < 0 || i >= len(files) {
			return domain.LevelPlan{}, fmt.Errorf("非法 file index：%d", i)
		}
		f := files[i]
		dstName := id + f.Ext
		if _, ok := used[dstName]; ok {
			return domain.LevelPlan{}, &Error{Level: pick.Level, Stem: pick.Stem, Msg: fmt.Sprintf("目标文件名冲突：%s", dstName)}
		}
		used[dstName] = struct{}{}

		moves = append(moves, domain.MovePlan{
			SrcAbs: filepath.Join(dir, f.FullName),
			DstAbs: filepath.Join(dir, dstName),
			Video:  probe.IsVideoExt(f.Ext),
		})
	}

	return domain.LevelPlan{
		Level: pick.Level,
		Stem:  pick.Stem,
		ID:    id,
		Moves: moves,
	}, nil
}
