package run

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/nbsp1221/yt-manager/internal/app/planner"
	"github.com/nbsp1221/yt-manager/internal/config"
	"github.com/nbsp1221/yt-manager/internal/domain"
	"github.com/nbsp1221/yt-manager/internal/idgen"
	"github.com/nbsp1221/yt-manager/internal/infra/fsx"
	"github.com/nbsp1221/yt-manager/internal/logging"
	"github.com/nbsp1221/yt-manager/internal/manifest"
	"github.com/nbsp1221/yt-manager/internal/probe"
	"github.com/nbsp1221/yt-manager/internal/scan"
	"github.com/nbsp1221/yt-manager/internal/selection"
)

// Deps 是一次运行依赖的外部能力（交互、探测、ID 来源），测试里全部可替换。
type Deps struct {
	Prompter selection.Prompter
	Prober   probe.Prober
	IDs      idgen.Generator
	Log      zerolog.Logger
}

// Execute 执行一次完整流程：扫描 → 提问 → 规划 → 逐难度探测/重命名 → 写清单。
//
// 规则：
// - 返回的 RunReport 总是有效（即使 err != nil），用于展示每个难度/文件的最终状态
// - 清单只在全部难度成功后写一次；失败时不会留下半截清单
// - 一旦发生过重命名，之后的任何失败都会把本次运行的所有重命名倒序改回
// - dry-run：照常探测，但不重命名、不写清单
func Execute(ctx context.Context, eff config.EffectiveConfig, deps Deps, obs Observer) (domain.RunReport, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	x := &executor{
		eff:  eff,
		deps: deps,
		obs:  obs,
		log:  logging.Component(deps.Log, "run"),
		rr: domain.RunReport{
			Path:      eff.Dir,
			DryRun:    eff.DryRun,
			StartedAt: time.Now().UTC(),
			Levels:    []domain.LevelResult{},
		},
	}
	obs.OnStart(eff)

	err := x.run(ctx)
	if err != nil {
		x.log.Error().Err(err).Str("code", Code(err)).Msg("运行失败")
	}
	x.rr.FinishedAt = time.Now().UTC()
	x.rr.Finalize()
	return x.rr, err
}

type movedFile struct {
	level int // rr.Levels 下标
	file  int // LevelResult.Files 下标
	mv    domain.MovePlan
}

type executor struct {
	eff  config.EffectiveConfig
	deps Deps
	obs  Observer
	log  zerolog.Logger

	rr    domain.RunReport
	moved []movedFile
}

func (x *executor) run(ctx context.Context) error {
	started := time.Now()
	// 日志文件（及其轮转备份）落在工作目录里时不能成为候选。
	files, err := scan.Inventory(x.eff.Dir, domain.ManifestMarker, scan.LogFiles(x.eff.Dir, x.eff.LogFile))
	if err != nil {
		return &Error{Code: ErrCodeScanFailed, Path: x.eff.Dir, Err: err}
	}
	stems := scan.Stems(files)
	x.obs.OnPhaseDone("scan", map[string]any{
		"files": len(files),
		"stems": len(stems),
	}, time.Since(started))
	x.log.Debug().Int("files", len(files)).Strs("stems", stems).Msg("扫描完成")

	started = time.Now()
	sel, err := selection.Resolve(ctx, x.deps.Prompter, domain.Levels(), domain.ButtonTypes(), stems, x.eff.WithTitle)
	if err != nil {
		return &Error{Code: ErrCodePromptFailed, Err: err}
	}
	index := make(map[domain.Level]int, len(sel.Picks))
	selected := 0
	for i, p := range sel.Picks {
		lr := domain.LevelResult{Level: p.Level, Stem: p.Stem, Files: []domain.FileResult{}}
		if p.Skipped() {
			lr.Status = domain.StatusSkipped
		} else {
			selected++
		}
		index[p.Level] = i
		x.rr.Levels = append(x.rr.Levels, lr)
	}
	x.obs.OnPhaseDone("prompt", map[string]any{
		"levels":   len(sel.Picks),
		"selected": selected,
	}, time.Since(started))

	started = time.Now()
	plans, err := planner.Plan(x.eff.Dir, files, sel, x.deps.IDs)
	if err != nil {
		rerr := &Error{Code: ErrCodePlanFailed, Err: err}
		var pe *planner.Error
		if errors.As(err, &pe) {
			rerr.Level = pe.Level
			x.fail(index[pe.Level], rerr)
		}
		return rerr
	}
	moves := 0
	for _, lp := range plans {
		moves += len(lp.Moves)
	}
	x.obs.OnPhaseDone("plan", map[string]any{
		"levels":  len(plans),
		"moves":   moves,
		"dry_run": x.eff.DryRun,
	}, time.Since(started))

	var m domain.Manifest
	for i, lp := range plans {
		li := index[lp.Level]
		levelStarted := time.Now()

		ct, err := x.level(ctx, li, lp)
		if err != nil {
			x.fail(li, err)
			x.obs.OnLevelDone(i+1, len(plans), x.rr.Levels[li], time.Since(levelStarted))
			x.rollback()
			return err
		}

		m.Add(manifest.Entry(sel, lp, ct, x.eff.Probe))
		x.obs.OnLevelDone(i+1, len(plans), x.rr.Levels[li], time.Since(levelStarted))
	}

	if x.eff.DryRun {
		return nil
	}

	started = time.Now()
	path, err := manifest.Write(x.eff.Dir, m)
	if err != nil {
		x.rollback()
		return &Error{Code: ErrCodeManifestFailed, Path: manifest.Path(x.eff.Dir), Err: err}
	}
	x.rr.Manifest = path
	x.obs.OnPhaseDone("manifest", map[string]any{
		"entries": len(m.LevelInfo),
	}, time.Since(started))
	x.log.Info().Str("path", path).Int("entries", len(m.LevelInfo)).Msg("清单已写入")
	return nil
}

// level 处理一个难度：按发现顺序逐个文件“先探测、再重命名”。
// 同一难度有多个视频时，后探测到的 creation_time 覆盖先前的。
func (x *executor) level(ctx context.Context, li int, lp domain.LevelPlan) (string, error) {
	lr := &x.rr.Levels[li]
	lr.ID = lp.ID

	for _, mv := range lp.Moves {
		lr.Files = append(lr.Files, domain.FileResult{
			Src:    filepath.Base(mv.SrcAbs),
			Dst:    filepath.Base(mv.DstAbs),
			Status: domain.FileStatusPlanned,
		})
	}

	log := x.log.With().Str("level", string(lp.Level)).Str("id", lp.ID).Logger()

	creationTime := ""
	for fi, mv := range lp.Moves {
		if mv.Video && x.eff.Probe {
			ct, err := x.deps.Prober.CreationTime(ctx, mv.SrcAbs)
			if err != nil {
				lr.Files[fi].Status = domain.FileStatusFailed
				return "", &Error{Code: ErrCodeProbeFailed, Level: lp.Level, Path: mv.SrcAbs, Err: err}
			}
			if ct == "" {
				log.Warn().Str("file", lr.Files[fi].Src).Msg("没有 creation_time 标签")
			}
			creationTime = ct
			lr.CreationTime = ct
		}

		if x.eff.DryRun {
			continue
		}
		if err := fsx.RenameNoReplace(mv.SrcAbs, mv.DstAbs); err != nil {
			lr.Files[fi].Status = domain.FileStatusFailed
			return "", &Error{Code: ErrCodeRenameFailed, Level: lp.Level, Path: mv.SrcAbs, Err: err}
		}
		lr.Files[fi].Status = domain.FileStatusMoved
		x.moved = append(x.moved, movedFile{level: li, file: fi, mv: mv})
		log.Info().Str("src", lr.Files[fi].Src).Str("dst", lr.Files[fi].Dst).Msg("已重命名")
	}

	if x.eff.DryRun {
		lr.Status = domain.StatusPlanned
	} else {
		lr.Status = domain.StatusRenamed
	}
	return creationTime, nil
}

func (x *executor) fail(li int, err error) {
	if li < 0 || li >= len(x.rr.Levels) {
		return
	}
	lr := &x.rr.Levels[li]
	lr.Status = domain.StatusFailed
	lr.ErrorCode = Code(err)
	lr.ErrorMsg = err.Error()
}

// rollback 把本次运行已完成的重命名倒序改回。
// 某个文件改回失败时只记录，不中断其余文件的回滚。
func (x *executor) rollback() {
	if len(x.moved) == 0 {
		return
	}
	started := time.Now()
	failed := 0
	for i := len(x.moved) - 1; i >= 0; i-- {
		mf := x.moved[i]
		fr := &x.rr.Levels[mf.level].Files[mf.file]
		if err := fsx.RenameNoReplace(mf.mv.DstAbs, mf.mv.SrcAbs); err != nil {
			fr.Status = domain.FileStatusFailed
			failed++
			x.log.Error().Err(err).Str("src", fr.Dst).Str("dst", fr.Src).Msg("回滚失败")
			continue
		}
		fr.Status = domain.FileStatusRolledBack
		x.log.Info().Str("src", fr.Dst).Str("dst", fr.Src).Msg("已回滚")
	}

	// 已完整重命名的难度：全部改回则标记为 rolled_back，否则 failed。
	for li := range x.rr.Levels {
		lr := &x.rr.Levels[li]
		if lr.Status != domain.StatusRenamed {
			continue
		}
		lr.Status = domain.StatusRolledBack
		for _, f := range lr.Files {
			if f.Status != domain.FileStatusRolledBack {
				lr.Status = domain.StatusFailed
				lr.ErrorCode = ErrCodeRenameFailed
				lr.ErrorMsg = "回滚未完成"
				break
			}
		}
	}

	x.obs.OnPhaseDone("rollback", map[string]any{
		"files":  len(x.moved),
		"failed": failed,
	}, time.Since(started))
	x.moved = nil
}

type nopObserver struct{}

func (nopObserver) OnStart(config.EffectiveConfig) {}
func (nopObserver) OnPhaseDone(string, map[string]any, time.Duration) {}
func (nopObserver) OnLevelDone(int, int, domain.LevelResult, time.Duration) {}
