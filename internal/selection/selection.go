package selection

import (
	"context"
	"fmt"

	"github.com/nbsp1221/yt-manager/internal/domain"
)

// NoneChoice 是“跳过该难度”的哨兵选项，归一化为空串。
const NoneChoice = "<None>"

// Prompter 是交互能力的抽象：每次调用阻塞到用户作答。
//
// 约束：
// - Input 返回的文本已由实现做过必填校验
// - Select 返回 options 中的某一项
// - 输入流关闭/用户中断时返回 error（上层视为致命错误）
type Prompter interface {
	Input(ctx context.Context, label string) (string, error)
	Select(ctx context.Context, label string, options []string) (string, error)
}

// PromptError 标明是哪一个字段的提问失败。
type PromptError struct {
	Field string
	Err   error
}

func (e *PromptError) Error() string {
	return fmt.Sprintf("读取 %s 失败：%v", e.Field, e.Err)
}

func (e *PromptError) Unwrap() error { return e.Err }

// Resolve 依次提问并构建 Selection。
//
// 顺序（固定）：歌曲名 → 歌手 → 按键模式 → levels 按声明顺序逐个选择文件。
// withTitle=false 时跳过前三项。
func Resolve(ctx context.Context, p Prompter, levels []domain.Level, buttonTypes []string, stems []string, withTitle bool) (domain.Selection, error) {
	sel := domain.Selection{
		WithTitle: withTitle,
		Picks:     make([]domain.LevelPick, 0, len(levels)),
	}

	if withTitle {
		var err error
		if sel.SongTitle, err = ask(ctx, "songTitle", func() (string, error) {
			return p.Input(ctx, "输入歌曲名")
		}); err != nil {
			return domain.Selection{}, err
		}
		if sel.Singer, err = ask(ctx, "singer", func() (string, error) {
			return p.Input(ctx, "输入歌手名")
		}); err != nil {
			return domain.Selection{}, err
		}
		if sel.ButtonType, err = ask(ctx, "buttonType", func() (string, error) {
			return p.Select(ctx, "选择按键模式", append([]string(nil), buttonTypes...))
		}); err != nil {
			return domain.Selection{}, err
		}
	}

	options := Options(stems)
	for _, lv := range levels {
		label := fmt.Sprintf("选择 %s 难度对应的文件", lv)
		v, err := ask(ctx, string(lv), func() (string, error) {
			return p.Select(ctx, label, append([]string(nil), options...))
		})
		if err != nil {
			return domain.Selection{}, err
		}
		sel.Picks = append(sel.Picks, domain.LevelPick{Level: lv, Stem: Normalize(v)})
	}
	return sel, nil
}

// Options 返回某个难度的候选列表：哨兵在最前，其后为 stems。
func Options(stems []string) []string {
	out := make([]string, 0, len(stems)+1)
	out = append(out, NoneChoice)
	return append(out, stems...)
}

// Normalize 把哨兵选项映射为空串（=跳过）。
func Normalize(v string) string {
	if v == NoneChoice {
		return ""
	}
	return v
}

func ask(ctx context.Context, field string, fn func() (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &PromptError{Field: field, Err: err}
	}
	v, err := fn()
	if err != nil {
		return "", &PromptError{Field: field, Err: err}
	}
	return v, nil
}
