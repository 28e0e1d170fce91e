// Package prompt 是基于 survey 的终端交互实现（selection.Prompter）。
package prompt

import (
	"context"
	"errors"
	"io"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrInterrupted 表示用户在提问时按下了 Ctrl+C。
var ErrInterrupted = errors.New("用户中断")

// 测试可替换：避免依赖真实终端。
var askOne = survey.AskOne

// Survey 在终端上提问。In/Out/Err 为空时使用 survey 默认的 stdio。
type Survey struct {
	In  terminal.FileReader
	Out terminal.FileWriter
	Err io.Writer

	// PageSize<=0 时使用 survey 默认值。
	PageSize int
}

// Input 读取一段必填文本。
func (s Survey) Input(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	opts := append(s.opts(), survey.WithValidator(survey.Required))
	if err := askOne(&survey.Input{Message: label}, &out, opts...); err != nil {
		return "", mapErr(err)
	}
	return out, nil
}

// Select 从 options 中选择一项，返回选中项本身。
func (s Survey) Select(ctx context.Context, label string, options []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(options) == 0 {
		return "", errors.New("没有可选项")
	}
	var out string
	p := &survey.Select{
		Message:  label,
		Options:  options,
		PageSize: s.PageSize,
	}
	if err := askOne(p, &out, s.opts()...); err != nil {
		return "", mapErr(err)
	}
	return out, nil
}

func (s Survey) opts() []survey.AskOpt {
	if s.In == nil || s.Out == nil {
		return nil
	}
	errw := s.Err
	if errw == nil {
		errw = io.Discard
	}
	return []survey.AskOpt{survey.WithStdio(s.In, s.Out, errw)}
}

func mapErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrInterrupted
	}
	return err
}
