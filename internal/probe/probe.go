// Package probe 从媒体容器里读取 creation_time（只读元数据，不解码音视频）。
//
// 是否探测由扩展名决定（IsVideoExt），不做内容嗅探；非视频文件永远不探测。
package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// 视频容器扩展名（小写，含 '.'）。
var videoExtensions = map[string]bool{
	".mkv":  true,
	".mp4":  true,
	".avi":  true,
	".m4v":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".ts":   true,
	".m2ts": true,
	".mpg":  true,
	".mpeg": true,
	".vob":  true,
	".ogv":  true,
}

// IsVideoExt 判断扩展名是否为视频容器（大小写不敏感）。
func IsVideoExt(ext string) bool {
	return videoExtensions[strings.ToLower(ext)]
}

// Prober 读取单个文件的容器级 creation_time。
//
// 约束：
// - 标签缺失不是错误：返回 ("", nil)
// - 探测工具本身失败（文件损坏、格式不支持、I/O）才返回 error
type Prober interface {
	CreationTime(ctx context.Context, path string) (string, error)
}

// Error 表示探测工具本身失败。
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("探测失败：%q：%v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// 测试可替换：避免依赖真实 ffprobe。
var probeFunc = ffmpeg.ProbeWithTimeout

// FFProbe 通过 ffprobe（-show_format -show_streams -of json）读取元数据。
type FFProbe struct {
	// Timeout<=0 表示不限时。
	Timeout time.Duration
}

func (p FFProbe) CreationTime(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Path: path, Err: err}
	}
	out, err := probeFunc(path, p.Timeout, ffmpeg.KwArgs{})
	if err != nil {
		return "", &Error{Path: path, Err: err}
	}
	ct, err := ParseCreationTime([]byte(out))
	if err != nil {
		return "", &Error{Path: path, Err: err}
	}
	return ct, nil
}

var errInvalidJSON = errors.New("ffprobe 输出不是合法 JSON")

// ParseCreationTime 从 ffprobe JSON 中取 creation_time。
//
// 查找顺序：format.tags.creation_time → 第一个带该标签的 stream。都没有则返回空串。
func ParseCreationTime(data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", errInvalidJSON
	}

	if r := gjson.GetBytes(data, "format.tags.creation_time"); r.Exists() {
		return r.String(), nil
	}
	for _, r := range gjson.GetBytes(data, "streams.#.tags.creation_time").Array() {
		if s := r.String(); s != "" {
			return s, nil
		}
	}
	return "", nil
}
