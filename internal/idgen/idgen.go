// Package idgen 提供唯一 ID 的来源。重命名后的文件名就是 {id}{ext}，所以 ID 必须是文件名安全的。
package idgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	FormatUUID   = "uuid"
	FormatNanoID = "nanoid"
)

// Generator 每次调用返回一个新的全局唯一字符串。
type Generator interface {
	New() (string, error)
}

// Func 让普通函数满足 Generator（测试里常用）。
type Func func() (string, error)

func (f Func) New() (string, error) { return f() }

// UUID 生成随机 UUID（v4）。
type UUID struct{}

func (UUID) New() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// NanoID 生成 nanoid；Size<=0 时使用库默认长度（21）。
type NanoID struct {
	Size int
}

func (g NanoID) New() (string, error) {
	if g.Size > 0 {
		return gonanoid.New(g.Size)
	}
	return gonanoid.New()
}

// ForFormat 按配置名返回 Generator。
func ForFormat(format string) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatUUID:
		return UUID{}, nil
	case FormatNanoID:
		return NanoID{}, nil
	default:
		return nil, fmt.Errorf("id 格式只能是 uuid 或 nanoid，实际是 %q", format)
	}
}
