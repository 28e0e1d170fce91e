package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// ManifestName 是清单文件名（写在工作目录下，每次运行整体覆盖）。
	ManifestName = "yt-manager.json"
	// ManifestMarker 是保留子串：名字里包含它的目录项永远不参与扫描。
	ManifestMarker = "yt-manager"
)

// ManifestEntry 是某个难度重命名后的记录。
//
// VideoTitle / CreationTime 是否出现取决于运行模式：
// - nil：该模式不产出此字段（JSON 中省略）
// - 非 nil 空串：该模式产出此字段，但没有值（例如视频没有 creation_time 标签）
type ManifestEntry struct {
	ID               string  `json:"id"`
	OriginalFileName string  `json:"originalFileName"`
	VideoTitle       *string `json:"videoTitle,omitempty"`
	CreationTime     *string `json:"creationTime,omitempty"`
}

// Manifest 对应 yt-manager.json 的顶层结构。
type Manifest struct {
	LevelInfo LevelInfo `json:"levelInfo"`
}

// Add 追加一条记录；同 ID 的旧记录被替换（位置不变）。
func (m *Manifest) Add(e ManifestEntry) {
	for i := range m.LevelInfo {
		if m.LevelInfo[i].ID == e.ID {
			m.LevelInfo[i] = e
			return
		}
	}
	m.LevelInfo = append(m.LevelInfo, e)
}

// LevelInfo 是 id -> ManifestEntry 的有序映射。
//
// encoding/json 对 map 按 key 排序输出；清单要求“插入顺序”，所以这里用切片承载，
// 并自定义 JSON 编解码为对象形式。
type LevelInfo []ManifestEntry

// Get 按 ID 查找记录。
func (li LevelInfo) Get(id string) (ManifestEntry, bool) {
	for _, e := range li {
		if e.ID == id {
			return e, true
		}
	}
	return ManifestEntry{}, false
}

// IDs 按插入顺序返回全部 key。
func (li LevelInfo) IDs() []string {
	out := make([]string, 0, len(li))
	for _, e := range li {
		out = append(out, e.ID)
	}
	return out
}

func (li LevelInfo) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range li {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalNoEscape(e.ID)
		if err != nil {
			return nil, err
		}
		v, err := marshalNoEscape(e)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (li *LevelInfo) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*li = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("levelInfo 必须是对象，实际是 %v", tok)
	}

	out := LevelInfo{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("levelInfo key 必须是字符串，实际是 %v", kt)
		}
		var e ManifestEntry
		if err := dec.Decode(&e); err != nil {
			return fmt.Errorf("levelInfo[%q]：%w", key, err)
		}
		// key 才是权威 ID；条目内 id 缺失时用 key 补齐。
		if e.ID == "" {
			e.ID = key
		}
		replaced := false
		for i := range out {
			if out[i].ID == e.ID {
				out[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, e)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*li = out
	return nil
}

// marshalNoEscape 与 json.Marshal 相同，但不做 HTML 转义（视频标题里可能出现 <>&）。
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return []byte(strings.TrimRight(buf.String(), "\n")), nil
}

// EncodeManifest 把清单编码为 2 空格缩进的 JSON（末尾带换行）。
func EncodeManifest(m Manifest) ([]byte, error) {
	if m.LevelInfo == nil {
		m.LevelInfo = LevelInfo{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
