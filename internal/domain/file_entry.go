package domain

// FileEntry 描述一次扫描得到的目录项（只看名字，不读内容）。
//
// 不变量（实现必须遵守）：
// - FullName = Stem + Ext
// - Ext 是最后一个扩展名（含前导 '.'），没有则为空串
// - 扫描结束后不可变
type FileEntry struct {
	FullName string
	Stem     string // filename without final ext
	Ext      string // ".mp4"
}
