// Package storeerr 将存储层错误归类为少量稳定的种类，
// 处理器按种类映射 HTTP 状态码，不做错误消息字符串匹配。
package storeerr

import (
	"errors"

	"gorm.io/gorm"
)

// Kind 表示存储错误的分类。
type Kind int

const (
	// KindUnknown 是无法归类的存储失败，映射为 500。
	KindUnknown Kind = iota
	// KindNotFound 表示记录不存在，映射为 404。
	KindNotFound
	// KindDuplicate 表示唯一约束冲突（slug/key/name/email），映射为 409。
	KindDuplicate
)

// Classify 返回错误的分类。依赖 gorm 的 TranslateError 把各驱动的
// 唯一约束错误统一为 gorm.ErrDuplicatedKey。
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return KindDuplicate
	default:
		return KindUnknown
	}
}

// IsNotFound 判断错误是否为记录不存在。
func IsNotFound(err error) bool {
	return Classify(err) == KindNotFound
}

// IsDuplicate 判断错误是否为唯一约束冲突。
func IsDuplicate(err error) bool {
	return Classify(err) == KindDuplicate
}
