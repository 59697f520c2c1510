// Package query 为所有列表接口提供统一的过滤、排序与分页。
// 过滤条件是不可变的谓词列表，分页查询与计数查询共用同一份谓词，
// 保证分页元数据与返回页一致。
package query

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const (
	// DefaultLimit 是未显式指定 limit 时的默认页大小。
	DefaultLimit = 10
	// MaxLimit 是 limit 的上限，超出即拒绝。
	MaxLimit = 100
)

// ErrInvalidPagination 表示 page/limit 非法。调用方应返回 400 而不是静默修正。
var ErrInvalidPagination = errors.New("invalid pagination parameters")

// Params 是从查询串解析出的通用列表参数。
type Params struct {
	Page   int
	Limit  int
	Search string
	Sort   string
}

// Desc 返回是否按降序排序。
func (p Params) Desc() bool { return p.Sort != "asc" }

// Offset 返回偏移量。
func (p Params) Offset() int { return (p.Page - 1) * p.Limit }

// Parse 解析 page/limit/search/sort。非法的 page 或 limit 直接报错，
// 不做钳制，让调用方能把拒绝暴露给客户端。
func Parse(values url.Values, defaultLimit int) (Params, error) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}

	p := Params{
		Page:   1,
		Limit:  defaultLimit,
		Search: strings.TrimSpace(values.Get("search")),
		Sort:   "desc",
	}

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Params{}, fmt.Errorf("%w: page must be a positive integer", ErrInvalidPagination)
		}
		p.Page = page
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > MaxLimit {
			return Params{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidPagination, MaxLimit)
		}
		p.Limit = limit
	}

	if raw := values.Get("sort"); raw != "" {
		switch raw {
		case "asc", "desc":
			p.Sort = raw
		default:
			return Params{}, fmt.Errorf("%w: sort must be asc or desc", ErrInvalidPagination)
		}
	}

	return p, nil
}

type condition struct {
	expr string
	args []any
}

// Spec 是一组以 AND 组合的过滤谓词加一个排序项。零值可用；
// 所有方法返回新的 Spec，原值不被修改。
type Spec struct {
	conds    []condition
	orderCol string
	desc     bool
}

// Where 追加一个谓词。
func (s Spec) Where(expr string, args ...any) Spec {
	conds := make([]condition, len(s.conds), len(s.conds)+1)
	copy(conds, s.conds)
	s.conds = append(conds, condition{expr: expr, args: args})
	return s
}

// Search 追加大小写不敏感的子串匹配，多列之间以 OR 组合。
// term 为空时不追加任何谓词。
func (s Spec) Search(term string, cols ...string) Spec {
	term = strings.TrimSpace(term)
	if term == "" || len(cols) == 0 {
		return s
	}

	pattern := "%" + strings.ToLower(term) + "%"
	parts := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, "LOWER("+col+") LIKE ?")
		args = append(args, pattern)
	}
	return s.Where("("+strings.Join(parts, " OR ")+")", args...)
}

// OrderBy 设置排序列与方向。
func (s Spec) OrderBy(col string, desc bool) Spec {
	s.orderCol = col
	s.desc = desc
	return s
}

func (s Spec) apply(tx *gorm.DB) *gorm.DB {
	for _, c := range s.conds {
		tx = tx.Where(c.expr, c.args...)
	}
	return tx
}

func (s Spec) applyOrder(tx *gorm.DB) *gorm.DB {
	col := s.orderCol
	if col == "" {
		col = "created_at"
	}
	direction := "ASC"
	if s.desc {
		direction = "DESC"
	}
	// id 作为次级排序键，保证翻页时排序稳定。
	return tx.Order(col + " " + direction).Order("id ASC")
}

// Pagination 是列表响应中的分页元数据。
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// Page 是一页结果与其分页元数据。
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

// List 在同一份谓词下执行计数与取页。preloads 用于附带关联加载。
func List[T any](db *gorm.DB, spec Spec, params Params, preloads ...string) (Page[T], error) {
	var model T

	var total int64
	if err := spec.apply(db.Model(&model)).Count(&total).Error; err != nil {
		return Page[T]{}, fmt.Errorf("count rows: %w", err)
	}

	tx := spec.apply(db.Model(&model))
	tx = spec.applyOrder(tx)
	for _, preload := range preloads {
		tx = tx.Preload(preload)
	}

	items := make([]T, 0, params.Limit)
	if err := tx.Limit(params.Limit).Offset(params.Offset()).Find(&items).Error; err != nil {
		return Page[T]{}, fmt.Errorf("fetch page: %w", err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(params.Limit)))
	return Page[T]{
		Items: items,
		Pagination: Pagination{
			Page:       params.Page,
			Limit:      params.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    params.Page < totalPages,
			HasPrev:    params.Page > 1,
		},
	}, nil
}
