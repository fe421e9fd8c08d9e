// Package repository 定义书籍、章节与社交数据的存取接口
package repository

import (
	"context"
)

// 列表接口的分页约束
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TxKey 携带进行中事务的上下文键，存储实现据此复用同一连接
type TxKey struct{}

// Transactor 将 fn 内的所有仓储调用包裹在同一事务中，fn 返回错误则回滚
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pagination 书籍列表与评论列表的页码参数，Page 从 1 开始
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPagination 规范化客户端传入的页码，越界值回落到默认或上限
func NewPagination(page, pageSize int) Pagination {
	p := Pagination{Page: max(page, 1), PageSize: pageSize}
	switch {
	case p.PageSize <= 0:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Pagination) Offset() int { return (p.Page - 1) * p.PageSize }

func (p Pagination) Limit() int { return p.PageSize }

// PagedResult 一页数据及总数
type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPagedResult 根据总数计算总页数（向上取整）
func NewPagedResult[T any](items []T, total int64, p Pagination) *PagedResult[T] {
	size := int64(max(p.PageSize, 1))
	return &PagedResult[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: int((total + size - 1) / size),
	}
}
