package repository

import "gorm.io/gorm"

// applyPagination 应用分页参数。pageSize 不大于 0 时视为不分页，
// 非法页码回退到第一页。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}
