package option

import (
	"gorm.io/gorm"

	"github.com/refgate/refgate/pkg/db/pagination"
)

// Option mutates a gorm statement. Options compose left to right.
type Option interface {
	Apply(*gorm.DB) *gorm.DB
}

type optionFunc func(*gorm.DB) *gorm.DB

func (f optionFunc) Apply(stmt *gorm.DB) *gorm.DB { return f(stmt) }

// ApplyPagination applies cursor pagination for queries ordered by
// (created_at desc, id desc). It fetches one extra row so the caller can
// tell whether another page exists. A bad token is treated as no token.
func ApplyPagination(page pagination.Pagination) Option {
	return optionFunc(func(stmt *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = 20
		}
		if page.PageToken != "" {
			cursor, err := pagination.DecodeCursor(page.PageToken)
			if err == nil && cursor.CreatedAt != "" {
				stmt = stmt.Where(
					"(created_at < ?) OR (created_at = ? AND id < ?)",
					cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
				)
			}
		}
		return stmt.Limit(size + 1)
	})
}
