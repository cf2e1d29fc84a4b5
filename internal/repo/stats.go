// Package repo implements the data persistence layer for the book service.
// This file provides the aggregate query behind the list endpoint's ETag.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-book-service/internal/apperr"
	"github.com/tbourn/go-book-service/internal/domain"
)

// BooksStats returns the number of books matching f and the greatest
// UpdatedAt among them. maxUpdatedAt is nil when nothing matches.
func BooksStats(ctx context.Context, db *gorm.DB, f domain.BookFilter) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = applyFilter(db.WithContext(ctx).Model(&domain.Book{}), f).Count(&count).Error; err != nil {
		return 0, nil, apperr.Database("unable to count books", err)
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Order+Limit instead of MAX(): SQLite returns MAX(datetime) as TEXT.
	var row struct {
		UpdatedAt time.Time
	}
	q := applyFilter(db.WithContext(ctx).Model(&domain.Book{}), f)
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, apperr.Database("unable to read book stats", err)
	}
	return count, &row.UpdatedAt, nil
}
