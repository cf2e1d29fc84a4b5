// Package repo implements the data persistence layer for the book service,
// backed by GORM. This file provides repository functions for the Book model.
//
// All functions accept a *gorm.DB so they compose inside transactions. They
// are the only place GORM errors are inspected; callers receive taxonomy
// errors from package apperr:
//   - apperr.NotFoundError when no row matches the given id
//   - apperr.DatabaseError for everything else, with the GORM error as cause
//
// IDs are generated here, at insert time, and never accepted from callers.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-book-service/internal/apperr"
	"github.com/tbourn/go-book-service/internal/domain"
)

// CreateBook inserts a new book built from req with a freshly generated ID.
func CreateBook(ctx context.Context, db *gorm.DB, req domain.BookRequest) (*domain.Book, error) {
	b := req.NewBook(domain.NewBookID())
	if err := db.WithContext(ctx).Create(&b).Error; err != nil {
		return nil, apperr.Database("unable to save book", err)
	}
	return &b, nil
}

// GetBook fetches a single book by id.
func GetBook(ctx context.Context, db *gorm.DB, id domain.BookID) (*domain.Book, error) {
	var b domain.Book
	err := db.WithContext(ctx).Where("id = ?", id).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, bookNotFound(id)
	}
	if err != nil {
		return nil, apperr.Database(fmt.Sprintf("unable to read book %s", id), err)
	}
	return &b, nil
}

// CountBooks returns the number of books matching f.
func CountBooks(ctx context.Context, db *gorm.DB, f domain.BookFilter) (int64, error) {
	var total int64
	err := applyFilter(db.WithContext(ctx).Model(&domain.Book{}), f).Count(&total).Error
	if err != nil {
		return 0, apperr.Database("unable to count books", err)
	}
	return total, nil
}

// ListBooksPage returns a slice of books matching f, newest first.
// The caller computes offset and limit (e.g., (page-1)*pageSize).
func ListBooksPage(ctx context.Context, db *gorm.DB, f domain.BookFilter, offset, limit int) ([]domain.Book, error) {
	out := []domain.Book{}
	err := applyFilter(db.WithContext(ctx).Model(&domain.Book{}), f).
		Order("created_at desc").
		Order("title asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, apperr.Database("unable to list books", err)
	}
	return out, nil
}

// UpdateBook overwrites title and author of the book with id and returns the
// stored result. The id itself is never written.
func UpdateBook(ctx context.Context, db *gorm.DB, id domain.BookID, req domain.BookRequest) (*domain.Book, error) {
	var out *domain.Book
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := GetBook(ctx, tx, id)
		if err != nil {
			return err
		}
		req.ApplyTo(b)
		res := tx.Model(&domain.Book{}).
			Where("id = ?", id).
			Updates(map[string]any{"title": b.Title, "author": b.Author})
		if res.Error != nil {
			return apperr.Database(fmt.Sprintf("unable to update book %s", id), res.Error)
		}
		out, err = GetBook(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, asTaxonomy(err, "unable to update book")
	}
	return out, nil
}

// DeleteBook removes the book with id.
func DeleteBook(ctx context.Context, db *gorm.DB, id domain.BookID) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Book{})
	if res.Error != nil {
		return apperr.Database(fmt.Sprintf("unable to delete book %s", id), res.Error)
	}
	if res.RowsAffected == 0 {
		return bookNotFound(id)
	}
	return nil
}

func applyFilter(q *gorm.DB, f domain.BookFilter) *gorm.DB {
	if t := strings.TrimSpace(f.Title); t != "" {
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\'`, likePattern(t))
	}
	if a := strings.TrimSpace(f.Author); a != "" {
		q = q.Where(`LOWER(author) LIKE ? ESCAPE '\'`, likePattern(a))
	}
	return q
}

// likePattern lower-cases s, escapes LIKE wildcards and wraps it in %...%.
func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(s))
	return "%" + s + "%"
}

func bookNotFound(id domain.BookID) error {
	return apperr.NotFound(fmt.Sprintf("Book with id %s not found", id))
}

// asTaxonomy keeps taxonomy errors as they are and wraps anything else (e.g.
// a failed COMMIT) as a DatabaseError.
func asTaxonomy(err error, msg string) error {
	var ae apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Database(msg, err)
}
