// Package repo implements the data persistence layer for the book service.
// This file stores Idempotency-Key records for POST /books.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-book-service/internal/domain"
)

var (
	// ErrNotFound is returned when no live idempotency record exists.
	ErrNotFound = gorm.ErrRecordNotFound
	// ErrDuplicate indicates that a record for the key already exists.
	ErrDuplicate = errors.New("duplicate idempotency key")
)

// GetIdempotency returns the non-expired record for key, or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteIdempotency removes every record for key, live or expired.
func DeleteIdempotency(ctx context.Context, db *gorm.DB, key string) error {
	return db.WithContext(ctx).Where("key = ?", key).Delete(&domain.Idempotency{}).Error
}

// CreateIdempotency records that key produced bookID with status. It returns
// ErrDuplicate when the key is already taken. Expired records for the same
// key are purged first so a key can be reused after its TTL.
func CreateIdempotency(ctx context.Context, db *gorm.DB, key string, bookID domain.BookID, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	if err := db.WithContext(ctx).
		Where("key = ? AND expires_at <= ?", key, now).
		Delete(&domain.Idempotency{}).Error; err != nil {
		return nil, err
	}

	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		Key:       key,
		BookID:    bookID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		// glebarez/sqlite reports UNIQUE violations as plain text.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
