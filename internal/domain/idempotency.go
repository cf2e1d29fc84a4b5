package domain

import "time"

// Idempotency records the book produced by a create request carrying an
// Idempotency-Key, so a retried request can be answered with the same book
// instead of inserting a duplicate.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_key"`
	BookID    BookID    `gorm:"type:binary(16);not null"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
