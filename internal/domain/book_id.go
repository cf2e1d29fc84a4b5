package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

// BookID is a book's identity. It is stored as a 16-byte binary column and
// rendered as the canonical UUID string in JSON and URLs.
type BookID uuid.UUID

// NilBookID is the zero identity; persisted books never carry it.
var NilBookID BookID

// NewBookID returns a fresh random (v4) identity.
func NewBookID() BookID { return BookID(uuid.New()) }

// ParseBookID parses the canonical string form (as accepted by uuid.Parse).
func ParseBookID(s string) (BookID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilBookID, err
	}
	return BookID(u), nil
}

// String returns the canonical 36-char UUID form.
func (id BookID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether id is the zero identity.
func (id BookID) IsNil() bool { return id == NilBookID }

// MarshalText renders the canonical string form; encoding/json uses it.
func (id BookID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the canonical string form.
func (id *BookID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = BookID(u)
	return nil
}

// Value stores the raw 16 bytes.
func (id BookID) Value() (driver.Value, error) {
	b := make([]byte, 16)
	copy(b, id[:])
	return b, nil
}

// Scan accepts the raw 16-byte form, and the textual form for rows written by
// other tools.
func (id *BookID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*id = NilBookID
		return nil
	case []byte:
		if len(v) == 16 {
			copy(id[:], v)
			return nil
		}
		return id.UnmarshalText(v)
	case string:
		return id.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("book id: cannot scan %T", src)
	}
}
