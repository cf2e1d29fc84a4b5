// Package domain defines the persistence and request models of the book
// service. Persisted types are mapped with GORM; BookRequest is the external
// input shape and is never stored directly.
package domain

import "time"

// Book is a persisted book.
//
// The ID is assigned once by the repository at insert time and never
// changes. The JSON form exposes only id, title and author.
type Book struct {
	ID        BookID    `json:"id"     gorm:"type:binary(16);primaryKey" swaggertype:"string" format:"uuid" example:"3f1c2a9e-7b6d-4e55-9a0b-2d8c4f1e6a77"`
	Title     string    `json:"title"  gorm:"type:varchar(255);not null" example:"The Left Hand of Darkness"`
	Author    string    `json:"author" gorm:"type:varchar(255);not null;index:idx_books_author" example:"Ursula K. Le Guin"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"      gorm:"index:idx_books_updated"`
}

// TableName returns the database table name for Book.
func (Book) TableName() string { return "book" }

// BookRequest is the payload accepted when creating or updating a book.
// It carries no identity; callers can never choose a book's ID.
type BookRequest struct {
	Title  string `json:"title"  binding:"required,max=255" example:"The Left Hand of Darkness"`
	Author string `json:"author" binding:"required,max=255" example:"Ursula K. Le Guin"`
}

// NewBook copies the request fields into a Book carrying id.
func (r BookRequest) NewBook(id BookID) Book {
	return Book{ID: id, Title: r.Title, Author: r.Author}
}

// ApplyTo overwrites title and author on b. The ID is left untouched.
func (r BookRequest) ApplyTo(b *Book) {
	b.Title = r.Title
	b.Author = r.Author
}

// BookFilter narrows list queries. Empty fields match everything; non-empty
// fields match case-insensitive substrings.
type BookFilter struct {
	Title  string
	Author string
}
