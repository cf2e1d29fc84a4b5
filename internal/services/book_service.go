// Package services – BookService
//
// BookService owns the book lifecycle: it parses identifiers, validates
// requests, computes pagination and coordinates repository calls. It never
// translates errors: repository failures arrive as apperr.NotFoundError or
// apperr.DatabaseError and are returned unchanged to the HTTP boundary.
//
// The unexported operations (create, fetch, list, update, remove) are tagged
// with the method-entry interceptor when the service is constructed; the
// exported methods always go through the tagged versions.
package services

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-book-service/internal/apperr"
	"github.com/tbourn/go-book-service/internal/domain"
	"github.com/tbourn/go-book-service/internal/intercept"
	"github.com/tbourn/go-book-service/internal/utils"
)

// BookRepo defines the repository contract required by BookService.
type BookRepo interface {
	CreateBook(ctx context.Context, db *gorm.DB, req domain.BookRequest) (*domain.Book, error)
	GetBook(ctx context.Context, db *gorm.DB, id domain.BookID) (*domain.Book, error)
	CountBooks(ctx context.Context, db *gorm.DB, f domain.BookFilter) (int64, error)
	ListBooksPage(ctx context.Context, db *gorm.DB, f domain.BookFilter, offset, limit int) ([]domain.Book, error)
	UpdateBook(ctx context.Context, db *gorm.DB, id domain.BookID, req domain.BookRequest) (*domain.Book, error)
	DeleteBook(ctx context.Context, db *gorm.DB, id domain.BookID) error
	BooksStats(ctx context.Context, db *gorm.DB, f domain.BookFilter) (int64, *time.Time, error)
}

// IdempotencyRepo stores Idempotency-Key records. GetIdempotency fails when
// no live record exists; IsDuplicate recognises CreateIdempotency's error for
// a key that is already taken.
type IdempotencyRepo interface {
	GetIdempotency(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Idempotency, error)
	CreateIdempotency(ctx context.Context, db *gorm.DB, key string, bookID domain.BookID, status int, ttl time.Duration) (*domain.Idempotency, error)
	DeleteIdempotency(ctx context.Context, db *gorm.DB, key string) error
	IsDuplicate(err error) bool
}

// ListQuery selects a page of books.
type ListQuery struct {
	Filter   domain.BookFilter
	Page     int
	PageSize int
}

// Page is one page of books plus the total match count.
type Page struct {
	Books []domain.Book
	Total int64
}

// BookService provides the book operations consumed by HTTP handlers.
type BookService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the book repository.
	Repo BookRepo
	// Idem stores idempotency records; nil disables idempotent creates.
	Idem IdempotencyRepo
	// IdempotencyTTL is how long a key replays its first result.
	IdempotencyTTL time.Duration

	create func(context.Context, *gorm.DB, domain.BookRequest) (*domain.Book, error)
	fetch  func(context.Context, domain.BookID) (*domain.Book, error)
	list   func(context.Context, ListQuery) (Page, error)
	update func(context.Context, domain.BookID, domain.BookRequest) (*domain.Book, error)
	remove func(context.Context, domain.BookID) error
}

// NewBookService wires a BookService and tags its internal operations with tr
// (nil logs through the global logger).
func NewBookService(db *gorm.DB, r BookRepo, idem IdempotencyRepo, tr *intercept.Interceptor) *BookService {
	s := &BookService{
		DB:             db,
		Repo:           r,
		Idem:           idem,
		IdempotencyTTL: 24 * time.Hour,
	}
	s.create = intercept.Func2(tr, intercept.Tag{Description: "persist a new book"}, s.insertBook)
	s.fetch = intercept.Func(tr, intercept.Tag{Description: "look up a book by id"}, s.findBook)
	s.list = intercept.Func(tr, intercept.Tag{Description: "list a page of books"}, s.pageBooks)
	s.update = intercept.Func2(tr, intercept.Tag{Description: "overwrite title and author"}, s.replaceBook)
	s.remove = intercept.Proc(tr, intercept.Tag{Description: "delete a book"}, s.deleteBook)
	return s
}

// Create validates req and stores a new book with a generated ID.
func (s *BookService) Create(ctx context.Context, req domain.BookRequest) (*domain.Book, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	return s.create(ctx, s.DB, req)
}

// CreateIdempotent behaves like Create, except that a key seen within
// IdempotencyTTL returns the book created by its first use and replayed=true.
// An empty key or a service without an idempotency store falls back to Create.
func (s *BookService) CreateIdempotent(ctx context.Context, key string, req domain.BookRequest) (book *domain.Book, replayed bool, err error) {
	if key == "" || s.Idem == nil {
		book, err = s.Create(ctx, req)
		return book, false, err
	}
	if err := validate(req); err != nil {
		return nil, false, err
	}

	prev, err := s.replay(ctx, s.DB, key)
	switch {
	case err == nil:
		return prev, true, nil
	case apperr.IsNotFound(err):
		// The book behind the key was deleted; the key starts over.
		if err := s.Idem.DeleteIdempotency(ctx, s.DB, key); err != nil {
			return nil, false, storageFailure(err)
		}
	case apperr.IsDatabase(err):
		return nil, false, err
	}

	err = s.inTx(ctx, func(tx *gorm.DB) error {
		b, err := s.create(ctx, tx, req)
		if err != nil {
			return err
		}
		if _, err := s.Idem.CreateIdempotency(ctx, tx, key, b.ID, http.StatusCreated, s.IdempotencyTTL); err != nil {
			return err
		}
		book = b
		return nil
	})
	if err != nil && s.Idem.IsDuplicate(err) {
		// Lost a race with a concurrent request using the same key.
		prev, rerr := s.replay(ctx, s.DB, key)
		if rerr != nil {
			return nil, false, rerr
		}
		return prev, true, nil
	}
	if err != nil {
		return nil, false, storageFailure(err)
	}
	return book, false, nil
}

// Get returns the book identified by rawID.
func (s *BookService) Get(ctx context.Context, rawID string) (*domain.Book, error) {
	id, err := domain.ParseBookID(rawID)
	if err != nil {
		return nil, invalidID(rawID)
	}
	return s.fetch(ctx, id)
}

// List returns a page of books matching q.Filter and the total match count.
// Invalid page/pageSize values fall back to 1 and 20.
func (s *BookService) List(ctx context.Context, q ListQuery) ([]domain.Book, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	p, err := s.list(ctx, q)
	return p.Books, p.Total, err
}

// Fingerprint returns the match count and latest update time for f, used for
// weak ETags on list responses.
func (s *BookService) Fingerprint(ctx context.Context, f domain.BookFilter) (int64, *time.Time, error) {
	return s.Repo.BooksStats(ctx, s.DB, f)
}

// Update overwrites title and author of the book identified by rawID.
func (s *BookService) Update(ctx context.Context, rawID string, req domain.BookRequest) (*domain.Book, error) {
	id, err := domain.ParseBookID(rawID)
	if err != nil {
		return nil, invalidID(rawID)
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	return s.update(ctx, id, req)
}

// Delete removes the book identified by rawID.
func (s *BookService) Delete(ctx context.Context, rawID string) error {
	id, err := domain.ParseBookID(rawID)
	if err != nil {
		return invalidID(rawID)
	}
	return s.remove(ctx, id)
}

// insertBook stores a new book through db, which is s.DB or an open transaction.
func (s *BookService) insertBook(ctx context.Context, db *gorm.DB, req domain.BookRequest) (*domain.Book, error) {
	return s.Repo.CreateBook(ctx, db, req)
}

func (s *BookService) findBook(ctx context.Context, id domain.BookID) (*domain.Book, error) {
	return s.Repo.GetBook(ctx, s.DB, id)
}

func (s *BookService) pageBooks(ctx context.Context, q ListQuery) (Page, error) {
	total, err := s.Repo.CountBooks(ctx, s.DB, q.Filter)
	if err != nil {
		return Page{}, err
	}
	if total == 0 {
		return Page{Books: []domain.Book{}}, nil
	}
	items, err := s.Repo.ListBooksPage(ctx, s.DB, q.Filter, utils.Offset(q.Page, q.PageSize), q.PageSize)
	if err != nil {
		return Page{}, err
	}
	return Page{Books: items, Total: total}, nil
}

func (s *BookService) replaceBook(ctx context.Context, id domain.BookID, req domain.BookRequest) (*domain.Book, error) {
	return s.Repo.UpdateBook(ctx, s.DB, id, req)
}

func (s *BookService) deleteBook(ctx context.Context, id domain.BookID) error {
	return s.Repo.DeleteBook(ctx, s.DB, id)
}

// replay loads the book recorded for key.
func (s *BookService) replay(ctx context.Context, db *gorm.DB, key string) (*domain.Book, error) {
	rec, err := s.Idem.GetIdempotency(ctx, db, key, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, rec.BookID)
}

// inTx runs fn inside a transaction when a DB is configured.
func (s *BookService) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.DB == nil {
		return fn(nil)
	}
	return s.DB.WithContext(ctx).Transaction(fn)
}

// validate enforces the non-empty title/author invariant. Values are not
// trimmed or otherwise normalized.
func validate(req domain.BookRequest) error {
	switch {
	case req.Title == "":
		return ErrTitleRequired
	case req.Author == "":
		return ErrAuthorRequired
	}
	return nil
}
