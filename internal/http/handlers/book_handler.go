// Book HTTP handlers.
//
// This file exposes REST endpoints for book resources:
//   - POST   /books        (create, honours Idempotency-Key)
//   - GET    /books        (list, filtered and paginated, ETag support)
//   - GET    /books/{id}   (read)
//   - PUT    /books/{id}   (overwrite title and author)
//   - DELETE /books/{id}   (delete)
//
// Handlers are transport-thin: they bind input, call the book service and
// write results. Every failure goes through fail(), so the error body is
// always an apperr.ErrorInfo.
package handlers

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-book-service/internal/domain"
	"github.com/tbourn/go-book-service/internal/http/middleware"
	"github.com/tbourn/go-book-service/internal/services"
	"github.com/tbourn/go-book-service/internal/utils"
)

// HeaderIdempotentReplay marks a POST /books response that replays the book
// created by an earlier request with the same Idempotency-Key.
const HeaderIdempotentReplay = "Idempotent-Replay"

// BookService defines the book operations consumed by HTTP handlers.
//
// Implementations must be safe for concurrent use and honor ctx. Errors are
// expected to belong to the apperr taxonomy.
type BookService interface {
	Create(ctx context.Context, req domain.BookRequest) (*domain.Book, error)
	CreateIdempotent(ctx context.Context, key string, req domain.BookRequest) (*domain.Book, bool, error)
	Get(ctx context.Context, id string) (*domain.Book, error)
	List(ctx context.Context, q services.ListQuery) ([]domain.Book, int64, error)
	Fingerprint(ctx context.Context, f domain.BookFilter) (int64, *time.Time, error)
	Update(ctx context.Context, id string, req domain.BookRequest) (*domain.Book, error)
	Delete(ctx context.Context, id string) error
}

// Handlers groups the book endpoints.
type Handlers struct {
	books BookService
}

// New constructs Handlers bound to svc.
func New(svc BookService) *Handlers {
	return &Handlers{books: svc}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListBooksResponse wraps a page of books and pagination information.
type ListBooksResponse struct {
	Books      []domain.Book `json:"books"`
	Pagination Pagination    `json:"pagination"`
}

// CreateBook godoc
// @ID          createBook
// @Summary     Create a book
// @Description Stores a new book and returns it with its generated id. A repeated Idempotency-Key returns the original book with 200 and Idempotent-Replay: true.
// @Tags        Books
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string              false  "Client-chosen key for safe retries"  example(create-42)
// @Param       body             body    domain.BookRequest  true   "Book payload"
//
// @Success     201  {object}  domain.Book
// @Success     200  {object}  domain.Book             "Idempotent replay"
// @Header      200  {string}  Idempotent-Replay       "true on replay"
// @Failure     400  {object}  apperr.ErrorInfo        "Validation error or malformed payload"
// @Failure     429  {object}  apperr.ErrorInfo        "Rate limited"
// @Failure     500  {object}  apperr.ErrorInfo        "Database error"
// @Router      /books [post]
func (h *Handlers) CreateBook(c *gin.Context) {
	var req domain.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	key, _ := middleware.GetIdempotencyKey(c)
	b, replayed, err := h.books.CreateIdempotent(c.Request.Context(), key, req)
	if err != nil {
		fail(c, err)
		return
	}
	if replayed {
		c.Header(HeaderIdempotentReplay, "true")
		ok(c, http.StatusOK, b)
		return
	}
	ok(c, http.StatusCreated, b)
}

// ListBooks godoc
// @ID          listBooks
// @Summary     List books (filtered, paginated)
// @Description Returns a page of books, newest first. title and author filter by case-insensitive substring. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Books
// @Produce     json
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"books:3:1700000000:1:20:9f2c\")
// @Param       title          query   string  false  "Title substring"
// @Param       author         query   string  false  "Author substring"
// @Param       page           query   int     false  "Page number"      minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"   minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListBooksResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} apperr.ErrorInfo "Database error"
// @Router      /books [get]
func (h *Handlers) ListBooks(c *gin.Context) {
	ctx := c.Request.Context()
	filter := domain.BookFilter{Title: c.Query("title"), Author: c.Query("author")}
	page, pageSize := utils.ClampPage(c.Query("page"), c.Query("page_size"))

	// ETag pre-check (best effort).
	if count, maxTS, err := h.books.Fingerprint(ctx, filter); err == nil {
		etag := listETag(filter, page, pageSize, count, maxTS)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.books.List(ctx, services.ListQuery{Filter: filter, Page: page, PageSize: pageSize})
	if err != nil {
		fail(c, err)
		return
	}

	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListBooksResponse{
		Books: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetBook godoc
// @ID          getBook
// @Summary     Get a book
// @Tags        Books
// @Produce     json
//
// @Param       id  path  string  true  "Book ID (UUID)"  format(uuid) example(3f1c2a9e-7b6d-4e55-9a0b-2d8c4f1e6a77)
//
// @Success     200  {object} domain.Book
// @Failure     400  {object} apperr.ErrorInfo "Invalid id"
// @Failure     404  {object} apperr.ErrorInfo "Book not found"
// @Failure     500  {object} apperr.ErrorInfo "Database error"
// @Router      /books/{id} [get]
func (h *Handlers) GetBook(c *gin.Context) {
	b, err := h.books.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, b)
}

// UpdateBook godoc
// @ID          updateBook
// @Summary     Update a book
// @Description Overwrites title and author; the id never changes.
// @Tags        Books
// @Accept      json
// @Produce     json
//
// @Param       id    path  string              true  "Book ID (UUID)"  format(uuid) example(3f1c2a9e-7b6d-4e55-9a0b-2d8c4f1e6a77)
// @Param       body  body  domain.BookRequest  true  "New title and author"
//
// @Success     200  {object} domain.Book
// @Failure     400  {object} apperr.ErrorInfo "Invalid id, validation error or malformed payload"
// @Failure     404  {object} apperr.ErrorInfo "Book not found"
// @Failure     500  {object} apperr.ErrorInfo "Database error"
// @Router      /books/{id} [put]
func (h *Handlers) UpdateBook(c *gin.Context) {
	var req domain.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	b, err := h.books.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, b)
}

// DeleteBook godoc
// @ID          deleteBook
// @Summary     Delete a book
// @Tags        Books
//
// @Param       id  path  string  true  "Book ID (UUID)"  format(uuid) example(3f1c2a9e-7b6d-4e55-9a0b-2d8c4f1e6a77)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} apperr.ErrorInfo "Invalid id"
// @Failure     404  {object} apperr.ErrorInfo "Book not found"
// @Failure     500  {object} apperr.ErrorInfo "Database error"
// @Router      /books/{id} [delete]
func (h *Handlers) DeleteBook(c *gin.Context) {
	if err := h.books.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

// listETag derives a weak ETag from the filter, the page window and the
// match count plus latest update time.
func listETag(f domain.BookFilter, page, pageSize int, count int64, maxTS *time.Time) string {
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(f.Title + "\x00" + f.Author))
	return fmt.Sprintf(`W/"books:%d:%d:%d:%d:%08x"`, count, ts, page, pageSize, h.Sum32())
}
