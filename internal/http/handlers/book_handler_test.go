package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-book-service/internal/apperr"
	"github.com/tbourn/go-book-service/internal/domain"
	"github.com/tbourn/go-book-service/internal/http/middleware"
	"github.com/tbourn/go-book-service/internal/repo"
	"github.com/tbourn/go-book-service/internal/services"
)

// ---------- test DB + repo shims ----------

func newBookDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "books.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Minimal shims implementing the service repo contracts (like router.go).
type testBookRepo struct{}

func (testBookRepo) CreateBook(ctx context.Context, db *gorm.DB, req domain.BookRequest) (*domain.Book, error) {
	return repo.CreateBook(ctx, db, req)
}
func (testBookRepo) GetBook(ctx context.Context, db *gorm.DB, id domain.BookID) (*domain.Book, error) {
	return repo.GetBook(ctx, db, id)
}
func (testBookRepo) CountBooks(ctx context.Context, db *gorm.DB, f domain.BookFilter) (int64, error) {
	return repo.CountBooks(ctx, db, f)
}
func (testBookRepo) ListBooksPage(ctx context.Context, db *gorm.DB, f domain.BookFilter, offset, limit int) ([]domain.Book, error) {
	return repo.ListBooksPage(ctx, db, f, offset, limit)
}
func (testBookRepo) UpdateBook(ctx context.Context, db *gorm.DB, id domain.BookID, req domain.BookRequest) (*domain.Book, error) {
	return repo.UpdateBook(ctx, db, id, req)
}
func (testBookRepo) DeleteBook(ctx context.Context, db *gorm.DB, id domain.BookID) error {
	return repo.DeleteBook(ctx, db, id)
}
func (testBookRepo) BooksStats(ctx context.Context, db *gorm.DB, f domain.BookFilter) (int64, *time.Time, error) {
	return repo.BooksStats(ctx, db, f)
}

type testIdemRepo struct{}

func (testIdemRepo) GetIdempotency(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, key, now)
}
func (testIdemRepo) CreateIdempotency(ctx context.Context, db *gorm.DB, key string, id domain.BookID, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, key, id, status, ttl)
}
func (testIdemRepo) DeleteIdempotency(ctx context.Context, db *gorm.DB, key string) error {
	return repo.DeleteIdempotency(ctx, db, key)
}
func (testIdemRepo) IsDuplicate(err error) bool { return errors.Is(err, repo.ErrDuplicate) }

func newBookRouter(t *testing.T, svc BookService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := New(svc)
	r := gin.New()
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.POST("/books", h.CreateBook)
	r.GET("/books", h.ListBooks)
	r.GET("/books/:id", h.GetBook)
	r.PUT("/books/:id", h.UpdateBook)
	r.DELETE("/books/:id", h.DeleteBook)
	return r
}

func newRealRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db := newBookDB(t)
	return newBookRouter(t, services.NewBookService(db, testBookRepo{}, testIdemRepo{}, nil))
}

func do(t *testing.T, r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeInfo(t *testing.T, w *httptest.ResponseRecorder) apperr.ErrorInfo {
	t.Helper()
	var info apperr.ErrorInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("error body is not ErrorInfo: %v (%s)", err, w.Body.String())
	}
	return info
}

// ---------- tests against the real stack ----------

func TestBooks_CRUDLifecycle(t *testing.T) {
	r := newRealRouter(t)

	// create; a client-supplied id is ignored
	w := do(t, r, http.MethodPost, "/books", `{"id":"00000000-0000-0000-0000-000000000001","title":"Dune","author":"Frank Herbert"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(created) != 3 || created["title"] != "Dune" || created["author"] != "Frank Herbert" {
		t.Fatalf("unexpected book JSON: %v", created)
	}
	id, _ := created["id"].(string)
	if _, err := domain.ParseBookID(id); err != nil || id == "00000000-0000-0000-0000-000000000001" {
		t.Fatalf("id not generated by the service: %q", id)
	}

	// read
	w = do(t, r, http.MethodGet, "/books/"+id, "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"id":"`+id+`"`) {
		t.Fatalf("get: %d %s", w.Code, w.Body.String())
	}

	// update keeps id
	w = do(t, r, http.MethodPut, "/books/"+id, `{"title":"Dune Messiah","author":"Frank Herbert"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	var upd domain.Book
	if err := json.Unmarshal(w.Body.Bytes(), &upd); err != nil {
		t.Fatalf("json: %v", err)
	}
	if upd.ID.String() != id || upd.Title != "Dune Messiah" {
		t.Fatalf("unexpected update: %+v", upd)
	}

	// delete then 404 on every by-id route
	if w = do(t, r, http.MethodDelete, "/books/"+id, "", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}
	for _, m := range []string{http.MethodGet, http.MethodDelete} {
		w = do(t, r, m, "/books/"+id, "", nil)
		info := decodeInfo(t, w)
		if w.Code != http.StatusNotFound || info.Type != apperr.KindDataNotFound ||
			info.Message != "Book with id "+id+" not found" || info.Path != "/books/"+id {
			t.Fatalf("%s after delete: %d %+v", m, w.Code, info)
		}
	}
	w = do(t, r, http.MethodPut, "/books/"+id, `{"title":"T","author":"A"}`, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("put after delete: %d", w.Code)
	}
}

func TestBooks_BadInput(t *testing.T) {
	r := newRealRouter(t)

	cases := []struct {
		method, path, body string
		wantType           string
	}{
		{http.MethodPost, "/books", `{"title":"","author":"A"}`, apperr.KindValidation},
		{http.MethodPost, "/books", `{"title":"T"}`, apperr.KindValidation},
		{http.MethodPost, "/books", `not json`, apperr.KindMalformedPayload},
		{http.MethodGet, "/books/not-a-uuid", "", apperr.KindValidation},
		{http.MethodPut, "/books/not-a-uuid", `{"title":"T","author":"A"}`, apperr.KindValidation},
		{http.MethodDelete, "/books/123", "", apperr.KindValidation},
	}
	for _, tc := range cases {
		w := do(t, r, tc.method, tc.path, tc.body, nil)
		info := decodeInfo(t, w)
		if w.Code != http.StatusBadRequest || info.Code != 400 || info.Type != tc.wantType || info.Path != tc.path {
			t.Fatalf("%s %s %q: %d %+v", tc.method, tc.path, tc.body, w.Code, info)
		}
	}

	// whitespace is data, not absence
	w := do(t, r, http.MethodPost, "/books", `{"title":"  ","author":" A "}`, nil)
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"title":"  "`) {
		t.Fatalf("whitespace title: %d %s", w.Code, w.Body.String())
	}
}

func TestBooks_ListFilterPaginationAndETag(t *testing.T) {
	r := newRealRouter(t)

	seed := [][2]string{
		{"Dune", "Frank Herbert"},
		{"Children of Dune", "Frank Herbert"},
		{"Neuromancer", "William Gibson"},
	}
	for _, s := range seed {
		if w := do(t, r, http.MethodPost, "/books", `{"title":"`+s[0]+`","author":"`+s[1]+`"}`, nil); w.Code != http.StatusCreated {
			t.Fatalf("seed: %d", w.Code)
		}
	}

	w := do(t, r, http.MethodGet, "/books?author=herbert&page=1&page_size=1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	var resp ListBooksResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.Books) != 1 || resp.Pagination.Total != 2 || resp.Pagination.TotalPages != 2 || !resp.Pagination.HasNext {
		t.Fatalf("unexpected page: %+v", resp)
	}

	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"books:`) {
		t.Fatalf("missing weak ETag: %q", etag)
	}
	w = do(t, r, http.MethodGet, "/books?author=herbert&page=1&page_size=1", "", map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}
	// a different page is a different representation
	w = do(t, r, http.MethodGet, "/books?author=herbert&page=2&page_size=1", "", map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for page 2, got %d", w.Code)
	}

	// no match → empty array, never null
	w = do(t, r, http.MethodGet, "/books?title=zzz", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"books":[]`) {
		t.Fatalf("empty list: %d %s", w.Code, w.Body.String())
	}
}

func TestBooks_IdempotentCreate(t *testing.T) {
	r := newRealRouter(t)
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "create-1"}
	body := `{"title":"Dune","author":"Frank Herbert"}`

	w1 := do(t, r, http.MethodPost, "/books", body, hdr)
	if w1.Code != http.StatusCreated || w1.Header().Get(HeaderIdempotentReplay) != "" {
		t.Fatalf("first: %d %v", w1.Code, w1.Header())
	}
	w2 := do(t, r, http.MethodPost, "/books", body, hdr)
	if w2.Code != http.StatusOK || w2.Header().Get(HeaderIdempotentReplay) != "true" {
		t.Fatalf("replay: %d %v", w2.Code, w2.Header())
	}
	if !bytes.Equal(w1.Body.Bytes(), w2.Body.Bytes()) {
		t.Fatalf("replay body differs:\n%s\n%s", w1.Body.String(), w2.Body.String())
	}

	w := do(t, r, http.MethodGet, "/books", "", nil)
	var resp ListBooksResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Pagination.Total != 1 {
		t.Fatalf("expected one stored book, got %d", resp.Pagination.Total)
	}
}

// ---------- error paths with a stub service ----------

type failingService struct{ err error }

func (s failingService) Create(context.Context, domain.BookRequest) (*domain.Book, error) {
	return nil, s.err
}
func (s failingService) CreateIdempotent(context.Context, string, domain.BookRequest) (*domain.Book, bool, error) {
	return nil, false, s.err
}
func (s failingService) Get(context.Context, string) (*domain.Book, error) { return nil, s.err }
func (s failingService) List(context.Context, services.ListQuery) ([]domain.Book, int64, error) {
	return nil, 0, s.err
}
func (s failingService) Fingerprint(context.Context, domain.BookFilter) (int64, *time.Time, error) {
	return 0, nil, s.err
}
func (s failingService) Update(context.Context, string, domain.BookRequest) (*domain.Book, error) {
	return nil, s.err
}
func (s failingService) Delete(context.Context, string) error { return s.err }

func TestBooks_DatabaseErrorsBecome500WithoutCause(t *testing.T) {
	r := newBookRouter(t, failingService{err: apperr.Database("unable to reach storage", errors.New("dial tcp 10.1.2.3:5432: refused"))})
	id := domain.NewBookID().String()

	reqs := []struct{ method, path, body string }{
		{http.MethodPost, "/books", `{"title":"T","author":"A"}`},
		{http.MethodGet, "/books", ""},
		{http.MethodGet, "/books/" + id, ""},
		{http.MethodPut, "/books/" + id, `{"title":"T","author":"A"}`},
		{http.MethodDelete, "/books/" + id, ""},
	}
	for _, rq := range reqs {
		w := do(t, r, rq.method, rq.path, rq.body, nil)
		info := decodeInfo(t, w)
		if w.Code != 500 || info.Type != apperr.KindDatabase || info.Message != "unable to reach storage" {
			t.Fatalf("%s %s: %d %+v", rq.method, rq.path, w.Code, info)
		}
		if strings.Contains(w.Body.String(), "10.1.2.3") {
			t.Fatalf("cause leaked: %s", w.Body.String())
		}
		if w.Header().Get("ETag") != "" {
			t.Fatalf("no ETag expected when stats fail")
		}
	}
}
