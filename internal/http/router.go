// Package httpapi wires the HTTP transport (Gin) to the book service,
// middleware and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, redacted logging, panic recovery, metrics,
// compression, CORS, security headers, idempotency and rate limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-book-service/docs"
	"github.com/tbourn/go-book-service/internal/apperr"
	"github.com/tbourn/go-book-service/internal/config"
	"github.com/tbourn/go-book-service/internal/domain"
	"github.com/tbourn/go-book-service/internal/http/handlers"
	"github.com/tbourn/go-book-service/internal/http/middleware"
	"github.com/tbourn/go-book-service/internal/intercept"
	"github.com/tbourn/go-book-service/internal/repo"
	"github.com/tbourn/go-book-service/internal/services"
)

// bookRepoShim adapts the repository free functions to services.BookRepo.
type bookRepoShim struct{}

// CreateBook proxies repo.CreateBook.
func (bookRepoShim) CreateBook(ctx context.Context, db *gorm.DB, req domain.BookRequest) (*domain.Book, error) {
	return repo.CreateBook(ctx, db, req)
}

// GetBook proxies repo.GetBook.
func (bookRepoShim) GetBook(ctx context.Context, db *gorm.DB, id domain.BookID) (*domain.Book, error) {
	return repo.GetBook(ctx, db, id)
}

// CountBooks proxies repo.CountBooks (pagination support).
func (bookRepoShim) CountBooks(ctx context.Context, db *gorm.DB, f domain.BookFilter) (int64, error) {
	return repo.CountBooks(ctx, db, f)
}

// ListBooksPage proxies repo.ListBooksPage (pagination support).
func (bookRepoShim) ListBooksPage(ctx context.Context, db *gorm.DB, f domain.BookFilter, offset, limit int) ([]domain.Book, error) {
	return repo.ListBooksPage(ctx, db, f, offset, limit)
}

// UpdateBook proxies repo.UpdateBook.
func (bookRepoShim) UpdateBook(ctx context.Context, db *gorm.DB, id domain.BookID, req domain.BookRequest) (*domain.Book, error) {
	return repo.UpdateBook(ctx, db, id, req)
}

// DeleteBook proxies repo.DeleteBook.
func (bookRepoShim) DeleteBook(ctx context.Context, db *gorm.DB, id domain.BookID) error {
	return repo.DeleteBook(ctx, db, id)
}

// BooksStats proxies repo.BooksStats (ETag support).
func (bookRepoShim) BooksStats(ctx context.Context, db *gorm.DB, f domain.BookFilter) (int64, *time.Time, error) {
	return repo.BooksStats(ctx, db, f)
}

// idempotencyRepoShim adapts the idempotency functions to services.IdempotencyRepo.
type idempotencyRepoShim struct{}

func (idempotencyRepoShim) GetIdempotency(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, key, now)
}

func (idempotencyRepoShim) CreateIdempotency(ctx context.Context, db *gorm.DB, key string, id domain.BookID, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, key, id, status, ttl)
}

func (idempotencyRepoShim) DeleteIdempotency(ctx context.Context, db *gorm.DB, key string) error {
	return repo.DeleteIdempotency(ctx, db, key)
}

func (idempotencyRepoShim) IsDuplicate(err error) bool { return errors.Is(err, repo.ErrDuplicate) }

// RegisterRoutes attaches all middleware and HTTP endpoints to r and mounts
// the book API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per client IP, bypass on replay)
//  9. Gzip (optional), CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.Logger(middleware.LogOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to the ErrorInfo 500 body
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, key string, now time.Time) (bool, error) {
			return liveIdempotencyKey(ctx, db, key, now)
		},
	))

	// 8) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(middleware.RateLimitOptions{
		RPS:       cfg.RateRPS,
		Burst:     cfg.RateBurst,
		WriteCost: cfg.RateWriteCost,
		Key:       middleware.KeyByClientIP(),
	})
	r.Use(rl.Handler())

	// 9) Compression, CORS posture and security headers
	if cfg.GzipEnabled {
		r.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	sec := middleware.SecurityOptions{DocsPrefix: "/swagger/", CacheControl: true}
	if cfg.Security.EnableHSTS {
		sec.HSTSMaxAge = cfg.Security.HSTSMaxAge
	}
	r.Use(middleware.SecurityHeaders(sec))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, apperr.HTTP(http.StatusNotFound, apperr.KindRouteNotFound, "route not found"))
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, apperr.HTTP(http.StatusMethodNotAllowed, apperr.KindMethodNotAllowed, "method not allowed"))
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	svc := services.NewBookService(db, bookRepoShim{}, idempotencyRepoShim{}, intercept.New(nil))
	svc.IdempotencyTTL = cfg.IdempotencyTTL
	h := handlers.New(svc)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/books", h.CreateBook)
		api.GET("/books", h.ListBooks)
		api.GET("/books/:id", h.GetBook)
		api.PUT("/books/:id", h.UpdateBook)
		api.DELETE("/books/:id", h.DeleteBook)
	}
}

// liveIdempotencyKey reports whether key still replays a stored book. A key
// whose book was deleted is not live: the service starts it over.
func liveIdempotencyKey(ctx context.Context, db *gorm.DB, key string, now time.Time) (bool, error) {
	rec, err := repo.GetIdempotency(ctx, db, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := repo.GetBook(ctx, db, rec.BookID); err != nil {
		if apperr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// corsMiddleware returns the CORS chain: allow-all when no origins are
// configured, otherwise an allowlist echoed back per request.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", handlers.HeaderIdempotentReplay}
	methods := []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}

	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// Force ACAO: * even for requests without an Origin header.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     methods,
				AllowHeaders:     allowHeaders,
				ExposeHeaders:    exposeHeaders,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody caps the request body at maxBytes using http.MaxBytesReader.
// Oversized bodies fail to bind and surface as malformed payloads.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
