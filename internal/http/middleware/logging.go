// Package middleware holds the Gin middleware stack of the book API.
//
// logging.go correlates requests and records them:
//
//   - RequestID() reuses an incoming X-Request-ID or mints a UUID and echoes it.
//   - Logger() attaches a request-scoped zerolog.Logger to the Gin context and
//     to the request context, then writes one access record per request.
//   - Recovery() turns a panic into the generic 500 ErrorInfo.
//
// Install them in that order so panics are logged with the request id.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	// maxQueryLogLength caps the logged query string in bytes.
	maxQueryLogLength = 2048
)

// RequestID stores the correlation id under "requestID" and in the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

// LogOptions configures Logger.
type LogOptions struct {
	// MaskHeaders are masked in addition to Authorization, Cookie and Set-Cookie.
	MaskHeaders []string
}

// Logger writes the access record for each request. Book routes are logged by
// pattern (/books/:id) so ids stay out of the path field; unmatched paths are
// scrubbed like the query string.
func Logger(opts LogOptions) gin.HandlerFunc {
	red := newRedactor(opts.MaskHeaders)

	return func(c *gin.Context) {
		start := time.Now()
		l := scopedLogger(c, red)
		c.Set(loggerKey, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
		headers := red.headers(c.Request.Header)

		c.Next()

		status := c.Writer.Status()
		ev := outcome(&l, status, c.Errors)
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		if isReplay(c) {
			ev = ev.Bool("idempotent_replay", true)
		}
		ev.Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Interface("headers", headers).
			Msg("request")
	}
}

func scopedLogger(c *gin.Context, red redactor) zerolog.Logger {
	rid, _ := c.Get(requestIDKey)
	path := c.FullPath()
	if path == "" {
		path = red.text(c.Request.URL.Path)
	}
	return log.With().
		Str("request_id", asString(rid)).
		Str("http_method", c.Request.Method).
		Str("path", path).
		Str("remote_ip", c.ClientIP()).
		Str("user_agent", c.Request.UserAgent()).
		Str("query", truncate(red.text(c.Request.URL.RawQuery), maxQueryLogLength)).
		Int64("bytes_in", c.Request.ContentLength).
		Logger()
}

// outcome picks the record level: error for 5xx or collected Gin errors,
// warn for 4xx, info otherwise.
func outcome(l *zerolog.Logger, status int, errs []*gin.Error) *zerolog.Event {
	switch {
	case len(errs) > 0 || status >= http.StatusInternalServerError:
		return l.Error()
	case status >= http.StatusBadRequest:
		return l.Warn()
	default:
		return l.Info()
	}
}

// Recovery logs a panic with its stack. The ErrorInfo body is only written
// when the handler has not started its response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			abortWithError(c, fmt.Errorf("panic: %v", rec))
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger, or a copy of the
// global logger when Logger() is not installed.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate caps s at max bytes and appends an ellipsis; max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
