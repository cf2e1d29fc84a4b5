// Package handlers provides HTTP handler implementations for the public API.
//
// This file holds the response helpers shared by every endpoint. Errors are
// never formatted by handlers themselves: fail() logs the original error,
// cause and stack included, then writes the ErrorInfo produced by
// apperr.Translate.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "path": "/api/v1/books/3f1c2a9e-7b6d-4e55-9a0b-2d8c4f1e6a77",
//	  "code": 404,
//	  "type": "data_not_found",
//	  "message": "Book with id 3f1c2a9e-7b6d-4e55-9a0b-2d8c4f1e6a77 not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-book-service/internal/apperr"
	"github.com/tbourn/go-book-service/internal/http/middleware"
)

// fail logs err with the request-scoped logger and aborts with its ErrorInfo.
// 5xx outcomes log at error level, everything else at warn.
func fail(c *gin.Context, err error) {
	info := apperr.Translate(c.Request.URL.Path, err)

	lg := middleware.LoggerFrom(c)
	ev := lg.Warn()
	if info.Code >= http.StatusInternalServerError {
		ev = lg.Error()
	}
	ev.Stack().Err(err).
		Int("status", info.Code).
		Str("type", info.Type).
		Msg("api error")

	middleware.MarkErrorType(c, info.Type)
	c.AbortWithStatusJSON(info.Code, info)
}

// Fail is the exported variant of fail() for the router's fallback handlers.
func Fail(c *gin.Context, err error) { fail(c, err) }

// ok writes body as JSON with status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
