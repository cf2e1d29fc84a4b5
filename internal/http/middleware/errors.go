package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-book-service/internal/apperr"
)

// abortWithError stops the chain and writes the ErrorInfo envelope for err.
func abortWithError(c *gin.Context, err error) {
	info := apperr.Translate(c.Request.URL.Path, err)
	MarkErrorType(c, info.Type)
	c.AbortWithStatusJSON(info.Code, info)
}
