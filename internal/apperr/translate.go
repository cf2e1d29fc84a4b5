package apperr

import (
	"net/http"

	"github.com/pkg/errors"
)

// FallbackMessage replaces any message that is empty, cannot be extracted, or
// belongs to an error outside the taxonomy.
const FallbackMessage = "internal server error"

// ErrorInfo is the error body returned by every endpoint.
type ErrorInfo struct {
	// Path is the request path that produced the error.
	Path string `json:"path" example:"/api/v1/books/3f1c2a9e-7b6d-4e55-9a0b-2d8c4f1e6a77"`
	// Code mirrors the HTTP status.
	Code int `json:"code" example:"404"`
	// Type is the taxonomy kind (see Kind* constants).
	Type string `json:"type" example:"data_not_found"`
	// Message is safe to show to users.
	Message string `json:"message" example:"Book with id 3f1c2a9e-7b6d-4e55-9a0b-2d8c4f1e6a77 not found"`
}

// Translate maps err to the public envelope for path. It never panics and
// never includes causes or Go type names: only taxonomy errors contribute
// their public message, everything else becomes a generic 500.
func Translate(path string, err error) (info ErrorInfo) {
	defer func() {
		if recover() != nil {
			info = internal(path)
		}
	}()

	var ae Error
	if err == nil || !errors.As(err, &ae) {
		return internal(path)
	}

	info = ErrorInfo{
		Path:    path,
		Code:    ae.Status(),
		Type:    ae.Kind(),
		Message: ae.PublicMessage(),
	}
	if info.Code < 400 || info.Code > 599 {
		info.Code = http.StatusInternalServerError
	}
	if info.Type == "" {
		info.Type = KindInternal
	}
	if info.Message == "" {
		info.Message = FallbackMessage
	}
	return info
}

func internal(path string) ErrorInfo {
	return ErrorInfo{
		Path:    path,
		Code:    http.StatusInternalServerError,
		Type:    KindInternal,
		Message: FallbackMessage,
	}
}
