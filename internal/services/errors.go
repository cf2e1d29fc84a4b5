// Package services defines the business logic of the book service.
// This file centralizes the service-level validation errors. Like every
// error returned by this package they belong to the apperr taxonomy, so the
// HTTP boundary can translate them without inspecting service internals.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-book-service/internal/apperr"
)

var (
	// ErrTitleRequired is returned when a request carries an empty title.
	ErrTitleRequired = apperr.Validation("title is required")

	// ErrAuthorRequired is returned when a request carries an empty author.
	ErrAuthorRequired = apperr.Validation("author is required")
)

// invalidID is returned when a path identifier is not a UUID.
func invalidID(raw string) error {
	return apperr.Validation(fmt.Sprintf("invalid book id %q", raw))
}

// storageFailure keeps taxonomy errors as they are and reports anything else
// (a failed BEGIN, an idempotency insert) as a database error.
func storageFailure(err error) error {
	var ae apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Database("unable to save book", err)
}
