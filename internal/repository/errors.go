// Package repository defines the persistence contracts of the service and the
// error values shared by every implementation.  These sentinel values allow
// higher layers such as services and handlers to distinguish between
// different failure scenarios without knowing which store is in use.
package repository

import (
	"errors"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// ErrNotFound is returned when the requested record does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// record they do not own.  Handlers translate it into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a movie that still has
// showtimes or reviewing a movie twice.  Handlers translate it into 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")

// Seat transition failures.  Stores return the model errors so that the
// in-memory state machine and the SQL conditional updates agree.
var (
	ErrSeatUnavailable = model.ErrSeatUnavailable
	ErrSeatNotLocked   = model.ErrSeatNotLocked
)
