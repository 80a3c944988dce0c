package http

import (
	"errors"
	"net/http"
	"strings"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

// Mutation outcomes as recorded in metrics.
const (
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case isValidation(err):
		return outcomeInvalid
	case core.IsNotFound(err):
		return outcomeNotFound
	default:
		return outcomeError
	}
}

func isValidation(err error) bool {
	_, ok := core.IsValidation(err)
	return ok
}

// respondError is the single error mapping for both entities. A validation
// failure calls rerender with the message and answers 422; a missing record
// answers 404; anything else is logged and answers 500 with a generic body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, entity string, err error, rerender func(status int, msg string)) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	if ve, ok := core.IsValidation(err); ok && rerender != nil {
		logger.DebugContext(ctx, "Validation failed",
			errorFields(entity, ve, applog.ErrorTypeValidation)...)
		rerender(http.StatusUnprocessableEntity, ve.Message)
		return
	}

	if core.IsNotFound(err) {
		logger.InfoContext(ctx, "Record not found",
			errorFields(entity, err, applog.ErrorTypeNotFound)...)
		newResponse(w, r).Text(http.StatusNotFound, "Not found")
		return
	}

	errorType := applog.ErrorTypeInternal
	var se *core.StorageError
	if errors.As(err, &se) {
		errorType = applog.ErrorTypeDatabase
	}
	logger.ErrorContext(ctx, "Request failed", errorFields(entity, err, errorType)...)
	newResponse(w, r).Text(http.StatusInternalServerError, "Internal server error")
}

func errorFields(entity string, err error, errorType string) []any {
	return applog.NewFields().
		WithRecord(entity, 0).
		WithError(err).
		WithErrorType(errorType).
		ToSlice()
}

// recordMutation logs and counts one create, update or delete attempt.
func (s *Server) recordMutation(r *http.Request, entity, op string, id int64, err error) {
	outcome := outcomeOf(err)
	s.metrics.ObserveMutation(entity, op, outcome)
	if err == nil {
		ctx := r.Context()
		applog.FromContext(ctx).DebugContext(ctx, "Mutation applied",
			applog.NewFields().WithRecord(entity, id).WithOperation(op).ToSlice()...)
	}
}
