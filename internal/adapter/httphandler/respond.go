package httphandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/niksmo/storebuilder/internal/core/domain"
)

const serverErrorMessage = "Server error"

// responder writes JSON bodies. Internal error details are exposed only when
// detailed is set.
type responder struct {
	detailed bool
}

func (rs responder) json(
	w http.ResponseWriter, log *slog.Logger, status int, v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

func (rs responder) message(
	w http.ResponseWriter, log *slog.Logger, status int, msg string,
) {
	rs.json(w, log, status, MessageResponse{Message: msg})
}

// fail maps err to a status code and writes the error body.
func (rs responder) fail(w http.ResponseWriter, log *slog.Logger, err error) {
	status := errorStatus(err)
	if status < http.StatusInternalServerError {
		log.Warn("request rejected", "status", status, "err", err)
		rs.json(w, log, status, ErrorResponse{Message: clientMessage(err)})
		return
	}

	log.Error("request failed", "status", status, "err", err)
	body := ErrorResponse{Message: serverErrorMessage}
	if status == http.StatusServiceUnavailable {
		body.Message = "Service temporarily unavailable"
	}
	if rs.detailed {
		body.Error = err.Error()
	}
	rs.json(w, log, status, body)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidSignature),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// clientMessage is the message of the innermost domain error, without the
// operation prefixes added on the way up.
func clientMessage(err error) string {
	var ve domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var ce domain.ConflictError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, domain.ErrForbidden):
		return "Not authorized"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "Not authorized, please log in"
	case errors.Is(err, domain.ErrInvalidSignature):
		return "Invalid signature"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "Operation is not allowed in the current state"
	}
	return "Bad request"
}

// decodeJSON reads the request body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return domain.Invalid("invalid JSON data")
	}
	return nil
}

// pagination reads the page and limit query parameters.
func pagination(r *http.Request) domain.Pagination {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return domain.NewPagination(page, limit)
}
