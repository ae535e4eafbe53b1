package backend

import (
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
)

const maxErrorBody = 64 << 10

// ErrUnexpectedShape marks a 2xx response missing a required field.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// APIError is a non-2xx response. Detail holds the body's string "detail"
// field when the server sent one.
type APIError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

// Detail returns the server-supplied detail carried by err, if any.
func Detail(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail, true
	}
	return "", false
}

// DetailOr returns the server detail or fallback.
func DetailOr(err error, fallback string) string {
	if detail, ok := Detail(err); ok {
		return detail
	}
	return fallback
}

func unexpectedStatus(op string, statusCode int, body io.Reader) error {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))

	apiErr := &APIError{Op: op, StatusCode: statusCode}
	// FastAPI validation errors carry a list here; only a string counts.
	if detail := gjson.GetBytes(data, "detail"); detail.Type == gjson.String {
		apiErr.Detail = detail.String()
	}
	return apiErr
}

func shapeError(op, field string) error {
	return fmt.Errorf("%s: %w: field %q", op, ErrUnexpectedShape, field)
}
