package assistant

import (
	"errors"
	"fmt"
)

var ErrMalformedResponse = errors.New("malformed response")

// APIError is a non-2xx answer from the service.
type APIError struct {
	Operation  string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Operation, e.StatusCode, e.Detail)
}

// DetailOf prefers the server-provided detail and falls back to the raw error text.
func DetailOf(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
