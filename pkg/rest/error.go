package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error is a non-2xx API response. Code carries the service error code when
// the body uses the standard {"error":{"code":...}} envelope.
type Error struct {
	StatusCode int
	Code       string
	Body       string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Code, e.Body)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// errorEnvelope matches the error body shape the Fabric and Power BI APIs share.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newError(resp *http.Response) *Error {
	b, _ := io.ReadAll(resp.Body)
	apiErr := &Error{
		StatusCode: resp.StatusCode,
		Body:       string(b),
	}
	var env errorEnvelope
	if json.Unmarshal(b, &env) == nil {
		apiErr.Code = env.Error.Code
	}
	return apiErr
}

// IsUnauthorized reports whether err is a 401 (bad or expired credentials).
func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }

// IsForbidden reports whether err is a 403 (missing role or permission).
func IsForbidden(err error) bool { return hasStatus(err, http.StatusForbidden) }

// IsNotFound reports whether err is a 404 (bad identifier or unpublished resource).
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// ErrorCode returns the service error code carried by err, if any.
func ErrorCode(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

func hasStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
