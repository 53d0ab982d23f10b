package accountsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest = httpx.CodeInvalidRequest
	ErrorCodeNotFound       = httpx.CodeNotFound
	ErrorCodeConflict       = httpx.CodeConflict
	ErrorCodeServerError    = httpx.CodeServerError
)

// APIError is a non-success response from the service.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches sentinels by error code, so errors.Is(err, ErrNotFound) works
// whatever the description says.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.StatusCode == 0 || t.StatusCode == e.StatusCode)
}

var (
	ErrInvalidRequest = &APIError{Code: ErrorCodeInvalidRequest}
	ErrNotFound       = &APIError{Code: ErrorCodeNotFound}
	ErrConflict       = &APIError{Code: ErrorCodeConflict}
	ErrServerError    = &APIError{Code: ErrorCodeServerError}
)

func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	code := ErrorCodeServerError
	switch {
	case resp.StatusCode == http.StatusNotFound:
		code = ErrorCodeNotFound
	case resp.StatusCode == http.StatusConflict:
		code = ErrorCodeConflict
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		code = ErrorCodeInvalidRequest
	}
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        code,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
