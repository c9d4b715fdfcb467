package notesdk

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"
)

var (
	ErrNoToken     = errors.New("sdk: token missing")
	ErrNoServerURL = errors.New("sdk: server url missing")
	ErrNoGUID      = errors.New("sdk: guid missing")
)

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeUnknownError   = "E_UNKNOWN_ERR"     // unknown error

	// Auth errors
	CodeAuthInvalidCredentials = "E_AUTH_INVALID_CREDENTIALS" // token is invalid, expired, or malformed

	// Note errors
	CodeDataValidation   = "E_DATA_VALIDATION"   // the service rejected the note payload (e.g. malformed ENML)
	CodeNotFound         = "E_NOT_FOUND"         // the notebook or note does not exist
	CodeNotebookConflict = "E_NOTEBOOK_CONFLICT" // a notebook with the same name already exists
)

type SDKError interface {
	error
	ErrorCode() string
	ErrorMessage() string
}

// APIError is the error body returned by the note service. Payload carries the
// offending input for validation errors.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
	Payload any    `json:"payload,omitempty"`
}

func NewAPIError(code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

func (e *APIError) ErrorCode() string    { return e.Code }
func (e *APIError) ErrorMessage() string { return e.Message }

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s - %s", e.Code, e.Message)
}

var _ SDKError = (*APIError)(nil)

// IsValidationError reports whether err carries a payload rejection from the
// service. Those are not worth retrying without changing the input.
func IsValidationError(err error) bool {
	return hasCode(err, CodeDataValidation, CodeInvalidRequest)
}

func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

func IsAuthError(err error) bool {
	return hasCode(err, CodeAuthInvalidCredentials)
}

func hasCode(err error, codes ...string) bool {
	var sdkErr SDKError
	if !errors.As(err, &sdkErr) {
		return false
	}
	for _, code := range codes {
		if sdkErr.ErrorCode() == code {
			return true
		}
	}
	return false
}

// handleAPIError is a helper function that handles the common error pattern
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s: %w", operation, requestErr)
	}

	if resp.IsErrorState() {
		if apiErr, ok := resp.ErrorResult().(*APIError); ok && apiErr.Code != "" {
			apiErr.Status = resp.StatusCode
			return fmt.Errorf("%s: %w", operation, apiErr)
		}

		code := CodeUnknownError
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			code = CodeAuthInvalidCredentials
		case resp.StatusCode == http.StatusNotFound:
			code = CodeNotFound
		case resp.StatusCode == http.StatusTooManyRequests:
			code = CodeRateLimited
		case resp.StatusCode >= http.StatusInternalServerError:
			code = CodeInternalError
		}
		return fmt.Errorf("%s: %w", operation, &APIError{
			Status:  resp.StatusCode,
			Code:    code,
			Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
		})
	}

	return nil
}

// retryableRead is the retry condition for idempotent reads: transport errors,
// throttling and server side failures.
func retryableRead(resp *req.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil || resp.Response == nil {
		return false
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
}
