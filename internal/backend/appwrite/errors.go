package appwrite

import (
	"fmt"
	"net/http"

	"github.com/sushihentaime/quillpost/internal/common"
)

// Error is the error body returned by the backend.
type Error struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

func (e *Error) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("appwrite: %s (%d %s)", e.Message, e.Code, e.Type)
	}
	return fmt.Sprintf("appwrite: %s (%d)", e.Message, e.Code)
}

// Unwrap maps the status code onto the common error kinds so callers can use
// errors.Is against the common sentinels.
func (e *Error) Unwrap() error {
	switch {
	case e.Code == http.StatusNotFound:
		return common.ErrRecordNotFound
	case e.Code == http.StatusConflict:
		return common.ErrConflict
	case e.Code == http.StatusUnauthorized, e.Code == http.StatusForbidden:
		return common.ErrUnauthorized
	case e.Code == http.StatusBadRequest:
		return common.ValidationError{Errors: map[string]string{"request": e.Message}}
	case e.Code == http.StatusTooManyRequests, e.Code >= http.StatusInternalServerError:
		return common.ErrRemoteUnavailable
	default:
		return nil
	}
}
