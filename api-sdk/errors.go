package apisdk

import (
	"errors"

	"github.com/hilthontt/lobby/api-sdk/internal/requestconfig"
)

var (
	ErrMissingIDParameter = errors.New("missing required id parameter")
	ErrConnectionClosed   = errors.New("websocket connection is closed")
)

// Error is the decoded body of a failed API call.
type Error = requestconfig.Error

// StatusCode reports the HTTP status behind err, or 0 when err did not come
// from the API.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
