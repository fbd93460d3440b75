package httpvalidation

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/joshnies/survol/lib/console"
	"github.com/joshnies/survol/lib/errs"
	"github.com/joshnies/survol/models"
)

// Largest error body printed in verbose mode.
const maxErrorBody = 64 * 1024

// Validate HTTP response status.
//
// @param status - HTTP status code
//
// @param body - Response body, used to describe the failure
//
// Returns a KindStatus error for any non-2xx status, nil otherwise.
func ValidateStatus(status int, body []byte) error {
	if isSuccess(status) {
		return nil
	}

	var msg string

	// Check response status
	switch status {
	case http.StatusUnauthorized:
		msg = "unauthorized"
	case http.StatusForbidden:
		msg = "forbidden"
	case http.StatusNotFound:
		msg = "resource not found"
	case http.StatusRequestTimeout:
		msg = "request timed out"
	case http.StatusTooManyRequests:
		msg = "too many requests"
	case http.StatusBadRequest:
		msg = "bad request"
	default:
		msg = fmt.Sprintf("received http status %d", status)
	}

	// Parse response body
	if desc := describeErrorBody(body); desc != "" {
		msg = fmt.Sprintf("%s: %s", msg, desc)
	} else if len(body) > 0 {
		console.Verbose("Server response:\n%s", truncate(body))
	}

	return errs.New(errs.KindStatus, "%s", msg)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}

// Returns the most specific message found in an error body, or "" if there is none.
func describeErrorBody(body []byte) string {
	var resBody models.ErrorResponse
	if err := json.Unmarshal(body, &resBody); err != nil {
		return ""
	}

	parts := []string{}
	if resBody.Error != "" {
		parts = append(parts, resBody.Error)
	}
	if resBody.ErrorDescription != "" {
		parts = append(parts, resBody.ErrorDescription)
	}
	if len(parts) == 0 && resBody.Message != "" {
		parts = append(parts, resBody.Message)
	}

	return strings.Join(parts, " - ")
}
