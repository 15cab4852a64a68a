package middleware

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	ierr "github.com/openams/openams/internal/errors"
)

const safeDetailPrefix = "__json__:"

// ErrorResponse is the envelope every failed request is rendered into
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Display string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler renders the last error a handler attached to the context.
// The display message comes from the hint chain, structured details from the
// safe detail payloads the error builder encoded, and the status code from
// the sentinel the error was marked with.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		c.JSON(ierr.HTTPStatusFromErr(err), ErrorResponse{
			Success: false,
			Error: ErrorDetail{
				Display: displayMessage(err),
				Details: reportableDetails(err),
			},
		})
	}
}

// displayMessage picks the first non-empty hint; GetAllHints traverses the
// wrap chain post-order so the innermost hint wins.
func displayMessage(err error) string {
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}

func reportableDetails(err error) map[string]any {
	details := make(map[string]any)
	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			raw, ok := strings.CutPrefix(payload, safeDetailPrefix)
			if !ok {
				continue
			}
			var decoded map[string]any
			if json.Unmarshal([]byte(raw), &decoded) != nil {
				continue
			}
			for k, v := range decoded {
				details[k] = v
			}
		}
	}
	return details
}
