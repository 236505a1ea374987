package retry

import (
	"errors"
	"net"
	"strings"

	ai "github.com/coleremick/relay"
)

// transientPatterns match error strings from transports and SDKs that do
// not expose structured errors.
var transientPatterns = []string{
	"connection reset",
	"connection refused",
	"timeout",
	"timed out",
	"rate limit",
	"too many requests",
	"service unavailable",
	"bad gateway",
	"gateway timeout",
	"internal server error",
	"temporarily unavailable",
	"temporary failure",
	"error 429",
	"error 500",
	"error 502",
	"error 503",
	"error 504",
}

// IsTransient reports whether an error is worth retrying. Categorized
// errors answer directly; otherwise the status code, network timeout flag,
// and finally the error text are consulted.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce ai.CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ai.ErrorTransient
	}

	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		return isTransientStatusCode(sc.StatusCode())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}

// isTransientStatusCode reports whether an HTTP status code indicates a
// retryable condition.
func isTransientStatusCode(code int) bool {
	return code == 429 || (code >= 500 && code < 600)
}
