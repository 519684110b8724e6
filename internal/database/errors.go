package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// IsConnectionError reports whether the provided error indicates the
// database connection is unavailable, so handlers can answer 503
// instead of treating the failure as a bad request.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "bad connection"),
		strings.Contains(msg, "database is closed"):
		return true
	}
	return false
}
