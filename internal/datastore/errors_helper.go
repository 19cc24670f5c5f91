package datastore

import (
	"strings"

	"github.com/vectorcam/vectorinsight/internal/errors"
)

var errNotOpen = errors.NewStd("database connection is not initialized")

// dbError creates a properly categorized database error with context
func dbError(err error, operation, priority string, context ...any) error {
	builder := errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation)

	if priority != "" {
		builder = builder.Priority(priority)
	}

	// Add context pairs
	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}

	return builder.Build()
}

// stateError creates a state management error (connection not open)
func stateError(err error, operation string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryState).
		Priority(errors.PriorityHigh).
		Context("operation", operation).
		Build()
}

// categorizeError categorizes database errors for metrics
func categorizeError(err error) string {
	if err == nil {
		return ""
	}
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "locked") || strings.Contains(errStr, "busy"):
		return "locked"
	case strings.Contains(errStr, "constraint") || strings.Contains(errStr, "duplicate"):
		return "constraint"
	case strings.Contains(errStr, "no such table") || strings.Contains(errStr, "doesn't exist"):
		return "missing_table"
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return "timeout"
	case strings.Contains(errStr, "connection") || strings.Contains(errStr, "refused"):
		return "connection"
	default:
		return "other"
	}
}
