// internal/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = stderrors.New("not found")
	// ErrAlreadyExists is returned when a unique constraint would be violated.
	ErrAlreadyExists = stderrors.New("already exists")
)

// ConfigError is returned when required settings are missing or malformed.
type ConfigError struct {
	Missing []string
	Msg     string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing required settings: %s", strings.Join(e.Missing, ", "))
	}
	return "configuration error: " + e.Msg
}

// APIError is returned when the remote repository-hosting API fails.
type APIError struct {
	Msg          string
	StatusCode   int
	ResponseText string
	RateLimited  bool
}

func (e *APIError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("%s (status %d, rate limited)", e.Msg, e.StatusCode)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d)", e.Msg, e.StatusCode)
	}
	return e.Msg
}

// DatabaseError wraps any store failure.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error: %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// SubscriptionError signals a subscription business-rule violation.
type SubscriptionError struct {
	Msg string
	Err error
}

func (e *SubscriptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// ValidationError is returned for malformed input such as repository names.
type ValidationError struct {
	Field string
	Value string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Msg)
}

// NotificationError is returned when a notification channel fails.
type NotificationError struct {
	Channel string
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification via %s failed: %v", e.Channel, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// ReportGenerationError is returned when a report cannot be composed.
type ReportGenerationError struct {
	Format string
	Msg    string
}

func (e *ReportGenerationError) Error() string {
	return fmt.Sprintf("report generation failed (%s): %s", e.Format, e.Msg)
}

// SchedulerError is returned for invalid job definitions.
type SchedulerError struct {
	Msg string
	Err error
}

func (e *SchedulerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scheduler: %s: %v", e.Msg, e.Err)
	}
	return "scheduler: " + e.Msg
}

func (e *SchedulerError) Unwrap() error { return e.Err }
