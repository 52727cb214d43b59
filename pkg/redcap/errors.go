package redcap

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports a payload rejected before any network call:
// required keys are missing or the content discriminator does not match the
// requested operation.
type ConfigurationError struct {
	Missing []string // required keys absent from the payload, sorted
	Message string
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return "redcap: required keys missing: " + strings.Join(e.Missing, ", ")
	}
	return "redcap: " + e.Message
}

// ServiceError reports an error indicator embedded in a response body. The
// service signals semantic failures inside success-status bodies, so this
// can carry a 2xx StatusCode.
type ServiceError struct {
	StatusCode int
	Message    string
	Content    any // decoded body that carried the error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("redcap: service error (status %d): %s", e.StatusCode, e.Message)
}

// DecodeError reports a response body that could not be parsed as the
// declared format.
type DecodeError struct {
	Format string
	Cause  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("redcap: decoding %s response: %v", e.Format, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// UsageError reports a request the library refuses to build, such as an
// unsupported output format or a file operation on a field that is not
// file-typed.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return "redcap: " + e.Message
}

// IsRejected reports whether err means the call was rejected, either by
// payload validation before sending or by the service after: that is,
// whether err is a *ConfigurationError or a *ServiceError. Transport and
// decoding failures are not part of this family.
func IsRejected(err error) bool {
	var ce *ConfigurationError
	var se *ServiceError
	return errors.As(err, &ce) || errors.As(err, &se)
}
