// Errors and error handling

package fs

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// ConfigError is returned when a caller supplied value is invalid.
//
// It is always raised locally, before any network activity.
type ConfigError struct {
	msg string
}

// Error satisfies the error interface
func (e *ConfigError) Error() string {
	return e.msg
}

// Check interface
var _ error = (*ConfigError)(nil)

// ConfigErrorf makes a new configuration error
func ConfigErrorf(format string, a ...interface{}) error {
	return &ConfigError{msg: fmt.Sprintf(format, a...)}
}

// IsConfigError returns true if err is, or wraps, a *ConfigError
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// Errors returned before any request is sent
var (
	ErrorMissingContentLength    = ConfigErrorf("upload source given without a content length")
	ErrorUnexpectedContentLength = ConfigErrorf("content length given without an upload source")
	ErrorResponseModeUnset       = ConfigErrorf("request has no response mode")
	ErrorMissingCredentials      = ConfigErrorf("consumer key and access token are required")
)

// ErrorContentLengthExceeded is returned when an upload source holds
// more bytes than the content length it was declared with
var ErrorContentLengthExceeded = errors.New("upload source is longer than its content length")

// CheckClose is a utility function used to check the return from
// Close in a defer statement.
func CheckClose(c io.Closer, err *error) {
	cerr := c.Close()
	if *err == nil {
		*err = cerr
	}
}
