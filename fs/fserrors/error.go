// Package fserrors classifies the errors returned by the transport
package fserrors

import (
	"context"
	"io"
	"net"
	"strings"

	"github.com/pkg/errors"
)

// retriableErrors is a list of errors which if seen anywhere in the
// chain of wrapped errors mean the request may succeed if tried again
var retriableErrors = []error{
	io.EOF,
	io.ErrUnexpectedEOF,
}

// retriableErrorStrings are fragments of the messages of errors the
// standard library doesn't export
var retriableErrorStrings = []string{
	"use of closed network connection",
	"unexpected EOF reading trailer",
	"transport connection broken",
	"http: ContentLength=",
	"server closed idle connection",
	"bad record MAC",
	"stream error:",
	"connection reset by peer",
}

// ShouldRetry looks at an error from a request and says whether
// making the request again might work.
//
// Cancellation is never retriable.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	for _, retriable := range retriableErrors {
		if errors.Is(err, retriable) {
			return true
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	errString := err.Error()
	for _, phrase := range retriableErrorStrings {
		if strings.Contains(errString, phrase) {
			return true
		}
	}
	return false
}
