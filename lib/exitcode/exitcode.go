// Package exitcode exports meocloud's exit status numbers.
package exitcode

const (
	// Success is returned when meocloud finished without error.
	Success = iota
	// UsageError is returned when there was a syntax or usage error in
	// the arguments or the config.
	UsageError
	// UncategorizedError is returned for any error not categorised otherwise.
	UncategorizedError
	// FileNotFound is returned when the server says the file or folder
	// doesn't exist.
	FileNotFound
	// RetryError is returned for temporary errors which may succeed if
	// the command is run again.
	RetryError
	// NoRetryError is returned for errors from the server which running
	// again won't fix.
	NoRetryError
	// Interrupted is returned when meocloud was stopped by a signal.
	Interrupted
)
