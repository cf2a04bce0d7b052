package live

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when Live does not answer a query within the
	// transport's timeout window.
	ErrTimeout = errors.New("timed out waiting for response")

	// ErrBadResponse is returned when a response arrives but its shape does
	// not match what the command contract promises.
	ErrBadResponse = errors.New("malformed response")
)

// ConnectionError reports a failed exchange with the remote Live instance.
type ConnectionError struct {
	Op   string // "query" or "cmd"
	Path string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("live: %s %s: %v (is Live running with AbletonOSC loaded?)", e.Op, e.Path, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func shapeErr(path string, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %s: %w", path, fmt.Sprintf(format, args...), ErrBadResponse)
}
