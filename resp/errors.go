package resp

import (
	"errors"
	"fmt"
	"strings"
)

// ServerError is an error reply (-ERR ..., -WRONGTYPE ...). The server read
// the whole command and refused it: the connection stays usable.
type ServerError struct {
	// Prefix is the first word of the error (ERR, WRONGTYPE, NOSCRIPT, EXECABORT...)
	Prefix  string
	Message string
}

// NewServerError builds a ServerError from the raw error line.
func NewServerError(line string) *ServerError {
	prefix, _, _ := strings.Cut(line, " ")
	return &ServerError{Prefix: prefix, Message: line}
}

func (e *ServerError) Error() string {
	return e.Message
}

func (e *ServerError) ShouldCloseConnection() bool {
	return false
}

// IsServerError reports whether err is a ServerError with the given prefix.
func IsServerError(err error, prefix string) bool {
	var se *ServerError
	return errors.As(err, &se) && se.Prefix == prefix
}

// ParseError reports a reply that is not valid RESP (unknown type byte, bad
// length, missing CRLF). The reader position is lost with it.
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "resp: parse error: " + e.Message + ": " + e.Err.Error()
	}
	return "resp: parse error: " + e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) ShouldCloseConnection() bool {
	return true
}

// ConnectionError wraps the I/O error of a read, write or flush.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("resp: connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// ErrorWithConnectionState is implemented by errors that know whether the
// connection they occurred on must be closed.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether the connection err occurred on must
// be closed. Errors that do not implement ErrorWithConnectionState close it.
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	return true
}
