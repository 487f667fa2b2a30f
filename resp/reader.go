package resp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
)

var crlfBytes = []byte(CRLF)

// ReadValue reads and parses a single reply from r.
//
// Error replies from the server are returned as a Value of KindError (not as
// Go error). The caller should check Value.Err.
//
// Go errors returned indicate I/O or parsing failures:
//   - ConnectionError: the underlying reader failed (io.EOF included)
//   - ParseError: malformed reply, connection should be closed
func ReadValue(r *bufio.Reader) (Value, error) {
	line, err := readLine(r)
	if err != nil {
		return Value{}, err
	}

	if len(line) == 0 {
		return Value{}, &ParseError{Message: "empty reply line"}
	}

	kind := Kind(line[0])
	payload := line[1:]

	switch kind {
	case KindSimpleString:
		return Value{Kind: kind, Str: string(payload)}, nil

	case KindError:
		return Value{Kind: kind, Str: string(payload)}, nil

	case KindInteger:
		n, err := strconv.ParseInt(string(payload), 10, 64)
		if err != nil {
			return Value{}, &ParseError{Message: "invalid integer", Err: err}
		}
		return Value{Kind: kind, Int: n}, nil

	case KindBulkString:
		size, err := parseLength(payload, MaxBulkLength)
		if err != nil {
			return Value{}, err
		}
		if size < 0 {
			return NullBulk(), nil
		}

		// Read data + CRLF together in single read
		data := make([]byte, size+2)
		if _, err := io.ReadFull(r, data); err != nil {
			return Value{}, &ConnectionError{Op: "read", Err: err}
		}
		if !bytes.HasSuffix(data, crlfBytes) {
			return Value{}, &ParseError{Message: "invalid bulk string terminator"}
		}
		return Value{Kind: kind, Str: string(data[:size])}, nil

	case KindArray:
		count, err := parseLength(payload, MaxArrayLength)
		if err != nil {
			return Value{}, err
		}
		if count < 0 {
			return NullArray(), nil
		}

		values := make([]Value, count)
		for i := range values {
			values[i], err = ReadValue(r)
			if err != nil {
				return Value{}, err
			}
		}
		return Value{Kind: kind, Array: values}, nil

	default:
		return Value{}, &ParseError{Message: "unknown type byte " + strconv.QuoteRune(rune(kind))}
	}
}

// readLine reads one CRLF-terminated line. The returned slice is only valid
// until the next read on r.
func readLine(r *bufio.Reader) ([]byte, error) {
	// ReadSlice avoids allocating; fall back to ReadBytes for oversized lines
	line, err := r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		var rest []byte
		head := append([]byte(nil), line...)
		rest, err = r.ReadBytes('\n')
		line = append(head, rest...)
	}
	if err != nil {
		return nil, &ConnectionError{Op: "read", Err: err}
	}

	if !bytes.HasSuffix(line, crlfBytes) {
		return nil, &ParseError{Message: "line not terminated by CRLF"}
	}
	return line[:len(line)-2], nil
}

// parseLength parses a bulk/array length header. -1 denotes null.
func parseLength(b []byte, limit int) (int, error) {
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return 0, &ParseError{Message: "invalid length", Err: err}
	}
	if n < -1 {
		return 0, &ParseError{Message: "negative length " + strconv.Itoa(n)}
	}
	if n > limit {
		return 0, &ParseError{Message: "length " + strconv.Itoa(n) + " exceeds limit"}
	}
	return n, nil
}
