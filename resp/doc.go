// Package resp provides a low-level implementation of the Redis
// serialization protocol (RESP2).
//
// This package is the framing layer underneath the command definitions: it
// writes command token sequences and reads raw replies. It carries no
// knowledge of individual commands.
//
// # Core Types
//
// Value is a pure data container for one reply:
//
//   - Kind: the RESP type byte (+, -, :, $, *)
//   - Str: payload of simple strings, errors and bulk strings
//   - Int: payload of integers
//   - Array: elements of arrays
//   - Null: set for null bulk strings ($-1) and null arrays (*-1)
//
// # Serialization and Parsing
//
// WriteCommand serializes a command as an array of bulk strings:
//
//	w := bufio.NewWriter(conn)
//	err := resp.WriteCommand(w, []string{"SET", "key", "value"})
//	err = w.Flush()
//
// ReadValue parses one reply:
//
//	v, err := resp.ReadValue(bufio.NewReader(conn))
//	if err != nil {
//	    if resp.ShouldCloseConnection(err) {
//	        conn.Close()
//	    }
//	    return err
//	}
//	if err := v.Err(); err != nil {
//	    // error reply from the server, the connection is still usable
//	}
//
// # Pipelining
//
// Several commands can be written before flushing, and their replies read
// back in the same order:
//
//	for _, args := range cmds {
//	    resp.WriteCommand(w, args)
//	}
//	w.Flush()
//	for range cmds {
//	    v, err := resp.ReadValue(r)
//	    ...
//	}
//
// # Error Handling
//
// Error replies (-ERR ...) are returned as a Value of KindError, not as a Go
// error. Value.Err converts them to *ServerError. Go errors returned by
// ReadValue indicate the connection state:
//
//   - ServerError: error reply, connection can be REUSED
//   - ParseError: malformed reply, CLOSE connection
//   - ConnectionError: network/I/O error, connection already broken
//
// # Thread Safety
//
// Value is not safe for concurrent mutation. WriteCommand and ReadValue are
// safe as long as each goroutine uses its own writer/reader.
package resp
