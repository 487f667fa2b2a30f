package resp

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"sync"
)

var bufferPool = sync.Pool{
	New: func() any {
		// Typical command is well under 256 bytes
		return bytes.NewBuffer(make([]byte, 0, 256))
	},
}

func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

func putBuffer(buf *bytes.Buffer) {
	// Don't keep huge buffers around
	if buf.Cap() > 64*1024 {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}

// WriteCommand serializes a command token sequence as a RESP array of bulk strings.
// Format: *<n>\r\n($<len>\r\n<token>\r\n)*
//
// A *bufio.Writer is written to directly and is NOT flushed, so several
// commands can be pipelined before a single Flush. Other writers receive the
// whole command in one Write call.
func WriteCommand(w io.Writer, args []string) error {
	if bw, ok := w.(*bufio.Writer); ok {
		return writeCommandBuffered(bw, args)
	}
	return writeCommandUnbuffered(w, args)
}

func writeCommandBuffered(bw *bufio.Writer, args []string) error {
	var scratch [24]byte

	bw.WriteByte(byte(KindArray))
	bw.Write(strconv.AppendInt(scratch[:0], int64(len(args)), 10))
	if _, err := bw.WriteString(CRLF); err != nil {
		return &ConnectionError{Op: "write", Err: err}
	}

	// bufio.Writer errors are sticky, checking the last write of each token is enough
	for _, arg := range args {
		bw.WriteByte(byte(KindBulkString))
		bw.Write(strconv.AppendInt(scratch[:0], int64(len(arg)), 10))
		bw.WriteString(CRLF)
		bw.WriteString(arg)
		if _, err := bw.WriteString(CRLF); err != nil {
			return &ConnectionError{Op: "write", Err: err}
		}
	}

	return nil
}

func writeCommandUnbuffered(w io.Writer, args []string) error {
	buf := getBuffer()
	defer putBuffer(buf)

	b := AppendCommand(buf.AvailableBuffer(), args)
	if _, err := w.Write(b); err != nil {
		return &ConnectionError{Op: "write", Err: err}
	}
	return nil
}

// AppendCommand appends the RESP encoding of args to dst and returns the extended slice.
func AppendCommand(dst []byte, args []string) []byte {
	dst = append(dst, byte(KindArray))
	dst = strconv.AppendInt(dst, int64(len(args)), 10)
	dst = append(dst, CRLF...)

	for _, arg := range args {
		dst = append(dst, byte(KindBulkString))
		dst = strconv.AppendInt(dst, int64(len(arg)), 10)
		dst = append(dst, CRLF...)
		dst = append(dst, arg...)
		dst = append(dst, CRLF...)
	}
	return dst
}

// WriteValue serializes a reply value. Used by test servers and tools that
// speak the server side of the protocol.
func WriteValue(w io.Writer, v Value) error {
	buf := getBuffer()
	defer putBuffer(buf)

	b := AppendValue(buf.AvailableBuffer(), v)
	if _, err := w.Write(b); err != nil {
		return &ConnectionError{Op: "write", Err: err}
	}
	return nil
}

// AppendValue appends the RESP encoding of v to dst.
func AppendValue(dst []byte, v Value) []byte {
	dst = append(dst, byte(v.Kind))

	if v.Null {
		return append(dst, "-1"+CRLF...)
	}

	switch v.Kind {
	case KindSimpleString, KindError:
		dst = append(dst, v.Str...)
		dst = append(dst, CRLF...)
	case KindInteger:
		dst = strconv.AppendInt(dst, v.Int, 10)
		dst = append(dst, CRLF...)
	case KindBulkString:
		dst = strconv.AppendInt(dst, int64(len(v.Str)), 10)
		dst = append(dst, CRLF...)
		dst = append(dst, v.Str...)
		dst = append(dst, CRLF...)
	case KindArray:
		dst = strconv.AppendInt(dst, int64(len(v.Array)), 10)
		dst = append(dst, CRLF...)
		for _, elem := range v.Array {
			dst = AppendValue(dst, elem)
		}
	}
	return dst
}
