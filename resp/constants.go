package resp

// Kind is the RESP type byte that prefixes every reply.
type Kind byte

const (
	KindSimpleString Kind = '+'
	KindError        Kind = '-'
	KindInteger      Kind = ':'
	KindBulkString   Kind = '$'
	KindArray        Kind = '*'
)

func (k Kind) String() string {
	switch k {
	case KindSimpleString:
		return "simple string"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulkString:
		return "bulk string"
	case KindArray:
		return "array"
	default:
		return "unknown(" + string(rune(k)) + ")"
	}
}

// Protocol delimiters
const (
	// CRLF terminates every RESP line
	CRLF = "\r\n"
)

// Limits
const (
	// MaxBulkLength is the largest bulk string the server accepts (512MB).
	MaxBulkLength = 512 * 1024 * 1024

	// MaxArrayLength bounds array headers to protect against corrupted input.
	MaxArrayLength = 1<<31 - 1
)
