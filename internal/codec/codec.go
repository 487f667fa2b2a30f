// Package codec encodes and decodes stored values for the command line tool
// (values written compressed or base64-encoded by applications).
package codec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Codec transforms a stored value. Decode is the inverse of Encode.
type Codec interface {
	Encode([]byte) ([]byte, error)
	Decode([]byte) ([]byte, error)
}

// Names lists the available codecs.
var Names = []string{"base64", "gzip", "snappy", "zstd"}

// Get returns a codec by name (case-insensitive).
func Get(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "base64":
		return base64Codec{}, nil
	case "gzip":
		return gzipCodec{}, nil
	case "snappy":
		return snappyCodec{}, nil
	case "zstd":
		return zstdCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q (available: %s)", name, strings.Join(Names, ", "))
	}
}

type base64Codec struct{}

func (base64Codec) Encode(data []byte) ([]byte, error) {
	return base64.StdEncoding.AppendEncode(nil, data), nil
}

func (base64Codec) Decode(data []byte) ([]byte, error) {
	return base64.StdEncoding.AppendDecode(nil, data)
}

type gzipCodec struct{}

func (gzipCodec) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)

	// the footer is written by Close, before reading buf
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("gzip write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (gzipCodec) Decode(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reader init failed: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip read failed: %w", err)
	}
	return out, nil
}

type snappyCodec struct{}

func (snappyCodec) Encode(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (snappyCodec) Decode(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}

// The zstd encoder and decoder are safe for concurrent EncodeAll/DecodeAll
// and expensive to create.
var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func zstdCoders() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

type zstdCodec struct{}

func (zstdCodec) Encode(data []byte) ([]byte, error) {
	enc, _, err := zstdCoders()
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
}

func (zstdCodec) Decode(data []byte) ([]byte, error) {
	_, dec, err := zstdCoders()
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}
	return out, nil
}
