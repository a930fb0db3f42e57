package packet

import (
	"bytes"
	"compress/bzip2"
	"compress/flate"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
)

// CompressedData is a compressed-data packet wrapping a nested packet
// stream. See RFC 9580, section 5.6.
type CompressedData struct {
	Algorithm enums.CompressionAlgorithm
	// Compressed holds the compressed payload as read or produced.
	Compressed []byte
}

func parseCompressed(r *encoding.Reader) (*CompressedData, error) {
	algo, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	return &CompressedData{
		Algorithm:  enums.CompressionAlgorithm(algo),
		Compressed: append([]byte(nil), r.Rest()...),
	}, nil
}

func (c *CompressedData) Tag() enums.PacketTag { return enums.TagCompressedData }

func (c *CompressedData) EncodeBody(dst []byte) ([]byte, error) {
	dst = append(dst, byte(c.Algorithm))
	return append(dst, c.Compressed...), nil
}

// Decompress expands the nested packet stream. BZip2 is accepted on read
// even though it is never produced.
func (c *CompressedData) Decompress() ([]byte, error) {
	src := bytes.NewReader(c.Compressed)
	var zr io.Reader
	switch c.Algorithm {
	case enums.CompressionNone:
		return c.Compressed, nil
	case enums.CompressionZIP:
		zr = flate.NewReader(src)
	case enums.CompressionZLIB:
		var err error
		if zr, err = zlib.NewReader(src); err != nil {
			return nil, fmt.Errorf("%w: zlib: %v", ErrMalformed, err)
		}
	case enums.CompressionBZip2:
		zr = bzip2.NewReader(src)
	default:
		return nil, fmt.Errorf("unsupported compression algorithm %d", c.Algorithm)
	}
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %v", ErrMalformed, err)
	}
	return out, nil
}

// Compress builds a compressed-data packet around a nested packet stream.
// BZip2 cannot be produced and falls back to ZLIB.
func Compress(algo enums.CompressionAlgorithm, nested []byte) (*CompressedData, error) {
	if algo == enums.CompressionBZip2 {
		algo = enums.CompressionZLIB
	}
	var buf bytes.Buffer
	switch algo {
	case enums.CompressionNone:
		buf.Write(nested)
	case enums.CompressionZIP:
		zw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(nested); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
	case enums.CompressionZLIB:
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(nested); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported compression algorithm %d", algo)
	}
	return &CompressedData{Algorithm: algo, Compressed: buf.Bytes()}, nil
}
