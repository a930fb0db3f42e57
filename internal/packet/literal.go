package packet

import (
	"time"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
)

// LiteralData is a literal-data packet: the message payload with a format
// octet, an optional file name, and a timestamp. See RFC 9580, section
// 5.9.
type LiteralData struct {
	Format   enums.LiteralFormat
	FileName string
	Time     time.Time
	Data     []byte
}

func parseLiteralData(r *encoding.Reader) (*LiteralData, error) {
	format, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	nameLen, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	name, err := r.ReadBytes(int(nameLen))
	if err != nil {
		return nil, err
	}
	ts, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	return &LiteralData{
		Format:   enums.LiteralFormat(format),
		FileName: string(name),
		Time:     time.Unix(int64(ts), 0).UTC(),
		Data:     append([]byte(nil), r.Rest()...),
	}, nil
}

func (l *LiteralData) Tag() enums.PacketTag { return enums.TagLiteralData }

func (l *LiteralData) EncodeBody(dst []byte) ([]byte, error) {
	dst = append(dst, byte(l.Format))
	dst = append(dst, byte(len(l.FileName)))
	dst = append(dst, l.FileName...)
	var ts uint32
	if !l.Time.IsZero() {
		ts = uint32(l.Time.Unix())
	}
	dst = encoding.PutUint32(dst, ts)
	return append(dst, l.Data...), nil
}

// SignableBytes returns the octets hashed by a signature over this
// literal: raw data for binary signatures, CRLF-normalized text for text
// signatures.
func (l *LiteralData) SignableBytes() []byte {
	if !l.Format.IsText() {
		return l.Data
	}
	return normalizeLineEndings(l.Data)
}

// normalizeLineEndings converts line separators to CRLF for text-mode
// signature hashing.
func normalizeLineEndings(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		c := data[i]
		switch c {
		case '\r':
			out = append(out, '\r', '\n')
			if i+1 < len(data) && data[i+1] == '\n' {
				i++
			}
		case '\n':
			out = append(out, '\r', '\n')
		default:
			out = append(out, c)
		}
	}
	return out
}
