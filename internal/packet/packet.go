// Package packet implements the OpenPGP packet layer: header framing,
// tag-typed packet bodies, the signature engine, and the session-key
// protocol. See RFC 9580, sections 4 and 5.
package packet

import (
	"errors"
	"fmt"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
)

// Errors surfaced by packet framing. Truncation is a malformed-input
// condition and matches ErrMalformed under errors.Is.
var (
	ErrMalformed          = errors.New("malformed packet data")
	ErrUnsupportedVersion = errors.New("unsupported packet version")
	ErrTruncatedStream    = fmt.Errorf("%w: truncated stream", ErrMalformed)
)

// Packet is one tag-typed OpenPGP record.
type Packet interface {
	// Tag returns the packet tag.
	Tag() enums.PacketTag
	// EncodeBody appends the packet body octets to dst.
	EncodeBody(dst []byte) ([]byte, error)
}

// List is an ordered sequence of packets.
type List []Packet

// FilterByTag returns the sub-list of packets carrying any of the given
// tags, preserving order.
func (l List) FilterByTag(tags ...enums.PacketTag) List {
	var out List
	for _, p := range l {
		for _, t := range tags {
			if p.Tag() == t {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// Encode serializes the list, emitting new-format headers with a single
// length field per packet.
func (l List) Encode() ([]byte, error) {
	var out []byte
	for _, p := range l {
		body, err := p.EncodeBody(nil)
		if err != nil {
			return nil, err
		}
		out = append(out, 0x80|0x40|byte(p.Tag()))
		out = appendLength(out, len(body))
		out = append(out, body...)
	}
	return out, nil
}

// appendLength appends a new-format packet length. See RFC 9580, section
// 4.2.1.
func appendLength(dst []byte, n int) []byte {
	switch {
	case n < 192:
		return append(dst, byte(n))
	case n < 8384:
		n -= 192
		return append(dst, 192+byte(n>>8), byte(n))
	default:
		return append(dst, 255, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	}
}

// Decode parses a packet stream into a list. Partial-length bodies are
// reassembled before the tag parser runs. Packets of unknown tags are
// preserved as [Opaque] so the stream round-trips.
func Decode(data []byte) (List, error) {
	var list List
	r := encoding.NewReader(data)
	for r.Len() > 0 {
		tag, body, err := readPacket(r)
		if err != nil {
			return nil, err
		}
		p, err := parseBody(tag, body)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, nil
}

// readPacket consumes one header and its (reassembled) body.
func readPacket(r *encoding.Reader) (enums.PacketTag, []byte, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	if first&0x80 == 0 {
		return 0, nil, fmt.Errorf("%w: tag octet missing MSB", ErrMalformed)
	}

	if first&0x40 == 0 {
		// Old format: 2-bit length type.
		tag := enums.PacketTag((first & 0x3F) >> 2)
		lengthType := first & 0x03
		if lengthType == 3 {
			// Indeterminate length runs to the end of the input.
			return tag, r.Rest(), nil
		}
		n := 1 << lengthType
		lenBytes, err := r.ReadBytes(n)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrTruncatedStream, err)
		}
		var length int
		for _, b := range lenBytes {
			length = length<<8 | int(b)
		}
		body, err := r.ReadBytes(length)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrTruncatedStream, err)
		}
		return tag, body, nil
	}

	// New format.
	tag := enums.PacketTag(first & 0x3F)
	body, err := readNewFormatBody(r)
	if err != nil {
		return 0, nil, err
	}
	return tag, body, nil
}

// readNewFormatBody reads a new-format length and body, reassembling
// partial-length chunks into one buffer.
func readNewFormatBody(r *encoding.Reader) ([]byte, error) {
	var body []byte
	for {
		octet, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: missing length", ErrTruncatedStream)
		}
		var length int
		partial := false
		switch {
		case octet < 192:
			length = int(octet)
		case octet < 224:
			second, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("%w: short two-octet length", ErrTruncatedStream)
			}
			length = (int(octet)-192)<<8 + int(second) + 192
		case octet == 255:
			v, err := r.ReadUint32()
			if err != nil {
				return nil, fmt.Errorf("%w: short four-octet length", ErrTruncatedStream)
			}
			length = int(v)
		default:
			length = 1 << (octet & 0x1F)
			partial = true
		}
		chunk, err := r.ReadBytes(length)
		if err != nil {
			return nil, fmt.Errorf("%w: body shorter than declared length", ErrTruncatedStream)
		}
		body = append(body, chunk...)
		if !partial {
			return body, nil
		}
		// A partial chunk must be followed by another length octet; the
		// loop reads it or reports truncation.
	}
}

// parseBody dispatches a reassembled body to its tag parser.
func parseBody(tag enums.PacketTag, body []byte) (Packet, error) {
	r := encoding.NewReader(body)
	switch tag {
	case enums.TagPublicKeyEncryptedSessionKey:
		return parseEncryptedKey(r)
	case enums.TagSignature:
		return parseSignature(r)
	case enums.TagSymmetricKeyEncryptedSessionKey:
		return parseSymmetricKeyEncrypted(r)
	case enums.TagOnePassSignature:
		return parseOnePassSignature(r)
	case enums.TagSecretKey, enums.TagSecretSubkey:
		return parseSecretKey(r, tag == enums.TagSecretSubkey)
	case enums.TagPublicKey, enums.TagPublicSubkey:
		return parsePublicKey(r, tag == enums.TagPublicSubkey)
	case enums.TagCompressedData:
		return parseCompressed(r)
	case enums.TagSymmetricallyEncryptedData:
		return parseSymmetricallyEncrypted(r)
	case enums.TagMarker:
		return parseMarker(r)
	case enums.TagLiteralData:
		return parseLiteralData(r)
	case enums.TagTrust:
		return &Trust{Data: append([]byte(nil), r.Rest()...)}, nil
	case enums.TagUserID:
		return parseUserID(r)
	case enums.TagUserAttribute:
		return parseUserAttribute(r)
	case enums.TagSymEncryptedIntegrityProtectedData:
		return parseSEIPD(r)
	case enums.TagPadding:
		return &Padding{Data: append([]byte(nil), r.Rest()...)}, nil
	}
	return &Opaque{RawTag: tag, Data: append([]byte(nil), body...)}, nil
}

// Opaque preserves a packet of a tag this library does not parse.
type Opaque struct {
	RawTag enums.PacketTag
	Data   []byte
}

func (o *Opaque) Tag() enums.PacketTag { return o.RawTag }
func (o *Opaque) EncodeBody(dst []byte) ([]byte, error) {
	return append(dst, o.Data...), nil
}

// Marker is the obsolete marker packet; its body is the octets "PGP".
// It is skipped on read and never influences processing.
type Marker struct{}

func parseMarker(r *encoding.Reader) (*Marker, error) {
	// Body content is not validated; historical implementations vary.
	r.Rest()
	return &Marker{}, nil
}

func (m *Marker) Tag() enums.PacketTag { return enums.TagMarker }
func (m *Marker) EncodeBody(dst []byte) ([]byte, error) {
	return append(dst, 'P', 'G', 'P'), nil
}

// Trust is a keyring-local trust packet; carried opaquely.
type Trust struct {
	Data []byte
}

func (t *Trust) Tag() enums.PacketTag { return enums.TagTrust }
func (t *Trust) EncodeBody(dst []byte) ([]byte, error) {
	return append(dst, t.Data...), nil
}

// Padding is the v6 padding packet; its content is random and ignored.
type Padding struct {
	Data []byte
}

func (p *Padding) Tag() enums.PacketTag { return enums.TagPadding }
func (p *Padding) EncodeBody(dst []byte) ([]byte, error) {
	return append(dst, p.Data...), nil
}
