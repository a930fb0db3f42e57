package packet

import (
	"fmt"
	"time"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
)

// Subpacket is one typed field in a signature's hashed or unhashed area.
// See RFC 9580, section 5.2.3.7.
type Subpacket struct {
	Critical bool
	Type     enums.SubpacketType
	Data     []byte
}

// parseSubpackets reads a length-prefixed subpacket area. A subpacket
// whose own framing is damaged aborts the area; unknown types are kept as
// raw data.
func parseSubpackets(r *encoding.Reader, lengthSize int) ([]Subpacket, error) {
	var areaLen int
	if lengthSize == 4 {
		v, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		areaLen = int(v)
	} else {
		v, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		areaLen = int(v)
	}
	area, err := r.ReadBytes(areaLen)
	if err != nil {
		return nil, err
	}

	var out []Subpacket
	ar := encoding.NewReader(area)
	for ar.Len() > 0 {
		sp, err := parseSubpacket(ar)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, nil
}

func parseSubpacket(r *encoding.Reader) (Subpacket, error) {
	octet, err := r.ReadByte()
	if err != nil {
		return Subpacket{}, err
	}
	var length int
	switch {
	case octet < 192:
		length = int(octet)
	case octet < 255:
		second, err := r.ReadByte()
		if err != nil {
			return Subpacket{}, err
		}
		length = (int(octet)-192)<<8 + int(second) + 192
	default:
		v, err := r.ReadUint32()
		if err != nil {
			return Subpacket{}, err
		}
		length = int(v)
	}
	if length < 1 {
		return Subpacket{}, fmt.Errorf("%w: empty subpacket", ErrMalformed)
	}
	body, err := r.ReadBytes(length)
	if err != nil {
		return Subpacket{}, err
	}
	return Subpacket{
		Critical: body[0]&0x80 != 0,
		Type:     enums.SubpacketType(body[0] & 0x7F),
		Data:     append([]byte(nil), body[1:]...),
	}, nil
}

// serializeSubpackets appends a length-prefixed subpacket area.
func serializeSubpackets(dst []byte, subs []Subpacket, lengthSize int) []byte {
	var area []byte
	for _, sp := range subs {
		typeOctet := byte(sp.Type)
		if sp.Critical {
			typeOctet |= 0x80
		}
		area = appendLength(area, 1+len(sp.Data))
		area = append(area, typeOctet)
		area = append(area, sp.Data...)
	}
	if lengthSize == 4 {
		dst = encoding.PutUint32(dst, uint32(len(area)))
	} else {
		dst = encoding.PutUint16(dst, uint16(len(area)))
	}
	return append(dst, area...)
}

// knownSubpacketTypes lists the types this library understands; a
// critical subpacket outside this set fails strict verification.
var knownSubpacketTypes = map[enums.SubpacketType]bool{
	enums.SubpacketCreationTime:              true,
	enums.SubpacketExpirationTime:            true,
	enums.SubpacketExportableCert:            true,
	enums.SubpacketTrust:                     true,
	enums.SubpacketRegularExpression:         true,
	enums.SubpacketRevocable:                 true,
	enums.SubpacketKeyExpirationTime:         true,
	enums.SubpacketPreferredSymmetric:        true,
	enums.SubpacketIssuerKeyID:               true,
	enums.SubpacketNotationData:              true,
	enums.SubpacketPreferredHash:             true,
	enums.SubpacketPreferredCompression:      true,
	enums.SubpacketKeyServerPreferences:      true,
	enums.SubpacketPreferredKeyServer:        true,
	enums.SubpacketPrimaryUserID:             true,
	enums.SubpacketPolicyURI:                 true,
	enums.SubpacketKeyFlags:                  true,
	enums.SubpacketSignerUserID:              true,
	enums.SubpacketRevocationReason:          true,
	enums.SubpacketFeatures:                  true,
	enums.SubpacketEmbeddedSignature:         true,
	enums.SubpacketIssuerFingerprint:         true,
	enums.SubpacketPreferredAEADCiphersuites: true,
}

// Subpacket constructors used by the signature builder.

func TimeSubpacket(t enums.SubpacketType, v time.Time) Subpacket {
	return Subpacket{Critical: true, Type: t, Data: encoding.PutUint32(nil, uint32(v.Unix()))}
}

// KeyExpirationSubpacket encodes a key-expiration duration in seconds
// from the key's creation time.
func KeyExpirationSubpacket(seconds uint32) Subpacket {
	return Subpacket{Critical: true, Type: enums.SubpacketKeyExpirationTime, Data: encoding.PutUint32(nil, seconds)}
}

// SigExpirationSubpacket encodes a signature-expiration duration in
// seconds from the signature's creation time.
func SigExpirationSubpacket(seconds uint32) Subpacket {
	return Subpacket{Critical: true, Type: enums.SubpacketExpirationTime, Data: encoding.PutUint32(nil, seconds)}
}

func issuerKeyIDSubpacket(keyID uint64) Subpacket {
	return Subpacket{Type: enums.SubpacketIssuerKeyID, Data: encoding.PutUint64(nil, keyID)}
}

func issuerFingerprintSubpacket(version enums.KeyVersion, fingerprint []byte) Subpacket {
	data := append([]byte{byte(version)}, fingerprint...)
	return Subpacket{Type: enums.SubpacketIssuerFingerprint, Data: data}
}

func KeyFlagsSubpacket(flags enums.KeyFlags) Subpacket {
	return Subpacket{Critical: true, Type: enums.SubpacketKeyFlags, Data: []byte{byte(flags)}}
}

func FeaturesSubpacket(features enums.Features) Subpacket {
	return Subpacket{Type: enums.SubpacketFeatures, Data: []byte{byte(features)}}
}

func PrimaryUserIDSubpacket() Subpacket {
	return Subpacket{Type: enums.SubpacketPrimaryUserID, Data: []byte{1}}
}

func PreferredAlgorithmsSubpacket(t enums.SubpacketType, algos []byte) Subpacket {
	return Subpacket{Type: t, Data: append([]byte(nil), algos...)}
}

func RevocationReasonSubpacket(code enums.RevocationReason, text string) Subpacket {
	data := append([]byte{byte(code)}, text...)
	return Subpacket{Type: enums.SubpacketRevocationReason, Data: data}
}

func EmbeddedSignatureSubpacket(sig *Signature) (Subpacket, error) {
	body, err := sig.EncodeBody(nil)
	if err != nil {
		return Subpacket{}, err
	}
	return Subpacket{Type: enums.SubpacketEmbeddedSignature, Data: body}, nil
}

// NotationData is one name/value pair from a notation-data subpacket.
type NotationData struct {
	HumanReadable bool
	Name          string
	Value         []byte
}

func NotationSubpacket(n NotationData) Subpacket {
	var flags byte
	if n.HumanReadable {
		flags = 0x80
	}
	data := []byte{flags, 0, 0, 0}
	data = encoding.PutUint16(data, uint16(len(n.Name)))
	data = encoding.PutUint16(data, uint16(len(n.Value)))
	data = append(data, n.Name...)
	data = append(data, n.Value...)
	return Subpacket{Type: enums.SubpacketNotationData, Data: data}
}

func parseNotation(data []byte) (NotationData, error) {
	r := encoding.NewReader(data)
	flags, err := r.ReadBytes(4)
	if err != nil {
		return NotationData{}, err
	}
	nameLen, err := r.ReadUint16()
	if err != nil {
		return NotationData{}, err
	}
	valueLen, err := r.ReadUint16()
	if err != nil {
		return NotationData{}, err
	}
	name, err := r.ReadBytes(int(nameLen))
	if err != nil {
		return NotationData{}, err
	}
	value, err := r.ReadBytes(int(valueLen))
	if err != nil {
		return NotationData{}, err
	}
	return NotationData{
		HumanReadable: flags[0]&0x80 != 0,
		Name:          string(name),
		Value:         append([]byte(nil), value...),
	}, nil
}
