package material

import (
	"bytes"
	"crypto/ecdh"
	"crypto/elliptic"
	"fmt"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
)

// Curve identifies an elliptic curve by its wire OID. See RFC 9580,
// section 9.2.
type Curve struct {
	// OID is the curve's object identifier body as carried on the wire.
	OID []byte
	// Name is the human-readable curve name.
	Name string
}

var (
	CurveP256 = Curve{OID: []byte{0x2A, 0x86, 0x48, 0xCE, 0x3D, 0x03, 0x01, 0x07}, Name: "P-256"}
	CurveP384 = Curve{OID: []byte{0x2B, 0x81, 0x04, 0x00, 0x22}, Name: "P-384"}
	CurveP521 = Curve{OID: []byte{0x2B, 0x81, 0x04, 0x00, 0x23}, Name: "P-521"}

	// Legacy OIDs for the algorithm-22 and curve25519-ECDH encodings.
	CurveEd25519Legacy = Curve{OID: []byte{0x2B, 0x06, 0x01, 0x04, 0x01, 0xDA, 0x47, 0x0F, 0x01}, Name: "Ed25519Legacy"}
	CurveX25519Legacy  = Curve{OID: []byte{0x2B, 0x06, 0x01, 0x04, 0x01, 0x97, 0x55, 0x01, 0x05, 0x01}, Name: "Curve25519Legacy"}
)

// Equal reports whether two curves share an OID.
func (c Curve) Equal(other Curve) bool {
	return bytes.Equal(c.OID, other.OID)
}

// ellipticCurve resolves a NIST curve for ECDSA arithmetic.
func (c Curve) ellipticCurve() (elliptic.Curve, error) {
	switch {
	case c.Equal(CurveP256):
		return elliptic.P256(), nil
	case c.Equal(CurveP384):
		return elliptic.P384(), nil
	case c.Equal(CurveP521):
		return elliptic.P521(), nil
	}
	return nil, fmt.Errorf("%w: curve %x", ErrUnsupportedAlgorithm, c.OID)
}

// ecdhCurve resolves a NIST curve for ECDH agreement.
func (c Curve) ecdhCurve() (ecdh.Curve, error) {
	switch {
	case c.Equal(CurveP256):
		return ecdh.P256(), nil
	case c.Equal(CurveP384):
		return ecdh.P384(), nil
	case c.Equal(CurveP521):
		return ecdh.P521(), nil
	}
	return nil, fmt.Errorf("%w: curve %x", ErrUnsupportedAlgorithm, c.OID)
}

// defaultKDF returns the RFC 6637 KDF parameters conventionally paired
// with the curve.
func (c Curve) defaultKDF() (enums.HashAlgorithm, enums.SymmetricAlgorithm) {
	switch {
	case c.Equal(CurveP384):
		return enums.HashSHA384, enums.SymAES192
	case c.Equal(CurveP521):
		return enums.HashSHA512, enums.SymAES256
	default:
		return enums.HashSHA256, enums.SymAES128
	}
}

// readCurveOID consumes a 1-byte-length-prefixed curve OID.
func readCurveOID(r *encoding.Reader) (Curve, error) {
	n, err := r.ReadByte()
	if err != nil {
		return Curve{}, err
	}
	oid, err := r.ReadBytes(int(n))
	if err != nil {
		return Curve{}, err
	}
	for _, known := range []Curve{CurveP256, CurveP384, CurveP521, CurveEd25519Legacy, CurveX25519Legacy} {
		if bytes.Equal(known.OID, oid) {
			return known, nil
		}
	}
	return Curve{OID: append([]byte(nil), oid...), Name: "Unknown"}, nil
}

// writeCurveOID appends the 1-byte-length-prefixed curve OID to dst.
func writeCurveOID(dst []byte, c Curve) []byte {
	dst = append(dst, byte(len(c.OID)))
	return append(dst, c.OID...)
}
