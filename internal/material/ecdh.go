package material

import (
	"crypto/ecdh"
	"fmt"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/provider"
)

// anonymousSender is the fixed KDF context string of RFC 6637, section 8.
var anonymousSender = []byte("Anonymous Sender    ")

// ECDHPublic holds an ECDH public point plus the KDF parameters that
// govern session-key wrapping for this key.
type ECDHPublic struct {
	Curve     Curve
	Point     []byte
	KDFHash   enums.HashAlgorithm
	KDFCipher enums.SymmetricAlgorithm
}

// ECDHSecret holds the ECDH private scalar.
type ECDHSecret struct {
	Pub *ECDHPublic
	D   []byte
}

func parseECDHPublic(r *encoding.Reader) (*ECDHPublic, error) {
	curve, err := readCurveOID(r)
	if err != nil {
		return nil, err
	}
	point, err := encoding.ReadMPI(r)
	if err != nil {
		return nil, err
	}
	// KDF parameters: length octet, reserved 0x01, hash id, cipher id.
	kdfLen, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	kdf, err := r.ReadBytes(int(kdfLen))
	if err != nil {
		return nil, err
	}
	if kdfLen != 3 || kdf[0] != 0x01 {
		return nil, fmt.Errorf("%w: ECDH KDF parameter block", ErrInvalidMaterial)
	}
	return &ECDHPublic{
		Curve:     curve,
		Point:     append([]byte(nil), point...),
		KDFHash:   enums.HashAlgorithm(kdf[1]),
		KDFCipher: enums.SymmetricAlgorithm(kdf[2]),
	}, nil
}

func parseECDHSecret(pub *ECDHPublic, r *encoding.Reader) (*ECDHSecret, error) {
	d, err := encoding.ReadMPI(r)
	if err != nil {
		return nil, err
	}
	return &ECDHSecret{Pub: pub, D: append([]byte(nil), d...)}, nil
}

// NewECDHSecret wraps a generated stdlib ECDH key in wire material with
// the curve's conventional KDF parameters.
func NewECDHSecret(curve Curve, key *ecdh.PrivateKey) *ECDHSecret {
	kdfHash, kdfCipher := curve.defaultKDF()
	return &ECDHSecret{
		Pub: &ECDHPublic{
			Curve:     curve,
			Point:     key.PublicKey().Bytes(),
			KDFHash:   kdfHash,
			KDFCipher: kdfCipher,
		},
		D: key.Bytes(),
	}
}

func (k *ECDHPublic) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyECDH }
func (k *ECDHPublic) isPublic()                           {}

func (k *ECDHPublic) Serialize(dst []byte) []byte {
	dst = writeCurveOID(dst, k.Curve)
	dst = encoding.WriteMPI(dst, k.Point)
	return append(dst, 3, 0x01, byte(k.KDFHash), byte(k.KDFCipher))
}

func (k *ECDHPublic) Validate() error {
	curve, err := k.Curve.ecdhCurve()
	if err != nil {
		return err
	}
	if _, err := curve.NewPublicKey(k.Point); err != nil {
		return fmt.Errorf("%w: ECDH point: %v", ErrInvalidMaterial, err)
	}
	return nil
}

// kdf derives the key-encryption key from the ECDH shared secret per RFC
// 6637, section 7.
func (k *ECDHPublic) kdf(p provider.Provider, shared, fingerprint []byte) ([]byte, error) {
	h, err := p.NewHash(k.KDFHash)
	if err != nil {
		return nil, err
	}
	h.Write([]byte{0, 0, 0, 1})
	h.Write(shared)
	h.Write([]byte{byte(len(k.Curve.OID))})
	h.Write(k.Curve.OID)
	h.Write([]byte{byte(enums.PubKeyECDH), 3, 0x01, byte(k.KDFHash), byte(k.KDFCipher)})
	h.Write(anonymousSender)
	h.Write(fingerprint)
	kek := h.Sum(nil)
	size := k.KDFCipher.KeySize()
	if size == 0 || len(kek) < size {
		return nil, fmt.Errorf("%w: ECDH KDF cipher %d", ErrUnsupportedAlgorithm, k.KDFCipher)
	}
	return kek[:size], nil
}

func (k *ECDHPublic) encrypt(p provider.Provider, fingerprint, payload []byte) ([]byte, error) {
	curve, err := k.Curve.ecdhCurve()
	if err != nil {
		return nil, err
	}
	pub, err := curve.NewPublicKey(k.Point)
	if err != nil {
		return nil, fmt.Errorf("%w: ECDH point: %v", ErrInvalidMaterial, err)
	}
	eph, err := curve.GenerateKey(p.RandomReader())
	if err != nil {
		return nil, err
	}
	shared, err := eph.ECDH(pub)
	if err != nil {
		return nil, err
	}
	kek, err := k.kdf(p, shared, fingerprint)
	if err != nil {
		return nil, err
	}
	wrapped, err := encoding.KeyWrap(kek, padPKCS5(payload))
	if err != nil {
		return nil, err
	}
	out := encoding.WriteMPI(nil, eph.PublicKey().Bytes())
	out = append(out, byte(len(wrapped)))
	return append(out, wrapped...), nil
}

func (k *ECDHSecret) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyECDH }
func (k *ECDHSecret) isSecret()                           {}

func (k *ECDHSecret) Serialize(dst []byte) []byte {
	return encoding.WriteMPI(dst, k.D)
}

// Validate checks that the scalar generates the public point.
func (k *ECDHSecret) Validate() error {
	curve, err := k.Pub.Curve.ecdhCurve()
	if err != nil {
		return err
	}
	priv, err := curve.NewPrivateKey(k.scalarBytes(curve))
	if err != nil {
		return fmt.Errorf("%w: ECDH scalar: %v", ErrInvalidMaterial, err)
	}
	pub, err := curve.NewPublicKey(k.Pub.Point)
	if err != nil {
		return fmt.Errorf("%w: ECDH point: %v", ErrInvalidMaterial, err)
	}
	if !priv.PublicKey().Equal(pub) {
		return fmt.Errorf("%w: ECDH scalar does not generate the public point", ErrInvalidMaterial)
	}
	return nil
}

// scalarBytes left-pads the wire scalar to the curve's fixed width.
func (k *ECDHSecret) scalarBytes(curve ecdh.Curve) []byte {
	var width int
	switch curve {
	case ecdh.P256():
		width = 32
	case ecdh.P384():
		width = 48
	default:
		width = 66
	}
	return encoding.PadLeft(k.D, width)
}

func (k *ECDHSecret) decrypt(p provider.Provider, fingerprint, field []byte) ([]byte, error) {
	curve, err := k.Pub.Curve.ecdhCurve()
	if err != nil {
		return nil, err
	}
	fr := encoding.NewReader(field)
	ephPoint, err := encoding.ReadMPI(fr)
	if err != nil {
		return nil, err
	}
	wrappedLen, err := fr.ReadByte()
	if err != nil {
		return nil, err
	}
	wrapped, err := fr.ReadBytes(int(wrappedLen))
	if err != nil {
		return nil, err
	}

	eph, err := curve.NewPublicKey(ephPoint)
	if err != nil {
		return nil, fmt.Errorf("%w: ephemeral point: %v", ErrDecryptionFailed, err)
	}
	priv, err := curve.NewPrivateKey(k.scalarBytes(curve))
	if err != nil {
		return nil, fmt.Errorf("%w: ECDH scalar: %v", ErrInvalidMaterial, err)
	}
	shared, err := priv.ECDH(eph)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	kek, err := k.Pub.kdf(p, shared, fingerprint)
	if err != nil {
		return nil, err
	}
	padded, err := encoding.KeyUnwrap(kek, wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return unpadPKCS5(padded)
}

// padPKCS5 pads payload to 8-byte granularity with octets holding the pad
// length, per RFC 6637, section 8.
func padPKCS5(payload []byte) []byte {
	n := 8 - len(payload)%8
	out := make([]byte, len(payload)+n)
	copy(out, payload)
	for i := len(payload); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func unpadPKCS5(padded []byte) ([]byte, error) {
	if len(padded) == 0 {
		return nil, fmt.Errorf("%w: empty unwrapped block", ErrDecryptionFailed)
	}
	n := int(padded[len(padded)-1])
	if n == 0 || n > 8 || n > len(padded) {
		return nil, fmt.Errorf("%w: bad padding", ErrDecryptionFailed)
	}
	for _, b := range padded[len(padded)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrDecryptionFailed)
		}
	}
	return padded[:len(padded)-n], nil
}
