package material

import (
	"crypto/ed25519"
	"fmt"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
)

// EdDSALegacyPublic holds an algorithm-22 EdDSA public key: a curve OID
// and the point as an MPI in prefixed native form (0x40 || 32 octets).
type EdDSALegacyPublic struct {
	Curve Curve
	Point []byte
}

// EdDSALegacySecret holds the Ed25519 seed as an MPI.
type EdDSALegacySecret struct {
	Pub  *EdDSALegacyPublic
	Seed []byte
}

func parseEdDSALegacyPublic(r *encoding.Reader) (*EdDSALegacyPublic, error) {
	curve, err := readCurveOID(r)
	if err != nil {
		return nil, err
	}
	point, err := encoding.ReadMPI(r)
	if err != nil {
		return nil, err
	}
	return &EdDSALegacyPublic{Curve: curve, Point: append([]byte(nil), point...)}, nil
}

func parseEdDSALegacySecret(pub *EdDSALegacyPublic, r *encoding.Reader) (*EdDSALegacySecret, error) {
	seed, err := encoding.ReadMPI(r)
	if err != nil {
		return nil, err
	}
	return &EdDSALegacySecret{Pub: pub, Seed: append([]byte(nil), seed...)}, nil
}

func (k *EdDSALegacyPublic) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyEdDSALegacy }
func (k *EdDSALegacyPublic) isPublic()                           {}

func (k *EdDSALegacyPublic) Serialize(dst []byte) []byte {
	dst = writeCurveOID(dst, k.Curve)
	return encoding.WriteMPI(dst, k.Point)
}

func (k *EdDSALegacyPublic) keyBytes() ([]byte, error) {
	if !k.Curve.Equal(CurveEd25519Legacy) {
		return nil, fmt.Errorf("%w: EdDSA curve %x", ErrUnsupportedAlgorithm, k.Curve.OID)
	}
	if len(k.Point) != 1+ed25519.PublicKeySize || k.Point[0] != 0x40 {
		return nil, fmt.Errorf("%w: EdDSA point encoding", ErrInvalidMaterial)
	}
	return k.Point[1:], nil
}

func (k *EdDSALegacyPublic) Validate() error {
	_, err := k.keyBytes()
	return err
}

// verify checks the legacy two-MPI signature encoding (R then S, each up
// to 32 octets with leading zeros stripped).
func (k *EdDSALegacyPublic) verify(digest, sig []byte) error {
	pub, err := k.keyBytes()
	if err != nil {
		return err
	}
	sr := encoding.NewReader(sig)
	rPart, err := encoding.ReadMPI(sr)
	if err != nil {
		return err
	}
	sPart, err := encoding.ReadMPI(sr)
	if err != nil {
		return err
	}
	full := make([]byte, ed25519.SignatureSize)
	copy(full[32-len(rPart):32], rPart)
	copy(full[64-len(sPart):], sPart)
	if !ed25519.Verify(ed25519.PublicKey(pub), digest, full) {
		return fmt.Errorf("EdDSA signature mismatch")
	}
	return nil
}

func (k *EdDSALegacySecret) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyEdDSALegacy }
func (k *EdDSALegacySecret) isSecret()                           {}

func (k *EdDSALegacySecret) Serialize(dst []byte) []byte {
	return encoding.WriteMPI(dst, k.Seed)
}

func (k *EdDSALegacySecret) seedBytes() []byte {
	return encoding.PadLeft(k.Seed, ed25519.SeedSize)
}

// Validate checks that the seed generates the public point.
func (k *EdDSALegacySecret) Validate() error {
	pub, err := k.Pub.keyBytes()
	if err != nil {
		return err
	}
	derived := ed25519.NewKeyFromSeed(k.seedBytes()).Public().(ed25519.PublicKey)
	if !derived.Equal(ed25519.PublicKey(pub)) {
		return fmt.Errorf("%w: EdDSA seed does not generate the public point", ErrInvalidMaterial)
	}
	return nil
}

func (k *EdDSALegacySecret) sign(digest []byte) ([]byte, error) {
	priv := ed25519.NewKeyFromSeed(k.seedBytes())
	sig := ed25519.Sign(priv, digest)
	out := encoding.WriteMPI(nil, sig[:32])
	return encoding.WriteMPI(out, sig[32:]), nil
}
