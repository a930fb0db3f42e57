package material

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/provider"
)

// ECDSAPublic holds an ECDSA public point in uncompressed SEC1 form,
// carried as an MPI.
type ECDSAPublic struct {
	Curve Curve
	Point []byte
}

// ECDSASecret holds the ECDSA private scalar d.
type ECDSASecret struct {
	Pub *ECDSAPublic
	D   *big.Int
}

func parseECDSAPublic(r *encoding.Reader) (*ECDSAPublic, error) {
	curve, err := readCurveOID(r)
	if err != nil {
		return nil, err
	}
	point, err := encoding.ReadMPI(r)
	if err != nil {
		return nil, err
	}
	return &ECDSAPublic{Curve: curve, Point: append([]byte(nil), point...)}, nil
}

func parseECDSASecret(pub *ECDSAPublic, r *encoding.Reader) (*ECDSASecret, error) {
	d, err := encoding.ReadMPIBig(r)
	if err != nil {
		return nil, err
	}
	return &ECDSASecret{Pub: pub, D: d}, nil
}

// NewECDSASecret wraps a generated stdlib ECDSA key in wire material.
func NewECDSASecret(curve Curve, key *ecdsa.PrivateKey) *ECDSASecret {
	point := append([]byte{0x04},
		append(encoding.PadLeft(key.X.Bytes(), (key.Curve.Params().BitSize+7)/8),
			encoding.PadLeft(key.Y.Bytes(), (key.Curve.Params().BitSize+7)/8)...)...)
	return &ECDSASecret{
		Pub: &ECDSAPublic{Curve: curve, Point: point},
		D:   key.D,
	}
}

func (k *ECDSAPublic) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyECDSA }
func (k *ECDSAPublic) isPublic()                           {}

func (k *ECDSAPublic) Serialize(dst []byte) []byte {
	dst = writeCurveOID(dst, k.Curve)
	return encoding.WriteMPI(dst, k.Point)
}

func (k *ECDSAPublic) ecdsaKey() (*ecdsa.PublicKey, error) {
	curve, err := k.Curve.ellipticCurve()
	if err != nil {
		return nil, err
	}
	byteLen := (curve.Params().BitSize + 7) / 8
	if len(k.Point) != 1+2*byteLen || k.Point[0] != 0x04 {
		return nil, fmt.Errorf("%w: ECDSA point encoding", ErrInvalidMaterial)
	}
	x := new(big.Int).SetBytes(k.Point[1 : 1+byteLen])
	y := new(big.Int).SetBytes(k.Point[1+byteLen:])
	if !curve.IsOnCurve(x, y) {
		return nil, fmt.Errorf("%w: ECDSA point not on curve", ErrInvalidMaterial)
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

func (k *ECDSAPublic) Validate() error {
	_, err := k.ecdsaKey()
	return err
}

func (k *ECDSAPublic) verify(digest, sig []byte) error {
	pub, err := k.ecdsaKey()
	if err != nil {
		return err
	}
	sr := encoding.NewReader(sig)
	r, err := encoding.ReadMPIBig(sr)
	if err != nil {
		return err
	}
	s, err := encoding.ReadMPIBig(sr)
	if err != nil {
		return err
	}
	if !ecdsa.Verify(pub, digest, r, s) {
		return fmt.Errorf("ECDSA signature mismatch")
	}
	return nil
}

func (k *ECDSASecret) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyECDSA }
func (k *ECDSASecret) isSecret()                           {}

func (k *ECDSASecret) Serialize(dst []byte) []byte {
	return encoding.WriteMPIBig(dst, k.D)
}

// Validate checks that d generates the public point.
func (k *ECDSASecret) Validate() error {
	pub, err := k.Pub.ecdsaKey()
	if err != nil {
		return err
	}
	x, y := pub.Curve.ScalarBaseMult(k.D.Bytes())
	if x.Cmp(pub.X) != 0 || y.Cmp(pub.Y) != 0 {
		return fmt.Errorf("%w: ECDSA d does not generate the public point", ErrInvalidMaterial)
	}
	return nil
}

func (k *ECDSASecret) sign(p provider.Provider, digest []byte) ([]byte, error) {
	pub, err := k.Pub.ecdsaKey()
	if err != nil {
		return nil, err
	}
	priv := &ecdsa.PrivateKey{PublicKey: *pub, D: k.D}
	r, s, err := ecdsa.Sign(p.RandomReader(), priv, digest)
	if err != nil {
		return nil, err
	}
	out := encoding.WriteMPIBig(nil, r)
	return encoding.WriteMPIBig(out, s), nil
}
