package material

import (
	"crypto/dsa"
	"fmt"
	"math/big"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/provider"
)

// DSAPublic holds the DSA domain parameters and public value y.
type DSAPublic struct {
	P, Q, G, Y *big.Int
}

// DSASecret holds the DSA private value x.
type DSASecret struct {
	Pub *DSAPublic
	X   *big.Int
}

func parseDSAPublic(r *encoding.Reader) (*DSAPublic, error) {
	k := new(DSAPublic)
	var err error
	for _, dst := range []**big.Int{&k.P, &k.Q, &k.G, &k.Y} {
		if *dst, err = encoding.ReadMPIBig(r); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func parseDSASecret(pub *DSAPublic, r *encoding.Reader) (*DSASecret, error) {
	x, err := encoding.ReadMPIBig(r)
	if err != nil {
		return nil, err
	}
	return &DSASecret{Pub: pub, X: x}, nil
}

func (k *DSAPublic) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyDSA }
func (k *DSAPublic) isPublic()                           {}

func (k *DSAPublic) Serialize(dst []byte) []byte {
	for _, n := range []*big.Int{k.P, k.Q, k.G, k.Y} {
		dst = encoding.WriteMPIBig(dst, n)
	}
	return dst
}

func (k *DSAPublic) Validate() error {
	if k.P.Sign() <= 0 || k.Q.Sign() <= 0 || k.G.Cmp(big.NewInt(1)) <= 0 {
		return fmt.Errorf("%w: DSA domain parameters out of range", ErrInvalidMaterial)
	}
	if k.Y.Sign() <= 0 || k.Y.Cmp(k.P) >= 0 {
		return fmt.Errorf("%w: DSA public value out of range", ErrInvalidMaterial)
	}
	return nil
}

func (k *DSAPublic) dsaKey() *dsa.PublicKey {
	return &dsa.PublicKey{
		Parameters: dsa.Parameters{P: k.P, Q: k.Q, G: k.G},
		Y:          k.Y,
	}
}

// truncateDigest reduces digest to the bit length of q as DSA requires.
func (k *DSAPublic) truncateDigest(digest []byte) []byte {
	qLen := (k.Q.BitLen() + 7) / 8
	if len(digest) > qLen {
		digest = digest[:qLen]
	}
	return digest
}

func (k *DSAPublic) verify(digest, sig []byte) error {
	sr := encoding.NewReader(sig)
	r, err := encoding.ReadMPIBig(sr)
	if err != nil {
		return err
	}
	s, err := encoding.ReadMPIBig(sr)
	if err != nil {
		return err
	}
	if !dsa.Verify(k.dsaKey(), k.truncateDigest(digest), r, s) {
		return fmt.Errorf("DSA signature mismatch")
	}
	return nil
}

func (k *DSASecret) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyDSA }
func (k *DSASecret) isSecret()                           {}

func (k *DSASecret) Serialize(dst []byte) []byte {
	return encoding.WriteMPIBig(dst, k.X)
}

// Validate checks y = g^x mod p.
func (k *DSASecret) Validate() error {
	if err := k.Pub.Validate(); err != nil {
		return err
	}
	y := new(big.Int).Exp(k.Pub.G, k.X, k.Pub.P)
	if y.Cmp(k.Pub.Y) != 0 {
		return fmt.Errorf("%w: DSA y != g^x mod p", ErrInvalidMaterial)
	}
	return nil
}

func (k *DSASecret) sign(p provider.Provider, digest []byte) ([]byte, error) {
	priv := &dsa.PrivateKey{PublicKey: *k.Pub.dsaKey(), X: k.X}
	r, s, err := dsa.Sign(p.RandomReader(), priv, k.Pub.truncateDigest(digest))
	if err != nil {
		return nil, err
	}
	out := encoding.WriteMPIBig(nil, r)
	return encoding.WriteMPIBig(out, s), nil
}
