package material

import (
	"fmt"
	"math/big"

	"golang.org/x/crypto/openpgp/elgamal"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/provider"
)

// ElGamalPublic holds the ElGamal group parameters and public value y.
type ElGamalPublic struct {
	P, G, Y *big.Int
}

// ElGamalSecret holds the ElGamal private value x.
type ElGamalSecret struct {
	Pub *ElGamalPublic
	X   *big.Int
}

func parseElGamalPublic(r *encoding.Reader) (*ElGamalPublic, error) {
	k := new(ElGamalPublic)
	var err error
	for _, dst := range []**big.Int{&k.P, &k.G, &k.Y} {
		if *dst, err = encoding.ReadMPIBig(r); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func parseElGamalSecret(pub *ElGamalPublic, r *encoding.Reader) (*ElGamalSecret, error) {
	x, err := encoding.ReadMPIBig(r)
	if err != nil {
		return nil, err
	}
	return &ElGamalSecret{Pub: pub, X: x}, nil
}

func (k *ElGamalPublic) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyElGamal }
func (k *ElGamalPublic) isPublic()                           {}

func (k *ElGamalPublic) Serialize(dst []byte) []byte {
	for _, n := range []*big.Int{k.P, k.G, k.Y} {
		dst = encoding.WriteMPIBig(dst, n)
	}
	return dst
}

func (k *ElGamalPublic) Validate() error {
	if k.P.Sign() <= 0 || k.G.Cmp(big.NewInt(1)) <= 0 || k.Y.Sign() <= 0 || k.Y.Cmp(k.P) >= 0 {
		return fmt.Errorf("%w: ElGamal parameters out of range", ErrInvalidMaterial)
	}
	return nil
}

func (k *ElGamalPublic) elgamalKey() *elgamal.PublicKey {
	return &elgamal.PublicKey{G: k.G, P: k.P, Y: k.Y}
}

func (k *ElGamalPublic) encrypt(p provider.Provider, payload []byte) ([]byte, error) {
	c1, c2, err := elgamal.Encrypt(p.RandomReader(), k.elgamalKey(), payload)
	if err != nil {
		return nil, err
	}
	out := encoding.WriteMPIBig(nil, c1)
	return encoding.WriteMPIBig(out, c2), nil
}

func (k *ElGamalSecret) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyElGamal }
func (k *ElGamalSecret) isSecret()                           {}

func (k *ElGamalSecret) Serialize(dst []byte) []byte {
	return encoding.WriteMPIBig(dst, k.X)
}

// Validate checks y = g^x mod p.
func (k *ElGamalSecret) Validate() error {
	if err := k.Pub.Validate(); err != nil {
		return err
	}
	y := new(big.Int).Exp(k.Pub.G, k.X, k.Pub.P)
	if y.Cmp(k.Pub.Y) != 0 {
		return fmt.Errorf("%w: ElGamal y != g^x mod p", ErrInvalidMaterial)
	}
	return nil
}

func (k *ElGamalSecret) decrypt(field []byte) ([]byte, error) {
	fr := encoding.NewReader(field)
	c1, err := encoding.ReadMPIBig(fr)
	if err != nil {
		return nil, err
	}
	c2, err := encoding.ReadMPIBig(fr)
	if err != nil {
		return nil, err
	}
	priv := &elgamal.PrivateKey{PublicKey: *k.Pub.elgamalKey(), X: k.X}
	payload, err := elgamal.Decrypt(priv, c1, c2)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return payload, nil
}
