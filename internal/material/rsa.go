package material

import (
	"crypto/rsa"
	"fmt"
	"math/big"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/provider"
)

// RSAPublic holds the RSA public parameters n and e.
type RSAPublic struct {
	Algo enums.PublicKeyAlgorithm
	N    *big.Int
	E    *big.Int
}

// RSASecret holds the RSA private exponent, the prime factors, and the
// multiplicative inverse u = p^-1 mod q carried on the wire.
type RSASecret struct {
	Pub *RSAPublic
	D   *big.Int
	P   *big.Int
	Q   *big.Int
	U   *big.Int
}

func parseRSAPublic(algo enums.PublicKeyAlgorithm, r *encoding.Reader) (*RSAPublic, error) {
	n, err := encoding.ReadMPIBig(r)
	if err != nil {
		return nil, err
	}
	e, err := encoding.ReadMPIBig(r)
	if err != nil {
		return nil, err
	}
	return &RSAPublic{Algo: algo, N: n, E: e}, nil
}

func parseRSASecret(pub *RSAPublic, r *encoding.Reader) (*RSASecret, error) {
	d, err := encoding.ReadMPIBig(r)
	if err != nil {
		return nil, err
	}
	p, err := encoding.ReadMPIBig(r)
	if err != nil {
		return nil, err
	}
	q, err := encoding.ReadMPIBig(r)
	if err != nil {
		return nil, err
	}
	u, err := encoding.ReadMPIBig(r)
	if err != nil {
		return nil, err
	}
	return &RSASecret{Pub: pub, D: d, P: p, Q: q, U: u}, nil
}

// NewRSASecret wraps a generated stdlib RSA key in wire material.
func NewRSASecret(key *rsa.PrivateKey) *RSASecret {
	pub := &RSAPublic{
		Algo: enums.PubKeyRSA,
		N:    key.N,
		E:    big.NewInt(int64(key.E)),
	}
	p, q := key.Primes[0], key.Primes[1]
	return &RSASecret{
		Pub: pub,
		D:   key.D,
		P:   p,
		Q:   q,
		U:   new(big.Int).ModInverse(p, q),
	}
}

func (k *RSAPublic) Algorithm() enums.PublicKeyAlgorithm { return k.Algo }
func (k *RSAPublic) isPublic()                           {}

func (k *RSAPublic) Serialize(dst []byte) []byte {
	dst = encoding.WriteMPIBig(dst, k.N)
	return encoding.WriteMPIBig(dst, k.E)
}

func (k *RSAPublic) Validate() error {
	if k.N.Sign() <= 0 || k.E.Sign() <= 0 || k.N.Bit(0) == 0 {
		return fmt.Errorf("%w: RSA modulus or exponent out of range", ErrInvalidMaterial)
	}
	return nil
}

func (k *RSAPublic) rsaKey() *rsa.PublicKey {
	return &rsa.PublicKey{N: k.N, E: int(k.E.Int64())}
}

func (k *RSAPublic) verify(hashAlgo enums.HashAlgorithm, digest, sig []byte) error {
	h, err := cryptoHash(hashAlgo)
	if err != nil {
		return err
	}
	sr := encoding.NewReader(sig)
	s, err := encoding.ReadMPI(sr)
	if err != nil {
		return err
	}
	keyLen := (k.N.BitLen() + 7) / 8
	return rsa.VerifyPKCS1v15(k.rsaKey(), h, digest, encoding.PadLeft(s, keyLen))
}

func (k *RSAPublic) encrypt(p provider.Provider, payload []byte) ([]byte, error) {
	ct, err := rsa.EncryptPKCS1v15(p.RandomReader(), k.rsaKey(), payload)
	if err != nil {
		return nil, err
	}
	return encoding.WriteMPI(nil, ct), nil
}

func (k *RSASecret) Algorithm() enums.PublicKeyAlgorithm { return k.Pub.Algo }
func (k *RSASecret) isSecret()                           {}

func (k *RSASecret) Serialize(dst []byte) []byte {
	dst = encoding.WriteMPIBig(dst, k.D)
	dst = encoding.WriteMPIBig(dst, k.P)
	dst = encoding.WriteMPIBig(dst, k.Q)
	return encoding.WriteMPIBig(dst, k.U)
}

// Validate checks n = p*q and d*e = 1 mod lambda(n).
func (k *RSASecret) Validate() error {
	if err := k.Pub.Validate(); err != nil {
		return err
	}
	if new(big.Int).Mul(k.P, k.Q).Cmp(k.Pub.N) != 0 {
		return fmt.Errorf("%w: RSA n != p*q", ErrInvalidMaterial)
	}
	one := big.NewInt(1)
	pMinus := new(big.Int).Sub(k.P, one)
	qMinus := new(big.Int).Sub(k.Q, one)
	gcd := new(big.Int).GCD(nil, nil, pMinus, qMinus)
	lambda := new(big.Int).Div(new(big.Int).Mul(pMinus, qMinus), gcd)
	de := new(big.Int).Mul(k.D, k.Pub.E)
	if de.Mod(de, lambda).Cmp(one) != 0 {
		return fmt.Errorf("%w: RSA d*e != 1 mod lambda(n)", ErrInvalidMaterial)
	}
	return nil
}

func (k *RSASecret) rsaKey() *rsa.PrivateKey {
	key := &rsa.PrivateKey{
		PublicKey: *k.Pub.rsaKey(),
		D:         k.D,
		Primes:    []*big.Int{k.P, k.Q},
	}
	key.Precompute()
	return key
}

func (k *RSASecret) sign(p provider.Provider, hashAlgo enums.HashAlgorithm, digest []byte) ([]byte, error) {
	h, err := cryptoHash(hashAlgo)
	if err != nil {
		return nil, err
	}
	sig, err := rsa.SignPKCS1v15(p.RandomReader(), k.rsaKey(), h, digest)
	if err != nil {
		return nil, err
	}
	return encoding.WriteMPI(nil, sig), nil
}

func (k *RSASecret) decrypt(p provider.Provider, field []byte) ([]byte, error) {
	fr := encoding.NewReader(field)
	ct, err := encoding.ReadMPI(fr)
	if err != nil {
		return nil, err
	}
	keyLen := (k.Pub.N.BitLen() + 7) / 8
	payload, err := rsa.DecryptPKCS1v15(p.RandomReader(), k.rsaKey(), encoding.PadLeft(ct, keyLen))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return payload, nil
}
