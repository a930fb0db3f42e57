package material

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"

	"github.com/cloudflare/circl/sign/ed448"

	"github.com/nguyennv/gopg/internal/provider"
)

// GenerateRSA produces fresh RSA material of the given modulus size.
func GenerateRSA(p provider.Provider, bits int) (*RSASecret, error) {
	key, err := rsa.GenerateKey(p.RandomReader(), bits)
	if err != nil {
		return nil, err
	}
	return NewRSASecret(key), nil
}

// GenerateECDSA produces fresh ECDSA material on the given NIST curve.
func GenerateECDSA(p provider.Provider, curve Curve) (*ECDSASecret, error) {
	ec, err := curve.ellipticCurve()
	if err != nil {
		return nil, err
	}
	key, err := ecdsa.GenerateKey(ec, p.RandomReader())
	if err != nil {
		return nil, err
	}
	return NewECDSASecret(curve, key), nil
}

// GenerateECDH produces fresh ECDH material on the given NIST curve.
func GenerateECDH(p provider.Provider, curve Curve) (*ECDHSecret, error) {
	ec, err := curve.ecdhCurve()
	if err != nil {
		return nil, err
	}
	key, err := ec.GenerateKey(p.RandomReader())
	if err != nil {
		return nil, err
	}
	return NewECDHSecret(curve, key), nil
}

// GenerateEd25519 produces fresh Ed25519 material.
func GenerateEd25519(p provider.Provider) (*Ed25519Secret, error) {
	seed := make([]byte, ed25519.SeedSize)
	if err := p.Random(seed); err != nil {
		return nil, err
	}
	return NewEd25519Secret(seed), nil
}

// GenerateEd448 produces fresh Ed448 material.
func GenerateEd448(p provider.Provider) (*Ed448Secret, error) {
	seed := make([]byte, ed448.SeedSize)
	if err := p.Random(seed); err != nil {
		return nil, err
	}
	return NewEd448Secret(seed), nil
}

// GenerateX25519 produces fresh X25519 material.
func GenerateX25519(p provider.Provider) (*X25519Secret, error) {
	key, err := ecdh.X25519().GenerateKey(p.RandomReader())
	if err != nil {
		return nil, err
	}
	return NewX25519Secret(key), nil
}

// GenerateX448 produces fresh X448 material.
func GenerateX448(p provider.Provider) (*X448Secret, error) {
	scalar := make([]byte, x448KeySize)
	if err := p.Random(scalar); err != nil {
		return nil, err
	}
	return NewX448Secret(scalar), nil
}
