// Package material implements the per-algorithm public and secret key
// parameter records of OpenPGP key packets: wire parsing and
// serialization, algebraic validity checks, and the algorithm-specific
// sign, verify, encrypt and decrypt operations.
//
// The algorithm set is closed: every supported algorithm is a concrete
// variant type, and operations dispatch over the variants. Unknown
// algorithms parse into [OpaquePublic]/[OpaqueSecret], which round-trip
// but cannot be used for cryptography.
package material

import (
	"crypto"
	"errors"
	"fmt"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/provider"
)

// Errors surfaced by material operations.
var (
	ErrUnsupportedAlgorithm = errors.New("unsupported public-key algorithm")
	ErrInvalidMaterial      = errors.New("key material failed validity check")
	ErrWrongCapability      = errors.New("algorithm does not support this operation")
	ErrDecryptionFailed     = errors.New("session key decryption failed")
)

// Public is a public-parameter record for one algorithm.
type Public interface {
	// Algorithm returns the wire algorithm id of the variant.
	Algorithm() enums.PublicKeyAlgorithm
	// Serialize appends the wire encoding of the parameters to dst.
	Serialize(dst []byte) []byte
	// Validate checks the parameters for algebraic consistency.
	Validate() error

	isPublic()
}

// Secret is a secret-parameter record for one algorithm. Its Serialize
// covers only the secret fields; the public fields travel separately.
type Secret interface {
	// Algorithm returns the wire algorithm id of the variant.
	Algorithm() enums.PublicKeyAlgorithm
	// Serialize appends the wire encoding of the secret parameters to dst.
	Serialize(dst []byte) []byte
	// Validate checks public and secret parameters for consistency.
	Validate() error

	isSecret()
}

// ParsePublic reads the public parameters for algo from r.
func ParsePublic(algo enums.PublicKeyAlgorithm, r *encoding.Reader) (Public, error) {
	switch algo {
	case enums.PubKeyRSA, enums.PubKeyRSAEncryptOnly, enums.PubKeyRSASignOnly:
		return parseRSAPublic(algo, r)
	case enums.PubKeyDSA:
		return parseDSAPublic(r)
	case enums.PubKeyElGamal:
		return parseElGamalPublic(r)
	case enums.PubKeyECDSA:
		return parseECDSAPublic(r)
	case enums.PubKeyECDH:
		return parseECDHPublic(r)
	case enums.PubKeyEdDSALegacy:
		return parseEdDSALegacyPublic(r)
	case enums.PubKeyX25519:
		return parseX25519Public(r)
	case enums.PubKeyX448:
		return parseX448Public(r)
	case enums.PubKeyEd25519:
		return parseEd25519Public(r)
	case enums.PubKeyEd448:
		return parseEd448Public(r)
	}
	return &OpaquePublic{Algo: algo, Bytes: append([]byte(nil), r.Rest()...)}, nil
}

// ParseSecret reads the secret parameters for pub's algorithm from r.
func ParseSecret(pub Public, r *encoding.Reader) (Secret, error) {
	switch p := pub.(type) {
	case *RSAPublic:
		return parseRSASecret(p, r)
	case *DSAPublic:
		return parseDSASecret(p, r)
	case *ElGamalPublic:
		return parseElGamalSecret(p, r)
	case *ECDSAPublic:
		return parseECDSASecret(p, r)
	case *ECDHPublic:
		return parseECDHSecret(p, r)
	case *EdDSALegacyPublic:
		return parseEdDSALegacySecret(p, r)
	case *X25519Public:
		return parseX25519Secret(p, r)
	case *X448Public:
		return parseX448Secret(p, r)
	case *Ed25519Public:
		return parseEd25519Secret(p, r)
	case *Ed448Public:
		return parseEd448Secret(p, r)
	case *OpaquePublic:
		return &OpaqueSecret{Algo: p.Algo, Bytes: append([]byte(nil), r.Rest()...)}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnsupportedAlgorithm, pub.Algorithm())
}

// Sign produces algorithm-specific signature octets over digest, which is
// the already-computed hash of the signed data.
func Sign(p provider.Provider, sec Secret, hashAlgo enums.HashAlgorithm, digest []byte) ([]byte, error) {
	switch s := sec.(type) {
	case *RSASecret:
		return s.sign(p, hashAlgo, digest)
	case *DSASecret:
		return s.sign(p, digest)
	case *ECDSASecret:
		return s.sign(p, digest)
	case *EdDSALegacySecret:
		return s.sign(digest)
	case *Ed25519Secret:
		return s.sign(digest)
	case *Ed448Secret:
		return s.sign(digest)
	}
	return nil, fmt.Errorf("%w: sign with %s", ErrWrongCapability, sec.Algorithm())
}

// Verify checks algorithm-specific signature octets against digest.
// A nil return means the signature is good.
func Verify(pub Public, hashAlgo enums.HashAlgorithm, digest, sig []byte) error {
	switch pk := pub.(type) {
	case *RSAPublic:
		return pk.verify(hashAlgo, digest, sig)
	case *DSAPublic:
		return pk.verify(digest, sig)
	case *ECDSAPublic:
		return pk.verify(digest, sig)
	case *EdDSALegacyPublic:
		return pk.verify(digest, sig)
	case *Ed25519Public:
		return pk.verify(digest, sig)
	case *Ed448Public:
		return pk.verify(digest, sig)
	}
	return fmt.Errorf("%w: verify with %s", ErrWrongCapability, pub.Algorithm())
}

// EncryptSessionKey produces the algorithm-specific encrypted-session-key
// field of a PKESK packet. For RSA, ElGamal and ECDH, payload is the
// session-key block (cipher octet, key, checksum); for X25519 and X448 it
// is the bare session key. fingerprint feeds the ECDH KDF and is ignored
// by the other algorithms.
func EncryptSessionKey(p provider.Provider, pub Public, fingerprint, payload []byte) ([]byte, error) {
	switch pk := pub.(type) {
	case *RSAPublic:
		return pk.encrypt(p, payload)
	case *ElGamalPublic:
		return pk.encrypt(p, payload)
	case *ECDHPublic:
		return pk.encrypt(p, fingerprint, payload)
	case *X25519Public:
		return pk.encrypt(p, payload)
	case *X448Public:
		return pk.encrypt(p, payload)
	}
	return nil, fmt.Errorf("%w: encrypt to %s", ErrWrongCapability, pub.Algorithm())
}

// DecryptSessionKey reverses EncryptSessionKey.
func DecryptSessionKey(p provider.Provider, sec Secret, fingerprint, field []byte) ([]byte, error) {
	switch s := sec.(type) {
	case *RSASecret:
		return s.decrypt(p, field)
	case *ElGamalSecret:
		return s.decrypt(field)
	case *ECDHSecret:
		return s.decrypt(p, fingerprint, field)
	case *X25519Secret:
		return s.decrypt(p, field)
	case *X448Secret:
		return s.decrypt(p, field)
	}
	return nil, fmt.Errorf("%w: decrypt with %s", ErrWrongCapability, sec.Algorithm())
}

// PublicOf returns the public parameter record paired with sec.
func PublicOf(sec Secret) Public {
	switch s := sec.(type) {
	case *RSASecret:
		return s.Pub
	case *DSASecret:
		return s.Pub
	case *ElGamalSecret:
		return s.Pub
	case *ECDSASecret:
		return s.Pub
	case *ECDHSecret:
		return s.Pub
	case *EdDSALegacySecret:
		return s.Pub
	case *X25519Secret:
		return s.Pub
	case *X448Secret:
		return s.Pub
	case *Ed25519Secret:
		return s.Pub
	case *Ed448Secret:
		return s.Pub
	case *OpaqueSecret:
		return &OpaquePublic{Algo: s.Algo, Bytes: nil}
	}
	return nil
}

// cryptoHash maps a wire hash id onto the stdlib identifier used by the
// RSA PKCS#1 v1.5 padding routines.
func cryptoHash(algo enums.HashAlgorithm) (crypto.Hash, error) {
	switch algo {
	case enums.HashMD5:
		return crypto.MD5, nil
	case enums.HashSHA1:
		return crypto.SHA1, nil
	case enums.HashSHA224:
		return crypto.SHA224, nil
	case enums.HashSHA256:
		return crypto.SHA256, nil
	case enums.HashSHA384:
		return crypto.SHA384, nil
	case enums.HashSHA512:
		return crypto.SHA512, nil
	case enums.HashSHA3_256:
		return crypto.SHA3_256, nil
	case enums.HashSHA3_512:
		return crypto.SHA3_512, nil
	}
	return 0, fmt.Errorf("%w: hash %d", provider.ErrUnsupportedAlgorithm, algo)
}

// OpaquePublic carries the raw parameter bytes of an algorithm this
// library does not implement. It re-serializes byte-exactly.
type OpaquePublic struct {
	Algo  enums.PublicKeyAlgorithm
	Bytes []byte
}

func (o *OpaquePublic) Algorithm() enums.PublicKeyAlgorithm { return o.Algo }
func (o *OpaquePublic) Serialize(dst []byte) []byte         { return append(dst, o.Bytes...) }
func (o *OpaquePublic) Validate() error {
	return fmt.Errorf("%w: %d", ErrUnsupportedAlgorithm, o.Algo)
}
func (o *OpaquePublic) isPublic() {}

// OpaqueSecret is the secret counterpart of OpaquePublic.
type OpaqueSecret struct {
	Algo  enums.PublicKeyAlgorithm
	Bytes []byte
}

func (o *OpaqueSecret) Algorithm() enums.PublicKeyAlgorithm { return o.Algo }
func (o *OpaqueSecret) Serialize(dst []byte) []byte         { return append(dst, o.Bytes...) }
func (o *OpaqueSecret) Validate() error {
	return fmt.Errorf("%w: %d", ErrUnsupportedAlgorithm, o.Algo)
}
func (o *OpaqueSecret) isSecret() {}
