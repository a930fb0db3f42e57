package material

import (
	"crypto/ecdh"
	"fmt"

	"github.com/cloudflare/circl/dh/x448"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/provider"
)

const (
	x25519KeySize = 32
	x448KeySize   = 56
)

var (
	hkdfInfoX25519 = []byte("OpenPGP X25519")
	hkdfInfoX448   = []byte("OpenPGP X448")
)

// X25519Public holds a 32-octet X25519 public key.
type X25519Public struct {
	Key []byte
}

// X25519Secret holds the 32-octet X25519 scalar.
type X25519Secret struct {
	Pub    *X25519Public
	Scalar []byte
}

func parseX25519Public(r *encoding.Reader) (*X25519Public, error) {
	b, err := r.ReadBytes(x25519KeySize)
	if err != nil {
		return nil, err
	}
	return &X25519Public{Key: append([]byte(nil), b...)}, nil
}

func parseX25519Secret(pub *X25519Public, r *encoding.Reader) (*X25519Secret, error) {
	b, err := r.ReadBytes(x25519KeySize)
	if err != nil {
		return nil, err
	}
	return &X25519Secret{Pub: pub, Scalar: append([]byte(nil), b...)}, nil
}

// NewX25519Secret wraps a generated stdlib X25519 key in wire material.
func NewX25519Secret(key *ecdh.PrivateKey) *X25519Secret {
	return &X25519Secret{
		Pub:    &X25519Public{Key: key.PublicKey().Bytes()},
		Scalar: key.Bytes(),
	}
}

func (k *X25519Public) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyX25519 }
func (k *X25519Public) isPublic()                           {}
func (k *X25519Public) Serialize(dst []byte) []byte         { return append(dst, k.Key...) }

func (k *X25519Public) Validate() error {
	if _, err := ecdh.X25519().NewPublicKey(k.Key); err != nil {
		return fmt.Errorf("%w: X25519 key: %v", ErrInvalidMaterial, err)
	}
	return nil
}

// encrypt wraps the session key per RFC 9580, section 5.1.6: a fresh
// ephemeral scalar, HKDF-SHA256 over ephemeral || recipient || shared,
// then AES-128 key wrap. The returned field is ephemeral || wrapped; the
// PKESK layer adds the length and optional cipher octets.
func (k *X25519Public) encrypt(p provider.Provider, sessionKey []byte) ([]byte, error) {
	curve := ecdh.X25519()
	pub, err := curve.NewPublicKey(k.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: X25519 key: %v", ErrInvalidMaterial, err)
	}
	eph, err := curve.GenerateKey(p.RandomReader())
	if err != nil {
		return nil, err
	}
	shared, err := eph.ECDH(pub)
	if err != nil {
		return nil, err
	}
	kek, err := x25519KEK(p, eph.PublicKey().Bytes(), k.Key, shared)
	if err != nil {
		return nil, err
	}
	wrapped, err := encoding.KeyWrap(kek, sessionKey)
	if err != nil {
		return nil, err
	}
	return append(eph.PublicKey().Bytes(), wrapped...), nil
}

func x25519KEK(p provider.Provider, ephemeral, recipient, shared []byte) ([]byte, error) {
	ikm := make([]byte, 0, 3*x25519KeySize)
	ikm = append(ikm, ephemeral...)
	ikm = append(ikm, recipient...)
	ikm = append(ikm, shared...)
	return p.HKDF(enums.HashSHA256, ikm, nil, hkdfInfoX25519, enums.SymAES128.KeySize())
}

func (k *X25519Secret) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyX25519 }
func (k *X25519Secret) isSecret()                           {}
func (k *X25519Secret) Serialize(dst []byte) []byte         { return append(dst, k.Scalar...) }

// Validate checks that the scalar generates the public key.
func (k *X25519Secret) Validate() error {
	priv, err := ecdh.X25519().NewPrivateKey(k.Scalar)
	if err != nil {
		return fmt.Errorf("%w: X25519 scalar: %v", ErrInvalidMaterial, err)
	}
	pub, err := ecdh.X25519().NewPublicKey(k.Pub.Key)
	if err != nil || !priv.PublicKey().Equal(pub) {
		return fmt.Errorf("%w: X25519 scalar does not generate the public key", ErrInvalidMaterial)
	}
	return nil
}

func (k *X25519Secret) decrypt(p provider.Provider, field []byte) ([]byte, error) {
	if len(field) < x25519KeySize {
		return nil, fmt.Errorf("%w: short X25519 field", ErrDecryptionFailed)
	}
	ephBytes, wrapped := field[:x25519KeySize], field[x25519KeySize:]
	curve := ecdh.X25519()
	priv, err := curve.NewPrivateKey(k.Scalar)
	if err != nil {
		return nil, fmt.Errorf("%w: X25519 scalar: %v", ErrInvalidMaterial, err)
	}
	eph, err := curve.NewPublicKey(ephBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: ephemeral key: %v", ErrDecryptionFailed, err)
	}
	shared, err := priv.ECDH(eph)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	kek, err := x25519KEK(p, ephBytes, k.Pub.Key, shared)
	if err != nil {
		return nil, err
	}
	sessionKey, err := encoding.KeyUnwrap(kek, wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return sessionKey, nil
}

// X448Public holds a 56-octet X448 public key.
type X448Public struct {
	Key []byte
}

// X448Secret holds the 56-octet X448 scalar.
type X448Secret struct {
	Pub    *X448Public
	Scalar []byte
}

func parseX448Public(r *encoding.Reader) (*X448Public, error) {
	b, err := r.ReadBytes(x448KeySize)
	if err != nil {
		return nil, err
	}
	return &X448Public{Key: append([]byte(nil), b...)}, nil
}

func parseX448Secret(pub *X448Public, r *encoding.Reader) (*X448Secret, error) {
	b, err := r.ReadBytes(x448KeySize)
	if err != nil {
		return nil, err
	}
	return &X448Secret{Pub: pub, Scalar: append([]byte(nil), b...)}, nil
}

// NewX448Secret derives the public key from a fresh scalar.
func NewX448Secret(scalar []byte) *X448Secret {
	var priv, pub x448.Key
	copy(priv[:], scalar)
	x448.KeyGen(&pub, &priv)
	return &X448Secret{
		Pub:    &X448Public{Key: append([]byte(nil), pub[:]...)},
		Scalar: append([]byte(nil), scalar...),
	}
}

func (k *X448Public) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyX448 }
func (k *X448Public) isPublic()                           {}
func (k *X448Public) Serialize(dst []byte) []byte         { return append(dst, k.Key...) }

func (k *X448Public) Validate() error {
	if len(k.Key) != x448KeySize {
		return fmt.Errorf("%w: X448 key length %d", ErrInvalidMaterial, len(k.Key))
	}
	return nil
}

func (k *X448Public) encrypt(p provider.Provider, sessionKey []byte) ([]byte, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}
	var ephPriv, ephPub, pub, shared x448.Key
	if err := p.Random(ephPriv[:]); err != nil {
		return nil, err
	}
	x448.KeyGen(&ephPub, &ephPriv)
	copy(pub[:], k.Key)
	if !x448.Shared(&shared, &ephPriv, &pub) {
		return nil, fmt.Errorf("%w: low-order X448 point", ErrInvalidMaterial)
	}
	kek, err := x448KEK(p, ephPub[:], k.Key, shared[:])
	if err != nil {
		return nil, err
	}
	wrapped, err := encoding.KeyWrap(kek, sessionKey)
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), ephPub[:]...), wrapped...), nil
}

func x448KEK(p provider.Provider, ephemeral, recipient, shared []byte) ([]byte, error) {
	ikm := make([]byte, 0, 3*x448KeySize)
	ikm = append(ikm, ephemeral...)
	ikm = append(ikm, recipient...)
	ikm = append(ikm, shared...)
	return p.HKDF(enums.HashSHA512, ikm, nil, hkdfInfoX448, enums.SymAES256.KeySize())
}

func (k *X448Secret) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyX448 }
func (k *X448Secret) isSecret()                           {}
func (k *X448Secret) Serialize(dst []byte) []byte         { return append(dst, k.Scalar...) }

// Validate checks that the scalar generates the public key.
func (k *X448Secret) Validate() error {
	if len(k.Scalar) != x448KeySize || len(k.Pub.Key) != x448KeySize {
		return fmt.Errorf("%w: X448 length", ErrInvalidMaterial)
	}
	var priv, pub x448.Key
	copy(priv[:], k.Scalar)
	x448.KeyGen(&pub, &priv)
	for i := range pub {
		if pub[i] != k.Pub.Key[i] {
			return fmt.Errorf("%w: X448 scalar does not generate the public key", ErrInvalidMaterial)
		}
	}
	return nil
}

func (k *X448Secret) decrypt(p provider.Provider, field []byte) ([]byte, error) {
	if len(field) < x448KeySize {
		return nil, fmt.Errorf("%w: short X448 field", ErrDecryptionFailed)
	}
	var priv, eph, shared x448.Key
	copy(priv[:], k.Scalar)
	copy(eph[:], field[:x448KeySize])
	if !x448.Shared(&shared, &priv, &eph) {
		return nil, fmt.Errorf("%w: low-order ephemeral point", ErrDecryptionFailed)
	}
	kek, err := x448KEK(p, field[:x448KeySize], k.Pub.Key, shared[:])
	if err != nil {
		return nil, err
	}
	sessionKey, err := encoding.KeyUnwrap(kek, field[x448KeySize:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return sessionKey, nil
}
