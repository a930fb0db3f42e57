package material

import (
	"crypto/ed25519"
	"fmt"

	"github.com/cloudflare/circl/sign/ed448"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
)

// Ed25519Public holds a 32-octet Ed25519 public key in the RFC 9580
// fixed-length encoding.
type Ed25519Public struct {
	Key []byte
}

// Ed25519Secret holds the 32-octet Ed25519 seed.
type Ed25519Secret struct {
	Pub  *Ed25519Public
	Seed []byte
}

func parseEd25519Public(r *encoding.Reader) (*Ed25519Public, error) {
	b, err := r.ReadBytes(ed25519.PublicKeySize)
	if err != nil {
		return nil, err
	}
	return &Ed25519Public{Key: append([]byte(nil), b...)}, nil
}

func parseEd25519Secret(pub *Ed25519Public, r *encoding.Reader) (*Ed25519Secret, error) {
	b, err := r.ReadBytes(ed25519.SeedSize)
	if err != nil {
		return nil, err
	}
	return &Ed25519Secret{Pub: pub, Seed: append([]byte(nil), b...)}, nil
}

// NewEd25519Secret wraps a generated seed in wire material.
func NewEd25519Secret(seed []byte) *Ed25519Secret {
	pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	return &Ed25519Secret{
		Pub:  &Ed25519Public{Key: []byte(pub)},
		Seed: append([]byte(nil), seed...),
	}
}

func (k *Ed25519Public) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyEd25519 }
func (k *Ed25519Public) isPublic()                           {}
func (k *Ed25519Public) Serialize(dst []byte) []byte         { return append(dst, k.Key...) }

func (k *Ed25519Public) Validate() error {
	if len(k.Key) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: Ed25519 key length %d", ErrInvalidMaterial, len(k.Key))
	}
	return nil
}

func (k *Ed25519Public) verify(digest, sig []byte) error {
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: Ed25519 signature length %d", ErrInvalidMaterial, len(sig))
	}
	if !ed25519.Verify(ed25519.PublicKey(k.Key), digest, sig) {
		return fmt.Errorf("Ed25519 signature mismatch")
	}
	return nil
}

func (k *Ed25519Secret) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyEd25519 }
func (k *Ed25519Secret) isSecret()                           {}
func (k *Ed25519Secret) Serialize(dst []byte) []byte         { return append(dst, k.Seed...) }

// Validate checks that the seed generates the public key.
func (k *Ed25519Secret) Validate() error {
	if len(k.Seed) != ed25519.SeedSize {
		return fmt.Errorf("%w: Ed25519 seed length %d", ErrInvalidMaterial, len(k.Seed))
	}
	derived := ed25519.NewKeyFromSeed(k.Seed).Public().(ed25519.PublicKey)
	if !derived.Equal(ed25519.PublicKey(k.Pub.Key)) {
		return fmt.Errorf("%w: Ed25519 seed does not generate the public key", ErrInvalidMaterial)
	}
	return nil
}

func (k *Ed25519Secret) sign(digest []byte) ([]byte, error) {
	return ed25519.Sign(ed25519.NewKeyFromSeed(k.Seed), digest), nil
}

// Ed448Public holds a 57-octet Ed448 public key.
type Ed448Public struct {
	Key []byte
}

// Ed448Secret holds the 57-octet Ed448 seed.
type Ed448Secret struct {
	Pub  *Ed448Public
	Seed []byte
}

func parseEd448Public(r *encoding.Reader) (*Ed448Public, error) {
	b, err := r.ReadBytes(ed448.PublicKeySize)
	if err != nil {
		return nil, err
	}
	return &Ed448Public{Key: append([]byte(nil), b...)}, nil
}

func parseEd448Secret(pub *Ed448Public, r *encoding.Reader) (*Ed448Secret, error) {
	b, err := r.ReadBytes(ed448.SeedSize)
	if err != nil {
		return nil, err
	}
	return &Ed448Secret{Pub: pub, Seed: append([]byte(nil), b...)}, nil
}

// NewEd448Secret wraps a generated seed in wire material.
func NewEd448Secret(seed []byte) *Ed448Secret {
	pub := ed448.NewKeyFromSeed(seed).Public().(ed448.PublicKey)
	return &Ed448Secret{
		Pub:  &Ed448Public{Key: []byte(pub)},
		Seed: append([]byte(nil), seed...),
	}
}

func (k *Ed448Public) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyEd448 }
func (k *Ed448Public) isPublic()                           {}
func (k *Ed448Public) Serialize(dst []byte) []byte         { return append(dst, k.Key...) }

func (k *Ed448Public) Validate() error {
	if len(k.Key) != ed448.PublicKeySize {
		return fmt.Errorf("%w: Ed448 key length %d", ErrInvalidMaterial, len(k.Key))
	}
	return nil
}

func (k *Ed448Public) verify(digest, sig []byte) error {
	if len(sig) != ed448.SignatureSize {
		return fmt.Errorf("%w: Ed448 signature length %d", ErrInvalidMaterial, len(sig))
	}
	if !ed448.Verify(ed448.PublicKey(k.Key), digest, sig, "") {
		return fmt.Errorf("Ed448 signature mismatch")
	}
	return nil
}

func (k *Ed448Secret) Algorithm() enums.PublicKeyAlgorithm { return enums.PubKeyEd448 }
func (k *Ed448Secret) isSecret()                           {}
func (k *Ed448Secret) Serialize(dst []byte) []byte         { return append(dst, k.Seed...) }

// Validate checks that the seed generates the public key.
func (k *Ed448Secret) Validate() error {
	if len(k.Seed) != ed448.SeedSize {
		return fmt.Errorf("%w: Ed448 seed length %d", ErrInvalidMaterial, len(k.Seed))
	}
	derived := ed448.NewKeyFromSeed(k.Seed).Public().(ed448.PublicKey)
	if !derived.Equal(ed448.PublicKey(k.Pub.Key)) {
		return fmt.Errorf("%w: Ed448 seed does not generate the public key", ErrInvalidMaterial)
	}
	return nil
}

func (k *Ed448Secret) sign(digest []byte) ([]byte, error) {
	return ed448.Sign(ed448.NewKeyFromSeed(k.Seed), digest, ""), nil
}
