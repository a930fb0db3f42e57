package packet

import (
	"crypto/sha1"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/material"
	"github.com/nguyennv/gopg/internal/provider"
	"github.com/nguyennv/gopg/internal/s2k"
)

// Errors surfaced by secret-key protection.
var (
	ErrPassphraseIncorrect = errors.New("incorrect passphrase")
	ErrChecksumMismatch    = errors.New("secret material checksum mismatch")
	ErrKeyLocked           = errors.New("secret key material is locked")
	ErrInvalidProtection   = errors.New("invalid secret-key protection parameters")
)

// SecretKey is a secret-key or secret-subkey packet. The public fields
// are embedded; the secret fields are either ciphertext in KeyData or
// parsed material in Material after unlocking. See RFC 9580, section
// 5.5.3.
type SecretKey struct {
	PublicKey

	S2KUsage  enums.S2KUsage
	Symmetric enums.SymmetricAlgorithm
	AEAD      enums.AEADMode
	S2K       *s2k.Specifier
	IV        []byte
	// KeyData holds the wire form of the secret fields: plaintext
	// (plus v4 checksum) when unprotected, ciphertext otherwise.
	KeyData []byte
	// Material holds the unlocked secret material, nil while locked.
	Material material.Secret
}

// NewSecretKey builds an unprotected secret-key packet around generated
// material.
func NewSecretKey(pub PublicKey, sec material.Secret) *SecretKey {
	sk := &SecretKey{PublicKey: pub, Material: sec}
	sk.KeyData = sk.plaintextKeyData()
	return sk
}

func parseSecretKey(r *encoding.Reader, isSubkey bool) (*SecretKey, error) {
	sk := &SecretKey{}
	sk.IsSubkey = isSubkey
	if err := sk.PublicKey.parse(r); err != nil {
		return nil, err
	}

	usage, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	sk.S2KUsage = enums.S2KUsage(usage)

	if sk.S2KUsage != enums.S2KUsageNone {
		if sk.Version == enums.KeyVersion6 {
			// v6 frames the protection parameters with an octet count.
			if _, err := r.ReadByte(); err != nil {
				return nil, err
			}
		}
		symByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		sk.Symmetric = enums.SymmetricAlgorithm(symByte)
		if sk.S2KUsage == enums.S2KUsageAEAD {
			aeadByte, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			sk.AEAD = enums.AEADMode(aeadByte)
		}
		if sk.S2KUsage == enums.S2KUsageMalleableCFB && sk.Version == enums.KeyVersion6 {
			return nil, fmt.Errorf("%w: malleable CFB on a v6 key", ErrInvalidProtection)
		}
		if sk.Version == enums.KeyVersion6 {
			if _, err := r.ReadByte(); err != nil {
				return nil, err
			}
		}
		if sk.S2K, err = s2k.Parse(r); err != nil {
			return nil, err
		}
		ivLen := sk.Symmetric.BlockSize()
		if sk.S2KUsage == enums.S2KUsageAEAD {
			ivLen = sk.AEAD.NonceLength()
		}
		iv, err := r.ReadBytes(ivLen)
		if err != nil {
			return nil, err
		}
		sk.IV = append([]byte(nil), iv...)
		if sk.S2K.Type == enums.S2KArgon2 && sk.S2KUsage != enums.S2KUsageAEAD {
			return nil, fmt.Errorf("%w: argon2 S2K requires AEAD protection", ErrInvalidProtection)
		}
	}

	sk.KeyData = append([]byte(nil), r.Rest()...)
	if sk.S2KUsage == enums.S2KUsageNone {
		if err := sk.parsePlaintextMaterial(); err != nil {
			return nil, err
		}
	}
	return sk, nil
}

func (sk *SecretKey) Tag() enums.PacketTag {
	if sk.IsSubkey {
		return enums.TagSecretSubkey
	}
	return enums.TagSecretKey
}

func (sk *SecretKey) EncodeBody(dst []byte) ([]byte, error) {
	dst = sk.encodePublicBody(dst)
	dst = append(dst, byte(sk.S2KUsage))
	if sk.S2KUsage != enums.S2KUsageNone {
		s2kBytes := sk.S2K.Serialize(nil)
		if sk.Version == enums.KeyVersion6 {
			count := 1 + 1 + len(s2kBytes) + len(sk.IV)
			if sk.S2KUsage == enums.S2KUsageAEAD {
				count++
			}
			dst = append(dst, byte(count))
		}
		dst = append(dst, byte(sk.Symmetric))
		if sk.S2KUsage == enums.S2KUsageAEAD {
			dst = append(dst, byte(sk.AEAD))
		}
		if sk.Version == enums.KeyVersion6 {
			dst = append(dst, byte(len(s2kBytes)))
		}
		dst = append(dst, s2kBytes...)
		dst = append(dst, sk.IV...)
	}
	return append(dst, sk.KeyData...), nil
}

// Locked reports whether the secret material is protected and not yet
// unlocked.
func (sk *SecretKey) Locked() bool {
	return sk.Material == nil
}

// plaintextKeyData serializes the unlocked material in the form stored
// when S2KUsage is None: the material followed by a v4 checksum.
func (sk *SecretKey) plaintextKeyData() []byte {
	mat := sk.Material.Serialize(nil)
	if sk.Version == enums.KeyVersion6 {
		return mat
	}
	return encoding.PutUint16(mat, encoding.Checksum(mat))
}

func (sk *SecretKey) parsePlaintextMaterial() error {
	data := sk.KeyData
	if sk.Version != enums.KeyVersion6 {
		if len(data) < 2 {
			return fmt.Errorf("%w: missing checksum", ErrMalformed)
		}
		mat, sum := data[:len(data)-2], data[len(data)-2:]
		want := uint16(sum[0])<<8 | uint16(sum[1])
		if encoding.Checksum(mat) != want {
			return ErrChecksumMismatch
		}
		data = mat
	}
	var err error
	sk.Material, err = material.ParseSecret(sk.PublicKey.Material, encoding.NewReader(data))
	return err
}

// Lock encrypts the secret material under passphrase and returns a new
// packet; the receiver is unchanged. The symmetric algorithm must not be
// plaintext, and AEAD protection requires a v6 key.
func (sk *SecretKey) Lock(p provider.Provider, passphrase []byte, symmetric enums.SymmetricAlgorithm, aead enums.AEADMode, argon2 bool) (*SecretKey, error) {
	if len(passphrase) == 0 {
		return nil, s2k.ErrEmptyPassword
	}
	if sk.Material == nil {
		return nil, ErrKeyLocked
	}
	if !symmetric.IsSupported() {
		return nil, fmt.Errorf("%w: cipher %d", ErrInvalidProtection, symmetric)
	}
	if aead != 0 && sk.Version != enums.KeyVersion6 {
		return nil, fmt.Errorf("%w: AEAD protection requires a v6 key", ErrInvalidProtection)
	}

	out := *sk
	out.Symmetric = symmetric
	var spec *s2k.Specifier
	var err error
	if aead != 0 && argon2 {
		spec, err = s2k.NewArgon2(p)
	} else {
		spec, err = s2k.NewIterated(p, enums.HashSHA256)
	}
	if err != nil {
		return nil, err
	}
	out.S2K = spec

	kek, err := spec.Derive(p, passphrase, symmetric.KeySize())
	if err != nil {
		return nil, err
	}
	defer wipe(kek)
	mat := sk.Material.Serialize(nil)
	defer wipe(mat)

	if aead != 0 {
		out.S2KUsage = enums.S2KUsageAEAD
		out.AEAD = aead
		out.IV = make([]byte, aead.NonceLength())
		if err := p.Random(out.IV); err != nil {
			return nil, err
		}
		key, err := p.HKDF(enums.HashSHA256, kek, nil, sk.aeadHKDFInfo(aead, symmetric), symmetric.KeySize())
		if err != nil {
			return nil, err
		}
		defer wipe(key)
		aeadCipher, err := p.NewAEAD(aead, symmetric, key)
		if err != nil {
			return nil, err
		}
		out.KeyData = aeadCipher.Seal(nil, out.IV, mat, sk.aeadAssociatedData())
	} else {
		out.S2KUsage = enums.S2KUsageCFB
		out.AEAD = 0
		out.IV = make([]byte, symmetric.BlockSize())
		if err := p.Random(out.IV); err != nil {
			return nil, err
		}
		digest := sha1.Sum(mat)
		plaintext := append(append([]byte(nil), mat...), digest[:]...)
		defer wipe(plaintext)
		stream, err := p.NewCFBEncrypter(symmetric, kek, out.IV)
		if err != nil {
			return nil, err
		}
		ct := make([]byte, len(plaintext))
		stream.XORKeyStream(ct, plaintext)
		out.KeyData = ct
	}
	out.Material = nil
	return &out, nil
}

// Unlock decrypts the secret material with passphrase and returns a new
// packet carrying parsed material. A wrong passphrase surfaces
// ErrPassphraseIncorrect and leaves the receiver unchanged.
func (sk *SecretKey) Unlock(p provider.Provider, passphrase []byte) (*SecretKey, error) {
	if sk.Material != nil {
		return sk, nil
	}
	if len(passphrase) == 0 {
		return nil, s2k.ErrEmptyPassword
	}
	kek, err := sk.S2K.Derive(p, passphrase, sk.Symmetric.KeySize())
	if err != nil {
		return nil, err
	}
	defer wipe(kek)

	var mat []byte
	switch sk.S2KUsage {
	case enums.S2KUsageAEAD:
		key, err := p.HKDF(enums.HashSHA256, kek, nil, sk.aeadHKDFInfo(sk.AEAD, sk.Symmetric), sk.Symmetric.KeySize())
		if err != nil {
			return nil, err
		}
		defer wipe(key)
		aeadCipher, err := p.NewAEAD(sk.AEAD, sk.Symmetric, key)
		if err != nil {
			return nil, err
		}
		mat, err = aeadCipher.Open(nil, sk.IV, sk.KeyData, sk.aeadAssociatedData())
		if err != nil {
			return nil, ErrPassphraseIncorrect
		}
	case enums.S2KUsageCFB, enums.S2KUsageMalleableCFB:
		stream, err := p.NewCFBDecrypter(sk.Symmetric, kek, sk.IV)
		if err != nil {
			return nil, err
		}
		plaintext := make([]byte, len(sk.KeyData))
		stream.XORKeyStream(plaintext, sk.KeyData)
		defer wipe(plaintext)
		if sk.S2KUsage == enums.S2KUsageCFB {
			if len(plaintext) < sha1.Size {
				return nil, ErrPassphraseIncorrect
			}
			body, trailer := plaintext[:len(plaintext)-sha1.Size], plaintext[len(plaintext)-sha1.Size:]
			digest := sha1.Sum(body)
			if subtle.ConstantTimeCompare(digest[:], trailer) != 1 {
				return nil, ErrPassphraseIncorrect
			}
			mat = append([]byte(nil), body...)
		} else {
			if len(plaintext) < 2 {
				return nil, ErrPassphraseIncorrect
			}
			body, sum := plaintext[:len(plaintext)-2], plaintext[len(plaintext)-2:]
			if encoding.Checksum(body) != uint16(sum[0])<<8|uint16(sum[1]) {
				return nil, ErrPassphraseIncorrect
			}
			mat = append([]byte(nil), body...)
		}
	default:
		return nil, fmt.Errorf("%w: usage %d", ErrInvalidProtection, sk.S2KUsage)
	}
	defer wipe(mat)

	parsed, err := material.ParseSecret(sk.PublicKey.Material, encoding.NewReader(mat))
	if err != nil {
		return nil, err
	}
	out := *sk
	out.Material = parsed
	return &out, nil
}

// aeadHKDFInfo builds the HKDF info string binding the packet context:
// framed tag octet, version, cipher, and mode.
func (sk *SecretKey) aeadHKDFInfo(aead enums.AEADMode, symmetric enums.SymmetricAlgorithm) []byte {
	return []byte{0xC0 | byte(sk.Tag()), byte(sk.Version), byte(symmetric), byte(aead)}
}

// aeadAssociatedData binds the AEAD to the framed tag octet and the
// public fields of this key.
func (sk *SecretKey) aeadAssociatedData() []byte {
	aad := []byte{0xC0 | byte(sk.Tag())}
	return sk.encodePublicBody(aad)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
