package packet

import (
	"fmt"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/provider"
	"github.com/nguyennv/gopg/internal/s2k"
)

// SymmetricKeyEncrypted is a symmetric-key encrypted session key (SKESK)
// packet. See RFC 9580, section 5.3.
type SymmetricKeyEncrypted struct {
	Version   uint8
	Symmetric enums.SymmetricAlgorithm
	AEAD      enums.AEADMode
	S2K       *s2k.Specifier
	IV        []byte
	// Encrypted holds the encrypted session key, empty on v4 packets
	// that use the S2K output directly.
	Encrypted []byte
}

// NewSymmetricKeyEncrypted derives a key-encryption key from passphrase
// and wraps the session key: CFB with a zero IV on v4 packets, AEAD with
// an HKDF-expanded key on v6.
func NewSymmetricKeyEncrypted(p provider.Provider, passphrase []byte, sessionKey *SessionKey, aead enums.AEADMode, argon2 bool) (*SymmetricKeyEncrypted, error) {
	ske := &SymmetricKeyEncrypted{Symmetric: sessionKey.Algorithm}

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
	ske.S2K = spec

	kek, err := spec.Derive(p, passphrase, sessionKey.Algorithm.KeySize())
	if err != nil {
		return nil, err
	}
	defer wipe(kek)

	if aead != 0 {
		ske.Version = 6
		ske.AEAD = aead
		ske.IV = make([]byte, aead.NonceLength())
		if err := p.Random(ske.IV); err != nil {
			return nil, err
		}
		key, err := p.HKDF(enums.HashSHA256, kek, nil, ske.aeadHKDFInfo(), sessionKey.Algorithm.KeySize())
		if err != nil {
			return nil, err
		}
		defer wipe(key)
		aeadCipher, err := p.NewAEAD(aead, sessionKey.Algorithm, key)
		if err != nil {
			return nil, err
		}
		ske.Encrypted = aeadCipher.Seal(nil, ske.IV, sessionKey.Key, ske.aeadHKDFInfo())
	} else {
		ske.Version = 4
		iv := make([]byte, sessionKey.Algorithm.BlockSize())
		stream, err := p.NewCFBEncrypter(sessionKey.Algorithm, kek, iv)
		if err != nil {
			return nil, err
		}
		plaintext := append([]byte{byte(sessionKey.Algorithm)}, sessionKey.Key...)
		defer wipe(plaintext)
		ct := make([]byte, len(plaintext))
		stream.XORKeyStream(ct, plaintext)
		ske.Encrypted = ct
	}
	return ske, nil
}

func parseSymmetricKeyEncrypted(r *encoding.Reader) (*SymmetricKeyEncrypted, error) {
	ske := &SymmetricKeyEncrypted{}
	v, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	ske.Version = v
	switch v {
	case 4:
		symByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		ske.Symmetric = enums.SymmetricAlgorithm(symByte)
		if ske.S2K, err = s2k.Parse(r); err != nil {
			return nil, err
		}
		ske.Encrypted = append([]byte(nil), r.Rest()...)
	case 6:
		// Count octet frames the cipher, mode, S2K and IV fields.
		if _, err := r.ReadByte(); err != nil {
			return nil, err
		}
		header, err := r.ReadBytes(2)
		if err != nil {
			return nil, err
		}
		ske.Symmetric = enums.SymmetricAlgorithm(header[0])
		ske.AEAD = enums.AEADMode(header[1])
		if _, err := r.ReadByte(); err != nil {
			return nil, err
		}
		if ske.S2K, err = s2k.Parse(r); err != nil {
			return nil, err
		}
		iv, err := r.ReadBytes(ske.AEAD.NonceLength())
		if err != nil {
			return nil, err
		}
		ske.IV = append([]byte(nil), iv...)
		ske.Encrypted = append([]byte(nil), r.Rest()...)
	default:
		return nil, fmt.Errorf("%w: SKESK version %d", ErrUnsupportedVersion, v)
	}
	return ske, nil
}

func (ske *SymmetricKeyEncrypted) Tag() enums.PacketTag {
	return enums.TagSymmetricKeyEncryptedSessionKey
}

func (ske *SymmetricKeyEncrypted) EncodeBody(dst []byte) ([]byte, error) {
	dst = append(dst, ske.Version)
	s2kBytes := ske.S2K.Serialize(nil)
	if ske.Version == 6 {
		count := 2 + 1 + len(s2kBytes) + len(ske.IV)
		dst = append(dst, byte(count))
		dst = append(dst, byte(ske.Symmetric), byte(ske.AEAD))
		dst = append(dst, byte(len(s2kBytes)))
		dst = append(dst, s2kBytes...)
		dst = append(dst, ske.IV...)
	} else {
		dst = append(dst, byte(ske.Symmetric))
		dst = append(dst, s2kBytes...)
	}
	return append(dst, ske.Encrypted...), nil
}

func (ske *SymmetricKeyEncrypted) aeadHKDFInfo() []byte {
	return []byte{0xC0 | byte(enums.TagSymmetricKeyEncryptedSessionKey), ske.Version, byte(ske.Symmetric), byte(ske.AEAD)}
}

// Decrypt recovers the session key from passphrase. A v4 packet without
// an encrypted field yields the S2K output itself as the session key.
func (ske *SymmetricKeyEncrypted) Decrypt(p provider.Provider, passphrase []byte) (*SessionKey, error) {
	kek, err := ske.S2K.Derive(p, passphrase, ske.Symmetric.KeySize())
	if err != nil {
		return nil, err
	}

	if ske.Version == 6 {
		defer wipe(kek)
		key, err := p.HKDF(enums.HashSHA256, kek, nil, ske.aeadHKDFInfo(), ske.Symmetric.KeySize())
		if err != nil {
			return nil, err
		}
		defer wipe(key)
		aeadCipher, err := p.NewAEAD(ske.AEAD, ske.Symmetric, key)
		if err != nil {
			return nil, err
		}
		sessionKey, err := aeadCipher.Open(nil, ske.IV, ske.Encrypted, ske.aeadHKDFInfo())
		if err != nil {
			return nil, fmt.Errorf("%w: wrong passphrase", ErrSessionKeyDecryption)
		}
		return &SessionKey{Key: sessionKey}, nil
	}

	if len(ske.Encrypted) == 0 {
		// The derived key is the session key.
		return &SessionKey{Algorithm: ske.Symmetric, Key: kek}, nil
	}
	defer wipe(kek)

	iv := make([]byte, ske.Symmetric.BlockSize())
	stream, err := p.NewCFBDecrypter(ske.Symmetric, kek, iv)
	if err != nil {
		return nil, err
	}
	plaintext := make([]byte, len(ske.Encrypted))
	stream.XORKeyStream(plaintext, ske.Encrypted)
	if len(plaintext) < 1 {
		return nil, fmt.Errorf("%w: empty session key", ErrSessionKeyDecryption)
	}
	algo := enums.SymmetricAlgorithm(plaintext[0])
	if algo.KeySize() == 0 || len(plaintext)-1 != algo.KeySize() {
		// The nested cipher octet is the only redundancy in a v4 SKESK;
		// an implausible value is the passphrase-failure signal.
		return nil, fmt.Errorf("%w: wrong passphrase", ErrSessionKeyDecryption)
	}
	return &SessionKey{Algorithm: algo, Key: append([]byte(nil), plaintext[1:]...)}, nil
}
