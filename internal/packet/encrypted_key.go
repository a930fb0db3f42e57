package packet

import (
	"bytes"
	"fmt"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/material"
	"github.com/nguyennv/gopg/internal/provider"
)

// EncryptedKey is a public-key encrypted session key (PKESK) packet. See
// RFC 9580, section 5.1.
type EncryptedKey struct {
	Version uint8

	// KeyID identifies the recipient on v3 packets; 0 is the anonymous
	// wildcard.
	KeyID uint64
	// KeyVersion and Fingerprint identify the recipient on v6 packets.
	KeyVersion  enums.KeyVersion
	Fingerprint []byte

	Algorithm enums.PublicKeyAlgorithm
	// Encrypted holds the algorithm-specific encrypted session key field.
	Encrypted []byte
}

// NewEncryptedKey wraps the session key to recipient. A v6 packet is
// produced for use with v2 SEIPD when v6 is set; otherwise a v3 packet.
func NewEncryptedKey(p provider.Provider, recipient *PublicKey, sessionKey *SessionKey, v6 bool) (*EncryptedKey, error) {
	ek := &EncryptedKey{Algorithm: recipient.Algorithm}
	if v6 {
		ek.Version = 6
		ek.KeyVersion = recipient.Version
		ek.Fingerprint = recipient.Fingerprint()
	} else {
		ek.Version = 3
		ek.KeyID = recipient.KeyID()
	}

	switch recipient.Algorithm {
	case enums.PubKeyX25519, enums.PubKeyX448:
		field, err := material.EncryptSessionKey(p, recipient.Material, nil, sessionKey.Key)
		if err != nil {
			return nil, err
		}
		ephLen := x25519EphemeralSize
		if recipient.Algorithm == enums.PubKeyX448 {
			ephLen = x448EphemeralSize
		}
		eph, wrapped := field[:ephLen], field[ephLen:]
		out := append([]byte(nil), eph...)
		if !v6 {
			out = append(out, byte(1+len(wrapped)), byte(sessionKey.Algorithm))
		} else {
			out = append(out, byte(len(wrapped)))
		}
		ek.Encrypted = append(out, wrapped...)
	default:
		// Checksummed session-key block: cipher octet (v3 only), key,
		// 16-bit sum.
		var payload []byte
		if !v6 {
			payload = append(payload, byte(sessionKey.Algorithm))
		}
		payload = append(payload, sessionKey.Key...)
		payload = encoding.PutUint16(payload, encoding.Checksum(sessionKey.Key))
		field, err := material.EncryptSessionKey(p, recipient.Material, recipient.Fingerprint(), payload)
		if err != nil {
			return nil, err
		}
		ek.Encrypted = field
	}
	return ek, nil
}

const (
	x25519EphemeralSize = 32
	x448EphemeralSize   = 56
)

func parseEncryptedKey(r *encoding.Reader) (*EncryptedKey, error) {
	ek := &EncryptedKey{}
	v, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	ek.Version = v
	switch v {
	case 3:
		if ek.KeyID, err = r.ReadUint64(); err != nil {
			return nil, err
		}
	case 6:
		n, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if n > 0 {
			info, err := r.ReadBytes(int(n))
			if err != nil {
				return nil, err
			}
			ek.KeyVersion = enums.KeyVersion(info[0])
			ek.Fingerprint = append([]byte(nil), info[1:]...)
		}
	default:
		return nil, fmt.Errorf("%w: PKESK version %d", ErrUnsupportedVersion, v)
	}
	algo, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	ek.Algorithm = enums.PublicKeyAlgorithm(algo)
	ek.Encrypted = append([]byte(nil), r.Rest()...)
	return ek, nil
}

func (ek *EncryptedKey) Tag() enums.PacketTag {
	return enums.TagPublicKeyEncryptedSessionKey
}

func (ek *EncryptedKey) EncodeBody(dst []byte) ([]byte, error) {
	dst = append(dst, ek.Version)
	if ek.Version == 6 {
		if len(ek.Fingerprint) > 0 {
			dst = append(dst, byte(1+len(ek.Fingerprint)), byte(ek.KeyVersion))
			dst = append(dst, ek.Fingerprint...)
		} else {
			dst = append(dst, 0)
		}
	} else {
		dst = encoding.PutUint64(dst, ek.KeyID)
	}
	dst = append(dst, byte(ek.Algorithm))
	return append(dst, ek.Encrypted...), nil
}

// Matches reports whether the packet addresses the given key. The check
// is free of any cryptography so non-matching candidates are rejected
// before any unwrap is attempted.
func (ek *EncryptedKey) Matches(key *PublicKey) bool {
	if ek.Algorithm != key.Algorithm {
		return false
	}
	if ek.Version == 6 {
		return len(ek.Fingerprint) == 0 || bytes.Equal(ek.Fingerprint, key.Fingerprint())
	}
	return ek.KeyID == 0 || ek.KeyID == key.KeyID()
}

// Decrypt recovers the session key with the recipient's secret key. For
// v6 packets the cipher algorithm is not carried in the payload and is
// left zero for the enclosing SEIPD to determine.
func (ek *EncryptedKey) Decrypt(p provider.Provider, key *SecretKey) (*SessionKey, error) {
	if key.Locked() {
		return nil, ErrKeyLocked
	}
	if !ek.Matches(&key.PublicKey) {
		return nil, fmt.Errorf("%w: packet does not address this key", ErrSessionKeyDecryption)
	}

	switch ek.Algorithm {
	case enums.PubKeyX25519, enums.PubKeyX448:
		ephLen := x25519EphemeralSize
		if ek.Algorithm == enums.PubKeyX448 {
			ephLen = x448EphemeralSize
		}
		fr := encoding.NewReader(ek.Encrypted)
		eph, err := fr.ReadBytes(ephLen)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSessionKeyDecryption, err)
		}
		n, err := fr.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSessionKeyDecryption, err)
		}
		rest, err := fr.ReadBytes(int(n))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSessionKeyDecryption, err)
		}
		var algo enums.SymmetricAlgorithm
		if ek.Version == 3 {
			if len(rest) < 1 {
				return nil, fmt.Errorf("%w: empty wrapped key", ErrSessionKeyDecryption)
			}
			algo = enums.SymmetricAlgorithm(rest[0])
			rest = rest[1:]
		}
		field := append(append([]byte(nil), eph...), rest...)
		keyBytes, err := material.DecryptSessionKey(p, key.Material, nil, field)
		if err != nil {
			return nil, err
		}
		return &SessionKey{Algorithm: algo, Key: keyBytes}, nil
	default:
		payload, err := material.DecryptSessionKey(p, key.Material, key.Fingerprint(), ek.Encrypted)
		if err != nil {
			return nil, err
		}
		sk := &SessionKey{}
		if ek.Version == 3 {
			if len(payload) < 3 {
				return nil, fmt.Errorf("%w: short session-key block", ErrSessionKeyDecryption)
			}
			sk.Algorithm = enums.SymmetricAlgorithm(payload[0])
			payload = payload[1:]
		} else if len(payload) < 2 {
			return nil, fmt.Errorf("%w: short session-key block", ErrSessionKeyDecryption)
		}
		keyBytes, sum := payload[:len(payload)-2], payload[len(payload)-2:]
		if encoding.Checksum(keyBytes) != uint16(sum[0])<<8|uint16(sum[1]) {
			return nil, fmt.Errorf("%w: session-key checksum mismatch", ErrSessionKeyDecryption)
		}
		sk.Key = append([]byte(nil), keyBytes...)
		return sk, nil
	}
}
