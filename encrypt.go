package gopg

import (
	"fmt"

	"github.com/nguyennv/gopg/internal/armor"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/packet"
)

// EncryptedMessage is an encrypted packet stream: zero or more session
// key packets followed by exactly one encrypted data packet.
type EncryptedMessage struct {
	encryptedKeys []*packet.EncryptedKey
	symmetricKeys []*packet.SymmetricKeyEncrypted
	seipd         *packet.SEIPD
	legacy        *packet.SymmetricallyEncrypted
}

// Packets returns the message packet sequence in emission order.
func (m *EncryptedMessage) Packets() packet.List {
	var list packet.List
	for _, ek := range m.encryptedKeys {
		list = append(list, ek)
	}
	for _, sk := range m.symmetricKeys {
		list = append(list, sk)
	}
	if m.seipd != nil {
		list = append(list, m.seipd)
	} else if m.legacy != nil {
		list = append(list, m.legacy)
	}
	return list
}

// Serialize returns the binary encrypted message.
func (m *EncryptedMessage) Serialize() ([]byte, error) {
	return m.Packets().Encode()
}

// Armor returns the ASCII-armored encrypted message.
func (m *EncryptedMessage) Armor() (string, error) {
	data, err := m.Serialize()
	if err != nil {
		return "", err
	}
	return armor.Encode(armor.TypeMessage, data), nil
}

// Recipients returns the key ids named by the message's PKESK packets;
// anonymous recipients and v6 packets, which name a fingerprint instead
// of a key id, appear as zero.
func (m *EncryptedMessage) Recipients() []uint64 {
	var out []uint64
	for _, ek := range m.encryptedKeys {
		out = append(out, ek.KeyID)
	}
	return out
}

// ParseEncryptedMessage decodes an armored encrypted message.
func (pgp *PGP) ParseEncryptedMessage(armored string) (*EncryptedMessage, error) {
	block, err := armor.Decode(armored)
	if err != nil {
		return nil, err
	}
	return pgp.ParseEncryptedMessageBytes(block.Body)
}

// ParseEncryptedMessageBytes decodes a binary encrypted message. Exactly
// one SEIPD (or, with legacy packets enabled, SED) packet must be
// present.
func (pgp *PGP) ParseEncryptedMessageBytes(data []byte) (*EncryptedMessage, error) {
	list, err := packet.Decode(data)
	if err != nil {
		return nil, err
	}
	m := &EncryptedMessage{}
	for _, p := range list {
		switch p := p.(type) {
		case *packet.EncryptedKey:
			m.encryptedKeys = append(m.encryptedKeys, p)
		case *packet.SymmetricKeyEncrypted:
			m.symmetricKeys = append(m.symmetricKeys, p)
		case *packet.SEIPD:
			if m.seipd != nil || m.legacy != nil {
				return nil, fmt.Errorf("%w: multiple encrypted data packets", ErrMalformedMessage)
			}
			m.seipd = p
		case *packet.SymmetricallyEncrypted:
			if !pgp.cfg.allowLegacySED {
				return nil, fmt.Errorf("%w: legacy symmetrically-encrypted packet refused", ErrMalformedMessage)
			}
			if m.seipd != nil || m.legacy != nil {
				return nil, fmt.Errorf("%w: multiple encrypted data packets", ErrMalformedMessage)
			}
			m.legacy = p
		case *packet.Marker, *packet.Padding:
		default:
			return nil, fmt.Errorf("%w: unexpected %d packet in encrypted message", ErrMalformedMessage, p.Tag())
		}
	}
	if m.seipd == nil && m.legacy == nil {
		return nil, fmt.Errorf("%w: no encrypted data packet", ErrMalformedMessage)
	}
	return m, nil
}

// Encrypt encrypts the message to the recipients' encryption keys and
// the given passwords under a fresh session key. At least one recipient
// or password is required. The payload is compressed first when the
// handle is configured for compression; v2 SEIPD with AEAD is produced
// when the handle carries an AEAD mode.
func (pgp *PGP) Encrypt(m *LiteralMessage, recipients []*Key, passwords [][]byte) (*EncryptedMessage, error) {
	if len(recipients) == 0 && len(passwords) == 0 {
		return nil, fmt.Errorf("%w: no recipients or passwords", ErrInvalidArgument)
	}
	for _, pw := range passwords {
		if len(pw) == 0 {
			return nil, fmt.Errorf("%w: empty passphrase", ErrInvalidArgument)
		}
	}
	p := pgp.cfg.provider
	now := pgp.cfg.now()

	sessionKey, err := packet.GenerateSessionKey(p, pgp.cfg.preferredSymmetric)
	if err != nil {
		return nil, err
	}
	defer sessionKey.Wipe()

	out := &EncryptedMessage{}
	v6 := pgp.cfg.aead != 0
	for _, r := range recipients {
		targets := r.encryptionKeyPackets(p, now)
		if len(targets) == 0 {
			return nil, fmt.Errorf("%w: key %016x has no encryption-capable packet", ErrInvalidArgument, r.KeyID())
		}
		for _, target := range targets {
			ek, err := packet.NewEncryptedKey(p, target, sessionKey, v6)
			if err != nil {
				return nil, err
			}
			out.encryptedKeys = append(out.encryptedKeys, ek)
		}
	}
	for _, pw := range passwords {
		ske, err := packet.NewSymmetricKeyEncrypted(p, pw, sessionKey, pgp.cfg.aead, pgp.cfg.argon2)
		if err != nil {
			return nil, err
		}
		out.symmetricKeys = append(out.symmetricKeys, ske)
	}

	payload, err := m.Serialize()
	if err != nil {
		return nil, err
	}
	if pgp.cfg.preferredCompression != enums.CompressionNone {
		comp, err := packet.Compress(pgp.cfg.preferredCompression, payload)
		if err != nil {
			return nil, err
		}
		if payload, err = (packet.List{comp}).Encode(); err != nil {
			return nil, err
		}
	}

	if pgp.cfg.aead != 0 {
		out.seipd, err = packet.EncryptSEIPDv2(p, sessionKey, pgp.cfg.aead, payload)
	} else {
		out.seipd, err = packet.EncryptSEIPDv1(p, sessionKey, payload)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EncryptWithSessionKey encrypts the message under a caller-provided
// session key, producing only the encrypted data packet.
func (pgp *PGP) EncryptWithSessionKey(m *LiteralMessage, sessionKey *SessionKey) (*EncryptedMessage, error) {
	payload, err := m.Serialize()
	if err != nil {
		return nil, err
	}
	sk := &packet.SessionKey{Algorithm: sessionKey.Algorithm, Key: sessionKey.Key}
	out := &EncryptedMessage{}
	if pgp.cfg.aead != 0 {
		out.seipd, err = packet.EncryptSEIPDv2(pgp.cfg.provider, sk, pgp.cfg.aead, payload)
	} else {
		out.seipd, err = packet.EncryptSEIPDv1(pgp.cfg.provider, sk, payload)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SessionKey is an exported view of a recovered or generated message
// session key.
type SessionKey struct {
	Algorithm SymmetricAlgorithm
	Key       []byte
}

// Wipe zeroes the key bytes.
func (sk *SessionKey) Wipe() {
	for i := range sk.Key {
		sk.Key[i] = 0
	}
}
