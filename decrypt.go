package gopg

import (
	"fmt"

	"github.com/nguyennv/gopg/internal/packet"
)

// Decrypt recovers the session key from the message's PKESK and SKESK
// candidates, opens the encrypted data packet, and returns the nested
// literal message.
func (pgp *PGP) Decrypt(m *EncryptedMessage, keys []*Key, passwords [][]byte) (*LiteralMessage, error) {
	sessionKey, err := pgp.DecryptSessionKey(m, keys, passwords)
	if err != nil {
		return nil, err
	}
	defer sessionKey.Wipe()
	return pgp.DecryptWithSessionKey(m, sessionKey)
}

// DecryptSessionKey runs the candidate trial: passwords against SKESK
// packets first, then each PKESK against the matching decryption key
// packets. Failures are logged and the trial continues; the first
// success wins. When every candidate is exhausted the aggregate failure
// is ErrSessionKeyDecryptionFailed.
func (pgp *PGP) DecryptSessionKey(m *EncryptedMessage, keys []*Key, passwords [][]byte) (*SessionKey, error) {
	if len(keys) == 0 && len(passwords) == 0 {
		return nil, fmt.Errorf("%w: no keys or passwords", ErrInvalidArgument)
	}
	p := pgp.cfg.provider
	at := pgp.cfg.now()
	log := pgp.cfg.logger.V(1)

	for _, ske := range m.symmetricKeys {
		for _, pw := range passwords {
			if len(pw) == 0 {
				return nil, fmt.Errorf("%w: empty passphrase", ErrInvalidArgument)
			}
			sk, err := ske.Decrypt(p, pw)
			if err != nil {
				log.Info("SKESK candidate failed", "reason", err.Error())
				continue
			}
			return pgp.normalizeSessionKey(m, sk)
		}
	}

	for _, ek := range m.encryptedKeys {
		for _, key := range keys {
			for _, candidate := range key.decryptionKeyPackets(p, 0, at) {
				// Identity matching happens before any unwrap attempt.
				if !ek.Matches(&candidate.PublicKey) {
					continue
				}
				unlocked := candidate
				if candidate.Locked() {
					log.Info("PKESK candidate skipped: key locked",
						"keyID", fmt.Sprintf("%016x", candidate.KeyID()))
					continue
				}
				sk, err := ek.Decrypt(p, unlocked)
				if err != nil {
					log.Info("PKESK candidate failed",
						"keyID", fmt.Sprintf("%016x", candidate.KeyID()), "reason", err.Error())
					continue
				}
				return pgp.normalizeSessionKey(m, sk)
			}
		}
	}
	return nil, fmt.Errorf("%w: all candidates exhausted", ErrSessionKeyDecryptionFailed)
}

// normalizeSessionKey fills in the cipher algorithm for v6-recovered
// keys, which carry it in the v2 SEIPD rather than the session-key
// packet.
func (pgp *PGP) normalizeSessionKey(m *EncryptedMessage, sk *packet.SessionKey) (*SessionKey, error) {
	algo := sk.Algorithm
	if m.seipd != nil && m.seipd.Version == 2 {
		algo = m.seipd.Symmetric
	}
	if algo.KeySize() == 0 {
		return nil, fmt.Errorf("%w: unresolved session cipher", ErrSessionKeyDecryptionFailed)
	}
	if len(sk.Key) != algo.KeySize() {
		return nil, fmt.Errorf("%w: session key length %d for cipher %s", ErrSessionKeyDecryptionFailed, len(sk.Key), algo)
	}
	return &SessionKey{Algorithm: algo, Key: sk.Key}, nil
}

// DecryptWithSessionKey opens the encrypted data packet under a known
// session key and returns the nested literal message.
func (pgp *PGP) DecryptWithSessionKey(m *EncryptedMessage, sessionKey *SessionKey) (*LiteralMessage, error) {
	p := pgp.cfg.provider
	sk := &packet.SessionKey{Algorithm: sessionKey.Algorithm, Key: sessionKey.Key}

	var nested []byte
	var err error
	switch {
	case m.seipd != nil:
		nested, err = m.seipd.Decrypt(p, sk)
	case m.legacy != nil:
		nested, err = m.legacy.Decrypt(p, sk)
	default:
		return nil, fmt.Errorf("%w: no encrypted data packet", ErrMalformedMessage)
	}
	if err != nil {
		return nil, err
	}

	list, err := packet.Decode(nested)
	if err != nil {
		return nil, err
	}
	return messageFromPackets(list)
}
