package packet

import (
	"errors"
	"fmt"

	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/provider"
)

// ErrSessionKeyDecryption is returned when no session-key candidate could
// be recovered.
var ErrSessionKeyDecryption = errors.New("session key decryption failed")

// SessionKey is the per-message ephemeral symmetric key. It is never
// persisted; callers wipe it when the message operation completes.
type SessionKey struct {
	Algorithm enums.SymmetricAlgorithm
	Key       []byte
}

// GenerateSessionKey draws a fresh random session key for the cipher.
func GenerateSessionKey(p provider.Provider, algo enums.SymmetricAlgorithm) (*SessionKey, error) {
	size := algo.KeySize()
	if size == 0 {
		return nil, fmt.Errorf("%w: cipher %d", provider.ErrUnsupportedAlgorithm, algo)
	}
	key := make([]byte, size)
	if err := p.Random(key); err != nil {
		return nil, err
	}
	return &SessionKey{Algorithm: algo, Key: key}, nil
}

// Wipe zeroes the key bytes.
func (sk *SessionKey) Wipe() {
	wipe(sk.Key)
}
