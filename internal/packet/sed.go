package packet

import (
	"fmt"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/provider"
)

// SymmetricallyEncrypted is the legacy symmetrically-encrypted data
// packet (tag 9), carried without integrity protection. It is accepted
// on decrypt for old messages and never produced. See RFC 4880, section
// 5.7.
type SymmetricallyEncrypted struct {
	Encrypted []byte
}

func parseSymmetricallyEncrypted(r *encoding.Reader) (*SymmetricallyEncrypted, error) {
	return &SymmetricallyEncrypted{Encrypted: append([]byte(nil), r.Rest()...)}, nil
}

func (se *SymmetricallyEncrypted) Tag() enums.PacketTag {
	return enums.TagSymmetricallyEncryptedData
}

func (se *SymmetricallyEncrypted) EncodeBody(dst []byte) ([]byte, error) {
	return append(dst, se.Encrypted...), nil
}

// Decrypt opens the legacy CFB stream, including the historical resync:
// after the prefix, the cipher restarts with the prefix ciphertext as IV.
func (se *SymmetricallyEncrypted) Decrypt(p provider.Provider, sessionKey *SessionKey) ([]byte, error) {
	blockSize := sessionKey.Algorithm.BlockSize()
	if blockSize == 0 {
		return nil, fmt.Errorf("%w: cipher %d", provider.ErrUnsupportedAlgorithm, sessionKey.Algorithm)
	}
	if len(se.Encrypted) < blockSize+2 {
		return nil, fmt.Errorf("%w: encrypted data too short", ErrMalformed)
	}

	iv := make([]byte, blockSize)
	stream, err := p.NewCFBDecrypter(sessionKey.Algorithm, sessionKey.Key, iv)
	if err != nil {
		return nil, err
	}
	prefix := make([]byte, blockSize+2)
	stream.XORKeyStream(prefix, se.Encrypted[:blockSize+2])
	if prefix[blockSize] != prefix[blockSize-2] || prefix[blockSize+1] != prefix[blockSize-1] {
		return nil, fmt.Errorf("%w: prefix check failed", ErrSessionKeyDecryption)
	}

	resyncIV := se.Encrypted[2 : blockSize+2]
	stream, err = p.NewCFBDecrypter(sessionKey.Algorithm, sessionKey.Key, resyncIV)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(se.Encrypted)-blockSize-2)
	stream.XORKeyStream(out, se.Encrypted[blockSize+2:])
	return out, nil
}
