package packet

import (
	"crypto/cipher"
	"crypto/sha1"
	"crypto/subtle"
	"fmt"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/provider"
)

// SEIPD is a symmetrically encrypted integrity protected data packet.
// Version 1 is CFB with an MDC trailer; version 2 is chunked AEAD. See
// RFC 9580, section 5.13.
type SEIPD struct {
	Version uint8

	// v2 parameters.
	Symmetric enums.SymmetricAlgorithm
	AEAD      enums.AEADMode
	ChunkSize uint8
	Salt      []byte

	// Encrypted holds the ciphertext (including, for v2, all chunk tags
	// and the final authentication chunk).
	Encrypted []byte
}

const (
	mdcTrailerSize = 2 + sha1.Size
	// defaultChunkSize encodes 2^(6+6) = 4 KiB chunks.
	defaultChunkSize = 6
	seipdSaltSize    = 32
)

func parseSEIPD(r *encoding.Reader) (*SEIPD, error) {
	se := &SEIPD{}
	v, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	se.Version = v
	switch v {
	case 1:
	case 2:
		header, err := r.ReadBytes(3)
		if err != nil {
			return nil, err
		}
		se.Symmetric = enums.SymmetricAlgorithm(header[0])
		se.AEAD = enums.AEADMode(header[1])
		se.ChunkSize = header[2]
		salt, err := r.ReadBytes(seipdSaltSize)
		if err != nil {
			return nil, err
		}
		se.Salt = append([]byte(nil), salt...)
	default:
		return nil, fmt.Errorf("%w: SEIPD version %d", ErrUnsupportedVersion, v)
	}
	se.Encrypted = append([]byte(nil), r.Rest()...)
	return se, nil
}

func (se *SEIPD) Tag() enums.PacketTag {
	return enums.TagSymEncryptedIntegrityProtectedData
}

func (se *SEIPD) EncodeBody(dst []byte) ([]byte, error) {
	dst = append(dst, se.Version)
	if se.Version == 2 {
		dst = append(dst, byte(se.Symmetric), byte(se.AEAD), se.ChunkSize)
		dst = append(dst, se.Salt...)
	}
	return append(dst, se.Encrypted...), nil
}

// EncryptSEIPDv1 seals a nested packet stream under the session key with
// CFB and an MDC trailer.
func EncryptSEIPDv1(p provider.Provider, sessionKey *SessionKey, plaintext []byte) (*SEIPD, error) {
	blockSize := sessionKey.Algorithm.BlockSize()
	if blockSize == 0 {
		return nil, fmt.Errorf("%w: cipher %d", provider.ErrUnsupportedAlgorithm, sessionKey.Algorithm)
	}
	prefix := make([]byte, blockSize+2)
	if err := p.Random(prefix[:blockSize]); err != nil {
		return nil, err
	}
	prefix[blockSize] = prefix[blockSize-2]
	prefix[blockSize+1] = prefix[blockSize-1]

	body := make([]byte, 0, len(prefix)+len(plaintext)+mdcTrailerSize)
	body = append(body, prefix...)
	body = append(body, plaintext...)
	body = append(body, 0xD3, 0x14)
	digest := sha1.Sum(body)
	body = append(body, digest[:]...)

	iv := make([]byte, blockSize)
	stream, err := p.NewCFBEncrypter(sessionKey.Algorithm, sessionKey.Key, iv)
	if err != nil {
		return nil, err
	}
	stream.XORKeyStream(body, body)
	return &SEIPD{Version: 1, Encrypted: body}, nil
}

// EncryptSEIPDv2 seals a nested packet stream with chunked AEAD under a
// message key derived from the session key.
func EncryptSEIPDv2(p provider.Provider, sessionKey *SessionKey, aead enums.AEADMode, plaintext []byte) (*SEIPD, error) {
	se := &SEIPD{
		Version:   2,
		Symmetric: sessionKey.Algorithm,
		AEAD:      aead,
		ChunkSize: defaultChunkSize,
		Salt:      make([]byte, seipdSaltSize),
	}
	if err := p.Random(se.Salt); err != nil {
		return nil, err
	}
	aeadCipher, iv, err := se.deriveMessageKey(p, sessionKey.Key)
	if err != nil {
		return nil, err
	}

	chunkSize := 1 << (uint(se.ChunkSize) + 6)
	aad := se.associatedData()
	var out []byte
	var index uint64
	for offset := 0; offset < len(plaintext); offset += chunkSize {
		end := offset + chunkSize
		if end > len(plaintext) {
			end = len(plaintext)
		}
		out = aeadCipher.Seal(out, se.chunkNonce(iv, index), plaintext[offset:end], aad)
		index++
	}
	// Final chunk: empty plaintext, with the total octet count appended
	// to the associated data so truncation is detectable.
	finalAAD := encoding.PutUint64(append([]byte(nil), aad...), uint64(len(plaintext)))
	out = aeadCipher.Seal(out, se.chunkNonce(iv, index), nil, finalAAD)
	se.Encrypted = out
	return se, nil
}

// Decrypt opens the ciphertext and returns the nested packet stream.
func (se *SEIPD) Decrypt(p provider.Provider, sessionKey *SessionKey) ([]byte, error) {
	switch se.Version {
	case 1:
		return se.decryptV1(p, sessionKey)
	case 2:
		return se.decryptV2(p, sessionKey)
	}
	return nil, fmt.Errorf("%w: SEIPD version %d", ErrUnsupportedVersion, se.Version)
}

func (se *SEIPD) decryptV1(p provider.Provider, sessionKey *SessionKey) ([]byte, error) {
	blockSize := sessionKey.Algorithm.BlockSize()
	if blockSize == 0 {
		return nil, fmt.Errorf("%w: cipher %d", provider.ErrUnsupportedAlgorithm, sessionKey.Algorithm)
	}
	if len(se.Encrypted) < blockSize+2+mdcTrailerSize {
		return nil, fmt.Errorf("%w: SEIPD too short", ErrMalformed)
	}
	iv := make([]byte, blockSize)
	stream, err := p.NewCFBDecrypter(sessionKey.Algorithm, sessionKey.Key, iv)
	if err != nil {
		return nil, err
	}
	body := make([]byte, len(se.Encrypted))
	stream.XORKeyStream(body, se.Encrypted)

	// Quick-check octets repeat the last two prefix octets.
	if body[blockSize] != body[blockSize-2] || body[blockSize+1] != body[blockSize-1] {
		return nil, fmt.Errorf("%w: prefix check failed", ErrSessionKeyDecryption)
	}
	split := len(body) - mdcTrailerSize
	payload, trailer := body[:split], body[split:]
	if trailer[0] != 0xD3 || trailer[1] != 0x14 {
		return nil, fmt.Errorf("%w: missing MDC packet", ErrMalformed)
	}
	h := sha1.New()
	h.Write(payload)
	h.Write(trailer[:2])
	if subtle.ConstantTimeCompare(h.Sum(nil), trailer[2:]) != 1 {
		return nil, fmt.Errorf("%w: MDC mismatch", ErrMalformed)
	}
	return payload[blockSize+2:], nil
}

func (se *SEIPD) decryptV2(p provider.Provider, sessionKey *SessionKey) ([]byte, error) {
	aeadCipher, iv, err := se.deriveMessageKey(p, sessionKey.Key)
	if err != nil {
		return nil, err
	}
	tagLen := se.AEAD.TagLength()
	chunkSize := 1 << (uint(se.ChunkSize) + 6)
	sealedChunk := chunkSize + tagLen
	if len(se.Encrypted) < tagLen {
		return nil, fmt.Errorf("%w: SEIPD too short", ErrMalformed)
	}

	// The final chunk holds no plaintext, only the tag over the total
	// length. Chunks are opened in order; damage stops the stream before
	// any later chunk is yielded.
	aad := se.associatedData()
	data := se.Encrypted
	var out []byte
	var index uint64
	for len(data) > sealedChunk+tagLen {
		chunk := data[:sealedChunk]
		pt, err := aeadCipher.Open(nil, se.chunkNonce(iv, index), chunk, aad)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d authentication failed", ErrSessionKeyDecryption, index)
		}
		out = append(out, pt...)
		data = data[sealedChunk:]
		index++
	}
	if len(data) > tagLen {
		pt, err := aeadCipher.Open(nil, se.chunkNonce(iv, index), data[:len(data)-tagLen], aad)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d authentication failed", ErrSessionKeyDecryption, index)
		}
		out = append(out, pt...)
		data = data[len(data)-tagLen:]
		index++
	}
	finalAAD := encoding.PutUint64(append([]byte(nil), aad...), uint64(len(out)))
	if _, err := aeadCipher.Open(nil, se.chunkNonce(iv, index), data, finalAAD); err != nil {
		return nil, fmt.Errorf("%w: stream truncated or final tag invalid", ErrSessionKeyDecryption)
	}
	return out, nil
}

// deriveMessageKey expands the session key with HKDF into the chunk
// cipher key and the nonce prefix.
func (se *SEIPD) deriveMessageKey(p provider.Provider, sessionKey []byte) (cipher.AEAD, []byte, error) {
	keySize := se.Symmetric.KeySize()
	nonceLen := se.AEAD.NonceLength()
	okm, err := p.HKDF(enums.HashSHA256, sessionKey, se.Salt, se.hkdfInfo(), keySize+nonceLen-8)
	if err != nil {
		return nil, nil, err
	}
	cipherInstance, err := p.NewAEAD(se.AEAD, se.Symmetric, okm[:keySize])
	if err != nil {
		return nil, nil, err
	}
	return cipherInstance, okm[keySize:], nil
}

func (se *SEIPD) hkdfInfo() []byte {
	return []byte{0xC0 | byte(se.Tag()), se.Version, byte(se.Symmetric), byte(se.AEAD), se.ChunkSize}
}

func (se *SEIPD) associatedData() []byte {
	return se.hkdfInfo()
}

// chunkNonce builds the per-chunk nonce: the HKDF nonce prefix followed
// by the big-endian chunk index.
func (se *SEIPD) chunkNonce(iv []byte, index uint64) []byte {
	return encoding.PutUint64(append([]byte(nil), iv...), index)
}
