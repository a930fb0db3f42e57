// Package provider exposes the cryptographic capability surface the
// packet engine depends on: hashes, HKDF, CFB and AEAD symmetric modes,
// Argon2, and randomness. Public-key primitives live with the key
// material variants; everything here is keyed by wire algorithm ids.
package provider

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/ProtonMail/go-crypto/eax"
	"github.com/ProtonMail/go-crypto/ocb"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/cast5"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/nguyennv/gopg/internal/enums"
)

// ErrUnsupportedAlgorithm is returned when an algorithm id has no
// implementation.
var ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

// Provider is the capability surface consumed by the packet engine. A
// custom implementation may substitute hardware-backed or deterministic
// primitives; [Default] wires the standard stack.
type Provider interface {
	// NewHash returns a fresh hash state for the algorithm.
	NewHash(algo enums.HashAlgorithm) (hash.Hash, error)
	// Digest hashes data in one shot.
	Digest(algo enums.HashAlgorithm, data []byte) ([]byte, error)
	// HKDF derives length bytes from ikm with the given salt and info.
	HKDF(algo enums.HashAlgorithm, ikm, salt, info []byte, length int) ([]byte, error)
	// NewCFBEncrypter and NewCFBDecrypter return CFB streams for the
	// symmetric algorithm.
	NewCFBEncrypter(algo enums.SymmetricAlgorithm, key, iv []byte) (cipher.Stream, error)
	NewCFBDecrypter(algo enums.SymmetricAlgorithm, key, iv []byte) (cipher.Stream, error)
	// NewAEAD returns an AEAD instance for the mode over the symmetric
	// algorithm's block cipher.
	NewAEAD(mode enums.AEADMode, algo enums.SymmetricAlgorithm, key []byte) (cipher.AEAD, error)
	// Random fills b with cryptographically secure random bytes.
	Random(b []byte) error
	// RandomReader returns the provider's randomness source.
	RandomReader() io.Reader
	// Argon2 derives length bytes with Argon2id.
	Argon2(password, salt []byte, passes, parallelism uint8, memoryExp uint8, length int) []byte
}

type defaultProvider struct{}

// Default returns the standard provider backed by the Go crypto stack.
func Default() Provider {
	return defaultProvider{}
}

func (defaultProvider) NewHash(algo enums.HashAlgorithm) (hash.Hash, error) {
	switch algo {
	case enums.HashMD5:
		return md5.New(), nil
	case enums.HashSHA1:
		return sha1.New(), nil
	case enums.HashSHA224:
		return sha256.New224(), nil
	case enums.HashSHA256:
		return sha256.New(), nil
	case enums.HashSHA384:
		return sha512.New384(), nil
	case enums.HashSHA512:
		return sha512.New(), nil
	case enums.HashSHA3_256:
		return sha3.New256(), nil
	case enums.HashSHA3_512:
		return sha3.New512(), nil
	}
	return nil, fmt.Errorf("%w: hash %d", ErrUnsupportedAlgorithm, algo)
}

func (p defaultProvider) Digest(algo enums.HashAlgorithm, data []byte) ([]byte, error) {
	h, err := p.NewHash(algo)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

func (p defaultProvider) HKDF(algo enums.HashAlgorithm, ikm, salt, info []byte, length int) ([]byte, error) {
	newHash, err := p.hashConstructor(algo)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(newHash, ikm, salt, info), out); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return out, nil
}

func (p defaultProvider) hashConstructor(algo enums.HashAlgorithm) (func() hash.Hash, error) {
	if _, err := p.NewHash(algo); err != nil {
		return nil, err
	}
	return func() hash.Hash {
		h, _ := p.NewHash(algo)
		return h
	}, nil
}

func newBlockCipher(algo enums.SymmetricAlgorithm, key []byte) (cipher.Block, error) {
	if len(key) != algo.KeySize() {
		return nil, fmt.Errorf("cipher %s: key length %d, want %d", algo, len(key), algo.KeySize())
	}
	switch algo {
	case enums.SymTripleDES:
		return des.NewTripleDESCipher(key)
	case enums.SymCAST5:
		c, err := cast5.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return c, nil
	case enums.SymAES128, enums.SymAES192, enums.SymAES256:
		return aes.NewCipher(key)
	}
	return nil, fmt.Errorf("%w: cipher %d", ErrUnsupportedAlgorithm, algo)
}

func (defaultProvider) NewCFBEncrypter(algo enums.SymmetricAlgorithm, key, iv []byte) (cipher.Stream, error) {
	block, err := newBlockCipher(algo, key)
	if err != nil {
		return nil, err
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("cipher %s: iv length %d, want %d", algo, len(iv), block.BlockSize())
	}
	return cipher.NewCFBEncrypter(block, iv), nil
}

func (defaultProvider) NewCFBDecrypter(algo enums.SymmetricAlgorithm, key, iv []byte) (cipher.Stream, error) {
	block, err := newBlockCipher(algo, key)
	if err != nil {
		return nil, err
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("cipher %s: iv length %d, want %d", algo, len(iv), block.BlockSize())
	}
	return cipher.NewCFBDecrypter(block, iv), nil
}

func (defaultProvider) NewAEAD(mode enums.AEADMode, algo enums.SymmetricAlgorithm, key []byte) (cipher.AEAD, error) {
	if algo.BlockSize() != 16 {
		return nil, fmt.Errorf("%w: AEAD requires a 128-bit block cipher, got %s", ErrUnsupportedAlgorithm, algo)
	}
	block, err := newBlockCipher(algo, key)
	if err != nil {
		return nil, err
	}
	switch mode {
	case enums.AEADModeEAX:
		return eax.NewEAX(block)
	case enums.AEADModeOCB:
		return ocb.NewOCB(block)
	case enums.AEADModeGCM:
		return cipher.NewGCM(block)
	}
	return nil, fmt.Errorf("%w: AEAD mode %d", ErrUnsupportedAlgorithm, mode)
}

func (defaultProvider) Random(b []byte) error {
	_, err := io.ReadFull(rand.Reader, b)
	return err
}

func (defaultProvider) RandomReader() io.Reader {
	return rand.Reader
}

func (defaultProvider) Argon2(password, salt []byte, passes, parallelism uint8, memoryExp uint8, length int) []byte {
	memory := uint32(1) << memoryExp
	return argon2.IDKey(password, salt, uint32(passes), memory, parallelism, uint32(length))
}
