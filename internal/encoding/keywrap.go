package encoding

import (
	"crypto/aes"
	"crypto/subtle"
	"errors"
)

// ErrKeywrapIntegrity is returned when the RFC 3394 integrity check fails
// on unwrap.
var ErrKeywrapIntegrity = errors.New("key unwrap integrity check failed")

// ErrKeywrapLength is returned when the wrapped or unwrapped input has an
// invalid length.
var ErrKeywrapLength = errors.New("key wrap input must be a multiple of 8 bytes")

var keywrapIV = [8]byte{0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6}

// KeyWrap wraps plaintext under kek per RFC 3394. The plaintext length
// must be a non-zero multiple of 8.
func KeyWrap(kek, plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 || len(plaintext)%8 != 0 {
		return nil, ErrKeywrapLength
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(plaintext) / 8
	r := make([]byte, len(plaintext))
	copy(r, plaintext)
	var a [8]byte
	copy(a[:], keywrapIV[:])

	var buf [16]byte
	for j := 0; j < 6; j++ {
		for i := 0; i < n; i++ {
			copy(buf[:8], a[:])
			copy(buf[8:], r[i*8:(i+1)*8])
			block.Encrypt(buf[:], buf[:])
			t := uint64(n*j + i + 1)
			copy(a[:], buf[:8])
			for k := 0; k < 8; k++ {
				a[7-k] ^= byte(t >> uint(8*k))
			}
			copy(r[i*8:], buf[8:])
		}
	}

	out := make([]byte, 8+len(r))
	copy(out, a[:])
	copy(out[8:], r)
	return out, nil
}

// KeyUnwrap unwraps ciphertext under kek per RFC 3394 and verifies the
// integrity value.
func KeyUnwrap(kek, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 16 || len(ciphertext)%8 != 0 {
		return nil, ErrKeywrapLength
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(ciphertext)/8 - 1
	var a [8]byte
	copy(a[:], ciphertext[:8])
	r := make([]byte, len(ciphertext)-8)
	copy(r, ciphertext[8:])

	var buf [16]byte
	for j := 5; j >= 0; j-- {
		for i := n - 1; i >= 0; i-- {
			t := uint64(n*j + i + 1)
			copy(buf[:8], a[:])
			for k := 0; k < 8; k++ {
				buf[7-k] ^= byte(t >> uint(8*k))
			}
			copy(buf[8:], r[i*8:(i+1)*8])
			block.Decrypt(buf[:], buf[:])
			copy(a[:], buf[:8])
			copy(r[i*8:], buf[8:])
		}
	}

	if subtle.ConstantTimeCompare(a[:], keywrapIV[:]) != 1 {
		return nil, ErrKeywrapIntegrity
	}
	return r, nil
}
