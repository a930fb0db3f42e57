package gopg

import "github.com/nguyennv/gopg/internal/enums"

// Re-exported wire enumerations. The aliases let callers name algorithm
// preferences without reaching into internal packages.

// HashAlgorithm identifies an OpenPGP hash algorithm.
type HashAlgorithm = enums.HashAlgorithm

// SymmetricAlgorithm identifies an OpenPGP symmetric cipher.
type SymmetricAlgorithm = enums.SymmetricAlgorithm

// AEADMode identifies an OpenPGP AEAD mode.
type AEADMode = enums.AEADMode

// CompressionAlgorithm identifies an OpenPGP compression algorithm.
type CompressionAlgorithm = enums.CompressionAlgorithm

const (
	HashSHA256   = enums.HashSHA256
	HashSHA384   = enums.HashSHA384
	HashSHA512   = enums.HashSHA512
	HashSHA3_256 = enums.HashSHA3_256
	HashSHA3_512 = enums.HashSHA3_512

	SymAES128 = enums.SymAES128
	SymAES192 = enums.SymAES192
	SymAES256 = enums.SymAES256
	SymCAST5  = enums.SymCAST5

	AEADModeEAX = enums.AEADModeEAX
	AEADModeOCB = enums.AEADModeOCB
	AEADModeGCM = enums.AEADModeGCM

	CompressionNone = enums.CompressionNone
	CompressionZIP  = enums.CompressionZIP
	CompressionZLIB = enums.CompressionZLIB
)

// KeyAlgorithm selects the algorithm suite for key generation: the
// primary signing algorithm and its matched encryption subkey.
type KeyAlgorithm int

const (
	// KeyAlgorithmRSA2048 generates a v4 RSA primary and RSA subkey.
	KeyAlgorithmRSA2048 KeyAlgorithm = iota
	KeyAlgorithmRSA3072
	KeyAlgorithmRSA4096
	// KeyAlgorithmECDSAP256 generates a v4 ECDSA primary with an ECDH
	// subkey on the same curve; P384 and P521 likewise.
	KeyAlgorithmECDSAP256
	KeyAlgorithmECDSAP384
	KeyAlgorithmECDSAP521
	// KeyAlgorithmEd25519 generates a v6 Ed25519 primary with an X25519
	// subkey.
	KeyAlgorithmEd25519
	// KeyAlgorithmEd448 generates a v6 Ed448 primary with an X448 subkey.
	KeyAlgorithmEd448
)
