package enums

// PublicKeyAlgorithm identifies an OpenPGP public-key algorithm. See RFC
// 9580, section 9.1.
type PublicKeyAlgorithm uint8

const (
	PubKeyRSA            PublicKeyAlgorithm = 1
	PubKeyRSAEncryptOnly PublicKeyAlgorithm = 2
	PubKeyRSASignOnly    PublicKeyAlgorithm = 3
	PubKeyElGamal        PublicKeyAlgorithm = 16
	PubKeyDSA            PublicKeyAlgorithm = 17
	PubKeyECDH           PublicKeyAlgorithm = 18
	PubKeyECDSA          PublicKeyAlgorithm = 19
	PubKeyEdDSALegacy    PublicKeyAlgorithm = 22
	PubKeyX25519         PublicKeyAlgorithm = 25
	PubKeyX448           PublicKeyAlgorithm = 26
	PubKeyEd25519        PublicKeyAlgorithm = 27
	PubKeyEd448          PublicKeyAlgorithm = 28
)

// CanSign reports whether keys of this algorithm can issue signatures.
func (a PublicKeyAlgorithm) CanSign() bool {
	switch a {
	case PubKeyRSA, PubKeyRSASignOnly, PubKeyDSA, PubKeyECDSA,
		PubKeyEdDSALegacy, PubKeyEd25519, PubKeyEd448:
		return true
	}
	return false
}

// CanEncrypt reports whether messages can be encrypted to keys of this
// algorithm.
func (a PublicKeyAlgorithm) CanEncrypt() bool {
	switch a {
	case PubKeyRSA, PubKeyRSAEncryptOnly, PubKeyElGamal, PubKeyECDH,
		PubKeyX25519, PubKeyX448:
		return true
	}
	return false
}

func (a PublicKeyAlgorithm) String() string {
	switch a {
	case PubKeyRSA, PubKeyRSAEncryptOnly, PubKeyRSASignOnly:
		return "RSA"
	case PubKeyElGamal:
		return "ElGamal"
	case PubKeyDSA:
		return "DSA"
	case PubKeyECDH:
		return "ECDH"
	case PubKeyECDSA:
		return "ECDSA"
	case PubKeyEdDSALegacy:
		return "EdDSA"
	case PubKeyX25519:
		return "X25519"
	case PubKeyX448:
		return "X448"
	case PubKeyEd25519:
		return "Ed25519"
	case PubKeyEd448:
		return "Ed448"
	}
	return "Unknown"
}

// SymmetricAlgorithm identifies an OpenPGP symmetric cipher. See RFC 9580,
// section 9.3.
type SymmetricAlgorithm uint8

const (
	SymPlaintext SymmetricAlgorithm = 0
	SymTripleDES SymmetricAlgorithm = 2
	SymCAST5     SymmetricAlgorithm = 3
	SymAES128    SymmetricAlgorithm = 7
	SymAES192    SymmetricAlgorithm = 8
	SymAES256    SymmetricAlgorithm = 9
)

// KeySize returns the cipher key size in bytes, or 0 if the algorithm is
// not supported.
func (s SymmetricAlgorithm) KeySize() int {
	switch s {
	case SymTripleDES:
		return 24
	case SymCAST5:
		return 16
	case SymAES128:
		return 16
	case SymAES192:
		return 24
	case SymAES256:
		return 32
	}
	return 0
}

// BlockSize returns the cipher block size in bytes, or 0 if the algorithm
// is not supported.
func (s SymmetricAlgorithm) BlockSize() int {
	switch s {
	case SymTripleDES, SymCAST5:
		return 8
	case SymAES128, SymAES192, SymAES256:
		return 16
	}
	return 0
}

// IsSupported reports whether the cipher can be instantiated.
func (s SymmetricAlgorithm) IsSupported() bool {
	return s.KeySize() > 0
}

func (s SymmetricAlgorithm) String() string {
	switch s {
	case SymPlaintext:
		return "Plaintext"
	case SymTripleDES:
		return "3DES"
	case SymCAST5:
		return "CAST5"
	case SymAES128:
		return "AES128"
	case SymAES192:
		return "AES192"
	case SymAES256:
		return "AES256"
	}
	return "Unknown"
}

// HashAlgorithm identifies an OpenPGP hash algorithm. See RFC 9580,
// section 9.5.
type HashAlgorithm uint8

const (
	HashMD5       HashAlgorithm = 1
	HashSHA1      HashAlgorithm = 2
	HashRIPEMD160 HashAlgorithm = 3
	HashSHA256    HashAlgorithm = 8
	HashSHA384    HashAlgorithm = 9
	HashSHA512    HashAlgorithm = 10
	HashSHA224    HashAlgorithm = 11
	HashSHA3_256  HashAlgorithm = 12
	HashSHA3_512  HashAlgorithm = 14
)

// Size returns the digest length in bytes, or 0 if the algorithm is not
// supported.
func (h HashAlgorithm) Size() int {
	switch h {
	case HashSHA1:
		return 20
	case HashSHA224:
		return 28
	case HashSHA256, HashSHA3_256:
		return 32
	case HashSHA384:
		return 48
	case HashSHA512, HashSHA3_512:
		return 64
	}
	return 0
}

// String returns the uppercase algorithm name used in armor Hash headers.
func (h HashAlgorithm) String() string {
	switch h {
	case HashMD5:
		return "MD5"
	case HashSHA1:
		return "SHA1"
	case HashRIPEMD160:
		return "RIPEMD160"
	case HashSHA256:
		return "SHA256"
	case HashSHA384:
		return "SHA384"
	case HashSHA512:
		return "SHA512"
	case HashSHA224:
		return "SHA224"
	case HashSHA3_256:
		return "SHA3-256"
	case HashSHA3_512:
		return "SHA3-512"
	}
	return "Unknown"
}

// HashByName resolves an armor Hash header token back to an algorithm id.
func HashByName(name string) (HashAlgorithm, bool) {
	for _, h := range []HashAlgorithm{
		HashMD5, HashSHA1, HashRIPEMD160, HashSHA256, HashSHA384,
		HashSHA512, HashSHA224, HashSHA3_256, HashSHA3_512,
	} {
		if h.String() == name {
			return h, true
		}
	}
	return 0, false
}

// CompressionAlgorithm identifies an OpenPGP compression algorithm. See
// RFC 9580, section 9.4.
type CompressionAlgorithm uint8

const (
	CompressionNone  CompressionAlgorithm = 0
	CompressionZIP   CompressionAlgorithm = 1
	CompressionZLIB  CompressionAlgorithm = 2
	CompressionBZip2 CompressionAlgorithm = 3
)

// AEADMode identifies an AEAD algorithm. See RFC 9580, section 9.6.
type AEADMode uint8

const (
	AEADModeEAX AEADMode = 1
	AEADModeOCB AEADMode = 2
	AEADModeGCM AEADMode = 3
)

// NonceLength returns the nonce length in bytes for the mode.
func (m AEADMode) NonceLength() int {
	switch m {
	case AEADModeEAX:
		return 16
	case AEADModeOCB:
		return 15
	case AEADModeGCM:
		return 12
	}
	return 0
}

// TagLength returns the authentication tag length in bytes for the mode.
func (m AEADMode) TagLength() int {
	switch m {
	case AEADModeEAX, AEADModeOCB, AEADModeGCM:
		return 16
	}
	return 0
}

// IsSupported reports whether the mode can be instantiated.
func (m AEADMode) IsSupported() bool {
	return m.TagLength() > 0
}

func (m AEADMode) String() string {
	switch m {
	case AEADModeEAX:
		return "EAX"
	case AEADModeOCB:
		return "OCB"
	case AEADModeGCM:
		return "GCM"
	}
	return "Unknown"
}
