package enums

// S2KType identifies a string-to-key specifier variant. See RFC 9580,
// section 3.7.1.
type S2KType uint8

const (
	S2KSimple   S2KType = 0
	S2KSalted   S2KType = 1
	S2KIterated S2KType = 3
	S2KArgon2   S2KType = 4
)

// S2KUsage is the usage octet of a secret-key packet describing how the
// secret material is protected. See RFC 9580, section 5.5.3.
type S2KUsage uint8

const (
	// S2KUsageNone marks unprotected secret material.
	S2KUsageNone S2KUsage = 0
	// S2KUsageAEAD marks material protected by AEAD under an S2K-derived,
	// HKDF-expanded key.
	S2KUsageAEAD S2KUsage = 253
	// S2KUsageCFB marks material protected by CFB with a SHA-1 trailer.
	S2KUsageCFB S2KUsage = 254
	// S2KUsageMalleableCFB marks legacy CFB protection whose checksum is a
	// simple sum. Rejected for v6 keys.
	S2KUsageMalleableCFB S2KUsage = 255
)
