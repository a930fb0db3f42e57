package gopg

import (
	"errors"

	"github.com/nguyennv/gopg/internal/armor"
	"github.com/nguyennv/gopg/internal/packet"
)

// Sentinel errors for errors.Is() checks. Lower layers surface richer
// wrapped errors; these are the stable kinds callers branch on.
var (
	// ErrMalformedInput is returned for damaged framing, lengths, or
	// reserved fields.
	ErrMalformedInput = packet.ErrMalformed

	// ErrUnsupportedVersion is returned for packet versions this library
	// does not implement.
	ErrUnsupportedVersion = packet.ErrUnsupportedVersion

	// ErrChecksumMismatch is returned when a plaintext secret key's
	// checksum does not match its material.
	ErrChecksumMismatch = packet.ErrChecksumMismatch

	// ErrPassphraseIncorrect is returned when a secret key's protection
	// rejects the passphrase.
	ErrPassphraseIncorrect = packet.ErrPassphraseIncorrect

	// ErrSessionKeyDecryptionFailed is returned when no PKESK or SKESK
	// candidate yields a session key.
	ErrSessionKeyDecryptionFailed = packet.ErrSessionKeyDecryption

	// ErrSignatureInvalid is returned when signature verification fails;
	// the wrapped error carries the diagnostic reason.
	ErrSignatureInvalid = packet.ErrSignatureInvalid

	// ErrKeyInvalid is returned when a key fails self-verification.
	ErrKeyInvalid = errors.New("key failed verification")

	// ErrKeyLocked is returned when an operation needs unlocked secret
	// material.
	ErrKeyLocked = packet.ErrKeyLocked

	// ErrInvalidArgument is returned when a required input is missing or
	// inconsistent.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoArmoredData is returned when armor decoding finds no frame.
	ErrNoArmoredData = armor.ErrNoArmoredData

	// ErrCRCMismatch is returned when the armor checksum does not match
	// the decoded body.
	ErrCRCMismatch = armor.ErrCRCMismatch

	// ErrMalformedMessage is returned when a message's packet sequence
	// violates the OpenPGP grammar.
	ErrMalformedMessage = errors.New("malformed message structure")
)

// SignatureVerificationError carries the diagnostic reason for a failed
// verification. It matches ErrSignatureInvalid under errors.Is.
type SignatureVerificationError = packet.VerificationError
