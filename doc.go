// Package gopg implements the OpenPGP message format (RFC 4880 and RFC
// 9580): packet streams, ASCII armor, transferable keys, signatures, and
// hybrid or passphrase-based message encryption.
//
// # Handles
//
// All operations run through a [PGP] handle created with [New]. The
// handle carries the configured defaults (preferred algorithms, AEAD
// mode, v6 key emission, logger, time source) and is safe for concurrent
// use; the objects it produces are immutable.
//
//	pgp := gopg.New()
//	key, err := pgp.GenerateKey([]string{"Alice <alice@example.com>"}, gopg.KeyAlgorithmRSA2048, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	armored, _ := key.Armor()
//
// # Keys
//
// [PGP.GenerateKey] produces a primary key with one encryption subkey, a
// positive self-certification per user id, and a subkey binding
// signature. Keys are locked and unlocked with [PGP.LockKey] and
// [PGP.UnlockKey]; every mutating operation (adding users or subkeys,
// revocation, certification) returns a new key value.
//
// # Messages
//
// [NewMessage] and [NewTextMessage] wrap payloads as literal messages.
// [PGP.Sign] produces an attached (one-pass) signed message,
// [PGP.SignDetached] a detached signature, and [PGP.SignCleartext] a
// cleartext-signed message. [PGP.Encrypt] encrypts to any mix of
// recipient keys (PKESK) and passphrases (SKESK) under one fresh session
// key; [PGP.Decrypt] runs the reverse trial and surfaces
// [ErrSessionKeyDecryptionFailed] only when every candidate fails.
//
// # Algorithms
//
// Key generation covers RSA, ECDSA/ECDH on the NIST curves, and the RFC
// 9580 Ed25519/X25519 and Ed448/X448 suites. Messages use v1 SEIPD (CFB
// with an MDC) by default and v2 SEIPD (chunked AEAD with OCB, GCM or
// EAX) when the handle is configured with [WithAEAD]. Secret keys are
// protected with iterated-salted S2K and CFB, or Argon2id and AEAD on v6
// keys.
//
// # Errors
//
// Failures surface as wrapped sentinel errors ([ErrMalformedInput],
// [ErrPassphraseIncorrect], [ErrSignatureInvalid], ...) so callers can
// branch with errors.Is. Verification failures carry a diagnostic
// reason via [SignatureVerificationError].
package gopg
