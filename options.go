package gopg

import (
	"time"

	"github.com/go-logr/logr"

	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/provider"
)

// config holds the defaults a PGP handle applies to key and message
// operations. It is immutable after New returns.
type config struct {
	provider provider.Provider
	logger   logr.Logger

	preferredHash        enums.HashAlgorithm
	preferredSymmetric   enums.SymmetricAlgorithm
	preferredCompression enums.CompressionAlgorithm

	// aead selects v2 SEIPD and AEAD secret-key protection when nonzero.
	aead enums.AEADMode
	// v6Keys emits version 6 keys and signatures from generation.
	v6Keys bool
	// argon2 enables Argon2 S2K where AEAD protection applies.
	argon2 bool
	// allowLegacySED accepts tag-9 packets on decrypt.
	allowLegacySED bool

	now func() time.Time
}

func defaultConfig() config {
	return config{
		provider:             provider.Default(),
		logger:               logr.Discard(),
		preferredHash:        enums.HashSHA256,
		preferredSymmetric:   enums.SymAES256,
		preferredCompression: enums.CompressionNone,
		argon2:               true,
		now:                  time.Now,
	}
}

// Option configures a PGP handle.
type Option func(*config)

// WithLogger installs a structured logging sink. The core logs only
// non-fatal attempt failures, at verbosity 1.
func WithLogger(l logr.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithProvider substitutes the cryptographic primitive provider.
func WithProvider(p provider.Provider) Option {
	return func(c *config) { c.provider = p }
}

// WithPreferredHash sets the hash used for new signatures.
func WithPreferredHash(h HashAlgorithm) Option {
	return func(c *config) { c.preferredHash = h }
}

// WithPreferredSymmetric sets the cipher used for new session keys and
// secret-key protection.
func WithPreferredSymmetric(s SymmetricAlgorithm) Option {
	return func(c *config) { c.preferredSymmetric = s }
}

// WithCompression enables compression of encrypted payloads.
func WithCompression(a CompressionAlgorithm) Option {
	return func(c *config) { c.preferredCompression = a }
}

// WithAEAD selects v2 SEIPD message encryption and AEAD secret-key
// protection using the given mode.
func WithAEAD(mode AEADMode) Option {
	return func(c *config) { c.aead = mode }
}

// WithV6Keys emits version 6 keys from generation.
func WithV6Keys() Option {
	return func(c *config) { c.v6Keys = true }
}

// WithoutArgon2 disables Argon2 S2K even where AEAD protection would
// allow it, for environments that cannot afford a memory-hard KDF.
func WithoutArgon2() Option {
	return func(c *config) { c.argon2 = false }
}

// WithLegacyPackets accepts legacy symmetrically-encrypted data packets
// (tag 9) on decrypt.
func WithLegacyPackets() Option {
	return func(c *config) { c.allowLegacySED = true }
}

// WithClock substitutes the time source used for key generation,
// signature issuance and validity checks.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// PGP is a handle carrying the configuration for key and message
// operations. Handles are safe for concurrent use.
type PGP struct {
	cfg config
}

// New returns a handle with the given options applied over the defaults:
// SHA-256 signatures, AES-256 session keys, v4 keys (the Ed25519 and
// Ed448 suites always generate v6 keys), no compression, v1 SEIPD
// messages, a discarding logger.
func New(opts ...Option) *PGP {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &PGP{cfg: cfg}
}
