package packet

import (
	"errors"
	"fmt"
	"time"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/material"
	"github.com/nguyennv/gopg/internal/provider"
)

// ErrSignatureInvalid is the sentinel all verification failures wrap.
var ErrSignatureInvalid = errors.New("signature verification failed")

// VerificationError carries the diagnostic reason for a failed
// verification. It matches ErrSignatureInvalid under errors.Is.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	return "signature verification failed: " + e.Reason
}

func (e *VerificationError) Is(target error) bool {
	return target == ErrSignatureInvalid
}

func verificationFailure(format string, args ...any) error {
	return &VerificationError{Reason: fmt.Sprintf(format, args...)}
}

// saltSize returns the v6 signature salt length paired with the hash
// algorithm. See RFC 9580, section 9.5.
func saltSize(h enums.HashAlgorithm) int {
	switch h {
	case enums.HashSHA224:
		return 16
	case enums.HashSHA256, enums.HashSHA3_256:
		return 16
	case enums.HashSHA384:
		return 24
	case enums.HashSHA512, enums.HashSHA3_512:
		return 32
	}
	return 16
}

// Signature is a signature packet. See RFC 9580, section 5.2.
type Signature struct {
	Version       enums.KeyVersion
	SigType       enums.SignatureType
	KeyAlgorithm  enums.PublicKeyAlgorithm
	HashAlgorithm enums.HashAlgorithm
	Hashed        []Subpacket
	Unhashed      []Subpacket
	// HashPrefix holds the first two octets of the computed digest.
	HashPrefix [2]byte
	// Salt is hashed before the data on v6 signatures.
	Salt []byte
	// SigBody holds the algorithm-specific signature octets.
	SigBody []byte
}

func parseSignature(r *encoding.Reader) (*Signature, error) {
	sig := &Signature{}
	v, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	sig.Version = enums.KeyVersion(v)
	if sig.Version != enums.KeyVersion4 && sig.Version != enums.KeyVersion6 {
		return nil, fmt.Errorf("%w: signature version %d", ErrUnsupportedVersion, v)
	}
	header, err := r.ReadBytes(3)
	if err != nil {
		return nil, err
	}
	sig.SigType = enums.SignatureType(header[0])
	sig.KeyAlgorithm = enums.PublicKeyAlgorithm(header[1])
	sig.HashAlgorithm = enums.HashAlgorithm(header[2])

	lengthSize := 2
	if sig.Version == enums.KeyVersion6 {
		lengthSize = 4
	}
	if sig.Hashed, err = parseSubpackets(r, lengthSize); err != nil {
		return nil, err
	}
	if sig.Unhashed, err = parseSubpackets(r, lengthSize); err != nil {
		return nil, err
	}
	prefix, err := r.ReadBytes(2)
	if err != nil {
		return nil, err
	}
	copy(sig.HashPrefix[:], prefix)
	if sig.Version == enums.KeyVersion6 {
		n, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		salt, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		sig.Salt = append([]byte(nil), salt...)
	}
	sig.SigBody = append([]byte(nil), r.Rest()...)
	return sig, nil
}

func (sig *Signature) Tag() enums.PacketTag { return enums.TagSignature }

func (sig *Signature) EncodeBody(dst []byte) ([]byte, error) {
	lengthSize := 2
	if sig.Version == enums.KeyVersion6 {
		lengthSize = 4
	}
	dst = append(dst, byte(sig.Version), byte(sig.SigType), byte(sig.KeyAlgorithm), byte(sig.HashAlgorithm))
	dst = serializeSubpackets(dst, sig.Hashed, lengthSize)
	dst = serializeSubpackets(dst, sig.Unhashed, lengthSize)
	dst = append(dst, sig.HashPrefix[:]...)
	if sig.Version == enums.KeyVersion6 {
		dst = append(dst, byte(len(sig.Salt)))
		dst = append(dst, sig.Salt...)
	}
	return append(dst, sig.SigBody...), nil
}

// signatureMetadata serializes the hashed portion of the signature: the
// four header octets and the hashed subpacket area.
func (sig *Signature) signatureMetadata() []byte {
	lengthSize := 2
	if sig.Version == enums.KeyVersion6 {
		lengthSize = 4
	}
	out := []byte{byte(sig.Version), byte(sig.SigType), byte(sig.KeyAlgorithm), byte(sig.HashAlgorithm)}
	return serializeSubpackets(out, sig.Hashed, lengthSize)
}

// ComputeDigest hashes data with this signature's metadata and trailer:
// H(salt? || data || metadata || version || 0xFF || len(metadata)).
func (sig *Signature) ComputeDigest(p provider.Provider, data []byte) ([]byte, error) {
	h, err := p.NewHash(sig.HashAlgorithm)
	if err != nil {
		return nil, err
	}
	if sig.Version == enums.KeyVersion6 {
		h.Write(sig.Salt)
	}
	h.Write(data)
	metadata := sig.signatureMetadata()
	h.Write(metadata)
	h.Write([]byte{byte(sig.Version), 0xFF})
	h.Write(encoding.PutUint32(nil, uint32(len(metadata))))
	return h.Sum(nil), nil
}

// subpacket returns the first subpacket of the given type from the hashed
// area; the unhashed area is searched only for the issuer key-id and
// issuer fingerprint hints.
func (sig *Signature) subpacket(t enums.SubpacketType) (Subpacket, bool) {
	areas := [][]Subpacket{sig.Hashed}
	if t == enums.SubpacketIssuerKeyID || t == enums.SubpacketIssuerFingerprint {
		areas = append(areas, sig.Unhashed)
	}
	for _, area := range areas {
		for _, sp := range area {
			if sp.Type == t {
				return sp, true
			}
		}
	}
	return Subpacket{}, false
}

// CreationTime returns the signature creation time, or the zero time when
// absent.
func (sig *Signature) CreationTime() time.Time {
	sp, ok := sig.subpacket(enums.SubpacketCreationTime)
	if !ok || len(sp.Data) != 4 {
		return time.Time{}
	}
	v, _ := encoding.NewReader(sp.Data).ReadUint32()
	return time.Unix(int64(v), 0).UTC()
}

// Expiration returns the signature expiration as an absolute time, or the
// zero time when the signature does not expire.
func (sig *Signature) Expiration() time.Time {
	sp, ok := sig.subpacket(enums.SubpacketExpirationTime)
	if !ok || len(sp.Data) != 4 {
		return time.Time{}
	}
	v, _ := encoding.NewReader(sp.Data).ReadUint32()
	if v == 0 {
		return time.Time{}
	}
	return sig.CreationTime().Add(time.Duration(v) * time.Second)
}

// KeyExpiration returns the signed key-expiration duration in seconds,
// or 0 when unset.
func (sig *Signature) KeyExpiration() uint32 {
	sp, ok := sig.subpacket(enums.SubpacketKeyExpirationTime)
	if !ok || len(sp.Data) != 4 {
		return 0
	}
	v, _ := encoding.NewReader(sp.Data).ReadUint32()
	return v
}

// IssuerKeyID returns the issuer key id hint, or 0 when absent.
func (sig *Signature) IssuerKeyID() uint64 {
	sp, ok := sig.subpacket(enums.SubpacketIssuerKeyID)
	if !ok || len(sp.Data) != 8 {
		return 0
	}
	v, _ := encoding.NewReader(sp.Data).ReadUint64()
	return v
}

// IssuerFingerprint returns the issuer fingerprint, or nil when absent.
func (sig *Signature) IssuerFingerprint() []byte {
	sp, ok := sig.subpacket(enums.SubpacketIssuerFingerprint)
	if !ok || len(sp.Data) < 2 {
		return nil
	}
	return sp.Data[1:]
}

// KeyFlags returns the key-flags bits, or 0 when absent.
func (sig *Signature) KeyFlags() enums.KeyFlags {
	sp, ok := sig.subpacket(enums.SubpacketKeyFlags)
	if !ok || len(sp.Data) < 1 {
		return 0
	}
	return enums.KeyFlags(sp.Data[0])
}

// IsPrimaryUserID reports whether the signature marks its user id as
// primary.
func (sig *Signature) IsPrimaryUserID() bool {
	sp, ok := sig.subpacket(enums.SubpacketPrimaryUserID)
	return ok && len(sp.Data) == 1 && sp.Data[0] == 1
}

// RevocationReason returns the revocation reason code and text.
func (sig *Signature) RevocationReason() (enums.RevocationReason, string, bool) {
	sp, ok := sig.subpacket(enums.SubpacketRevocationReason)
	if !ok || len(sp.Data) < 1 {
		return 0, "", false
	}
	return enums.RevocationReason(sp.Data[0]), string(sp.Data[1:]), true
}

// EmbeddedSignature returns the embedded primary-key-binding signature,
// if present.
func (sig *Signature) EmbeddedSignature() (*Signature, error) {
	sp, ok := sig.subpacket(enums.SubpacketEmbeddedSignature)
	if !ok {
		return nil, nil
	}
	return parseSignature(encoding.NewReader(sp.Data))
}

// Notations returns all parseable notation-data subpackets.
func (sig *Signature) Notations() []NotationData {
	var out []NotationData
	for _, area := range [][]Subpacket{sig.Hashed, sig.Unhashed} {
		for _, sp := range area {
			if sp.Type != enums.SubpacketNotationData {
				continue
			}
			if n, err := parseNotation(sp.Data); err == nil {
				out = append(out, n)
			}
		}
	}
	return out
}

// SignParams direct signature construction.
type SignParams struct {
	Type enums.SignatureType
	Hash enums.HashAlgorithm
	Time time.Time
	// Hashed follows the creation-time and issuer-fingerprint subpackets
	// and precedes the issuer-key-id subpacket; Unhashed forms the
	// unhashed area.
	Hashed   []Subpacket
	Unhashed []Subpacket
}

// Sign builds a signature of the given type over data with the signer's
// secret material. The creation-time, issuer-fingerprint and
// issuer-key-id subpackets are always placed in the hashed area.
func Sign(p provider.Provider, signer *SecretKey, data []byte, params SignParams) (*Signature, error) {
	if signer.Locked() {
		return nil, ErrKeyLocked
	}
	sig := &Signature{
		Version:       enums.KeyVersion4,
		SigType:       params.Type,
		KeyAlgorithm:  signer.Algorithm,
		HashAlgorithm: params.Hash,
	}
	if signer.Version == enums.KeyVersion6 {
		sig.Version = enums.KeyVersion6
		sig.Salt = make([]byte, saltSize(params.Hash))
		if err := p.Random(sig.Salt); err != nil {
			return nil, err
		}
	}

	sig.Hashed = append(sig.Hashed, TimeSubpacket(enums.SubpacketCreationTime, params.Time))
	sig.Hashed = append(sig.Hashed, issuerFingerprintSubpacket(signer.Version, signer.Fingerprint()))
	sig.Hashed = append(sig.Hashed, params.Hashed...)
	sig.Hashed = append(sig.Hashed, issuerKeyIDSubpacket(signer.KeyID()))
	sig.Unhashed = append(sig.Unhashed, params.Unhashed...)

	digest, err := sig.ComputeDigest(p, data)
	if err != nil {
		return nil, err
	}
	copy(sig.HashPrefix[:], digest[:2])
	sig.SigBody, err = material.Sign(p, signer.Material, sig.HashAlgorithm, digest)
	if err != nil {
		return nil, err
	}
	return sig, nil
}

// Verify checks the signature over data against the issuer key at the
// given time. The returned error, when non-nil, matches
// ErrSignatureInvalid and carries a diagnostic reason.
func (sig *Signature) Verify(p provider.Provider, key *PublicKey, data []byte, at time.Time) error {
	if id := sig.IssuerKeyID(); id != 0 && id != key.KeyID() {
		return verificationFailure("issuer key id %016x does not match key %016x", id, key.KeyID())
	}
	if sig.KeyAlgorithm != key.Algorithm {
		return verificationFailure("signature algorithm %s does not match key algorithm %s", sig.KeyAlgorithm, key.Algorithm)
	}
	created := sig.CreationTime()
	if created.IsZero() {
		return verificationFailure("missing creation time")
	}
	if !at.IsZero() && created.After(at) {
		return verificationFailure("signature created in the future")
	}
	if exp := sig.Expiration(); !exp.IsZero() && !at.IsZero() && exp.Before(at) {
		return verificationFailure("signature expired at %s", exp)
	}
	for _, sp := range sig.Hashed {
		if sp.Critical && !knownSubpacketTypes[sp.Type] {
			return verificationFailure("unknown critical subpacket type %d", sp.Type)
		}
	}

	digest, err := sig.ComputeDigest(p, data)
	if err != nil {
		return verificationFailure("digest: %v", err)
	}
	if digest[0] != sig.HashPrefix[0] || digest[1] != sig.HashPrefix[1] {
		return verificationFailure("signed hash prefix mismatch")
	}
	if err := material.Verify(key.Material, sig.HashAlgorithm, digest, sig.SigBody); err != nil {
		return verificationFailure("%v", err)
	}
	return nil
}
