package gopg

import (
	"bytes"
	"fmt"
	"time"

	"github.com/nguyennv/gopg/internal/armor"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/packet"
	"github.com/nguyennv/gopg/internal/provider"
)

// Key is a transferable OpenPGP key: a primary key with its direct and
// revocation signatures, certified user ids, and bound subkeys. Keys are
// immutable; every mutating operation returns a new value.
type Key struct {
	public *packet.PublicKey
	secret *packet.SecretKey

	revocations      []*packet.Signature
	directSignatures []*packet.Signature
	users            []*User
	subkeys          []*Subkey
}

// User is one user id (or user attribute) on a key together with its
// certifications.
type User struct {
	userID    *packet.UserID
	attribute *packet.UserAttribute

	selfCertifications  []*packet.Signature
	otherCertifications []*packet.Signature
	revocations         []*packet.Signature
}

// ID returns the user id text, or "" for a user attribute.
func (u *User) ID() string {
	if u.userID == nil {
		return ""
	}
	return u.userID.ID
}

// Subkey is one subkey bound to a primary key.
type Subkey struct {
	public *packet.PublicKey
	secret *packet.SecretKey

	bindings    []*packet.Signature
	revocations []*packet.Signature
}

// KeyID returns the subkey's 64-bit key id.
func (s *Subkey) KeyID() uint64 { return s.public.KeyID() }

// Fingerprint returns the subkey's fingerprint.
func (s *Subkey) Fingerprint() []byte { return s.public.Fingerprint() }

// IsPrivate reports whether the key carries secret packets.
func (k *Key) IsPrivate() bool { return k.secret != nil }

// Fingerprint returns the primary key fingerprint.
func (k *Key) Fingerprint() []byte { return k.public.Fingerprint() }

// KeyID returns the primary key's 64-bit key id.
func (k *Key) KeyID() uint64 { return k.public.KeyID() }

// CreationTime returns the primary key's creation time.
func (k *Key) CreationTime() time.Time { return k.public.CreationTime }

// Version returns the primary key packet version.
func (k *Key) Version() int { return int(k.public.Version) }

// UserIDs returns the user id strings in certification order.
func (k *Key) UserIDs() []string {
	var out []string
	for _, u := range k.users {
		if u.userID != nil {
			out = append(out, u.userID.ID)
		}
	}
	return out
}

// Users returns the key's users.
func (k *Key) Users() []*User { return k.users }

// Subkeys returns the key's subkeys.
func (k *Key) Subkeys() []*Subkey { return k.subkeys }

// Locked reports whether the primary secret material is passphrase
// protected and not yet unlocked.
func (k *Key) Locked() bool {
	return k.secret != nil && k.secret.Locked()
}

// clone returns a shallow copy with fresh slice headers, the base of
// every copy-on-write mutation.
func (k *Key) clone() *Key {
	out := &Key{public: k.public, secret: k.secret}
	out.revocations = append([]*packet.Signature(nil), k.revocations...)
	out.directSignatures = append([]*packet.Signature(nil), k.directSignatures...)
	for _, u := range k.users {
		cu := &User{userID: u.userID, attribute: u.attribute}
		cu.selfCertifications = append([]*packet.Signature(nil), u.selfCertifications...)
		cu.otherCertifications = append([]*packet.Signature(nil), u.otherCertifications...)
		cu.revocations = append([]*packet.Signature(nil), u.revocations...)
		out.users = append(out.users, cu)
	}
	for _, s := range k.subkeys {
		cs := &Subkey{public: s.public, secret: s.secret}
		cs.bindings = append([]*packet.Signature(nil), s.bindings...)
		cs.revocations = append([]*packet.Signature(nil), s.revocations...)
		out.subkeys = append(out.subkeys, cs)
	}
	return out
}

// Packets serializes the key into the canonical transferable-key packet
// order: primary, revocations and direct signatures, users with their
// certifications, then subkeys with their bindings and revocations.
func (k *Key) Packets(private bool) (packet.List, error) {
	var list packet.List
	if private && k.secret != nil {
		list = append(list, k.secret)
	} else {
		list = append(list, k.public)
	}
	for _, sig := range k.revocations {
		list = append(list, sig)
	}
	for _, sig := range k.directSignatures {
		list = append(list, sig)
	}
	for _, u := range k.users {
		if u.userID != nil {
			list = append(list, u.userID)
		} else if u.attribute != nil {
			list = append(list, u.attribute)
		}
		for _, sig := range u.revocations {
			list = append(list, sig)
		}
		for _, sig := range u.selfCertifications {
			list = append(list, sig)
		}
		for _, sig := range u.otherCertifications {
			list = append(list, sig)
		}
	}
	for _, s := range k.subkeys {
		if private && s.secret != nil {
			list = append(list, s.secret)
		} else {
			list = append(list, s.public)
		}
		for _, sig := range s.bindings {
			list = append(list, sig)
		}
		for _, sig := range s.revocations {
			list = append(list, sig)
		}
	}
	return list, nil
}

// Serialize returns the binary transferable key. Private keys include
// secret packets; use SerializePublic for the public subset.
func (k *Key) Serialize() ([]byte, error) {
	list, err := k.Packets(true)
	if err != nil {
		return nil, err
	}
	return list.Encode()
}

// SerializePublic returns the binary transferable public key.
func (k *Key) SerializePublic() ([]byte, error) {
	list, err := k.Packets(false)
	if err != nil {
		return nil, err
	}
	return list.Encode()
}

// Armor returns the ASCII-armored key: a private block when the key
// carries secret packets, a public block otherwise.
func (k *Key) Armor() (string, error) {
	if k.IsPrivate() {
		data, err := k.Serialize()
		if err != nil {
			return "", err
		}
		return armor.Encode(armor.TypePrivateKey, data), nil
	}
	return k.ArmorPublic()
}

// ArmorPublic returns the ASCII-armored public key.
func (k *Key) ArmorPublic() (string, error) {
	data, err := k.SerializePublic()
	if err != nil {
		return "", err
	}
	return armor.Encode(armor.TypePublicKey, data), nil
}

// ParseKey decodes an armored transferable key.
func (pgp *PGP) ParseKey(armored string) (*Key, error) {
	block, err := armor.Decode(armored)
	if err != nil {
		return nil, err
	}
	return pgp.ParseKeyBytes(block.Body)
}

// ParseKeyBytes decodes a binary transferable key.
func (pgp *PGP) ParseKeyBytes(data []byte) (*Key, error) {
	list, err := packet.Decode(data)
	if err != nil {
		return nil, err
	}
	return keyFromPackets(list)
}

// keyFromPackets assembles the key graph from a packet sequence in
// transferable-key order.
func keyFromPackets(list packet.List) (*Key, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: empty key block", ErrMalformedInput)
	}

	k := &Key{}
	switch p := list[0].(type) {
	case *packet.SecretKey:
		k.secret = p
		k.public = &p.PublicKey
	case *packet.PublicKey:
		k.public = p
	default:
		return nil, fmt.Errorf("%w: key block must begin with a key packet", ErrMalformedInput)
	}
	if k.public.IsSubkey {
		return nil, fmt.Errorf("%w: key block begins with a subkey", ErrMalformedInput)
	}

	var user *User
	var subkey *Subkey
	for _, p := range list[1:] {
		switch p := p.(type) {
		case *packet.UserID:
			user, subkey = &User{userID: p}, nil
			k.users = append(k.users, user)
		case *packet.UserAttribute:
			user, subkey = &User{attribute: p}, nil
			k.users = append(k.users, user)
		case *packet.PublicKey:
			if !p.IsSubkey {
				return nil, fmt.Errorf("%w: second primary key in key block", ErrMalformedInput)
			}
			user, subkey = nil, &Subkey{public: p}
			k.subkeys = append(k.subkeys, subkey)
		case *packet.SecretKey:
			if !p.IsSubkey {
				return nil, fmt.Errorf("%w: second primary key in key block", ErrMalformedInput)
			}
			user, subkey = nil, &Subkey{secret: p, public: &p.PublicKey}
			k.subkeys = append(k.subkeys, subkey)
		case *packet.Signature:
			switch {
			case subkey != nil:
				if p.SigType == enums.SigTypeSubkeyRevocation {
					subkey.revocations = append(subkey.revocations, p)
				} else {
					subkey.bindings = append(subkey.bindings, p)
				}
			case user != nil:
				switch {
				case p.SigType == enums.SigTypeCertRevocation:
					user.revocations = append(user.revocations, p)
				case issuedByPrimary(p, k.public):
					user.selfCertifications = append(user.selfCertifications, p)
				default:
					user.otherCertifications = append(user.otherCertifications, p)
				}
			default:
				if p.SigType == enums.SigTypeKeyRevocation {
					k.revocations = append(k.revocations, p)
				} else {
					k.directSignatures = append(k.directSignatures, p)
				}
			}
		case *packet.Trust, *packet.Marker, *packet.Padding:
			// Keyring-local and transport packets carry no key meaning.
		default:
			return nil, fmt.Errorf("%w: unexpected %d packet in key block", ErrMalformedInput, p.Tag())
		}
	}
	return k, nil
}

// issuedByPrimary reports whether a certification names the primary key
// as its issuer, by key id or fingerprint. A signature with no issuer
// hint at all is treated as a self-certification.
func issuedByPrimary(sig *packet.Signature, primary *packet.PublicKey) bool {
	if fp := sig.IssuerFingerprint(); fp != nil {
		return bytes.Equal(fp, primary.Fingerprint())
	}
	if id := sig.IssuerKeyID(); id != 0 {
		return id == primary.KeyID()
	}
	return true
}

// userSignedBytes is the content a certification covers: the framed
// primary key followed by the framed user id or attribute.
func (k *Key) userSignedBytes(u *User) []byte {
	out := k.public.SerializeForHash(nil)
	if u.userID != nil {
		return u.userID.SerializeForHash(out)
	}
	return u.attribute.SerializeForHash(out)
}

// subkeySignedBytes is the content a binding signature covers: the
// framed primary key followed by the framed subkey.
func (k *Key) subkeySignedBytes(s *Subkey) []byte {
	out := k.public.SerializeForHash(nil)
	return s.public.SerializeForHash(out)
}

// VerifyKey checks the key graph at the given time: a verifying,
// unrevoked self-certification or a verifying direct-key signature must
// exist, the primary must be unrevoked and within its validity window.
func (pgp *PGP) VerifyKey(k *Key, at time.Time) error {
	p := pgp.cfg.provider
	if k.public.CreationTime.After(at) {
		return fmt.Errorf("%w: not yet valid at %s", ErrKeyInvalid, at)
	}
	if k.isRevoked(p, at) {
		return fmt.Errorf("%w: revoked", ErrKeyInvalid)
	}
	if exp := k.expirationTime(p, at); !exp.IsZero() && !exp.After(at) {
		return fmt.Errorf("%w: expired at %s", ErrKeyInvalid, exp)
	}

	for _, sig := range k.directSignatures {
		if sig.SigType != enums.SigTypeDirectKey {
			continue
		}
		if sig.Verify(p, k.public, k.public.SerializeForHash(nil), at) == nil {
			return nil
		}
	}
	for _, u := range k.users {
		if k.validSelfCertification(p, u, at) != nil {
			return nil
		}
	}
	return fmt.Errorf("%w: no valid self-certification", ErrKeyInvalid)
}

// validSelfCertification returns the newest self-certification on u that
// verifies and is not superseded by a later revocation from the same
// issuer.
func (k *Key) validSelfCertification(p provider.Provider, u *User, at time.Time) *packet.Signature {
	signed := k.userSignedBytes(u)
	var best *packet.Signature
	for _, sig := range u.selfCertifications {
		if !sig.SigType.IsCertification() {
			continue
		}
		if sig.Verify(p, k.public, signed, at) != nil {
			continue
		}
		if best == nil || sig.CreationTime().After(best.CreationTime()) {
			best = sig
		}
	}
	if best == nil {
		return nil
	}
	for _, rev := range u.revocations {
		if rev.IssuerKeyID() != 0 && rev.IssuerKeyID() != k.public.KeyID() {
			continue
		}
		if rev.Verify(p, k.public, signed, at) == nil && !rev.CreationTime().Before(best.CreationTime()) {
			return nil
		}
	}
	return best
}

// isRevoked reports whether a valid key-revocation signature covers time
// at.
func (k *Key) isRevoked(p provider.Provider, at time.Time) bool {
	signed := k.public.SerializeForHash(nil)
	for _, rev := range k.revocations {
		if rev.SigType != enums.SigTypeKeyRevocation {
			continue
		}
		if rev.Verify(p, k.public, signed, at) == nil {
			return true
		}
	}
	return false
}

// IsRevoked reports whether the key is revoked at the given time.
func (pgp *PGP) IsRevoked(k *Key, at time.Time) bool {
	return k.isRevoked(pgp.cfg.provider, at)
}

// expirationTime derives the key expiration from the newest valid
// self-signature; when that signature carries no key-expiration
// subpacket the key does not expire. The zero time means no expiration.
func (k *Key) expirationTime(p provider.Provider, at time.Time) time.Time {
	var exp uint32
	var newest time.Time
	consider := func(sig *packet.Signature) {
		if sig.CreationTime().After(newest) {
			newest = sig.CreationTime()
			exp = sig.KeyExpiration()
		}
	}
	for _, u := range k.users {
		if sig := k.validSelfCertification(p, u, at); sig != nil {
			consider(sig)
		}
	}
	for _, sig := range k.directSignatures {
		if sig.SigType == enums.SigTypeDirectKey && sig.Verify(p, k.public, k.public.SerializeForHash(nil), at) == nil {
			consider(sig)
		}
	}
	if exp == 0 {
		return time.Time{}
	}
	return k.public.CreationTime.Add(time.Duration(exp) * time.Second)
}

// ExpirationTime returns the key's expiration, or the zero time when it
// does not expire.
func (pgp *PGP) ExpirationTime(k *Key) time.Time {
	return k.expirationTime(pgp.cfg.provider, pgp.cfg.now())
}

// validBinding returns the newest binding signature on s that verifies,
// carries the wanted capability, and is not revoked.
func (k *Key) validBinding(p provider.Provider, s *Subkey, at time.Time, want enums.KeyFlags) *packet.Signature {
	signed := k.subkeySignedBytes(s)
	var best *packet.Signature
	for _, sig := range s.bindings {
		if sig.SigType != enums.SigTypeSubkeyBinding {
			continue
		}
		if sig.Verify(p, k.public, signed, at) != nil {
			continue
		}
		if want != 0 && sig.KeyFlags()&want == 0 {
			continue
		}
		// A signing-capable subkey must prove possession with an
		// embedded primary-key binding issued by the subkey itself.
		if want&enums.KeyFlagSign != 0 {
			embedded, err := sig.EmbeddedSignature()
			if err != nil || embedded == nil {
				continue
			}
			if embedded.Verify(p, s.public, signed, at) != nil {
				continue
			}
		}
		if best == nil || sig.CreationTime().After(best.CreationTime()) {
			best = sig
		}
	}
	if best == nil {
		return nil
	}
	for _, rev := range s.revocations {
		if rev.SigType != enums.SigTypeSubkeyRevocation {
			continue
		}
		if rev.Verify(p, k.public, signed, at) == nil && !rev.CreationTime().Before(best.CreationTime()) {
			return nil
		}
	}
	return best
}

// decryptionKeyPackets returns unlocked-capable encryption key packets in
// newest-first creation order; an encryption-capable primary is appended
// last. A nonzero keyID restricts the result to matching packets.
func (k *Key) decryptionKeyPackets(p provider.Provider, keyID uint64, at time.Time) []*packet.SecretKey {
	var out []*packet.SecretKey
	var candidates []*Subkey
	for _, s := range k.subkeys {
		if s.secret == nil || !s.public.Algorithm.CanEncrypt() {
			continue
		}
		if k.validBinding(p, s, at, enums.KeyFlagEncryptCommunication|enums.KeyFlagEncryptStorage) == nil {
			continue
		}
		candidates = append(candidates, s)
	}
	// Newest first.
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if candidates[j].public.CreationTime.After(candidates[i].public.CreationTime) {
				candidates[i], candidates[j] = candidates[j], candidates[i]
			}
		}
	}
	for _, s := range candidates {
		if keyID == 0 || s.public.KeyID() == keyID {
			out = append(out, s.secret)
		}
	}
	if k.secret != nil && k.public.Algorithm.CanEncrypt() {
		if keyID == 0 || k.public.KeyID() == keyID {
			out = append(out, k.secret)
		}
	}
	return out
}

// signingKeyPacket selects the subkey (or primary) used to issue data
// signatures at the given time.
func (k *Key) signingKeyPacket(p provider.Provider, at time.Time) (*packet.SecretKey, error) {
	if k.secret == nil {
		return nil, fmt.Errorf("%w: key has no secret material", ErrInvalidArgument)
	}
	for _, s := range k.subkeys {
		if s.secret == nil || !s.public.Algorithm.CanSign() {
			continue
		}
		if k.validBinding(p, s, at, enums.KeyFlagSign) != nil {
			return s.secret, nil
		}
	}
	if k.public.Algorithm.CanSign() {
		return k.secret, nil
	}
	return nil, fmt.Errorf("%w: no signing-capable key packet", ErrInvalidArgument)
}

// verificationKeyPackets returns every public key packet on the key that
// could have issued a signature: signing-capable subkeys and the
// primary.
func (k *Key) verificationKeyPackets() []*packet.PublicKey {
	var out []*packet.PublicKey
	if k.public.Algorithm.CanSign() {
		out = append(out, k.public)
	}
	for _, s := range k.subkeys {
		if s.public.Algorithm.CanSign() {
			out = append(out, s.public)
		}
	}
	return out
}

// encryptionKeyPackets returns the public packets messages should be
// encrypted to: the newest valid encryption subkey, or the primary when
// it is itself encryption capable.
func (k *Key) encryptionKeyPackets(p provider.Provider, at time.Time) []*packet.PublicKey {
	var best *Subkey
	for _, s := range k.subkeys {
		if !s.public.Algorithm.CanEncrypt() {
			continue
		}
		if k.validBinding(p, s, at, enums.KeyFlagEncryptCommunication|enums.KeyFlagEncryptStorage) == nil {
			continue
		}
		if best == nil || s.public.CreationTime.After(best.public.CreationTime) {
			best = s
		}
	}
	if best != nil {
		return []*packet.PublicKey{best.public}
	}
	if k.public.Algorithm.CanEncrypt() {
		return []*packet.PublicKey{k.public}
	}
	return nil
}
