package gopg

import (
	"fmt"
	"time"

	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/material"
	"github.com/nguyennv/gopg/internal/packet"
)

// RevocationReason is a key or certification revocation reason code.
type RevocationReason = enums.RevocationReason

const (
	RevocationNoReason       = enums.RevocationNoReason
	RevocationKeySuperseded  = enums.RevocationKeySuperseded
	RevocationKeyCompromised = enums.RevocationKeyCompromised
	RevocationKeyRetired     = enums.RevocationKeyRetired
	RevocationUserIDInvalid  = enums.RevocationUserIDInvalid
)

// LockKey encrypts all secret packets under passphrase and returns a new
// key; the input key is unchanged. AEAD protection is applied when the
// handle is configured for it and the key is v6.
func (pgp *PGP) LockKey(k *Key, passphrase []byte) (*Key, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: empty passphrase", ErrInvalidArgument)
	}
	if k.secret == nil {
		return nil, fmt.Errorf("%w: key has no secret material", ErrInvalidArgument)
	}
	p := pgp.cfg.provider
	aead := pgp.cfg.aead
	if aead != 0 && k.secret.Version != enums.KeyVersion6 {
		aead = 0
	}

	out := k.clone()
	locked, err := k.secret.Lock(p, passphrase, pgp.cfg.preferredSymmetric, aead, pgp.cfg.argon2)
	if err != nil {
		return nil, err
	}
	out.secret = locked
	out.public = &locked.PublicKey
	for _, s := range out.subkeys {
		if s.secret == nil {
			continue
		}
		lockedSub, err := s.secret.Lock(p, passphrase, pgp.cfg.preferredSymmetric, aead, pgp.cfg.argon2)
		if err != nil {
			return nil, err
		}
		s.secret = lockedSub
		s.public = &lockedSub.PublicKey
	}
	return out, nil
}

// UnlockKey decrypts all secret packets with passphrase and returns a new
// key. Subkeys that fail to unlock are left locked; the primary must
// unlock.
func (pgp *PGP) UnlockKey(k *Key, passphrase []byte) (*Key, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: empty passphrase", ErrInvalidArgument)
	}
	if k.secret == nil {
		return nil, fmt.Errorf("%w: key has no secret material", ErrInvalidArgument)
	}
	p := pgp.cfg.provider

	out := k.clone()
	unlocked, err := k.secret.Unlock(p, passphrase)
	if err != nil {
		return nil, err
	}
	out.secret = unlocked
	out.public = &unlocked.PublicKey
	for _, s := range out.subkeys {
		if s.secret == nil {
			continue
		}
		unlockedSub, err := s.secret.Unlock(p, passphrase)
		if err != nil {
			pgp.cfg.logger.V(1).Info("subkey left locked", "keyID", fmt.Sprintf("%016x", s.public.KeyID()), "reason", err.Error())
			continue
		}
		s.secret = unlockedSub
		s.public = &unlockedSub.PublicKey
	}
	return out, nil
}

// ValidateMaterial checks the algebraic consistency of all unlocked
// secret material on the key.
func (k *Key) ValidateMaterial() error {
	if k.secret == nil || k.secret.Locked() {
		return ErrKeyLocked
	}
	if err := k.secret.Material.Validate(); err != nil {
		return err
	}
	for _, s := range k.subkeys {
		if s.secret != nil && !s.secret.Locked() {
			if err := s.secret.Material.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddUser certifies a new user id on the key and returns a new key.
func (pgp *PGP) AddUser(k *Key, id string) (*Key, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}
	if k.secret == nil || k.secret.Locked() {
		return nil, ErrKeyLocked
	}
	now := pgp.cfg.now().Truncate(time.Second).UTC()

	out := k.clone()
	user := &User{userID: &packet.UserID{ID: id}}
	cert, err := packet.Sign(pgp.cfg.provider, out.secret, out.userSignedBytes(user), packet.SignParams{
		Type:   enums.SigTypePositiveCert,
		Hash:   pgp.cfg.preferredHash,
		Time:   now,
		Hashed: pgp.preferenceSubpackets(0, true),
	})
	if err != nil {
		return nil, err
	}
	user.selfCertifications = append(user.selfCertifications, cert)
	out.users = append(out.users, user)
	return out, nil
}

// AddSubkey generates and binds a new subkey of the given algorithm. A
// signing-capable subkey carries an embedded primary-key binding issued
// by the subkey itself.
func (pgp *PGP) AddSubkey(k *Key, algo KeyAlgorithm, signing bool) (*Key, error) {
	if k.secret == nil || k.secret.Locked() {
		return nil, ErrKeyLocked
	}
	p := pgp.cfg.provider
	now := pgp.cfg.now().Truncate(time.Second).UTC()

	mat, err := pgp.generateSubkeyMaterial(algo, signing)
	if err != nil {
		return nil, err
	}

	sub := packet.NewSecretKey(packet.PublicKey{
		Version:      k.secret.Version,
		CreationTime: now,
		Algorithm:    material.PublicOf(mat).Algorithm(),
		Material:     material.PublicOf(mat),
		IsSubkey:     true,
	}, mat)

	out := k.clone()
	subkey := &Subkey{secret: sub, public: &sub.PublicKey}
	signed := out.subkeySignedBytes(subkey)

	flags := enums.KeyFlagEncryptCommunication | enums.KeyFlagEncryptStorage
	hashed := []packet.Subpacket{}
	if signing {
		flags = enums.KeyFlagSign
		embedded, err := packet.Sign(p, sub, signed, packet.SignParams{
			Type: enums.SigTypePrimaryKeyBinding,
			Hash: pgp.cfg.preferredHash,
			Time: now,
		})
		if err != nil {
			return nil, err
		}
		sp, err := packet.EmbeddedSignatureSubpacket(embedded)
		if err != nil {
			return nil, err
		}
		hashed = append(hashed, sp)
	}
	hashed = append(hashed, packet.KeyFlagsSubpacket(flags))

	binding, err := packet.Sign(p, out.secret, signed, packet.SignParams{
		Type:   enums.SigTypeSubkeyBinding,
		Hash:   pgp.cfg.preferredHash,
		Time:   now,
		Hashed: hashed,
	})
	if err != nil {
		return nil, err
	}
	subkey.bindings = append(subkey.bindings, binding)
	out.subkeys = append(out.subkeys, subkey)
	return out, nil
}

// RevokeKey issues a key-revocation signature over the primary key and
// returns a new key.
func (pgp *PGP) RevokeKey(k *Key, reason RevocationReason, text string) (*Key, error) {
	if k.secret == nil || k.secret.Locked() {
		return nil, ErrKeyLocked
	}
	now := pgp.cfg.now().Truncate(time.Second).UTC()

	out := k.clone()
	rev, err := packet.Sign(pgp.cfg.provider, out.secret, out.public.SerializeForHash(nil), packet.SignParams{
		Type:   enums.SigTypeKeyRevocation,
		Hash:   pgp.cfg.preferredHash,
		Time:   now,
		Hashed: []packet.Subpacket{packet.RevocationReasonSubpacket(reason, text)},
	})
	if err != nil {
		return nil, err
	}
	out.revocations = append(out.revocations, rev)
	return out, nil
}

// RevokeUser issues a certification revocation over the given user id
// and returns a new key.
func (pgp *PGP) RevokeUser(k *Key, id string, reason RevocationReason, text string) (*Key, error) {
	if k.secret == nil || k.secret.Locked() {
		return nil, ErrKeyLocked
	}
	now := pgp.cfg.now().Truncate(time.Second).UTC()

	out := k.clone()
	for _, u := range out.users {
		if u.userID == nil || u.userID.ID != id {
			continue
		}
		rev, err := packet.Sign(pgp.cfg.provider, out.secret, out.userSignedBytes(u), packet.SignParams{
			Type:   enums.SigTypeCertRevocation,
			Hash:   pgp.cfg.preferredHash,
			Time:   now,
			Hashed: []packet.Subpacket{packet.RevocationReasonSubpacket(reason, text)},
		})
		if err != nil {
			return nil, err
		}
		u.revocations = append(u.revocations, rev)
		return out, nil
	}
	return nil, fmt.Errorf("%w: no user id %q on key", ErrInvalidArgument, id)
}

// RevokeSubkey issues a subkey-revocation signature over the subkey with
// the given key id and returns a new key.
func (pgp *PGP) RevokeSubkey(k *Key, keyID uint64, reason RevocationReason, text string) (*Key, error) {
	if k.secret == nil || k.secret.Locked() {
		return nil, ErrKeyLocked
	}
	now := pgp.cfg.now().Truncate(time.Second).UTC()

	out := k.clone()
	for _, s := range out.subkeys {
		if s.public.KeyID() != keyID {
			continue
		}
		rev, err := packet.Sign(pgp.cfg.provider, out.secret, out.subkeySignedBytes(s), packet.SignParams{
			Type:   enums.SigTypeSubkeyRevocation,
			Hash:   pgp.cfg.preferredHash,
			Time:   now,
			Hashed: []packet.Subpacket{packet.RevocationReasonSubpacket(reason, text)},
		})
		if err != nil {
			return nil, err
		}
		s.revocations = append(s.revocations, rev)
		return out, nil
	}
	return nil, fmt.Errorf("%w: no subkey %016x on key", ErrInvalidArgument, keyID)
}

// CertifyUser issues a third-party certification by signer over the
// given user id of target, returning a new target key carrying the
// certification.
func (pgp *PGP) CertifyUser(signer, target *Key, id string) (*Key, error) {
	if signer.secret == nil || signer.secret.Locked() {
		return nil, ErrKeyLocked
	}
	now := pgp.cfg.now().Truncate(time.Second).UTC()

	out := target.clone()
	for _, u := range out.users {
		if u.userID == nil || u.userID.ID != id {
			continue
		}
		cert, err := packet.Sign(pgp.cfg.provider, signer.secret, out.userSignedBytes(u), packet.SignParams{
			Type: enums.SigTypeGenericCert,
			Hash: pgp.cfg.preferredHash,
			Time: now,
		})
		if err != nil {
			return nil, err
		}
		u.otherCertifications = append(u.otherCertifications, cert)
		return out, nil
	}
	return nil, fmt.Errorf("%w: no user id %q on key", ErrInvalidArgument, id)
}
