package gopg

import (
	"fmt"
	"time"

	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/material"
	"github.com/nguyennv/gopg/internal/packet"
)

// Preference subpackets advertised on generated self-signatures.
var (
	preferredSymmetric = []byte{
		byte(enums.SymAES256), byte(enums.SymAES192), byte(enums.SymAES128),
	}
	preferredHashes = []byte{
		byte(enums.HashSHA256), byte(enums.HashSHA512),
	}
	preferredCompression = []byte{
		byte(enums.CompressionNone), byte(enums.CompressionZLIB),
		byte(enums.CompressionZIP), byte(enums.CompressionBZip2),
	}
	// AES-256 with OCB, then AES-128 with OCB.
	preferredAEADCiphersuites = []byte{
		byte(enums.SymAES256), byte(enums.AEADModeOCB),
		byte(enums.SymAES128), byte(enums.AEADModeOCB),
	}
)

// GenerateKey creates a new private key with the given user ids, one
// encryption subkey, a self-certification per user id, and a binding
// signature on the subkey. The first user id is marked primary. A
// nonzero expiry sets a key-expiration on the self and binding
// signatures.
func (pgp *PGP) GenerateKey(userIDs []string, algo KeyAlgorithm, expiry time.Duration) (*Key, error) {
	if len(userIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one user id is required", ErrInvalidArgument)
	}
	p := pgp.cfg.provider
	now := pgp.cfg.now().Truncate(time.Second).UTC()

	primaryMat, subMat, version, err := pgp.generateMaterial(algo)
	if err != nil {
		return nil, err
	}

	primary := packet.NewSecretKey(packet.PublicKey{
		Version:      version,
		CreationTime: now,
		Algorithm:    material.PublicOf(primaryMat).Algorithm(),
		Material:     material.PublicOf(primaryMat),
	}, primaryMat)

	sub := packet.NewSecretKey(packet.PublicKey{
		Version:      version,
		CreationTime: now,
		Algorithm:    material.PublicOf(subMat).Algorithm(),
		Material:     material.PublicOf(subMat),
		IsSubkey:     true,
	}, subMat)

	key := &Key{secret: primary, public: &primary.PublicKey}

	// v6 keys carry key-wide preferences on a direct-key self-signature.
	if version == enums.KeyVersion6 {
		directSig, err := packet.Sign(p, primary, primary.SerializeForHash(nil), packet.SignParams{
			Type:   enums.SigTypeDirectKey,
			Hash:   pgp.cfg.preferredHash,
			Time:   now,
			Hashed: pgp.preferenceSubpackets(expiry, true),
		})
		if err != nil {
			return nil, err
		}
		key.directSignatures = append(key.directSignatures, directSig)
	}

	for i, id := range userIDs {
		uid := &packet.UserID{ID: id}
		user := &User{userID: uid}
		hashed := pgp.preferenceSubpackets(expiry, true)
		if i == 0 {
			hashed = append(hashed, packet.PrimaryUserIDSubpacket())
		}
		signed := key.userSignedBytes(user)
		cert, err := packet.Sign(p, primary, signed, packet.SignParams{
			Type:   enums.SigTypePositiveCert,
			Hash:   pgp.cfg.preferredHash,
			Time:   now,
			Hashed: hashed,
		})
		if err != nil {
			return nil, err
		}
		user.selfCertifications = append(user.selfCertifications, cert)
		key.users = append(key.users, user)
	}

	subkey := &Subkey{secret: sub, public: &sub.PublicKey}
	bindingHashed := []packet.Subpacket{
		packet.KeyFlagsSubpacket(enums.KeyFlagEncryptCommunication | enums.KeyFlagEncryptStorage),
	}
	if expiry > 0 {
		bindingHashed = append(bindingHashed, packet.KeyExpirationSubpacket(uint32(expiry/time.Second)))
	}
	binding, err := packet.Sign(p, primary, key.subkeySignedBytes(subkey), packet.SignParams{
		Type:   enums.SigTypeSubkeyBinding,
		Hash:   pgp.cfg.preferredHash,
		Time:   now,
		Hashed: bindingHashed,
	})
	if err != nil {
		return nil, err
	}
	subkey.bindings = append(subkey.bindings, binding)
	key.subkeys = append(key.subkeys, subkey)
	return key, nil
}

// preferenceSubpackets builds the hashed subpackets shared by generated
// self-signatures.
func (pgp *PGP) preferenceSubpackets(expiry time.Duration, withFlags bool) []packet.Subpacket {
	features := enums.FeatureModificationDetection
	if pgp.cfg.v6Keys || pgp.cfg.aead != 0 {
		features |= enums.FeatureSEIPDv2
	}
	subs := []packet.Subpacket{
		packet.PreferredAlgorithmsSubpacket(enums.SubpacketPreferredSymmetric, preferredSymmetric),
		packet.PreferredAlgorithmsSubpacket(enums.SubpacketPreferredHash, preferredHashes),
		packet.PreferredAlgorithmsSubpacket(enums.SubpacketPreferredCompression, preferredCompression),
		packet.FeaturesSubpacket(features),
	}
	if pgp.cfg.aead != 0 {
		subs = append(subs, packet.PreferredAlgorithmsSubpacket(enums.SubpacketPreferredAEADCiphersuites, preferredAEADCiphersuites))
	}
	if withFlags {
		subs = append(subs, packet.KeyFlagsSubpacket(enums.KeyFlagCertify|enums.KeyFlagSign))
	}
	if expiry > 0 {
		subs = append(subs, packet.KeyExpirationSubpacket(uint32(expiry/time.Second)))
	}
	return subs
}

// generateSubkeyMaterial draws material for one additional subkey: the
// suite's signing algorithm when signing is set, its encryption
// algorithm otherwise.
func (pgp *PGP) generateSubkeyMaterial(algo KeyAlgorithm, signing bool) (material.Secret, error) {
	p := pgp.cfg.provider
	switch algo {
	case KeyAlgorithmRSA2048, KeyAlgorithmRSA3072, KeyAlgorithmRSA4096:
		bits := 2048
		if algo == KeyAlgorithmRSA3072 {
			bits = 3072
		} else if algo == KeyAlgorithmRSA4096 {
			bits = 4096
		}
		return material.GenerateRSA(p, bits)
	case KeyAlgorithmECDSAP256, KeyAlgorithmECDSAP384, KeyAlgorithmECDSAP521:
		curve := material.CurveP256
		if algo == KeyAlgorithmECDSAP384 {
			curve = material.CurveP384
		} else if algo == KeyAlgorithmECDSAP521 {
			curve = material.CurveP521
		}
		if signing {
			return material.GenerateECDSA(p, curve)
		}
		return material.GenerateECDH(p, curve)
	case KeyAlgorithmEd25519:
		if signing {
			return material.GenerateEd25519(p)
		}
		return material.GenerateX25519(p)
	case KeyAlgorithmEd448:
		if signing {
			return material.GenerateEd448(p)
		}
		return material.GenerateX448(p)
	}
	return nil, fmt.Errorf("%w: unknown key algorithm %d", ErrInvalidArgument, algo)
}

// generateMaterial draws the primary and subkey material for the
// selected algorithm suite.
func (pgp *PGP) generateMaterial(algo KeyAlgorithm) (material.Secret, material.Secret, enums.KeyVersion, error) {
	p := pgp.cfg.provider
	version := enums.KeyVersion4
	if pgp.cfg.v6Keys {
		version = enums.KeyVersion6
	}
	switch algo {
	case KeyAlgorithmRSA2048, KeyAlgorithmRSA3072, KeyAlgorithmRSA4096:
		bits := 2048
		if algo == KeyAlgorithmRSA3072 {
			bits = 3072
		} else if algo == KeyAlgorithmRSA4096 {
			bits = 4096
		}
		primary, err := material.GenerateRSA(p, bits)
		if err != nil {
			return nil, nil, 0, err
		}
		sub, err := material.GenerateRSA(p, bits)
		if err != nil {
			return nil, nil, 0, err
		}
		return primary, sub, version, nil
	case KeyAlgorithmECDSAP256, KeyAlgorithmECDSAP384, KeyAlgorithmECDSAP521:
		curve := material.CurveP256
		if algo == KeyAlgorithmECDSAP384 {
			curve = material.CurveP384
		} else if algo == KeyAlgorithmECDSAP521 {
			curve = material.CurveP521
		}
		primary, err := material.GenerateECDSA(p, curve)
		if err != nil {
			return nil, nil, 0, err
		}
		sub, err := material.GenerateECDH(p, curve)
		if err != nil {
			return nil, nil, 0, err
		}
		return primary, sub, version, nil
	case KeyAlgorithmEd25519:
		primary, err := material.GenerateEd25519(p)
		if err != nil {
			return nil, nil, 0, err
		}
		sub, err := material.GenerateX25519(p)
		if err != nil {
			return nil, nil, 0, err
		}
		// The RFC 9580 fixed-length encodings require v6 packets.
		return primary, sub, enums.KeyVersion6, nil
	case KeyAlgorithmEd448:
		primary, err := material.GenerateEd448(p)
		if err != nil {
			return nil, nil, 0, err
		}
		sub, err := material.GenerateX448(p)
		if err != nil {
			return nil, nil, 0, err
		}
		return primary, sub, enums.KeyVersion6, nil
	}
	return nil, nil, 0, fmt.Errorf("%w: unknown key algorithm %d", ErrInvalidArgument, algo)
}
