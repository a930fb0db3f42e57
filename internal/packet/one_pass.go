package packet

import (
	"fmt"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
)

// OnePassSignature announces an upcoming signature so a reader can hash
// the literal data in a single pass. See RFC 9580, section 5.4.
type OnePassSignature struct {
	Version       uint8
	SigType       enums.SignatureType
	HashAlgorithm enums.HashAlgorithm
	KeyAlgorithm  enums.PublicKeyAlgorithm

	// KeyID identifies the issuer on v3 packets.
	KeyID uint64
	// Salt and Fingerprint identify the signature on v6 packets.
	Salt        []byte
	Fingerprint []byte

	// Nested is zero when further one-pass signatures apply to the same
	// data, one on the last announcement.
	Nested uint8
}

// NewOnePassSignature derives the announcement matching sig as issued by
// key.
func NewOnePassSignature(sig *Signature, key *PublicKey, last bool) *OnePassSignature {
	ops := &OnePassSignature{
		Version:       3,
		SigType:       sig.SigType,
		HashAlgorithm: sig.HashAlgorithm,
		KeyAlgorithm:  sig.KeyAlgorithm,
		KeyID:         key.KeyID(),
	}
	if sig.Version == enums.KeyVersion6 {
		ops.Version = 6
		ops.Salt = append([]byte(nil), sig.Salt...)
		ops.Fingerprint = key.Fingerprint()
		ops.KeyID = 0
	}
	if last {
		ops.Nested = 1
	}
	return ops
}

func parseOnePassSignature(r *encoding.Reader) (*OnePassSignature, error) {
	ops := &OnePassSignature{}
	v, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	ops.Version = v
	if v != 3 && v != 6 {
		return nil, fmt.Errorf("%w: one-pass signature version %d", ErrUnsupportedVersion, v)
	}
	header, err := r.ReadBytes(3)
	if err != nil {
		return nil, err
	}
	ops.SigType = enums.SignatureType(header[0])
	ops.HashAlgorithm = enums.HashAlgorithm(header[1])
	ops.KeyAlgorithm = enums.PublicKeyAlgorithm(header[2])

	if v == 6 {
		n, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		salt, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		ops.Salt = append([]byte(nil), salt...)
		fp, err := r.ReadBytes(32)
		if err != nil {
			return nil, err
		}
		ops.Fingerprint = append([]byte(nil), fp...)
	} else {
		if ops.KeyID, err = r.ReadUint64(); err != nil {
			return nil, err
		}
	}
	if ops.Nested, err = r.ReadByte(); err != nil {
		return nil, err
	}
	return ops, nil
}

func (ops *OnePassSignature) Tag() enums.PacketTag { return enums.TagOnePassSignature }

func (ops *OnePassSignature) EncodeBody(dst []byte) ([]byte, error) {
	dst = append(dst, ops.Version, byte(ops.SigType), byte(ops.HashAlgorithm), byte(ops.KeyAlgorithm))
	if ops.Version == 6 {
		dst = append(dst, byte(len(ops.Salt)))
		dst = append(dst, ops.Salt...)
		dst = append(dst, ops.Fingerprint...)
	} else {
		dst = encoding.PutUint64(dst, ops.KeyID)
	}
	return append(dst, ops.Nested), nil
}
