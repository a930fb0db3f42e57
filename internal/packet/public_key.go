package packet

import (
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/material"
)

// PublicKey is a public-key or public-subkey packet. See RFC 9580,
// section 5.5.2.
type PublicKey struct {
	Version      enums.KeyVersion
	CreationTime time.Time
	Algorithm    enums.PublicKeyAlgorithm
	Material     material.Public
	IsSubkey     bool
}

func parsePublicKey(r *encoding.Reader, isSubkey bool) (*PublicKey, error) {
	pk := &PublicKey{IsSubkey: isSubkey}
	if err := pk.parse(r); err != nil {
		return nil, err
	}
	return pk, nil
}

func (pk *PublicKey) parse(r *encoding.Reader) error {
	v, err := r.ReadByte()
	if err != nil {
		return err
	}
	pk.Version = enums.KeyVersion(v)
	if pk.Version != enums.KeyVersion4 && pk.Version != enums.KeyVersion6 {
		return fmt.Errorf("%w: key version %d", ErrUnsupportedVersion, v)
	}
	created, err := r.ReadUint32()
	if err != nil {
		return err
	}
	pk.CreationTime = time.Unix(int64(created), 0).UTC()
	algo, err := r.ReadByte()
	if err != nil {
		return err
	}
	pk.Algorithm = enums.PublicKeyAlgorithm(algo)

	mr := r
	if pk.Version == enums.KeyVersion6 {
		// v6 carries an octet count for the material.
		n, err := r.ReadUint32()
		if err != nil {
			return err
		}
		matBytes, err := r.ReadBytes(int(n))
		if err != nil {
			return err
		}
		mr = encoding.NewReader(matBytes)
	}
	pk.Material, err = material.ParsePublic(pk.Algorithm, mr)
	return err
}

func (pk *PublicKey) Tag() enums.PacketTag {
	if pk.IsSubkey {
		return enums.TagPublicSubkey
	}
	return enums.TagPublicKey
}

func (pk *PublicKey) EncodeBody(dst []byte) ([]byte, error) {
	return pk.encodePublicBody(dst), nil
}

// encodePublicBody appends the public fields shared by public and secret
// key packets.
func (pk *PublicKey) encodePublicBody(dst []byte) []byte {
	dst = append(dst, byte(pk.Version))
	dst = encoding.PutUint32(dst, uint32(pk.CreationTime.Unix()))
	dst = append(dst, byte(pk.Algorithm))
	mat := pk.Material.Serialize(nil)
	if pk.Version == enums.KeyVersion6 {
		dst = encoding.PutUint32(dst, uint32(len(mat)))
	}
	return append(dst, mat...)
}

// Fingerprint computes the key fingerprint: SHA-1 over a 0x99-framed body
// for v4, SHA-256 over a 0x9B-framed body for v6. See RFC 9580, section
// 5.5.4.
func (pk *PublicKey) Fingerprint() []byte {
	body := pk.encodePublicBody(nil)
	if pk.Version == enums.KeyVersion6 {
		h := sha256.New()
		h.Write([]byte{0x9B})
		h.Write([]byte{byte(len(body) >> 24), byte(len(body) >> 16), byte(len(body) >> 8), byte(len(body))})
		h.Write(body)
		return h.Sum(nil)
	}
	h := sha1.New()
	h.Write([]byte{0x99, byte(len(body) >> 8), byte(len(body))})
	h.Write(body)
	return h.Sum(nil)
}

// KeyID returns the 64-bit key id: the low 8 fingerprint octets for v4,
// the high 8 for v6.
func (pk *PublicKey) KeyID() uint64 {
	fp := pk.Fingerprint()
	var b []byte
	if pk.Version == enums.KeyVersion6 {
		b = fp[:8]
	} else {
		b = fp[len(fp)-8:]
	}
	var id uint64
	for _, c := range b {
		id = id<<8 | uint64(c)
	}
	return id
}

// SerializeForHash appends the framed key body used when hashing keys
// into signatures and certifications.
func (pk *PublicKey) SerializeForHash(dst []byte) []byte {
	body := pk.encodePublicBody(nil)
	if pk.Version == enums.KeyVersion6 {
		dst = append(dst, 0x9B)
		dst = encoding.PutUint32(dst, uint32(len(body)))
	} else {
		dst = append(dst, 0x99)
		dst = encoding.PutUint16(dst, uint16(len(body)))
	}
	return append(dst, body...)
}
