package packet

import (
	"github.com/nguyennv/gopg/internal/encoding"
	"github.com/nguyennv/gopg/internal/enums"
)

// UserID is a user-id packet: UTF-8 text conventionally of the form
// "Name (Comment) <email>". See RFC 9580, section 5.11.
type UserID struct {
	ID string
}

func parseUserID(r *encoding.Reader) (*UserID, error) {
	return &UserID{ID: string(r.Rest())}, nil
}

func (u *UserID) Tag() enums.PacketTag { return enums.TagUserID }

func (u *UserID) EncodeBody(dst []byte) ([]byte, error) {
	return append(dst, u.ID...), nil
}

// SerializeForHash appends the 0xB4-framed user id used when hashing
// certifications.
func (u *UserID) SerializeForHash(dst []byte) []byte {
	dst = append(dst, 0xB4)
	dst = encoding.PutUint32(dst, uint32(len(u.ID)))
	return append(dst, u.ID...)
}

// UserAttribute is a user-attribute packet. The subpacket contents
// (typically a JPEG image) are carried opaquely.
type UserAttribute struct {
	Data []byte
}

func parseUserAttribute(r *encoding.Reader) (*UserAttribute, error) {
	return &UserAttribute{Data: append([]byte(nil), r.Rest()...)}, nil
}

func (u *UserAttribute) Tag() enums.PacketTag { return enums.TagUserAttribute }

func (u *UserAttribute) EncodeBody(dst []byte) ([]byte, error) {
	return append(dst, u.Data...), nil
}

// SerializeForHash appends the 0xD1-framed attribute blob used when
// hashing certifications.
func (u *UserAttribute) SerializeForHash(dst []byte) []byte {
	dst = append(dst, 0xD1)
	dst = encoding.PutUint32(dst, uint32(len(u.Data)))
	return append(dst, u.Data...)
}
