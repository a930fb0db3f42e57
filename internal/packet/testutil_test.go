package packet

import "github.com/nguyennv/gopg/internal/encoding"

func newBodyReader(body []byte) *encoding.Reader {
	return encoding.NewReader(body)
}
