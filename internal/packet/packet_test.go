package packet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nguyennv/gopg/internal/enums"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		list List
	}{
		{"literal", List{&LiteralData{Format: enums.LiteralFormatBinary, Data: []byte("payload")}}},
		{"user id", List{&UserID{ID: "Alice <alice@example.com>"}}},
		{"marker", List{&Marker{}}},
		{"two-octet length", List{&LiteralData{Format: enums.LiteralFormatBinary, Data: bytes.Repeat([]byte{1}, 500)}}},
		{"four-octet length", List{&LiteralData{Format: enums.LiteralFormatBinary, Data: bytes.Repeat([]byte{2}, 10000)}}},
		{"mixed", List{
			&UserID{ID: "u"},
			&LiteralData{Format: enums.LiteralFormatUTF8, Data: []byte("text")},
			&Trust{Data: []byte{1, 2}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := tt.list.Encode()
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			decoded, err := Decode(wire)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if len(decoded) != len(tt.list) {
				t.Fatalf("decoded %d packets, want %d", len(decoded), len(tt.list))
			}
			rewire, err := decoded.Encode()
			if err != nil {
				t.Fatalf("re-Encode() error = %v", err)
			}
			if !bytes.Equal(rewire, wire) {
				t.Errorf("re-encoded stream differs:\n got %x\nwant %x", rewire, wire)
			}
		})
	}
}

func TestDecodeOldFormatHeader(t *testing.T) {
	body := []byte{'b', 0, 0, 0, 0, 0, 'h', 'i'}
	// Old format, tag 11, one-octet length.
	wire := append([]byte{0x80 | byte(enums.TagLiteralData)<<2 | 0, byte(len(body))}, body...)
	list, err := Decode(wire)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	lit, ok := list[0].(*LiteralData)
	if !ok {
		t.Fatalf("decoded %T, want *LiteralData", list[0])
	}
	if string(lit.Data) != "hi" {
		t.Errorf("data = %q", lit.Data)
	}
}

func TestDecodeOldFormatIndeterminate(t *testing.T) {
	body := []byte{'b', 0, 0, 0, 0, 0, 'x'}
	wire := append([]byte{0x80 | byte(enums.TagLiteralData)<<2 | 3}, body...)
	list, err := Decode(wire)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if lit := list[0].(*LiteralData); string(lit.Data) != "x" {
		t.Errorf("data = %q", lit.Data)
	}
}

func TestDecodePartialLengths(t *testing.T) {
	// New-format literal packet split into a 512-byte partial chunk plus
	// a 4-byte terminator chunk.
	inner := append([]byte{'b', 0, 0, 0, 0, 0}, bytes.Repeat([]byte{0xEE}, 510)...)
	var wire []byte
	wire = append(wire, 0x80|0x40|byte(enums.TagLiteralData))
	wire = append(wire, 224+9) // partial chunk of 1<<9 = 512
	wire = append(wire, inner[:512]...)
	wire = append(wire, byte(len(inner)-512))
	wire = append(wire, inner[512:]...)

	list, err := Decode(wire)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	lit, ok := list[0].(*LiteralData)
	if !ok {
		t.Fatalf("decoded %T, want *LiteralData", list[0])
	}
	if len(lit.Data) != 510 {
		t.Errorf("reassembled data length = %d, want 510", len(lit.Data))
	}
}

func TestDecodePartialWithoutTerminator(t *testing.T) {
	var wire []byte
	wire = append(wire, 0x80|0x40|byte(enums.TagLiteralData))
	wire = append(wire, 224+9)
	wire = append(wire, bytes.Repeat([]byte{0}, 512)...)
	// Stream ends where the next length octet should be.
	if _, err := Decode(wire); !errors.Is(err, ErrTruncatedStream) {
		t.Errorf("Decode() error = %v, want ErrTruncatedStream", err)
	}
}

func TestDecodeTruncatedBody(t *testing.T) {
	wire := []byte{0x80 | 0x40 | byte(enums.TagUserID), 10, 'a', 'b'}
	if _, err := Decode(wire); !errors.Is(err, ErrTruncatedStream) {
		t.Errorf("Decode() error = %v, want ErrTruncatedStream", err)
	}
}

func TestDecodeBadTagOctet(t *testing.T) {
	if _, err := Decode([]byte{0x01, 0x00}); !errors.Is(err, ErrMalformed) {
		t.Errorf("Decode() error = %v, want ErrMalformed", err)
	}
}

func TestUnknownTagRoundTripsAsOpaque(t *testing.T) {
	wire := []byte{0x80 | 0x40 | 39, 3, 0xDE, 0xAD, 0xBF}
	list, err := Decode(wire)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	op, ok := list[0].(*Opaque)
	if !ok {
		t.Fatalf("decoded %T, want *Opaque", list[0])
	}
	if op.Tag() != 39 {
		t.Errorf("tag = %d, want 39", op.Tag())
	}
	rewire, err := list.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(rewire, wire) {
		t.Errorf("opaque round trip = %x, want %x", rewire, wire)
	}
}

func TestFilterByTag(t *testing.T) {
	list := List{
		&UserID{ID: "a"},
		&LiteralData{Format: enums.LiteralFormatBinary},
		&UserID{ID: "b"},
	}
	uids := list.FilterByTag(enums.TagUserID)
	if len(uids) != 2 {
		t.Fatalf("filtered %d packets, want 2", len(uids))
	}
	if uids[0].(*UserID).ID != "a" || uids[1].(*UserID).ID != "b" {
		t.Error("FilterByTag() did not preserve order")
	}
}

func TestAppendLengthBoundaries(t *testing.T) {
	tests := []struct {
		n    int
		size int
	}{
		{0, 1}, {191, 1}, {192, 2}, {8383, 2}, {8384, 5}, {100000, 5},
	}
	for _, tt := range tests {
		if got := len(appendLength(nil, tt.n)); got != tt.size {
			t.Errorf("appendLength(%d) used %d octets, want %d", tt.n, got, tt.size)
		}
	}
}
