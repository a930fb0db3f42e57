package encoding

import (
	"bytes"
	"math/big"
	"testing"
)

func TestMPIRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value []byte
		// wire is the expected encoding, nil to skip the byte-exact check.
		wire []byte
	}{
		{"zero", []byte{}, []byte{0, 0}},
		{"one", []byte{1}, []byte{0, 1, 1}},
		{"byte", []byte{0xFF}, []byte{0, 8, 0xFF}},
		{"leading zeros stripped", []byte{0, 0, 1}, []byte{0, 1, 1}},
		{"rfc 4880 example 511", []byte{1, 0xFF}, []byte{0, 9, 1, 0xFF}},
		{"multi byte", []byte{0x80, 0x00, 0x01}, []byte{0, 24, 0x80, 0x00, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire := WriteMPI(nil, tt.value)
			if tt.wire != nil && !bytes.Equal(wire, tt.wire) {
				t.Fatalf("WriteMPI() = %x, want %x", wire, tt.wire)
			}
			got, err := ReadMPI(NewReader(wire))
			if err != nil {
				t.Fatalf("ReadMPI() error = %v", err)
			}
			want := tt.value
			for len(want) > 0 && want[0] == 0 {
				want = want[1:]
			}
			if !bytes.Equal(got, want) {
				t.Errorf("round trip = %x, want %x", got, want)
			}
		})
	}
}

func TestMPIBigRoundTrip(t *testing.T) {
	n, _ := new(big.Int).SetString("DEADBEEFCAFE0123456789", 16)
	wire := WriteMPIBig(nil, n)
	got, err := ReadMPIBig(NewReader(wire))
	if err != nil {
		t.Fatalf("ReadMPIBig() error = %v", err)
	}
	if got.Cmp(n) != 0 {
		t.Errorf("round trip = %v, want %v", got, n)
	}
}

func TestMPITruncated(t *testing.T) {
	if _, err := ReadMPI(NewReader([]byte{0, 32, 0xAB})); err == nil {
		t.Error("ReadMPI() with short body: want error")
	}
}

func TestPadLeft(t *testing.T) {
	got := PadLeft([]byte{1, 2}, 4)
	if !bytes.Equal(got, []byte{0, 0, 1, 2}) {
		t.Errorf("PadLeft() = %x", got)
	}
	full := []byte{1, 2, 3, 4}
	if !bytes.Equal(PadLeft(full, 4), full) {
		t.Error("PadLeft() must not grow a full-width value")
	}
}

func TestChecksum(t *testing.T) {
	if got := Checksum([]byte{0xFF, 0xFF, 2}); got != 0x0200 {
		t.Errorf("Checksum() = %04x, want 0200", got)
	}
	if got := Checksum(nil); got != 0 {
		t.Errorf("Checksum(nil) = %04x, want 0", got)
	}
}

func TestReaderPrimitives(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E})
	if v, _ := r.ReadUint16(); v != 0x0102 {
		t.Errorf("ReadUint16() = %04x", v)
	}
	if v, _ := r.ReadUint32(); v != 0x03040506 {
		t.Errorf("ReadUint32() = %08x", v)
	}
	if v, _ := r.ReadUint64(); v != 0x0708090A0B0C0D0E {
		t.Errorf("ReadUint64() = %016x", v)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after draining", r.Len())
	}
	if _, err := r.ReadByte(); err == nil {
		t.Error("ReadByte() past end: want error")
	}
}
