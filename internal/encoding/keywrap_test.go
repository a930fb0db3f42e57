package encoding

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

// Vectors from RFC 3394, section 4.
func TestKeyWrapVectors(t *testing.T) {
	tests := []struct {
		name    string
		kek     string
		plain   string
		wrapped string
	}{
		{
			"128-bit data with 128-bit kek",
			"000102030405060708090A0B0C0D0E0F",
			"00112233445566778899AABBCCDDEEFF",
			"1FA68B0A8112B447AEF34BD8FB5A7B829D3E862371D2CFE5",
		},
		{
			"128-bit data with 256-bit kek",
			"000102030405060708090A0B0C0D0E0F101112131415161718191A1B1C1D1E1F",
			"00112233445566778899AABBCCDDEEFF",
			"64E8C3F9CE0F5BA263E9777905818A2A93C8191E7D6E8AE7",
		},
		{
			"256-bit data with 256-bit kek",
			"000102030405060708090A0B0C0D0E0F101112131415161718191A1B1C1D1E1F",
			"00112233445566778899AABBCCDDEEFF000102030405060708090A0B0C0D0E0F",
			"28C9F404C4B810F4CBCCB35CFB87F8263F5786E2D80ED326CBC7F0E71A99F43BFB988B9B7A02DD21",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kek := mustHex(t, tt.kek)
			plain := mustHex(t, tt.plain)
			want := mustHex(t, tt.wrapped)

			wrapped, err := KeyWrap(kek, plain)
			if err != nil {
				t.Fatalf("KeyWrap() error = %v", err)
			}
			if !bytes.Equal(wrapped, want) {
				t.Fatalf("KeyWrap() = %X, want %X", wrapped, want)
			}
			unwrapped, err := KeyUnwrap(kek, wrapped)
			if err != nil {
				t.Fatalf("KeyUnwrap() error = %v", err)
			}
			if !bytes.Equal(unwrapped, plain) {
				t.Errorf("KeyUnwrap() = %X, want %X", unwrapped, plain)
			}
		})
	}
}

func TestKeyUnwrapDamaged(t *testing.T) {
	kek := mustHex(t, "000102030405060708090A0B0C0D0E0F")
	wrapped, err := KeyWrap(kek, mustHex(t, "00112233445566778899AABBCCDDEEFF"))
	if err != nil {
		t.Fatalf("KeyWrap() error = %v", err)
	}
	wrapped[3] ^= 0x01
	if _, err := KeyUnwrap(kek, wrapped); !errors.Is(err, ErrKeywrapIntegrity) {
		t.Errorf("KeyUnwrap() error = %v, want ErrKeywrapIntegrity", err)
	}
}

func TestKeyWrapBadLength(t *testing.T) {
	kek := mustHex(t, "000102030405060708090A0B0C0D0E0F")
	if _, err := KeyWrap(kek, []byte{1, 2, 3}); !errors.Is(err, ErrKeywrapLength) {
		t.Errorf("KeyWrap() error = %v, want ErrKeywrapLength", err)
	}
	if _, err := KeyUnwrap(kek, []byte{1, 2, 3, 4, 5, 6, 7, 8}); !errors.Is(err, ErrKeywrapLength) {
		t.Errorf("KeyUnwrap() error = %v, want ErrKeywrapLength", err)
	}
}
