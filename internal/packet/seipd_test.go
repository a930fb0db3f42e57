package packet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nguyennv/gopg/internal/enums"
)

func TestSEIPDv1RoundTrip(t *testing.T) {
	sessionKey, err := GenerateSessionKey(testProvider, enums.SymAES128)
	if err != nil {
		t.Fatalf("GenerateSessionKey() error = %v", err)
	}
	plaintext := []byte("nested packet stream stand-in")

	se, err := EncryptSEIPDv1(testProvider, sessionKey, plaintext)
	if err != nil {
		t.Fatalf("EncryptSEIPDv1() error = %v", err)
	}
	body, _ := se.EncodeBody(nil)
	parsed, err := parseSEIPD(newBodyReader(body))
	if err != nil {
		t.Fatalf("parseSEIPD() error = %v", err)
	}
	got, err := parsed.Decrypt(testProvider, sessionKey)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("round trip = %q", got)
	}
}

func TestSEIPDv1TamperDetected(t *testing.T) {
	sessionKey, _ := GenerateSessionKey(testProvider, enums.SymAES128)
	se, err := EncryptSEIPDv1(testProvider, sessionKey, []byte("guard me"))
	if err != nil {
		t.Fatalf("EncryptSEIPDv1() error = %v", err)
	}
	se.Encrypted[len(se.Encrypted)-5] ^= 1
	if _, err := se.Decrypt(testProvider, sessionKey); err == nil {
		t.Error("Decrypt() on tampered MDC: want error")
	}
}

func TestSEIPDv1WrongKey(t *testing.T) {
	sessionKey, _ := GenerateSessionKey(testProvider, enums.SymAES128)
	other, _ := GenerateSessionKey(testProvider, enums.SymAES128)
	se, err := EncryptSEIPDv1(testProvider, sessionKey, []byte("prefix gate"))
	if err != nil {
		t.Fatalf("EncryptSEIPDv1() error = %v", err)
	}
	if _, err := se.Decrypt(testProvider, other); err == nil {
		t.Error("Decrypt() with wrong session key: want error")
	}
}

func TestSEIPDv2RoundTrip(t *testing.T) {
	for _, mode := range []enums.AEADMode{enums.AEADModeEAX, enums.AEADModeOCB, enums.AEADModeGCM} {
		t.Run(mode.String(), func(t *testing.T) {
			sessionKey, err := GenerateSessionKey(testProvider, enums.SymAES256)
			if err != nil {
				t.Fatalf("GenerateSessionKey() error = %v", err)
			}
			// Larger than one chunk so the chunk loop is exercised.
			plaintext := bytes.Repeat([]byte("0123456789abcdef"), 600)

			se, err := EncryptSEIPDv2(testProvider, sessionKey, mode, plaintext)
			if err != nil {
				t.Fatalf("EncryptSEIPDv2() error = %v", err)
			}
			if se.Version != 2 || se.AEAD != mode || len(se.Salt) != 32 {
				t.Fatalf("header = %+v", se)
			}
			body, _ := se.EncodeBody(nil)
			parsed, err := parseSEIPD(newBodyReader(body))
			if err != nil {
				t.Fatalf("parseSEIPD() error = %v", err)
			}
			got, err := parsed.Decrypt(testProvider, sessionKey)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Error("v2 round trip mismatch")
			}
		})
	}
}

func TestSEIPDv2EmptyPlaintext(t *testing.T) {
	sessionKey, _ := GenerateSessionKey(testProvider, enums.SymAES256)
	se, err := EncryptSEIPDv2(testProvider, sessionKey, enums.AEADModeOCB, nil)
	if err != nil {
		t.Fatalf("EncryptSEIPDv2() error = %v", err)
	}
	got, err := se.Decrypt(testProvider, sessionKey)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("round trip = %x, want empty", got)
	}
}

func TestSEIPDv2ChunkTamperDetected(t *testing.T) {
	sessionKey, _ := GenerateSessionKey(testProvider, enums.SymAES256)
	plaintext := bytes.Repeat([]byte{0x77}, 9000)
	se, err := EncryptSEIPDv2(testProvider, sessionKey, enums.AEADModeOCB, plaintext)
	if err != nil {
		t.Fatalf("EncryptSEIPDv2() error = %v", err)
	}
	se.Encrypted[10] ^= 1
	if _, err := se.Decrypt(testProvider, sessionKey); !errors.Is(err, ErrSessionKeyDecryption) {
		t.Errorf("Decrypt() on tampered chunk = %v, want ErrSessionKeyDecryption", err)
	}
}

func TestSEIPDv2TruncationDetected(t *testing.T) {
	sessionKey, _ := GenerateSessionKey(testProvider, enums.SymAES256)
	plaintext := bytes.Repeat([]byte{0x33}, 9000)
	se, err := EncryptSEIPDv2(testProvider, sessionKey, enums.AEADModeOCB, plaintext)
	if err != nil {
		t.Fatalf("EncryptSEIPDv2() error = %v", err)
	}
	// Cut one sealed chunk's length (4096+16 octets) of ciphertext ahead
	// of the final tag; the final tag binds the total length.
	chunk := (1 << (6 + 6)) + 16
	se.Encrypted = append(se.Encrypted[:len(se.Encrypted)-chunk-16], se.Encrypted[len(se.Encrypted)-16:]...)
	if _, err := se.Decrypt(testProvider, sessionKey); !errors.Is(err, ErrSessionKeyDecryption) {
		t.Errorf("Decrypt() on truncated stream = %v, want ErrSessionKeyDecryption", err)
	}
}

func TestLegacySEDDecrypt(t *testing.T) {
	// Build a legacy packet by hand with the resync quirk, then decrypt.
	sessionKey, _ := GenerateSessionKey(testProvider, enums.SymAES128)
	blockSize := 16
	prefix := make([]byte, blockSize+2)
	if err := testProvider.Random(prefix[:blockSize]); err != nil {
		t.Fatal(err)
	}
	prefix[blockSize] = prefix[blockSize-2]
	prefix[blockSize+1] = prefix[blockSize-1]
	payload := []byte("legacy payload")

	iv := make([]byte, blockSize)
	enc, err := testProvider.NewCFBEncrypter(sessionKey.Algorithm, sessionKey.Key, iv)
	if err != nil {
		t.Fatal(err)
	}
	ctPrefix := make([]byte, len(prefix))
	enc.XORKeyStream(ctPrefix, prefix)

	resync, err := testProvider.NewCFBEncrypter(sessionKey.Algorithm, sessionKey.Key, ctPrefix[2:])
	if err != nil {
		t.Fatal(err)
	}
	ctPayload := make([]byte, len(payload))
	resync.XORKeyStream(ctPayload, payload)

	se := &SymmetricallyEncrypted{Encrypted: append(ctPrefix, ctPayload...)}
	got, err := se.Decrypt(testProvider, sessionKey)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("legacy decrypt = %q", got)
	}
}
