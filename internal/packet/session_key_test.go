package packet

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/material"
)

func TestGenerateSessionKey(t *testing.T) {
	sk, err := GenerateSessionKey(testProvider, enums.SymAES128)
	if err != nil {
		t.Fatalf("GenerateSessionKey() error = %v", err)
	}
	if len(sk.Key) != 16 || sk.Algorithm != enums.SymAES128 {
		t.Errorf("session key = %d bytes, algo %d", len(sk.Key), sk.Algorithm)
	}
	other, _ := GenerateSessionKey(testProvider, enums.SymAES128)
	if bytes.Equal(sk.Key, other.Key) {
		t.Error("two generated session keys are identical")
	}
	sk.Wipe()
	if !bytes.Equal(sk.Key, make([]byte, 16)) {
		t.Error("Wipe() left key material")
	}
}

func TestSKESKv4RoundTrip(t *testing.T) {
	sessionKey, err := GenerateSessionKey(testProvider, enums.SymAES256)
	if err != nil {
		t.Fatalf("GenerateSessionKey() error = %v", err)
	}
	ske, err := NewSymmetricKeyEncrypted(testProvider, []byte("secret"), sessionKey, 0, false)
	if err != nil {
		t.Fatalf("NewSymmetricKeyEncrypted() error = %v", err)
	}
	if ske.Version != 4 {
		t.Fatalf("version = %d, want 4", ske.Version)
	}

	body, _ := ske.EncodeBody(nil)
	parsed, err := parseSymmetricKeyEncrypted(newBodyReader(body))
	if err != nil {
		t.Fatalf("parseSymmetricKeyEncrypted() error = %v", err)
	}
	got, err := parsed.Decrypt(testProvider, []byte("secret"))
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if got.Algorithm != sessionKey.Algorithm || !bytes.Equal(got.Key, sessionKey.Key) {
		t.Error("SKESK round trip did not recover the session key")
	}

	if _, err := parsed.Decrypt(testProvider, []byte("wrong")); !errors.Is(err, ErrSessionKeyDecryption) {
		t.Errorf("Decrypt() with wrong passphrase = %v, want ErrSessionKeyDecryption", err)
	}
}

func TestSKESKv6AEADRoundTrip(t *testing.T) {
	sessionKey, err := GenerateSessionKey(testProvider, enums.SymAES256)
	if err != nil {
		t.Fatalf("GenerateSessionKey() error = %v", err)
	}
	ske, err := NewSymmetricKeyEncrypted(testProvider, []byte("secret"), sessionKey, enums.AEADModeOCB, true)
	if err != nil {
		t.Fatalf("NewSymmetricKeyEncrypted() error = %v", err)
	}
	if ske.Version != 6 || ske.S2K.Type != enums.S2KArgon2 {
		t.Fatalf("version = %d, s2k = %d", ske.Version, ske.S2K.Type)
	}

	body, _ := ske.EncodeBody(nil)
	parsed, err := parseSymmetricKeyEncrypted(newBodyReader(body))
	if err != nil {
		t.Fatalf("parseSymmetricKeyEncrypted() error = %v", err)
	}
	got, err := parsed.Decrypt(testProvider, []byte("secret"))
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(got.Key, sessionKey.Key) {
		t.Error("v6 SKESK round trip did not recover the session key")
	}
	if _, err := parsed.Decrypt(testProvider, []byte("wrong")); !errors.Is(err, ErrSessionKeyDecryption) {
		t.Errorf("Decrypt() with wrong passphrase = %v, want ErrSessionKeyDecryption", err)
	}
}

func newTestEncryptionKey(t *testing.T, algo enums.PublicKeyAlgorithm) *SecretKey {
	t.Helper()
	var sec material.Secret
	switch algo {
	case enums.PubKeyX25519:
		mat, err := material.GenerateX25519(testProvider)
		if err != nil {
			t.Fatalf("GenerateX25519() error = %v", err)
		}
		sec = mat
	case enums.PubKeyECDH:
		mat, err := material.GenerateECDH(testProvider, material.CurveP256)
		if err != nil {
			t.Fatalf("GenerateECDH() error = %v", err)
		}
		sec = mat
	case enums.PubKeyRSA:
		mat, err := material.GenerateRSA(testProvider, 2048)
		if err != nil {
			t.Fatalf("GenerateRSA() error = %v", err)
		}
		sec = mat
	default:
		t.Fatalf("unsupported test algorithm %d", algo)
	}
	version := enums.KeyVersion4
	if algo == enums.PubKeyX25519 {
		version = enums.KeyVersion6
	}
	return NewSecretKey(PublicKey{
		Version:      version,
		CreationTime: testTime.Add(-time.Hour),
		Algorithm:    algo,
		Material:     material.PublicOf(sec),
		IsSubkey:     true,
	}, sec)
}

func TestPKESKRoundTrip(t *testing.T) {
	for _, algo := range []enums.PublicKeyAlgorithm{enums.PubKeyRSA, enums.PubKeyECDH, enums.PubKeyX25519} {
		t.Run(algo.String(), func(t *testing.T) {
			key := newTestEncryptionKey(t, algo)
			sessionKey, err := GenerateSessionKey(testProvider, enums.SymAES128)
			if err != nil {
				t.Fatalf("GenerateSessionKey() error = %v", err)
			}

			ek, err := NewEncryptedKey(testProvider, &key.PublicKey, sessionKey, false)
			if err != nil {
				t.Fatalf("NewEncryptedKey() error = %v", err)
			}
			if ek.KeyID != key.KeyID() {
				t.Errorf("recipient key id = %016x, want %016x", ek.KeyID, key.KeyID())
			}

			body, _ := ek.EncodeBody(nil)
			parsed, err := parseEncryptedKey(newBodyReader(body))
			if err != nil {
				t.Fatalf("parseEncryptedKey() error = %v", err)
			}
			got, err := parsed.Decrypt(testProvider, key)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if got.Algorithm != enums.SymAES128 || !bytes.Equal(got.Key, sessionKey.Key) {
				t.Error("PKESK round trip did not recover the session key")
			}
		})
	}
}

func TestPKESKv6RoundTrip(t *testing.T) {
	key := newTestEncryptionKey(t, enums.PubKeyX25519)
	sessionKey, err := GenerateSessionKey(testProvider, enums.SymAES256)
	if err != nil {
		t.Fatalf("GenerateSessionKey() error = %v", err)
	}
	ek, err := NewEncryptedKey(testProvider, &key.PublicKey, sessionKey, true)
	if err != nil {
		t.Fatalf("NewEncryptedKey() error = %v", err)
	}
	if ek.Version != 6 || !bytes.Equal(ek.Fingerprint, key.Fingerprint()) {
		t.Fatalf("version = %d, fingerprint match = %v", ek.Version, bytes.Equal(ek.Fingerprint, key.Fingerprint()))
	}
	body, _ := ek.EncodeBody(nil)
	parsed, err := parseEncryptedKey(newBodyReader(body))
	if err != nil {
		t.Fatalf("parseEncryptedKey() error = %v", err)
	}
	got, err := parsed.Decrypt(testProvider, key)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	// v6 packets carry no cipher octet; the SEIPD supplies it later.
	if got.Algorithm != 0 || !bytes.Equal(got.Key, sessionKey.Key) {
		t.Error("v6 PKESK round trip did not recover the session key")
	}
}

func TestPKESKRejectsWrongKeyBeforeCrypto(t *testing.T) {
	key := newTestEncryptionKey(t, enums.PubKeyX25519)
	decoy := newTestEncryptionKey(t, enums.PubKeyX25519)
	sessionKey, _ := GenerateSessionKey(testProvider, enums.SymAES128)
	ek, err := NewEncryptedKey(testProvider, &key.PublicKey, sessionKey, false)
	if err != nil {
		t.Fatalf("NewEncryptedKey() error = %v", err)
	}
	if ek.Matches(&decoy.PublicKey) {
		t.Fatal("Matches() accepted a non-recipient key")
	}
	if _, err := ek.Decrypt(testProvider, decoy); !errors.Is(err, ErrSessionKeyDecryption) {
		t.Errorf("Decrypt() with wrong key = %v, want ErrSessionKeyDecryption", err)
	}
}
