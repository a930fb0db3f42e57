package packet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/s2k"
)

func TestSecretKeyWireRoundTripPlaintext(t *testing.T) {
	for _, version := range []enums.KeyVersion{enums.KeyVersion4, enums.KeyVersion6} {
		sk := newTestSigningKey(t, version)
		body, err := sk.EncodeBody(nil)
		if err != nil {
			t.Fatalf("EncodeBody() error = %v", err)
		}
		parsed, err := parseSecretKey(newBodyReader(body), false)
		if err != nil {
			t.Fatalf("parseSecretKey() error = %v", err)
		}
		if parsed.Locked() {
			t.Fatal("plaintext key parsed as locked")
		}
		if err := parsed.Material.Validate(); err != nil {
			t.Errorf("parsed material Validate() error = %v", err)
		}
		reBody, _ := parsed.EncodeBody(nil)
		if !bytes.Equal(reBody, body) {
			t.Errorf("v%d wire round trip mismatch", version)
		}
		if parsed.KeyID() != sk.KeyID() {
			t.Errorf("key id changed across round trip")
		}
	}
}

func TestSecretKeyV4ChecksumDetectsDamage(t *testing.T) {
	sk := newTestSigningKey(t, enums.KeyVersion4)
	body, err := sk.EncodeBody(nil)
	if err != nil {
		t.Fatalf("EncodeBody() error = %v", err)
	}
	body[len(body)-3] ^= 0x10
	if _, err := parseSecretKey(newBodyReader(body), false); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("parseSecretKey() error = %v, want ErrChecksumMismatch", err)
	}
}

func TestLockUnlockCFB(t *testing.T) {
	sk := newTestSigningKey(t, enums.KeyVersion4)
	passphrase := []byte("pw")

	locked, err := sk.Lock(testProvider, passphrase, enums.SymAES256, 0, false)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if !locked.Locked() {
		t.Fatal("Lock() left material in place")
	}
	if locked.S2KUsage != enums.S2KUsageCFB {
		t.Errorf("usage = %d, want CFB", locked.S2KUsage)
	}
	if sk.Locked() {
		t.Error("Lock() mutated the receiver")
	}

	// The locked packet survives the wire.
	body, _ := locked.EncodeBody(nil)
	parsed, err := parseSecretKey(newBodyReader(body), false)
	if err != nil {
		t.Fatalf("parseSecretKey() error = %v", err)
	}

	unlocked, err := parsed.Unlock(testProvider, passphrase)
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if err := unlocked.Material.Validate(); err != nil {
		t.Errorf("unlocked material Validate() error = %v", err)
	}
	if !bytes.Equal(unlocked.Material.Serialize(nil), sk.Material.Serialize(nil)) {
		t.Error("unlocked material differs from the original")
	}
}

func TestUnlockWrongPassphrase(t *testing.T) {
	sk := newTestSigningKey(t, enums.KeyVersion4)
	locked, err := sk.Lock(testProvider, []byte("right"), enums.SymAES256, 0, false)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if _, err := locked.Unlock(testProvider, []byte("wrong")); !errors.Is(err, ErrPassphraseIncorrect) {
		t.Errorf("Unlock() error = %v, want ErrPassphraseIncorrect", err)
	}
	if !locked.Locked() {
		t.Error("failed Unlock() corrupted the locked packet")
	}
}

func TestLockUnlockAEADArgon2(t *testing.T) {
	sk := newTestSigningKey(t, enums.KeyVersion6)
	passphrase := []byte("pw with argon2")

	locked, err := sk.Lock(testProvider, passphrase, enums.SymAES256, enums.AEADModeOCB, true)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if locked.S2KUsage != enums.S2KUsageAEAD || locked.AEAD != enums.AEADModeOCB {
		t.Fatalf("usage = %d aead = %d", locked.S2KUsage, locked.AEAD)
	}
	if locked.S2K.Type != enums.S2KArgon2 {
		t.Errorf("s2k type = %d, want argon2", locked.S2K.Type)
	}

	body, _ := locked.EncodeBody(nil)
	parsed, err := parseSecretKey(newBodyReader(body), false)
	if err != nil {
		t.Fatalf("parseSecretKey() error = %v", err)
	}
	unlocked, err := parsed.Unlock(testProvider, passphrase)
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if !bytes.Equal(unlocked.Material.Serialize(nil), sk.Material.Serialize(nil)) {
		t.Error("AEAD unlock did not recover the original material")
	}

	if _, err := parsed.Unlock(testProvider, []byte("not it")); !errors.Is(err, ErrPassphraseIncorrect) {
		t.Errorf("Unlock() error = %v, want ErrPassphraseIncorrect", err)
	}
}

func TestLockAEADRequiresV6(t *testing.T) {
	sk := newTestSigningKey(t, enums.KeyVersion4)
	if _, err := sk.Lock(testProvider, []byte("pw"), enums.SymAES256, enums.AEADModeOCB, true); !errors.Is(err, ErrInvalidProtection) {
		t.Errorf("Lock() error = %v, want ErrInvalidProtection", err)
	}
}

func TestLockEmptyPassphrase(t *testing.T) {
	sk := newTestSigningKey(t, enums.KeyVersion4)
	if _, err := sk.Lock(testProvider, nil, enums.SymAES256, 0, false); !errors.Is(err, s2k.ErrEmptyPassword) {
		t.Errorf("Lock() error = %v, want ErrEmptyPassword", err)
	}
}

func TestParseRejectsMalleableCFBOnV6(t *testing.T) {
	sk := newTestSigningKey(t, enums.KeyVersion6)
	body := sk.encodePublicBody(nil)
	body = append(body, byte(enums.S2KUsageMalleableCFB))
	body = append(body, 2) // v6 parameter count octet
	body = append(body, byte(enums.SymAES256))
	if _, err := parseSecretKey(newBodyReader(body), false); !errors.Is(err, ErrInvalidProtection) {
		t.Errorf("parseSecretKey() error = %v, want ErrInvalidProtection", err)
	}
}

func TestParseRejectsArgon2WithoutAEAD(t *testing.T) {
	sk := newTestSigningKey(t, enums.KeyVersion4)
	spec := &s2k.Specifier{
		Type: enums.S2KArgon2, Salt: bytes.Repeat([]byte{1}, 16),
		Passes: 3, Parallelism: 4, MemoryExp: 16,
	}
	body := sk.encodePublicBody(nil)
	body = append(body, byte(enums.S2KUsageCFB), byte(enums.SymAES256))
	body = spec.Serialize(body)
	body = append(body, bytes.Repeat([]byte{0}, 16)...) // iv
	body = append(body, bytes.Repeat([]byte{0}, 40)...) // ciphertext
	if _, err := parseSecretKey(newBodyReader(body), false); !errors.Is(err, ErrInvalidProtection) {
		t.Errorf("parseSecretKey() error = %v, want ErrInvalidProtection", err)
	}
}
