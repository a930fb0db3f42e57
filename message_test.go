package gopg

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSignedMessageRoundTrip(t *testing.T) {
	pgp := testPGP()
	key, err := pgp.GenerateKey([]string{"S <s@x>"}, KeyAlgorithmEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	signed, err := pgp.Sign(NewMessage([]byte("attached signature payload")), []*Key{key})
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	armored, err := signed.Armor()
	if err != nil {
		t.Fatalf("Armor() error = %v", err)
	}
	if !strings.Contains(armored, "BEGIN PGP MESSAGE") {
		t.Fatalf("armor type wrong:\n%s", armored)
	}

	parsed, err := pgp.ParseMessage(armored)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Signatures() != 1 {
		t.Fatalf("signatures = %d, want 1", parsed.Signatures())
	}
	if len(parsed.onePass) != 1 || parsed.onePass[0].Nested != 1 {
		t.Error("one-pass announcement missing or unterminated")
	}
	if !bytes.Equal(parsed.Data(), []byte("attached signature payload")) {
		t.Error("payload changed across round trip")
	}
	if err := pgp.Verify(parsed, []*Key{key}); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestMultiSignerOnePassOrdering(t *testing.T) {
	pgp := testPGP()
	a, err := pgp.GenerateKey([]string{"A <a@x>"}, KeyAlgorithmEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	b, err := pgp.GenerateKey([]string{"B <b@x>"}, KeyAlgorithmEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	signed, err := pgp.Sign(NewMessage([]byte("two signers")), []*Key{a, b})
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if len(signed.onePass) != 2 {
		t.Fatalf("one-pass packets = %d, want 2", len(signed.onePass))
	}
	if signed.onePass[0].Nested != 0 || signed.onePass[1].Nested != 1 {
		t.Error("nesting flags wrong: only the last announcement may terminate")
	}
	if err := pgp.Verify(signed, []*Key{a, b}); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestDetachedSignature(t *testing.T) {
	pgp := testPGP()
	key, err := pgp.GenerateKey([]string{"D <d@x>"}, KeyAlgorithmEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	data := []byte("detached payload")

	armored, err := pgp.SignDetached(NewMessage(data), []*Key{key})
	if err != nil {
		t.Fatalf("SignDetached() error = %v", err)
	}
	if !strings.Contains(armored, "BEGIN PGP SIGNATURE") {
		t.Fatalf("armor type wrong:\n%s", armored)
	}
	if err := pgp.VerifyDetached(data, armored, []*Key{key}); err != nil {
		t.Fatalf("VerifyDetached() error = %v", err)
	}
	if err := pgp.VerifyDetached([]byte("detached Payload"), armored, []*Key{key}); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("VerifyDetached() on altered data = %v, want ErrSignatureInvalid", err)
	}
}

func TestTextMessageNormalization(t *testing.T) {
	pgp := testPGP()
	key, err := pgp.GenerateKey([]string{"T <t@x>"}, KeyAlgorithmEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	// The same logical text with different line endings verifies under
	// one signature because text signatures hash canonical CRLF form.
	signed, err := pgp.Sign(NewTextMessage("line one\nline two\n"), []*Key{key})
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	crlf := &LiteralMessage{
		literal:    NewTextMessage("line one\r\nline two\r\n").literal,
		signatures: signed.signatures,
	}
	if err := pgp.Verify(crlf, []*Key{key}); err != nil {
		t.Errorf("Verify() across line-ending change error = %v", err)
	}
}

func TestParseMessageRejectsGarbage(t *testing.T) {
	pgp := testPGP()
	if _, err := pgp.ParseMessage("no armor here"); !errors.Is(err, ErrNoArmoredData) {
		t.Errorf("ParseMessage() = %v, want ErrNoArmoredData", err)
	}
	key, err := pgp.GenerateKey([]string{"K <k@x>"}, KeyAlgorithmEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	armoredKey, _ := key.ArmorPublic()
	if _, err := pgp.ParseMessage(armoredKey); !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("ParseMessage() on key block = %v, want ErrMalformedMessage", err)
	}
}

func TestEncryptedMessageRequiresSEIPD(t *testing.T) {
	pgp := testPGP()
	key, err := pgp.GenerateKey([]string{"K <k@x>"}, KeyAlgorithmECDSAP256, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	enc, err := pgp.Encrypt(NewMessage([]byte("body")), []*Key{key}, nil)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	wire, _ := enc.Serialize()

	// Strip the trailing SEIPD packet; only the PKESK remains.
	pkeskOnly, err := pgp.ParseEncryptedMessageBytes(wire)
	if err != nil {
		t.Fatalf("ParseEncryptedMessageBytes() error = %v", err)
	}
	stripped := pkeskOnly.Packets().FilterByTag(1)
	wireStripped, err := stripped.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if _, err := pgp.ParseEncryptedMessageBytes(wireStripped); !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("ParseEncryptedMessageBytes() without SEIPD = %v, want ErrMalformedMessage", err)
	}
}

func TestVerifyRequiresSignature(t *testing.T) {
	pgp := testPGP()
	key, err := pgp.GenerateKey([]string{"K <k@x>"}, KeyAlgorithmEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if err := pgp.Verify(NewMessage([]byte("unsigned")), []*Key{key}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Verify() on unsigned message = %v, want ErrInvalidArgument", err)
	}
}
