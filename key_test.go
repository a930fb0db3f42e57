package gopg

import (
	"errors"
	"testing"
	"time"
)

func TestAddUserAndRevokeUser(t *testing.T) {
	pgp := testPGP()
	key, err := pgp.GenerateKey([]string{"First <1@x>"}, KeyAlgorithmEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	withSecond, err := pgp.AddUser(key, "Second <2@x>")
	if err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	if len(key.UserIDs()) != 1 {
		t.Error("AddUser() mutated the input key")
	}
	if got := withSecond.UserIDs(); len(got) != 2 || got[1] != "Second <2@x>" {
		t.Fatalf("UserIDs() = %v", got)
	}

	revoked, err := pgp.RevokeUser(withSecond, "Second <2@x>", RevocationUserIDInvalid, "left the org")
	if err != nil {
		t.Fatalf("RevokeUser() error = %v", err)
	}
	// The first user id still validates the key.
	if err := pgp.VerifyKey(revoked, fixedNow.Add(time.Hour)); err != nil {
		t.Errorf("VerifyKey() error = %v", err)
	}

	var second *User
	for _, u := range revoked.Users() {
		if u.ID() == "Second <2@x>" {
			second = u
		}
	}
	if second == nil || len(second.revocations) != 1 {
		t.Fatal("revocation certification missing")
	}
	code, text, ok := second.revocations[0].RevocationReason()
	if !ok || code != RevocationUserIDInvalid || text != "left the org" {
		t.Errorf("revocation reason = %v %q %v", code, text, ok)
	}
}

func TestRevokeKey(t *testing.T) {
	pgp := testPGP()
	key, err := pgp.GenerateKey([]string{"K <k@x>"}, KeyAlgorithmEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if pgp.IsRevoked(key, fixedNow.Add(time.Minute)) {
		t.Fatal("fresh key reports revoked")
	}

	revoked, err := pgp.RevokeKey(key, RevocationKeyCompromised, "oops")
	if err != nil {
		t.Fatalf("RevokeKey() error = %v", err)
	}
	if !pgp.IsRevoked(revoked, fixedNow.Add(time.Minute)) {
		t.Error("revoked key reports valid")
	}
	if err := pgp.VerifyKey(revoked, fixedNow.Add(time.Minute)); !errors.Is(err, ErrKeyInvalid) {
		t.Errorf("VerifyKey() = %v, want ErrKeyInvalid", err)
	}

	// The revocation survives an armor round trip.
	armored, err := revoked.Armor()
	if err != nil {
		t.Fatalf("Armor() error = %v", err)
	}
	parsed, err := pgp.ParseKey(armored)
	if err != nil {
		t.Fatalf("ParseKey() error = %v", err)
	}
	if !pgp.IsRevoked(parsed, fixedNow.Add(time.Minute)) {
		t.Error("revocation lost across armor round trip")
	}
}

func TestRevokeSubkey(t *testing.T) {
	pgp := testPGP()
	key, err := pgp.GenerateKey([]string{"K <k@x>"}, KeyAlgorithmEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	subID := key.Subkeys()[0].KeyID()

	revoked, err := pgp.RevokeSubkey(key, subID, RevocationKeyRetired, "")
	if err != nil {
		t.Fatalf("RevokeSubkey() error = %v", err)
	}
	if got := revoked.decryptionKeyPackets(pgp.cfg.provider, 0, fixedNow.Add(time.Minute)); len(got) != 0 {
		t.Errorf("revoked subkey still selected for decryption: %d packets", len(got))
	}
	if _, err := pgp.Encrypt(NewMessage([]byte("x")), []*Key{revoked}, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Encrypt() to fully revoked-subkey key = %v, want ErrInvalidArgument", err)
	}
}

func TestAddSigningSubkey(t *testing.T) {
	pgp := testPGP()
	key, err := pgp.GenerateKey([]string{"K <k@x>"}, KeyAlgorithmEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	withSigner, err := pgp.AddSubkey(key, KeyAlgorithmEd25519, true)
	if err != nil {
		t.Fatalf("AddSubkey() error = %v", err)
	}
	if len(withSigner.Subkeys()) != 2 {
		t.Fatalf("subkeys = %d, want 2", len(withSigner.Subkeys()))
	}

	// The signing subkey wins selection over the primary.
	signer, err := withSigner.signingKeyPacket(pgp.cfg.provider, fixedNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("signingKeyPacket() error = %v", err)
	}
	if signer.KeyID() != withSigner.Subkeys()[1].KeyID() {
		t.Error("signing subkey not selected")
	}

	// Messages signed by the subkey verify through the parent key.
	msg, err := pgp.Sign(NewMessage([]byte("subkey signed")), []*Key{withSigner})
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if err := pgp.Verify(msg, []*Key{withSigner}); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestKeyExpiration(t *testing.T) {
	pgp := testPGP()
	key, err := pgp.GenerateKey([]string{"K <k@x>"}, KeyAlgorithmEd25519, 48*time.Hour)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	exp := pgp.ExpirationTime(key)
	if want := fixedNow.Add(48 * time.Hour); !exp.Equal(want) {
		t.Fatalf("ExpirationTime() = %v, want %v", exp, want)
	}
	if err := pgp.VerifyKey(key, fixedNow.Add(time.Hour)); err != nil {
		t.Errorf("VerifyKey() before expiry error = %v", err)
	}
	if err := pgp.VerifyKey(key, fixedNow.Add(72*time.Hour)); !errors.Is(err, ErrKeyInvalid) {
		t.Errorf("VerifyKey() after expiry = %v, want ErrKeyInvalid", err)
	}
}

func TestVerifyKeyBeforeCreation(t *testing.T) {
	pgp := testPGP()
	key, err := pgp.GenerateKey([]string{"K <k@x>"}, KeyAlgorithmEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if err := pgp.VerifyKey(key, fixedNow.Add(-time.Hour)); !errors.Is(err, ErrKeyInvalid) {
		t.Errorf("VerifyKey() before creation = %v, want ErrKeyInvalid", err)
	}
}

func TestCertifyUser(t *testing.T) {
	pgp := testPGP()
	alice, err := pgp.GenerateKey([]string{"Alice <a@x>"}, KeyAlgorithmEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	bob, err := pgp.GenerateKey([]string{"Bob <b@x>"}, KeyAlgorithmEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	certified, err := pgp.CertifyUser(alice, bob, "Bob <b@x>")
	if err != nil {
		t.Fatalf("CertifyUser() error = %v", err)
	}
	user := certified.Users()[0]
	if len(user.otherCertifications) != 1 {
		t.Fatal("third-party certification missing")
	}
	cert := user.otherCertifications[0]
	if cert.IssuerKeyID() != alice.KeyID() {
		t.Errorf("issuer = %016x, want %016x", cert.IssuerKeyID(), alice.KeyID())
	}
	signed := certified.userSignedBytes(user)
	if err := cert.Verify(pgp.cfg.provider, alice.public, signed, fixedNow.Add(time.Minute)); err != nil {
		t.Errorf("certification Verify() error = %v", err)
	}
}

func TestPublicKeyOnlyParse(t *testing.T) {
	pgp := testPGP()
	key, err := pgp.GenerateKey([]string{"K <k@x>"}, KeyAlgorithmEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	armored, err := key.ArmorPublic()
	if err != nil {
		t.Fatalf("ArmorPublic() error = %v", err)
	}
	pub, err := pgp.ParseKey(armored)
	if err != nil {
		t.Fatalf("ParseKey() error = %v", err)
	}
	if pub.IsPrivate() {
		t.Error("public block parsed as private")
	}
	if err := pgp.VerifyKey(pub, fixedNow.Add(time.Minute)); err != nil {
		t.Errorf("VerifyKey() error = %v", err)
	}
	// Encryption works against the public key; decryption needs the
	// private one.
	enc, err := pgp.Encrypt(NewMessage([]byte("to pub")), []*Key{pub}, nil)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	dec, err := pgp.Decrypt(enc, []*Key{key}, nil)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if string(dec.Data()) != "to pub" {
		t.Errorf("decrypted = %q", dec.Data())
	}
}

func TestGenerateKeyRequiresUserID(t *testing.T) {
	pgp := testPGP()
	if _, err := pgp.GenerateKey(nil, KeyAlgorithmEd25519, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("GenerateKey() = %v, want ErrInvalidArgument", err)
	}
}
