package gopg

import (
	"fmt"
	"time"

	"github.com/nguyennv/gopg/internal/armor"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/packet"
)

// CleartextMessage is a cleartext-signed message: readable text plus a
// detached text signature over its canonical form.
type CleartextMessage struct {
	// Text is the message text as carried in the frame, dash-unescaped.
	// It is not normalized; verification hashes its canonical form.
	Text string

	signatures []*packet.Signature
}

// SignCleartext signs text and returns the armored cleartext-signed
// message. The text is hashed in canonical form: CRLF separators,
// trailing spaces and tabs stripped, no final line ending.
func (pgp *PGP) SignCleartext(text string, keys []*Key) (string, error) {
	if len(keys) == 0 {
		return "", fmt.Errorf("%w: no signing keys", ErrInvalidArgument)
	}
	p := pgp.cfg.provider
	now := pgp.cfg.now().Truncate(time.Second).UTC()
	normalized := armor.NormalizeCleartext(text)

	var list packet.List
	var hashNames []string
	for _, key := range keys {
		signer, err := key.signingKeyPacket(p, now)
		if err != nil {
			return "", err
		}
		sig, err := packet.Sign(p, signer, []byte(normalized), packet.SignParams{
			Type: enums.SigTypeText,
			Hash: pgp.cfg.preferredHash,
			Time: now,
		})
		if err != nil {
			return "", err
		}
		list = append(list, sig)
		name := sig.HashAlgorithm.String()
		if !contains(hashNames, name) {
			hashNames = append(hashNames, name)
		}
	}

	sigBytes, err := list.Encode()
	if err != nil {
		return "", err
	}
	armoredSig := armor.Encode(armor.TypeSignature, sigBytes)
	return armor.EncodeCleartext(armor.NormalizeCleartext(text), hashNames, armoredSig), nil
}

// ParseCleartext splits an armored cleartext-signed message into its
// text and signatures.
func (pgp *PGP) ParseCleartext(message string) (*CleartextMessage, error) {
	text, sigBlock, err := armor.DecodeCleartext(message)
	if err != nil {
		return nil, err
	}
	list, err := packet.Decode(sigBlock.Body)
	if err != nil {
		return nil, err
	}
	m := &CleartextMessage{Text: text}
	for _, p := range list.FilterByTag(enums.TagSignature) {
		m.signatures = append(m.signatures, p.(*packet.Signature))
	}
	if len(m.signatures) == 0 {
		return nil, fmt.Errorf("%w: no signature packets", ErrMalformedMessage)
	}
	return m, nil
}

// VerifyCleartext parses and verifies an armored cleartext-signed
// message against the given keys, returning the verified message.
func (pgp *PGP) VerifyCleartext(message string, keys []*Key) (*CleartextMessage, error) {
	m, err := pgp.ParseCleartext(message)
	if err != nil {
		return nil, err
	}
	normalized := armor.NormalizeCleartext(m.Text)
	if err := pgp.verifySignatures(m.signatures, []byte(normalized), keys); err != nil {
		return nil, err
	}
	return m, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
