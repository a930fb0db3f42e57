package gopg

import (
	"fmt"
	"time"

	"github.com/nguyennv/gopg/internal/armor"
	"github.com/nguyennv/gopg/internal/enums"
	"github.com/nguyennv/gopg/internal/packet"
)

// LiteralMessage is a literal-data payload together with any signatures
// over it.
type LiteralMessage struct {
	literal    *packet.LiteralData
	onePass    []*packet.OnePassSignature
	signatures []*packet.Signature
}

// NewMessage builds a binary literal message around data.
func NewMessage(data []byte) *LiteralMessage {
	return &LiteralMessage{
		literal: &packet.LiteralData{
			Format: enums.LiteralFormatBinary,
			Data:   append([]byte(nil), data...),
		},
	}
}

// NewTextMessage builds a UTF-8 text literal message; signatures over it
// use the text signature type with canonicalized line endings.
func NewTextMessage(text string) *LiteralMessage {
	return &LiteralMessage{
		literal: &packet.LiteralData{
			Format: enums.LiteralFormatUTF8,
			Data:   []byte(text),
		},
	}
}

// Data returns the literal payload bytes.
func (m *LiteralMessage) Data() []byte { return m.literal.Data }

// Filename returns the literal file-name hint.
func (m *LiteralMessage) Filename() string { return m.literal.FileName }

// Signatures reports how many signature packets accompany the literal.
func (m *LiteralMessage) Signatures() int { return len(m.signatures) }

// Packets returns the message packet sequence: one-pass announcements,
// the literal, then the signatures.
func (m *LiteralMessage) Packets() packet.List {
	var list packet.List
	for _, ops := range m.onePass {
		list = append(list, ops)
	}
	list = append(list, m.literal)
	for _, sig := range m.signatures {
		list = append(list, sig)
	}
	return list
}

// Serialize returns the binary message.
func (m *LiteralMessage) Serialize() ([]byte, error) {
	return m.Packets().Encode()
}

// Armor returns the ASCII-armored message.
func (m *LiteralMessage) Armor() (string, error) {
	data, err := m.Serialize()
	if err != nil {
		return "", err
	}
	return armor.Encode(armor.TypeMessage, data), nil
}

// ParseMessage decodes an armored literal (possibly signed) message.
func (pgp *PGP) ParseMessage(armored string) (*LiteralMessage, error) {
	block, err := armor.Decode(armored)
	if err != nil {
		return nil, err
	}
	return pgp.ParseMessageBytes(block.Body)
}

// ParseMessageBytes decodes a binary literal (possibly signed) message,
// transparently expanding one level of compression.
func (pgp *PGP) ParseMessageBytes(data []byte) (*LiteralMessage, error) {
	list, err := packet.Decode(data)
	if err != nil {
		return nil, err
	}
	return messageFromPackets(list)
}

func messageFromPackets(list packet.List) (*LiteralMessage, error) {
	// A compressed packet wraps the whole sequence.
	if len(list) == 1 {
		if comp, ok := list[0].(*packet.CompressedData); ok {
			nested, err := comp.Decompress()
			if err != nil {
				return nil, err
			}
			inner, err := packet.Decode(nested)
			if err != nil {
				return nil, err
			}
			list = inner
		}
	}

	m := &LiteralMessage{}
	for _, p := range list {
		switch p := p.(type) {
		case *packet.OnePassSignature:
			m.onePass = append(m.onePass, p)
		case *packet.LiteralData:
			if m.literal != nil {
				return nil, fmt.Errorf("%w: multiple literal packets", ErrMalformedMessage)
			}
			m.literal = p
		case *packet.Signature:
			m.signatures = append(m.signatures, p)
		case *packet.Marker, *packet.Padding:
		default:
			return nil, fmt.Errorf("%w: unexpected %d packet in literal message", ErrMalformedMessage, p.Tag())
		}
	}
	if m.literal == nil {
		return nil, fmt.Errorf("%w: no literal packet", ErrMalformedMessage)
	}
	return m, nil
}

// signatureType returns the signature type matching the literal's format
// octet.
func (m *LiteralMessage) signatureType() enums.SignatureType {
	if m.literal.Format.IsText() {
		return enums.SigTypeText
	}
	return enums.SigTypeBinary
}

// Sign returns a new message carrying one signature per key, announced
// by interleaved one-pass packets. The input message is unchanged.
func (pgp *PGP) Sign(m *LiteralMessage, keys []*Key) (*LiteralMessage, error) {
	sigs, signers, err := pgp.signLiteral(m, keys)
	if err != nil {
		return nil, err
	}

	out := &LiteralMessage{literal: m.literal}
	for i, sig := range sigs {
		out.onePass = append(out.onePass, packet.NewOnePassSignature(sig, signers[i], i == len(sigs)-1))
	}
	// Signatures close in reverse announcement order.
	for i := len(sigs) - 1; i >= 0; i-- {
		out.signatures = append(out.signatures, sigs[i])
	}
	return out, nil
}

// SignDetached returns the armored detached signature(s) over the
// message.
func (pgp *PGP) SignDetached(m *LiteralMessage, keys []*Key) (string, error) {
	data, err := pgp.SignDetachedBytes(m, keys)
	if err != nil {
		return "", err
	}
	return armor.Encode(armor.TypeSignature, data), nil
}

// SignDetachedBytes returns the binary detached signature packets over
// the message.
func (pgp *PGP) SignDetachedBytes(m *LiteralMessage, keys []*Key) ([]byte, error) {
	sigs, _, err := pgp.signLiteral(m, keys)
	if err != nil {
		return nil, err
	}
	var list packet.List
	for _, sig := range sigs {
		list = append(list, sig)
	}
	return list.Encode()
}

func (pgp *PGP) signLiteral(m *LiteralMessage, keys []*Key) ([]*packet.Signature, []*packet.PublicKey, error) {
	if len(keys) == 0 {
		return nil, nil, fmt.Errorf("%w: no signing keys", ErrInvalidArgument)
	}
	p := pgp.cfg.provider
	now := pgp.cfg.now().Truncate(time.Second).UTC()
	signable := m.literal.SignableBytes()

	var sigs []*packet.Signature
	var signers []*packet.PublicKey
	for _, key := range keys {
		signer, err := key.signingKeyPacket(p, now)
		if err != nil {
			return nil, nil, err
		}
		sig, err := packet.Sign(p, signer, signable, packet.SignParams{
			Type: m.signatureType(),
			Hash: pgp.cfg.preferredHash,
			Time: now,
		})
		if err != nil {
			return nil, nil, err
		}
		sigs = append(sigs, sig)
		signers = append(signers, &signer.PublicKey)
	}
	return sigs, signers, nil
}

// Verify checks every signature on the message against the given keys at
// the handle's current time. It succeeds if each signature verifies
// under some key.
func (pgp *PGP) Verify(m *LiteralMessage, keys []*Key) error {
	if len(m.signatures) == 0 {
		return fmt.Errorf("%w: message carries no signatures", ErrInvalidArgument)
	}
	signable := m.literal.SignableBytes()
	return pgp.verifySignatures(m.signatures, signable, keys)
}

// VerifyDetached checks an armored detached signature over data.
func (pgp *PGP) VerifyDetached(data []byte, armoredSignature string, keys []*Key) error {
	block, err := armor.Decode(armoredSignature)
	if err != nil {
		return err
	}
	list, err := packet.Decode(block.Body)
	if err != nil {
		return err
	}
	var sigs []*packet.Signature
	for _, p := range list.FilterByTag(enums.TagSignature) {
		sigs = append(sigs, p.(*packet.Signature))
	}
	if len(sigs) == 0 {
		return fmt.Errorf("%w: no signature packets", ErrInvalidArgument)
	}
	var signable []byte
	for _, sig := range sigs {
		if sig.SigType == enums.SigTypeText {
			signable = (&packet.LiteralData{Format: enums.LiteralFormatUTF8, Data: data}).SignableBytes()
		}
	}
	if signable == nil {
		signable = data
	}
	return pgp.verifySignatures(sigs, signable, keys)
}

// verifySignatures requires every signature to verify under some
// provided key; candidate keys are matched by issuer hints first.
func (pgp *PGP) verifySignatures(sigs []*packet.Signature, signable []byte, keys []*Key) error {
	if len(keys) == 0 {
		return fmt.Errorf("%w: no verification keys", ErrInvalidArgument)
	}
	p := pgp.cfg.provider
	at := pgp.cfg.now()

	for _, sig := range sigs {
		var lastErr error
		verified := false
		for _, key := range keys {
			for _, candidate := range key.verificationKeyPackets() {
				if id := sig.IssuerKeyID(); id != 0 && id != candidate.KeyID() {
					continue
				}
				if err := sig.Verify(p, candidate, signable, at); err != nil {
					lastErr = err
					pgp.cfg.logger.V(1).Info("signature candidate rejected",
						"keyID", fmt.Sprintf("%016x", candidate.KeyID()), "reason", err.Error())
					continue
				}
				verified = true
			}
			if verified {
				break
			}
		}
		if !verified {
			if lastErr != nil {
				return lastErr
			}
			return fmt.Errorf("%w: no key matches issuer %016x", ErrSignatureInvalid, sig.IssuerKeyID())
		}
	}
	return nil
}
