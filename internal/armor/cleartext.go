package armor

import (
	"fmt"
	"strings"
)

// NormalizeCleartext canonicalizes text for cleartext-signature hashing:
// line separators become CRLF, trailing spaces and tabs are stripped from
// each line, and no separator follows the last line. See RFC 9580,
// section 7.1.
func NormalizeCleartext(text string) string {
	lines := splitLines(text)
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\r\n")
}

// DashEscape prefixes every line beginning with a dash with "- " for
// transport inside a cleartext frame.
func DashEscape(text string) string {
	lines := splitLines(text)
	for i, line := range lines {
		if strings.HasPrefix(line, "-") {
			lines[i] = "- " + line
		}
	}
	return strings.Join(lines, "\n")
}

// DashUnescape reverses DashEscape.
func DashUnescape(text string) string {
	lines := splitLines(text)
	for i, line := range lines {
		if strings.HasPrefix(line, "- ") {
			lines[i] = line[2:]
		}
	}
	return strings.Join(lines, "\n")
}

// EncodeCleartext frames text and its detached armored signature as a
// cleartext-signed message. hashNames lists the hash algorithm names for
// the Hash header; an empty list omits the header.
func EncodeCleartext(text string, hashNames []string, armoredSignature string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "-----BEGIN PGP %s-----\n", TypeSignedMessage)
	if len(hashNames) > 0 {
		fmt.Fprintf(&b, "Hash: %s\n", strings.Join(hashNames, ", "))
	}
	b.WriteByte('\n')
	b.WriteString(DashEscape(text))
	b.WriteByte('\n')
	b.WriteString(armoredSignature)
	return b.String()
}

// DecodeCleartext splits a cleartext-signed message into its text and the
// trailing armored signature block. The returned text is dash-unescaped
// but not normalized.
func DecodeCleartext(message string) (text string, sig *Block, err error) {
	begin := "-----BEGIN PGP " + TypeSignedMessage + "-----"
	idx := strings.Index(message, begin)
	if idx < 0 {
		return "", nil, ErrNoArmoredData
	}
	rest := message[idx+len(begin):]
	// Drop the line ending of the BEGIN line itself.
	if _, remainder, ok := cutLine(rest); ok {
		rest = remainder
	}

	// Skip the header section (Hash lines) up to the first blank line.
	for {
		line, remainder, ok := cutLine(rest)
		if !ok {
			return "", nil, fmt.Errorf("%w: unterminated cleartext header", ErrMalformedArmor)
		}
		rest = remainder
		if strings.TrimRight(line, " \t\r") == "" {
			break
		}
	}

	sigBegin := strings.Index(rest, "-----BEGIN PGP "+TypeSignature+"-----")
	if sigBegin < 0 {
		return "", nil, fmt.Errorf("%w: missing signature block", ErrMalformedArmor)
	}
	text = rest[:sigBegin]
	// The newline that separates the text from the signature armor is part
	// of the framing, not the signed text.
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")

	sig, err = Decode(rest[sigBegin:])
	if err != nil {
		return "", nil, err
	}
	return DashUnescape(text), sig, nil
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

func cutLine(s string) (line, rest string, ok bool) {
	i := strings.IndexByte(s, '\n')
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}
