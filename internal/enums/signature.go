package enums

// SignatureType identifies the semantic meaning of a signature. See RFC
// 9580, section 5.2.1.
type SignatureType uint8

const (
	SigTypeBinary                  SignatureType = 0x00
	SigTypeText                    SignatureType = 0x01
	SigTypeStandalone              SignatureType = 0x02
	SigTypeGenericCert             SignatureType = 0x10
	SigTypePersonaCert             SignatureType = 0x11
	SigTypeCasualCert              SignatureType = 0x12
	SigTypePositiveCert            SignatureType = 0x13
	SigTypeSubkeyBinding           SignatureType = 0x18
	SigTypePrimaryKeyBinding       SignatureType = 0x19
	SigTypeDirectKey               SignatureType = 0x1F
	SigTypeKeyRevocation           SignatureType = 0x20
	SigTypeSubkeyRevocation        SignatureType = 0x28
	SigTypeCertRevocation          SignatureType = 0x30
	SigTypeTimestamp               SignatureType = 0x40
	SigTypeThirdParty              SignatureType = 0x50
)

// IsCertification reports whether the type certifies a user id bound to a
// primary key.
func (t SignatureType) IsCertification() bool {
	switch t {
	case SigTypeGenericCert, SigTypePersonaCert, SigTypeCasualCert, SigTypePositiveCert:
		return true
	}
	return false
}

// SubpacketType identifies a signature subpacket. See RFC 9580, section
// 5.2.3.7.
type SubpacketType uint8

const (
	SubpacketCreationTime          SubpacketType = 2
	SubpacketExpirationTime        SubpacketType = 3
	SubpacketExportableCert        SubpacketType = 4
	SubpacketTrust                 SubpacketType = 5
	SubpacketRegularExpression     SubpacketType = 6
	SubpacketRevocable             SubpacketType = 7
	SubpacketKeyExpirationTime     SubpacketType = 9
	SubpacketPreferredSymmetric    SubpacketType = 11
	SubpacketRevocationKey         SubpacketType = 12
	SubpacketIssuerKeyID           SubpacketType = 16
	SubpacketNotationData          SubpacketType = 20
	SubpacketPreferredHash         SubpacketType = 21
	SubpacketPreferredCompression  SubpacketType = 22
	SubpacketKeyServerPreferences  SubpacketType = 23
	SubpacketPreferredKeyServer    SubpacketType = 24
	SubpacketPrimaryUserID         SubpacketType = 25
	SubpacketPolicyURI             SubpacketType = 26
	SubpacketKeyFlags              SubpacketType = 27
	SubpacketSignerUserID          SubpacketType = 28
	SubpacketRevocationReason      SubpacketType = 29
	SubpacketFeatures              SubpacketType = 30
	SubpacketSignatureTarget       SubpacketType = 31
	SubpacketEmbeddedSignature     SubpacketType = 32
	SubpacketIssuerFingerprint     SubpacketType = 33
	SubpacketPreferredAEADCiphersuites SubpacketType = 39
)

// KeyFlags is the bit set carried by the key-flags subpacket. See RFC
// 9580, section 5.2.3.29.
type KeyFlags uint8

const (
	KeyFlagCertify            KeyFlags = 0x01
	KeyFlagSign               KeyFlags = 0x02
	KeyFlagEncryptCommunication KeyFlags = 0x04
	KeyFlagEncryptStorage     KeyFlags = 0x08
	KeyFlagSplitKey           KeyFlags = 0x10
	KeyFlagAuthenticate       KeyFlags = 0x20
	KeyFlagGroupKey           KeyFlags = 0x80
)

// CanSign reports whether the flag set authorizes data signing.
func (f KeyFlags) CanSign() bool { return f&KeyFlagSign != 0 }

// CanEncrypt reports whether the flag set authorizes encryption of either
// communications or storage.
func (f KeyFlags) CanEncrypt() bool {
	return f&(KeyFlagEncryptCommunication|KeyFlagEncryptStorage) != 0
}

// CanCertify reports whether the flag set authorizes certification of
// other keys and user ids.
func (f KeyFlags) CanCertify() bool { return f&KeyFlagCertify != 0 }

// Features is the bit set carried by the features subpacket.
type Features uint8

const (
	FeatureModificationDetection Features = 0x01
	FeatureSEIPDv2               Features = 0x08
)

// RevocationReason is a revocation reason code. See RFC 9580, section
// 5.2.3.31.
type RevocationReason uint8

const (
	RevocationNoReason       RevocationReason = 0
	RevocationKeySuperseded  RevocationReason = 1
	RevocationKeyCompromised RevocationReason = 2
	RevocationKeyRetired     RevocationReason = 3
	RevocationUserIDInvalid  RevocationReason = 32
)
