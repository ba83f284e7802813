package keyward

import (
	"crypto"
	"crypto/x509"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/pkcs12"
)

// Identity is a certificate paired with its private key.
type Identity struct {
	Certificate *x509.Certificate
	PrivateKey  crypto.PrivateKey
}

// identityRecord is the stored form: certificate DER plus PKCS#8 key DER.
type identityRecord struct {
	Certificate []byte `cbor:"cert"`
	PrivateKey  []byte `cbor:"key"`
}

func (id Identity) SecretBytes() ([]byte, error) {
	if id.Certificate == nil || len(id.Certificate.Raw) == 0 {
		return nil, fmt.Errorf("%w: identity has no certificate", ErrMissingRepresentation)
	}
	if id.PrivateKey == nil {
		return nil, fmt.Errorf("%w: identity has no private key", ErrMissingRepresentation)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(id.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConvert, err)
	}
	return cbor.Marshal(&identityRecord{
		Certificate: id.Certificate.Raw,
		PrivateKey:  keyDER,
	})
}

func (id *Identity) UnmarshalSecret(b []byte) error {
	var rec identityRecord
	if err := cbor.Unmarshal(b, &rec); err != nil {
		return fmt.Errorf("%w: %v", ErrConvert, err)
	}
	cert, err := x509.ParseCertificate(rec.Certificate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCertificate, err)
	}
	key, err := x509.ParsePKCS8PrivateKey(rec.PrivateKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConvert, err)
	}
	id.Certificate = cert
	id.PrivateKey = key
	return nil
}

// Signer returns the identity's private key as a crypto.Signer.
func (id Identity) Signer() (crypto.Signer, error) {
	signer, ok := id.PrivateKey.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: private key cannot sign", ErrMissingRepresentation)
	}
	return signer, nil
}

// Query returns an identity query pre-filled from the certificate side.
func (id Identity) Query() *IdentityQuery {
	q := NewIdentityQuery()
	if id.Certificate != nil {
		q.SetSubject(id.Certificate.Subject.CommonName)
		q.SetIssuer(id.Certificate.Issuer.CommonName)
		q.SetSerialNumber(id.Certificate.SerialNumber.String())
	}
	return q
}

// IdentityFromPKCS12 decodes a PKCS#12 archive into an identity.
func IdentityFromPKCS12(pfx []byte, password string) (*Identity, error) {
	key, cert, err := pkcs12.Decode(pfx, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConvert, err)
	}
	return &Identity{Certificate: cert, PrivateKey: key}, nil
}
