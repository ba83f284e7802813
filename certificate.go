package keyward

import (
	"crypto/x509"
	"fmt"

	"go.mozilla.org/pkcs7"
)

// CertificateValue round-trips an X.509 certificate through its DER
// encoding.
type CertificateValue struct {
	Certificate *x509.Certificate
}

func (c CertificateValue) SecretBytes() ([]byte, error) {
	if c.Certificate == nil || len(c.Certificate.Raw) == 0 {
		return nil, fmt.Errorf("%w: no certificate set", ErrMissingRepresentation)
	}
	return c.Certificate.Raw, nil
}

func (c *CertificateValue) UnmarshalSecret(b []byte) error {
	cert, err := x509.ParseCertificate(b)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCertificate, err)
	}
	c.Certificate = cert
	return nil
}

// Query returns a certificate query pre-filled from the certificate's
// subject and serial, the attributes a store of this value records.
func (c CertificateValue) Query() *CertificateQuery {
	q := NewCertificateQuery()
	if c.Certificate != nil {
		q.SetSubject(c.Certificate.Subject.CommonName)
		q.SetIssuer(c.Certificate.Issuer.CommonName)
		q.SetSerialNumber(c.Certificate.SerialNumber.String())
	}
	return q
}

// CertificatesFromPKCS7 extracts the certificates from a DER-encoded
// PKCS#7 blob, the usual shape of a degenerate certificates-only chain.
func CertificatesFromPKCS7(der []byte) ([]*x509.Certificate, error) {
	p7, err := pkcs7.Parse(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCertificate, err)
	}
	if len(p7.Certificates) == 0 {
		return nil, fmt.Errorf("%w: PKCS#7 blob carries no certificates", ErrCertificate)
	}
	return p7.Certificates, nil
}
