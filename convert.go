package keyward

import "fmt"

// Encoder maps a domain value to its canonical byte encoding for storage.
type Encoder interface {
	SecretBytes() ([]byte, error)
}

// Decoder reconstructs a domain value from its canonical byte encoding.
// Malformed input fails with an error wrapping ErrConvert (or
// ErrCertificate for certificate structures); data is never silently
// truncated or substituted.
type Decoder interface {
	UnmarshalSecret([]byte) error
}

// Password is a UTF-8 secret string.
type Password string

func (p Password) SecretBytes() ([]byte, error) { return []byte(p), nil }

func (p *Password) UnmarshalSecret(b []byte) error {
	*p = Password(b)
	return nil
}

// Blob is an uninterpreted byte secret.
type Blob []byte

func (b Blob) SecretBytes() ([]byte, error) { return b, nil }

func (b *Blob) UnmarshalSecret(data []byte) error {
	*b = append(Blob(nil), data...)
	return nil
}

// SymmetricKey is raw symmetric key material.
type SymmetricKey []byte

// Bits returns the key size in bits.
func (k SymmetricKey) Bits() int { return len(k) * 8 }

func (k SymmetricKey) SecretBytes() ([]byte, error) {
	if len(k) == 0 {
		return nil, fmt.Errorf("%w: empty symmetric key", ErrMissingRepresentation)
	}
	return k, nil
}

func (k *SymmetricKey) UnmarshalSecret(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("%w: empty symmetric key data", ErrConvert)
	}
	*k = append(SymmetricKey(nil), b...)
	return nil
}
