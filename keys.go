package keyward

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"

	"go.step.sm/crypto/pemutil"
)

// EC keys use the X9.63 representation: 0x04 || X || Y for public keys,
// with the scalar K appended for private keys. The curve is identified by
// the blob length, so each supported curve must have a distinct length.

var privateKeyCurves = map[int]elliptic.Curve{
	1 + 3*32: elliptic.P256(),
	1 + 3*48: elliptic.P384(),
	1 + 3*66: elliptic.P521(),
}

var publicKeyCurves = map[int]elliptic.Curve{
	1 + 2*32: elliptic.P256(),
	1 + 2*48: elliptic.P384(),
	1 + 2*66: elliptic.P521(),
}

func padScalar(curve elliptic.Curve, n *big.Int) []byte {
	byteLen := (curve.Params().BitSize + 7) / 8
	return n.FillBytes(make([]byte, byteLen))
}

// ECPrivateKey round-trips an ECDSA private key through the X9.63 point
// plus scalar encoding.
type ECPrivateKey struct {
	Key *ecdsa.PrivateKey
}

func (k ECPrivateKey) SecretBytes() ([]byte, error) {
	if k.Key == nil {
		return nil, fmt.Errorf("%w: no EC private key set", ErrMissingRepresentation)
	}
	curve := k.Key.Curve
	out := []byte{0x04}
	out = append(out, padScalar(curve, k.Key.X)...)
	out = append(out, padScalar(curve, k.Key.Y)...)
	out = append(out, padScalar(curve, k.Key.D)...)
	return out, nil
}

func (k *ECPrivateKey) UnmarshalSecret(b []byte) error {
	curve, ok := privateKeyCurves[len(b)]
	if !ok || b[0] != 0x04 {
		return fmt.Errorf("%w: not an X9.63 EC private key (%d bytes)", ErrConvert, len(b))
	}
	byteLen := (curve.Params().BitSize + 7) / 8

	x := new(big.Int).SetBytes(b[1 : 1+byteLen])
	y := new(big.Int).SetBytes(b[1+byteLen : 1+2*byteLen])
	d := new(big.Int).SetBytes(b[1+2*byteLen:])

	if !curve.IsOnCurve(x, y) {
		return fmt.Errorf("%w: point not on %s", ErrConvert, curve.Params().Name)
	}
	if d.Sign() == 0 || d.Cmp(curve.Params().N) >= 0 {
		return fmt.Errorf("%w: EC scalar out of range", ErrConvert)
	}
	// The public point must belong to the scalar.
	gx, gy := curve.ScalarBaseMult(d.Bytes())
	if gx.Cmp(x) != 0 || gy.Cmp(y) != 0 {
		return fmt.Errorf("%w: EC public point does not match scalar", ErrConvert)
	}

	k.Key = &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y},
		D:         d,
	}
	return nil
}

// ECPublicKey round-trips an ECDSA public key through the X9.63
// uncompressed point encoding.
type ECPublicKey struct {
	Key *ecdsa.PublicKey
}

func (k ECPublicKey) SecretBytes() ([]byte, error) {
	if k.Key == nil {
		return nil, fmt.Errorf("%w: no EC public key set", ErrMissingRepresentation)
	}
	return elliptic.Marshal(k.Key.Curve, k.Key.X, k.Key.Y), nil
}

func (k *ECPublicKey) UnmarshalSecret(b []byte) error {
	curve, ok := publicKeyCurves[len(b)]
	if !ok {
		return fmt.Errorf("%w: not an X9.63 EC public key (%d bytes)", ErrConvert, len(b))
	}
	x, y := elliptic.Unmarshal(curve, b)
	if x == nil {
		return fmt.Errorf("%w: invalid EC point", ErrConvert)
	}
	k.Key = &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	return nil
}

// RSAPrivateKey round-trips an RSA private key through PKCS#1 DER.
type RSAPrivateKey struct {
	Key *rsa.PrivateKey
}

func (k RSAPrivateKey) SecretBytes() ([]byte, error) {
	if k.Key == nil {
		return nil, fmt.Errorf("%w: no RSA private key set", ErrMissingRepresentation)
	}
	return x509.MarshalPKCS1PrivateKey(k.Key), nil
}

func (k *RSAPrivateKey) UnmarshalSecret(b []byte) error {
	key, err := x509.ParsePKCS1PrivateKey(b)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConvert, err)
	}
	k.Key = key
	return nil
}

// RSAPublicKey round-trips an RSA public key through PKIX DER.
type RSAPublicKey struct {
	Key *rsa.PublicKey
}

func (k RSAPublicKey) SecretBytes() ([]byte, error) {
	if k.Key == nil {
		return nil, fmt.Errorf("%w: no RSA public key set", ErrMissingRepresentation)
	}
	return x509.MarshalPKIXPublicKey(k.Key)
}

func (k *RSAPublicKey) UnmarshalSecret(b []byte) error {
	pub, err := x509.ParsePKIXPublicKey(b)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConvert, err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: not an RSA public key", ErrConvert)
	}
	k.Key = rsaPub
	return nil
}

// ParseKeyPEM decodes a PEM-encoded key or certificate of any supported
// form.
func ParseKeyPEM(b []byte) (any, error) {
	v, err := pemutil.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConvert, err)
	}
	return v, nil
}

// MarshalKeyPEM encodes a key or certificate to PEM.
func MarshalKeyPEM(v any) ([]byte, error) {
	block, err := pemutil.Serialize(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConvert, err)
	}
	return pem.EncodeToMemory(block), nil
}
