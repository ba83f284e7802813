// Package vaultcrypt seals and opens secret payloads for the file-backed
// keychain service. Confidentiality comes from AES-CTR, integrity from
// HMAC-SHA256 (encrypt-then-MAC); both keys are derived per message from
// the store key with HKDF-SHA256 and a random salt carried in the sealed
// blob. The store key itself is derived from a passphrase with argon2id.
package vaultcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const (
	saltSize = 32
	ivSize   = aes.BlockSize
	macSize  = sha256.Size
	minSize  = saltSize + ivSize + macSize
)

var (
	ErrTooShort   = errors.New("vaultcrypt: sealed blob too short")
	ErrInvalidMAC = errors.New("vaultcrypt: message authentication failed")
)

// KDFParams are the argon2id parameters for deriving the store key.
// They are persisted alongside the store so reopening uses the same cost.
type KDFParams struct {
	Memory  uint32 `cbor:"m"`
	Time    uint32 `cbor:"t"`
	Threads uint8  `cbor:"p"`
	Salt    []byte `cbor:"salt"`
}

// DefaultKDFParams returns moderate interactive-use argon2id parameters
// with a fresh 32-byte salt.
func DefaultKDFParams() (KDFParams, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return KDFParams{}, err
	}
	return KDFParams{Memory: 64 * 1024, Time: 3, Threads: 4, Salt: salt}, nil
}

// DeriveKey derives the 32-byte store key from a passphrase.
func DeriveKey(passphrase []byte, p KDFParams) []byte {
	return argon2.IDKey(passphrase, p.Salt, p.Time, p.Memory, p.Threads, 32)
}

// Seal encrypts and authenticates plaintext under the store key. The
// additional data is authenticated but not stored. Layout of the returned
// blob: salt || iv || ciphertext || mac.
func Seal(storeKey, plaintext, aad []byte) ([]byte, error) {
	if len(storeKey) == 0 {
		return nil, errors.New("vaultcrypt: empty store key")
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	encKey, macKey, err := messageKeys(storeKey, salt)
	if err != nil {
		return nil, err
	}
	defer Zero(encKey)
	defer Zero(macKey)

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}

	ct := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(ct, plaintext)

	out := make([]byte, 0, minSize+len(ct))
	out = append(out, salt...)
	out = append(out, iv...)
	out = append(out, ct...)
	out = append(out, tag(macKey, aad, iv, ct)...)
	return out, nil
}

// Open authenticates and decrypts a blob produced by Seal. The additional
// data must match what was passed to Seal.
func Open(storeKey, sealed, aad []byte) ([]byte, error) {
	if len(sealed) < minSize {
		return nil, ErrTooShort
	}
	if len(storeKey) == 0 {
		return nil, errors.New("vaultcrypt: empty store key")
	}

	salt := sealed[:saltSize]
	iv := sealed[saltSize : saltSize+ivSize]
	macStart := len(sealed) - macSize
	ct := sealed[saltSize+ivSize : macStart]

	encKey, macKey, err := messageKeys(storeKey, salt)
	if err != nil {
		return nil, err
	}
	defer Zero(encKey)
	defer Zero(macKey)

	if subtle.ConstantTimeCompare(tag(macKey, aad, iv, ct), sealed[macStart:]) != 1 {
		return nil, ErrInvalidMAC
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	pt := make([]byte, len(ct))
	cipher.NewCTR(block, iv).XORKeyStream(pt, ct)
	return pt, nil
}

func messageKeys(storeKey, salt []byte) (encKey, macKey []byte, err error) {
	r := hkdf.New(sha256.New, storeKey, salt, []byte("keyward/vaultcrypt/v1"))
	encKey = make([]byte, 32)
	macKey = make([]byte, 32)
	if _, err = io.ReadFull(r, encKey); err != nil {
		return nil, nil, err
	}
	if _, err = io.ReadFull(r, macKey); err != nil {
		return nil, nil, err
	}
	return encKey, macKey, nil
}

func tag(macKey, aad, iv, ct []byte) []byte {
	m := hmac.New(sha256.New, macKey)
	m.Write(aad)
	m.Write(iv)
	m.Write(ct)
	return m.Sum(nil)
}

// Zero overwrites b. Best effort; the compiler may keep copies elsewhere.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
