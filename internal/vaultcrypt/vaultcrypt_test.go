package vaultcrypt

import (
	"bytes"
	"errors"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	p, err := DefaultKDFParams()
	if err != nil {
		t.Fatal(err)
	}
	return DeriveKey([]byte("correct horse"), p)
}

func TestSealOpenRoundTrip(t *testing.T) {
	key := testKey(t)
	pt := []byte("8e9c0a7f")
	aad := []byte("genp/1234")

	sealed, err := Seal(key, pt, aad)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(sealed, pt) {
		t.Error("plaintext visible in sealed blob")
	}

	got, err := Open(key, sealed, aad)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, pt) {
		t.Errorf("round trip: got %q, want %q", got, pt)
	}
}

func TestOpenRejectsTamper(t *testing.T) {
	key := testKey(t)
	sealed, err := Seal(key, []byte("secret"), nil)
	if err != nil {
		t.Fatal(err)
	}

	sealed[len(sealed)/2] ^= 0x01
	if _, err := Open(key, sealed, nil); !errors.Is(err, ErrInvalidMAC) {
		t.Errorf("expected ErrInvalidMAC, got %v", err)
	}
}

func TestOpenRejectsWrongAAD(t *testing.T) {
	key := testKey(t)
	sealed, err := Seal(key, []byte("secret"), []byte("one"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Open(key, sealed, []byte("two")); !errors.Is(err, ErrInvalidMAC) {
		t.Errorf("expected ErrInvalidMAC, got %v", err)
	}
}

func TestOpenRejectsShortBlob(t *testing.T) {
	key := testKey(t)
	if _, err := Open(key, make([]byte, minSize-1), nil); !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	p, err := DefaultKDFParams()
	if err != nil {
		t.Fatal(err)
	}
	a := DeriveKey([]byte("pass"), p)
	b := DeriveKey([]byte("pass"), p)
	if !bytes.Equal(a, b) {
		t.Error("same passphrase and params produced different keys")
	}
	c := DeriveKey([]byte("other"), p)
	if bytes.Equal(a, c) {
		t.Error("different passphrases produced the same key")
	}
}
