package secsvc

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	bolt "go.etcd.io/bbolt"

	"github.com/keyward/keyward/internal/boltprim"
)

func testBoltPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "keyward-test.db")
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	path := testBoltPath(t)
	pass := []byte("open sesame")

	s, err := OpenBolt(path, pass, nil)
	if err != nil {
		t.Fatal(err)
	}
	ref, err := s.Add(genpAttrs("svc", "persist"), []byte("still here"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = OpenBolt(path, pass, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	items, err := s.Copy(Query{Ref: ref})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(items[0].Data, []byte("still here")) {
		t.Errorf("data after reopen: %q", items[0].Data)
	}
	if items[0].Attrs[AttrAccount] != "persist" {
		t.Errorf("attrs after reopen: %+v", items[0].Attrs)
	}
}

func TestBoltRejectsWrongPassphrase(t *testing.T) {
	path := testBoltPath(t)

	s, err := OpenBolt(path, []byte("right"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenBolt(path, []byte("wrong"), nil); !errors.Is(err, ErrPassphrase) {
		t.Fatalf("expected ErrPassphrase, got %v", err)
	}
	if _, err := OpenBolt(path, nil, nil); !errors.Is(err, ErrParam) {
		t.Fatalf("expected ErrParam for empty passphrase, got %v", err)
	}
}

func TestBoltSecretDataIsSealedAtRest(t *testing.T) {
	path := testBoltPath(t)
	secret := []byte("plaintext-should-not-appear")

	s, err := OpenBolt(path, []byte("pass"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(genpAttrs("svc", "sealed"), secret); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(raw, secret) {
		t.Error("secret data stored in the clear")
	}
	// Attributes stay queryable without unsealing.
	if !bytes.Contains(raw, []byte("sealed")) {
		t.Error("attributes should be stored in the clear")
	}
}

func TestBoltDuplicateAndDelete(t *testing.T) {
	s, err := OpenBolt(testBoltPath(t), []byte("pass"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.Add(genpAttrs("svc", "dup"), []byte("one")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(genpAttrs("svc", "dup"), []byte("two")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	n, err := s.Delete(Query{Class: ClassGenericPassword, Attrs: Attributes{AttrAccount: "dup"}})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
	n, err = s.Delete(Query{Class: ClassGenericPassword, Attrs: Attributes{AttrAccount: "dup"}})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected 0 deleted on second pass, got %d", n)
	}
}

func TestBoltClassScan(t *testing.T) {
	s, err := OpenBolt(testBoltPath(t), []byte("pass"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.Add(genpAttrs("svc", "a"), []byte("x")); err != nil {
		t.Fatal(err)
	}
	certAttrs := Attributes{AttrClass: ClassCertificate, AttrSubject: "cn", AttrSerialNumber: "1"}
	if _, err := s.Add(certAttrs, []byte("der")); err != nil {
		t.Fatal(err)
	}

	items, err := s.Copy(Query{Class: ClassCertificate})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Attrs[AttrSubject] != "cn" {
		t.Errorf("certificate scan: %+v", items)
	}

	// Empty class scans everything.
	items, err = s.Copy(Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items across classes, got %d", len(items))
	}
}

func TestBoltAccessControlGating(t *testing.T) {
	s, err := OpenBolt(testBoltPath(t), []byte("pass"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	attrs := genpAttrs("svc", "locked")
	attrs[AttrAccessControl] = "bio"
	if _, err := s.Add(attrs, []byte("hidden")); err != nil {
		t.Fatal(err)
	}

	q := Query{Class: ClassGenericPassword}
	if _, err := s.Copy(q); !errors.Is(err, ErrInteractionRequired) {
		t.Fatalf("expected ErrInteractionRequired, got %v", err)
	}

	q.Authorize = func(string) error { return nil }
	items, err := s.Copy(q)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(items[0].Data, []byte("hidden")) {
		t.Error("authorized copy returned wrong data")
	}
}

func TestBoltKeepsItemsOutOfMetaBucket(t *testing.T) {
	path := testBoltPath(t)
	s, err := OpenBolt(path, []byte("pass"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.Add(genpAttrs("svc", "a"), []byte("x")); err != nil {
		t.Fatal(err)
	}

	err = s.db.View(func(tx *bolt.Tx) error {
		if boltprim.BucketGet(tx, metaBucket, metaKDFKey) == nil {
			t.Error("KDF parameters missing from meta bucket")
		}
		keys := boltprim.BucketKeysWithPrefix(tx, itemsBucket, "")
		if len(keys) != 1 {
			t.Errorf("expected 1 item key, got %v", keys)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
