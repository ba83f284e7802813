package secsvc

import (
	"bytes"
	"errors"
	"testing"
)

func genpAttrs(service, account string) Attributes {
	return Attributes{
		AttrClass:   ClassGenericPassword,
		AttrService: service,
		AttrAccount: account,
	}
}

func TestMemoryAddCopyDelete(t *testing.T) {
	s := Memory()

	ref, err := s.Add(genpAttrs("svc", "acct"), []byte("data"))
	if err != nil {
		t.Fatal(err)
	}
	if ref == "" {
		t.Fatal("expected a persistent reference")
	}

	items, err := s.Copy(Query{Class: ClassGenericPassword, Attrs: Attributes{AttrAccount: "acct"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || !bytes.Equal(items[0].Data, []byte("data")) {
		t.Fatalf("copy: %+v", items)
	}
	if items[0].Ref != ref {
		t.Errorf("ref mismatch: %q vs %q", items[0].Ref, ref)
	}
	if items[0].Attrs[AttrCreated] == nil {
		t.Error("no creation date recorded")
	}

	n, err := s.Delete(Query{Ref: ref})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}

	if _, err := s.Copy(Query{Ref: ref}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryDuplicateDetection(t *testing.T) {
	s := Memory()

	if _, err := s.Add(genpAttrs("svc", "acct"), []byte("one")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(genpAttrs("svc", "acct"), []byte("two")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// Different account: no collision.
	if _, err := s.Add(genpAttrs("svc", "other"), []byte("three")); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryMatchLimit(t *testing.T) {
	s := Memory()
	for _, acct := range []string{"a", "b", "c"} {
		if _, err := s.Add(genpAttrs("svc", acct), []byte(acct)); err != nil {
			t.Fatal(err)
		}
	}

	items, err := s.Copy(Query{Class: ClassGenericPassword, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}

	items, err = s.Copy(Query{Class: ClassGenericPassword})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Errorf("expected 3 items, got %d", len(items))
	}
}

func TestMemoryAddRequiresClass(t *testing.T) {
	s := Memory()
	if _, err := s.Add(Attributes{AttrService: "svc"}, nil); !errors.Is(err, ErrParam) {
		t.Errorf("expected ErrParam, got %v", err)
	}
}

func TestMemoryAccessControlGating(t *testing.T) {
	s := Memory()
	attrs := genpAttrs("svc", "locked")
	attrs[AttrAccessControl] = "bio"
	attrs[AttrLabel] = "locked item"
	if _, err := s.Add(attrs, []byte("hidden")); err != nil {
		t.Fatal(err)
	}

	q := Query{Class: ClassGenericPassword, Attrs: Attributes{AttrAccount: "locked"}}
	if _, err := s.Copy(q); !errors.Is(err, ErrInteractionRequired) {
		t.Fatalf("expected ErrInteractionRequired, got %v", err)
	}

	var gotReason string
	q.Authorize = func(reason string) error {
		gotReason = reason
		return nil
	}
	items, err := s.Copy(q)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(items[0].Data, []byte("hidden")) {
		t.Error("authorized copy returned wrong data")
	}
	if gotReason != "locked item" {
		t.Errorf("prompt reason: got %q", gotReason)
	}

	q.Authorize = func(string) error { return errors.New("nope") }
	if _, err := s.Copy(q); !errors.Is(err, ErrAuthFailed) {
		t.Errorf("expected ErrAuthFailed, got %v", err)
	}
}

func TestUniqueQuery(t *testing.T) {
	attrs := genpAttrs("svc", "acct")
	attrs[AttrLabel] = "ignored for uniqueness"

	q := UniqueQuery(attrs)
	if q.Class != ClassGenericPassword {
		t.Errorf("class: %q", q.Class)
	}
	if q.Attrs[AttrService] != "svc" || q.Attrs[AttrAccount] != "acct" {
		t.Errorf("attrs: %+v", q.Attrs)
	}
	if _, ok := q.Attrs[AttrLabel]; ok {
		t.Error("label must not participate in uniqueness")
	}
}
