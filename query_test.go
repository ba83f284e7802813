package keyward

import (
	"testing"

	"github.com/keyward/keyward/secsvc"
)

func TestQueryAttributeRoundTrip(t *testing.T) {
	q := NewInternetPasswordQuery()
	q.SetServer("mail.example.com")
	q.SetPort(993)
	q.SetProtocol(ProtocolIMAP)
	q.SetAccount("ben")
	q.SetLabel("mail account")

	if q.Server() != "mail.example.com" || q.Port() != 993 {
		t.Error("server/port getters disagree with setters")
	}
	if q.Protocol() != ProtocolIMAP {
		t.Errorf("protocol: got %q", q.Protocol())
	}
	if q.Label() != "mail account" {
		t.Errorf("label: got %q", q.Label())
	}
	if q.Class() != ClassInternetPassword {
		t.Errorf("class: got %v", q.Class())
	}
}

func TestQueryLoweringIncludesClass(t *testing.T) {
	q := NewKeyQuery()
	q.SetKeyClass(KeyClassPrivate)
	q.SetKeyType(KeyTypeEC)
	q.SetKeySizeBits(256)
	q.SetApplicationTag("com.example.key")

	attrs := q.lowered()
	if attrs[secsvc.AttrClass] != secsvc.ClassKey {
		t.Errorf("class attribute: got %v", attrs[secsvc.AttrClass])
	}
	if attrs[secsvc.AttrKeyClass] != "private" {
		t.Errorf("key class attribute: got %v", attrs[secsvc.AttrKeyClass])
	}
	if attrs[secsvc.AttrKeySizeBits] != 256 {
		t.Errorf("key size attribute: got %v", attrs[secsvc.AttrKeySizeBits])
	}
}

func TestZeroValuedAttributesAreOmitted(t *testing.T) {
	q := NewGenericPasswordQuery()
	q.SetService("svc")
	q.SetAccount("acct")
	q.SetAccount("") // unset again

	attrs := q.lowered()
	if _, ok := attrs[secsvc.AttrAccount]; ok {
		t.Error("empty account should be absent from the lowered dictionary")
	}
	if _, ok := attrs[secsvc.AttrLabel]; ok {
		t.Error("never-set label should be absent from the lowered dictionary")
	}

	iq := NewInternetPasswordQuery()
	iq.SetServer("h")
	iq.SetPort(0)
	if _, ok := iq.lowered()[secsvc.AttrPort]; ok {
		t.Error("zero port should be absent from the lowered dictionary")
	}
}

func TestServiceQueryCarriesLimitAndRef(t *testing.T) {
	q := NewCertificateQuery()
	q.SetSubject("cn")
	q.SetMatchLimit(3)
	q.SetPersistentRef("REF-1")

	sq := q.serviceQuery()
	if sq.Limit != 3 || sq.Ref != "REF-1" {
		t.Errorf("service query: %+v", sq)
	}
	if sq.Class != secsvc.ClassCertificate {
		t.Errorf("service query class: %q", sq.Class)
	}
	if sq.Authorize != nil {
		t.Error("no authentication context was attached")
	}
}

func TestKeyUsageFlags(t *testing.T) {
	q := NewKeyQuery()
	q.SetUsage(UsageSign | UsageVerify)
	if q.Usage()&UsageSign == 0 || q.Usage()&UsageVerify == 0 {
		t.Error("usage flags lost")
	}
	if q.Usage()&UsageDecrypt != 0 {
		t.Error("unexpected usage flag set")
	}
}
