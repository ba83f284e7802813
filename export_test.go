package keyward

import (
	"bytes"
	"testing"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := testKeychain()

	gq := accountQuery("exported")
	gq.SetLabel("exported item")
	fatalIf(t, src.Store(gq, Password("pw-1"), nil))

	iq := NewInternetPasswordQuery()
	iq.SetServer("git.example.com")
	iq.SetPort(22)
	iq.SetProtocol(ProtocolSSH)
	iq.SetAccount("deploy")
	fatalIf(t, src.Store(iq, Password("pw-2"), nil))

	cert, _ := testCertificate(t, "exported-cert")
	cv := CertificateValue{Certificate: cert}
	fatalIf(t, src.Store(cv.Query(), cv, nil))

	data, err := src.Export(true)
	fatalIf(t, err)
	if !bytes.Contains(data, []byte("git.example.com")) {
		t.Error("export plist does not mention the internet password server")
	}

	dst := testKeychain()
	n, err := dst.Import(data)
	fatalIf(t, err)
	if n != 3 {
		t.Fatalf("expected 3 imported items, got %d", n)
	}

	pw, found, err := Retrieve[Password](dst, accountQuery("exported"))
	fatalIf(t, err)
	if !found || pw != "pw-1" {
		t.Errorf("generic password: found=%v pw=%q", found, pw)
	}

	got, found, err := Retrieve[CertificateValue](dst, cv.Query())
	fatalIf(t, err)
	if !found || !got.Certificate.Equal(cert) {
		t.Error("certificate did not survive export/import")
	}
}

func TestExportWithoutData(t *testing.T) {
	src := testKeychain()
	fatalIf(t, src.Store(accountQuery("attrs-only"), Password("secret-value"), nil))

	data, err := src.Export(false)
	fatalIf(t, err)
	if bytes.Contains(data, []byte("secret-value")) {
		t.Error("attribute-only export leaked secret data")
	}

	// Importing an attribute-only export writes nothing.
	dst := testKeychain()
	n, err := dst.Import(data)
	fatalIf(t, err)
	if n != 0 {
		t.Errorf("expected 0 imported items, got %d", n)
	}
}
