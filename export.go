package keyward

import (
	"fmt"

	"github.com/groob/plist"

	"github.com/keyward/keyward/secsvc"
)

// ExportedItem is one item in the plist export format. Secret data is
// present only when the export asked for it.
type ExportedItem struct {
	Class          string `plist:"Class"`
	PersistentRef  string `plist:"PersistentRef"`
	Label          string `plist:"Label,omitempty"`
	Service        string `plist:"Service,omitempty"`
	Account        string `plist:"Account,omitempty"`
	Server         string `plist:"Server,omitempty"`
	Port           int    `plist:"Port,omitempty"`
	Protocol       string `plist:"Protocol,omitempty"`
	Path           string `plist:"Path,omitempty"`
	ApplicationTag string `plist:"ApplicationTag,omitempty"`
	Subject        string `plist:"Subject,omitempty"`
	Issuer         string `plist:"Issuer,omitempty"`
	SerialNumber   string `plist:"SerialNumber,omitempty"`
	Data           []byte `plist:"Data,omitempty"`
}

type exportDocument struct {
	Version int            `plist:"Version"`
	Items   []ExportedItem `plist:"Items"`
}

func str(attrs secsvc.Attributes, key string) string {
	v, _ := attrs[key].(string)
	return v
}

// Export snapshots the given classes (all five when none are named) as a
// plist document. Pass includeData to carry the secret payloads; without
// it only the addressing attributes are exported.
func (kc *Keychain) Export(includeData bool, classes ...Class) ([]byte, error) {
	if len(classes) == 0 {
		classes = []Class{
			ClassGenericPassword, ClassInternetPassword,
			ClassKey, ClassCertificate, ClassIdentity,
		}
	}

	doc := exportDocument{Version: 1}
	for _, class := range classes {
		items, err := kc.Items(class)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			port, _ := it.Attrs[secsvc.AttrPort].(int)
			exp := ExportedItem{
				Class:          class.String(),
				PersistentRef:  it.Ref,
				Label:          str(it.Attrs, secsvc.AttrLabel),
				Service:        str(it.Attrs, secsvc.AttrService),
				Account:        str(it.Attrs, secsvc.AttrAccount),
				Server:         str(it.Attrs, secsvc.AttrServer),
				Port:           port,
				Protocol:       str(it.Attrs, secsvc.AttrProtocol),
				Path:           str(it.Attrs, secsvc.AttrPath),
				ApplicationTag: str(it.Attrs, secsvc.AttrApplicationTag),
				Subject:        str(it.Attrs, secsvc.AttrSubject),
				Issuer:         str(it.Attrs, secsvc.AttrIssuer),
				SerialNumber:   str(it.Attrs, secsvc.AttrSerialNumber),
			}
			if includeData {
				exp.Data = it.Data
			}
			doc.Items = append(doc.Items, exp)
		}
	}
	return plist.Marshal(&doc)
}

// Import stores every item of a plist export document carrying data and
// returns how many were written. Existing items are replaced.
func (kc *Keychain) Import(data []byte) (int, error) {
	var doc exportDocument
	if err := plist.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("%w: decoding export document: %v", ErrParam, err)
	}

	count := 0
	for _, item := range doc.Items {
		q, err := queryFromExport(item)
		if err != nil {
			return count, err
		}
		if len(item.Data) == 0 {
			continue // attribute-only export
		}
		if err := kc.Store(q, Blob(item.Data), nil); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func queryFromExport(item ExportedItem) (Query, error) {
	class, ok := ClassFromToken(item.Class)
	if !ok {
		return nil, fmt.Errorf("%w: unknown item class %q", ErrParam, item.Class)
	}
	switch class {
	case ClassGenericPassword:
		q := NewGenericPasswordQuery()
		q.SetService(item.Service)
		q.SetAccount(item.Account)
		q.SetLabel(item.Label)
		return q, nil
	case ClassInternetPassword:
		q := NewInternetPasswordQuery()
		q.SetServer(item.Server)
		q.SetPort(item.Port)
		q.SetProtocol(Protocol(item.Protocol))
		q.SetPath(item.Path)
		q.SetAccount(item.Account)
		q.SetLabel(item.Label)
		return q, nil
	case ClassKey:
		q := NewKeyQuery()
		q.SetApplicationTag(item.ApplicationTag)
		q.SetLabel(item.Label)
		return q, nil
	case ClassCertificate:
		q := NewCertificateQuery()
		q.SetSubject(item.Subject)
		q.SetIssuer(item.Issuer)
		q.SetSerialNumber(item.SerialNumber)
		q.SetLabel(item.Label)
		return q, nil
	default:
		q := NewIdentityQuery()
		q.SetSubject(item.Subject)
		q.SetIssuer(item.Issuer)
		q.SetSerialNumber(item.SerialNumber)
		q.SetLabel(item.Label)
		return q, nil
	}
}
