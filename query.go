package keyward

import (
	"github.com/keyward/keyward/authctx"
	"github.com/keyward/keyward/secsvc"
)

// Query is a finished, class-specialized attribute set. The five query
// builder types are the only implementations; the unexported method keeps
// the set closed. Attributes not legal for a builder's class simply do not
// exist on it.
type Query interface {
	Class() Class

	// lowered returns the untyped attribute dictionary for the service.
	lowered() secsvc.Attributes
	// serviceQuery returns the read/delete form including the match
	// limit, persistent reference and authentication callback.
	serviceQuery() secsvc.Query
}

// baseQuery carries the attributes every item class shares. Setting a
// zero value removes the attribute: absent and empty are the same thing
// in the dictionary protocol.
type baseQuery struct {
	class Class
	attrs secsvc.Attributes
	auth  authctx.Context
	ref   string
	limit int
}

func newBaseQuery(class Class) baseQuery {
	return baseQuery{class: class, attrs: secsvc.Attributes{}}
}

// Class returns the item class this query is specialized to.
func (q *baseQuery) Class() Class { return q.class }

func (q *baseQuery) setAttr(key string, value any) {
	switch v := value.(type) {
	case string:
		if v == "" {
			delete(q.attrs, key)
			return
		}
	case int:
		if v == 0 {
			delete(q.attrs, key)
			return
		}
	case []byte:
		if len(v) == 0 {
			delete(q.attrs, key)
			return
		}
	case bool:
		if !v {
			delete(q.attrs, key)
			return
		}
	}
	q.attrs[key] = value
}

func (q *baseQuery) strAttr(key string) string {
	v, _ := q.attrs[key].(string)
	return v
}

func (q *baseQuery) intAttr(key string) int {
	v, _ := q.attrs[key].(int)
	return v
}

func (q *baseQuery) bytesAttr(key string) []byte {
	v, _ := q.attrs[key].([]byte)
	return v
}

func (q *baseQuery) boolAttr(key string) bool {
	v, _ := q.attrs[key].(bool)
	return v
}

// SetLabel sets the item's user-visible label.
func (q *baseQuery) SetLabel(label string) { q.setAttr(secsvc.AttrLabel, label) }
func (q *baseQuery) Label() string         { return q.strAttr(secsvc.AttrLabel) }

// SetAccessGroup restricts the item to an application access group.
func (q *baseQuery) SetAccessGroup(group string) { q.setAttr(secsvc.AttrAccessGroup, group) }
func (q *baseQuery) AccessGroup() string         { return q.strAttr(secsvc.AttrAccessGroup) }

// SetSynchronizable marks the item for cross-device sync where the
// service supports it.
func (q *baseQuery) SetSynchronizable(sync bool) { q.setAttr(secsvc.AttrSynchronizable, sync) }
func (q *baseQuery) Synchronizable() bool        { return q.boolAttr(secsvc.AttrSynchronizable) }

// SetAuthenticationContext attaches the context that drives the
// user-presence prompt when reading items stored under an access control.
func (q *baseQuery) SetAuthenticationContext(ctx authctx.Context) { q.auth = ctx }

// SetPersistentRef restricts the query to the item with the given
// persistent reference.
func (q *baseQuery) SetPersistentRef(ref string) { q.ref = ref }
func (q *baseQuery) PersistentRef() string       { return q.ref }

// SetMatchLimit caps how many items a read may return (0 = no limit).
func (q *baseQuery) SetMatchLimit(n int) { q.limit = n }

func (q *baseQuery) lowered() secsvc.Attributes {
	attrs := q.attrs.Clone()
	attrs[secsvc.AttrClass] = q.class.String()
	return attrs
}

func (q *baseQuery) serviceQuery() secsvc.Query {
	sq := secsvc.Query{
		Class: q.class.String(),
		Attrs: q.attrs.Clone(),
		Ref:   q.ref,
		Limit: q.limit,
	}
	if q.auth != nil {
		sq.Authorize = q.auth.Authenticate
	}
	return sq
}

// GenericPasswordQuery addresses application secrets by service and
// account.
type GenericPasswordQuery struct {
	baseQuery
}

func NewGenericPasswordQuery() *GenericPasswordQuery {
	return &GenericPasswordQuery{newBaseQuery(ClassGenericPassword)}
}

func (q *GenericPasswordQuery) SetService(service string) { q.setAttr(secsvc.AttrService, service) }
func (q *GenericPasswordQuery) Service() string           { return q.strAttr(secsvc.AttrService) }

func (q *GenericPasswordQuery) SetAccount(account string) { q.setAttr(secsvc.AttrAccount, account) }
func (q *GenericPasswordQuery) Account() string           { return q.strAttr(secsvc.AttrAccount) }

// SetGeneric sets the free-form application data attribute.
func (q *GenericPasswordQuery) SetGeneric(data []byte) { q.setAttr(secsvc.AttrGeneric, data) }
func (q *GenericPasswordQuery) Generic() []byte        { return q.bytesAttr(secsvc.AttrGeneric) }

// Protocol is the scheme of an internet password item.
type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
	ProtocolFTP   Protocol = "ftp"
	ProtocolSSH   Protocol = "ssh"
	ProtocolSMB   Protocol = "smb"
	ProtocolIMAP  Protocol = "imap"
	ProtocolPOP3  Protocol = "pop3"
	ProtocolLDAP  Protocol = "ldap"
)

// InternetPasswordQuery addresses credentials for network endpoints.
type InternetPasswordQuery struct {
	baseQuery
}

func NewInternetPasswordQuery() *InternetPasswordQuery {
	return &InternetPasswordQuery{newBaseQuery(ClassInternetPassword)}
}

func (q *InternetPasswordQuery) SetAccount(account string) { q.setAttr(secsvc.AttrAccount, account) }
func (q *InternetPasswordQuery) Account() string           { return q.strAttr(secsvc.AttrAccount) }

func (q *InternetPasswordQuery) SetServer(server string) { q.setAttr(secsvc.AttrServer, server) }
func (q *InternetPasswordQuery) Server() string          { return q.strAttr(secsvc.AttrServer) }

func (q *InternetPasswordQuery) SetPort(port int) { q.setAttr(secsvc.AttrPort, port) }
func (q *InternetPasswordQuery) Port() int        { return q.intAttr(secsvc.AttrPort) }

func (q *InternetPasswordQuery) SetProtocol(p Protocol) { q.setAttr(secsvc.AttrProtocol, string(p)) }
func (q *InternetPasswordQuery) Protocol() Protocol {
	return Protocol(q.strAttr(secsvc.AttrProtocol))
}

func (q *InternetPasswordQuery) SetPath(path string) { q.setAttr(secsvc.AttrPath, path) }
func (q *InternetPasswordQuery) Path() string        { return q.strAttr(secsvc.AttrPath) }

func (q *InternetPasswordQuery) SetAuthenticationType(t string) { q.setAttr(secsvc.AttrAuthType, t) }
func (q *InternetPasswordQuery) AuthenticationType() string     { return q.strAttr(secsvc.AttrAuthType) }

func (q *InternetPasswordQuery) SetSecurityDomain(d string) { q.setAttr(secsvc.AttrSecurityDomain, d) }
func (q *InternetPasswordQuery) SecurityDomain() string     { return q.strAttr(secsvc.AttrSecurityDomain) }

// KeyClass distinguishes public, private and symmetric key items.
type KeyClass string

const (
	KeyClassPublic    KeyClass = "public"
	KeyClassPrivate   KeyClass = "private"
	KeyClassSymmetric KeyClass = "symmetric"
)

// KeyType is the algorithm family of a key item.
type KeyType string

const (
	KeyTypeRSA KeyType = "rsa"
	KeyTypeEC  KeyType = "ec"
	KeyTypeAES KeyType = "aes"
)

// KeyUsage is the set of operations a key item may perform.
type KeyUsage int

const (
	UsageSign KeyUsage = 1 << iota
	UsageVerify
	UsageEncrypt
	UsageDecrypt
	UsageDerive
	UsageWrap
	UsageUnwrap
)

// KeyQuery addresses cryptographic key items.
type KeyQuery struct {
	baseQuery
}

func NewKeyQuery() *KeyQuery {
	return &KeyQuery{newBaseQuery(ClassKey)}
}

func (q *KeyQuery) SetKeyClass(kc KeyClass) { q.setAttr(secsvc.AttrKeyClass, string(kc)) }
func (q *KeyQuery) KeyClass() KeyClass      { return KeyClass(q.strAttr(secsvc.AttrKeyClass)) }

func (q *KeyQuery) SetKeyType(kt KeyType) { q.setAttr(secsvc.AttrKeyType, string(kt)) }
func (q *KeyQuery) KeyType() KeyType      { return KeyType(q.strAttr(secsvc.AttrKeyType)) }

func (q *KeyQuery) SetKeySizeBits(bits int) { q.setAttr(secsvc.AttrKeySizeBits, bits) }
func (q *KeyQuery) KeySizeBits() int        { return q.intAttr(secsvc.AttrKeySizeBits) }

// SetApplicationTag names the key for later lookup; the usual form is a
// reverse-DNS string.
func (q *KeyQuery) SetApplicationTag(tag string) { q.setAttr(secsvc.AttrApplicationTag, tag) }
func (q *KeyQuery) ApplicationTag() string       { return q.strAttr(secsvc.AttrApplicationTag) }

func (q *KeyQuery) SetApplicationLabel(label string) { q.setAttr(secsvc.AttrApplicationLabel, label) }
func (q *KeyQuery) ApplicationLabel() string         { return q.strAttr(secsvc.AttrApplicationLabel) }

// SetPermanent marks the key as persisted rather than ephemeral.
func (q *KeyQuery) SetPermanent(p bool) { q.setAttr(secsvc.AttrPermanent, p) }
func (q *KeyQuery) Permanent() bool     { return q.boolAttr(secsvc.AttrPermanent) }

func (q *KeyQuery) SetUsage(u KeyUsage) { q.setAttr(secsvc.AttrKeyUsage, int(u)) }
func (q *KeyQuery) Usage() KeyUsage     { return KeyUsage(q.intAttr(secsvc.AttrKeyUsage)) }

// CertificateQuery addresses X.509 certificate items.
type CertificateQuery struct {
	baseQuery
}

func NewCertificateQuery() *CertificateQuery {
	return &CertificateQuery{newBaseQuery(ClassCertificate)}
}

func (q *CertificateQuery) SetSubject(subject string) { q.setAttr(secsvc.AttrSubject, subject) }
func (q *CertificateQuery) Subject() string           { return q.strAttr(secsvc.AttrSubject) }

func (q *CertificateQuery) SetIssuer(issuer string) { q.setAttr(secsvc.AttrIssuer, issuer) }
func (q *CertificateQuery) Issuer() string          { return q.strAttr(secsvc.AttrIssuer) }

// SetSerialNumber takes the decimal string form of the serial.
func (q *CertificateQuery) SetSerialNumber(serial string) { q.setAttr(secsvc.AttrSerialNumber, serial) }
func (q *CertificateQuery) SerialNumber() string          { return q.strAttr(secsvc.AttrSerialNumber) }

// IdentityQuery addresses certificate-plus-private-key items. Matching is
// by the certificate side's attributes.
type IdentityQuery struct {
	baseQuery
}

func NewIdentityQuery() *IdentityQuery {
	return &IdentityQuery{newBaseQuery(ClassIdentity)}
}

func (q *IdentityQuery) SetSubject(subject string) { q.setAttr(secsvc.AttrSubject, subject) }
func (q *IdentityQuery) Subject() string           { return q.strAttr(secsvc.AttrSubject) }

func (q *IdentityQuery) SetIssuer(issuer string) { q.setAttr(secsvc.AttrIssuer, issuer) }
func (q *IdentityQuery) Issuer() string          { return q.strAttr(secsvc.AttrIssuer) }

// SetSerialNumber takes the decimal string form of the serial.
func (q *IdentityQuery) SetSerialNumber(serial string) { q.setAttr(secsvc.AttrSerialNumber, serial) }
func (q *IdentityQuery) SerialNumber() string          { return q.strAttr(secsvc.AttrSerialNumber) }
