// Package keyward is a strongly-typed convenience layer over a secure
// credential store. Queries are built with per-item-class builders that
// expose only the attributes legal for that class, so an illegal attribute
// combination is a compile error rather than a runtime status code.
//
// Values round-trip through small codec types (Password, SymmetricKey,
// ECPrivateKey, CertificateValue, Identity, ...) that map domain types to
// their canonical byte encodings. Storage itself is delegated to a
// secsvc.Service: the macOS Keychain, the OS keyring, an encrypted
// Bolt-backed file store, or an in-memory store for tests.
//
//	svc := secsvc.Memory()
//	kc := keyward.New(svc)
//
//	q := keyward.NewGenericPasswordQuery()
//	q.SetService("com.example.app")
//	q.SetAccount("OpenAI")
//
//	err := kc.Store(q, keyward.Password("8e9c0a7f"), nil)
//	pw, found, err := keyward.Retrieve[keyward.Password](kc, q)
//
// Reads of an item stored under an access policy with an authentication
// constraint require an authctx.Context on the query.
package keyward
