package secsvc

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-kit/kit/log"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/keyward/keyward/internal/boltprim"
	"github.com/keyward/keyward/internal/vaultcrypt"
)

const (
	itemsBucket = "keychain_items"
	metaBucket  = "keychain_meta"

	metaKDFKey   = "kdf"
	metaCheckKey = "check"
)

// ErrPassphrase is returned by OpenBolt when the passphrase does not open
// an existing store.
var ErrPassphrase = errors.New("passphrase does not match store")

// BoltService is a file-backed Service on BoltDB. Items are stored as CBOR
// records keyed by "<class>/<ref>"; secret data is sealed with a key
// derived from the store passphrase. Attribute dictionaries are stored in
// the clear so queries work without unsealing anything.
type BoltService struct {
	db     *bolt.DB
	key    []byte
	logger log.Logger
}

type boltItem struct {
	Attrs Attributes `cbor:"attrs"`
	Data  []byte     `cbor:"data"`
}

// OpenBolt opens (or creates) the store at path. The passphrase must be
// non-empty; for a new store fresh KDF parameters are generated and a
// sealed check value is written so a later open can verify the passphrase.
func OpenBolt(path string, passphrase []byte, logger log.Logger) (*BoltService, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: empty passphrase", ErrParam)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}

	s := &BoltService{db: db, logger: logger}
	if err := s.unlock(passphrase); err != nil {
		db.Close()
		return nil, err
	}
	logger.Log("msg", "opened keychain store", "path", path)
	return s, nil
}

// Close releases the underlying database and wipes the store key.
func (s *BoltService) Close() error {
	vaultcrypt.Zero(s.key)
	return s.db.Close()
}

// unlock derives the store key, creating KDF parameters and the check
// value on first open and verifying the passphrase on subsequent opens.
func (s *BoltService) unlock(passphrase []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		var params vaultcrypt.KDFParams
		raw := boltprim.BucketGet(tx, metaBucket, metaKDFKey)
		if raw == nil {
			var err error
			if params, err = vaultcrypt.DefaultKDFParams(); err != nil {
				return err
			}
			enc, err := cbor.Marshal(&params)
			if err != nil {
				return err
			}
			if err := boltprim.BucketPutOrDelete(tx, metaBucket, metaKDFKey, enc); err != nil {
				return err
			}
		} else if err := cbor.Unmarshal(raw, &params); err != nil {
			return fmt.Errorf("decoding store KDF parameters: %w", err)
		}

		s.key = vaultcrypt.DeriveKey(passphrase, params)

		check := boltprim.BucketGet(tx, metaBucket, metaCheckKey)
		if check == nil {
			sealed, err := vaultcrypt.Seal(s.key, []byte("keyward"), []byte(metaCheckKey))
			if err != nil {
				return err
			}
			return boltprim.BucketPutOrDelete(tx, metaBucket, metaCheckKey, sealed)
		}
		if _, err := vaultcrypt.Open(s.key, check, []byte(metaCheckKey)); err != nil {
			return ErrPassphrase
		}
		return nil
	})
}

func boltKey(class, ref string) string {
	return strings.Join([]string{class, ref}, "/")
}

// classPrefix is the item-bucket key prefix for a class; an empty class
// scans every item.
func classPrefix(class string) string {
	if class == "" {
		return ""
	}
	return class + "/"
}

func (s *BoltService) Add(attrs Attributes, data []byte) (string, error) {
	class, _ := attrs[AttrClass].(string)
	if class == "" {
		return "", ErrParam
	}

	ref := strings.ToUpper(uuid.NewString())
	stored := attrs.Clone()
	now := int(time.Now().Unix())
	stored[AttrCreated] = now
	stored[AttrModified] = now

	sealed, err := vaultcrypt.Seal(s.key, data, []byte(ref))
	if err != nil {
		return "", err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		for _, key := range boltprim.BucketKeysWithPrefix(tx, itemsBucket, class+"/") {
			it, err := decodeBoltItem(boltprim.BucketGet(tx, itemsBucket, key))
			if err != nil {
				return err
			}
			if duplicates(class, it.Attrs, stored) {
				return ErrDuplicate
			}
		}
		enc, err := cbor.Marshal(&boltItem{Attrs: stored, Data: sealed})
		if err != nil {
			return err
		}
		return boltprim.BucketPutOrDelete(tx, itemsBucket, boltKey(class, ref), enc)
	})
	if err != nil {
		return "", err
	}
	return ref, nil
}

func (s *BoltService) Copy(q Query) ([]Item, error) {
	var out []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, key := range boltprim.BucketKeysWithPrefix(tx, itemsBucket, classPrefix(q.Class)) {
			ref := refFromBoltKey(key)
			it, err := decodeBoltItem(boltprim.BucketGet(tx, itemsBucket, key))
			if err != nil {
				return err
			}
			if !match(q, ref, it.Attrs) {
				continue
			}
			if err := authorize(q, it.Attrs); err != nil {
				return err
			}
			data, err := vaultcrypt.Open(s.key, it.Data, []byte(ref))
			if err != nil {
				return fmt.Errorf("unsealing item %s: %w", ref, err)
			}
			out = append(out, Item{Ref: ref, Attrs: it.Attrs, Data: data})
			if q.Limit > 0 && len(out) == q.Limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *BoltService) Delete(q Query) (int, error) {
	count := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, key := range boltprim.BucketKeysWithPrefix(tx, itemsBucket, classPrefix(q.Class)) {
			it, err := decodeBoltItem(boltprim.BucketGet(tx, itemsBucket, key))
			if err != nil {
				return err
			}
			if !match(q, refFromBoltKey(key), it.Attrs) {
				continue
			}
			if err := boltprim.BucketDelete(tx, itemsBucket, key); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Log("msg", "deleted keychain items", "count", count)
	}
	return count, nil
}

func refFromBoltKey(key string) string {
	if i := strings.IndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return key
}

func decodeBoltItem(raw []byte) (*boltItem, error) {
	if raw == nil {
		return nil, ErrNotFound
	}
	it := new(boltItem)
	if err := cbor.Unmarshal(raw, it); err != nil {
		return nil, fmt.Errorf("decoding item record: %w", err)
	}
	it.Attrs.Normalize()
	return it, nil
}
