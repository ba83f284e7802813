// Package boltprim provides small primitives over BoltDB buckets.
package boltprim

import (
	"bytes"

	bolt "go.etcd.io/bbolt"
)

// BucketPutOrDelete Puts a value to a BoltDB bucket. If the value is empty the key is Deleted.
func BucketPutOrDelete(tx *bolt.Tx, bucket, key string, value []byte) error {
	b, err := tx.CreateBucketIfNotExists([]byte(bucket))
	if err != nil {
		return err
	}
	if len(value) == 0 {
		return b.Delete([]byte(key))
	}
	return b.Put([]byte(key), value)
}

// BucketGet retrieves a value from a bucket or returns nil.
func BucketGet(tx *bolt.Tx, bucket, key string) []byte {
	b := tx.Bucket([]byte(bucket))
	if b == nil {
		return nil
	}
	return b.Get([]byte(key))
}

// BucketDelete removes a key from a bucket. Missing buckets and keys are not errors.
func BucketDelete(tx *bolt.Tx, bucket, key string) error {
	b := tx.Bucket([]byte(bucket))
	if b == nil {
		return nil
	}
	return b.Delete([]byte(key))
}

// BucketKeysWithPrefix retrieves a list of keys with a prefix in a bucket
func BucketKeysWithPrefix(tx *bolt.Tx, bucket, prefix string) []string {
	b := tx.Bucket([]byte(bucket))
	if b == nil {
		return nil
	}
	c := b.Cursor()
	var results []string
	prefixBytes := []byte(prefix)
	for k, _ := c.Seek(prefixBytes); k != nil && bytes.HasPrefix(k, prefixBytes); k, _ = c.Next() {
		results = append(results, string(k))
	}
	return results
}
