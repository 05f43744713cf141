package bolt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/ValentinKolb/hKV/lib/db/util"
	bolt "go.etcd.io/bbolt"
)

// rootBucket holds every entry. bbolt has no keys outside of buckets.
var rootBucket = []byte{0}

// infoSampleSize bounds the number of entries GetInfo visits
const infoSampleSize = 10_000

// --------------------------------------------------------------------------
// Core Bolt database structure
// --------------------------------------------------------------------------

type boltImpl struct {
	path    string
	timeout time.Duration
	handle  *bolt.DB // nil while closed
}

// DBOptions configures the bolt engine
type DBOptions struct {
	Path    string        // database file, parent directories are created
	Timeout time.Duration // how long Open waits for the file lock (0 = forever)
}

// NewBoltDB creates a bbolt backed engine at opts.Path. The file is opened
// lazily by the first operation.
func NewBoltDB(opts DBOptions) db.KVDB {
	return &boltImpl{path: opts.Path, timeout: opts.Timeout}
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

func (b *boltImpl) Open() error {
	if b.handle != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("%w: could not create directory for %s: %v", db.ErrStorageUnavailable, b.path, err)
	}

	handle, err := bolt.Open(b.path, 0o666, &bolt.Options{Timeout: b.timeout})
	if err != nil {
		return fmt.Errorf("%w: could not open bbolt store at %s: %v", db.ErrStorageUnavailable, b.path, err)
	}

	if err := handle.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	}); err != nil {
		_ = handle.Close()
		return fmt.Errorf("%w: could not ensure root bucket exists: %v", db.ErrStorageUnavailable, err)
	}

	b.handle = handle
	return nil
}

func (b *boltImpl) Close() error {
	if b.handle == nil {
		return nil
	}
	err := b.handle.Close()
	b.handle = nil
	return err
}

func (b *boltImpl) Destroy() error {
	if err := b.Open(); err != nil {
		return err
	}
	if err := b.Close(); err != nil {
		return fmt.Errorf("could not close store: %w", err)
	}
	if err := os.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not remove %s: %w", b.path, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.KVDB)
// --------------------------------------------------------------------------

func (b *boltImpl) Put(key string, value []byte) error {
	if err := b.Open(); err != nil {
		return err
	}
	return b.handle.Update(func(tx *bolt.Tx) error {
		// bbolt keeps a reference to value until the transaction commits
		return tx.Bucket(rootBucket).Put([]byte(key), bytes.Clone(value))
	})
}

func (b *boltImpl) Get(key string) (value []byte, loaded bool, err error) {
	if err := b.Open(); err != nil {
		return nil, false, err
	}
	err = b.handle.View(func(tx *bolt.Tx) error {
		k, v := tx.Bucket(rootBucket).Cursor().Seek([]byte(key))
		if k == nil || !bytes.Equal(k, []byte(key)) {
			return nil
		}
		// v is only valid inside the transaction
		value = make([]byte, len(v))
		copy(value, v)
		loaded = true
		return nil
	})
	return value, loaded, err
}

func (b *boltImpl) Delete(key string) error {
	if err := b.Open(); err != nil {
		return err
	}
	return b.handle.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).Delete([]byte(key))
	})
}

func (b *boltImpl) DeleteBatch(keys []string) error {
	if err := b.Open(); err != nil {
		return err
	}
	return b.handle.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(rootBucket)
		for _, key := range keys {
			if err := bucket.Delete([]byte(key)); err != nil {
				return fmt.Errorf("could not delete %q: %w", key, err)
			}
		}
		return nil
	})
}

func (b *boltImpl) ScanPrefix(prefix string, fn func(key string, value []byte) bool) error {
	if err := b.Open(); err != nil {
		return err
	}
	return b.handle.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(rootBucket).Cursor()
		for k, v := c.Seek([]byte(prefix)); k != nil; k, v = c.Next() {
			key := string(k)
			if !strings.HasPrefix(key, prefix) {
				return nil
			}
			if !fn(key, bytes.Clone(v)) {
				return nil
			}
		}
		return nil
	})
}

func (b *boltImpl) SupportsFeature(feature db.Feature) bool {
	return features&feature == feature
}

const features = db.FeaturePut | db.FeatureGet | db.FeatureDelete | db.FeatureScan | db.FeatureAtomicBatch | db.FeaturePersistent

// GetInfo reports the file size and samples the first entries.
func (b *boltImpl) GetInfo() db.DatabaseInfo {
	info := db.DatabaseInfo{
		Open:              b.handle != nil,
		Location:          b.path,
		DbType:            db.ImplBolt,
		SupportedFeatures: features.Features(),
	}

	if stat, err := os.Stat(b.path); err == nil {
		info.SizeBytes = stat.Size()
	}

	if b.handle == nil {
		return info
	}

	sample, err := util.SampleEntries(b, infoSampleSize)
	if err != nil {
		return info
	}
	stats := b.handle.Stats()
	info.Metadata = &struct {
		util.Sample
		FreePages int `json:"free_pages"`
		OpenTxN   int `json:"open_read_tx"`
	}{sample, stats.FreePageN, stats.OpenTxN}
	return info
}
