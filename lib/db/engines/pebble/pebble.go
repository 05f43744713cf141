package pebble

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/ValentinKolb/hKV/lib/db/util"
	"github.com/cockroachdb/pebble"
)

// infoSampleSize bounds the number of entries GetInfo visits
const infoSampleSize = 10_000

const features = db.FeaturePut | db.FeatureGet | db.FeatureDelete | db.FeatureScan | db.FeatureAtomicBatch | db.FeaturePersistent

// --------------------------------------------------------------------------
// Core Pebble database structure
// --------------------------------------------------------------------------

type pebbleImpl struct {
	dir    string
	opts   *pebble.Options
	handle *pebble.DB // nil while closed
}

// DBOptions configures the pebble engine
type DBOptions struct {
	Dir    string        // directory of the LSM tree, created if missing
	Logger pebble.Logger // optional, pebble logs to stderr by default
}

// NewPebbleDB creates a pebble backed engine in opts.Dir. The directory is
// opened lazily by the first operation.
func NewPebbleDB(opts DBOptions) db.KVDB {
	pebbleOpts := &pebble.Options{}
	if opts.Logger != nil {
		pebbleOpts.Logger = opts.Logger
	}
	return &pebbleImpl{dir: opts.Dir, opts: pebbleOpts}
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

func (p *pebbleImpl) Open() error {
	if p.handle != nil {
		return nil
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("%w: could not create %s: %v", db.ErrStorageUnavailable, p.dir, err)
	}
	handle, err := pebble.Open(p.dir, p.opts)
	if err != nil {
		return fmt.Errorf("%w: could not open pebble store at %s: %v", db.ErrStorageUnavailable, p.dir, err)
	}
	p.handle = handle
	return nil
}

func (p *pebbleImpl) Close() error {
	if p.handle == nil {
		return nil
	}
	err := p.handle.Close()
	p.handle = nil
	return err
}

func (p *pebbleImpl) Destroy() error {
	if err := p.Open(); err != nil {
		return err
	}
	if err := p.Close(); err != nil {
		return fmt.Errorf("could not close store: %w", err)
	}
	if err := os.RemoveAll(p.dir); err != nil {
		return fmt.Errorf("could not remove %s: %w", p.dir, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.KVDB)
// --------------------------------------------------------------------------

func (p *pebbleImpl) Put(key string, value []byte) error {
	if err := p.Open(); err != nil {
		return err
	}
	return p.handle.Set([]byte(key), value, pebble.Sync)
}

func (p *pebbleImpl) Get(key string) ([]byte, bool, error) {
	if err := p.Open(); err != nil {
		return nil, false, err
	}
	v, closer, err := p.handle.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	// v is only valid until closer is closed
	value := make([]byte, len(v))
	copy(value, v)
	return value, true, nil
}

func (p *pebbleImpl) Delete(key string) error {
	if err := p.Open(); err != nil {
		return err
	}
	return p.handle.Delete([]byte(key), pebble.Sync)
}

func (p *pebbleImpl) DeleteBatch(keys []string) error {
	if err := p.Open(); err != nil {
		return err
	}
	batch := p.handle.NewBatch()
	defer batch.Close()

	for _, key := range keys {
		if err := batch.Delete([]byte(key), nil); err != nil {
			return fmt.Errorf("could not delete %q: %w", key, err)
		}
	}
	return batch.Commit(pebble.Sync)
}

func (p *pebbleImpl) ScanPrefix(prefix string, fn func(key string, value []byte) bool) error {
	if err := p.Open(); err != nil {
		return err
	}

	iter := p.handle.NewIter(&pebble.IterOptions{LowerBound: []byte(prefix)})
	for valid := iter.SeekGE([]byte(prefix)); valid; valid = iter.Next() {
		key := string(iter.Key())
		if !strings.HasPrefix(key, prefix) {
			break
		}
		if !fn(key, bytes.Clone(iter.Value())) {
			break
		}
	}
	if err := iter.Error(); err != nil {
		_ = iter.Close()
		return err
	}
	return iter.Close()
}

func (p *pebbleImpl) SupportsFeature(feature db.Feature) bool {
	return features&feature == feature
}

// GetInfo reports the disk usage of the LSM tree and samples the first entries.
func (p *pebbleImpl) GetInfo() db.DatabaseInfo {
	info := db.DatabaseInfo{
		Open:              p.handle != nil,
		Location:          p.dir,
		DbType:            db.ImplPebble,
		SupportedFeatures: features.Features(),
	}
	if p.handle == nil {
		return info
	}

	metrics := p.handle.Metrics()
	info.SizeBytes = int64(metrics.DiskSpaceUsage())

	sample, err := util.SampleEntries(p, infoSampleSize)
	if err != nil {
		return info
	}
	info.Metadata = &struct {
		util.Sample
		Levels     int   `json:"levels"`
		MemTableSz int64 `json:"memtable_size"`
	}{sample, len(metrics.Levels), int64(metrics.MemTable.Size)}
	return info
}
