package maple

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/ValentinKolb/hKV/lib/db/util"
	"github.com/emirpasic/gods/maps/treemap"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	magicNum     = "MAPLEDB\x00" // File format identifier
	mapleVersion = 4             // Snapshot version
)

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// mapleImpl keeps all entries in a red-black tree ordered by key bytes.
// When a snapshot path is configured the tree is written on Close and read on Open.
type mapleImpl struct {
	path string       // snapshot file, empty for a pure in-memory engine
	data *treemap.Map // nil until opened, and while closed if path is set
	open bool
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	// Path of the snapshot file. Empty keeps the data only in memory, it then
	// survives Close but not the process.
	Path string
}

// DefaultOptions returns the default mapleImpl options (in memory only)
func DefaultOptions() *DBOptions {
	return &DBOptions{}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new MapleDB instance with the specified options (optional).
// The engine is opened lazily by the first operation.
func NewMapleDB(opts *DBOptions) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &mapleImpl{path: opts.Path}
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

func (maple *mapleImpl) Open() error {
	if maple.open {
		return nil
	}

	switch {
	case maple.path != "":
		if err := os.MkdirAll(filepath.Dir(maple.path), 0o755); err != nil {
			return fmt.Errorf("%w: %v", db.ErrStorageUnavailable, err)
		}
		data := treemap.NewWithStringComparator()
		if err := loadSnapshot(maple.path, data); err != nil {
			return fmt.Errorf("%w: %v", db.ErrStorageUnavailable, err)
		}
		maple.data = data
	case maple.data == nil:
		maple.data = treemap.NewWithStringComparator()
	}

	maple.open = true
	return nil
}

func (maple *mapleImpl) Close() error {
	if !maple.open {
		return nil
	}
	if maple.path != "" {
		if err := saveSnapshot(maple.path, maple.data); err != nil {
			return fmt.Errorf("could not save snapshot: %w", err)
		}
		maple.data = nil
	}
	maple.open = false
	return nil
}

func (maple *mapleImpl) Destroy() error {
	if err := maple.Open(); err != nil {
		return err
	}
	maple.data = nil
	maple.open = false
	if maple.path == "" {
		return nil
	}
	if err := os.Remove(maple.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not remove snapshot: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.KVDB)
// --------------------------------------------------------------------------

func (maple *mapleImpl) Put(key string, value []byte) error {
	if err := maple.Open(); err != nil {
		return err
	}
	maple.data.Put(key, cloneBytes(value))
	return nil
}

func (maple *mapleImpl) Get(key string) ([]byte, bool, error) {
	if err := maple.Open(); err != nil {
		return nil, false, err
	}
	v, ok := maple.data.Get(key)
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(v.([]byte)), true, nil
}

func (maple *mapleImpl) Delete(key string) error {
	if err := maple.Open(); err != nil {
		return err
	}
	maple.data.Remove(key)
	return nil
}

func (maple *mapleImpl) DeleteBatch(keys []string) error {
	return fmt.Errorf("maple: %s is not supported", db.FeatureAtomicBatch)
}

func (maple *mapleImpl) ScanPrefix(prefix string, fn func(key string, value []byte) bool) error {
	if err := maple.Open(); err != nil {
		return err
	}

	k, v := maple.data.Ceiling(prefix)
	for k != nil {
		key := k.(string)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		if !fn(key, cloneBytes(v.([]byte))) {
			return nil
		}
		// smallest key strictly greater than key
		k, v = maple.data.Ceiling(key + "\x00")
	}
	return nil
}

func (maple *mapleImpl) SupportsFeature(feature db.Feature) bool {
	return maple.features()&feature == feature
}

func (maple *mapleImpl) features() db.Feature {
	supported := db.FeaturePut | db.FeatureGet | db.FeatureDelete | db.FeatureScan
	if maple.path != "" {
		supported |= db.FeaturePersistent
	}
	return supported
}

// GetInfo returns statistics about the database. Sizes are exact since every
// entry is visited.
func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	info := db.DatabaseInfo{
		Open:              maple.open,
		Location:          maple.path,
		DbType:            db.ImplMaple,
		SupportedFeatures: maple.features().Features(),
	}

	if !maple.open {
		return info
	}
	sample, err := util.SampleEntries(maple, 0)
	if err != nil {
		return info
	}
	info.SizeBytes = sample.KeyBytes + sample.ValueBytes
	info.Metadata = sample
	return info
}

// --------------------------------------------------------------------------
// Snapshot Encoding
// --------------------------------------------------------------------------

// saveSnapshot writes all entries to a temporary file and renames it over path.
//
// Layout (little endian): magic, version(u8), count(u64), then per entry
// keyLen(u32) key valueLen(u32) value in ascending key order.
func saveSnapshot(path string, data *treemap.Map) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := writeSnapshot(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeSnapshot(w io.Writer, data *treemap.Map) error {
	// Use a buffered writer for better performance
	bw := bufio.NewWriterSize(w, 1024*1024)

	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint8(mapleVersion)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint64(data.Size())); err != nil {
		return err
	}

	it := data.Iterator()
	for it.Next() {
		key := it.Key().(string)
		value := it.Value().([]byte)

		if err := binary.Write(bw, binary.LittleEndian, uint32(len(key))); err != nil {
			return err
		}
		if _, err := bw.WriteString(key); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(value))); err != nil {
			return err
		}
		if _, err := bw.Write(value); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// loadSnapshot fills data from the snapshot at path. A missing file is an empty database.
func loadSnapshot(path string, data *treemap.Map) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return readSnapshot(f, data)
}

func readSnapshot(r io.Reader, data *treemap.Map) error {
	br := bufio.NewReaderSize(r, 1024*1024)

	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return err
	}
	if string(magicBytes) != magicNum {
		return fmt.Errorf("invalid file format: magic number mismatch")
	}

	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}
	if int(version) != mapleVersion {
		return fmt.Errorf("unsupported version: %d (expected %d)", version, mapleVersion)
	}

	var count uint64
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return err
	}

	for i := uint64(0); i < count; i++ {
		key, err := readChunk(br)
		if err != nil {
			return err
		}
		value, err := readChunk(br)
		if err != nil {
			return err
		}
		data.Put(string(key), value)
	}
	return nil
}

func readChunk(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func cloneBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
