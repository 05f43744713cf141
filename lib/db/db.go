package db

import "errors"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplBolt   Implementation = "bolt"
	ImplPebble Implementation = "pebble"
	ImplMaple  Implementation = "maple"
)

// Implementations lists every engine this package knows, in the order they are
// offered on the command line.
var Implementations = []Implementation{ImplBolt, ImplPebble, ImplMaple}

// ParseImplementation maps a user supplied engine name to an Implementation.
func ParseImplementation(name string) (Implementation, bool) {
	for _, impl := range Implementations {
		if string(impl) == name {
			return impl, true
		}
	}
	return "", false
}

// ErrStorageUnavailable is wrapped by every error that results from the engine
// not being openable at its location.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Feature represents database features as bit flags
type Feature uint64

const (
	FeaturePut         Feature = 1 << iota // Support for Put operations
	FeatureGet                             // Support for Get operations
	FeatureDelete                          // Support for Delete operations
	FeatureScan                            // Support for ordered prefix scans
	FeatureAtomicBatch                     // DeleteBatch removes all keys or none
	FeaturePersistent                      // Data survives Close and a new handle
)

func (f Feature) String() string {
	switch f {
	case FeaturePut:
		return "Put"
	case FeatureGet:
		return "Get"
	case FeatureDelete:
		return "Delete"
	case FeatureScan:
		return "Scan"
	case FeatureAtomicBatch:
		return "AtomicBatch"
	case FeaturePersistent:
		return "Persistent"
	default:
		return "Unknown"
	}
}

// Features expands a feature mask into its single flags.
func (f Feature) Features() []Feature {
	var list []Feature
	for bit := FeaturePut; bit <= FeaturePersistent; bit <<= 1 {
		if f&bit == bit {
			list = append(list, bit)
		}
	}
	return list
}

type DatabaseInfo struct {
	Open              bool           `json:"open"`
	Location          string         `json:"location"`
	SizeBytes         int64          `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for ordered key-value engines.
// Keys are compared byte-wise; ScanPrefix must visit them in ascending order.
// Every data operation opens the engine on demand, so a fresh or closed handle
// is always usable. Implementations are not required to be thread-safe, callers
// serialize access (see lstore).
type KVDB interface {

	// --------------------------------------------------------------------------
	// Lifecycle Operations
	// --------------------------------------------------------------------------

	// Open opens the engine at its location, creating it if missing.
	// Calling Open on an open handle is a no-op. Failures wrap ErrStorageUnavailable.
	Open() (err error)

	// Close releases the engine handle. Closing a closed handle is a no-op.
	Close() (err error)

	// Destroy removes all data at the engine location. The engine is opened
	// first (to verify the location is usable), then closed and removed.
	// The handle stays closed afterwards; the next data operation reopens an
	// empty engine.
	Destroy() (err error)

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Put inserts or overwrites the value stored under key.
	Put(key string, value []byte) (err error)

	// Delete removes key. Deleting an absent key succeeds.
	Delete(key string) (err error)

	// DeleteBatch removes all keys in one atomic step. Only engines that
	// report FeatureAtomicBatch implement it, others return an error.
	DeleteBatch(keys []string) (err error)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves a copy of the value for an exact key.
	// The boolean return value indicates whether a value for the key was found.
	Get(key string) (value []byte, loaded bool, err error)

	// ScanPrefix calls fn for every key starting with prefix in ascending byte
	// order. The scan stops at the first key not matching the prefix or as soon
	// as fn returns false. The empty prefix visits every key.
	ScanPrefix(prefix string, fn func(key string, value []byte) bool) (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)
}
