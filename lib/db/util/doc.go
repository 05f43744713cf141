// Package util provides helpers shared by the db.KVDB engines.
//
// The package contains:
//   - SizeHistogram: exponential buckets for estimating value size percentiles
//   - SampleEntries: walks the first entries of an engine and summarizes them,
//     used by the engines to fill the metadata of db.DatabaseInfo
package util
