// Package serializer turns common.Message values into bytes and back. The
// transports only move opaque byte slices, so client and server must agree on
// the serializer (hkv --serializer).
//
// Implementations:
//
//   - binary: Flag based custom format. Only present fields are written, which
//     keeps control requests at three bytes. It is the only format that keeps
//     the difference between nil and empty slices, e.g. an empty search result.
//
//   - json: encoding/json with message types written as names. Useful when
//     debugging the http transport with curl.
//
//   - gob: encoding/gob. Every message carries its own type description, which
//     makes it the largest and slowest of the three.
//
// Clients must not rely on an empty Paths slice surviving the round trip; the
// rpc client normalizes nil paths of successful responses to empty slices.
//
// All implementations are stateless and safe for concurrent use.
//
// Usage:
//
//	s, _ := serializer.ByName("binary")
//	data, err := s.Serialize(*common.NewReadRequest("car", "Vehicle.Speed"))
//	var resp common.Message
//	err = s.Deserialize(received, &resp)
package serializer
