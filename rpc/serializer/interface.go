package serializer

import "github.com/ValentinKolb/hKV/rpc/common"

// IRPCSerializer is the interface for all Message serializers.
// Implementations are stateless and safe for concurrent use.
type IRPCSerializer interface {
	// Serialize serializes a Message into a byte array
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize decodes b into msg. Fields of msg not present in b are reset.
	Deserialize(b []byte, msg *common.Message) error
}

// Names lists the serializers selectable by name
var Names = []string{"binary", "json", "gob"}

// ByName returns the serializer registered under name
func ByName(name string) (IRPCSerializer, bool) {
	switch name {
	case "binary":
		return NewBinarySerializer(), true
	case "json":
		return NewJSONSerializer(), true
	case "gob":
		return NewGOBSerializer(), true
	default:
		return nil, false
	}
}
