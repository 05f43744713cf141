package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/hKV/rpc/common"
)

// NewJSONSerializer creates a serializer writing one JSON object per message.
// Message types are written as their names, e.g. "nodesStartingIn", which
// makes requests easy to craft by hand for the http transport.
func NewJSONSerializer() IRPCSerializer {
	return jsonSerializerImpl{}
}

type jsonSerializerImpl struct{}

func (jsonSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Deserialize rejects unknown fields, a misspelled field would otherwise be
// dropped silently and e.g. turn a request into one for the root node.
func (jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	*msg = common.Message{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after message")
	}
	return nil
}
