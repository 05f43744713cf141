package serializer

import (
	"bytes"
	"encoding/gob"
	"sync"

	"github.com/ValentinKolb/hKV/rpc/common"
)

// NewGOBSerializer creates a serializer using encoding/gob. Every message is
// a self-contained gob stream including the type description, so messages
// can be decoded in any order and on any connection.
func NewGOBSerializer() IRPCSerializer {
	return gobSerializerImpl{}
}

type gobSerializerImpl struct{}

var gobBuffers = sync.Pool{New: func() any { return new(bytes.Buffer) }}

func (gobSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	buf := gobBuffers.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		gobBuffers.Put(buf)
	}()

	if err := gob.NewEncoder(buf).Encode(msg); err != nil {
		return nil, err
	}
	// the buffer goes back to the pool
	return bytes.Clone(buf.Bytes()), nil
}

func (gobSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	*msg = common.Message{}
	return gob.NewDecoder(bytes.NewReader(b)).Decode(msg)
}
