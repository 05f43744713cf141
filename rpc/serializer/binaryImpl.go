package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout: MsgType (1 byte) | flags (2 bytes) | present fields in flag order.
// Strings and byte slices are prefixed with a 4 byte length, Layers and Code
// take 8 bytes, Paths is a 4 byte count followed by length prefixed strings.
// Ok and HasLayers are carried by their flag alone. All integers are big endian.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasNamespace uint16 = 1 << iota
	hasKey
	hasValue
	hasLayers
	hasOk
	hasCode
	hasMsg
	hasPaths
	hasMeta
)

const headerSize = 3

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	w := binaryWriter{buf: make([]byte, headerSize, b.sizeBytes(msg))}
	w.buf[0] = byte(msg.MsgType)

	var flags uint16
	if msg.Namespace != "" {
		flags |= hasNamespace
		w.putString(msg.Namespace)
	}
	if msg.Key != "" {
		flags |= hasKey
		w.putString(msg.Key)
	}
	if msg.Value != nil {
		flags |= hasValue
		w.putBytes(msg.Value)
	}
	if msg.HasLayers {
		flags |= hasLayers
		w.putUint64(uint64(msg.Layers))
	}
	if msg.Ok {
		flags |= hasOk
	}
	if msg.Code != store.RetCSuccess {
		flags |= hasCode
		w.putUint64(uint64(msg.Code))
	}
	if msg.Msg != "" {
		flags |= hasMsg
		w.putString(msg.Msg)
	}
	if msg.Paths != nil {
		flags |= hasPaths
		w.putUint32(uint32(len(msg.Paths)))
		for _, p := range msg.Paths {
			w.putString(p)
		}
	}
	if msg.Meta != nil {
		flags |= hasMeta
		w.putBytes(msg.Meta)
	}

	// Set flags after knowing which fields are present
	binary.BigEndian.PutUint16(w.buf[1:headerSize], flags)
	return w.buf, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := binary.BigEndian.Uint16(data[1:headerSize])
	r := binaryReader{data: data, pos: headerSize}

	var err error
	if flags&hasNamespace != 0 {
		if msg.Namespace, err = r.string("namespace"); err != nil {
			return err
		}
	}
	if flags&hasKey != 0 {
		if msg.Key, err = r.string("key"); err != nil {
			return err
		}
	}
	if flags&hasValue != 0 {
		if msg.Value, err = r.bytes("value"); err != nil {
			return err
		}
	}
	if flags&hasLayers != 0 {
		layers, err := r.uint64("layers")
		if err != nil {
			return err
		}
		msg.Layers = int64(layers)
		msg.HasLayers = true
	}
	msg.Ok = flags&hasOk != 0
	if flags&hasCode != 0 {
		code, err := r.uint64("code")
		if err != nil {
			return err
		}
		msg.Code = store.RetCode(code)
	}
	if flags&hasMsg != 0 {
		if msg.Msg, err = r.string("msg"); err != nil {
			return err
		}
	}
	if flags&hasPaths != 0 {
		count, err := r.uint32("paths count")
		if err != nil {
			return err
		}
		// every path needs at least its length prefix
		if int(count) > (len(data)-r.pos)/4 {
			return fmt.Errorf("data too short for %d paths", count)
		}
		msg.Paths = make([]string, count)
		for i := range msg.Paths {
			if msg.Paths[i], err = r.string("path"); err != nil {
				return err
			}
		}
	}
	if flags&hasMeta != 0 {
		if msg.Meta, err = r.bytes("meta"); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := headerSize
	if msg.Namespace != "" {
		size += 4 + len(msg.Namespace)
	}
	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.HasLayers {
		size += 8
	}
	if msg.Code != store.RetCSuccess {
		size += 8
	}
	if msg.Msg != "" {
		size += 4 + len(msg.Msg)
	}
	if msg.Paths != nil {
		size += 4
		for _, p := range msg.Paths {
			size += 4 + len(p)
		}
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}
	return size
}

// binaryWriter appends big endian fields to a preallocated buffer
type binaryWriter struct {
	buf []byte
}

func (w *binaryWriter) putUint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *binaryWriter) putUint64(v uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

func (w *binaryWriter) putString(s string) {
	w.putUint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *binaryWriter) putBytes(b []byte) {
	w.putUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// binaryReader reads fields written by binaryWriter and reports truncation
type binaryReader struct {
	data []byte
	pos  int
}

func (r *binaryReader) need(n int, field string) error {
	if n < 0 || r.pos+n > len(r.data) {
		return fmt.Errorf("data too short for %s", field)
	}
	return nil
}

func (r *binaryReader) uint32(field string) (uint32, error) {
	if err := r.need(4, field); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *binaryReader) uint64(field string) (uint64, error) {
	if err := r.need(8, field); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// bytes returns a copy so the message does not alias a pooled transport buffer
func (r *binaryReader) bytes(field string) ([]byte, error) {
	n, err := r.uint32(field + " length")
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n), field+" data"); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, r.data[r.pos:])
	r.pos += int(n)
	return b, nil
}

func (r *binaryReader) string(field string) (string, error) {
	n, err := r.uint32(field + " length")
	if err != nil {
		return "", err
	}
	if err := r.need(int(n), field+" data"); err != nil {
		return "", err
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}
