package grpc

import "fmt"

// codecName is announced as content subtype, e.g. "application/grpc+hkv-raw"
const codecName = "hkv-raw"

// rawCodec passes serialized messages through unchanged. Both sides exchange
// *[]byte values, the message format is the business of the rpc serializer.
type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	b, ok := v.(*[]byte)
	if !ok {
		return nil, fmt.Errorf("raw codec cannot marshal %T", v)
	}
	return *b, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	b, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("raw codec cannot unmarshal into %T", v)
	}
	*b = append((*b)[:0], data...)
	return nil
}

func (rawCodec) Name() string {
	return codecName
}
