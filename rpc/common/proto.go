package common

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/hKV/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Request fields
	Namespace string `json:"namespace,omitempty"` // Used for: all tree and point operations
	Key       string `json:"key,omitempty"`       // Path, node or search substring depending on MsgType
	Value     []byte `json:"value,omitempty"`     // Used for: Write (request), Read (response)
	Layers    int64  `json:"layers,omitempty"`    // Used for: NodesStartingIn, only read if HasLayers is set
	HasLayers bool   `json:"has_layers,omitempty"` // Distinguishes an explicit 0 from an omitted layer count

	// Response fields
	Ok    bool          `json:"ok,omitempty"`    // true if the operation succeeded
	Code  store.RetCode `json:"code,omitempty"`  // Error kind, RetCSuccess on success
	Msg   string        `json:"msg,omitempty"`   // Human readable outcome, set on success and failure
	Paths []string      `json:"paths,omitempty"` // Used for: Search, DeleteRecursivelyFrom, NodesStartingIn

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Used for: DBInfo (json encoded db.DatabaseInfo)
}

// Err rebuilds the store error carried by a response. It returns nil for
// successful responses.
func (m *Message) Err() error {
	if m.Ok {
		return nil
	}
	code := m.Code
	if code == store.RetCSuccess {
		code = store.RetCInternalError
	}
	return store.NewError(code, m.Msg)
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewWriteRequest creates a new Write request
func NewWriteRequest(namespace, path, value string) *Message {
	return &Message{
		MsgType:   MsgTWrite,
		Namespace: namespace,
		Key:       path,
		Value:     []byte(value),
	}
}

// NewReadRequest creates a new Read request
func NewReadRequest(namespace, path string) *Message {
	return &Message{
		MsgType:   MsgTRead,
		Namespace: namespace,
		Key:       path,
	}
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(namespace, path string) *Message {
	return &Message{
		MsgType:   MsgTDelete,
		Namespace: namespace,
		Key:       path,
	}
}

// NewSearchRequest creates a new Search request
func NewSearchRequest(namespace, substring string) *Message {
	return &Message{
		MsgType:   MsgTSearch,
		Namespace: namespace,
		Key:       substring,
	}
}

// NewDeleteRecursivelyFromRequest creates a new DeleteRecursivelyFrom request
func NewDeleteRecursivelyFromRequest(namespace, node string) *Message {
	return &Message{
		MsgType:   MsgTDeleteRecursivelyFrom,
		Namespace: namespace,
		Key:       node,
	}
}

// NewNodesStartingInRequest creates a new NodesStartingIn request. A negative
// layers value is sent as is so the server can reject it.
func NewNodesStartingInRequest(namespace, node string, layers int) *Message {
	return &Message{
		MsgType:   MsgTNodesStartingIn,
		Namespace: namespace,
		Key:       node,
		Layers:    int64(layers),
		HasLayers: true,
	}
}

// NewControlRequest creates a request without payload (DestroyDB, OpenDB, CloseDB, DBInfo)
func NewControlRequest(msgType MessageType) *Message {
	return &Message{MsgType: msgType}
}

// NewResponse creates a response for msgType. On failure the message of err
// is used and the error kind is carried in Code.
func NewResponse(msgType MessageType, successMsg string, err error) *Message {
	if err != nil {
		return &Message{
			MsgType: msgType,
			Ok:      false,
			Code:    store.CodeOf(err),
			Msg:     errorText(err),
		}
	}
	return &Message{
		MsgType: msgType,
		Ok:      true,
		Code:    store.RetCSuccess,
		Msg:     successMsg,
	}
}

// NewErrorResponse creates a new error response
func NewErrorResponse(code store.RetCode, msg string) *Message {
	return &Message{
		MsgType: MsgTError,
		Code:    code,
		Msg:     msg,
	}
}

// errorText returns the bare message of a store error, the error string otherwise
func errorText(err error) string {
	if storeErr, ok := err.(*store.Error); ok {
		return storeErr.Msg
	}
	return err.Error()
}

// --------------------------------------------------------------------------
// Message Types
// --------------------------------------------------------------------------

// MessageType is the type of message
type MessageType uint8

// String returns the string representation of the message type
func (t MessageType) String() string {
	switch t {
	case MsgTWrite:
		return "write"
	case MsgTRead:
		return "read"
	case MsgTDelete:
		return "delete"
	case MsgTSearch:
		return "search"
	case MsgTDeleteRecursivelyFrom:
		return "deleteRecursivelyFrom"
	case MsgTNodesStartingIn:
		return "nodesStartingIn"
	case MsgTDestroyDB:
		return "destroyDB"
	case MsgTOpenDB:
		return "openDB"
	case MsgTCloseDB:
		return "closeDB"
	case MsgTDBInfo:
		return "dbInfo"
	case MsgTError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	for _, candidate := range MessageTypes {
		if candidate.String() == s {
			*t = candidate
			return nil
		}
	}
	if s == "unknown" {
		*t = MsgTUnknown
		return nil
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	MsgTUnknown MessageType = iota
	MsgTError               // Indicates the request could not be processed at all

	// Point operations

	MsgTWrite  // Store a value at a path
	MsgTRead   // Read the value at a path
	MsgTDelete // Delete the entry at a path

	// Tree operations

	MsgTSearch                // Paths containing a substring
	MsgTDeleteRecursivelyFrom // Delete a node and all its descendants
	MsgTNodesStartingIn       // Nodes a number of layers below a node

	// Database control

	MsgTDestroyDB // Remove the database
	MsgTOpenDB    // Open the database
	MsgTCloseDB   // Close the database
	MsgTDBInfo    // Database metadata
)

// MessageTypes lists every known message type
var MessageTypes = []MessageType{
	MsgTError,
	MsgTWrite,
	MsgTRead,
	MsgTDelete,
	MsgTSearch,
	MsgTDeleteRecursivelyFrom,
	MsgTNodesStartingIn,
	MsgTDestroyDB,
	MsgTOpenDB,
	MsgTCloseDB,
	MsgTDBInfo,
}
