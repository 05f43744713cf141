package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ValentinKolb/hKV/lib/db"
)

// DefaultLayers is the depth NodesStartingIn uses when the caller gives none.
const DefaultLayers = 1

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func() db.KVDB

// IStore is the interface of the hierarchical key-value store.
// Paths are dot-delimited ("Vehicle.Cabin.Door") and scoped by a namespace.
// Every failure is returned as a *Error carrying a RetCode.
type IStore interface {
	// Write stores value under (namespace, path), overwriting any previous value.
	// The empty path is the root of the tree and cannot be written.
	Write(ctx context.Context, namespace, path, value string) (err error)
	// Read returns the value stored under (namespace, path) or a RetCNotFound error.
	Read(ctx context.Context, namespace, path string) (value string, err error)
	// Delete removes the entry at (namespace, path). Descendants are untouched.
	// An absent entry is a RetCNotFound error.
	Delete(ctx context.Context, namespace, path string) (err error)
	// Search returns every path of the namespace that contains substring,
	// in ascending order. The empty substring matches every path.
	Search(ctx context.Context, namespace, substring string) (paths []string, err error)
	// DeleteRecursivelyFrom deletes node and all its descendants and returns
	// the deleted paths in ascending order. The root cannot be deleted.
	DeleteRecursivelyFrom(ctx context.Context, namespace, node string) (deleted []string, err error)
	// NodesStartingIn returns the distinct nodes exactly layers levels below
	// node (truncated descendant paths). layers == 0 returns all descendants and
	// node itself if it is an entry.
	NodesStartingIn(ctx context.Context, namespace, node string, layers int) (nodes []string, err error)
	// DestroyDB removes all data of every namespace. The store stays usable.
	DestroyDB(ctx context.Context) (err error)
	// OpenDB opens the underlying database. Data operations do this on demand.
	OpenDB(ctx context.Context) (err error)
	// CloseDB releases the underlying database. The next data operation reopens it.
	CloseDB(ctx context.Context) (err error)
	// GetDBInfo returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo(ctx context.Context) (info db.DatabaseInfo, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Errorf creates a new Error with a formatted message.
func Errorf(code RetCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// CodeOf returns the RetCode of err. Errors wrapping db.ErrStorageUnavailable
// map to RetCStorageUnavailable, any other non-store error to RetCInternalError.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Code
	}
	if errors.Is(err, db.ErrStorageUnavailable) {
		return RetCStorageUnavailable
	}
	return RetCInternalError
}

// FromEngine converts an engine error into a *Error. action describes what
// was attempted ("write", "scan namespace 'x'").
func FromEngine(action string, err error) *Error {
	if err == nil {
		return nil
	}
	return Errorf(CodeOf(err), "could not %s: %v", action, err)
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess            RetCode = iota // 0: Command executed successfully.
	RetCInternalError                     // 1: Command failed due to an internal error.
	RetCInvalidArgument                   // 2: A path, namespace or parameter was rejected.
	RetCNotFound                          // 3: The entry or node does not exist.
	RetCStorageUnavailable                // 4: The engine could not be opened.
	RetCPartialFailure                    // 5: A multi-key delete stopped after removing some keys.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCInvalidArgument:
		return "InvalidArgument"
	case RetCNotFound:
		return "NotFound"
	case RetCStorageUnavailable:
		return "StorageUnavailable"
	case RetCPartialFailure:
		return "PartialFailure"
	default:
		return "Unknown"
	}
}
