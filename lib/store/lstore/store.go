package lstore

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/ValentinKolb/hKV/lib/lockmgr"
	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/lib/store/keys"
	"github.com/ValentinKolb/hKV/lib/store/tree"
)

type storeImpl struct {
	db   db.KVDB
	lock lockmgr.ILockManager
}

// NewLocalStore creates a new local store instance.
// The store owns the single db handle created by factory and serializes every
// operation on it. The db is opened lazily by the first operation.
func NewLocalStore(factory store.DBFactory) store.IStore {
	return &storeImpl{
		db:   factory(),
		lock: lockmgr.NewLockManager(),
	}
}

// exclusive runs fn while holding the store lock. Waiting for the lock ends
// when ctx is done; once fn runs it is not interrupted.
func (s *storeImpl) exclusive(ctx context.Context, fn func() error) error {
	owner, err := s.lock.AcquireLock(ctx)
	if err != nil {
		return store.Errorf(store.RetCInternalError, "gave up waiting for the store: %v", err)
	}
	defer s.lock.ReleaseLock(owner)
	return fn()
}

func validate(namespace, path string) error {
	if err := keys.Validate(namespace, path); err != nil {
		return store.NewError(store.RetCInvalidArgument, err.Error())
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Write(ctx context.Context, namespace, path, value string) error {
	if path == "" {
		return store.NewError(store.RetCInvalidArgument, "cannot write to the root node, the path must not be empty")
	}
	if err := validate(namespace, path); err != nil {
		return err
	}
	return s.exclusive(ctx, func() error {
		if err := s.db.Put(keys.Encode(namespace, path), []byte(value)); err != nil {
			return store.FromEngine(fmt.Sprintf("write key '%s'", path), err)
		}
		return nil
	})
}

func (s *storeImpl) Read(ctx context.Context, namespace, path string) (string, error) {
	if err := validate(namespace, path); err != nil {
		return "", err
	}
	var value string
	err := s.exclusive(ctx, func() error {
		v, ok, err := s.db.Get(keys.Encode(namespace, path))
		if err != nil {
			return store.FromEngine(fmt.Sprintf("read key '%s'", path), err)
		}
		if !ok {
			return store.Errorf(store.RetCNotFound, "key '%s' not found in namespace '%s'", path, namespace)
		}
		value = string(v)
		return nil
	})
	return value, err
}

func (s *storeImpl) Delete(ctx context.Context, namespace, path string) error {
	if err := validate(namespace, path); err != nil {
		return err
	}
	return s.exclusive(ctx, func() error {
		key := keys.Encode(namespace, path)
		_, ok, err := s.db.Get(key)
		if err != nil {
			return store.FromEngine(fmt.Sprintf("read key '%s'", path), err)
		}
		if !ok {
			return store.Errorf(store.RetCNotFound, "key '%s' not found in namespace '%s'", path, namespace)
		}
		if err := s.db.Delete(key); err != nil {
			return store.FromEngine(fmt.Sprintf("delete key '%s'", path), err)
		}
		return nil
	})
}

func (s *storeImpl) Search(ctx context.Context, namespace, substring string) ([]string, error) {
	var paths []string
	err := s.exclusive(ctx, func() (err error) {
		paths, err = tree.Search(s.db, namespace, substring)
		return err
	})
	return paths, err
}

func (s *storeImpl) DeleteRecursivelyFrom(ctx context.Context, namespace, node string) ([]string, error) {
	var deleted []string
	err := s.exclusive(ctx, func() (err error) {
		deleted, err = tree.DeleteSubtree(s.db, namespace, node)
		return err
	})
	return deleted, err
}

func (s *storeImpl) NodesStartingIn(ctx context.Context, namespace, node string, layers int) ([]string, error) {
	var nodes []string
	err := s.exclusive(ctx, func() (err error) {
		nodes, err = tree.NodesAtDepth(s.db, namespace, node, layers)
		return err
	})
	return nodes, err
}

func (s *storeImpl) DestroyDB(ctx context.Context) error {
	return s.exclusive(ctx, func() error {
		if err := s.db.Destroy(); err != nil {
			return store.FromEngine("destroy database", err)
		}
		return nil
	})
}

func (s *storeImpl) OpenDB(ctx context.Context) error {
	return s.exclusive(ctx, func() error {
		if err := s.db.Open(); err != nil {
			return store.FromEngine("open database", err)
		}
		return nil
	})
}

func (s *storeImpl) CloseDB(ctx context.Context) error {
	return s.exclusive(ctx, func() error {
		if err := s.db.Close(); err != nil {
			return store.FromEngine("close database", err)
		}
		return nil
	})
}

func (s *storeImpl) GetDBInfo(ctx context.Context) (db.DatabaseInfo, error) {
	var info db.DatabaseInfo
	err := s.exclusive(ctx, func() error {
		info = s.db.GetInfo()
		return nil
	})
	return info, err
}
