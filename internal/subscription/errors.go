package subscription

import "fmt"

// StorageError reports a failed operation against the underlying KV store.
type StorageError struct {
	Op  string // put, delete or scan
	Key []byte
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("subscription: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
