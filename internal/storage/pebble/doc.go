// Package pebblestore provides a thin wrapper around Pebble with fsync policy,
// batched point writes, bounded range scans, and minimal metrics hooks.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data/store",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.Set([]byte("google!news!abc"), []byte("1700000000000"))
//	_ = db.Scan([]byte("google!news!"), []byte("google!news\""), func(k, v []byte) error {
//	    return nil
//	})
//
// Options.InMemory swaps the filesystem for pebble/vfs.NewMem, which tests
// use instead of a temporary directory.
package pebblestore
