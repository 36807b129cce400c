package packaging

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// LockTimeout bounds how long SaveToFile waits for another writer of the
	// same package.
	LockTimeout = 2 * time.Minute

	// LockRetryDelay is the pause between lock attempts.
	LockRetryDelay = 100 * time.Millisecond

	// LockFileExtension is the extension of lock files.
	LockFileExtension = ".lock"
)

// LockDir holds the lock files, away from any output directory.
var LockDir = filepath.Join(os.TempDir(), "gonugetizer", "lock")

// LockPath names the lock file of target: a hash of its absolute path, so
// different spellings of the same path share one lock.
func LockPath(target string) string {
	if abs, err := filepath.Abs(target); err == nil {
		target = abs
	}
	sum := sha256.Sum256([]byte(strings.ToLower(filepath.Clean(target))))
	return filepath.Join(LockDir, hex.EncodeToString(sum[:16])+LockFileExtension)
}

// fileLock is an exclusive OS lock on a lock file. It is released
// when the process exits, so a crashed writer never leaves it held.
type fileLock struct {
	path string
	file *os.File
}

// lockFile waits until it holds the lock for target, ctx ends, or
// LockTimeout passes. The returned func releases it.
func lockFile(ctx context.Context, target string) (func(), error) {
	path := LockPath(target)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	deadline := time.Now().Add(LockTimeout)
	for {
		l, err := tryLock(path)
		if err == nil {
			return func() { unlock(l) }, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timeout waiting for lock on %s: %w", target, err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for lock on %s: %w", target, ctx.Err())
		case <-time.After(LockRetryDelay):
		}
	}
}

// WithFileLock runs fn while holding the write lock for target.
func WithFileLock(ctx context.Context, target string, fn func() error) error {
	release, err := lockFile(ctx, target)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}
