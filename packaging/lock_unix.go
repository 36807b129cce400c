//go:build unix

package packaging

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

var errLockHeld = errors.New("lock held by another writer")

func tryLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
			return nil, errLockHeld
		}
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}
	return &fileLock{path: path, file: f}, nil
}

// unlock closes the lock file. The file itself stays: removing it would let
// a waiter lock an unlinked inode while a newcomer creates a fresh one.
func unlock(l *fileLock) {
	_ = l.file.Close()
}
