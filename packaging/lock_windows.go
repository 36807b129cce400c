//go:build windows

package packaging

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

var (
	kernel32       = syscall.NewLazyDLL("kernel32.dll")
	procLockFileEx = kernel32.NewProc("LockFileEx")
)

const (
	lockfileExclusiveLock   = 0x00000002
	lockfileFailImmediately = 0x00000001
	errorLockViolation      = syscall.Errno(33)
)

var errLockHeld = errors.New("lock held by another writer")

func tryLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	var overlapped syscall.Overlapped
	r1, _, callErr := procLockFileEx.Call(
		f.Fd(),
		uintptr(lockfileExclusiveLock|lockfileFailImmediately),
		0,
		0xFFFFFFFF,
		0xFFFFFFFF,
		uintptr(unsafe.Pointer(&overlapped)),
	)
	if r1 == 0 {
		_ = f.Close()
		if errors.Is(callErr, errorLockViolation) {
			return nil, errLockHeld
		}
		return nil, fmt.Errorf("lock %s: %w", path, callErr)
	}
	return &fileLock{path: path, file: f}, nil
}

// unlock closes and removes the lock file; Windows refuses to delete a
// file another process still holds open.
func unlock(l *fileLock) {
	_ = l.file.Close()
	_ = os.Remove(l.path)
}
