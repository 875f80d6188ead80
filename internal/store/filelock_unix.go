//go:build unix

package store

import (
	"os"
	"sync"
	"syscall"
)

// fileLock is an exclusive advisory lock on a file.
type fileLock struct {
	file     *os.File
	released bool
	mu       sync.Mutex
}

// acquireLock obtains an exclusive lock on path. Blocks until the lock is
// available.
func acquireLock(path string) (*fileLock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		file.Close()
		return nil, err
	}
	return &fileLock{file: file}, nil
}

// Release unlocks and closes the file. Safe to call twice.
func (l *fileLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return nil
	}
	l.released = true

	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}
