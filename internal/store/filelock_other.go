//go:build !unix

package store

import "sync"

// fileLock falls back to a process-local mutex where flock is unavailable.
type fileLock struct {
	mu       *sync.Mutex
	released bool
}

var localLocks sync.Map // path -> *sync.Mutex

func acquireLock(path string) (*fileLock, error) {
	v, _ := localLocks.LoadOrStore(path, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return &fileLock{mu: mu}, nil
}

func (l *fileLock) Release() error {
	if !l.released {
		l.released = true
		l.mu.Unlock()
	}
	return nil
}
