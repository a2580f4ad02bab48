package fsutil

import (
	"path/filepath"
	"sync"
)

// Path mutex registry to protect operations on the same paths
var (
	pathMutexes sync.Map // Maps paths to mutexes
)

// GetPathMutex returns a mutex for the given path
func GetPathMutex(path string) *sync.Mutex {
	// Normalize the path to prevent different path representations causing issues
	normalizedPath := filepath.Clean(path)

	actual, _ := pathMutexes.LoadOrStore(normalizedPath, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// lockPath acquires the mutex for path and returns its release function
func lockPath(path string) func() {
	mu := GetPathMutex(path)
	mu.Lock()
	return mu.Unlock
}
