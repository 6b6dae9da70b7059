//go:build !linux && !darwin

package ring

import "fmt"

// hasSharedMmap is false on platforms without the POSIX mmap
// semantics this package relies on; Create falls back to a
// memcpy-backed ring per spec.md §4.1 ("on platforms lacking GPU
// shared surfaces, the ring degrades to a memcpy ring: correctness
// identical, zero-copy lost").
const hasSharedMmap = false

func mmapShared(fd uintptr, length int) ([]byte, error) {
	return nil, fmt.Errorf("ring: shared mmap not supported on this platform")
}

func mmapReadOnly(fd uintptr, length int) ([]byte, error) {
	return nil, fmt.Errorf("ring: shared mmap not supported on this platform")
}

func munmap(b []byte) error {
	return fmt.Errorf("ring: munmap not supported on this platform")
}
