//go:build linux || darwin

package ring

import "golang.org/x/sys/unix"

const hasSharedMmap = true

func mmapShared(fd uintptr, length int) ([]byte, error) {
	return unix.Mmap(int(fd), 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func mmapReadOnly(fd uintptr, length int) ([]byte, error) {
	return unix.Mmap(int(fd), 0, length, unix.PROT_READ, unix.MAP_SHARED)
}

func munmap(b []byte) error {
	return unix.Munmap(b)
}
