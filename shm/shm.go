// Package shm provides helpers for dealing with shared memory.
package shm

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// Create creates an anonymous file suitable for sharing with a
// compositor. It uses memfd_create where available and falls back to
// an unlinked file in /dev/shm.
func Create() (*os.File, error) {
	fd, err := unix.MemfdCreate("wlgl-shm", unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err == nil {
		return os.NewFile(uintptr(fd), "wlgl-shm"), nil
	}

	path := "/dev/shm/wlgl-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}

	return file, os.Remove(path)
}

// Mmap is a memory mapping of a file.
type Mmap []byte

// Map maps size bytes of file with the given protection.
func Map(file *os.File, size int, prot int, flags int) (mmap Mmap, err error) {
	sc, err := file.SyscallConn()
	if err != nil {
		return nil, err
	}

	cerr := sc.Control(func(fd uintptr) {
		m, merr := unix.Mmap(int(fd), 0, size, prot, flags)
		mmap, err = Mmap(m), merr
	})
	if cerr != nil {
		return nil, cerr
	}
	if err != nil {
		return nil, fmt.Errorf("mmap %v bytes: %w", size, err)
	}
	return mmap, nil
}

// MapShared maps size bytes of file so that writes are visible to
// other processes mapping the same file.
func MapShared(file *os.File, size int, prot int) (Mmap, error) {
	return Map(file, size, prot, unix.MAP_SHARED)
}

func (mmap Mmap) Unmap() error {
	return unix.Munmap(mmap)
}
