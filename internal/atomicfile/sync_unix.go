//go:build linux || freebsd

package atomicfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// datasync flushes file data; metadata is covered by the rename.
func datasync(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}
