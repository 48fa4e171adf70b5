//go:build !linux && !freebsd && !darwin && !windows

package atomicfile

import "os"

func datasync(f *os.File) error {
	return f.Sync()
}
