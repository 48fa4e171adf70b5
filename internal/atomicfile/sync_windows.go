//go:build windows

package atomicfile

import (
	"os"

	"golang.org/x/sys/windows"
)

func datasync(f *os.File) error {
	return windows.FlushFileBuffers(windows.Handle(f.Fd()))
}
