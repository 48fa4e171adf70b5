// Package atomicfile replaces a file's contents all at once.
//
// Data is written to a temporary file in the destination directory, synced
// to stable storage, and renamed over the destination. Readers observe
// either the old file or the complete new one.
package atomicfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrIsDirectory indicates the destination path names a directory.
var ErrIsDirectory = errors.New("atomicfile: destination is a directory")

// WriteFile writes data to path.
//
// A symlink at path is followed and its target replaced. An existing file
// keeps its permission bits and must be writable by the caller; perm
// applies only to new files. On failure the destination is left untouched
// and no temporary file remains.
func WriteFile(path string, data []byte, perm os.FileMode) (err error) {
	target, mode, err := destination(path, perm)
	if err != nil {
		return err
	}

	dir, base := filepath.Split(target)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("atomicfile: create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			_ = tmp.Close()
		}
		_ = os.Remove(tmpName)
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("atomicfile: write %s: %w", tmpName, err)
	}
	if err = datasync(tmp); err != nil {
		return fmt.Errorf("atomicfile: sync %s: %w", tmpName, err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("atomicfile: chmod %s: %w", tmpName, err)
	}
	closed = true
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("atomicfile: close %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("atomicfile: rename to %s: %w", target, err)
	}
	return nil
}

// destination resolves the file that path refers to and the mode the
// replacement gets.
func destination(path string, perm os.FileMode) (string, os.FileMode, error) {
	target, err := resolve(path)
	if err != nil {
		return "", 0, err
	}

	info, err := os.Stat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return target, perm, nil
	case err != nil:
		return "", 0, fmt.Errorf("atomicfile: stat %s: %w", target, err)
	case info.IsDir():
		return "", 0, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}

	f, err := os.OpenFile(target, os.O_WRONLY, 0)
	if err != nil {
		return "", 0, fmt.Errorf("atomicfile: %s is not writable: %w", target, err)
	}
	_ = f.Close()
	return target, info.Mode().Perm(), nil
}

// resolve follows symlinks at path. A dangling link resolves to the file
// it names so the write creates it.
func resolve(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&fs.ModeSymlink == 0 {
		return path, nil
	}

	target, err := filepath.EvalSymlinks(path)
	if err == nil {
		return target, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("atomicfile: resolve %s: %w", path, err)
	}
	link, err := os.Readlink(path)
	if err != nil {
		return "", fmt.Errorf("atomicfile: resolve %s: %w", path, err)
	}
	if !filepath.IsAbs(link) {
		link = filepath.Join(filepath.Dir(path), link)
	}
	return link, nil
}
