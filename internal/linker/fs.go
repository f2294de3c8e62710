package linker

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"machine-bootstrap/internal/logger"
)

// ErrSymlinkUnsupported is returned when the afero filesystem cannot create
// or read symlinks (for example afero.MemMapFs).
var ErrSymlinkUnsupported = errors.New("filesystem does not support symlinks")

// lstat stats path without following a final symlink when fsys allows it.
func lstat(fsys afero.Fs, path string) (os.FileInfo, error) {
	if ls, ok := fsys.(afero.Lstater); ok {
		fi, _, err := ls.LstatIfPossible(path)
		return fi, err
	}
	return fsys.Stat(path)
}

func symlink(fsys afero.Fs, oldname, newname string) error {
	l, ok := fsys.(afero.Linker)
	if !ok {
		return ErrSymlinkUnsupported
	}
	return l.SymlinkIfPossible(oldname, newname)
}

func readlink(fsys afero.Fs, name string) (string, error) {
	r, ok := fsys.(afero.LinkReader)
	if !ok {
		return "", ErrSymlinkUnsupported
	}
	return r.ReadlinkIfPossible(name)
}

func isSymlink(fi os.FileInfo) bool {
	return fi.Mode()&os.ModeSymlink != 0
}

// isDir reports whether path exists and is a directory (following symlinks).
func isDir(fsys afero.Fs, path string) bool {
	ok, err := afero.IsDir(fsys, path)
	return err == nil && ok
}

// copyFile copies src to dst, overwriting dst and applying mode.
// It creates any missing directories in the destination path.
func copyFile(fsys afero.Fs, src, dst string, mode os.FileMode) (err error) {
	// Open the source file
	in, err := fsys.Open(src)
	if err != nil {
		return fmt.Errorf("open source failed: %w", err)
	}
	defer in.Close()

	// Ensure the destination directory exists
	if err := fsys.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("mkdir failed: %w", err)
	}

	// A symlink at dst would redirect the write outside staging.
	if fi, lerr := lstat(fsys, dst); lerr == nil && isSymlink(fi) {
		if err := fsys.Remove(dst); err != nil {
			return fmt.Errorf("remove stale link failed: %w", err)
		}
	}

	out, err := fsys.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("create target failed: %w", err)
	}
	defer func() {
		cerr := out.Close()
		if err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}

	// OpenFile only applies the mode to new files.
	if err := fsys.Chmod(dst, mode.Perm()); err != nil {
		logger.Debug("[DEBUG] chmod %s failed: %v\n", dst, err)
	}
	return nil
}
