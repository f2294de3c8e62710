// Package linker mirrors a dotfiles tree into a home directory.
//
// The default strategy copies the source tree into a staging directory inside
// the home directory and then points home-directory symlinks at the staged
// copies, so the links stay valid even if the original checkout moves.
// LinkDirect links straight from the source instead, and Unlink removes the
// links created by Run.
//
// Every per-entry failure is logged and recorded in the Result; processing
// always continues with the remaining entries and nothing is rolled back.
package linker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"machine-bootstrap/internal/logger"
)

// DefaultStagingName is the directory created under the home directory to
// hold the copied tree.
const DefaultStagingName = "files_to_link"

var (
	ErrHomeMissing   = errors.New("home directory does not exist")
	ErrSourceMissing = errors.New("source directory does not exist")
	ErrTargetIsDir   = errors.New("target is an existing directory")
	ErrTargetExists  = errors.New("target already exists")
)

// Link is a symlink at Target pointing to Source.
// Unchanged is set when the link was already in place.
type Link struct {
	Target    string
	Source    string
	Unchanged bool
}

// Skip is an entry that could not be processed.
type Skip struct {
	Path string
	Err  error
}

// Result summarises one linker operation.
type Result struct {
	Copied  int      // files copied into staging
	Linked  []Link   // symlinks created or confirmed
	Created []string // directories created in the target (LinkDirect)
	Removed []string // symlinks removed (Unlink)
	Skipped []Skip
}

func (r *Result) skip(path string, err error) {
	r.Skipped = append(r.Skipped, Skip{Path: path, Err: err})
}

// Linker implements copy-then-link.
// - Fs: filesystem to operate on; it must support symlinks (afero.OsFs does).
// - Source: tree to mirror.
// - Home: directory receiving the symlinks.
// - StagingName: name of the staging directory inside Home.
// - LinkDirectories: also symlink top-level directories; by default only
//   top-level files are linked and directories stay in staging.
type Linker struct {
	Fs              afero.Fs
	Source          string
	Home            string
	StagingName     string
	LinkDirectories bool
}

// New returns a Linker using the default staging directory name.
func New(fsys afero.Fs, source, home string) *Linker {
	return &Linker{Fs: fsys, Source: source, Home: home, StagingName: DefaultStagingName}
}

// StagingDir is the absolute staging directory under Home.
func (l *Linker) StagingDir() string {
	name := l.StagingName
	if name == "" {
		name = DefaultStagingName
	}
	return filepath.Join(absPath(l.Home), name)
}

// Run copies Source into the staging directory and links the staged
// top-level entries into Home. The returned error covers only conditions
// that stop the whole operation; per-entry problems are in Result.Skipped.
func (l *Linker) Run() (*Result, error) {
	home := absPath(l.Home)
	source := absPath(l.Source)
	staging := l.StagingDir()
	res := &Result{}

	if !isDir(l.Fs, home) {
		logger.Error("[ERROR] Home directory %s does not exist\n", home)
		return res, fmt.Errorf("%w: %s", ErrHomeMissing, home)
	}
	if !isDir(l.Fs, source) {
		logger.Error("[ERROR] Source directory %s does not exist\n", source)
		return res, fmt.Errorf("%w: %s", ErrSourceMissing, source)
	}

	if err := l.Fs.MkdirAll(staging, 0755); err != nil {
		logger.Error("[ERROR] Failed to create staging directory %s: %v\n", staging, err)
		return res, fmt.Errorf("failed to create staging directory %s: %w", staging, err)
	}

	logger.Info("[INFO] Copying '%s' to '%s'\n", source, staging)
	if source != staging {
		l.copyTree(source, staging, res)
	}

	logger.Info("[INFO] Linking entries of '%s' into '%s'\n", staging, home)
	if err := l.linkEntries(staging, home, res); err != nil {
		return res, err
	}
	return res, nil
}

// copyTree recreates the structure of source under staging, overwriting
// files that are already there.
func (l *Linker) copyTree(source, staging string, res *Result) {
	walkErr := afero.Walk(l.Fs, source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Error("[ERROR] Failed to read %s: %v\n", path, err)
			res.skip(path, err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		// Home may itself be the source; never copy staging into itself.
		if path == staging {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			res.skip(path, err)
			return nil
		}
		dst := filepath.Join(staging, rel)

		if isSymlink(info) {
			target, err := l.Fs.Stat(path)
			if err != nil {
				logger.Warn("[WARN] Skipping dangling symlink %s: %v\n", path, err)
				res.skip(path, err)
				return nil
			}
			if target.IsDir() {
				logger.Warn("[WARN] Skipping symlinked directory %s\n", path)
				return nil
			}
			info = target
		}

		if info.IsDir() {
			if err := l.Fs.MkdirAll(dst, info.Mode().Perm()|0700); err != nil {
				logger.Error("[ERROR] Failed to create directory %s: %v\n", dst, err)
				res.skip(path, err)
				return filepath.SkipDir
			}
			return nil
		}

		if err := copyFile(l.Fs, path, dst, info.Mode()); err != nil {
			logger.Error("[ERROR] Failed to copy %s to %s: %v\n", path, dst, err)
			res.skip(path, err)
			return nil
		}
		logger.Debug("[DEBUG] Copied %s to %s\n", path, dst)
		res.Copied++
		return nil
	})
	if walkErr != nil {
		logger.Error("[ERROR] Copying %s stopped early: %v\n", source, walkErr)
		res.skip(source, walkErr)
	}
}

// linkEntries points home/<name> at staging/<name> for every top-level
// staging entry, replacing files and symlinks but never directories.
func (l *Linker) linkEntries(staging, home string, res *Result) error {
	entries, err := afero.ReadDir(l.Fs, staging)
	if err != nil {
		logger.Error("[ERROR] Failed to read staging directory %s: %v\n", staging, err)
		return fmt.Errorf("failed to read staging directory %s: %w", staging, err)
	}

	for _, entry := range entries {
		src := filepath.Join(staging, entry.Name())
		target := filepath.Join(home, entry.Name())

		if entry.IsDir() && !l.LinkDirectories {
			logger.Debug("[DEBUG] Leaving directory %s in staging only\n", src)
			continue
		}

		existing, err := lstat(l.Fs, target)
		switch {
		case err == nil && isSymlink(existing):
			if dest, rerr := readlink(l.Fs, target); rerr == nil && dest == src {
				logger.Info("[INFO] '%s' already links to '%s'\n", target, src)
				res.Linked = append(res.Linked, Link{Target: target, Source: src, Unchanged: true})
				continue
			}
			if err := l.Fs.Remove(target); err != nil {
				logger.Error("[ERROR] Failed to remove existing link %s: %v\n", target, err)
				res.skip(target, err)
				continue
			}
		case err == nil && existing.IsDir():
			logger.Warn("[WARN] Skipping %s: %v\n", target, ErrTargetIsDir)
			res.skip(target, ErrTargetIsDir)
			continue
		case err == nil:
			if err := l.Fs.Remove(target); err != nil {
				logger.Error("[ERROR] Failed to remove existing file %s: %v\n", target, err)
				res.skip(target, err)
				continue
			}
			logger.Debug("[DEBUG] Removed existing file %s\n", target)
		case !errors.Is(err, os.ErrNotExist):
			logger.Error("[ERROR] Failed to inspect %s: %v\n", target, err)
			res.skip(target, err)
			continue
		}

		if err := symlink(l.Fs, src, target); err != nil {
			logger.Error("[ERROR] Failed to link '%s' to '%s': %v\n", src, target, err)
			res.skip(target, err)
			continue
		}
		logger.Info("[INFO] Linked '%s' to '%s'\n", src, target)
		res.Linked = append(res.Linked, Link{Target: target, Source: src})
	}
	return nil
}

// LinkDirect links the top-level entries of source straight into target.
// Directories are recreated as real directories rather than linked, and any
// path that already exists in target is skipped, never overwritten.
func LinkDirect(fsys afero.Fs, source, target string) (*Result, error) {
	source, target = absPath(source), absPath(target)
	res := &Result{}
	logger.Info("[INFO] Linking files from '%s' to '%s'\n", source, target)

	if !isDir(fsys, target) {
		if err := fsys.MkdirAll(target, 0755); err != nil {
			logger.Error("[ERROR] Failed to create target directory '%s': %v\n", target, err)
			return res, fmt.Errorf("failed to create target directory %s: %w", target, err)
		}
	}

	entries, err := afero.ReadDir(fsys, source)
	if err != nil {
		logger.Error("[ERROR] Failed to read the source directory '%s': %v\n", source, err)
		return res, fmt.Errorf("%w: %s: %w", ErrSourceMissing, source, err)
	}

	for _, entry := range entries {
		src := filepath.Join(source, entry.Name())
		dst := filepath.Join(target, entry.Name())

		if _, err := lstat(fsys, dst); err == nil {
			logger.Debug("[DEBUG] '%s' already exists, skipping\n", dst)
			res.skip(dst, ErrTargetExists)
			continue
		}

		if entry.IsDir() {
			if err := fsys.MkdirAll(dst, 0755); err != nil {
				logger.Error("[ERROR] Failed to create directory '%s' in target: %v\n", dst, err)
				res.skip(dst, err)
				continue
			}
			logger.Info("[INFO] Created directory '%s'\n", dst)
			res.Created = append(res.Created, dst)
			continue
		}

		if err := symlink(fsys, src, dst); err != nil {
			logger.Error("[ERROR] Failed to link '%s' to '%s': %v\n", src, dst, err)
			res.skip(dst, err)
			continue
		}
		logger.Info("[INFO] Linked '%s' to '%s'\n", src, dst)
		res.Linked = append(res.Linked, Link{Target: dst, Source: src})
	}
	return res, nil
}

// Unlink removes every symlink directly inside home that points into the
// staging directory. Other entries are left alone.
func Unlink(fsys afero.Fs, home, stagingName string) (*Result, error) {
	l := &Linker{Fs: fsys, Home: home, StagingName: stagingName}
	staging := l.StagingDir()
	home = absPath(home)
	res := &Result{}

	entries, err := afero.ReadDir(fsys, home)
	if err != nil {
		logger.Error("[ERROR] Failed to read %s: %v\n", home, err)
		return res, fmt.Errorf("%w: %s: %w", ErrHomeMissing, home, err)
	}

	prefix := staging + string(os.PathSeparator)
	for _, entry := range entries {
		if !isSymlink(entry) {
			continue
		}
		target := filepath.Join(home, entry.Name())
		dest, err := readlink(fsys, target)
		if err != nil {
			res.skip(target, err)
			continue
		}
		if !strings.HasPrefix(dest, prefix) {
			continue
		}
		if err := fsys.Remove(target); err != nil {
			logger.Error("[ERROR] Failed to remove %s: %v\n", target, err)
			res.skip(target, err)
			continue
		}
		logger.Info("[INFO] Removed link %s\n", target)
		res.Removed = append(res.Removed, target)
	}
	return res, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
