package config

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"machine-bootstrap/internal/logger"
	"machine-bootstrap/internal/platform"
)

// DefaultDir is where the config documents live, relative to the working directory.
const DefaultDir = "config"

// ErrBaseConfig is returned when default.toml is missing or cannot be parsed.
var ErrBaseConfig = errors.New("base configuration unavailable")

// Resolved is the outcome of Load: the merged configuration and the
// documents that contributed to it, in the order they were applied.
type Resolved struct {
	Config  Config
	Sources []string
}

// document is one parsed config file. Sections record whether the file
// actually contained the table so absent tables are not applied.
type document struct {
	path          string
	settings      *Settings
	fileLocations *FileLocations
}

// DocumentPaths lists the documents Load attempts, in priority order
// (later entries override earlier ones).
func DocumentPaths(dir string, osID platform.OS, hostname string) []string {
	return []string{
		filepath.Join(dir, "default.toml"),
		filepath.Join(dir, osID.String()+".toml"),
		filepath.Join(dir, hostname+"-custom.toml"),
	}
}

// Load reads default.toml, then <os>.toml, then <hostname>-custom.toml from dir.
// Every document that parses replaces the settings and file_locations sections
// it contains. The default document is mandatory; overrides that are missing
// or malformed are skipped.
func Load(fsys afero.Fs, dir string, osID platform.OS, hostname string) (*Resolved, error) {
	paths := DocumentPaths(dir, osID, hostname)

	base, err := readDocument(fsys, paths[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBaseConfig, err)
	}

	res := &Resolved{Config: Defaults()}
	res.apply(base)

	for _, path := range paths[1:] {
		doc, err := readDocument(fsys, path)
		if err != nil {
			if errors.Is(err, afero.ErrFileNotFound) {
				logger.Debug("[DEBUG] No override at %s\n", path)
			} else {
				logger.Warn("[WARN] Skipping override %s: %v\n", path, err)
			}
			continue
		}
		res.apply(doc)
	}

	logger.Debug("[DEBUG] Configuration resolved from %v: %+v\n", res.Sources, res.Config)
	return res, nil
}

// apply replaces whole sections; it never merges individual fields.
func (r *Resolved) apply(doc *document) {
	if doc.settings != nil {
		r.Config.Settings = *doc.settings
	}
	if doc.fileLocations != nil {
		r.Config.FileLocations = *doc.fileLocations
	}
	r.Sources = append(r.Sources, doc.path)
}

// readDocument parses path strictly: unknown keys and type mismatches are
// errors, so a malformed file is rejected as a whole.
func readDocument(fsys afero.Fs, path string) (*document, error) {
	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}

	var tables map[string]any
	if err := toml.Unmarshal(raw, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	// Fields missing from a present section fall back to their defaults,
	// not to the value of an earlier document.
	parsed := Defaults()
	dec := toml.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	doc := &document{path: path}
	if _, ok := tables["settings"]; ok {
		doc.settings = &parsed.Settings
	}
	if _, ok := tables["file_locations"]; ok {
		loc := parsed.FileLocations.withDefaults()
		if loc != parsed.FileLocations {
			logger.Debug("[DEBUG] Empty path in %s replaced by its default\n", path)
		}
		doc.fileLocations = &loc
	}
	return doc, nil
}
