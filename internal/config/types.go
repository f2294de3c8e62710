package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
)

// DefaultTextfilesDir is the source tree mirrored into the home directory
// when no document names one. It is also the name of the staging directory.
const DefaultTextfilesDir = "files_to_link"

// Settings toggles the optional bootstrap steps.
// - InstallRosetta: install Rosetta 2 on Apple Silicon macOS.
// - LinkFiles: stage and symlink the dotfiles tree.
type Settings struct {
	InstallRosetta bool `toml:"install_rosetta" yaml:"install_rosetta"`
	LinkFiles      bool `toml:"link_files" yaml:"link_files"`
}

// FileLocations tells the linker where to read from and where to link into.
// - TextfilesDir: source tree (a directory or a supported archive).
// - LinkTargetDir: home directory that receives the symlinks.
type FileLocations struct {
	TextfilesDir  string `toml:"textfiles_dir" yaml:"textfiles_dir"`
	LinkTargetDir string `toml:"link_target_dir" yaml:"link_target_dir"`
}

// Config is the resolved configuration. It is built once at startup and
// passed by value afterwards.
type Config struct {
	Settings      Settings      `toml:"settings" yaml:"settings"`
	FileLocations FileLocations `toml:"file_locations" yaml:"file_locations"`
}

// Defaults returns the configuration used for any section no document sets.
func Defaults() Config {
	return Config{
		Settings: Settings{},
		FileLocations: FileLocations{
			TextfilesDir:  DefaultTextfilesDir,
			LinkTargetDir: xdg.Home,
		},
	}
}

// Expand resolves "~" and environment variable references in the path fields.
// A field that expands to nothing (for example "$UNSET") falls back to its
// default, so the linker is never handed an empty path.
func (c Config) Expand(home string) Config {
	c.FileLocations.TextfilesDir = expandPath(c.FileLocations.TextfilesDir, home)
	c.FileLocations.LinkTargetDir = expandPath(c.FileLocations.LinkTargetDir, home)
	c.FileLocations = c.FileLocations.withDefaults()
	return c
}

// withDefaults replaces blank path fields with their defaults.
// An empty path would otherwise resolve to the working directory.
func (f FileLocations) withDefaults() FileLocations {
	def := Defaults().FileLocations
	if strings.TrimSpace(f.TextfilesDir) == "" {
		f.TextfilesDir = def.TextfilesDir
	}
	if strings.TrimSpace(f.LinkTargetDir) == "" {
		f.LinkTargetDir = def.LinkTargetDir
	}
	return f
}

// TOML renders the configuration in the same layout as the config documents.
func (c Config) TOML() (string, error) {
	out, err := toml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func expandPath(p, home string) string {
	p = os.ExpandEnv(p)
	switch {
	case p == "~":
		return home
	case strings.HasPrefix(p, "~/"):
		return filepath.Join(home, p[2:])
	}
	return p
}
