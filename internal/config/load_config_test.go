package config

import (
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"machine-bootstrap/internal/platform"
)

const baseDoc = `
[settings]
install_rosetta = false
link_files = true

[file_locations]
textfiles_dir = "files_to_link"
link_target_dir = "/home/base"
`

func writeDocs(t *testing.T, docs map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, content := range docs {
		require.NoError(t, afero.WriteFile(fsys, filepath.Join("config", name), []byte(content), 0644))
	}
	return fsys
}

func TestLoadBaseOnly(t *testing.T) {
	fsys := writeDocs(t, map[string]string{"default.toml": baseDoc})

	res, err := Load(fsys, "config", platform.MacOS, "laptop")
	require.NoError(t, err)

	assert.Equal(t, Config{
		Settings:      Settings{InstallRosetta: false, LinkFiles: true},
		FileLocations: FileLocations{TextfilesDir: "files_to_link", LinkTargetDir: "/home/base"},
	}, res.Config)
	assert.Equal(t, []string{filepath.Join("config", "default.toml")}, res.Sources)
}

func TestLoadMissingBaseIsError(t *testing.T) {
	fsys := writeDocs(t, map[string]string{
		"laptop-custom.toml": "[settings]\nlink_files = true\n",
	})

	res, err := Load(fsys, "config", platform.MacOS, "laptop")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrBaseConfig)
}

func TestLoadMalformedBaseIsError(t *testing.T) {
	fsys := writeDocs(t, map[string]string{"default.toml": "[settings\nlink_files = "})

	_, err := Load(fsys, "config", platform.MacOS, "laptop")
	assert.ErrorIs(t, err, ErrBaseConfig)
}

func TestLoadOverridesReplaceWholeSections(t *testing.T) {
	fsys := writeDocs(t, map[string]string{
		"default.toml": baseDoc,
		"macos.toml": `
[settings]
install_rosetta = true
`,
		"laptop-custom.toml": `
[file_locations]
link_target_dir = "/Users/me"
`,
	})

	res, err := Load(fsys, "config", platform.MacOS, "laptop")
	require.NoError(t, err)

	// macos.toml replaced settings entirely, so link_files is back to its default.
	assert.Equal(t, Settings{InstallRosetta: true, LinkFiles: false}, res.Config.Settings)
	// laptop-custom.toml replaced file_locations; textfiles_dir is the default, not the base value.
	assert.Equal(t, FileLocations{TextfilesDir: DefaultTextfilesDir, LinkTargetDir: "/Users/me"}, res.Config.FileLocations)
	assert.Equal(t, []string{
		filepath.Join("config", "default.toml"),
		filepath.Join("config", "macos.toml"),
		filepath.Join("config", "laptop-custom.toml"),
	}, res.Sources)
}

func TestLoadLastDocumentWins(t *testing.T) {
	override := `
[settings]
install_rosetta = true
link_files = false

[file_locations]
textfiles_dir = "dots"
link_target_dir = "/srv/home"
`
	fsys := writeDocs(t, map[string]string{
		"default.toml":        baseDoc,
		"ubuntu.toml":         baseDoc,
		"builder-custom.toml": override,
	})

	res, err := Load(fsys, "config", platform.Ubuntu, "builder")
	require.NoError(t, err)

	assert.Equal(t, Config{
		Settings:      Settings{InstallRosetta: true, LinkFiles: false},
		FileLocations: FileLocations{TextfilesDir: "dots", LinkTargetDir: "/srv/home"},
	}, res.Config)
}

func TestLoadMissingOverrideMatchesAbsentOverride(t *testing.T) {
	withBase := writeDocs(t, map[string]string{"default.toml": baseDoc})
	withOther := writeDocs(t, map[string]string{
		"default.toml":        baseDoc,
		"someone-custom.toml": "[settings]\ninstall_rosetta = true\n",
	})

	a, err := Load(withBase, "config", platform.Debian, "laptop")
	require.NoError(t, err)
	b, err := Load(withOther, "config", platform.Debian, "laptop")
	require.NoError(t, err)

	assert.Equal(t, a.Config, b.Config)
}

func TestLoadSkipsMalformedOverrides(t *testing.T) {
	tests := map[string]string{
		"syntax error":  "[settings\ninstall_rosetta = true",
		"unknown key":   "[settings]\ninstall_rosetta = true\nreboot = true\n",
		"type mismatch": "[settings]\ninstall_rosetta = \"yes\"\n",
		"not a table":   "settings = 3\n",
	}

	for name, override := range tests {
		t.Run(name, func(t *testing.T) {
			fsys := writeDocs(t, map[string]string{
				"default.toml":       baseDoc,
				"laptop-custom.toml": override,
			})

			res, err := Load(fsys, "config", platform.MacOS, "laptop")
			require.NoError(t, err)

			assert.Equal(t, Settings{LinkFiles: true}, res.Config.Settings)
			assert.Len(t, res.Sources, 1)
		})
	}
}

func TestLoadEmptyBaseUsesDefaults(t *testing.T) {
	fsys := writeDocs(t, map[string]string{"default.toml": ""})

	res, err := Load(fsys, "config", platform.Unknown, "unknown")
	require.NoError(t, err)

	assert.Equal(t, Defaults(), res.Config)
	assert.Equal(t, xdg.Home, res.Config.FileLocations.LinkTargetDir)
}

func TestLoadEmptyPathsFallBackToDefaults(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want FileLocations
	}{
		{
			name: "both empty",
			doc:  "[file_locations]\ntextfiles_dir = \"\"\nlink_target_dir = \"\"\n",
			want: FileLocations{TextfilesDir: DefaultTextfilesDir, LinkTargetDir: xdg.Home},
		},
		{
			name: "empty textfiles_dir",
			doc:  "[file_locations]\ntextfiles_dir = \"\"\nlink_target_dir = \"/home/me\"\n",
			want: FileLocations{TextfilesDir: DefaultTextfilesDir, LinkTargetDir: "/home/me"},
		},
		{
			name: "blank link_target_dir",
			doc:  "[file_locations]\ntextfiles_dir = \"dots\"\nlink_target_dir = \"  \"\n",
			want: FileLocations{TextfilesDir: "dots", LinkTargetDir: xdg.Home},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Run("base", func(t *testing.T) {
				fsys := writeDocs(t, map[string]string{"default.toml": tt.doc})

				res, err := Load(fsys, "config", platform.MacOS, "laptop")
				require.NoError(t, err)
				assert.Equal(t, tt.want, res.Config.FileLocations)
			})
			t.Run("override", func(t *testing.T) {
				fsys := writeDocs(t, map[string]string{
					"default.toml":       baseDoc,
					"laptop-custom.toml": tt.doc,
				})

				res, err := Load(fsys, "config", platform.MacOS, "laptop")
				require.NoError(t, err)
				assert.Equal(t, tt.want, res.Config.FileLocations)
				assert.NotEmpty(t, res.Config.FileLocations.TextfilesDir)
				assert.NotEmpty(t, res.Config.FileLocations.LinkTargetDir)
			})
		})
	}
}

func TestDocumentPaths(t *testing.T) {
	assert.Equal(t, []string{
		filepath.Join("cfg", "default.toml"),
		filepath.Join("cfg", "centos.toml"),
		filepath.Join("cfg", "box-custom.toml"),
	}, DocumentPaths("cfg", platform.CentOS, "box"))
}
