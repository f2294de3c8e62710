package main

import (
	"machine-bootstrap/cmd"
)

// main delegates to cmd.Execute, which parses the command line and runs the
// selected command.
//
// machine-bootstrap prepares a fresh workstation in one pass:
//   - Loads config/default.toml, then config/<os>.toml, then
//     config/<hostname>-custom.toml; a later document replaces whole sections
//   - Installs Rosetta on Apple Silicon when settings.install_rosetta is set
//   - Installs Homebrew with the official install script if brew is missing
//   - Copies the dotfiles tree into ~/files_to_link and symlinks its top-level
//     files into the home directory when settings.link_files is set
//   - Records outcomes in a YAML state file shown by `machine-bootstrap status`
//
// Failing steps are logged and the remaining steps still run.
func main() {
	cmd.Execute()
}
