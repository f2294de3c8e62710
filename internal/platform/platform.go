// Package platform detects the host the bootstrap runs on: its operating
// system identifier, CPU architecture and short hostname.
package platform

import (
	"os"
	"runtime"
	"strings"

	"github.com/spf13/afero"

	"machine-bootstrap/internal/logger"
)

// OS identifies an operating system family the bootstrap knows about.
// The value doubles as the name of the OS-specific config document.
type OS string

const (
	MacOS   OS = "macos"
	Ubuntu  OS = "ubuntu"
	Debian  OS = "debian"
	RedHat  OS = "redhat"
	CentOS  OS = "centos"
	Unknown OS = "unknown"
)

// OSReleasePath is where Linux distributions describe themselves.
const OSReleasePath = "/etc/os-release"

// UnknownHostname is used whenever the hostname cannot be determined.
const UnknownHostname = "unknown"

func (o OS) String() string { return string(o) }

// IsLinux reports whether o is one of the recognised Linux distributions.
func (o OS) IsLinux() bool {
	switch o {
	case Ubuntu, Debian, RedHat, CentOS:
		return true
	}
	return false
}

// Host describes the machine being bootstrapped.
// - OS: recognised OS family; Unknown for distributions not listed above.
// - GOOS: the kernel the binary runs on, as reported by runtime.GOOS.
// - Arch: CPU architecture, as reported by runtime.GOARCH.
// - Hostname: short, lowercased hostname.
type Host struct {
	OS       OS
	GOOS     string
	Arch     string
	Hostname string
}

// IsLinux reports whether the host runs Linux, including distributions
// DetectOS does not recognise.
func (h Host) IsLinux() bool {
	return h.GOOS == "linux" || h.OS.IsLinux()
}

// Detect inspects the running machine. /etc/os-release is read through fsys
// so tests can supply their own.
func Detect(fsys afero.Fs) Host {
	var release string
	if runtime.GOOS == "linux" {
		raw, err := afero.ReadFile(fsys, OSReleasePath)
		if err != nil {
			logger.Debug("[DEBUG] Could not read %s: %v\n", OSReleasePath, err)
		} else {
			release = string(raw)
		}
	}

	host := Host{
		OS:       DetectOS(runtime.GOOS, release),
		GOOS:     runtime.GOOS,
		Arch:     runtime.GOARCH,
		Hostname: Hostname(),
	}
	logger.Debug("[DEBUG] Detected host: os=%s arch=%s hostname=%s\n", host.OS, host.Arch, host.Hostname)
	return host
}

// DetectOS maps a GOOS value and the contents of /etc/os-release to an OS.
// Matching is a lowercase substring search; ubuntu is tested before debian and
// centos before redhat because their os-release files mention the parent
// distribution in ID_LIKE.
func DetectOS(goos, osRelease string) OS {
	switch goos {
	case "darwin":
		return MacOS
	case "linux":
		release := strings.ToLower(osRelease)
		switch {
		case strings.Contains(release, "ubuntu"):
			return Ubuntu
		case strings.Contains(release, "debian"):
			return Debian
		case strings.Contains(release, "centos"):
			return CentOS
		case strings.Contains(release, "red hat"), strings.Contains(release, "rhel"):
			return RedHat
		}
	}
	return Unknown
}

// Hostname returns the short, lowercased hostname of the machine,
// or "unknown" when the lookup fails.
func Hostname() string {
	name, err := os.Hostname()
	if err != nil {
		logger.Warn("[WARN] Hostname lookup failed: %v\n", err)
		return UnknownHostname
	}
	return ShortHostname(name)
}

// ShortHostname returns the first DNS label of full, lowercased.
func ShortHostname(full string) string {
	label, _, _ := strings.Cut(strings.TrimSpace(full), ".")
	if label == "" {
		return UnknownHostname
	}
	return strings.ToLower(label)
}
