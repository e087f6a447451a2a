// Package platform identifies the host operating system, architecture and
// container context the runner executes in.
package platform

import (
	"os"
	"runtime"
	"strings"
	"sync"
)

// OS is an operating system family.
type OS string

const (
	OSDarwin  OS = "darwin"
	OSLinux   OS = "linux"
	OSWindows OS = "windows"
	OSUnknown OS = "unknown"
)

// Environment is the kind of host the process runs on.
type Environment string

const (
	EnvNative Environment = "native"
	EnvWSL    Environment = "wsl"
	EnvDocker Environment = "docker"
)

// Platform is an immutable description of the host.
type Platform struct {
	os          OS
	arch        string
	environment Environment
}

var (
	detected   *Platform
	detectOnce sync.Once
)

// Detect inspects the running host once and caches the answer.
func Detect() *Platform {
	detectOnce.Do(func() {
		detected = detect(runtime.GOOS, runtime.GOARCH, os.ReadFile, fileExists)
	})
	return detected
}

// New returns a Platform with fixed values.
func New(goos OS, arch string, env Environment) *Platform {
	return &Platform{os: goos, arch: arch, environment: env}
}

func detect(goos, arch string, readFile func(string) ([]byte, error), exists func(string) bool) *Platform {
	p := &Platform{os: parseOS(goos), arch: arch, environment: EnvNative}
	if p.os != OSLinux {
		return p
	}

	if version, err := readFile("/proc/version"); err == nil {
		lower := strings.ToLower(string(version))
		if strings.Contains(lower, "microsoft") || strings.Contains(lower, "wsl") {
			p.environment = EnvWSL
			return p
		}
	}

	if exists("/.dockerenv") {
		p.environment = EnvDocker
		return p
	}
	if cgroup, err := readFile("/proc/1/cgroup"); err == nil {
		if strings.Contains(string(cgroup), "docker") || strings.Contains(string(cgroup), "containerd") {
			p.environment = EnvDocker
		}
	}
	return p
}

func parseOS(goos string) OS {
	switch goos {
	case "darwin":
		return OSDarwin
	case "linux":
		return OSLinux
	case "windows":
		return OSWindows
	default:
		return OSUnknown
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (p *Platform) OS() OS                   { return p.os }
func (p *Platform) Arch() string             { return p.arch }
func (p *Platform) Environment() Environment { return p.environment }
func (p *Platform) IsMacOS() bool            { return p.os == OSDarwin }
func (p *Platform) IsLinux() bool            { return p.os == OSLinux }
func (p *Platform) IsWindows() bool          { return p.os == OSWindows }
func (p *Platform) InContainer() bool        { return p.environment == EnvDocker }

// PackageManagerPrefixes returns the absolute Homebrew prefixes worth
// probing on this host. Apple Silicon and Intel Macs use different
// prefixes; Linuxbrew has a single well-known location.
func (p *Platform) PackageManagerPrefixes() []string {
	switch p.os {
	case OSDarwin:
		if p.arch == "arm64" {
			return []string{"/opt/homebrew"}
		}
		return []string{"/usr/local"}
	case OSLinux:
		return []string{"/home/linuxbrew/.linuxbrew"}
	default:
		return nil
	}
}

// String returns os/arch with the environment appended when not native.
func (p *Platform) String() string {
	s := string(p.os) + "/" + p.arch
	if p.environment != EnvNative {
		s += "/" + string(p.environment)
	}
	return s
}
