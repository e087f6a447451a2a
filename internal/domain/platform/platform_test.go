package platform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fakeFiles(files map[string]string) (func(string) ([]byte, error), func(string) bool) {
	read := func(path string) ([]byte, error) {
		if content, ok := files[path]; ok {
			return []byte(content), nil
		}
		return nil, errors.New("not found")
	}
	exists := func(path string) bool {
		_, ok := files[path]
		return ok
	}
	return read, exists
}

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		goos     string
		files    map[string]string
		expected Environment
		os       OS
	}{
		{"macos", "darwin", nil, EnvNative, OSDarwin},
		{"plain linux", "linux", map[string]string{"/proc/version": "Linux version 6.1"}, EnvNative, OSLinux},
		{"wsl", "linux", map[string]string{"/proc/version": "Linux 5.15-microsoft-standard-WSL2"}, EnvWSL, OSLinux},
		{"dockerenv", "linux", map[string]string{"/.dockerenv": ""}, EnvDocker, OSLinux},
		{"cgroup", "linux", map[string]string{"/proc/1/cgroup": "0::/system.slice/containerd.service"}, EnvDocker, OSLinux},
		{"plan9", "plan9", nil, EnvNative, OSUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			read, exists := fakeFiles(tt.files)
			p := detect(tt.goos, "amd64", read, exists)
			assert.Equal(t, tt.os, p.OS())
			assert.Equal(t, tt.expected, p.Environment())
		})
	}
}

func TestPackageManagerPrefixes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"/opt/homebrew"}, New(OSDarwin, "arm64", EnvNative).PackageManagerPrefixes())
	assert.Equal(t, []string{"/usr/local"}, New(OSDarwin, "amd64", EnvNative).PackageManagerPrefixes())
	assert.Equal(t, []string{"/home/linuxbrew/.linuxbrew"}, New(OSLinux, "arm64", EnvNative).PackageManagerPrefixes())
	assert.Nil(t, New(OSWindows, "amd64", EnvNative).PackageManagerPrefixes())
}

func TestString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "darwin/arm64", New(OSDarwin, "arm64", EnvNative).String())
	assert.Equal(t, "linux/amd64/docker", New(OSLinux, "amd64", EnvDocker).String())
	assert.True(t, New(OSLinux, "amd64", EnvDocker).InContainer())
}
