//go:build windows

package probe

import (
	"os"
	"path/filepath"
	"strings"
)

// IsExecutable reports whether path exists and is not a directory. Windows
// has no execute bit; the extension decides runnability.
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func executableNames(tool string) []string {
	if filepath.Ext(tool) != "" {
		return []string{tool}
	}
	exts := os.Getenv("PATHEXT")
	if exts == "" {
		exts = ".COM;.EXE;.BAT;.CMD"
	}
	names := []string{}
	for _, ext := range strings.Split(exts, ";") {
		if ext != "" {
			names = append(names, tool+strings.ToLower(ext))
		}
	}
	return names
}
