package requirement

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/semver"
)

const toolVersionsFile = ".tool-versions"

var miseConfigFiles = []string{"mise.toml", ".mise.toml"}

// projectVersion reports whether the project pins a version of the
// runtime and, when it can be read, which one.
func projectVersion(root string, mc *ManagedCommand) (string, bool) {
	if mc.VersionFile != "" {
		if data, err := os.ReadFile(filepath.Join(root, mc.VersionFile)); err == nil {
			return strings.TrimSpace(firstLine(string(data))), true
		}
	}
	tool := mc.VersionTool
	if tool == "" {
		tool = mc.Tool
	}
	if v, ok := toolVersionsEntry(filepath.Join(root, toolVersionsFile), tool); ok {
		return v, true
	}
	for _, name := range miseConfigFiles {
		if v, ok := miseToolEntry(filepath.Join(root, name), tool); ok {
			return v, true
		}
	}
	return "", false
}

func toolVersionsEntry(path, tool string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	aliases := map[string]bool{tool: true}
	if tool == "node" {
		aliases["nodejs"] = true
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 1 && aliases[fields[0]] {
			return fields[1], true
		}
	}
	return "", false
}

func miseToolEntry(path, tool string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	var doc struct {
		Tools map[string]any `toml:"tools"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return "", false
	}
	value, ok := doc.Tools[tool]
	if !ok {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return v, true
	case []any:
		if len(v) > 0 {
			return fmt.Sprint(v[0]), true
		}
	case map[string]any:
		if version, ok := v["version"].(string); ok {
			return version, true
		}
	}
	return "", true
}

// VersionHint normalizes a pinned version for display. Full semantic
// versions are canonicalized ("ruby-3.1.4" becomes "v3.1.4"), partial ones
// keep their precision ("3.2" becomes "v3.2"), and anything else, such as
// "lts/iron", is returned unchanged.
func VersionHint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	trimmed := strings.TrimLeftFunc(raw, func(r rune) bool { return r < '0' || r > '9' })
	if trimmed == "" {
		return raw
	}
	v := "v" + trimmed
	if !semver.IsValid(v) {
		return raw
	}
	core, _, _ := strings.Cut(strings.SplitN(v, "+", 2)[0], "-")
	if strings.Count(core, ".") < 2 {
		return v
	}
	return semver.Canonical(v)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
