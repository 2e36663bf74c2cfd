// Package discover locates engine executables by matching file names in a
// list of directories against glob patterns.
package discover

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/uccibridge/internal/errors"
)

// Candidate is an executable that matched a pattern.
type Candidate struct {
	Path    string `json:"path" yaml:"path"`
	Name    string `json:"name" yaml:"name"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

// Find lists executables in dirs whose base name matches one of patterns.
//
// Directories are not searched recursively and missing ones are skipped.
// Results keep the order of dirs, then patterns, then file name; a file
// matching several patterns is listed once, under the first.
func Find(dirs, patterns []string) ([]Candidate, error) {
	matchers, err := compile(patterns)
	if err != nil {
		return nil, err
	}

	var found []Candidate
	seen := make(map[string]bool)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "read engine directory %s", dir)
		}

		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		sort.Strings(names)

		for _, m := range matchers {
			for _, name := range names {
				path := filepath.Join(dir, name)
				if seen[path] || !m.g.Match(matchName(name)) {
					continue
				}
				if !isExecutable(path) {
					continue
				}
				seen[path] = true
				found = append(found, Candidate{Path: path, Name: name, Pattern: m.pattern})
			}
		}
	}
	return found, nil
}

// Resolve returns path when it is set, otherwise the first candidate Find
// reports. It fails with a NotFoundError when nothing matches.
func Resolve(path string, dirs, patterns []string) (string, error) {
	if path != "" {
		return path, nil
	}

	found, err := Find(dirs, patterns)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", errors.NewNotFoundError("engine", strings.Join(patterns, ", "))
	}
	return found[0].Path, nil
}

type matcher struct {
	pattern string
	g       glob.Glob
}

func compile(patterns []string) ([]matcher, error) {
	out := make([]matcher, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return nil, errors.NewValidationError("invalid engine pattern").WithField("patterns").WithValue(p).WithCause(err)
		}
		out = append(out, matcher{pattern: p, g: g})
	}
	return out, nil
}

// matchName is the form of a file name patterns are matched against:
// lower-cased, and without ".exe" on Windows.
func matchName(name string) string {
	name = strings.ToLower(name)
	if runtime.GOOS == "windows" {
		name = strings.TrimSuffix(name, ".exe")
	}
	return name
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return strings.EqualFold(filepath.Ext(path), ".exe")
	}
	return info.Mode().Perm()&0111 != 0
}
