package manifest

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher decides which relative paths are left out of a manifest.
//
// A pattern is compiled with '/' as the separator, so '*' stays within one
// path element and '**' crosses elements. A path is excluded when a pattern
// matches the whole slash-separated path or its base name, or when the path
// lies under a directory the pattern names literally. A trailing '/' on a
// pattern is ignored.
type Matcher struct {
	globs []glob.Glob
	dirs  []string
}

// NewMatcher compiles patterns. Empty patterns are skipped.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		p = strings.TrimSuffix(strings.TrimSpace(filepathToSlash(p)), "/")
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		m.globs = append(m.globs, g)
		m.dirs = append(m.dirs, p+"/")
	}
	return m, nil
}

// Match reports whether rel is excluded.
func (m *Matcher) Match(rel string) bool {
	if m == nil {
		return false
	}
	base := path.Base(rel)
	for i, g := range m.globs {
		if g.Match(rel) || g.Match(base) || strings.HasPrefix(rel, m.dirs[i]) {
			return true
		}
	}
	return false
}

// Len returns the number of compiled patterns.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.globs)
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
