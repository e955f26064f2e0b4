package policy

import (
	"fmt"
	"path"
	"strings"
)

const anyDepth = "**"

// Matcher matches request paths against a set of Ant-style patterns.
type Matcher struct {
	patterns []pattern
}

type pattern struct {
	raw      string
	segments []string
}

// NewMatcher compiles patterns. Empty entries are ignored.
func NewMatcher(patterns ...string) (*Matcher, error) {
	m := &Matcher{}
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		p, err := compile(raw)
		if err != nil {
			return nil, err
		}
		m.patterns = append(m.patterns, p)
	}
	return m, nil
}

// Matches reports whether the path matches any pattern.
func (m *Matcher) Matches(requestPath string) bool {
	if m == nil {
		return false
	}
	segs := splitPath(requestPath)
	for _, p := range m.patterns {
		if p.match(segs) {
			return true
		}
	}
	return false
}

// Patterns returns the compiled patterns in order.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.patterns))
	for i, p := range m.patterns {
		out[i] = p.raw
	}
	return out
}

func compile(raw string) (pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return pattern{}, fmt.Errorf("pattern %q must start with /", raw)
	}
	segs := splitPath(raw)
	for _, seg := range segs {
		if seg == anyDepth {
			continue
		}
		if strings.Contains(seg, anyDepth) {
			return pattern{}, fmt.Errorf("pattern %q: ** must be a whole segment", raw)
		}
		if _, err := path.Match(seg, ""); err != nil {
			return pattern{}, fmt.Errorf("pattern %q: %w", raw, err)
		}
	}
	return pattern{raw: raw, segments: segs}, nil
}

// splitPath cleans p and splits it into segments. The root path has none.
func splitPath(p string) []string {
	if p == "" {
		p = "/"
	}
	cleaned := path.Clean("/" + p)
	if cleaned == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(cleaned, "/"), "/")
}

func (p pattern) match(segs []string) bool {
	return matchSegments(p.segments, segs)
}

func matchSegments(pat, segs []string) bool {
	for len(pat) > 0 {
		if pat[0] == anyDepth {
			rest := pat[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(segs); i++ {
				if matchSegments(rest, segs[i:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		if ok, _ := path.Match(pat[0], segs[0]); !ok {
			return false
		}
		pat, segs = pat[1:], segs[1:]
	}
	return len(segs) == 0
}
