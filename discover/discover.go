// Package discover finds the frames of a mesh sequence on disk.
//
// A pattern is a shell glob with two additions: '#' matches the frame number
// and '{...}' marks the parts of the path that make up the mesh name. For
// example "./assets/{box_rotate}_#.obj" matches assets/box_rotate_12.obj as
// frame 12 of "box_rotate".
package discover

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrNoMatches = errors.New("no files match the pattern")

// Entry is one discovered file.
type Entry struct {
	Name  string
	Frame int
	Path  string
}

// Pattern is a compiled frame pattern.
type Pattern struct {
	root     string
	maxDepth int // -1: unlimited
	re       *regexp.Regexp
	frame    int // submatch index of the frame number, 0 if none
}

// Compile translates a frame pattern into a regular expression.
func Compile(pattern string) (*Pattern, error) {
	pattern = filepath.ToSlash(strings.TrimPrefix(pattern, "./"))
	if pattern == "" {
		return nil, errors.New("empty pattern")
	}

	var sb strings.Builder
	sb.WriteString("^")
	group, frame, depth := 0, 0, 0
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '#':
			if frame == 0 {
				group++
				frame = group
				sb.WriteString("([0-9]+)")
			} else {
				sb.WriteString("[0-9]+")
			}
		case '{':
			group++
			sb.WriteString("(")
		case '}':
			sb.WriteString(")")
		case '?':
			sb.WriteString("[^/]")
		case '*':
			if strings.HasPrefix(pattern[i:], "**/") && (i == 0 || pattern[i-1] == '/') {
				sb.WriteString("(?:[^/]*/)*")
				i += 2
				depth = -1
			} else if strings.HasPrefix(pattern[i:], "**") {
				sb.WriteString(".*")
				i++
				depth = -1
			} else {
				sb.WriteString("[^/]*")
			}
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, errors.Wrapf(err, "pattern %q", pattern)
	}

	root := pattern
	if i := strings.IndexAny(pattern, "*?#{["); i >= 0 {
		root = pattern[:i]
	}
	if j := strings.LastIndex(root, "/"); j >= 0 {
		root = root[:j+1]
	} else {
		root = ""
	}
	if depth == 0 {
		depth = strings.Count(pattern[len(root):], "/")
	}
	return &Pattern{root: root, maxDepth: depth, re: re, frame: frame}, nil
}

// Match reports whether path matches and extracts its name and frame.
// Paths without a frame number are frame 0.
func (p *Pattern) Match(path string) (name string, frame int, ok bool) {
	m := p.re.FindStringSubmatch(filepath.ToSlash(path))
	if m == nil {
		return "", 0, false
	}
	for i := 1; i < len(m); i++ {
		if i == p.frame {
			frame, _ = strconv.Atoi(m[i])
		} else {
			name += m[i]
		}
	}
	return name, frame, true
}

// HasFrame reports whether the pattern contains '#'.
func (p *Pattern) HasFrame() bool {
	return p.frame > 0
}

// Find lists the files matching pattern, keeping frames whose distance to the
// lowest frame is a multiple of step. Results are sorted by (name, frame).
func Find(pattern string, step int) ([]Entry, error) {
	p, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	root := p.root
	if root == "" {
		root = "."
	}
	var entries []Entry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := filepath.ToSlash(path)
		if p.root == "" {
			rel = strings.TrimPrefix(rel, "./")
		}
		if d.IsDir() {
			if p.maxDepth >= 0 && path != root && strings.Count(strings.TrimPrefix(rel, p.root), "/") >= p.maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if name, frame, ok := p.Match(rel); ok {
			entries = append(entries, Entry{Name: name, Frame: frame, Path: path})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "search %s", root)
	}
	entries = FilterStep(entries, step, p.HasFrame())
	if len(entries) == 0 {
		return nil, ErrNoMatches
	}
	Sort(entries)
	return entries, nil
}

// FilterStep keeps every step-th frame counted from the lowest frame.
func FilterStep(entries []Entry, step int, hasFrame bool) []Entry {
	if step <= 1 || !hasFrame || len(entries) == 0 {
		return entries
	}
	lowest := entries[0].Frame
	for _, e := range entries {
		if e.Frame < lowest {
			lowest = e.Frame
		}
	}
	out := entries[:0]
	for _, e := range entries {
		if (e.Frame-lowest)%step == 0 {
			out = append(out, e)
		}
	}
	return out
}

func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Frame < entries[j].Frame
	})
}
