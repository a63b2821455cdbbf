package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Step is one component of a path: a field name or a sequence index.
// Exactly one of Name and Index is set.
type Step struct {
	Name  *string
	Index *int
}

func Field(name string) Step {
	return Step{Name: &name}
}

func Index(i int) Step {
	return Step{Index: &i}
}

func (s Step) String() string {
	if s.Name != nil {
		return *s.Name
	}
	return "[" + strconv.Itoa(*s.Index) + "]"
}

type Path []Step

// ParsePath parses the dotted and bracketed address syntax: name
// components match [A-Za-z0-9_]+ and are joined by dots, index
// components are bracketed signed integers attached with no dot.
// "a.b[0].c" is a.b, element 0, field c. The empty string is the empty
// path. Any gap or trailing remainder fails with ErrInvalidPath.
func ParsePath(s string) (Path, error) {
	var path Path
	i := 0
	for i < len(s) {
		switch {
		case s[i] == '.':
			if i == 0 {
				return nil, fmt.Errorf("%w: leading dot in %q", ErrInvalidPath, s)
			}
			i++
			j := scanName(s, i)
			if j == i {
				return nil, fmt.Errorf("%w: empty component at %d in %q", ErrInvalidPath, i, s)
			}
			path = append(path, Field(s[i:j]))
			i = j
		case s[i] == '[':
			j := strings.IndexByte(s[i:], ']')
			if j < 0 {
				return nil, fmt.Errorf("%w: unterminated index in %q", ErrInvalidPath, s)
			}
			n, err := strconv.Atoi(s[i+1 : i+j])
			if err != nil {
				return nil, fmt.Errorf("%w: bad index %q in %q", ErrInvalidPath, s[i+1:i+j], s)
			}
			path = append(path, Index(n))
			i += j + 1
		default:
			// A bare name may only open the path; later names need a
			// dot, so anything else here is a gap.
			if i != 0 {
				return nil, fmt.Errorf("%w: unexpected %q at %d in %q", ErrInvalidPath, s[i], i, s)
			}
			j := scanName(s, i)
			if j == i {
				return nil, fmt.Errorf("%w: unexpected %q at %d in %q", ErrInvalidPath, s[i], i, s)
			}
			path = append(path, Field(s[i:j]))
			i = j
		}
	}
	return path, nil
}

func scanName(s string, i int) int {
	for i < len(s) && isNameByte(s[i]) {
		i++
	}
	return i
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// String is the left inverse of ParsePath on canonical inputs.
func (p Path) String() string {
	var sb strings.Builder
	for i, s := range p {
		if s.Name != nil {
			if i > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(*s.Name)
			continue
		}
		sb.WriteByte('[')
		sb.WriteString(strconv.Itoa(*s.Index))
		sb.WriteByte(']')
	}
	return sb.String()
}

func (p Path) Extend(s Step) Path {
	child := make(Path, len(p), len(p)+1)
	copy(child, p)
	return append(child, s)
}

// NormalizePath accepts the path-like shapes callers pass around: nil
// (empty path), a path string, a single int index, an existing Path,
// or a []any of names and indices. Booleans are rejected.
func NormalizePath(v any) (Path, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case Path:
		return x, nil
	case Step:
		return Path{x}, nil
	case string:
		return ParsePath(x)
	case int:
		return Path{Index(x)}, nil
	case []any:
		path := make(Path, 0, len(x))
		for _, c := range x {
			switch cc := c.(type) {
			case string:
				path = append(path, Field(cc))
			case int:
				path = append(path, Index(cc))
			default:
				return nil, fmt.Errorf("%w: component %v (%T)", ErrInvalidPath, c, c)
			}
		}
		return path, nil
	}
	return nil, fmt.Errorf("%w: %v (%T)", ErrInvalidPath, v, v)
}
