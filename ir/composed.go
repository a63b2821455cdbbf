package ir

import (
	"fmt"
)

// ResolveMode selects what Resolve does at the first missing path
// component.
type ResolveMode int

const (
	// Strict fails with ErrNotFound.
	Strict ResolveMode = iota
	// Optional returns nil with no error.
	Optional
)

// Child pairs a child node with the step addressing it in its parent.
type Child struct {
	Step Step
	Node *Node
}

func (y *Node) stepOf(s Step) (*Node, bool) {
	switch {
	case s.Name != nil:
		if y.Kind != DictKind && y.Kind != CallKind && y.Kind != BindKind {
			return nil, false
		}
		for i := range y.Fields {
			if y.Fields[i] == *s.Name {
				return y.Values[i], true
			}
		}
	case s.Index != nil:
		switch y.Kind {
		case ListKind, TupleKind, AppendKind:
		default:
			return nil, false
		}
		i := *s.Index
		if i < 0 {
			i += len(y.Values)
		}
		if i < 0 || i >= len(y.Values) {
			return nil, false
		}
		return y.Values[i], true
	}
	return nil, false
}

func (y *Node) HasChild(name any) bool {
	s, err := stepOfName(name)
	if err != nil {
		return false
	}
	_, ok := y.stepOf(s)
	return ok
}

// GetChild returns the child addressed by name, a string field or an
// int index.
func (y *Node) GetChild(name any) (*Node, error) {
	s, err := stepOfName(name)
	if err != nil {
		return nil, err
	}
	yy, ok := y.stepOf(s)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s node", ErrNotFound, s, y.Kind)
	}
	return yy, nil
}

// SetChild inserts or replaces a child, wrapping raw values through
// type deduction against memo.
func (y *Node) SetChild(name any, v any, memo Memo) error {
	yy, err := New(v, memo, Flags{})
	if err != nil {
		return err
	}
	s, err := stepOfName(name)
	if err != nil {
		return err
	}
	switch {
	case s.Name != nil:
		for i := range y.Fields {
			if y.Fields[i] == *s.Name {
				y.Values[i] = yy
				return nil
			}
		}
		y.Fields = append(y.Fields, *s.Name)
		y.Values = append(y.Values, yy)
		return nil
	default:
		i := *s.Index
		if i < 0 {
			i += len(y.Values)
		}
		if i == len(y.Values) {
			y.Values = append(y.Values, yy)
			return nil
		}
		if i < 0 || i > len(y.Values) {
			return fmt.Errorf("%w: index %d in %d-element %s", ErrNotFound, *s.Index, len(y.Values), y.Kind)
		}
		y.Values[i] = yy
		return nil
	}
}

func (y *Node) RemoveChild(name any) error {
	s, err := stepOfName(name)
	if err != nil {
		return err
	}
	switch {
	case s.Name != nil:
		for i := range y.Fields {
			if y.Fields[i] == *s.Name {
				y.Fields = append(y.Fields[:i], y.Fields[i+1:]...)
				y.Values = append(y.Values[:i], y.Values[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrNotFound, *s.Name)
	default:
		i := *s.Index
		if i < 0 {
			i += len(y.Values)
		}
		if i < 0 || i >= len(y.Values) {
			return fmt.Errorf("%w: index %d", ErrNotFound, *s.Index)
		}
		y.Values = append(y.Values[:i], y.Values[i+1:]...)
		return nil
	}
}

// RenameChild moves the child at old to new, keeping its position.
func (y *Node) RenameChild(old, new string) error {
	if Get(y, new) != nil {
		return fmt.Errorf("%w: %s", ErrNameConflict, new)
	}
	for i := range y.Fields {
		if y.Fields[i] == old {
			y.Fields[i] = new
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, old)
}

func stepOfName(name any) (Step, error) {
	switch x := name.(type) {
	case string:
		return Field(x), nil
	case int:
		return Index(x), nil
	case Step:
		return x, nil
	}
	return Step{}, fmt.Errorf("%w: child name %v (%T)", ErrInvalidPath, name, name)
}

// Resolve walks path from y. Strict mode fails with ErrNotFound at the
// first missing component; Optional returns nil instead.
func (y *Node) Resolve(path Path, mode ResolveMode) (*Node, error) {
	cur := y
	for i, s := range path {
		next, ok := cur.stepOf(s)
		if !ok {
			if mode == Optional {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: %s (missing %s)", ErrNotFound, path, path[:i+1])
		}
		cur = next
	}
	return cur, nil
}

// ResolvePartial walks path from y and returns the nodes visited,
// starting with y itself. If a component is missing the sequence ends
// with a nil sentinel; the node before it is the deepest ancestor that
// exists.
func (y *Node) ResolvePartial(path Path) []*Node {
	visited := make([]*Node, 0, len(path)+1)
	visited = append(visited, y)
	cur := y
	for _, s := range path {
		next, ok := cur.stepOf(s)
		if !ok {
			return append(visited, nil)
		}
		visited = append(visited, next)
		cur = next
	}
	return visited
}

// Children returns the ordered children of a composed node paired with
// their addressing steps. With allowDuplicates false each distinct
// child identity is yielded once, at its first position.
func (y *Node) Children(allowDuplicates bool) []Child {
	var res []Child
	var seen map[*Node]bool
	if !allowDuplicates {
		seen = map[*Node]bool{}
	}
	isDict := y.Kind == DictKind || y.Kind == CallKind || y.Kind == BindKind
	for i, yy := range y.Values {
		if seen != nil {
			if seen[yy] {
				continue
			}
			seen[yy] = true
		}
		if isDict {
			res = append(res, Child{Step: Field(y.Fields[i]), Node: yy})
		} else {
			res = append(res, Child{Step: Index(i), Node: yy})
		}
	}
	return res
}

// MapNodes rewrites the tree rooted at y depth first, bottom up. The
// transform sees each distinct node identity exactly once; shared
// nodes receive the cached replacement, so DAG sharing survives the
// rewrite. With leafOnly true only leaves are transformed and composed
// nodes are merely reassembled. Returns the possibly-new root.
func (y *Node) MapNodes(f func(path Path, n *Node) (*Node, error), leafOnly bool) (*Node, error) {
	return mapNodes(y, nil, f, leafOnly, map[*Node]*Node{})
}

func mapNodes(y *Node, path Path, f func(Path, *Node) (*Node, error), leafOnly bool, cache map[*Node]*Node) (*Node, error) {
	if out, ok := cache[y]; ok {
		return out, nil
	}
	for i, c := range y.Children(true) {
		out, err := mapNodes(c.Node, path.Extend(c.Step), f, leafOnly, cache)
		if err != nil {
			return nil, err
		}
		if out != c.Node {
			y.Values[i] = out
		}
	}
	out := y
	if !leafOnly || y.IsLeaf() {
		var err error
		out, err = f(path, y)
		if err != nil {
			return nil, err
		}
	}
	cache[y] = out
	return out, nil
}

// FilterNodes removes children the predicate rejects. A composed child
// survives if the predicate keeps it directly or any of its
// descendants survives its own filtering. Returns the root, or nil if
// nothing survives.
func (y *Node) FilterNodes(pred func(path Path, n *Node) (bool, error)) (*Node, error) {
	keep, err := filterNodes(y, nil, pred)
	if err != nil {
		return nil, err
	}
	if !keep {
		return nil, nil
	}
	return y, nil
}

func filterNodes(y *Node, path Path, pred func(Path, *Node) (bool, error)) (bool, error) {
	keep, err := pred(path, y)
	if err != nil {
		return false, err
	}
	if y.IsLeaf() {
		return keep, nil
	}
	anyChild := false
	var drop []Step
	for _, c := range y.Children(true) {
		childKeep, err := filterNodes(c.Node, path.Extend(c.Step), pred)
		if err != nil {
			return false, err
		}
		if childKeep {
			anyChild = true
			continue
		}
		drop = append(drop, c.Step)
	}
	// Remove back to front so index steps stay valid.
	for i := len(drop) - 1; i >= 0; i-- {
		if err := y.RemoveChild(drop[i]); err != nil {
			return false, err
		}
	}
	return keep || anyChild, nil
}
