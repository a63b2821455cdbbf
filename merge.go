package strata

import (
	"fmt"

	"github.com/strata-format/strata/debug"
	"github.com/strata-format/strata/ir"
)

// Premerge walks src and records, on every prev node, the destination
// node currently at the same path. It runs to completion before merge
// touches anything, so captures always see the pre-merge tree.
func Premerge(src, dst *ir.Node) {
	premerge(src, nil, dst, map[*ir.Node]bool{})
}

func premerge(y *ir.Node, path ir.Path, dstRoot *ir.Node, seen map[*ir.Node]bool) {
	if y == nil || seen[y] {
		return
	}
	seen[y] = true
	if y.Kind == ir.PrevKind {
		y.Before = nil
		if dstRoot != nil {
			before, _ := dstRoot.Resolve(path, ir.Optional)
			y.Before = before
		}
	}
	for _, c := range y.Children(true) {
		premerge(c.Node, path.Extend(c.Step), dstRoot, seen)
	}
}

// Merge folds src into dst and returns the merged tree. dst is never
// mutated: the merge stages into an identity-preserving working copy
// and returns it, so a failed merge leaves the caller's tree exactly
// as it was. src is read-only apart from premerge captures. A nil
// result with a nil error means the whole tree was deleted.
func Merge(dst, src *ir.Node) (*ir.Node, error) {
	Premerge(src, dst)
	cm := map[*ir.Node]*ir.Node{}
	if dst == nil {
		if explicitDelete(src) && !hasContent(src) {
			return nil, nil
		}
		if !src.EffectiveAllowNew() {
			return nil, fmt.Errorf("%w: merge into empty destination", ErrAllowNewViolation)
		}
		return src.CloneMemo(cm), nil
	}
	work := dst.Clone()
	out, err := mergeNodes(work, src, nil, cm)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// mergeNodes resolves one slot and returns its new occupant. A nil
// occupant removes the slot.
func mergeNodes(dst, src *ir.Node, path ir.Path, cm map[*ir.Node]*ir.Node) (*ir.Node, error) {
	if debug.Merge() {
		debug.Logf("merge %s: %s over %s\n", path, src.Kind, dst.Kind)
	}
	if src.Kind == ir.AppendKind {
		switch dst.Kind {
		case ir.ListKind, ir.TupleKind, ir.AppendKind:
			for _, yy := range src.Values {
				dst.Values = append(dst.Values, yy.CloneMemo(cm))
			}
			return dst, nil
		}
	}
	if dst.Kind == ir.DictKind && src.Kind == ir.DictKind {
		return mergeDicts(dst, src, path, cm)
	}
	if sequenceKind(dst.Kind) && dst.Kind == src.Kind {
		return mergeSeqs(dst, src, path, cm)
	}
	if !src.HasPriorityOver(dst, true) {
		return dst, nil
	}
	if explicitDelete(src) && !hasContent(src) {
		return nil, nil
	}
	return src.CloneMemo(cm), nil
}

func mergeDicts(dst, src *ir.Node, path ir.Path, cm map[*ir.Node]*ir.Node) (*ir.Node, error) {
	// A deleting dict replaces the destination subtree: prune every
	// destination entry the source does not mention, keeping any node
	// that outranks src along with the ancestors leading to it.
	if src.EffectiveDelete() {
		for i := len(dst.Values) - 1; i >= 0; i-- {
			if ir.Get(src, dst.Fields[i]) != nil {
				continue
			}
			if !pruneOutranked(dst.Values[i], src) {
				removeAt(dst, i)
			}
		}
	}
	for i, name := range src.Fields {
		sv := src.Values[i]
		childPath := path.Extend(ir.Field(name))
		dv := ir.Get(dst, name)
		if dv == nil {
			// Nothing to delete; nothing to create either when the
			// entry may not introduce new keys.
			if explicitDelete(sv) {
				continue
			}
			if !sv.EffectiveAllowNew() {
				return nil, fmt.Errorf("%w: %s", ErrAllowNewViolation, childPath)
			}
			dst.Fields = append(dst.Fields, name)
			dst.Values = append(dst.Values, sv.CloneMemo(cm))
			continue
		}
		winner, err := mergeNodes(dv, sv, childPath, cm)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			if err := dst.RemoveChild(name); err != nil {
				return nil, err
			}
			continue
		}
		if winner != dv {
			replaceChild(dst, name, winner)
		}
	}
	if src.EffectiveDelete() && len(dst.Values) == 0 {
		return nil, nil
	}
	return dst, nil
}

// mergeSeqs merges sequences of the same kind position by position.
// Source elements past the destination's length extend it; destination
// elements past the source's length survive, unless the source deletes
// and they do not outrank it.
func mergeSeqs(dst, src *ir.Node, path ir.Path, cm map[*ir.Node]*ir.Node) (*ir.Node, error) {
	n := min(len(dst.Values), len(src.Values))
	out := make([]*ir.Node, 0, max(len(dst.Values), len(src.Values)))
	for i := 0; i < n; i++ {
		winner, err := mergeNodes(dst.Values[i], src.Values[i], path.Extend(ir.Index(i)), cm)
		if err != nil {
			return nil, err
		}
		if winner != nil {
			out = append(out, winner)
		}
	}
	for i := n; i < len(src.Values); i++ {
		sv := src.Values[i]
		if explicitDelete(sv) && !hasContent(sv) {
			continue
		}
		if !sv.EffectiveAllowNew() {
			return nil, fmt.Errorf("%w: %s", ErrAllowNewViolation, path.Extend(ir.Index(i)))
		}
		out = append(out, sv.CloneMemo(cm))
	}
	for _, dv := range dst.Values[n:] {
		if !src.EffectiveDelete() || pruneOutranked(dv, src) {
			out = append(out, dv)
		}
	}
	dst.Values = out
	if src.EffectiveDelete() && len(dst.Values) == 0 {
		return nil, nil
	}
	return dst, nil
}

// pruneOutranked drops every descendant of y that does not hold
// strictly higher priority than src, keeping the ancestors of
// survivors. A node that outranks src keeps its whole subtree. Reports
// whether y itself survives.
func pruneOutranked(y, src *ir.Node) bool {
	if y.HasPriorityOver(src, false) {
		return true
	}
	if y.Kind != ir.DictKind && !sequenceKind(y.Kind) {
		return false
	}
	for i := len(y.Values) - 1; i >= 0; i-- {
		if !pruneOutranked(y.Values[i], src) {
			removeAt(y, i)
		}
	}
	return len(y.Values) > 0
}

func removeAt(y *ir.Node, i int) {
	if y.Kind == ir.DictKind {
		y.Fields = append(y.Fields[:i], y.Fields[i+1:]...)
	}
	y.Values = append(y.Values[:i], y.Values[i+1:]...)
}

func sequenceKind(k ir.Kind) bool {
	return k == ir.ListKind || k == ir.TupleKind
}

func replaceChild(dst *ir.Node, name string, y *ir.Node) {
	for i := range dst.Fields {
		if dst.Fields[i] == name {
			dst.Values[i] = y
			return
		}
	}
}

func explicitDelete(y *ir.Node) bool {
	return y.Delete != nil && *y.Delete
}

// hasContent reports whether a deleting winner carries a value of its
// own. A bare !del marker (null or empty payload) removes its slot
// instead of occupying it.
func hasContent(y *ir.Node) bool {
	switch y.Kind {
	case ir.NullKind:
		return false
	case ir.ScalarKind:
		return y.Value != nil
	case ir.DictKind, ir.ListKind, ir.TupleKind, ir.AppendKind:
		return len(y.Values) > 0
	}
	return true
}
