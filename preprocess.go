package strata

import (
	"fmt"

	"github.com/strata-format/strata/debug"
	"github.com/strata-format/strata/ir"
)

// Preprocess resolves include and import nodes bottom up. Includes
// parse and fully merge the referenced file relative to the current
// source location; imports look up a function table entry. Ordinals of
// included nodes come from the build's counter, so reading order stays
// consistent across inclusion boundaries.
func (b *Builder) Preprocess(root *ir.Node) (*ir.Node, error) {
	return root.MapNodes(func(path ir.Path, n *ir.Node) (*ir.Node, error) {
		switch n.Kind {
		case ir.IncludeKind:
			if debug.Preprocess() {
				debug.Logf("include %q at %s\n", n.Str, path)
			}
			return b.include(n)
		case ir.ImportKind:
			fn, ok := b.funcs.Lookup(n.Str)
			if !ok {
				return nil, fmt.Errorf("import %q at %s: %w", n.Str, path, ir.ErrNotFound)
			}
			out := ir.FromValue(fn)
			out.Ordinal = n.Ordinal
			out.SourceFile = n.SourceFile
			return out, nil
		}
		return n, nil
	}, false)
}

func (b *Builder) include(n *ir.Node) (*ir.Node, error) {
	// Relative references resolve against the file the include node was
	// parsed from, not against whatever file the build is visiting.
	relativeTo := n.SourceFile
	if relativeTo == "" {
		relativeTo = b.currentFile()
	}
	data, resolved, err := b.loader.Load(n.Str, relativeTo)
	if err != nil {
		return nil, fmt.Errorf("include %q: %w", n.Str, err)
	}
	b.pushFile(resolved)
	defer b.popFile()
	root, err := b.flattenData(data, resolved, nil)
	if err != nil {
		return nil, fmt.Errorf("include %q: %w", n.Str, err)
	}
	if root == nil {
		return ir.Null(), nil
	}
	// Nested includes resolve relative to the included file.
	return b.Preprocess(root)
}
