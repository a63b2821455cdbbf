package strata

import (
	"fmt"

	"github.com/strata-format/strata/ir"
	"github.com/strata-format/strata/parse"
)

// Builder owns the per-build state: the function table, the file
// loader, the ordinal counter and the current-file stack that include
// resolution pushes and pops. Builders are single-use per build and
// not safe for concurrent use; independent builds get independent
// builders.
type Builder struct {
	funcs   *FuncTable
	loader  FileLoader
	memo    ir.Memo
	files   []string
	ordinal int
}

type BuilderOption func(*Builder)

func WithFuncs(t *FuncTable) BuilderOption {
	return func(b *Builder) {
		b.funcs = t
	}
}

func WithLoader(l FileLoader) BuilderOption {
	return func(b *Builder) {
		b.loader = l
	}
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		funcs:  defaultFuncs,
		loader: OSLoader(),
		memo:   ir.Memo{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Memo returns the build's identity memo for callers constructing
// nodes programmatically with ir.New.
func (b *Builder) Memo() ir.Memo {
	return b.memo
}

func (b *Builder) nextOrdinal() int {
	n := b.ordinal
	b.ordinal++
	return n
}

func (b *Builder) currentFile() string {
	if len(b.files) == 0 {
		return ""
	}
	return b.files[len(b.files)-1]
}

func (b *Builder) pushFile(name string) {
	b.files = append(b.files, name)
}

func (b *Builder) popFile() {
	b.files = b.files[:len(b.files)-1]
}

// Flatten parses the given files and folds all their documents into
// one composed tree, left to right. Deferred nodes stay unresolved.
func (b *Builder) Flatten(files ...string) (*ir.Node, error) {
	var cur *ir.Node
	for _, f := range files {
		data, resolved, err := b.loader.Load(f, b.currentFile())
		if err != nil {
			return nil, err
		}
		next, err := b.flattenData(data, resolved, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", resolved, err)
		}
		cur = next
	}
	return cur, nil
}

// FlattenLayers folds already-parsed layers into one composed tree.
func (b *Builder) FlattenLayers(layers ...*ir.Node) (*ir.Node, error) {
	var cur *ir.Node
	var err error
	for _, layer := range layers {
		cur, err = Merge(cur, layer)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func (b *Builder) flattenData(data []byte, source string, cur *ir.Node) (*ir.Node, error) {
	docs, err := parse.Parse(data,
		parse.WithSourceFile(source),
		parse.WithOrdinals(b.nextOrdinal))
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		cur, err = Merge(cur, doc)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// Build composes the files and resolves them to a native value:
// flatten, preprocess, evaluate.
func (b *Builder) Build(files ...string) (any, error) {
	root, err := b.Flatten(files...)
	if err != nil {
		return nil, err
	}
	return b.BuildTree(root)
}

// BuildTree preprocesses and evaluates an already-composed tree.
func (b *Builder) BuildTree(root *ir.Node) (any, error) {
	if root == nil {
		return nil, nil
	}
	root, err := b.Preprocess(root)
	if err != nil {
		return nil, err
	}
	return b.Evaluate(root)
}
