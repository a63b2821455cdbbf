package strata

import (
	"fmt"
	"sync"

	"github.com/strata-format/strata/ir"
)

// Func is a caller-registered function invoked by call nodes and bound
// by bind nodes. Arguments arrive already evaluated.
type Func func(args []any, kwargs map[string]any) (any, error)

// FuncTable maps names to registered functions. The zero value is not
// usable; construct with NewFuncTable.
type FuncTable struct {
	mu sync.RWMutex
	m  map[string]Func
}

func NewFuncTable() *FuncTable {
	return &FuncTable{m: map[string]Func{}}
}

func (t *FuncTable) Register(name string, fn Func) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.m[name]; ok {
		return fmt.Errorf("%w: function %q", ir.ErrNameConflict, name)
	}
	t.m[name] = fn
	return nil
}

func (t *FuncTable) Lookup(name string) (Func, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.m[name]
	return fn, ok
}

func (t *FuncTable) names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	res := make([]string, 0, len(t.m))
	for k := range t.m {
		res = append(res, k)
	}
	return res
}

var defaultFuncs = NewFuncTable()

// Register adds a function to the process-wide default table used by
// builders constructed without their own.
func Register(name string, fn Func) error {
	return defaultFuncs.Register(name, fn)
}

// DefaultFuncs returns the process-wide function table.
func DefaultFuncs() *FuncTable {
	return defaultFuncs
}

// Bound is the evaluated form of a bind node: a function with its
// arguments partially applied, invoked later by the caller.
type Bound struct {
	Name   string
	Args   []any
	Kwargs map[string]any

	fn Func
}

// Call invokes the bound function, appending extra positional
// arguments after the bound ones.
func (b *Bound) Call(extra ...any) (any, error) {
	args := make([]any, 0, len(b.Args)+len(extra))
	args = append(args, b.Args...)
	args = append(args, extra...)
	return b.fn(args, b.Kwargs)
}
