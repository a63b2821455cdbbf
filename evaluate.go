package strata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/strata-format/strata/debug"
	"github.com/strata-format/strata/ir"
)

// Evaluate walks the composed tree bottom up and produces a native Go
// value. Every node evaluates exactly once per identity; shared
// subtrees share their result. Failures abort the pass and carry the
// path at which they occurred.
func (b *Builder) Evaluate(root *ir.Node) (any, error) {
	e := &evaluator{
		root:  root,
		funcs: b.funcs,
		memo:  map[*ir.Node]any{},
		busy:  map[*ir.Node]bool{},
	}
	return e.eval(nil, root)
}

type evaluator struct {
	root  *ir.Node
	funcs *FuncTable
	memo  map[*ir.Node]any
	busy  map[*ir.Node]bool
}

func (e *evaluator) eval(path ir.Path, y *ir.Node) (any, error) {
	if v, ok := e.memo[y]; ok {
		return v, nil
	}
	if e.busy[y] {
		return nil, fmt.Errorf("%w: %s", ir.ErrCyclicReference, path)
	}
	e.busy[y] = true
	v, err := e.evalNew(path, y)
	delete(e.busy, y)
	if err != nil {
		return nil, err
	}
	e.memo[y] = v
	return v, nil
}

func (e *evaluator) evalNew(path ir.Path, y *ir.Node) (any, error) {
	if debug.Eval() {
		debug.Logf("eval %s: %s\n", path, y.Kind)
	}
	switch y.Kind {
	case ir.ScalarKind:
		return y.Value, nil
	case ir.NullKind:
		return nil, nil
	case ir.DictKind:
		res := make(map[string]any, len(y.Fields))
		for i, name := range y.Fields {
			v, err := e.eval(path.Extend(ir.Field(name)), y.Values[i])
			if err != nil {
				return nil, err
			}
			res[name] = v
		}
		return res, nil
	case ir.ListKind, ir.TupleKind, ir.AppendKind:
		res := make([]any, len(y.Values))
		for i, yy := range y.Values {
			v, err := e.eval(path.Extend(ir.Index(i)), yy)
			if err != nil {
				return nil, err
			}
			res[i] = v
		}
		return res, nil
	case ir.XRefKind:
		return e.evalXRef(path, y)
	case ir.PrevKind:
		if y.Before == nil {
			return nil, fmt.Errorf("%w at %s", ErrNoPreviousValue, path)
		}
		return e.eval(path, y.Before)
	case ir.RequiredKind:
		return nil, fmt.Errorf("%w at %s", ErrMissingRequiredValue, path)
	case ir.FStrKind:
		return e.interpolate(path, y.Str)
	case ir.EvalKind:
		return e.evalExpr(path, y)
	case ir.CallKind:
		fn, bound, err := e.evalCallable(path, y)
		if err != nil {
			return nil, err
		}
		res, err := fn(bound.Args, bound.Kwargs)
		if err != nil {
			return nil, fmt.Errorf("call %q at %s: %w", y.Func, path, err)
		}
		return res, nil
	case ir.BindKind:
		_, bound, err := e.evalCallable(path, y)
		if err != nil {
			return nil, err
		}
		return bound, nil
	case ir.IncludeKind, ir.ImportKind:
		return nil, fmt.Errorf("%w: %s at %s survived preprocess", ErrUnresolvedNode, y.Kind, path)
	}
	return nil, fmt.Errorf("%w: %s at %s", ErrUnresolvedNode, y.Kind, path)
}

func (e *evaluator) evalXRef(path ir.Path, y *ir.Node) (any, error) {
	target, err := ir.ParsePath(y.Str)
	if err != nil {
		return nil, fmt.Errorf("xref at %s: %w", path, err)
	}
	node, err := e.root.Resolve(target, ir.Strict)
	if err != nil {
		return nil, fmt.Errorf("xref at %s: %w", path, err)
	}
	return e.eval(target, node)
}

func (e *evaluator) evalCallable(path ir.Path, y *ir.Node) (Func, *Bound, error) {
	fn, ok := e.funcs.Lookup(y.Func)
	if !ok {
		return nil, nil, fmt.Errorf("%s %q at %s: %w", y.Kind, y.Func, path, ir.ErrNotFound)
	}
	bound := &Bound{Name: y.Func, fn: fn}
	for i, name := range y.Fields {
		v, err := e.eval(path.Extend(ir.Field(name)), y.Values[i])
		if err != nil {
			return nil, nil, err
		}
		if name == ir.ArgsField {
			args, ok := v.([]any)
			if !ok {
				return nil, nil, fmt.Errorf("%s %q at %s: positional arguments are %T", y.Kind, y.Func, path, v)
			}
			bound.Args = args
			continue
		}
		if bound.Kwargs == nil {
			bound.Kwargs = map[string]any{}
		}
		bound.Kwargs[name] = v
	}
	return fn, bound, nil
}

// evalExpr runs an expression against the registered functions, the
// evaluated top-level entries and the siblings of the expression's own
// slot, with siblings shadowing top-level names. Entries that cannot
// evaluate yet because they depend on this expression are left out of
// scope.
func (e *evaluator) evalExpr(path ir.Path, y *ir.Node) (any, error) {
	env := map[string]any{}
	for _, name := range e.funcs.names() {
		fn, _ := e.funcs.Lookup(name)
		env[name] = exprFunc(fn)
	}
	if err := e.addScope(env, nil, e.root); err != nil {
		return nil, err
	}
	if len(path) > 1 {
		parentPath := path[:len(path)-1]
		parent, err := e.root.Resolve(parentPath, ir.Optional)
		if err == nil {
			if err := e.addScope(env, parentPath, parent); err != nil {
				return nil, err
			}
		}
	}
	prg, err := expr.Compile(y.Str, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("eval at %s: %w", path, err)
	}
	res, err := expr.Run(prg, env)
	if err != nil {
		return nil, fmt.Errorf("eval at %s: %w", path, err)
	}
	return res, nil
}

// addScope evaluates the entries of a dict into env, skipping entries
// that are still mid-evaluation.
func (e *evaluator) addScope(env map[string]any, base ir.Path, y *ir.Node) error {
	if y == nil || y.Kind != ir.DictKind {
		return nil
	}
	for i, name := range y.Fields {
		v, err := e.eval(base.Extend(ir.Field(name)), y.Values[i])
		if err != nil {
			if errors.Is(err, ir.ErrCyclicReference) {
				continue
			}
			return err
		}
		env[name] = v
	}
	return nil
}

func exprFunc(fn Func) func(...any) (any, error) {
	return func(args ...any) (any, error) {
		return fn(args, nil)
	}
}

// interpolate substitutes {path} references with the evaluated value
// at that path in the root tree. Doubled braces escape literal ones.
func (e *evaluator) interpolate(path ir.Path, tpl string) (string, error) {
	var sb strings.Builder
	i := 0
	for i < len(tpl) {
		c := tpl[i]
		switch {
		case c == '{' && i+1 < len(tpl) && tpl[i+1] == '{':
			sb.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(tpl) && tpl[i+1] == '}':
			sb.WriteByte('}')
			i += 2
		case c == '{':
			j := strings.IndexByte(tpl[i:], '}')
			if j < 0 {
				return "", fmt.Errorf("fstr at %s: unterminated reference in %q", path, tpl)
			}
			ref := tpl[i+1 : i+j]
			p, err := ir.ParsePath(ref)
			if err != nil {
				return "", fmt.Errorf("fstr at %s: %w", path, err)
			}
			node, err := e.root.Resolve(p, ir.Strict)
			if err != nil {
				return "", fmt.Errorf("fstr at %s: %w", path, err)
			}
			v, err := e.eval(p, node)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "%v", v)
			i += j + 1
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), nil
}
