package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml/ast"

	"github.com/strata-format/strata/ir"
)

func (p *converter) convertTag(x *ast.TagNode) (*ir.Node, error) {
	tag := x.Start.Value
	if strings.HasPrefix(tag, "!!") {
		// Standard YAML tags carry no override semantics here.
		return p.convert(x.Value)
	}
	if !strings.HasPrefix(tag, "!") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	name, rest, hasRest := strings.Cut(tag[1:], ":")

	switch name {
	case "del", "weak", "force", "merge":
		if hasRest {
			return nil, fmt.Errorf("%w: %s takes no suffix, got %q", ErrInvalidTag, name, tag)
		}
		y, err := p.convertPayload(x.Value)
		if err != nil {
			return nil, err
		}
		switch name {
		case "del":
			y.WithDelete(true)
		case "merge":
			y.WithDelete(false)
		case "weak":
			y.WithPriority(ir.Weak)
		case "force":
			y.WithPriority(ir.Force)
		}
		return y, nil

	case "metadata":
		if !hasRest {
			return nil, fmt.Errorf("%w: metadata tag needs an encoded suffix", ErrInvalidTag)
		}
		m, err := ir.DecodeMeta(rest)
		if err != nil {
			return nil, err
		}
		y, err := p.convertPayload(x.Value)
		if err != nil {
			return nil, err
		}
		if err := y.ApplyMeta(m); err != nil {
			return nil, err
		}
		return y, nil

	case "append":
		if hasRest {
			return nil, fmt.Errorf("%w: append takes no suffix", ErrInvalidTag)
		}
		y, err := p.convert(x.Value)
		if err != nil {
			return nil, err
		}
		if y.Kind != ir.ListKind {
			return nil, fmt.Errorf("%w: append applies to sequences, got %s", ErrInvalidTag, y.Kind)
		}
		y.Kind = ir.AppendKind
		return y, nil

	case "include", "xref", "eval", "fstr", "import":
		if hasRest {
			return nil, fmt.Errorf("%w: %s takes no suffix", ErrInvalidTag, name)
		}
		if emptyPayload(x.Value) {
			return nil, fmt.Errorf("%w: %s needs an argument", ErrInvalidTag, name)
		}
		s, err := scalarString(x.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTag, name, err)
		}
		switch name {
		case "include":
			return p.stamp(ir.Include(s)), nil
		case "xref":
			return p.stamp(ir.XRef(s)), nil
		case "eval":
			return p.stamp(ir.Eval(s)), nil
		case "fstr":
			return p.stamp(ir.FStr(s)), nil
		}
		return p.stamp(ir.Import(s)), nil

	case "prev":
		if hasRest {
			return nil, fmt.Errorf("%w: prev takes no suffix", ErrInvalidTag)
		}
		y := p.stamp(ir.Prev())
		if !emptyPayload(x.Value) {
			s, err := scalarString(x.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: prev: %v", ErrInvalidTag, err)
			}
			y.Str = s
		}
		return y, nil

	case "required", "null":
		if hasRest {
			return nil, fmt.Errorf("%w: %s takes no suffix", ErrInvalidTag, name)
		}
		if !emptyPayload(x.Value) {
			return nil, fmt.Errorf("%w: %s takes no argument", ErrInvalidTag, name)
		}
		if name == "required" {
			return p.stamp(ir.Required()), nil
		}
		return p.stamp(ir.Null()), nil

	case "call", "bind":
		kind := ir.CallKind
		if name == "bind" {
			kind = ir.BindKind
		}
		return p.convertCall(kind, rest, x.Value)
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidTag, tag)
}

// convertCall handles !call:func[:meta] and bare !call (function named
// by a "func" entry in a mapping payload). Mapping payloads become
// keyword arguments, sequences positional arguments, and a scalar a
// single positional argument.
func (p *converter) convertCall(kind ir.Kind, rest string, payload ast.Node) (*ir.Node, error) {
	fn, metaEnc, hasMeta := strings.Cut(rest, ":")
	if strings.Contains(metaEnc, ":") {
		return nil, fmt.Errorf("%w: more than one metadata segment in %q", ErrInvalidTag, rest)
	}
	y := p.stamp(&ir.Node{Kind: kind, Func: fn})

	if emptyPayload(payload) {
		payload = nil
	}
	switch x := payload.(type) {
	case nil:
	case *ast.MappingNode:
		for _, kv := range x.Values {
			if err := p.convertCallEntry(y, kv); err != nil {
				return nil, err
			}
		}
	case *ast.MappingValueNode:
		if err := p.convertCallEntry(y, x); err != nil {
			return nil, err
		}
	case *ast.SequenceNode:
		args, err := p.convert(payload)
		if err != nil {
			return nil, err
		}
		y.Fields = append(y.Fields, ir.ArgsField)
		y.Values = append(y.Values, args)
	default:
		arg, err := p.convertPayload(payload)
		if err != nil {
			return nil, err
		}
		y.Fields = append(y.Fields, ir.ArgsField)
		y.Values = append(y.Values, ir.FromSlice([]*ir.Node{arg}))
	}

	if y.Func == "" {
		fnNode := ir.Get(y, "func")
		if fnNode == nil || fnNode.Kind != ir.ScalarKind {
			return nil, fmt.Errorf("%w: %s without a function name", ErrInvalidTag, y.Kind)
		}
		s, ok := fnNode.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: func entry is %T, want string", ErrInvalidTag, fnNode.Value)
		}
		y.Func = s
		if err := y.RemoveChild("func"); err != nil {
			return nil, err
		}
	}
	if hasMeta {
		m, err := ir.DecodeMeta(metaEnc)
		if err != nil {
			return nil, err
		}
		if err := y.ApplyMeta(m); err != nil {
			return nil, err
		}
	}
	return y, nil
}

func (p *converter) convertCallEntry(y *ir.Node, kv *ast.MappingValueNode) error {
	key, err := keyString(kv.Key)
	if err != nil {
		return err
	}
	if ir.Get(y, key) != nil {
		return fmt.Errorf("%w: duplicate argument %q", ir.ErrNameConflict, key)
	}
	val, err := p.convert(kv.Value)
	if err != nil {
		return err
	}
	y.Fields = append(y.Fields, key)
	y.Values = append(y.Values, val)
	return nil
}

func scalarString(n ast.Node) (string, error) {
	switch x := n.(type) {
	case *ast.StringNode:
		return x.Value, nil
	case *ast.LiteralNode:
		return x.Value.Value, nil
	}
	return "", fmt.Errorf("want a string, got %T", n)
}

func emptyPayload(n ast.Node) bool {
	switch x := n.(type) {
	case nil, *ast.NullNode:
		return true
	case *ast.StringNode:
		v, ok := implicitValue(x.Value)
		return ok && v == nil
	}
	return false
}

// convertPayload converts a tag payload. The scanner types whatever
// plain scalar directly follows an unknown tag as a string, so
// implicit resolution has to be redone here.
func (p *converter) convertPayload(n ast.Node) (*ir.Node, error) {
	if x, ok := n.(*ast.StringNode); ok && !isQuoted(x) {
		if _, seen := p.memo[n]; !seen {
			if v, ok := implicitValue(x.Value); ok {
				y := p.stamp(ir.FromValue(v))
				p.memo[n] = y
				return y, nil
			}
		}
	}
	return p.convert(n)
}

// implicitValue resolves a plain scalar the way an untagged YAML node
// would resolve, reporting false when it stays a string.
func implicitValue(s string) (any, bool) {
	switch s {
	case "", "~", "null", "Null", "NULL":
		return nil, true
	case "true", "True", "TRUE":
		return true, true
	case "false", "False", "FALSE":
		return false, true
	}
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v, true
	}
	if v, err := strconv.ParseUint(s, 0, 64); err == nil {
		return v, true
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	return nil, false
}
