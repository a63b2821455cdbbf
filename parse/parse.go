package parse

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	"github.com/strata-format/strata/debug"
	"github.com/strata-format/strata/ir"
)

var ErrInvalidTag = errors.New("invalid tag")

// Parse parses YAML source into one ir tree per document.
func Parse(data []byte, opts ...Option) ([]*ir.Node, error) {
	o := makeOptions(opts)
	file, err := parser.ParseBytes(normalizeBareTags(data), 0)
	if err != nil {
		return nil, err
	}
	p := &converter{
		opts:    o,
		memo:    map[ast.Node]*ir.Node{},
		anchors: map[string]*ir.Node{},
	}
	var docs []*ir.Node
	for _, doc := range file.Docs {
		if doc.Body == nil {
			continue
		}
		root, err := p.convert(doc.Body)
		if err != nil {
			return nil, err
		}
		ir.PropagateImplicit(root)
		if debug.Parse() {
			debug.Logf("parsed document %d of %q:\n%s", len(docs), o.sourceFile, debug.Node(root))
		}
		docs = append(docs, root)
	}
	return docs, nil
}

// ParseOne parses source expected to hold exactly one document.
func ParseOne(data []byte, opts ...Option) (*ir.Node, error) {
	docs, err := Parse(data, opts...)
	if err != nil {
		return nil, err
	}
	if len(docs) != 1 {
		return nil, fmt.Errorf("want 1 document, got %d", len(docs))
	}
	return docs[0], nil
}

type converter struct {
	opts *options
	// memo keys ast node identities so aliased subtrees convert to one
	// shared ir node.
	memo    map[ast.Node]*ir.Node
	anchors map[string]*ir.Node
}

func (p *converter) convert(n ast.Node) (*ir.Node, error) {
	if y, ok := p.memo[n]; ok {
		return y, nil
	}
	y, err := p.convertNew(n)
	if err != nil {
		return nil, err
	}
	p.memo[n] = y
	return y, nil
}

func (p *converter) convertNew(n ast.Node) (*ir.Node, error) {
	switch x := n.(type) {
	case *ast.TagNode:
		return p.convertTag(x)
	case *ast.AnchorNode:
		name, err := anchorName(x.Name)
		if err != nil {
			return nil, err
		}
		y, err := p.convert(x.Value)
		if err != nil {
			return nil, err
		}
		p.anchors[name] = y
		return y, nil
	case *ast.AliasNode:
		name, err := anchorName(x.Value)
		if err != nil {
			return nil, err
		}
		y, ok := p.anchors[name]
		if !ok {
			return nil, fmt.Errorf("alias to undefined anchor %q", name)
		}
		return y, nil
	case *ast.MappingNode:
		y := p.stamp(&ir.Node{Kind: ir.DictKind})
		for _, kv := range x.Values {
			if err := p.convertEntry(y, kv); err != nil {
				return nil, err
			}
		}
		return y, nil
	case *ast.MappingValueNode:
		y := p.stamp(&ir.Node{Kind: ir.DictKind})
		if err := p.convertEntry(y, x); err != nil {
			return nil, err
		}
		return y, nil
	case *ast.SequenceNode:
		y := p.stamp(&ir.Node{Kind: ir.ListKind})
		for _, v := range x.Values {
			yy, err := p.convert(v)
			if err != nil {
				return nil, err
			}
			y.Values = append(y.Values, yy)
		}
		return y, nil
	case *ast.StringNode:
		// Only plain scalars are sniffed for f-string shape; quoting
		// opts out of interpolation.
		if !isQuoted(x) {
			if tpl, ok := fstrTemplate(x.Value); ok {
				return p.stamp(ir.FStr(tpl)), nil
			}
		}
		return p.stamp(ir.FromValue(x.Value)), nil
	case *ast.LiteralNode:
		return p.stamp(ir.FromValue(x.Value.Value)), nil
	case *ast.IntegerNode:
		return p.stamp(ir.FromValue(normalizeInt(x.Value))), nil
	case *ast.FloatNode:
		return p.stamp(ir.FromValue(x.Value)), nil
	case *ast.BoolNode:
		return p.stamp(ir.FromValue(x.Value)), nil
	case *ast.NullNode:
		return p.stamp(ir.FromValue(nil)), nil
	}
	return nil, fmt.Errorf("unsupported syntax %T at %s", n, n.GetToken().Position.String())
}

func (p *converter) convertEntry(dict *ir.Node, kv *ast.MappingValueNode) error {
	key, err := keyString(kv.Key)
	if err != nil {
		return err
	}
	if ir.Get(dict, key) != nil {
		return fmt.Errorf("%w: duplicate key %q", ir.ErrNameConflict, key)
	}
	val, err := p.convert(kv.Value)
	if err != nil {
		return err
	}
	dict.Fields = append(dict.Fields, key)
	dict.Values = append(dict.Values, val)
	return nil
}

func (p *converter) stamp(y *ir.Node) *ir.Node {
	y.Ordinal = p.opts.nextOrdinal()
	y.SourceFile = p.opts.sourceFile
	return y
}

// normalizeInt folds non-negative integers, which the upstream parser
// hands over as uint64, back into int64 when they fit.
func normalizeInt(v any) any {
	if u, ok := v.(uint64); ok && u <= math.MaxInt64 {
		return int64(u)
	}
	return v
}

func keyString(n ast.Node) (string, error) {
	switch x := n.(type) {
	case *ast.StringNode:
		return x.Value, nil
	case *ast.IntegerNode:
		switch v := x.Value.(type) {
		case int64:
			return strconv.FormatInt(v, 10), nil
		case uint64:
			return strconv.FormatUint(v, 10), nil
		}
	case *ast.BoolNode:
		return strconv.FormatBool(x.Value), nil
	}
	return "", fmt.Errorf("unsupported mapping key %T", n)
}

func anchorName(n ast.Node) (string, error) {
	s, ok := n.(*ast.StringNode)
	if !ok {
		return "", fmt.Errorf("unsupported anchor name %T", n)
	}
	return s.Value, nil
}

func isQuoted(x *ast.StringNode) bool {
	tok := x.GetToken()
	if tok == nil {
		return false
	}
	orig := strings.TrimSpace(tok.Origin)
	return len(orig) > 0 && (orig[0] == '"' || orig[0] == '\'')
}

// fstrTemplate reports whether a plain string is shaped like an
// f-string literal, f"..." or f'...' with optional surrounding space,
// and returns the inner template.
func fstrTemplate(s string) (string, bool) {
	i, j := 0, len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t') {
		j--
	}
	if j-i < 3 || s[i] != 'f' {
		return "", false
	}
	q := s[i+1]
	if q != '"' && q != '\'' {
		return "", false
	}
	if s[j-1] != q {
		return "", false
	}
	return s[i+2 : j-1], true
}
