package ir

type Node struct {
	Kind Kind

	// Composed payload. Dicts pair Fields[i] with Values[i]; lists,
	// tuples and appends use Values alone. Call and bind nodes keep
	// keyword arguments as field/value pairs and positional arguments
	// under the reserved field "*".
	Fields []string
	Values []*Node

	// Scalar payload.
	Value any

	// Deferred payload: expression text, template, target path,
	// file reference or table entry name, depending on Kind.
	Str string

	// Function name for call and bind nodes.
	Func string

	Ordinal    int
	SourceFile string

	Priority *Priority
	Delete   *bool
	AllowNew *bool

	// Inherited from the nearest ancestor that set the explicit flag.
	// Consulted only when the explicit flag is unset.
	ImplicitDelete   *bool
	ImplicitAllowNew *bool

	// User metadata, preserved verbatim through merge and evaluate.
	Meta  map[string]any
	Deps  []string
	Users []string

	// Destination node found at this node's path when it was last
	// premerged, read by prev nodes at evaluate time.
	Before *Node
}

// ArgsField holds positional arguments of call and bind nodes.
const ArgsField = "*"

func (y *Node) IsLeaf() bool {
	return !y.Kind.IsComposed()
}

func (y *Node) EffectivePriority() Priority {
	if y.Priority != nil {
		return *y.Priority
	}
	return Standard
}

func (y *Node) EffectiveDelete() bool {
	if y.Delete != nil {
		return *y.Delete
	}
	if y.ImplicitDelete != nil {
		return *y.ImplicitDelete
	}
	return false
}

func (y *Node) EffectiveAllowNew() bool {
	if y.AllowNew != nil {
		return *y.AllowNew
	}
	if y.ImplicitAllowNew != nil {
		return *y.ImplicitAllowNew
	}
	return true
}

func (y *Node) WithPriority(p Priority) *Node {
	y.Priority = &p
	return y
}

func (y *Node) WithDelete(v bool) *Node {
	y.Delete = &v
	return y
}

func (y *Node) WithAllowNew(v bool) *Node {
	y.AllowNew = &v
	return y
}

// Clone deep-copies y. Shared subtrees stay shared in the copy: the
// clone of a node reached twice is emitted once and reused, so merge's
// working copy preserves the DAG shape of its input.
func (y *Node) Clone() *Node {
	return y.CloneMemo(map[*Node]*Node{})
}

func (y *Node) CloneMemo(memo map[*Node]*Node) *Node {
	if y == nil {
		return nil
	}
	if dst, ok := memo[y]; ok {
		return dst
	}
	dst := &Node{
		Kind:       y.Kind,
		Value:      y.Value,
		Str:        y.Str,
		Func:       y.Func,
		Ordinal:    y.Ordinal,
		SourceFile: y.SourceFile,
		Before:     y.Before,
	}
	memo[y] = dst
	if y.Fields != nil {
		dst.Fields = make([]string, len(y.Fields))
		copy(dst.Fields, y.Fields)
	}
	if y.Values != nil {
		dst.Values = make([]*Node, len(y.Values))
		for i, yv := range y.Values {
			dst.Values[i] = yv.CloneMemo(memo)
		}
	}
	if y.Priority != nil {
		p := *y.Priority
		dst.Priority = &p
	}
	dst.Delete = cloneBool(y.Delete)
	dst.AllowNew = cloneBool(y.AllowNew)
	dst.ImplicitDelete = cloneBool(y.ImplicitDelete)
	dst.ImplicitAllowNew = cloneBool(y.ImplicitAllowNew)
	if y.Meta != nil {
		dst.Meta = make(map[string]any, len(y.Meta))
		for k, v := range y.Meta {
			dst.Meta[k] = v
		}
	}
	if y.Deps != nil {
		dst.Deps = append([]string(nil), y.Deps...)
	}
	if y.Users != nil {
		dst.Users = append([]string(nil), y.Users...)
	}
	return dst
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func FromValue(v any) *Node {
	return &Node{Kind: ScalarKind, Value: v}
}

func FromString(v string) *Node {
	return FromValue(v)
}

func FromInt(v int64) *Node {
	return FromValue(v)
}

func FromBool(v bool) *Node {
	return FromValue(v)
}

func FromFields(fields []string, values []*Node) *Node {
	return &Node{Kind: DictKind, Fields: fields, Values: values}
}

func FromSlice(values []*Node) *Node {
	return &Node{Kind: ListKind, Values: values}
}

func FromTuple(values []*Node) *Node {
	return &Node{Kind: TupleKind, Values: values}
}

func AppendOf(values []*Node) *Node {
	return &Node{Kind: AppendKind, Values: values}
}

func Null() *Node {
	return &Node{Kind: NullKind}
}

func Required() *Node {
	return &Node{Kind: RequiredKind}
}

func Prev() *Node {
	return &Node{Kind: PrevKind}
}

func XRef(path string) *Node {
	return &Node{Kind: XRefKind, Str: path}
}

func Eval(expr string) *Node {
	return &Node{Kind: EvalKind, Str: expr}
}

func FStr(template string) *Node {
	return &Node{Kind: FStrKind, Str: template}
}

func Include(ref string) *Node {
	return &Node{Kind: IncludeKind, Str: ref}
}

func Import(ref string) *Node {
	return &Node{Kind: ImportKind, Str: ref}
}

// Call builds a call node. Positional arguments go under ArgsField,
// keyword arguments become ordinary field/value pairs.
func Call(fn string, args []*Node, kwargs map[string]*Node) *Node {
	return callLike(CallKind, fn, args, kwargs)
}

// Bind builds a bind node, shaped exactly like a call node but
// evaluated to a deferred callable instead of being invoked.
func Bind(fn string, args []*Node, kwargs map[string]*Node) *Node {
	return callLike(BindKind, fn, args, kwargs)
}

func callLike(kind Kind, fn string, args []*Node, kwargs map[string]*Node) *Node {
	y := &Node{Kind: kind, Func: fn}
	if len(args) > 0 {
		y.Fields = append(y.Fields, ArgsField)
		y.Values = append(y.Values, FromSlice(args))
	}
	for _, k := range sortedKeys(kwargs) {
		y.Fields = append(y.Fields, k)
		y.Values = append(y.Values, kwargs[k])
	}
	return y
}

// Get returns the named child of a dict-shaped node, or nil.
func Get(y *Node, field string) *Node {
	for i := range y.Fields {
		if y.Fields[i] == field {
			return y.Values[i]
		}
	}
	return nil
}

// Visit walks y depth first, calling f before (isPost false) and after
// (isPost true) each node's children. Returning false from the pre
// call skips the children. Shared nodes are visited once per arrival.
func (y *Node) Visit(f func(y *Node, isPost bool) (bool, error)) error {
	dive, err := f(y, false)
	if err != nil {
		return err
	}
	if dive {
		for _, yy := range y.Values {
			if err := yy.Visit(f); err != nil {
				return err
			}
		}
	}
	if _, err := f(y, true); err != nil {
		return err
	}
	return nil
}

// PropagateImplicit pushes explicitly-set delete and allowNew flags
// down the tree as implicit values for descendants that leave the flag
// unset. Parsers call this once per document; merge relies on it when
// it evaluates the effective flags of inserted subtrees.
func PropagateImplicit(y *Node) {
	propagateImplicit(y, nil, nil, map[*Node]bool{})
}

func propagateImplicit(y *Node, del, allowNew *bool, seen map[*Node]bool) {
	if y == nil || seen[y] {
		return
	}
	seen[y] = true
	if y.Delete != nil {
		del = y.Delete
	} else if del != nil {
		y.ImplicitDelete = del
	}
	if y.AllowNew != nil {
		allowNew = y.AllowNew
	} else if allowNew != nil {
		y.ImplicitAllowNew = allowNew
	}
	for _, yy := range y.Values {
		propagateImplicit(yy, del, allowNew, seen)
	}
}
