package ir

type Kind int

const (
	InvalidKind Kind = iota
	ScalarKind
	DictKind
	ListKind
	TupleKind
	AppendKind
	CallKind
	BindKind
	EvalKind
	FStrKind
	IncludeKind
	ImportKind
	XRefKind
	PrevKind
	RequiredKind
	NullKind
)

func (k Kind) String() string {
	switch k {
	case ScalarKind:
		return "scalar"
	case DictKind:
		return "dict"
	case ListKind:
		return "list"
	case TupleKind:
		return "tuple"
	case AppendKind:
		return "append"
	case CallKind:
		return "call"
	case BindKind:
		return "bind"
	case EvalKind:
		return "eval"
	case FStrKind:
		return "fstr"
	case IncludeKind:
		return "include"
	case ImportKind:
		return "import"
	case XRefKind:
		return "xref"
	case PrevKind:
		return "prev"
	case RequiredKind:
		return "required"
	case NullKind:
		return "null"
	}
	return "invalid"
}

// IsComposed reports whether nodes of this kind carry children that
// participate in traversal, merge recursion, and evaluation.
func (k Kind) IsComposed() bool {
	switch k {
	case DictKind, ListKind, TupleKind, AppendKind, CallKind, BindKind:
		return true
	}
	return false
}
