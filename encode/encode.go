package encode

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/strata-format/strata/ir"
)

type encState struct {
	w      io.Writer
	indent int
	color  func(ColorAttr, string) string
	err    error
}

// Encode writes y as tagged YAML.
func Encode(y *ir.Node, w io.Writer, opts ...Option) error {
	es := &encState{w: w, indent: 2, color: plainColor}
	for _, opt := range opts {
		opt(es)
	}
	inh := inherited{allowNew: true}
	es.node(y, 0, inh, true)
	return es.err
}

func plainColor(_ ColorAttr, s string) string { return s }

// inherited tracks the effective flag context above a node, so flags
// equal to what the position already implies are not re-emitted.
type inherited struct {
	delete   bool
	allowNew bool
}

func (inh inherited) under(y *ir.Node) inherited {
	return inherited{
		delete:   y.EffectiveDelete(),
		allowNew: y.EffectiveAllowNew(),
	}
}

func (es *encState) writef(format string, args ...any) {
	if es.err != nil {
		return
	}
	_, es.err = fmt.Fprintf(es.w, format, args...)
}

func (es *encState) pad(depth int) {
	es.writef("%s", strings.Repeat(" ", depth*es.indent))
}

// node emits y with the cursor just after "key: " or "- ", or at the
// start of a line for ownLine callers (root, block children).
func (es *encState) node(y *ir.Node, depth int, inh inherited, ownLine bool) {
	tag := es.tagFor(y, inh)
	switch y.Kind {
	case ir.ScalarKind:
		es.leafLine(tag, es.color(ValueColor, scalarText(y.Value)))
	case ir.NullKind, ir.RequiredKind:
		es.leafLine(tag, "")
	case ir.PrevKind:
		text := ""
		if y.Str != "" {
			text = es.color(ValueColor, strconv.Quote(y.Str))
		}
		es.leafLine(tag, text)
	case ir.XRefKind, ir.EvalKind, ir.FStrKind, ir.IncludeKind, ir.ImportKind:
		es.leafLine(tag, es.color(ValueColor, strconv.Quote(y.Str)))
	case ir.DictKind, ir.CallKind, ir.BindKind:
		es.dict(y, tag, depth, inh.under(y), ownLine)
	case ir.ListKind, ir.TupleKind, ir.AppendKind:
		es.list(y, tag, depth, inh.under(y), ownLine)
	}
}

func (es *encState) leafLine(tag, text string) {
	switch {
	case tag != "" && text != "":
		es.writef("%s %s\n", tag, text)
	case tag != "":
		es.writef("%s\n", tag)
	default:
		es.writef("%s\n", text)
	}
}

func (es *encState) dict(y *ir.Node, tag string, depth int, inh inherited, ownLine bool) {
	if len(y.Fields) == 0 {
		es.leafLine(tag, "{}")
		return
	}
	childDepth := depth
	if !ownLine {
		// The dict opens after "key:" or "-", so its entries start on
		// the next line, one level deeper.
		childDepth = depth + 1
		if tag != "" {
			es.writef(" %s\n", tag)
		} else {
			es.writef("\n")
		}
	} else if tag != "" {
		es.pad(depth)
		es.writef("%s\n", tag)
	}
	for i, name := range y.Fields {
		es.pad(childDepth)
		es.writef("%s:", es.color(FieldColor, stringText(name)))
		if blockChild(y.Values[i]) {
			es.node(y.Values[i], childDepth, inh, false)
		} else {
			es.writef(" ")
			es.node(y.Values[i], childDepth, inh, false)
		}
	}
}

func (es *encState) list(y *ir.Node, tag string, depth int, inh inherited, ownLine bool) {
	if len(y.Values) == 0 {
		es.leafLine(tag, "[]")
		return
	}
	childDepth := depth
	if !ownLine {
		childDepth = depth + 1
		if tag != "" {
			es.writef(" %s\n", tag)
		} else {
			es.writef("\n")
		}
	} else if tag != "" {
		es.pad(depth)
		es.writef("%s\n", tag)
	}
	for _, yy := range y.Values {
		es.pad(childDepth)
		es.writef("-")
		if blockChild(yy) {
			es.node(yy, childDepth, inh, false)
		} else {
			es.writef(" ")
			es.node(yy, childDepth, inh, false)
		}
	}
}

// blockChild reports whether a child renders as an indented block
// under its key rather than inline after it.
func blockChild(y *ir.Node) bool {
	switch y.Kind {
	case ir.DictKind, ir.CallKind, ir.BindKind:
		return len(y.Fields) > 0
	case ir.ListKind, ir.TupleKind, ir.AppendKind:
		return len(y.Values) > 0
	}
	return false
}

// tagFor renders the node's kind tag and any flags that differ from
// what the position inherits. A lone flag uses its shortcut tag; a
// combination or user metadata rides !metadata:. Call and bind carry
// flags in their own metadata segment; other deferred kinds have no
// place for flags and drop them.
func (es *encState) tagFor(y *ir.Node, inh inherited) string {
	meta := map[string]any{}
	if y.Delete != nil && *y.Delete != inh.delete {
		meta["delete"] = *y.Delete
	}
	if y.Priority != nil && *y.Priority != ir.Standard {
		meta["priority"] = int(*y.Priority)
	}
	if y.AllowNew != nil && *y.AllowNew != inh.allowNew {
		meta["allowNew"] = *y.AllowNew
	}
	for k, v := range y.Meta {
		meta[k] = v
	}

	kindTag := ""
	switch y.Kind {
	case ir.AppendKind:
		kindTag = "!append"
	case ir.EvalKind:
		kindTag = "!eval"
	case ir.FStrKind:
		kindTag = "!fstr"
	case ir.IncludeKind:
		kindTag = "!include"
	case ir.ImportKind:
		kindTag = "!import"
	case ir.XRefKind:
		kindTag = "!xref"
	case ir.PrevKind:
		kindTag = "!prev"
	case ir.RequiredKind:
		kindTag = "!required"
	case ir.NullKind:
		kindTag = "!null"
	case ir.CallKind:
		kindTag = "!call:" + y.Func
	case ir.BindKind:
		kindTag = "!bind:" + y.Func
	}

	if kindTag != "" {
		if len(meta) > 0 && (y.Kind == ir.CallKind || y.Kind == ir.BindKind) {
			enc, err := ir.EncodeMeta(meta)
			if err != nil {
				es.err = err
				return kindTag
			}
			kindTag += ":" + enc
		}
		return es.color(TagColor, kindTag)
	}

	if len(meta) == 0 {
		return ""
	}
	if len(meta) == 1 {
		if d, ok := meta["delete"].(bool); ok {
			if d {
				return es.color(TagColor, "!del")
			}
			return es.color(TagColor, "!merge")
		}
		if p, ok := meta["priority"].(int); ok {
			if ir.Priority(p) == ir.Weak {
				return es.color(TagColor, "!weak")
			}
			return es.color(TagColor, "!force")
		}
	}
	enc, err := ir.EncodeMeta(meta)
	if err != nil {
		es.err = err
		return ""
	}
	return es.color(TagColor, "!metadata:"+enc)
}

func scalarText(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return stringText(x)
	case bool:
		return strconv.FormatBool(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func stringText(s string) string {
	if needsQuote(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	if strings.ContainsAny(s, ":#{}[],&*!|>'\"%@`\n\t") {
		return true
	}
	if s[0] == ' ' || s[len(s)-1] == ' ' || s[0] == '-' || s[0] == '?' {
		return true
	}
	switch s {
	case "null", "Null", "NULL", "~", "true", "false", "True", "False", "yes", "no", "Yes", "No", "on", "off":
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	return false
}
