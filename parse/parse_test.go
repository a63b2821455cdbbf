package parse

import (
	"errors"
	"testing"

	"github.com/strata-format/strata/ir"
)

func TestParse_Kinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		path string
		want ir.Kind
	}{
		{name: "scalar", src: "a: 1", path: "a", want: ir.ScalarKind},
		{name: "dict", src: "a: {b: 1}", path: "a", want: ir.DictKind},
		{name: "list", src: "a: [1, 2]", path: "a", want: ir.ListKind},
		{name: "append", src: "a: !append [1, 2]", path: "a", want: ir.AppendKind},
		{name: "include", src: "a: !include other.yaml", path: "a", want: ir.IncludeKind},
		{name: "import", src: "a: !import max", path: "a", want: ir.ImportKind},
		{name: "xref", src: "a: !xref b.c", path: "a", want: ir.XRefKind},
		{name: "eval", src: "a: !eval 2 + 2", path: "a", want: ir.EvalKind},
		{name: "fstr explicit", src: "a: !fstr '{b} items'", path: "a", want: ir.FStrKind},
		{name: "fstr implicit", src: `a: f"{b} items"`, path: "a", want: ir.FStrKind},
		{name: "fstr implicit single quotes", src: `a: f'{b}'`, path: "a", want: ir.FStrKind},
		{name: "prev", src: "a: !prev", path: "a", want: ir.PrevKind},
		{name: "required", src: "a: !required", path: "a", want: ir.RequiredKind},
		{name: "null marker", src: "a: !null", path: "a", want: ir.NullKind},
		{name: "call", src: "a: !call:join {sep: ','}", path: "a", want: ir.CallKind},
		{name: "bind", src: "a: !bind:join {sep: ','}", path: "a", want: ir.BindKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := ParseOne([]byte(tt.src))
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.src, err)
			}
			path, err := ir.ParsePath(tt.path)
			if err != nil {
				t.Fatal(err)
			}
			got, err := root.Resolve(path, ir.Strict)
			if err != nil {
				t.Fatalf("Resolve(%s) error = %v", tt.path, err)
			}
			if got.Kind != tt.want {
				t.Errorf("Parse(%q) at %s: kind = %s, want %s", tt.src, tt.path, got.Kind, tt.want)
			}
		})
	}
}

func TestParse_Flags(t *testing.T) {
	root, err := ParseOne([]byte("a: !del {b: 1}\nc: !weak 2\nd: !force 3\ne: !merge {f: 4}\n"))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	a := ir.Get(root, "a")
	if a.Delete == nil || !*a.Delete {
		t.Errorf("!del did not set delete")
	}
	if b := ir.Get(a, "b"); !b.EffectiveDelete() || b.Delete != nil {
		t.Errorf("delete did not propagate implicitly: explicit=%v effective=%v", b.Delete, b.EffectiveDelete())
	}
	if c := ir.Get(root, "c"); c.EffectivePriority() != ir.Weak {
		t.Errorf("!weak priority = %s", c.EffectivePriority())
	}
	if d := ir.Get(root, "d"); d.EffectivePriority() != ir.Force {
		t.Errorf("!force priority = %s", d.EffectivePriority())
	}
	if e := ir.Get(root, "e"); e.Delete == nil || *e.Delete {
		t.Errorf("!merge did not set delete=false explicitly")
	}
}

func TestParse_BareTagsOnAdjacentLines(t *testing.T) {
	// Each bare tag must stay attached to its own entry; the entry on
	// the next line is a sibling, never the tag's payload.
	root, err := ParseOne([]byte("r: !required\nn: !null\np: !prev\nd: !del\nz: 1\n"))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if len(root.Fields) != 5 {
		t.Fatalf("got fields %v, want 5 entries", root.Fields)
	}
	if got := ir.Get(root, "r").Kind; got != ir.RequiredKind {
		t.Errorf("r kind = %s, want %s", got, ir.RequiredKind)
	}
	if got := ir.Get(root, "n").Kind; got != ir.NullKind {
		t.Errorf("n kind = %s, want %s", got, ir.NullKind)
	}
	p := ir.Get(root, "p")
	if p.Kind != ir.PrevKind || p.Str != "" {
		t.Errorf("p = kind %s str %q, want bare prev", p.Kind, p.Str)
	}
	d := ir.Get(root, "d")
	if d.Delete == nil || !*d.Delete {
		t.Errorf("bare !del lost its delete flag")
	}
}

func TestParse_BareTagInFlow(t *testing.T) {
	root, err := ParseOne([]byte("m: {r: !required, s: 1}\nl: [!null, 2]\n"))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	m := ir.Get(root, "m")
	if got := ir.Get(m, "r").Kind; got != ir.RequiredKind {
		t.Errorf("flow r kind = %s, want %s", got, ir.RequiredKind)
	}
	if got := ir.Get(m, "s").Value; got != int64(1) {
		t.Errorf("flow s = %v, want 1", got)
	}
	l := ir.Get(root, "l")
	if len(l.Values) != 2 || l.Values[0].Kind != ir.NullKind {
		t.Errorf("flow list = %v", l.Values)
	}
}

func TestParse_BareTagBeforeComment(t *testing.T) {
	root, err := ParseOne([]byte("x: !required # to be supplied\ny: 1\n"))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if got := ir.Get(root, "x").Kind; got != ir.RequiredKind {
		t.Errorf("x kind = %s, want %s", got, ir.RequiredKind)
	}
	if ir.Get(root, "y") == nil {
		t.Errorf("sibling after commented bare tag lost")
	}
}

func TestParse_TagWithBlockPayload(t *testing.T) {
	root, err := ParseOne([]byte("c: !del\n  d: 1\n"))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	c := ir.Get(root, "c")
	if c.Kind != ir.DictKind || c.Delete == nil || !*c.Delete {
		t.Fatalf("c = kind %s delete %v, want deleting dict", c.Kind, c.Delete)
	}
	if ir.Get(c, "d") == nil {
		t.Errorf("block payload entry lost: %v", c.Fields)
	}
}

func TestParse_TypedScalarsUnderTags(t *testing.T) {
	root, err := ParseOne([]byte("a: !force 2\nb: !weak 2.5\nc: !del true\nq: !force '2'\n"))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if got := ir.Get(root, "a").Value; got != int64(2) {
		t.Errorf("a = %v (%T), want int64 2", got, got)
	}
	if got := ir.Get(root, "b").Value; got != 2.5 {
		t.Errorf("b = %v (%T), want 2.5", got, got)
	}
	if got := ir.Get(root, "c").Value; got != true {
		t.Errorf("c = %v (%T), want true", got, got)
	}
	if got := ir.Get(root, "q").Value; got != "2" {
		t.Errorf("quoting must keep the scalar a string, got %v (%T)", got, got)
	}
}

func TestParse_IntegerWidth(t *testing.T) {
	root, err := ParseOne([]byte("port: 8080\nneg: -3\nbig: 9223372036854775808\n"))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if got := ir.Get(root, "port").Value; got != int64(8080) {
		t.Errorf("port = %v (%T), want int64", got, got)
	}
	if got := ir.Get(root, "neg").Value; got != int64(-3) {
		t.Errorf("neg = %v (%T), want int64", got, got)
	}
	// Past the int64 range the unsigned value is kept as is.
	if got := ir.Get(root, "big").Value; got != uint64(9223372036854775808) {
		t.Errorf("big = %v (%T), want uint64", got, got)
	}
}

func TestParse_Metadata(t *testing.T) {
	enc, err := ir.EncodeMeta(map[string]any{
		"priority": float64(-1),
		"owner":    "infra",
	})
	if err != nil {
		t.Fatal(err)
	}
	root, err := ParseOne([]byte("a: !metadata:" + enc + " 5\n"))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	a := ir.Get(root, "a")
	if a.EffectivePriority() != ir.Weak {
		t.Errorf("metadata priority not lifted: %s", a.EffectivePriority())
	}
	if a.Meta["owner"] != "infra" {
		t.Errorf("user metadata lost: %v", a.Meta)
	}
}

func TestParse_CallShapes(t *testing.T) {
	root, err := ParseOne([]byte(
		"kw: !call:join {sep: ',', parts: [a, b]}\n" +
			"pos: !call:max [1, 2, 3]\n" +
			"one: !call:upper hello\n" +
			"bare: !call {func: upper, arg: hi}\n"))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}

	kw := ir.Get(root, "kw")
	if kw.Func != "join" {
		t.Errorf("kw func = %q", kw.Func)
	}
	if ir.Get(kw, "sep") == nil || ir.Get(kw, "parts") == nil {
		t.Errorf("kw arguments missing: %v", kw.Fields)
	}

	pos := ir.Get(root, "pos")
	args := ir.Get(pos, ir.ArgsField)
	if args == nil || args.Kind != ir.ListKind || len(args.Values) != 3 {
		t.Fatalf("pos args = %v", args)
	}

	one := ir.Get(root, "one")
	args = ir.Get(one, ir.ArgsField)
	if args == nil || len(args.Values) != 1 || args.Values[0].Value != "hello" {
		t.Errorf("scalar payload not wrapped as single positional arg: %v", args)
	}

	bare := ir.Get(root, "bare")
	if bare.Func != "upper" {
		t.Errorf("bare call func = %q", bare.Func)
	}
	if ir.Get(bare, "func") != nil {
		t.Errorf("func entry should be lifted out of the arguments")
	}
	if ir.Get(bare, "arg") == nil {
		t.Errorf("bare call kwargs lost")
	}
}

func TestParse_InvalidTags(t *testing.T) {
	for _, src := range []string{
		"a: !required oops",
		"a: !null oops",
		"a: !append {b: 1}",
		"a: !unknowntag 1",
		"a: !call:f:META:extra {}",
		"a: !call {x: 1}",
		"a: !del:suffix 1",
	} {
		t.Run(src, func(t *testing.T) {
			if _, err := Parse([]byte(src)); err == nil {
				t.Errorf("Parse(%q) expected an error", src)
			}
		})
	}
}

func TestParse_AnchorSharing(t *testing.T) {
	root, err := ParseOne([]byte("base: &shared {k: 1}\nother: *shared\n"))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if ir.Get(root, "base") != ir.Get(root, "other") {
		t.Errorf("alias did not produce a shared node")
	}
}

func TestParse_MultiDocument(t *testing.T) {
	docs, err := Parse([]byte("a: 1\n---\na: 2\n"))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
}

func TestParse_Ordinals(t *testing.T) {
	n := 100
	next := func() int {
		n++
		return n - 1
	}
	root, err := ParseOne([]byte("a: 1\nb: {c: 2}\n"), WithOrdinals(next), WithSourceFile("conf.yaml"))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	a, b := ir.Get(root, "a"), ir.Get(root, "b")
	c := ir.Get(b, "c")
	if !(root.Ordinal < a.Ordinal && a.Ordinal < b.Ordinal && b.Ordinal < c.Ordinal) {
		t.Errorf("ordinals not in reading order: root=%d a=%d b=%d c=%d",
			root.Ordinal, a.Ordinal, b.Ordinal, c.Ordinal)
	}
	if root.Ordinal != 100 {
		t.Errorf("ordinal counter not used, root = %d", root.Ordinal)
	}
	if c.SourceFile != "conf.yaml" {
		t.Errorf("source file not stamped: %q", c.SourceFile)
	}
}

func TestParse_DuplicateKey(t *testing.T) {
	_, err := Parse([]byte("a: 1\na: 2\n"))
	if err == nil || !errors.Is(err, ir.ErrNameConflict) {
		// goccy may reject duplicates itself before conversion runs.
		if err == nil {
			t.Errorf("duplicate key accepted")
		}
	}
}
