package strata

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/strata-format/strata/ir"
)

func testFuncs(t *testing.T) *FuncTable {
	t.Helper()
	funcs := NewFuncTable()
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(funcs.Register("upper", func(args []any, kwargs map[string]any) (any, error) {
		return strings.ToUpper(args[0].(string)), nil
	}))
	must(funcs.Register("join", func(args []any, kwargs map[string]any) (any, error) {
		sep, _ := kwargs["sep"].(string)
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = fmt.Sprintf("%v", a)
		}
		return strings.Join(parts, sep), nil
	}))
	must(funcs.Register("fail", func(args []any, kwargs map[string]any) (any, error) {
		return nil, errors.New("boom")
	}))
	return funcs
}

func evalSrc(t *testing.T, src string) (any, error) {
	t.Helper()
	b := NewBuilder(WithFuncs(testFuncs(t)))
	root, err := Merge(nil, mustParse(t, src))
	if err != nil {
		t.Fatal(err)
	}
	return b.BuildTree(root)
}

func TestEvaluate_XRef(t *testing.T) {
	got, err := evalSrc(t, "x: 5\ny: !xref x")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"x": int64(5), "y": int64(5)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("xref mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_XRefDeep(t *testing.T) {
	got, err := evalSrc(t, "a: {b: [10, 20]}\nc: !xref a.b[1]")
	if err != nil {
		t.Fatal(err)
	}
	if got.(map[string]any)["c"] != int64(20) {
		t.Errorf("deep xref = %v, want 20", got.(map[string]any)["c"])
	}
}

func TestEvaluate_XRefMissing(t *testing.T) {
	_, err := evalSrc(t, "y: !xref nowhere")
	if !errors.Is(err, ir.ErrNotFound) {
		t.Errorf("missing xref error = %v, want ErrNotFound", err)
	}
}

func TestEvaluate_XRefCycle(t *testing.T) {
	_, err := evalSrc(t, "a: !xref b\nb: !xref a")
	if !errors.Is(err, ir.ErrCyclicReference) {
		t.Errorf("xref cycle error = %v, want ErrCyclicReference", err)
	}
}

func TestEvaluate_FStr(t *testing.T) {
	got, err := evalSrc(t, "host: db1\nport: 5432\nurl: f\"{host}:{port}\"")
	if err != nil {
		t.Fatal(err)
	}
	if got.(map[string]any)["url"] != "db1:5432" {
		t.Errorf("fstr = %v, want db1:5432", got.(map[string]any)["url"])
	}
}

func TestEvaluate_FStrEscapes(t *testing.T) {
	got, err := evalSrc(t, "a: 1\ns: !fstr '{{literal}} {a}'")
	if err != nil {
		t.Fatal(err)
	}
	if got.(map[string]any)["s"] != "{literal} 1" {
		t.Errorf("fstr escapes = %q", got.(map[string]any)["s"])
	}
}

func TestEvaluate_Expr(t *testing.T) {
	got, err := evalSrc(t, "n: 4\ndouble: !eval n * 2")
	if err != nil {
		t.Fatal(err)
	}
	m := got.(map[string]any)
	if m["n"] != int64(4) {
		t.Errorf("n = %v, want 4", m["n"])
	}
	// The expression engine picks its own integer width.
	if fmt.Sprintf("%v", m["double"]) != "8" {
		t.Errorf("double = %v, want 8", m["double"])
	}
}

func TestEvaluate_ExprSeesSiblings(t *testing.T) {
	got, err := evalSrc(t, "a: {b: 2, c: !eval b + 1}")
	if err != nil {
		t.Fatal(err)
	}
	a := got.(map[string]any)["a"].(map[string]any)
	if fmt.Sprintf("%v", a["c"]) != "3" {
		t.Errorf("nested eval = %v, want 3", a["c"])
	}
}

func TestEvaluate_ExprSiblingShadowsTopLevel(t *testing.T) {
	got, err := evalSrc(t, "b: 10\na: {b: 2, c: !eval b + 1}")
	if err != nil {
		t.Fatal(err)
	}
	a := got.(map[string]any)["a"].(map[string]any)
	if fmt.Sprintf("%v", a["c"]) != "3" {
		t.Errorf("sibling should shadow the top-level name, got %v", a["c"])
	}
}

func TestEvaluate_ExprCallsRegisteredFunc(t *testing.T) {
	got, err := evalSrc(t, "name: world\nloud: !eval upper(name)")
	if err != nil {
		t.Fatal(err)
	}
	if got.(map[string]any)["loud"] != "WORLD" {
		t.Errorf("eval func call = %v, want WORLD", got.(map[string]any)["loud"])
	}
}

func TestEvaluate_Call(t *testing.T) {
	got, err := evalSrc(t, "s: !call:upper hello")
	if err != nil {
		t.Fatal(err)
	}
	if got.(map[string]any)["s"] != "HELLO" {
		t.Errorf("call = %v, want HELLO", got.(map[string]any)["s"])
	}
}

func TestEvaluate_CallKwargs(t *testing.T) {
	got, err := evalSrc(t, "s: !call:join {\"*\": [a, b], sep: '-'}")
	if err != nil {
		t.Fatal(err)
	}
	if got.(map[string]any)["s"] != "a-b" {
		t.Errorf("call kwargs = %v, want a-b", got.(map[string]any)["s"])
	}
}

func TestEvaluate_CallError(t *testing.T) {
	_, err := evalSrc(t, "s: !call:fail 1")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("call error = %v, want wrapped boom", err)
	}
}

func TestEvaluate_CallUnknownFunc(t *testing.T) {
	_, err := evalSrc(t, "s: !call:nosuch 1")
	if !errors.Is(err, ir.ErrNotFound) {
		t.Errorf("unknown func error = %v, want ErrNotFound", err)
	}
}

func TestEvaluate_Bind(t *testing.T) {
	got, err := evalSrc(t, "f: !bind:join {\"*\": [x], sep: '+'}")
	if err != nil {
		t.Fatal(err)
	}
	bound, ok := got.(map[string]any)["f"].(*Bound)
	if !ok {
		t.Fatalf("bind evaluated to %T, want *Bound", got.(map[string]any)["f"])
	}
	if bound.Name != "join" {
		t.Errorf("bound name = %q", bound.Name)
	}
	v, err := bound.Call("y")
	if err != nil {
		t.Fatal(err)
	}
	if v != "x+y" {
		t.Errorf("bound call = %v, want x+y", v)
	}
}

func TestEvaluate_Required(t *testing.T) {
	_, err := evalSrc(t, "token: !required")
	if !errors.Is(err, ErrMissingRequiredValue) {
		t.Fatalf("required error = %v, want ErrMissingRequiredValue", err)
	}
	if !strings.Contains(err.Error(), "token") {
		t.Errorf("required error %q does not carry the path", err)
	}
}

func TestEvaluate_RequiredOverridden(t *testing.T) {
	b := NewBuilder(WithFuncs(testFuncs(t)))
	root, err := b.FlattenLayers(
		mustParse(t, "token: !required"),
		mustParse(t, "token: secret"),
	)
	if err != nil {
		t.Fatal(err)
	}
	got, err := b.BuildTree(root)
	if err != nil {
		t.Fatal(err)
	}
	if got.(map[string]any)["token"] != "secret" {
		t.Errorf("overridden required = %v", got.(map[string]any)["token"])
	}
}

func TestEvaluate_Null(t *testing.T) {
	got, err := evalSrc(t, "a: !null")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := got.(map[string]any)["a"]; !ok || v != nil {
		t.Errorf("null marker = %v, want nil", v)
	}
}

func TestEvaluate_SharedNodeEvaluatesOnce(t *testing.T) {
	calls := 0
	funcs := NewFuncTable()
	if err := funcs.Register("count", func(args []any, kwargs map[string]any) (any, error) {
		calls++
		return calls, nil
	}); err != nil {
		t.Fatal(err)
	}
	b := NewBuilder(WithFuncs(funcs))
	root, err := Merge(nil, mustParse(t, "a: &x !call:count 1\nb: *x"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := b.BuildTree(root)
	if err != nil {
		t.Fatal(err)
	}
	m := got.(map[string]any)
	if m["a"] != m["b"] {
		t.Errorf("shared node evaluated to different values: %v vs %v", m["a"], m["b"])
	}
	if calls != 1 {
		t.Errorf("shared node invoked its function %d times, want 1", calls)
	}
}
