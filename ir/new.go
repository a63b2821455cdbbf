package ir

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// Memo maps source object identities to the node constructed for them.
// One build owns one memo: a raw map or slice seen twice constructs one
// shared node, so source DAGs stay DAGs. Keys are identities (pointers
// of reference values, *Node for nodes), never structural values.
type Memo map[any]*Node

// Flags carries the override annotations a caller may apply while
// constructing a node. Nil fields are left unset.
type Flags struct {
	Priority *Priority
	Delete   *bool
	AllowNew *bool
}

func (y *Node) applyFlags(flags Flags) {
	if flags.Priority != nil {
		p := *flags.Priority
		y.Priority = &p
	}
	if flags.Delete != nil {
		v := *flags.Delete
		y.Delete = &v
	}
	if flags.AllowNew != nil {
		v := *flags.AllowNew
		y.AllowNew = &v
	}
}

// New constructs a node from a raw value, deducing the kind from its
// shape: slices become lists, arrays become tuples, string-keyed maps
// become dicts, nil and the scalar builtins become scalars. An
// existing *Node is returned as-is with flags applied in place. A memo
// hit returns the cached node unchanged, flags and all; identity
// always wins over the requested shape. Construction fails with
// ErrCyclicReference if a value contains itself.
func New(v any, memo Memo, flags Flags) (*Node, error) {
	b := &maker{memo: memo, busy: map[any]bool{}}
	return b.make(v, flags)
}

type maker struct {
	memo Memo
	busy map[any]bool
}

func (b *maker) make(v any, flags Flags) (*Node, error) {
	if v == nil {
		y := FromValue(nil)
		y.applyFlags(flags)
		return y, nil
	}
	if y, ok := v.(*Node); ok {
		y.applyFlags(flags)
		return y, nil
	}
	switch v.(type) {
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		y := FromValue(v)
		y.applyFlags(flags)
		return y, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		return b.composed(rv.Pointer(), flags, func() (*Node, error) {
			return b.fromSeq(rv, ListKind)
		})
	case reflect.Array:
		// Arrays are not addressable through an interface, so they
		// have no stable identity to memoize.
		y, err := b.fromSeq(rv, TupleKind)
		if err != nil {
			return nil, err
		}
		y.applyFlags(flags)
		return y, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map keyed by %s", ErrTypeDeduction, rv.Type().Key())
		}
		return b.composed(rv.Pointer(), flags, func() (*Node, error) {
			return b.fromMap(rv)
		})
	}
	return nil, fmt.Errorf("%w: %T", ErrTypeDeduction, v)
}

func (b *maker) composed(id uintptr, flags Flags, build func() (*Node, error)) (*Node, error) {
	if b.busy[id] {
		return nil, fmt.Errorf("%w: value contains itself", ErrCyclicReference)
	}
	if b.memo != nil {
		if y, ok := b.memo[id]; ok {
			return y, nil
		}
	}
	b.busy[id] = true
	y, err := build()
	delete(b.busy, id)
	if err != nil {
		return nil, err
	}
	if b.memo != nil {
		b.memo[id] = y
	}
	y.applyFlags(flags)
	return y, nil
}

func (b *maker) fromSeq(rv reflect.Value, kind Kind) (*Node, error) {
	n := rv.Len()
	values := make([]*Node, n)
	for i := 0; i < n; i++ {
		yy, err := b.make(rv.Index(i).Interface(), Flags{})
		if err != nil {
			return nil, err
		}
		values[i] = yy
	}
	return &Node{Kind: kind, Values: values}, nil
}

func (b *maker) fromMap(rv reflect.Value) (*Node, error) {
	keys := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	slices.Sort(keys)
	y := &Node{Kind: DictKind}
	for _, k := range keys {
		yy, err := b.make(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface(), Flags{})
		if err != nil {
			return nil, err
		}
		y.Fields = append(y.Fields, k)
		y.Values = append(y.Values, yy)
	}
	return y, nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
