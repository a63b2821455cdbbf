package ir

import (
	"testing"
)

func TestHasPriorityOver(t *testing.T) {
	tests := []struct {
		name      string
		a, b      *Node
		tieToSelf bool
		want      bool
	}{
		{name: "force over standard", a: FromValue(1).WithPriority(Force), b: FromValue(2), want: true},
		{name: "weak under standard", a: FromValue(1).WithPriority(Weak), b: FromValue(2), want: false},
		{name: "standard over weak", a: FromValue(1), b: FromValue(2).WithPriority(Weak), want: true},
		{name: "equal no tie", a: FromValue(1), b: FromValue(2), want: false},
		{name: "equal tie to self", a: FromValue(1), b: FromValue(2), tieToSelf: true, want: true},
		{name: "weak vs weak tie", a: FromValue(1).WithPriority(Weak), b: FromValue(2).WithPriority(Weak), tieToSelf: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.HasPriorityOver(tt.b, tt.tieToSelf); got != tt.want {
				t.Errorf("HasPriorityOver() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEffectiveFlags(t *testing.T) {
	y := FromValue(1)
	if y.EffectivePriority() != Standard {
		t.Errorf("default priority = %s, want standard", y.EffectivePriority())
	}
	if y.EffectiveDelete() {
		t.Errorf("default delete = true, want false")
	}
	if !y.EffectiveAllowNew() {
		t.Errorf("default allowNew = false, want true")
	}

	f := false
	y.ImplicitAllowNew = &f
	if y.EffectiveAllowNew() {
		t.Errorf("implicit allowNew not consulted")
	}
	y.WithAllowNew(true)
	if !y.EffectiveAllowNew() {
		t.Errorf("explicit allowNew should win over implicit")
	}
}

func TestPropagateImplicit(t *testing.T) {
	inner := FromValue(1)
	mid := FromFields([]string{"x"}, []*Node{inner})
	root := FromFields([]string{"m"}, []*Node{mid}).WithDelete(true).WithAllowNew(false)
	PropagateImplicit(root)

	if !inner.EffectiveDelete() {
		t.Errorf("delete did not propagate to leaf")
	}
	if inner.EffectiveAllowNew() {
		t.Errorf("allowNew did not propagate to leaf")
	}
	if inner.Delete != nil {
		t.Errorf("propagation set the explicit flag")
	}

	// An explicit flag on the way down resets the inherited value.
	mid.WithDelete(false)
	inner.ImplicitDelete = nil
	PropagateImplicit(root)
	if inner.EffectiveDelete() {
		t.Errorf("explicit ancestor flag not honored, want delete=false")
	}
}

func TestCloneSharing(t *testing.T) {
	shared := FromFields([]string{"k"}, []*Node{FromValue(1)})
	root := FromFields([]string{"a", "b"}, []*Node{shared, shared})

	got := root.Clone()
	if got == root {
		t.Fatalf("Clone returned the receiver")
	}
	ga, gb := Get(got, "a"), Get(got, "b")
	if ga == shared {
		t.Errorf("Clone did not copy the shared child")
	}
	if ga != gb {
		t.Errorf("Clone duplicated a shared child")
	}
	if Get(ga, "k").Value != 1 {
		t.Errorf("Clone lost scalar payload")
	}
}
