package ir

import "fmt"

// Priority is the override strength of a node during merge.
type Priority int

const (
	Weak     Priority = -1
	Standard Priority = 0
	Force    Priority = 1
)

func (p Priority) String() string {
	switch p {
	case Weak:
		return "weak"
	case Standard:
		return "standard"
	case Force:
		return "force"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// PriorityFromInt validates an integer priority coming from decoded
// metadata or caller flags.
func PriorityFromInt(v int) (Priority, error) {
	switch Priority(v) {
	case Weak, Standard, Force:
		return Priority(v), nil
	}
	return Standard, fmt.Errorf("%w: priority %d not in {-1, 0, 1}", ErrTypeDeduction, v)
}

// HasPriorityOver reports whether y wins a merge contest against other.
// On equal priority the result is tieToSelf; merge passes the incoming
// source node as the receiver with tieToSelf true, so later layers win
// ties everywhere.
func (y *Node) HasPriorityOver(other *Node, tieToSelf bool) bool {
	a, b := y.EffectivePriority(), other.EffectivePriority()
	if a == b {
		return tieToSelf
	}
	return a > b
}
