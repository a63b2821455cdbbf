package debug

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/strata-format/strata/encode"
	"github.com/strata-format/strata/ir"
)

// Logf prints to stderr, rendering *ir.Node arguments through the
// encoder and JSON-able containers as indented JSON.
func Logf(msg string, args ...any) {
	for i := range args {
		a := args[i]
		switch x := a.(type) {
		case map[string]any, []any, json.Number:
			d, err := json.MarshalIndent(a, "   |", "  ")
			if err != nil {
				args[i] = fmt.Sprintf("%v", a)
				continue
			}
			args[i] = string(d)
		case *ir.Node:
			args[i] = Node(x)
		default:
		}
	}
	fmt.Fprintf(os.Stderr, msg, args...)
}

// Node renders a tree through the encoder for log output.
func Node(y *ir.Node) string {
	buf := bytes.NewBuffer(nil)
	if err := encode.Encode(y, buf); err != nil {
		return fmt.Sprintf("[raw node] %v", y)
	}
	return buf.String()
}
