package parse

import (
	"strings"

	"github.com/goccy/go-yaml/lexer"
	"github.com/goccy/go-yaml/token"
)

// normalizeBareTags rewrites tags with no payload on their own line,
// "token: !required\n", into "token: !required null". The upstream
// parser either drops a payload-less tag or adopts the next sibling
// entry as its payload; the explicit null keeps the tag attached to
// its own slot.
func normalizeBareTags(data []byte) []byte {
	src := string(data)
	if !strings.Contains(src, "!") {
		return data
	}
	tokens := lexer.Tokenize(src)
	var sb strings.Builder
	sb.Grow(len(src) + 16)
	for i, tk := range tokens {
		// Origin carries the token text plus the whitespace read before
		// it, so concatenating origins reproduces the source.
		sb.WriteString(tk.Origin)
		if tk.Type == token.TagType && bareTag(tokens, i) {
			sb.WriteString(" null")
		}
	}
	return []byte(sb.String())
}

// bareTag reports whether the tag token at index i has no payload. A
// block payload sits on a later line indented past the line the tag
// started on; anything at the same indent or less is a sibling, so the
// tag is bare. On the tag's own line only a closing bracket, a comma
// or a document marker can follow a bare tag.
func bareTag(tokens token.Tokens, i int) bool {
	tk := tokens[i]
	col := tk.Position.Column
	for j := i - 1; j >= 0 && tokens[j].Position.Line == tk.Position.Line; j-- {
		// A tag on a document header line tags the document body that
		// follows at any indent.
		if tokens[j].Type == token.DocumentHeaderType {
			return false
		}
		col = tokens[j].Position.Column
	}
	for j := i + 1; j < len(tokens); j++ {
		next := tokens[j]
		if next.Type == token.CommentType {
			continue
		}
		if next.Position.Line > tk.Position.Line {
			return next.Position.Column <= col
		}
		switch next.Type {
		case token.MappingEndType, token.SequenceEndType,
			token.CollectEntryType, token.DocumentEndType:
			return true
		}
		return false
	}
	return true
}
