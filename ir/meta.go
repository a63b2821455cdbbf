package ir

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Metadata travels inline inside a tag token, so the encoded form must
// avoid tag delimiters and whitespace. JSON inside unpadded url-safe
// base64 satisfies that and round-trips any string-keyed value.

// Reserved metadata keys lifted into node fields on decode.
const (
	MetaOrdinal      = "idx"
	MetaPriority     = "priority"
	MetaDelete       = "delete"
	MetaAllowNew     = "allowNew"
	MetaSourceFile   = "sourceFile"
	MetaDependencies = "dependencies"
	MetaUsers        = "users"
)

func EncodeMeta(m map[string]any) (string, error) {
	d, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(d), nil
}

func DecodeMeta(s string) (map[string]any, error) {
	d, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataDecode, err)
	}
	var m map[string]any
	if err := json.Unmarshal(d, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataDecode, err)
	}
	return m, nil
}

// ApplyMeta lifts reserved keys into the corresponding node fields and
// keeps the remainder as user metadata.
func (y *Node) ApplyMeta(m map[string]any) error {
	for k, v := range m {
		switch k {
		case MetaOrdinal:
			n, err := metaInt(k, v)
			if err != nil {
				return err
			}
			y.Ordinal = n
		case MetaPriority:
			n, err := metaInt(k, v)
			if err != nil {
				return err
			}
			p, err := PriorityFromInt(n)
			if err != nil {
				return err
			}
			y.Priority = &p
		case MetaDelete:
			b, err := metaBool(k, v)
			if err != nil {
				return err
			}
			y.Delete = &b
		case MetaAllowNew:
			b, err := metaBool(k, v)
			if err != nil {
				return err
			}
			y.AllowNew = &b
		case MetaSourceFile:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: %s is %T, want string", ErrMetadataDecode, k, v)
			}
			y.SourceFile = s
		case MetaDependencies:
			ss, err := metaStrings(k, v)
			if err != nil {
				return err
			}
			y.Deps = ss
		case MetaUsers:
			ss, err := metaStrings(k, v)
			if err != nil {
				return err
			}
			y.Users = ss
		default:
			if y.Meta == nil {
				y.Meta = map[string]any{}
			}
			y.Meta[k] = v
		}
	}
	return nil
}

func metaInt(k string, v any) (int, error) {
	switch x := v.(type) {
	case float64:
		return int(x), nil
	case int:
		return x, nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrMetadataDecode, k, err)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("%w: %s is %T, want int", ErrMetadataDecode, k, v)
}

func metaBool(k string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is %T, want bool", ErrMetadataDecode, k, v)
	}
	return b, nil
}

func metaStrings(k string, v any) ([]string, error) {
	xs, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, want list of strings", ErrMetadataDecode, k, v)
	}
	res := make([]string, len(xs))
	for i, x := range xs {
		s, ok := x.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is %T, want string", ErrMetadataDecode, k, i, x)
		}
		res[i] = s
	}
	return res, nil
}
