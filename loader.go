package strata

import (
	"os"
	"path/filepath"
)

// FileLoader resolves include references to source bytes. relativeTo
// is the including file, empty for the top of a build.
type FileLoader interface {
	Load(ref, relativeTo string) (data []byte, resolved string, err error)
}

type osLoader struct{}

// OSLoader loads includes from the filesystem, resolving relative
// references against the directory of the including file.
func OSLoader() FileLoader {
	return osLoader{}
}

func (osLoader) Load(ref, relativeTo string) ([]byte, string, error) {
	resolved := ref
	if !filepath.IsAbs(ref) && relativeTo != "" {
		resolved = filepath.Join(filepath.Dir(relativeTo), ref)
	}
	d, err := os.ReadFile(resolved)
	if err != nil {
		return nil, "", err
	}
	return d, resolved, nil
}
