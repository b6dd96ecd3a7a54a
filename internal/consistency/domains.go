package consistency

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// DomainManifest is an optional DOMAINS.toml file mapping domain names
// to path patterns. The analyzer only needs whether a file matches a
// declared domain; the mapping's internals are opaque to the pipeline.
type DomainManifest struct {
	Domains map[string]DomainDeclaration `toml:"domains"`
}

// DomainDeclaration declares the path patterns belonging to a domain.
type DomainDeclaration struct {
	Patterns    []string `toml:"patterns"`
	Description string   `toml:"description,omitempty"`
}

// LoadDomains reads a domain manifest. A missing file returns (nil,
// nil): the manifest is optional.
func LoadDomains(path string) (*DomainManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var manifest DomainManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// Match returns the first domain whose pattern matches the path.
// Patterns are glob-matched against the base name and substring-matched
// against the slash-normalized path.
func (m *DomainManifest) Match(path string) (string, bool) {
	normalized := filepath.ToSlash(path)
	base := filepath.Base(path)

	names := make([]string, 0, len(m.Domains))
	for name := range m.Domains {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, pattern := range m.Domains[name].Patterns {
			if ok, _ := filepath.Match(pattern, base); ok {
				return name, true
			}
			if strings.Contains(normalized, pattern) {
				return name, true
			}
		}
	}
	return "", false
}
