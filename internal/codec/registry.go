package codec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Registry maps codec tags to implementations and picks a codec for a
// manifest entry.
type Registry struct {
	codecs map[string]Codec
}

// NewRegistry returns a registry with the built-in codecs registered.
func NewRegistry() *Registry {
	r := &Registry{codecs: map[string]Codec{}}
	r.Register(Dotenv{})
	r.Register(JSON{})
	return r
}

// Register adds a codec under its Name tag, replacing any previous one.
func (r *Registry) Register(c Codec) {
	r.codecs[c.Name()] = c
}

// Names returns the registered codec tags in no particular order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.codecs))
	for name := range r.codecs {
		names = append(names, name)
	}
	return names
}

// ForEntry resolves the codec for one manifest entry. An explicit tag wins;
// otherwise the file extension decides, with dotenv as the fallback for
// everything that is not recognizably structured.
func (r *Registry) ForEntry(tag, path string) (Codec, error) {
	if tag != "" {
		c, ok := r.codecs[tag]
		if !ok {
			return nil, fmt.Errorf("unknown codec %q (available: %s)", tag, strings.Join(r.Names(), ", "))
		}
		return c, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return r.codecs["json"], nil
	}
	return r.codecs["dotenv"], nil
}
