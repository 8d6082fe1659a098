// Package codec selects the JSON encoder used for machine-readable output
// such as index statistics and search results.
//
// Output is meant for terminals and log pipelines, not HTML, so neither
// codec escapes '<', '>' or '&'. Document paths come out as written.
package codec

import (
	"fmt"
	"strings"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

var builtin = []Codec{GoJSON{}, JSON{}}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	for _, c := range builtin {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Names lists the built-in codecs, default first.
func Names() []string {
	names := make([]string, len(builtin))
	for i, c := range builtin {
		names[i] = c.Name()
	}
	return names
}

// Lookup is ByName with an error naming the valid choices.
func Lookup(name string) (Codec, error) {
	if c, ok := ByName(name); ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown codec %q (want one of %s)", name, strings.Join(Names(), ", "))
}

// MustMarshal panics if v cannot be encoded.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
