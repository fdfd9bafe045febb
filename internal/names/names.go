// Package names validates the identifiers shared across the module:
// parameter names, stage and dimension names, pipeline names and generator
// registration names all follow the same grammar.
//
// A valid name is non-empty, starts with an ASCII letter, continues with
// ASCII letters, digits or underscores, and never contains two consecutive
// underscores. Leading underscores are reserved for generated symbols and
// are rejected.
package names

import (
	"errors"
	"fmt"
	"strings"
)

// Check returns nil if name conforms to the identifier grammar, or an
// error naming the first violated rule. The error carries no sentinel;
// callers wrap it with their own.
func Check(name string) error {
	if name == "" {
		return errors.New("name is empty")
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case i == 0:
			return fmt.Errorf("name %q must start with a letter", name)
		case r >= '0' && r <= '9' || r == '_':
		default:
			return fmt.Errorf("name %q contains invalid character %q", name, r)
		}
	}
	if strings.Contains(name, "__") {
		return fmt.Errorf("name %q contains a double underscore", name)
	}
	return nil
}

// Valid reports whether name conforms to the identifier grammar.
func Valid(name string) bool {
	return Check(name) == nil
}
