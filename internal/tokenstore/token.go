package tokenstore

import (
	"fmt"
	"strings"
)

// separator divides the label from the secret in the serialized line form.
const separator = ":"

// Token is an issued credential: a human-chosen label bound to an opaque
// bearer secret.
type Token struct {
	Label  string
	Secret string
}

// ParseError reports a serialized token line that could not be parsed.
type ParseError struct {
	Line string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed token line %q: missing %q separator", e.Line, separator)
}

// ParseToken parses a serialized `label:secret` line. The line is split on
// the first separator only, so secrets containing the separator survive a
// round trip; both fields are trimmed of surrounding whitespace.
func ParseToken(line string) (Token, error) {
	label, secret, found := strings.Cut(line, separator)
	if !found {
		return Token{}, &ParseError{Line: line}
	}

	return Token{
		Label:  strings.TrimSpace(label),
		Secret: strings.TrimSpace(secret),
	}, nil
}

// String returns the serialized line form, the inverse of ParseToken.
func (t Token) String() string {
	return t.Label + separator + t.Secret
}
