package tokenstore

import (
	"errors"
	"testing"
)

func TestParseToken(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		label  string
		secret string
	}{
		{
			name:   "plain pair",
			line:   "svc-a:11111111-1111-1111-1111-111111111111",
			label:  "svc-a",
			secret: "11111111-1111-1111-1111-111111111111",
		},
		{
			name:   "surrounding whitespace trimmed",
			line:   "  svc-a :\t uuid1 ",
			label:  "svc-a",
			secret: "uuid1",
		},
		{
			name:   "secret keeps everything after the first separator",
			line:   "svc-a:se:cr:et",
			label:  "svc-a",
			secret: "se:cr:et",
		},
		{
			name:   "empty fields still parse",
			line:   ":",
			label:  "",
			secret: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := ParseToken(tt.line)
			if err != nil {
				t.Fatalf("ParseToken(%q) failed: %v", tt.line, err)
			}
			if token.Label != tt.label || token.Secret != tt.secret {
				t.Fatalf("ParseToken(%q) = (%q, %q), want (%q, %q)", tt.line, token.Label, token.Secret, tt.label, tt.secret)
			}
		})
	}
}

func TestParseTokenMissingSeparator(t *testing.T) {
	for _, line := range []string{"", "no separator here", "svc-a"} {
		_, err := ParseToken(line)
		if err == nil {
			t.Fatalf("ParseToken(%q) succeeded, want parse error", line)
		}
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("ParseToken(%q) returned %T, want *ParseError", line, err)
		}
	}
}

func TestTokenStringRoundTrip(t *testing.T) {
	original := Token{Label: "svc-a", Secret: "se:cr:et"}
	parsed, err := ParseToken(original.String())
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if parsed != original {
		t.Fatalf("round trip = %+v, want %+v", parsed, original)
	}
}
