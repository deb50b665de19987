package commands

import "testing"

func TestRootCommandMetadata(t *testing.T) {
	cmd := newRootCommand()

	if cmd.Version == "" {
		t.Error("root command carries no version")
	}
	if cmd.Usage == "" || cmd.Description == "" {
		t.Error("root command carries no about text")
	}

	for _, name := range []string{"serve", "token"} {
		if cmd.Command(name) == nil {
			t.Errorf("root command is missing the %q subcommand", name)
		}
	}
}
