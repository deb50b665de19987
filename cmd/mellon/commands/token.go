package commands

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/mellon/internal/tokenstore"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "manage tokens by adding or removing",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "add a new token and print its secret",
				ArgsUsage: "<label>",
				Action:    tokenAddAction,
			},
			{
				Name:      "rescind",
				Usage:     "revoke an existing token by its label",
				ArgsUsage: "<label>",
				Action:    tokenRescindAction,
			},
			{
				Name:   "list",
				Usage:  "list all tokens previously issued",
				Action: tokenListAction,
			},
		},
	}
}

// openStore loads the token store from the configured path. Administrative
// commands act on the store directly; a running server picks the result up
// on its next reload.
func openStore(cmd *cli.Command) (*tokenstore.Store, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := tokenstore.New(cfg.Store.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load token store: %w", err)
	}
	return store, nil
}

func tokenAddAction(ctx context.Context, cmd *cli.Command) error {
	label := cmd.Args().First()
	if label == "" {
		return fmt.Errorf("missing token label")
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	token, err := store.Create(label)
	if err != nil {
		return fmt.Errorf("failed to generate new token for label: %w", err)
	}

	fmt.Println(token.Secret)
	return nil
}

func tokenRescindAction(ctx context.Context, cmd *cli.Command) error {
	label := cmd.Args().First()
	if label == "" {
		return fmt.Errorf("missing token label")
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	if err := store.Rescind(label); err != nil {
		return fmt.Errorf("failed to rescind token: %w", err)
	}

	fmt.Printf("Token with label %s has been removed. Restart the server (or send it SIGHUP) to load changes!\n", label)
	return nil
}

func tokenListAction(ctx context.Context, cmd *cli.Command) error {
	store, err := openStore(cmd)
	if err != nil {
		return fmt.Errorf("unable to list tokens: %w", err)
	}

	tokens := store.Tokens()
	slices.SortFunc(tokens, func(a, b tokenstore.Token) int {
		return cmp.Compare(a.Label, b.Label)
	})

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("LABEL", "TOKEN")
	for _, token := range tokens {
		t.Row(token.Label, maskSecret(token.Secret))
	}

	fmt.Println(t.Render())
	return nil
}

// maskSecret hides all but the last four characters of a secret.
func maskSecret(secret string) string {
	if len(secret) <= 4 {
		return secret
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
