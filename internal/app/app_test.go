package app

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/florianilch/mellon/internal/tokenstore"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	cfg.Store.File = filepath.Join(t.TempDir(), "tokens")
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0 // ephemeral
	return cfg
}

// startTestApp runs Start in the background and returns a function that
// cancels it and waits for a clean exit.
func startTestApp(t *testing.T, application *App) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Start(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Start returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("app did not shut down after cancel")
		}
	})
}

func TestStartReloadsStoreOnSIGHUP(t *testing.T) {
	// Keep our own registration alive for the whole test so a SIGHUP can
	// never hit the default disposition while the app is still wiring up
	guard := make(chan os.Signal, 1)
	signal.Notify(guard, syscall.SIGHUP)
	defer signal.Stop(guard)

	cfg := testConfig(t)
	application, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	startTestApp(t, application)

	// Another process (the admin CLI) adds a token to the same file
	admin, err := tokenstore.New(cfg.Store.File)
	if err != nil {
		t.Fatalf("opening admin store: %v", err)
	}
	token, err := admin.Create("svc-a")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if application.store.Contains(token.Secret) {
		t.Fatal("serving store observed external mutation without a reload")
	}

	// The signal handler may not be installed yet, so keep nudging until
	// the reload lands
	deadline := time.Now().Add(5 * time.Second)
	for !application.store.Contains(token.Secret) {
		if time.Now().After(deadline) {
			t.Fatal("SIGHUP reload did not pick up the externally added token")
		}
		if err := syscall.Kill(os.Getpid(), syscall.SIGHUP); err != nil {
			t.Fatalf("sending SIGHUP: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestNewFailsOnCorruptStore(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.Store.File, []byte("no separator\n"), 0600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}

	if _, err := New(cfg); err == nil {
		t.Fatal("New over a corrupt token file succeeded")
	}
}

func TestNewSelectsFrontEnd(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Mode = ServerModeWeb

	application, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	startTestApp(t, application)
}
