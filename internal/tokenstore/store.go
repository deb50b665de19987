package tokenstore

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Validation failures surfaced to the administrative caller. The store is
// left unchanged when any of these is returned.
var (
	ErrInvalidLabel   = errors.New("label must be non-empty and must not contain \":\"")
	ErrDuplicateLabel = errors.New("label already exists")
	ErrUnknownLabel   = errors.New("no token with that label")
)

// Store is the file-backed mapping from label to Token plus a derived
// secret-membership set for O(1) authorization checks.
//
// Contains may run concurrently with any number of other Contains calls.
// Mutations and Reload build their replacement state first and swap it in
// under the write lock, so readers never observe a partially rebuilt set.
type Store struct {
	path string

	mu     sync.RWMutex
	tokens map[string]Token
	lookup map[string]struct{}
}

// New creates a Store backed by the file at path, creating parent
// directories with 0700 permissions if they don't exist. The initial load
// happens here; a missing file is an empty store, not an error.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Reload replaces all in-memory state with the contents of the backing
// file. The file is parsed completely before anything is committed: a
// malformed line fails the whole reload and the previously loaded state
// keeps serving.
func (s *Store) Reload() error {
	file, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.commit(map[string]Token{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening token file %s: %w", s.path, err)
	}
	defer func() { _ = file.Close() }()

	tokens := make(map[string]Token)
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		token, err := ParseToken(scanner.Text())
		if err != nil {
			return fmt.Errorf("%s:%d: %w", s.path, lineNo, err)
		}
		tokens[token.Label] = token
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading token file %s: %w", s.path, err)
	}

	s.commit(tokens)
	return nil
}

// Contains reports whether secret belongs to a currently issued token.
// It answers from memory only; the backing file is never consulted here.
func (s *Store) Contains(secret string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.lookup[secret]
	return ok
}

// Create issues a new token under label with a freshly generated random
// secret, persists the store, and returns the token. The 128-bit secret
// width makes collisions with existing secrets a non-concern.
func (s *Store) Create(label string) (Token, error) {
	if label == "" || strings.Contains(label, separator) {
		return Token{}, fmt.Errorf("create %q: %w", label, ErrInvalidLabel)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[label]; exists {
		return Token{}, fmt.Errorf("create %q: %w", label, ErrDuplicateLabel)
	}

	token := Token{Label: label, Secret: uuid.NewString()}
	next := maps.Clone(s.tokens)
	next[token.Label] = token

	if err := s.persist(next); err != nil {
		return Token{}, err
	}
	s.commitLocked(next)
	return token, nil
}

// Rescind revokes the token issued under label and persists the store.
func (s *Store) Rescind(label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[label]; !exists {
		return fmt.Errorf("rescind %q: %w", label, ErrUnknownLabel)
	}

	next := maps.Clone(s.tokens)
	delete(next, label)

	if err := s.persist(next); err != nil {
		return err
	}
	s.commitLocked(next)
	return nil
}

// Tokens returns a fresh snapshot of the current tokens in no particular
// order.
func (s *Store) Tokens() []Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := make([]Token, 0, len(s.tokens))
	for _, token := range s.tokens {
		tokens = append(tokens, token)
	}
	return tokens
}

// commit swaps in a fully built token map under the write lock.
func (s *Store) commit(tokens map[string]Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitLocked(tokens)
}

// commitLocked rebuilds the secret lookup from tokens and installs both.
// Callers must hold the write lock.
func (s *Store) commitLocked(tokens map[string]Token) {
	lookup := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		lookup[token.Secret] = struct{}{}
	}
	s.tokens = tokens
	s.lookup = lookup
}

// persist writes every token as one line, replacing the backing file.
// Writes go to a temp file in the same directory followed by a rename, so
// a crash mid-write cannot truncate the store. File permissions end up as
// 0600 (owner read/write only).
func (s *Store) persist(tokens map[string]Token) error {
	dir := filepath.Dir(s.path)
	tempFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp token file: %w", err)
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	writer := bufio.NewWriter(tempFile)
	for _, token := range tokens {
		if _, err := fmt.Fprintln(writer, token); err != nil {
			return fmt.Errorf("writing token file: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("closing temp token file: %w", err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replacing token file: %w", err)
	}

	if err := os.Chmod(s.path, 0600); err != nil {
		return fmt.Errorf("setting token file permissions: %w", err)
	}

	return nil
}
