package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spigell/resume-analyzer/internal/secrets"
)

const (
	credentialEntry = "auth-token"
	identityEntry   = "username"
)

// FileBackend keeps the credential and the identity as two separate files in Dir.
type FileBackend struct {
	Dir string
}

func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{Dir: dir}
}

func (b *FileBackend) Load() (Session, error) {
	credential, err := secrets.Load(secrets.Source{
		Name:     "session credential",
		File:     b.path(credentialEntry),
		Optional: true,
	})
	if err != nil {
		return Session{}, err
	}

	identity, err := secrets.Load(secrets.Source{
		Name:     "session identity",
		File:     b.path(identityEntry),
		Optional: true,
	})
	if err != nil {
		return Session{}, err
	}

	return Session{Credential: credential, Identity: identity}, nil
}

func (b *FileBackend) Save(s Session) error {
	if strings.TrimSpace(b.Dir) == "" {
		return errors.New("session directory is not configured")
	}

	if err := os.MkdirAll(b.Dir, 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	if err := os.WriteFile(b.path(credentialEntry), []byte(s.Credential), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", credentialEntry, err)
	}

	if err := os.WriteFile(b.path(identityEntry), []byte(s.Identity), 0o600); err != nil {
		// Keep the entries in sync: a credential without identity is not a session.
		_ = os.Remove(b.path(credentialEntry))
		return fmt.Errorf("writing %s: %w", identityEntry, err)
	}

	return nil
}

func (b *FileBackend) Remove() error {
	var errs []error
	for _, entry := range []string{credentialEntry, identityEntry} {
		if err := os.Remove(b.path(entry)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("removing %s: %w", entry, err))
		}
	}
	return errors.Join(errs...)
}

func (b *FileBackend) path(entry string) string {
	return filepath.Join(b.Dir, entry)
}

// MemoryBackend keeps the entries in process memory. Used when no state
// directory is available and in tests.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]string)}
}

func (b *MemoryBackend) Load() (Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Session{Credential: b.entries[credentialEntry], Identity: b.entries[identityEntry]}, nil
}

func (b *MemoryBackend) Save(s Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[credentialEntry] = s.Credential
	b.entries[identityEntry] = s.Identity
	return nil
}

func (b *MemoryBackend) Remove() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, credentialEntry)
	delete(b.entries, identityEntry)
	return nil
}
