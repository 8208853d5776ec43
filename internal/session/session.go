// Package session holds the signed-in credential and identity for the process
// and keeps them in sync with durable local storage.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/logger"
)

var ErrNoSession = errors.New("no active session")

// Session is the credential/identity pair. Both are set or both are empty.
type Session struct {
	Credential string
	Identity   string
}

// Active reports whether the session carries a credential.
func (s Session) Active() bool {
	return s.Credential != ""
}

// Backend persists a session between process runs.
type Backend interface {
	Load() (Session, error)
	Save(Session) error
	Remove() error
}

// Store is the single owner of the process session.
type Store struct {
	mu      sync.RWMutex
	current Session
	backend Backend
	logger  *zap.Logger
}

// New builds a store and reconstructs the session from the backend.
// A half-written session (only one of the two entries present) is treated as absent.
func New(backend Backend, log *zap.Logger) (*Store, error) {
	if backend == nil {
		backend = NewMemoryBackend()
	}

	s := &Store{
		backend: backend,
		logger:  logger.WithComponent(log, "session"),
	}

	loaded, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if (loaded.Credential == "") != (loaded.Identity == "") {
		s.logger.Warn("ignoring incomplete stored session",
			zap.Bool("has_credential", loaded.Credential != ""),
			zap.Bool("has_identity", loaded.Identity != ""),
		)
		loaded = Session{}
	}

	s.current = loaded
	if loaded.Active() {
		s.logger.Debug("restored session", zap.String(logger.FieldIdentity, loaded.Identity))
	}

	return s, nil
}

// Establish persists the pair and makes it current. The in-memory state only
// changes once the backend accepted the write.
func (s *Store) Establish(credential, identity string) error {
	credential = strings.TrimSpace(credential)
	identity = strings.TrimSpace(identity)
	if credential == "" || identity == "" {
		return errors.New("credential and identity are both required")
	}

	next := Session{Credential: credential, Identity: identity}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Save(next); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	s.current = next

	s.logger.Info("session established", zap.String(logger.FieldIdentity, identity))
	return nil
}

// Clear drops the session from memory and from the backend. Memory is cleared
// even if the backend fails.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity := s.current.Identity
	s.current = Session{}

	if err := s.backend.Remove(); err != nil {
		return fmt.Errorf("removing session: %w", err)
	}

	s.logger.Info("session cleared", zap.String(logger.FieldIdentity, identity))
	return nil
}

// Current returns the in-memory session.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Credential returns the bearer credential or an empty string.
func (s *Store) Credential() string {
	return s.Current().Credential
}
