// Package guard admits privileged views only with an established session and
// owns the login and logout transitions of the session store.
package guard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/logger"
	"github.com/spigell/resume-analyzer/internal/remote"
	"github.com/spigell/resume-analyzer/internal/session"
)

const LoginFailedMessage = "Login failed"

var (
	// ErrUnauthenticated is returned when a privileged view is entered without a session.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrEmptyLogin is returned before any request when a username or password is missing.
	ErrEmptyLogin = errors.New("username and password cannot be empty")
)

// Authenticator exchanges a username and password for a token.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*remote.Token, error)
}

// LoginFunc collects a username and password, usually by prompting.
type LoginFunc func(ctx context.Context) (username, password string, err error)

// View is a privileged view entered with the active session.
type View func(ctx context.Context, s session.Session) error

type Guard struct {
	store  *session.Store
	auth   Authenticator
	logger *zap.Logger
}

func New(store *session.Store, auth Authenticator, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{store: store, auth: auth, logger: log}
}

// Login authenticates against the remote and establishes the session. The
// store is updated before Login returns, so the next remote call carries the
// new credential.
func (g *Guard) Login(ctx context.Context, username, password string) (session.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return session.Session{}, ErrEmptyLogin
	}

	log := g.logger.With(zap.String(logger.FieldIdentity, username))

	token, err := g.auth.Authenticate(ctx, username, password)
	if err != nil {
		log.Warn("authentication failed", zap.Error(err))
		return session.Session{}, fmt.Errorf("%s: %w", remote.Detail(err, LoginFailedMessage), err)
	}

	if err := g.store.Establish(token.AccessToken, token.Username); err != nil {
		return session.Session{}, fmt.Errorf("storing session: %w", err)
	}

	log.Info("logged in")
	return g.store.Current(), nil
}

// Logout clears the session durably and in memory.
func (g *Guard) Logout() error {
	if err := g.store.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	g.logger.Info("logged out")
	return nil
}

// Require returns the active session or ErrUnauthenticated.
func (g *Guard) Require() (session.Session, error) {
	s := g.store.Current()
	if !s.Active() {
		return session.Session{}, ErrUnauthenticated
	}
	return s, nil
}

// Enter runs view with the active session. Without one it redirects to login
// and, once that succeeds, continues into view. A nil login makes a missing
// session fail with ErrUnauthenticated.
func (g *Guard) Enter(ctx context.Context, login LoginFunc, view View) error {
	s, err := g.Require()
	if errors.Is(err, ErrUnauthenticated) {
		if login == nil {
			return err
		}

		g.logger.Debug("no session, redirecting to login")
		username, password, err := login(ctx)
		if err != nil {
			return err
		}
		if s, err = g.Login(ctx, username, password); err != nil {
			return err
		}
	}

	return view(ctx, s)
}
