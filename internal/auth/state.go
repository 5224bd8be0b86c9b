package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rossyflor/pos-admin/internal/apiclient"
	"github.com/rossyflor/pos-admin/internal/storage"
)

var (
	// ErrNoToken is returned when the login response carries no usable token field.
	ErrNoToken = errors.New("no authentication token found in response")
	// ErrCorruptState is returned by Load when a persisted value cannot be parsed.
	ErrCorruptState = errors.New("persisted auth state is malformed")
	// ErrMissingCredentials is returned before any request when username or password is empty.
	ErrMissingCredentials = fmt.Errorf("%w: username and password are required", apiclient.ErrValidation)
)

// API is the subset of apiclient.Client used by the auth state.
type API interface {
	Post(ctx context.Context, path string, body, out any) error
}

// Logger is satisfied by *log.Logger.
type Logger interface {
	Printf(format string, v ...any)
}

// State holds the current token and user of one browser session and mirrors
// them into persisted storage under the "token" and "user" keys.
type State struct {
	api       API
	store     storage.Store
	namespace string
	logger    Logger

	mu    sync.RWMutex
	token string
	user  *User
}

// New creates a logged-out state. Call Load to restore persisted values.
func New(api API, store storage.Store, namespace string, logger Logger) *State {
	return &State{
		api:       api,
		store:     store,
		namespace: namespace,
		logger:    logger,
	}
}

// Load restores token and user from storage. A malformed user value leaves the
// state logged out and returns ErrCorruptState. An expired JWT is dropped.
func (s *State) Load(ctx context.Context) error {
	token, _, err := s.store.Get(ctx, s.namespace, storage.KeyToken)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	rawUser, hasUser, err := s.store.Get(ctx, s.namespace, storage.KeyUser)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	var user *User
	if hasUser && rawUser != "" && rawUser != "null" {
		user = &User{}
		if err := json.Unmarshal([]byte(rawUser), user); err != nil {
			s.reset()
			return fmt.Errorf("%w: user: %v", ErrCorruptState, err)
		}
	}

	if token != "" && Expired(token, now()) {
		s.logf("INFO auth: dropping expired token for session %s", s.namespace)
		if err := s.clearPersisted(ctx); err != nil {
			return err
		}
		s.reset()
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return nil
}

// IsAuthenticated reports whether a token is held.
func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token implements apiclient.TokenSource.
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current user, or nil when logged out.
func (s *State) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Login authenticates against POST /login and persists the returned token.
func (s *State) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return ErrMissingCredentials
	}

	var resp LoginResponse
	if err := s.api.Post(ctx, "/login", Credentials{Username: username, Password: password}, &resp); err != nil {
		s.logf("WARN auth: login failed for %s: %v", username, err)
		return fmt.Errorf("login: %w", err)
	}

	token, field := resp.pick()
	if token == "" {
		return ErrNoToken
	}
	if field != "jwt" {
		s.logf("INFO auth: login token read from %q field", field)
	}

	user := &User{Username: username}
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	if err := s.store.Set(ctx, s.namespace, storage.KeyToken, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.store.Set(ctx, s.namespace, storage.KeyUser, string(payload)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return nil
}

// Register creates a user via POST /register. It does not log in.
func (s *State) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return ErrMissingCredentials
	}
	if err := s.api.Post(ctx, "/register", Credentials{Username: username, Password: password}, nil); err != nil {
		s.logf("WARN auth: registration failed for %s: %v", username, err)
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// Logout clears the in-memory state and both persisted keys.
func (s *State) Logout(ctx context.Context) error {
	s.reset()
	return s.clearPersisted(ctx)
}

func (s *State) reset() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
}

func (s *State) clearPersisted(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.namespace, storage.KeyToken); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	if err := s.store.Delete(ctx, s.namespace, storage.KeyUser); err != nil {
		return fmt.Errorf("clear user: %w", err)
	}
	return nil
}

func (s *State) logf(format string, v ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, v...)
}
