package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rossyflor/pos-admin/internal/apiclient"
	"github.com/rossyflor/pos-admin/internal/auth"
	"github.com/rossyflor/pos-admin/internal/products"
	"github.com/rossyflor/pos-admin/internal/sales"
	"github.com/rossyflor/pos-admin/internal/storage"
)

// DefaultIdleTimeout applies when Options.IdleTimeout is not set.
const DefaultIdleTimeout = 2 * time.Hour

var ErrInvalidID = errors.New("invalid session id")

// Logger is satisfied by *log.Logger.
type Logger interface {
	Printf(format string, v ...any)
}

// Workspace is the state of one browser session. Every container is built
// for the session and shares one API client whose token comes from Auth.
type Workspace struct {
	ID       string
	Client   *apiclient.Client
	Auth     *auth.State
	Products *products.Store
	Sales    *sales.Store
}

// Options configures a Registry.
type Options struct {
	BackendBaseURL string
	BackendTimeout time.Duration
	PageSize       int
	IdleTimeout    time.Duration
	Metrics        *apiclient.Metrics
	// ClientOptions are appended to every workspace's API client options.
	ClientOptions []apiclient.Option
}

type entry struct {
	ws       *Workspace
	lastSeen time.Time
}

// Registry creates and caches workspaces by session id. Persisted auth lives
// in the storage backend, so an evicted session is rebuilt on its next request.
type Registry struct {
	opts   Options
	store  storage.Store
	logger Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options, store storage.Store, logger Logger) *Registry {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	return &Registry{
		opts:     opts,
		store:    store,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an id produced by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the workspace for id, building it and restoring persisted auth
// on first use.
func (r *Registry) Get(ctx context.Context, id string) (*Workspace, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}

	r.mu.Lock()
	if e, ok := r.sessions[id]; ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.ws, nil
	}
	r.mu.Unlock()

	ws := r.build(id)
	if err := ws.Auth.Load(ctx); err != nil {
		if !errors.Is(err, auth.ErrCorruptState) {
			return nil, fmt.Errorf("restore session %s: %w", id, err)
		}
		r.logf("WARN session: %v; clearing persisted auth for %s", err, id)
		if err := ws.Auth.Logout(ctx); err != nil {
			return nil, fmt.Errorf("clear session %s: %w", id, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		e.lastSeen = r.now()
		return e.ws, nil
	}
	r.sessions[id] = &entry{ws: ws, lastSeen: r.now()}
	return ws, nil
}

// Drop forgets the in-memory workspace for id. Persisted values stay.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle drops workspaces not used within the idle timeout.
func (r *Registry) EvictIdle() int {
	cutoff := r.now().Add(-r.opts.IdleTimeout)

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run evicts idle workspaces every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.EvictIdle(); n > 0 {
				r.logf("INFO session: evicted %d idle workspaces", n)
			}
		}
	}
}

func (r *Registry) build(id string) *Workspace {
	var st *auth.State
	opts := []apiclient.Option{apiclient.WithMetrics(r.opts.Metrics)}
	if r.logger != nil {
		opts = append(opts, apiclient.WithLogger(r.logger))
	}
	opts = append(opts, r.opts.ClientOptions...)

	client := apiclient.New(r.opts.BackendBaseURL, r.opts.BackendTimeout,
		apiclient.TokenFunc(func() string { return st.Token() }), opts...)
	st = auth.New(client, r.store, id, r.logger)

	return &Workspace{
		ID:       id,
		Client:   client,
		Auth:     st,
		Products: products.NewStore(client, r.opts.PageSize, r.logger),
		Sales:    sales.NewStore(client, r.opts.PageSize, r.logger),
	}
}

func (r *Registry) logf(format string, v ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Printf(format, v...)
}
