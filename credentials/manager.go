package credentials

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/casualjim/openrouter/pkg/slogx"
)

// Origin records where the active secret came from.
type Origin int

const (
	// OriginNone means no secret is active.
	OriginNone Origin = iota
	// OriginEnvironment means the secret was read from the environment
	// variable. It is never written to the store, and resetting it is
	// meaningless (unset the variable instead).
	OriginEnvironment
	// OriginStore means the secret was read from, or written to, the Store.
	OriginStore
)

func (o Origin) String() string {
	switch o {
	case OriginEnvironment:
		return "environment"
	case OriginStore:
		return "store"
	default:
		return "none"
	}
}

// Credential is a resolved secret handle. Values are copies; holding one does
// not observe later Set/Reset calls.
type Credential struct {
	Secret string
	Origin Origin
}

// Manager owns the active credential for one provider instance. It is the
// sole writer to the Store and the only component that reads the environment.
// All methods are safe for concurrent use; when operations race, the last
// completed operation wins.
type Manager struct {
	store  Store
	key    string
	envVar string
	log    *slog.Logger

	mu        sync.Mutex
	secret    string
	origin    Origin
	observers []func()
}

// NewManager builds a manager persisting under key (the provider API URL) and
// checking envVar before the store. A nil store is allowed: authentication
// then succeeds only via the environment.
func NewManager(store Store, key, envVar string, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{store: store, key: key, envVar: envVar, log: log}
}

// IsAuthenticated reports whether a secret is active.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.origin != OriginNone
}

// Credential returns a copy of the active credential.
func (m *Manager) Credential() (Credential, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.origin == OriginNone {
		return Credential{}, false
	}
	return Credential{Secret: m.secret, Origin: m.origin}, true
}

// FromEnv reports whether the active secret came from the environment
// variable. Hosts use this to disable the reset affordance.
func (m *Manager) FromEnv() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.origin == OriginEnvironment
}

// Subscribe registers fn to run after every successful state transition.
// The returned function removes the registration.
func (m *Manager) Subscribe(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
	idx := len(m.observers) - 1
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if idx < len(m.observers) {
			m.observers[idx] = nil
		}
	}
}

func (m *Manager) notify() {
	m.mu.Lock()
	observers := make([]func(), 0, len(m.observers))
	for _, fn := range m.observers {
		if fn != nil {
			observers = append(observers, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

// Authenticate resolves a secret. Already authenticated is an immediate
// success with no I/O. Otherwise the environment variable is checked first
// and, when set, adopted without touching the store. Only then is the store
// consulted. Failure modes: ErrCredentialsNotFound, ErrMalformedCredential,
// or a *StoreError.
func (m *Manager) Authenticate(ctx context.Context) error {
	m.mu.Lock()
	if m.origin != OriginNone {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if secret, ok := os.LookupEnv(m.envVar); ok && secret != "" {
		m.adopt(secret, OriginEnvironment)
		m.notify()
		return nil
	}

	if m.store == nil {
		return ErrCredentialsNotFound
	}

	rec, err := m.store.Read(ctx, m.key)
	if err != nil {
		return &StoreError{Op: "read", Err: err}
	}
	if rec == nil {
		return ErrCredentialsNotFound
	}
	if !utf8.Valid(rec.Secret) {
		return ErrMalformedCredential
	}

	m.adopt(string(rec.Secret), OriginStore)
	m.notify()
	return nil
}

// Set persists the secret under the provider key and adopts it locally,
// regardless of prior state. A failed write is logged and swallowed: local
// adoption proceeds so the host stays responsive, at the cost of the secret
// possibly not surviving a restart.
func (m *Manager) Set(ctx context.Context, secret string) error {
	if secret == "" {
		return errors.New("credential secret cannot be empty")
	}

	if m.store != nil {
		if err := m.store.Write(ctx, m.key, Label, []byte(secret)); err != nil {
			m.log.WarnContext(ctx, "failed to persist credential, keeping it in memory only",
				slog.String("key", m.key), slogx.Error(err))
		}
	}

	m.adopt(secret, OriginStore)
	m.notify()
	return nil
}

// Reset deletes the stored secret (best-effort, failures logged) and clears
// the local state whatever its origin. Observers are notified unconditionally.
func (m *Manager) Reset(ctx context.Context) error {
	if m.store != nil {
		if err := m.store.Delete(ctx, m.key); err != nil {
			m.log.WarnContext(ctx, "failed to delete stored credential",
				slog.String("key", m.key), slogx.Error(err))
		}
	}

	m.mu.Lock()
	m.secret = ""
	m.origin = OriginNone
	m.mu.Unlock()

	m.notify()
	return nil
}

func (m *Manager) adopt(secret string, origin Origin) {
	m.mu.Lock()
	m.secret = secret
	m.origin = origin
	m.mu.Unlock()
}
