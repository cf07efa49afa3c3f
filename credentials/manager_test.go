package credentials

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "https://openrouter.ai/api/v1"

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*Record

	reads, writes, deletes int
	readErr                error
	writeErr               error
	deleteErr              error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*Record)}
}

func (s *fakeStore) Read(_ context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.records[key], nil
}

func (s *fakeStore) Write(_ context.Context, key, label string, secret []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.writeErr != nil {
		return s.writeErr
	}
	s.records[key] = &Record{Label: label, Secret: append([]byte(nil), secret...)}
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.records, key)
	return nil
}

func (s *fakeStore) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func TestAuthenticateFromEnvironment(t *testing.T) {
	t.Setenv("OPENROUTER_TEST_KEY", "sk-or-env")
	store := newFakeStore()
	m := NewManager(store, testKey, "OPENROUTER_TEST_KEY", nil)

	require.NoError(t, m.Authenticate(context.Background()))

	assert.True(t, m.IsAuthenticated())
	assert.True(t, m.FromEnv())
	cred, ok := m.Credential()
	require.True(t, ok)
	assert.Equal(t, "sk-or-env", cred.Secret)
	assert.Equal(t, OriginEnvironment, cred.Origin)
	// The environment path never touches the store.
	assert.Equal(t, 0, store.readCount())
}

func TestAuthenticateFromStore(t *testing.T) {
	store := newFakeStore()
	store.records[testKey] = &Record{Label: Label, Secret: []byte("sk-or-stored")}
	m := NewManager(store, testKey, "OPENROUTER_UNSET_VAR", nil)

	require.NoError(t, m.Authenticate(context.Background()))

	cred, ok := m.Credential()
	require.True(t, ok)
	assert.Equal(t, "sk-or-stored", cred.Secret)
	assert.Equal(t, OriginStore, cred.Origin)
	assert.False(t, m.FromEnv())
}

func TestAuthenticateIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.records[testKey] = &Record{Label: Label, Secret: []byte("sk-or-stored")}
	m := NewManager(store, testKey, "OPENROUTER_UNSET_VAR", nil)

	require.NoError(t, m.Authenticate(context.Background()))
	require.Equal(t, 1, store.readCount())

	// Second call short-circuits: success without any I/O, even when the
	// store would now fail.
	store.readErr = errors.New("store is down")
	require.NoError(t, m.Authenticate(context.Background()))
	assert.Equal(t, 1, store.readCount())
}

func TestAuthenticateNotFound(t *testing.T) {
	m := NewManager(newFakeStore(), testKey, "OPENROUTER_UNSET_VAR", nil)

	err := m.Authenticate(context.Background())
	require.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.False(t, m.IsAuthenticated())
}

func TestAuthenticateMalformed(t *testing.T) {
	store := newFakeStore()
	store.records[testKey] = &Record{Label: Label, Secret: []byte{0xff, 0xfe, 0xfd}}
	m := NewManager(store, testKey, "OPENROUTER_UNSET_VAR", nil)

	err := m.Authenticate(context.Background())
	require.ErrorIs(t, err, ErrMalformedCredential)
	assert.False(t, m.IsAuthenticated())
}

func TestAuthenticateStoreUnavailable(t *testing.T) {
	store := newFakeStore()
	store.readErr = errors.New("keychain locked")
	m := NewManager(store, testKey, "OPENROUTER_UNSET_VAR", nil)

	err := m.Authenticate(context.Background())

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)
	assert.False(t, m.IsAuthenticated())
}

func TestSetPersistsAndAdopts(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, testKey, "OPENROUTER_UNSET_VAR", nil)

	require.NoError(t, m.Set(context.Background(), "sk-or-new"))

	assert.True(t, m.IsAuthenticated())
	rec := store.records[testKey]
	require.NotNil(t, rec)
	assert.Equal(t, Label, rec.Label)
	assert.Equal(t, []byte("sk-or-new"), rec.Secret)
}

func TestSetAdoptsDespiteWriteFailure(t *testing.T) {
	store := newFakeStore()
	store.writeErr = errors.New("disk full")
	m := NewManager(store, testKey, "OPENROUTER_UNSET_VAR", nil)

	require.NoError(t, m.Set(context.Background(), "sk-or-new"))

	assert.True(t, m.IsAuthenticated())
	cred, _ := m.Credential()
	assert.Equal(t, OriginStore, cred.Origin)
}

func TestSetRejectsEmptySecret(t *testing.T) {
	m := NewManager(newFakeStore(), testKey, "OPENROUTER_UNSET_VAR", nil)
	require.Error(t, m.Set(context.Background(), ""))
	assert.False(t, m.IsAuthenticated())
}

func TestResetClearsState(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, testKey, "OPENROUTER_UNSET_VAR", nil)
	require.NoError(t, m.Set(context.Background(), "sk-or-new"))

	require.NoError(t, m.Reset(context.Background()))

	assert.False(t, m.IsAuthenticated())
	assert.Nil(t, store.records[testKey])

	// With the store empty and no environment variable, re-authentication
	// reports the expected not-found outcome.
	err := m.Authenticate(context.Background())
	require.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestResetSwallowsDeleteFailure(t *testing.T) {
	store := newFakeStore()
	store.deleteErr = errors.New("keychain locked")
	m := NewManager(store, testKey, "OPENROUTER_UNSET_VAR", nil)
	require.NoError(t, m.Set(context.Background(), "sk-or-new"))

	require.NoError(t, m.Reset(context.Background()))
	assert.False(t, m.IsAuthenticated())
}

func TestObserversNotifiedOnTransitions(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, testKey, "OPENROUTER_UNSET_VAR", nil)

	var notified int
	cancel := m.Subscribe(func() { notified++ })

	require.NoError(t, m.Set(context.Background(), "sk-or-one"))
	assert.Equal(t, 1, notified)

	require.NoError(t, m.Reset(context.Background()))
	assert.Equal(t, 2, notified)

	cancel()
	require.NoError(t, m.Set(context.Background(), "sk-or-two"))
	assert.Equal(t, 2, notified)
}

func TestAuthenticateWithoutStoreUsesEnvironmentOnly(t *testing.T) {
	m := NewManager(nil, testKey, "OPENROUTER_UNSET_VAR", nil)
	require.ErrorIs(t, m.Authenticate(context.Background()), ErrCredentialsNotFound)

	t.Setenv("OPENROUTER_TEST_KEY2", "sk-or-env")
	m = NewManager(nil, testKey, "OPENROUTER_TEST_KEY2", nil)
	require.NoError(t, m.Authenticate(context.Background()))
	assert.True(t, m.FromEnv())
}
