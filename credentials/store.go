package credentials

import (
	"context"
	"errors"
	"fmt"
)

// Label is the credential kind written to the store alongside the secret.
const Label = "Bearer"

// Record is a credential blob read back from a Store.
type Record struct {
	Label  string
	Secret []byte
}

// Store is the persistence boundary for credentials. Implementations are
// expected to be keyed by the provider's API URL and to treat the secret as
// opaque bytes. A nil Record from Read means no credential is stored for the
// key; errors are reserved for I/O failures.
type Store interface {
	Read(ctx context.Context, key string) (*Record, error)
	Write(ctx context.Context, key, label string, secret []byte) error
	Delete(ctx context.Context, key string) error
}

var (
	// ErrCredentialsNotFound means neither the environment variable nor the
	// store held a secret. This is an expected outcome, not a failure: hosts
	// should render "enter an API key" guidance rather than an alarm.
	ErrCredentialsNotFound = errors.New("credentials not found")

	// ErrMalformedCredential means the store held bytes for the key but they
	// did not decode as UTF-8 text.
	ErrMalformedCredential = errors.New("stored credential is not valid utf-8")
)

// StoreError wraps an I/O failure talking to the Store. It is distinguishable
// from ErrCredentialsNotFound so hosts can render "service unavailable"
// instead of prompting for a key.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("credential store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
