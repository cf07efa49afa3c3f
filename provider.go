package openrouter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/casualjim/openrouter/credentials"
	"github.com/casualjim/openrouter/internal/ratelimit"
	"github.com/casualjim/openrouter/models"
	"github.com/fogfish/opts"
)

const (
	// ProviderID identifies this provider to hosts.
	ProviderID = "openrouter"
	// ProviderName is the human-facing provider name.
	ProviderName = "OpenRouter"

	// DefaultAPIURL is the upstream API base.
	DefaultAPIURL = "https://openrouter.ai/api/v1"
	// DefaultEnvVar is the environment variable checked before the store.
	DefaultEnvVar = "OPENROUTER_API_KEY"
	// DefaultConcurrency bounds simultaneous upstream requests.
	DefaultConcurrency = 4
)

// Provider is an OpenRouter language-model provider instance. It owns the
// credential lifecycle, bounds concurrent upstream calls, and streams
// completions. Construct it with New; the zero value is not usable.
type Provider struct {
	apiURL      string
	envVar      string
	concurrency int
	client      *http.Client
	store       credentials.Store
	catalog     []models.Model
	log         *slog.Logger

	creds   *credentials.Manager
	limiter *ratelimit.Limiter
}

// New builds a provider. Without options it talks to the public OpenRouter
// API with the default model catalog, resolves its key from
// OPENROUTER_API_KEY, and allows 4 concurrent requests. A credential store
// must be supplied for persisted keys; without one, only the environment path
// can authenticate.
func New(options ...opts.Option[Provider]) (*Provider, error) {
	p := &Provider{
		apiURL:      DefaultAPIURL,
		envVar:      DefaultEnvVar,
		concurrency: DefaultConcurrency,
		client:      http.DefaultClient,
		catalog:     models.Defaults(),
		log:         slog.Default(),
	}
	if err := opts.Apply(p, options); err != nil {
		return nil, fmt.Errorf("openrouter: applying options: %w", err)
	}
	if p.concurrency < 1 {
		return nil, fmt.Errorf("openrouter: concurrency must be positive, got %d", p.concurrency)
	}
	if p.apiURL == "" {
		return nil, fmt.Errorf("openrouter: api url cannot be empty")
	}

	p.creds = credentials.NewManager(p.store, p.apiURL, p.envVar, p.log)
	p.limiter = ratelimit.New(p.concurrency)
	return p, nil
}

// ID returns the stable provider identifier.
func (p *Provider) ID() string { return ProviderID }

// Name returns the display name.
func (p *Provider) Name() string { return ProviderName }

// Models returns the configured model catalog in configuration order.
func (p *Provider) Models() []models.Model {
	return slices.Clone(p.catalog)
}

// IsAuthenticated reports whether a credential is active.
func (p *Provider) IsAuthenticated() bool {
	return p.creds.IsAuthenticated()
}

// Authenticate resolves a credential from the environment or the store. See
// credentials.Manager.Authenticate for the failure taxonomy.
func (p *Provider) Authenticate(ctx context.Context) error {
	return p.creds.Authenticate(ctx)
}

// SetCredential persists and adopts the given API key.
func (p *Provider) SetCredential(ctx context.Context, secret string) error {
	return p.creds.Set(ctx, secret)
}

// ResetCredential clears the stored and active credential.
func (p *Provider) ResetCredential(ctx context.Context) error {
	return p.creds.Reset(ctx)
}

// CredentialFromEnv reports whether the active key came from the environment.
func (p *Provider) CredentialFromEnv() bool {
	return p.creds.FromEnv()
}

// Subscribe registers fn to run after every authentication state change, so a
// configuration surface can re-render. The returned function cancels the
// registration.
func (p *Provider) Subscribe(fn func()) func() {
	return p.creds.Subscribe(fn)
}
