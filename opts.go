package openrouter

import (
	"log/slog"
	"net/http"

	"github.com/casualjim/openrouter/credentials"
	"github.com/casualjim/openrouter/models"
	"github.com/fogfish/opts"
)

// WithAPIURL points the provider at a different API base, e.g. a proxy or a
// test server. The URL doubles as the key the credential store is indexed by.
var WithAPIURL = opts.ForName[Provider, string]("apiURL")

// WithEnvVar overrides the environment variable consulted before the store.
var WithEnvVar = opts.ForName[Provider, string]("envVar")

// WithConcurrency sets the number of upstream requests allowed in flight at
// once. Fixed for the lifetime of the provider.
var WithConcurrency = opts.ForName[Provider, int]("concurrency")

// WithHTTPClient supplies the HTTP client used for all upstream calls.
var WithHTTPClient = opts.ForName[Provider, *http.Client]("client")

// WithCredentialStore supplies the persistence backend for API keys.
var WithCredentialStore = opts.ForName[Provider, credentials.Store]("store")

// WithModels replaces the default model catalog.
var WithModels = opts.ForName[Provider, []models.Model]("catalog")

// WithLogger supplies the slog logger the provider writes through.
var WithLogger = opts.ForName[Provider, *slog.Logger]("log")
