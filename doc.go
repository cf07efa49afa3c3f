// Package openrouter implements an OpenRouter language-model provider that
// host applications plug in behind their own provider abstraction. It covers
// the three coupled concerns such an integration needs and nothing else:
//
//   - Credential lifecycle: an environment-supplied API key is reconciled
//     with a persisted secret store (credentials package). "Not
//     authenticated" is an expected state with its own typed outcome, kept
//     distinct from store or transport failures.
//   - Bounded dispatch: outbound completions pass through a fixed-capacity
//     FIFO permit limiter, so a burst of callers cannot exhaust local or
//     remote resources.
//   - Streaming demux: a single long-lived SSE response is demultiplexed
//     into typed CompletionEvent values (text deltas, complete tool calls,
//     usage, stop). Malformed chunks are fatal for their stream; abandoning
//     a stream aborts the transport and releases its permit.
//
// What this package deliberately does not own: configuration rendering,
// transport internals beyond a caller-supplied *http.Client, the secret
// storage backend (see credentials.Store), and the upstream model catalog
// (see models).
//
// Example usage:
//
//	provider, err := openrouter.New(
//		openrouter.WithCredentialStore(store),
//		openrouter.WithConcurrency(4),
//	)
//	if err != nil {
//		return err
//	}
//	if err := provider.Authenticate(ctx); err != nil {
//		// errors.Is(err, credentials.ErrCredentialsNotFound) => prompt for a key
//		return err
//	}
//
//	events, err := provider.StreamCompletion(ctx, openrouter.CompletionRequest{
//		Model: "openai/gpt-4o-mini",
//		Messages: []openrouter.Message{
//			{Role: openrouter.RoleUser, Content: "Hello!"},
//		},
//	})
//	if err != nil {
//		return err
//	}
//	for ev := range events {
//		switch e := ev.(type) {
//		case openrouter.TextDelta:
//			fmt.Print(e.Text)
//		case openrouter.Error:
//			return e.Err
//		}
//	}
package openrouter
