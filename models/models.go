// Package models holds the descriptors for the models the provider offers,
// plus a process-wide registry hosts can extend with models from their own
// configuration.
package models

// Model describes one upstream model. Descriptors are immutable values: they
// are created from configuration and never mutated afterwards.
type Model struct {
	// ID is the upstream model identifier, e.g. "anthropic/claude-3.5-sonnet".
	ID string

	// DisplayName is the human-facing name. Falls back to ID when empty.
	DisplayName string

	// ContextWindow is the total token budget for prompt plus output.
	ContextWindow uint64

	// MaxOutput caps the completion tokens. Zero means the upstream default.
	MaxOutput uint64
}

// Name returns the display name, falling back to the model ID.
func (m Model) Name() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.ID
}

// MaxTokenCount returns the model's context window size in tokens.
func (m Model) MaxTokenCount() uint64 { return m.ContextWindow }

// MaxOutputTokens returns the output token cap and whether one is set.
func (m Model) MaxOutputTokens() (uint64, bool) {
	return m.MaxOutput, m.MaxOutput > 0
}
