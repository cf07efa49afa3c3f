package openrouter

import "sync"

// UsageTracker accumulates token usage across streams. Feed it the Usage
// events a consumer observes to keep a running total per provider instance.
// Safe for concurrent use.
type UsageTracker struct {
	mu         sync.RWMutex
	prompt     uint64
	completion uint64
	streams    uint64
}

// Add records the usage reported by one stream.
func (t *UsageTracker) Add(u Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prompt += u.PromptTokens
	t.completion += u.CompletionTokens
	t.streams++
}

// Total returns the accumulated usage and the number of streams recorded.
func (t *UsageTracker) Total() (prompt, completion, streams uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.prompt, t.completion, t.streams
}

// Reset clears the tracker.
func (t *UsageTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prompt, t.completion, t.streams = 0, 0, 0
}
