package models

import "github.com/alphadose/haxmap"

var registry = haxmap.New[string, Model]()

func init() {
	for _, m := range Defaults() {
		Add(m)
	}
}

// Defaults returns the built-in catalog. Hosts typically replace or extend it
// from their own settings; the entries here just make the provider usable out
// of the box.
func Defaults() []Model {
	return []Model{
		{ID: "anthropic/claude-3.5-sonnet", DisplayName: "Claude 3.5 Sonnet", ContextWindow: 200_000, MaxOutput: 8_192},
		{ID: "openai/gpt-4o", DisplayName: "GPT-4o", ContextWindow: 128_000, MaxOutput: 16_384},
		{ID: "openai/gpt-4o-mini", DisplayName: "GPT-4o mini", ContextWindow: 128_000, MaxOutput: 16_384},
		{ID: "google/gemini-flash-1.5", DisplayName: "Gemini 1.5 Flash", ContextWindow: 1_000_000},
		{ID: "meta-llama/llama-3.1-70b-instruct", DisplayName: "Llama 3.1 70B", ContextWindow: 131_072},
	}
}

// Add registers a model under its ID, replacing any previous entry.
func Add(model Model) {
	registry.Set(model.ID, model)
}

// Get looks a model up by ID.
func Get(id string) (Model, bool) {
	return registry.Get(id)
}

// GetOrAdd returns the registered model or registers the one produced by
// modelF.
func GetOrAdd(id string, modelF func() Model) Model {
	m, _ := registry.GetOrCompute(id, modelF)
	return m
}

// Del removes a model from the registry.
func Del(id string) {
	registry.Del(id)
}
