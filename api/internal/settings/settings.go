// Package settings persists the two client settings (endpoint URL and
// instruction text) as string keys in a key-value store.
package settings

import (
	"context"
	"strings"
)

// Storage keys, shared by every backend.
const (
	KeyEndpointURL = "apiUrl"
	KeyPrompt      = "promptText"
)

type Settings struct {
	EndpointURL string `json:"api_url"`
	Prompt      string `json:"prompt"`
}

type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

// KV is the minimal key-value contract the stores are built on.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// kvStore maps Settings onto two keys. Keys that were never written fall
// back to Defaults.
type kvStore struct {
	kv       KV
	defaults Settings
}

func (s *kvStore) Load(ctx context.Context) (Settings, error) {
	out := s.defaults
	if v, ok, err := s.kv.Get(ctx, KeyEndpointURL); err != nil {
		return Settings{}, err
	} else if ok && strings.TrimSpace(v) != "" {
		out.EndpointURL = v
	}
	if v, ok, err := s.kv.Get(ctx, KeyPrompt); err != nil {
		return Settings{}, err
	} else if ok {
		out.Prompt = v
	}
	return out, nil
}

func (s *kvStore) Save(ctx context.Context, st Settings) error {
	if err := s.kv.Set(ctx, KeyEndpointURL, strings.TrimSpace(st.EndpointURL)); err != nil {
		return err
	}
	return s.kv.Set(ctx, KeyPrompt, st.Prompt)
}
