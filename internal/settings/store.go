package settings

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"git.sr.ht/~jakintosh/loginhandler/internal/identity"
	"git.sr.ht/~jakintosh/loginhandler/pkg/tokens"
)

// Store hands out the current Settings snapshot. Readers never block;
// a reload swaps the snapshot atomically and only if the new settings
// pass Check.
type Store struct {
	path    string
	current atomic.Pointer[Settings]
}

// NewStore loads settings from path and refuses incomplete settings.
func NewStore(path string) (*Store, error) {
	settings, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := settings.Check(); err != nil {
		return nil, err
	}
	s := &Store{path: path}
	if path != "" {
		s.path = filepath.Clean(path)
	}
	s.current.Store(settings)
	return s, nil
}

// NewStaticStore wraps settings that never reload.
func NewStaticStore(settings *Settings) *Store {
	s := &Store{}
	s.current.Store(settings)
	return s
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Current() *Settings {
	return s.current.Load()
}

// Endpoint implements identity.EndpointSource.
func (s *Store) Endpoint() identity.Endpoint {
	return s.Current().Endpoint()
}

// Reload re-reads the settings file. On failure the previous snapshot
// stays in place and the error is returned.
func (s *Store) Reload() error {
	settings, err := Load(s.path)
	if err != nil {
		return err
	}
	if err := settings.Check(); err != nil {
		return err
	}
	s.current.Store(settings)
	return nil
}

// Watch reloads the store whenever its file changes, until ctx is done.
// A store without a file has nothing to watch and returns immediately.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	return watchFile(ctx, s.path, func() {
		if err := s.Reload(); err != nil {
			log.Error().Err(err).Str("path", s.path).Msg("settings reload failed, keeping previous settings")
			return
		}
		log.Info().Str("path", s.path).Msg("settings reloaded")
	})
}

// SigningConfig returns the session signing values of the current snapshot.
func (s *Store) SigningConfig() tokens.SigningConfig {
	return s.Current().SigningConfig()
}
