package profilestore

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/idrissbellil/cryptomonitor/internal/app/port"
	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
)

// Store persists the monitoring profile as a YAML file. The profile is
// written whole and read whole; there are no partial updates.
type Store struct {
	path string
}

var _ port.ProfileStore = (*Store)(nil)

// New creates a store writing to the given path.
func New(path string) *Store {
	return &Store{path: path}
}

// Save writes the profile, creating parent directories as needed. The file is
// created with 0600 permissions since it carries exchange credentials.
func (s *Store) Save(profile entity.Profile) error {
	data, err := yaml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create profile directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile to %s: %w", s.path, err)
	}
	return nil
}

// Load reads the persisted profile. A missing file yields
// entity.ErrProfileNotFound so callers can tell the user to initialize one.
func (s *Store) Load() (entity.Profile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return entity.Profile{}, fmt.Errorf("no profile at %s: %w", s.path, entity.ErrProfileNotFound)
		}
		return entity.Profile{}, fmt.Errorf("failed to read profile from %s: %w", s.path, err)
	}

	var profile entity.Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return entity.Profile{}, fmt.Errorf("failed to unmarshal profile from %s: %w", s.path, err)
	}
	return profile, nil
}
