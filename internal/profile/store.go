// Package profile persists named SMTP credential sets.
package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ryan-gang/mailqueue/internal/fileutil"
)

var (
	ErrIncompleteProfile = errors.New("all profile fields are required")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrNoActiveProfile   = errors.New("no active profile")
)

// Profile holds one set of SMTP credentials. Passwords are stored in plain
// text; the file is written with 0600 permissions.
type Profile struct {
	Name     string `json:"name"`
	Server   string `json:"server"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate lists every missing or out-of-range field.
func (p Profile) Validate() error {
	missing := make([]string, 0, 5)
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(p.Server) == "" {
		missing = append(missing, "server")
	}
	if p.Port <= 0 || p.Port > 65535 {
		missing = append(missing, "port")
	}
	if strings.TrimSpace(p.Username) == "" {
		missing = append(missing, "username")
	}
	if p.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteProfile, strings.Join(missing, ", "))
	}
	return nil
}

func (p Profile) Address() string {
	return fmt.Sprintf("%s:%d", p.Server, p.Port)
}

// Store is a flat name -> profile mapping backed by a JSON file.
type Store struct {
	mu       sync.RWMutex
	path     string
	profiles map[string]Profile
}

// Open loads the store at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, profiles: make(map[string]Profile)}
	if _, err := fileutil.ReadJSON(path, &s.profiles); err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	if s.profiles == nil {
		s.profiles = make(map[string]Profile)
	}
	for name, p := range s.profiles {
		p.Name = name
		s.profiles[name] = p
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// Save validates p and persists it, replacing any profile with the same
// name. An invalid profile leaves both memory and disk untouched.
func (s *Store) Save(p Profile) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Server = strings.TrimSpace(p.Server)
	p.Username = strings.TrimSpace(p.Username)
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyLocked()
	next[p.Name] = p
	if err := fileutil.WriteJSON(s.path, next, 0600); err != nil {
		return fmt.Errorf("failed to save profiles: %w", err)
	}
	s.profiles = next
	return nil
}

func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	next := s.copyLocked()
	delete(next, name)
	if err := fileutil.WriteJSON(s.path, next, 0600); err != nil {
		return fmt.Errorf("failed to save profiles: %w", err)
	}
	s.profiles = next
	return nil
}

func (s *Store) Get(name string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return p, nil
}

// List returns the profiles sorted by name.
func (s *Store) List() []Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Active picks the profile to send with: the explicit name if given, else
// the configured default, else the only stored profile.
func (s *Store) Active(explicit, configured string) (Profile, error) {
	for _, name := range []string{explicit, configured} {
		if name != "" {
			return s.Get(name)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.profiles) == 1 {
		for _, p := range s.profiles {
			return p, nil
		}
	}
	if len(s.profiles) == 0 {
		return Profile{}, fmt.Errorf("%w: no profiles saved", ErrNoActiveProfile)
	}
	return Profile{}, fmt.Errorf("%w: %d profiles saved, pick one with --profile or 'profile use'", ErrNoActiveProfile, len(s.profiles))
}

func (s *Store) copyLocked() map[string]Profile {
	next := make(map[string]Profile, len(s.profiles)+1)
	for k, v := range s.profiles {
		next[k] = v
	}
	return next
}
