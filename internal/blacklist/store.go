// Package blacklist keeps the addresses that must never be mailed, split into
// three fixed categories.
package blacklist

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ryan-gang/mailqueue/internal/fileutil"
)

type Category string

const (
	Unsubscribed Category = "unsubscribed"
	FullMailbox  Category = "full_mailbox"
	Nonexistent  Category = "nonexistent"
)

// Categories is the fixed, ordered set of categories.
var Categories = []Category{Unsubscribed, FullMailbox, Nonexistent}

var (
	ErrUnknownCategory = errors.New("unknown blacklist category")
	ErrNotListed       = errors.New("address is not blacklisted")
	ErrEmptyAddress    = errors.New("address is empty")
	ErrUnknownPolicy   = errors.New("unknown match policy")
)

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == strings.TrimSpace(s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want one of %s)", ErrUnknownCategory, s, categoryNames())
}

func categoryNames() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// MatchPolicy decides whether a listed entry blocks a recipient.
type MatchPolicy int

const (
	// MatchExact blocks a recipient equal to an entry, ignoring case and
	// surrounding space.
	MatchExact MatchPolicy = iota
	// MatchSubstring blocks a recipient that contains an entry, so that
	// "@example.org" blocks a whole domain.
	MatchSubstring
)

func ParsePolicy(s string) (MatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return MatchExact, nil
	case "substring":
		return MatchSubstring, nil
	}
	return MatchExact, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

func (p MatchPolicy) String() string {
	if p == MatchSubstring {
		return "substring"
	}
	return "exact"
}

func (p MatchPolicy) matches(entry, recipient string) bool {
	if entry == "" {
		return false
	}
	if p == MatchSubstring {
		return strings.Contains(recipient, entry)
	}
	return entry == recipient
}

func normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// Store is the persisted blacklist. Every mutation is written to disk before
// it becomes visible.
type Store struct {
	mu      sync.RWMutex
	path    string
	policy  MatchPolicy
	entries map[Category][]string
}

// Open loads the blacklist at path. A missing file yields empty categories;
// unknown categories in the file are dropped.
func Open(path string, policy MatchPolicy) (*Store, error) {
	raw := make(map[string][]string)
	if _, err := fileutil.ReadJSON(path, &raw); err != nil {
		return nil, fmt.Errorf("failed to load blacklist: %w", err)
	}

	s := &Store{path: path, policy: policy, entries: emptyEntries()}
	for _, c := range Categories {
		for _, addr := range raw[string(c)] {
			if addr = strings.TrimSpace(addr); addr != "" && !contains(s.entries[c], addr) {
				s.entries[c] = append(s.entries[c], addr)
			}
		}
	}
	return s, nil
}

func emptyEntries() map[Category][]string {
	m := make(map[Category][]string, len(Categories))
	for _, c := range Categories {
		m[c] = []string{}
	}
	return m
}

func contains(list []string, addr string) bool {
	for _, a := range list {
		if normalize(a) == normalize(addr) {
			return true
		}
	}
	return false
}

func (s *Store) Policy() MatchPolicy {
	return s.policy
}

// Add lists addr under c. Adding an address already present is a no-op and
// reports added=false.
func (s *Store) Add(c Category, addr string) (added bool, err error) {
	if _, err := ParseCategory(string(c)); err != nil {
		return false, err
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return false, ErrEmptyAddress
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if contains(s.entries[c], addr) {
		return false, nil
	}
	next := s.copyLocked()
	next[c] = append(next[c], addr)
	if err := s.persist(next); err != nil {
		return false, err
	}
	s.entries = next
	return true, nil
}

func (s *Store) Remove(c Category, addr string) error {
	if _, err := ParseCategory(string(c)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyLocked()
	kept := next[c][:0]
	found := false
	for _, a := range next[c] {
		if normalize(a) == normalize(addr) {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return fmt.Errorf("%w: %s in %s", ErrNotListed, addr, c)
	}
	next[c] = kept
	if err := s.persist(next); err != nil {
		return err
	}
	s.entries = next
	return nil
}

// List returns a copy of the addresses in c, in insertion order.
func (s *Store) List(c Category) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.entries[c]...)
}

// Match returns the first category blocking recipient under the store's
// policy.
func (s *Store) Match(recipient string) (Category, bool) {
	r := normalize(recipient)
	if r == "" {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range Categories {
		for _, entry := range s.entries[c] {
			if s.policy.matches(normalize(entry), r) {
				return c, true
			}
		}
	}
	return "", false
}

func (s *Store) Contains(recipient string) bool {
	_, ok := s.Match(recipient)
	return ok
}

func (s *Store) copyLocked() map[Category][]string {
	next := make(map[Category][]string, len(s.entries))
	for c, list := range s.entries {
		next[c] = append([]string{}, list...)
	}
	return next
}

func (s *Store) persist(entries map[Category][]string) error {
	out := make(map[string][]string, len(entries))
	for c, list := range entries {
		out[string(c)] = list
	}
	if err := fileutil.WriteJSON(s.path, out, 0644); err != nil {
		return fmt.Errorf("failed to save blacklist: %w", err)
	}
	return nil
}
