package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile(name string) Profile {
	return Profile{
		Name:     name,
		Server:   "smtp.example.com",
		Port:     465,
		Username: "news@example.com",
		Password: "hunter2",
	}
}

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "profiles.json"))
	require.NoError(t, err)
	assert.Empty(t, s.List())
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestSave_PersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Save(validProfile("work")))
	require.NoError(t, s.Save(validProfile("alerts")))

	reloaded, err := Open(path)
	require.NoError(t, err)
	names := []string{}
	for _, p := range reloaded.List() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"alerts", "work"}, names)

	got, err := reloaded.Get("work")
	require.NoError(t, err)
	assert.Equal(t, validProfile("work"), got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSave_IncompleteProfileWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(validProfile("work")))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Profile)
	}{
		{"empty name", func(p *Profile) { p.Name = "  " }},
		{"empty server", func(p *Profile) { p.Server = "" }},
		{"zero port", func(p *Profile) { p.Port = 0 }},
		{"port out of range", func(p *Profile) { p.Port = 70000 }},
		{"empty username", func(p *Profile) { p.Username = "" }},
		{"empty password", func(p *Profile) { p.Password = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile("other")
			tt.mutate(&p)

			err := s.Save(p)
			require.ErrorIs(t, err, ErrIncompleteProfile)

			after, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Len(t, s.List(), 1)
		})
	}
}

func TestSave_IncompleteProfileOnFreshStoreCreatesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	s, err := Open(path)
	require.NoError(t, err)

	require.ErrorIs(t, s.Save(Profile{Name: "x"}), ErrIncompleteProfile)
	assert.NoFileExists(t, path)
}

func TestDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(validProfile("work")))

	require.NoError(t, s.Delete("work"))
	require.ErrorIs(t, s.Delete("work"), ErrProfileNotFound)

	reloaded, err := Open(path)
	require.NoError(t, err)
	assert.Empty(t, reloaded.List())
}

func TestActive(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "profiles.json"))
	require.NoError(t, err)

	_, err = s.Active("", "")
	require.ErrorIs(t, err, ErrNoActiveProfile)

	require.NoError(t, s.Save(validProfile("work")))
	p, err := s.Active("", "")
	require.NoError(t, err)
	assert.Equal(t, "work", p.Name)

	require.NoError(t, s.Save(validProfile("alerts")))
	_, err = s.Active("", "")
	require.ErrorIs(t, err, ErrNoActiveProfile)

	p, err = s.Active("", "alerts")
	require.NoError(t, err)
	assert.Equal(t, "alerts", p.Name)

	p, err = s.Active("work", "alerts")
	require.NoError(t, err)
	assert.Equal(t, "work", p.Name)

	_, err = s.Active("missing", "")
	require.ErrorIs(t, err, ErrProfileNotFound)
}
