package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatError(t *testing.T) {
	got := FormatError(ImportError, "loading recipients", errors.New("missing column \"template\""))
	assert.Equal(t, `Import error: loading recipients - missing column "template"`, got)
}

func TestFormatErrorf(t *testing.T) {
	got := FormatErrorf(ProfileError, "saving profile", "profile %q has no %s", "work", "password")
	assert.Equal(t, `Profile error: saving profile - profile "work" has no password`, got)
}
