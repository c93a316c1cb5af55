package pdfcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_MissingFile(t *testing.T) {
	err := Validate(filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payload missing")
}

func TestValidate_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o644))

	err := Validate(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid PDF")
}
