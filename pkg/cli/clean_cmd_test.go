package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean_DefaultRecipe(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "messy.csv")
	out := filepath.Join(dir, "clean.csv")
	require.NoError(t, os.WriteFile(in, []byte("name,age\nAlice,30\nAlice,30\n  Bob ,25\n"), 0o644))

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"clean", in, "--out", out})
	require.NoError(t, rootCmd.Execute())

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3) // header + 2 unique rows
	assert.Contains(t, string(raw), "Bob")
	assert.NotContains(t, string(raw), "  Bob ")
}

func TestClean_ExplicitRecipes(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "data.csv")
	out := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(in, []byte("city\nOslo\nOslo\nBergen\n"), 0o644))

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"clean", in, "--recipe", "drop_duplicates", "--recipe", "lowercase_text", "--out", out})
	require.NoError(t, rootCmd.Execute())

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "oslo")
	assert.Equal(t, 1, strings.Count(string(raw), "oslo"))
}

func TestClean_UnknownRecipe(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(in, []byte("a\n1\n"), 0o644))

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"clean", in, "--recipe", "nope"})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transformation")
}

func TestClean_MissingFile(t *testing.T) {
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"clean", filepath.Join(t.TempDir(), "absent.csv")})

	require.Error(t, rootCmd.Execute())
}
