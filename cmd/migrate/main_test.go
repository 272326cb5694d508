package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "001_a.down.sql", "002_b.down.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}

	up, down, err := migrationFiles(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "001_a.sql"), filepath.Join(dir, "002_b.sql")}, up)
	assert.Equal(t, []string{filepath.Join(dir, "002_b.down.sql"), filepath.Join(dir, "001_a.down.sql")}, down)
}

func TestMigrationFiles_Empty(t *testing.T) {
	_, _, err := migrationFiles(t.TempDir())
	assert.Error(t, err)
}

func TestMigrationFiles_Repo(t *testing.T) {
	up, _, err := migrationFiles(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	assert.Contains(t, up, filepath.Join("..", "..", "migrations", "001_footprints.sql"))
}
