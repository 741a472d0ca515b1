package migration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/merchpulse/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add punch device", "add_punch_device"},
		{"Add-Punch-Device", "add_punch_device"},
		{"ADD_PUNCH_DEVICE", "add_punch_device"},
		{"add__punch__device", "add_punch_device"},
		{"Add Index 2", "add_index_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- test\n"), 0o644))
}

func TestCreateMigration(t *testing.T) {
	t.Run("first migration in an empty directory", func(t *testing.T) {
		dir := t.TempDir()

		mf, err := CreateMigration(dir, "create employees", "Employee roster", createdAt)
		require.NoError(t, err)

		assert.Equal(t, uint(1), mf.Version)
		assert.Equal(t, filepath.Join(dir, "000001_create_employees.up.sql"), mf.UpPath)
		assert.Equal(t, filepath.Join(dir, "000001_create_employees.down.sql"), mf.DownPath)

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "-- Migration: create_employees")
		assert.Contains(t, string(up), "-- Description: Employee roster")
		assert.Contains(t, string(up), "2024-05-06T09:30:00Z")

		down, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "(Rollback)")
	})

	t.Run("continues after the highest version", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "000001_create_employees.up.sql")
		writeFile(t, dir, "000001_create_employees.down.sql")
		writeFile(t, dir, "000007_add_index.up.sql")
		writeFile(t, dir, "000007_add_index.down.sql")

		mf, err := CreateMigration(dir, "add punch device", "", createdAt)
		require.NoError(t, err)
		assert.Equal(t, uint(8), mf.Version)
		assert.Equal(t, "000008_add_punch_device.up.sql", filepath.Base(mf.UpPath))
	})

	t.Run("creates the directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "migrations")

		_, err := CreateMigration(dir, "init", "", createdAt)
		require.NoError(t, err)
		assert.DirExists(t, dir)
	})

	t.Run("rejects an unusable name", func(t *testing.T) {
		_, err := CreateMigration(t.TempDir(), "!!!", "", createdAt)
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("orders by version and reports missing halves", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "000010_late.up.sql")
		writeFile(t, dir, "000002_second.up.sql")
		writeFile(t, dir, "000002_second.down.sql")
		writeFile(t, dir, "000001_first.up.sql")
		writeFile(t, dir, "000001_first.down.sql")
		writeFile(t, dir, "README.md")
		writeFile(t, dir, "notes.sql")
		require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o755))

		list, err := ListMigrations(dir)
		require.NoError(t, err)
		require.Len(t, list, 3)

		assert.Equal(t, "000001_first", list[0].BaseName())
		assert.Equal(t, "000002_second", list[1].BaseName())
		assert.Equal(t, uint(10), list[2].Version)
		assert.True(t, list[2].HasUp)
		assert.False(t, list[2].HasDown)
	})

	t.Run("conflicting names for one version", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "000001_first.up.sql")
		writeFile(t, dir, "000001_other.up.sql")

		_, err := ListMigrations(dir)
		assert.Error(t, err)
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		list, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestEmbeddedSchema(t *testing.T) {
	list, err := ListMigrationsFS(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, list)

	for i, m := range list {
		assert.Equal(t, uint(i+1), m.Version, "versions are contiguous")
		assert.True(t, m.HasUp, m.BaseName())
		assert.True(t, m.HasDown, m.BaseName())
	}
	assert.Equal(t, "create_employees", list[0].Name)
}
