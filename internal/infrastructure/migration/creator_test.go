package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/pharmacy/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add expiry alerts", "add_expiry_alerts"},
		{"Add-Expiry-Alerts", "add_expiry_alerts"},
		{"ADD_EXPIRY_ALERTS", "add_expiry_alerts"},
		{"add__expiry__alerts", "add_expiry_alerts"},
		{"Batch Index 2", "batch_index_2"},
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

func TestCreateMigration_NumbersAfterExisting(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"000001_create_ledger_schema.up.sql", "000001_create_ledger_schema.down.sql", "000004_x.up.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0o644))
	}

	mf, err := CreateMigration(dir, "add expiry alerts", "Track batches close to expiry")
	require.NoError(t, err)

	assert.Equal(t, "000005", mf.Version)
	assert.Equal(t, filepath.Join(dir, "000005_add_expiry_alerts.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000005_add_expiry_alerts.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add expiry alerts")
	assert.Contains(t, string(up), "Track batches close to expiry")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(nested, "first", "")
	require.NoError(t, err)
	assert.Equal(t, "000001", mf.Version)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_add_index.up.sql":              {Data: []byte("--")},
		"000002_add_index.down.sql":            {Data: []byte("--")},
		"000001_create_ledger_schema.up.sql":   {Data: []byte("--")},
		"000001_create_ledger_schema.down.sql": {Data: []byte("--")},
		"README.md":                            {Data: []byte("docs")},
		"embed.go":                             {Data: []byte("package migrations")},
		"subdir.up.sql/keep":                   {Data: []byte("")},
	}

	names, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_ledger_schema", "000002_add_index"}, names)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	names, err := ListMigrations(os.DirFS("/nonexistent/path/to/migrations"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestListMigrations_Embedded(t *testing.T) {
	names, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	assert.Contains(t, names, "000001_create_ledger_schema")
}
