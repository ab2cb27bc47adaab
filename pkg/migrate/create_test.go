package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateSQLMigrationRefusesDuplicates(t *testing.T) {
	dir := t.TempDir()
	fixed := func() time.Time { return time.Date(2026, 3, 9, 23, 59, 1, 0, time.FixedZone("PST", -8*3600)) }

	path, err := createSQLMigration(dir, "Add Index", fixed)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20260310075901_add_index.sql"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(body), "-- +goose Up"))
	require.Contains(t, string(body), "-- rollback add_index")

	_, err = createSQLMigration(dir, "add index", fixed)
	require.ErrorContains(t, err, "already exists")
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "add_order_notes", slugify("  Add Order-Notes! "))
	require.Equal(t, "", slugify("!!!"))
}
