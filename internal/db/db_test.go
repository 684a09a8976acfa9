package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenForTesting(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	var tableName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='bookmarks'").Scan(&tableName)
	require.NoError(t, err)
	assert.Equal(t, "bookmarks", tableName)
}

func TestOpenForTestingIsolated(t *testing.T) {
	first, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Close() })

	second, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	_, err = first.Exec("INSERT INTO bookmarks (name) VALUES ('only in first')")
	require.NoError(t, err)

	var count int
	require.NoError(t, second.QueryRow("SELECT COUNT(*) FROM bookmarks").Scan(&count))
	assert.Zero(t, count)
}

func TestOpenFileReappliesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "placebook.db")

	db, err := Open(path)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO bookmarks (name) VALUES ('kept')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening must not re-run the create migration.
	db, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	var name string
	require.NoError(t, db.QueryRow("SELECT name FROM bookmarks").Scan(&name))
	assert.Equal(t, "kept", name)
}

func TestAutoincrementNeverReusesIDs(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	res, err := db.Exec("INSERT INTO bookmarks (name) VALUES ('a')")
	require.NoError(t, err)
	first, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM bookmarks WHERE id = ?", first)
	require.NoError(t, err)

	res, err = db.Exec("INSERT INTO bookmarks (name) VALUES ('b')")
	require.NoError(t, err)
	second, err := res.LastInsertId()
	require.NoError(t, err)

	assert.Greater(t, second, first)
}

func TestChangeVersionFollowsWrites(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	version := func() int64 {
		var v int64
		require.NoError(t, db.QueryRow("SELECT version FROM bookmark_changes WHERE id = 1").Scan(&v))
		return v
	}

	assert.Equal(t, int64(0), version())

	_, err = db.Exec("INSERT INTO bookmarks (name) VALUES ('a')")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version())

	_, err = db.Exec("UPDATE bookmarks SET notes = 'n'")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version())

	_, err = db.Exec("DELETE FROM bookmarks")
	require.NoError(t, err)
	assert.Equal(t, int64(3), version())
}
