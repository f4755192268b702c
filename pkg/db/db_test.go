package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectRejectsUnknownType(t *testing.T) {
	_, err := Dialect(Config{Type: "oracle"})
	require.Error(t, err)
}

func TestDialectNames(t *testing.T) {
	for _, typ := range []string{"mysql", "postgres"} {
		d, err := Dialect(Config{Type: typ, Host: "h", Port: "1", Name: "n", User: "u"})
		require.NoError(t, err)
		assert.Equal(t, typ, d.Name())
	}
}

func TestSQLitePathPrefersExplicit(t *testing.T) {
	p, err := Config{Path: "/tmp/x.db"}.SQLitePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", p)
}

func TestOpenInMemorySQLite(t *testing.T) {
	conn, err := Open(Config{Name: "test", MaxOpenConn: 1}, sqlite.Open("file::memory:"), nil)
	require.NoError(t, err)

	var one int
	require.NoError(t, conn.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}
