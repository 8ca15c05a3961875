package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsOrdered(t *testing.T) {
	ms, err := loadMigrations()
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, 1, ms[0].version)
	assert.Equal(t, 2, ms[1].version)
	assert.Contains(t, ms[0].sql, "CREATE TABLE IF NOT EXISTS terminals")
	assert.Contains(t, ms[1].sql, "login_attempts")
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("0010_add_index.sql")
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	_, err = parseVersion("noversion.sql")
	assert.Error(t, err)
	_, err = parseVersion("abc_name.sql")
	assert.Error(t, err)
}
