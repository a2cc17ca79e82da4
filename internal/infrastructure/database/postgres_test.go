package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_FindsOrderedMigrations(t *testing.T) {
	found, err := Source().FindMigrations()
	require.NoError(t, err)
	require.Len(t, found, 5)

	assert.Equal(t, "001_create_users.sql", found[0].Id)
	assert.Equal(t, "004_create_token_usage.sql", found[3].Id)
	assert.Equal(t, "005_create_company_files.sql", found[4].Id)
	for _, m := range found {
		assert.NotEmpty(t, m.Up, m.Id)
		assert.NotEmpty(t, m.Down, m.Id)
	}

	var meetings string
	for _, stmt := range found[2].Up {
		meetings += stmt
	}
	assert.True(t, strings.Contains(meetings, "meeting_diagnostics"))
	assert.True(t, strings.Contains(meetings, "logged_at"))
}
