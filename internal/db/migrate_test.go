package db

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesAreOrderedAndNamed(t *testing.T) {
	files, err := MigrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)

	pattern := regexp.MustCompile(`^\d{4}_[a-z0-9_]+\.up\.sql$`)
	for i, name := range files {
		assert.Regexp(t, pattern, name)
		if i > 0 {
			assert.Less(t, files[i-1], name)
		}
	}
}

func TestInitMigrationHasActiveRosterIndex(t *testing.T) {
	contents, err := migrationFS.ReadFile("migrations/0001_init.up.sql")
	require.NoError(t, err)

	sql := string(contents)
	for _, table := range []string{"users", "project", "join_requests", "team_member", "alerts"} {
		assert.True(t, strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+table+" "), table)
	}
	assert.Contains(t, sql, "uq_team_member_active")
	assert.Contains(t, sql, "WHERE del_yn = 'N'")
}

func TestChannelMigrationCreatesTables(t *testing.T) {
	contents, err := migrationFS.ReadFile("migrations/0002_channel_ask.up.sql")
	require.NoError(t, err)

	sql := string(contents)
	for _, table := range []string{"project_channel", "ask"} {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}
