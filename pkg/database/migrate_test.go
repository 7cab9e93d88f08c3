package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrations, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	body, err := fs.ReadFile(migrations, migrationsDir+"/"+entries[0].Name())
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "-- +goose Up"))
	assert.True(t, strings.Contains(string(body), "-- +goose Down"))
	assert.Contains(t, string(body), "verification_token_consumed")
}

func TestMigrateRejectsUnknownCommand(t *testing.T) {
	err := Migrate(t.Context(), nil, "redo-everything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migrate command")
}
