package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCommandsDoNotNeedDatabase(t *testing.T) {
	assert.False(t, commands["create"].needsDB)
	assert.False(t, commands["validate"].needsDB)
	assert.True(t, commands["up"].needsDB)
	assert.True(t, commands["version"].needsDB)
}

func TestCreateThenValidate(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	msg, err := commands["create"].run(ctx, nil, options{dir: dir, name: "add returns table"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg, "created migration: "))
	assert.Contains(t, msg, "_add_returns_table.sql")

	msg, err = commands["validate"].run(ctx, nil, options{dir: dir})
	require.NoError(t, err)
	assert.Equal(t, "migration validation passed", msg)
}

func TestCommandArgumentErrors(t *testing.T) {
	ctx := context.Background()
	_, err := commands["create"].run(ctx, nil, options{dir: t.TempDir()})
	assert.EqualError(t, err, "missing -name")

	_, err = commands["version"].run(ctx, nil, options{})
	assert.EqualError(t, err, "missing -version")

	assert.ErrorContains(t, run("sideways", options{}), "unknown command (want create|down|status|up|validate|version)")
}

func TestValidateEmbeddedByDefault(t *testing.T) {
	_, err := commands["validate"].run(context.Background(), nil, options{})
	require.NoError(t, err)
}
