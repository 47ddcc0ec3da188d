package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvironmentVariables(t *testing.T) {
	t.Setenv("TRAVIGO_SQLITE_PATH", "populate.db")
	t.Setenv("TRAVIGO_REDIS_PASSWORD", "a=b")
	t.Setenv("POPULATE_OTHER", "x")

	env := GetEnvironmentVariables("TRAVIGO_")

	assert.Equal(t, "populate.db", env["TRAVIGO_SQLITE_PATH"])
	assert.Equal(t, "a=b", env["TRAVIGO_REDIS_PASSWORD"])
	assert.NotContains(t, env, "POPULATE_OTHER")

	assert.Contains(t, GetEnvironmentVariables(""), "POPULATE_OTHER")
}
