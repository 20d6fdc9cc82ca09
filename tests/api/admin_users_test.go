package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/chitty/tests/common"
)

// TestAdminListUsers verifies the admin user listing over the wire,
// including the count and the absence of credential material.
func TestAdminListUsers(t *testing.T) {
	env := common.NewEnv(t)
	defer env.Cleanup()

	registerUser(t, env, "meena", "s3cret-pass", "admin")
	registerUser(t, env, "arun", "other-pass", "")
	registerUser(t, env, "priya", "third-pass", "")

	token := loginUser(t, env, "meena", "s3cret-pass")

	resp, err := env.HTTPRequest(http.MethodGet, "/api/admin/users", nil, authHeaders(token))
	require.NoError(t, err)
	defer resp.Body.Close()

	body := readBody(t, resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode, "list users: %s", string(body))

	data := decodeEnvelope(t, body)
	assert.Equal(t, float64(3), data["count"])

	users, ok := data["users"].([]interface{})
	require.True(t, ok)
	require.Len(t, users, 3)

	assert.NotContains(t, string(body), "password_hash")
	assert.NotContains(t, string(body), "$2a$", "bcrypt hashes must never leave the server")
}

// TestAdminRecalculate marks stale funds across users and reports the count.
func TestAdminRecalculate(t *testing.T) {
	env := common.NewEnv(t)
	defer env.Cleanup()

	registerUser(t, env, "meena", "s3cret-pass", "admin")
	token := loginUser(t, env, "meena", "s3cret-pass")

	fundID := createFund(t, env, "Stale Chit", 100000, 5000, 20, "2024-01")

	// Creation marks the fund dirty; clear the flag so the sweep below has
	// something observable to do.
	ctx := context.Background()
	store := env.App().Storage.FundStore()
	fund, err := store.GetFund(ctx, "default", fundID)
	require.NoError(t, err)
	require.NotNil(t, fund)

	cleared, err := store.ClearNeedsRecalc(ctx, "default", fundID, fund.LastActivityAt)
	require.NoError(t, err)
	require.True(t, cleared)

	resp, err := env.HTTPRequest(http.MethodPost, "/api/admin/recalculate", nil, authHeaders(token))
	require.NoError(t, err)
	defer resp.Body.Close()

	body := readBody(t, resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode, "recalculate: %s", string(body))

	data := decodeEnvelope(t, body)
	assert.Equal(t, float64(1), data["marked_funds"])
	assert.Equal(t, float64(0), data["failed"])

	// The fund is dirty again
	fund, err = store.GetFund(ctx, "default", fundID)
	require.NoError(t, err)
	require.NotNil(t, fund)
	assert.True(t, fund.NeedsRecalc)
}

func TestAdminRecalculate_RequiresAdmin(t *testing.T) {
	env := common.NewEnv(t)
	defer env.Cleanup()

	registerUser(t, env, "arun", "other-pass", "")
	token := loginUser(t, env, "arun", "other-pass")

	resp, err := env.HTTPRequest(http.MethodPost, "/api/admin/recalculate", nil, authHeaders(token))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
