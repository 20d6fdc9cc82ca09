package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/chitty/tests/common"
)

func TestHealthEndpoint(t *testing.T) {
	env := common.NewEnv(t)
	defer env.Cleanup()

	resp, err := env.HTTPGet("/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.Unmarshal(readBody(t, resp.Body), &result))
	assert.Equal(t, "ok", result["status"])
}

func TestVersionEndpoint(t *testing.T) {
	env := common.NewEnv(t)
	defer env.Cleanup()

	resp, err := env.HTTPGet("/api/version")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.Unmarshal(readBody(t, resp.Body), &result))
	assert.Contains(t, result, "version")
	assert.Contains(t, result, "build")
	assert.Contains(t, result, "commit")
}

func TestToolCatalogEndpoint(t *testing.T) {
	env := common.NewEnv(t)
	defer env.Cleanup()

	resp, err := env.HTTPGet("/api/mcp/tools")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)

	var tools []map[string]interface{}
	require.NoError(t, json.Unmarshal(readBody(t, resp.Body), &tools))
	assert.Len(t, tools, 14)

	names := make(map[string]bool, len(tools))
	for _, tool := range tools {
		name, _ := tool["name"].(string)
		assert.NotEmpty(t, name)
		names[name] = true
	}
	assert.True(t, names["create_fund"], "catalog should list create_fund")
	assert.True(t, names["get_dashboard"], "catalog should list get_dashboard")
}

func TestConfigEndpoint_MasksSecrets(t *testing.T) {
	env := common.NewEnv(t)
	defer env.Cleanup()

	resp, err := env.HTTPGet("/api/config")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)

	body := readBody(t, resp.Body)
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &result))

	assert.Equal(t, "badger", result["storage_driver"])
	assert.NotContains(t, string(body), "dev-jwt-secret-change-in-production",
		"config endpoint must not leak the JWT secret")
}
