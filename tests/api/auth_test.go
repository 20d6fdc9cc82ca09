package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/chitty/tests/common"
)

// TestAuthWorkflow exercises register, login, token validation, and
// admin-gated access through the real middleware chain.
func TestAuthWorkflow(t *testing.T) {
	env := common.NewEnv(t)
	defer env.Cleanup()

	registerUser(t, env, "meena", "s3cret-pass", "admin")
	registerUser(t, env, "arun", "other-pass", "")

	adminToken := loginUser(t, env, "meena", "s3cret-pass")
	userToken := loginUser(t, env, "arun", "other-pass")

	t.Run("validate_token", func(t *testing.T) {
		resp, err := env.HTTPRequest(http.MethodGet, "/api/auth/validate", nil, authHeaders(adminToken))
		require.NoError(t, err)
		defer resp.Body.Close()

		body := readBody(t, resp.Body)
		require.Equal(t, http.StatusOK, resp.StatusCode, "validate: %s", string(body))

		data := decodeEnvelope(t, body)
		assert.Equal(t, true, data["valid"])
		assert.Equal(t, "meena", data["username"])
	})

	t.Run("admin_can_list_users", func(t *testing.T) {
		resp, err := env.HTTPRequest(http.MethodGet, "/api/admin/users", nil, authHeaders(adminToken))
		require.NoError(t, err)
		defer resp.Body.Close()

		body := readBody(t, resp.Body)
		require.Equal(t, http.StatusOK, resp.StatusCode, "admin list: %s", string(body))

		data := decodeEnvelope(t, body)
		assert.Equal(t, float64(2), data["count"])
		assert.NotContains(t, string(body), "password", "user listing must not leak password hashes")
	})

	t.Run("non_admin_forbidden", func(t *testing.T) {
		resp, err := env.HTTPRequest(http.MethodGet, "/api/admin/users", nil, authHeaders(userToken))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("anonymous_unauthorized", func(t *testing.T) {
		resp, err := env.HTTPGet("/api/admin/users")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestAuthLogin_WrongPassword(t *testing.T) {
	env := common.NewEnv(t)
	defer env.Cleanup()

	registerUser(t, env, "meena", "s3cret-pass", "")

	resp, err := env.HTTPPost("/api/auth/login", map[string]string{
		"username": "meena",
		"password": "wrong",
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthValidate_GarbageToken(t *testing.T) {
	env := common.NewEnv(t)
	defer env.Cleanup()

	resp, err := env.HTTPRequest(http.MethodGet, "/api/auth/validate", nil, authHeaders("not-a-jwt"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"),
		"invalid bearer tokens should get a challenge header")
}

// TestBearerIdentityWins verifies that a bearer token's identity takes
// precedence over the X-Chitty-User-ID header when both are present.
func TestBearerIdentityWins(t *testing.T) {
	env := common.NewEnv(t)
	defer env.Cleanup()

	registerUser(t, env, "meena", "s3cret-pass", "")
	token := loginUser(t, env, "meena", "s3cret-pass")

	headers := authHeaders(token)
	headers["X-Chitty-User-ID"] = "somebody-else"

	resp, err := env.HTTPRequest(http.MethodGet, "/api/config", nil, headers)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := readBody(t, resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"user_id":"meena"`)
}
