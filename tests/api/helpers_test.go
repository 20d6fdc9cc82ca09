package api

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/chitty/tests/common"
)

// readBody drains a response body and fails the test on read errors.
func readBody(t *testing.T, r io.Reader) []byte {
	t.Helper()
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	return body
}

// decodeEnvelope parses a {"status":"ok","data":{...}} response body and
// returns the data object.
func decodeEnvelope(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &result), "body: %s", string(body))
	require.Equal(t, "ok", result["status"], "body: %s", string(body))
	data, ok := result["data"].(map[string]interface{})
	require.True(t, ok, "expected data object, body: %s", string(body))
	return data
}

// createFund creates a fund over HTTP and returns its ID.
func createFund(t *testing.T, env *common.Env, name string, chitValue, installment float64, duration int, startMonth string) string {
	t.Helper()

	resp, err := env.HTTPPost("/api/funds", map[string]interface{}{
		"name":                name,
		"chit_value":          chitValue,
		"monthly_installment": installment,
		"duration_months":     duration,
		"start_month":         startMonth,
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	body := readBody(t, resp.Body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create fund: %s", string(body))

	data := decodeEnvelope(t, body)
	id, ok := data["id"].(string)
	require.True(t, ok, "expected fund id, body: %s", string(body))
	require.NotEmpty(t, id)
	return id
}

// registerUser creates a user account over HTTP.
func registerUser(t *testing.T, env *common.Env, username, password, role string) {
	t.Helper()

	payload := map[string]string{
		"username": username,
		"password": password,
	}
	if role != "" {
		payload["role"] = role
	}

	resp, err := env.HTTPPost("/api/users", payload)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := readBody(t, resp.Body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register user %s: %s", username, string(body))
}

// loginUser logs in over HTTP and returns the JWT token.
func loginUser(t *testing.T, env *common.Env, username, password string) string {
	t.Helper()

	resp, err := env.HTTPPost("/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	body := readBody(t, resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode, "login %s: %s", username, string(body))

	data := decodeEnvelope(t, body)
	token, ok := data["token"].(string)
	require.True(t, ok, "expected token in login response")
	require.NotEmpty(t, token)
	return token
}

// authHeaders builds an Authorization header map for a bearer token.
func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// userHeaders builds an X-Chitty-User-ID header map.
func userHeaders(userID string) map[string]string {
	return map[string]string{"X-Chitty-User-ID": userID}
}
