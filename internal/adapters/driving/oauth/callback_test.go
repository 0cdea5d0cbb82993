//nolint:noctx // Test file uses http.Get for convenience; context not required in tests
package oauth

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, state string) *CallbackServer {
	t.Helper()

	server := NewCallbackServer(0, state)
	require.NoError(t, server.Start())
	t.Cleanup(func() {
		_ = server.Stop()
	})
	return server
}

func callbackURL(server *CallbackServer, query url.Values) string {
	return fmt.Sprintf("http://127.0.0.1:%d/callback?%s", server.Port(), query.Encode())
}

func TestCallbackServer_ReceivesCode(t *testing.T) {
	server := startServer(t, "expected-state")

	resp, err := http.Get(callbackURL(server, url.Values{
		"state": {"expected-state"},
		"code":  {"auth-code-42"},
	}))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	code, err := server.WaitForCode(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "auth-code-42", code)
}

func TestCallbackServer_StateMismatch(t *testing.T) {
	server := startServer(t, "expected-state")

	resp, err := http.Get(callbackURL(server, url.Values{
		"state": {"wrong-state"},
		"code":  {"auth-code"},
	}))
	require.NoError(t, err)
	defer resp.Body.Close()

	_, err = server.WaitForCode(2 * time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state mismatch")
}

func TestCallbackServer_ProviderError(t *testing.T) {
	server := startServer(t, "expected-state")

	resp, err := http.Get(callbackURL(server, url.Values{
		"error":             {"access_denied"},
		"error_description": {"user declined"},
	}))
	require.NoError(t, err)
	defer resp.Body.Close()

	_, err = server.WaitForCode(2 * time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
}

func TestCallbackServer_MissingCode(t *testing.T) {
	server := startServer(t, "expected-state")

	resp, err := http.Get(callbackURL(server, url.Values{
		"state": {"expected-state"},
	}))
	require.NoError(t, err)
	defer resp.Body.Close()

	_, err = server.WaitForCode(2 * time.Second)
	require.Error(t, err)
}

func TestCallbackServer_WaitTimeout(t *testing.T) {
	server := startServer(t, "expected-state")

	_, err := server.WaitForCode(50 * time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestCallbackServer_RandomPort(t *testing.T) {
	server := startServer(t, "state")

	assert.NotZero(t, server.Port())
	assert.Equal(t,
		fmt.Sprintf("http://localhost:%d/callback", server.Port()),
		server.RedirectURI())
}

func TestCallbackServer_SecondRedirectIgnored(t *testing.T) {
	server := startServer(t, "expected-state")

	for _, code := range []string{"first", "second"} {
		resp, err := http.Get(callbackURL(server, url.Values{
			"state": {"expected-state"},
			"code":  {code},
		}))
		require.NoError(t, err)
		resp.Body.Close()
	}

	code, err := server.WaitForCode(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", code)
}

func TestGenerateState(t *testing.T) {
	state := GenerateState()
	assert.NotEmpty(t, state)
	assert.NotEqual(t, state, GenerateState())
}
