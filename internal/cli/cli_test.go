package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iquiquesec/ciberseguridad/internal/features"
	"github.com/iquiquesec/ciberseguridad/internal/service"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListAndSetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.json")

	out, err := run(t, "list", "--file", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "KEY"))
	assert.True(t, strings.HasPrefix(lines[1], "ransomware"))

	out, err = run(t, "set", "cloud_security", "false", "--file", path)
	require.NoError(t, err)
	assert.Equal(t, "cloud_security enabled=false\n", out)

	store, err := features.NewStore(path)
	require.NoError(t, err)
	assert.False(t, store.Enabled(context.Background(), features.KeyCloudSecurity))

	_, err = run(t, "set", "quantum", "true", "--file", path)
	assert.ErrorIs(t, err, ErrUnknownFeature)

	_, err = run(t, "set", "ransomware", "maybe", "--file", path)
	assert.Error(t, err)

	_, err = run(t, "set", "ransomware", "--file", path)
	assert.Error(t, err)
}

func TestHTTPClient(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/features":
			_, _ = w.Write([]byte(`{"features":{"ransomware":{"name":"Ransomware","enabled":false}}}`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/features/ransomware":
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_, _ = w.Write([]byte(`{"feature":"ransomware","enabled":true}`))
		case r.Method == http.MethodPut:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Feature not found"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL+"/", "abc")
	set, err := client.List(context.Background())
	require.NoError(t, err)
	require.Contains(t, set, "ransomware")
	assert.False(t, set["ransomware"].Enabled)
	assert.Equal(t, "Bearer abc", gotAuth)

	require.NoError(t, client.Set(context.Background(), "ransomware", true))

	err = client.Set(context.Background(), "a/b?c", true)
	assert.ErrorIs(t, err, ErrUnknownFeature)
	assert.Equal(t, "/api/v1/features/a%2Fb%3Fc", gotPath)
	assert.Equal(t, map[string]interface{}{"enabled": true}, gotBody)

	err = client.Set(context.Background(), "quantum", true)
	assert.ErrorIs(t, err, ErrUnknownFeature)

	out, err := run(t, "list", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Ransomware")
}

func TestErrorDetail(t *testing.T) {
	assert.Equal(t, "Missing 'enabled' in request body", errorDetail([]byte(`{"detail":"Missing 'enabled' in request body"}`)))
	assert.Equal(t, "Unauthorized", errorDetail([]byte(`{"error":{"message":"Unauthorized"},"timestamp":"","version":"1.0.0"}`)))
	assert.Equal(t, "plain", errorDetail([]byte("plain\n")))
}

func TestTokenCommand(t *testing.T) {
	out, err := run(t, "token", "--secret", "s3cret", "--subject", "ops")
	require.NoError(t, err)

	claims, err := service.NewAuthService("s3cret").ValidateAdminToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)

	refreshed, err := run(t, "token", "--secret", "s3cret", "--refresh", strings.TrimSpace(out))
	require.NoError(t, err)
	claims, err = service.NewAuthService("s3cret").ValidateAdminToken(strings.TrimSpace(refreshed))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)

	_, err = run(t, "token", "--secret", "other", "--refresh", strings.TrimSpace(out))
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	_, err = run(t, "token")
	assert.Error(t, err)
}
