package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/skillmatch-auth/internal/config"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"serve", "migrate"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	configFile = ""

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"--config=/etc/skillmatch.yaml", "--help"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "/etc/skillmatch.yaml", configFile)
}

func TestMigrateCommand_SQLite(t *testing.T) {
	configFile = ""
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"migrate", "--database-path", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Migrations completed successfully")
}

func TestServeCommand_RejectsInvalidConfig(t *testing.T) {
	configFile = ""
	t.Setenv("JWT_SECRET", "")

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"serve", "--jwt-secret", "too-short"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt-secret")
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--database-path", filepath.Join(t.TempDir(), "app.db"),
		"--jwt-secret", strings.Repeat("s", 32),
		"--bcrypt-cost", "4",
	}))

	cfg, err := config.Load(fs, "")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestApp_RegisterAndIntrospect(t *testing.T) {
	a := newTestApp(t)
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	body := `{"name":"Ada","email":"ada@example.com","password":"secret1","role":"student"}`
	resp, err := http.Post(srv.URL+"/api/auth/register", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var reg struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))
	require.NotEmpty(t, reg.Data.Token)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+reg.Data.Token)

	me, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer me.Body.Close()
	assert.Equal(t, http.StatusOK, me.StatusCode)
	assert.NotEmpty(t, me.Header.Get("X-Request-ID"))
}

func TestApp_Readyz(t *testing.T) {
	a := newTestApp(t)

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
