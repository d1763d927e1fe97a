package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/soyeahso/hubrelay/internal/config"
	"github.com/soyeahso/hubrelay/internal/domain"
	"github.com/soyeahso/hubrelay/internal/logging"
	"github.com/soyeahso/hubrelay/internal/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "chat", "status", "config", "version"} {
		assert.Contains(t, names, want)
	}

	cfgCmd, _, err := root.Find([]string{"config", "validate"})
	require.NoError(t, err)
	assert.Equal(t, "validate", cfgCmd.Name())
}

func TestBuildWebhookPayload(t *testing.T) {
	raw, err := buildWebhookPayload("thread-1", "v-2", "Hello there")
	require.NoError(t, err)

	env, err := domain.ParseEnvelope(raw)
	require.NoError(t, err)
	assert.True(t, domain.Accepts(env))

	conv, err := domain.ExtractContext(env)
	require.NoError(t, err)
	assert.Equal(t, domain.ConversationContext{ConversationID: "thread-1", VisitorID: "v-2", Message: "Hello there"}, conv)

	raw, err = buildWebhookPayload("thread-1", "", "Hi")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "visitorId")
}

func TestSendWebhook_SignsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !signature.Verify(body, r.Header.Get(signature.Header), "s3cret") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}))
	defer srv.Close()

	raw, err := buildWebhookPayload("thread-1", "", "Hi")
	require.NoError(t, err)

	assert.NoError(t, sendWebhook(context.Background(), srv.URL, raw, "s3cret"))

	err = sendWebhook(context.Background(), srv.URL, raw, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestBuildStack(t *testing.T) {
	cfg := config.Defaults()
	cfg.Metrics.Enabled = false
	st, err := buildStack(cfg, logging.New(nil, "silent"))
	require.NoError(t, err)
	assert.NotNil(t, st.pipeline)
	assert.Equal(t, "closed", st.generator.BreakerState())

	cfg.AI.Provider = "bogus"
	_, err = buildStack(cfg, logging.New(nil, "silent"))
	assert.Error(t, err)
}

// runCLI executes the root command against an isolated hubrelay home.
func runCLI(t *testing.T, home string, args ...string) error {
	t.Helper()
	t.Setenv("HUBRELAY_HOME", home)
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func TestConfigSet_WritesTypedValues(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HUBRELAY_PORT", "")
	t.Setenv("HUBSPOT_PORTAL_ID", "")

	require.NoError(t, runCLI(t, home, "config", "set", "server.port", "8080"))
	require.NoError(t, runCLI(t, home, "config", "set", "ai.temperature", "0.3"))
	require.NoError(t, runCLI(t, home, "config", "set", "hubspot.portalId", "4411"))
	require.NoError(t, runCLI(t, home, "config", "set", "server.allowedOrigins", "https://a.example,https://b.example"))

	cfg, err := config.Load(filepath.Join(home, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	require.NotNil(t, cfg.AI.Temperature)
	assert.InDelta(t, 0.3, *cfg.AI.Temperature, 1e-9)
	assert.Equal(t, "4411", cfg.HubSpot.PortalID)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestConfigSet_Rejects(t *testing.T) {
	home := t.TempDir()

	tests := map[string][]string{
		"unknown key":      {"server.prot", "8080"},
		"wrong type":       {"server.port", "eighty"},
		"failed check":     {"server.port", "70000"},
		"bad provider":     {"ai.provider", "gemini"},
		"section as value": {"ai", "claude"},
	}
	for name, kv := range tests {
		assert.Error(t, runCLI(t, home, "config", "set", kv[0], kv[1]), name)
	}

	_, err := os.Stat(filepath.Join(home, "config.yaml"))
	assert.True(t, os.IsNotExist(err), "rejected values must not create the config file")
}

func TestConfigUnset(t *testing.T) {
	home := t.TempDir()

	require.NoError(t, runCLI(t, home, "config", "set", "ai.model", "gpt-4o"))
	require.NoError(t, runCLI(t, home, "config", "unset", "ai.model"))
	assert.Error(t, runCLI(t, home, "config", "unset", "ai.model"))

	raw, err := config.LoadRaw(filepath.Join(home, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ai": map[string]any{}}, raw)
}

func TestConfigGet(t *testing.T) {
	home := t.TempDir()

	require.NoError(t, runCLI(t, home, "config", "set", "hubspot.accessToken", "pat-na1-0123456789"))
	assert.NoError(t, runCLI(t, home, "config", "get", "hubspot"))
	assert.NoError(t, runCLI(t, home, "config", "get", "hubspot.accessToken", "--reveal"))
	assert.Error(t, runCLI(t, home, "config", "get", "hubspot.portalId"))
	assert.Error(t, runCLI(t, home, "config", "get", "hubspot.portal"))
}

func TestConfigValidate(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, runCLI(t, home, "config", "validate"))

	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("server:\n  prot: 8080\n"), 0o600))
	assert.Error(t, runCLI(t, home, "config", "validate"))
}

func TestSetOrMissing(t *testing.T) {
	assert.Equal(t, "set", setOrMissing("x"))
	assert.Equal(t, "missing", setOrMissing(""))
	assert.Equal(t, "(none)", orNone(""))
	assert.Equal(t, "123", orNone("123"))
}

func TestHubspotSummary(t *testing.T) {
	hs := config.HubSpotConfig{BaseURL: "https://api.hubapi.com", PortalID: "4411", ChatflowID: "cf-7"}
	assert.Equal(t, "api=https://api.hubapi.com portal=4411 chatflow=cf-7", hubspotSummary(hs))

	hs.ChatflowID = ""
	assert.Equal(t, "api=https://api.hubapi.com portal=4411 chatflow=(none)", hubspotSummary(hs))
}
