package bot

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookServer(t *testing.T, token string) (*httptest.Server, *botFixture) {
	t.Helper()
	f := newBotFixture(t)
	srv := httptest.NewServer(NewRouter(f.bot, token, nil))
	t.Cleanup(srv.Close)
	return srv, f
}

func postUpdate(t *testing.T, srv *httptest.Server, token string, upd Update) *http.Response {
	t.Helper()
	body, err := json.Marshal(upd)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/webhook", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(webhookTokenHeader, token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestWebhook_HandlesUpdate(t *testing.T) {
	srv, f := newWebhookServer(t, "")

	resp := postUpdate(t, srv, "", Update{SessionID: "u1", Text: "/link secret-key"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, f.transport.last(t).Text, "Linked as ivan")
}

func TestWebhook_RejectsBadToken(t *testing.T) {
	srv, f := newWebhookServer(t, "shared-secret")

	resp := postUpdate(t, srv, "wrong", Update{SessionID: "u1", Text: "/track"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, f.transport.count())

	resp = postUpdate(t, srv, "shared-secret", Update{SessionID: "u1", Text: "/track"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, f.transport.count())
}

func TestWebhook_RejectsMalformedBody(t *testing.T) {
	srv, _ := newWebhookServer(t, "")

	resp, err := srv.Client().Post(srv.URL+"/webhook", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebhook_MissingSessionIsServerError(t *testing.T) {
	srv, _ := newWebhookServer(t, "")

	resp := postUpdate(t, srv, "", Update{Text: "/track"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestWebhook_Healthz(t *testing.T) {
	srv, _ := newWebhookServer(t, "")

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}
