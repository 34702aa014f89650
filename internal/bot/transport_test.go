package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dpogorelov/trackbot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeTransport_SendPrompt(t *testing.T) {
	var got outboundMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "Bearer bridge-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respondJSON(w, http.StatusOK, outboundResult{MessageID: "55"})
	}))
	defer srv.Close()

	tr := NewBridgeTransport(BridgeConfig{BaseURL: srv.URL, Token: "bridge-token"})
	id, err := tr.SendPrompt(context.Background(), "u1", &service.Reply{
		Text:          "Which issue did you work on?",
		Notice:        "Heads up.",
		Buttons:       [][]service.Button{{{Label: "Task 2", Payload: "issue:2"}}},
		EditMessageID: "m9",
	})
	require.NoError(t, err)
	assert.Equal(t, "55", id)

	assert.Equal(t, "u1", got.SessionID)
	assert.Equal(t, "Heads up.\n\nWhich issue did you work on?", got.Text)
	assert.Equal(t, "m9", got.EditMessageID)
	require.Len(t, got.Buttons, 1)
	assert.Equal(t, "issue:2", got.Buttons[0][0].Payload)
}

func TestBridgeTransport_SendNotice(t *testing.T) {
	var got outboundMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr := NewBridgeTransport(BridgeConfig{BaseURL: srv.URL})
	require.NoError(t, tr.SendNotice(context.Background(), "u1", "hello"))
	assert.Equal(t, "hello", got.Text)
	assert.Empty(t, got.Buttons)
}

func TestBridgeTransport_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusBadGateway, "bridge down")
	}))
	defer srv.Close()

	tr := NewBridgeTransport(BridgeConfig{BaseURL: srv.URL})
	_, err := tr.SendPrompt(context.Background(), "u1", &service.Reply{Text: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
