package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dpogorelov/trackbot/internal/service"
)

// Transport delivers wizard replies back to the chat platform. The bridge
// owns the platform specifics (message formatting, button encoding); the
// bot only decides what to say and which message to edit.
type Transport interface {
	// SendPrompt delivers a reply to the session's chat. When
	// reply.EditMessageID is set the bridge edits that message in place;
	// otherwise it sends a new one. Returns the id of the message now
	// showing the prompt.
	SendPrompt(ctx context.Context, sessionID string, reply *service.Reply) (string, error)

	// SendNotice delivers a plain one-off text with no buttons.
	SendNotice(ctx context.Context, sessionID, text string) error
}

// BridgeConfig locates the chat bridge the bot pushes outbound messages to.
type BridgeConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func (c BridgeConfig) withDefaults() BridgeConfig {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

type bridgeTransport struct {
	cfg        BridgeConfig
	httpClient *http.Client
}

// NewBridgeTransport returns a Transport pushing messages to the chat
// bridge over HTTP.
func NewBridgeTransport(cfg BridgeConfig) Transport {
	cfg = cfg.withDefaults()
	return &bridgeTransport{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: cfg.Timeout,
				}).DialContext,
			},
		},
	}
}

type outboundMessage struct {
	SessionID     string             `json:"session_id"`
	Text          string             `json:"text"`
	Buttons       [][]service.Button `json:"buttons,omitempty"`
	EditMessageID string             `json:"edit_message_id,omitempty"`
}

type outboundResult struct {
	MessageID string `json:"message_id"`
}

func (t *bridgeTransport) SendPrompt(ctx context.Context, sessionID string, reply *service.Reply) (string, error) {
	text := reply.Text
	if reply.Notice != "" {
		text = reply.Notice + "\n\n" + text
	}
	msg := outboundMessage{
		SessionID:     sessionID,
		Text:          text,
		Buttons:       reply.Buttons,
		EditMessageID: reply.EditMessageID,
	}
	var result outboundResult
	if err := t.post(ctx, "/messages", msg, &result); err != nil {
		return "", err
	}
	return result.MessageID, nil
}

func (t *bridgeTransport) SendNotice(ctx context.Context, sessionID, text string) error {
	return t.post(ctx, "/messages", outboundMessage{SessionID: sessionID, Text: text}, nil)
}

func (t *bridgeTransport) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding bridge message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building bridge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+t.cfg.Token)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling bridge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("bridge returned %d: %s", resp.StatusCode, string(data))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding bridge response: %w", err)
		}
	}
	return nil
}
