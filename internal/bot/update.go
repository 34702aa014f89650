package bot

import "strings"

// Update is one inbound event from the chat bridge: either a button tap
// (Payload set) or a typed message (Text set).
type Update struct {
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id"`
	Text      string `json:"text,omitempty"`
	Payload   string `json:"payload,omitempty"`
}

// command splits a typed "/name args" line. Returns ok=false for plain
// text.
func command(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	name, args, _ = strings.Cut(text[1:], " ")
	// Platforms append the bot handle to commands in group chats.
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name), strings.TrimSpace(args), true
}
