package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/dpogorelov/trackbot/internal/domain"
	"github.com/dpogorelov/trackbot/internal/redmine"
	"github.com/dpogorelov/trackbot/internal/repository"
	"github.com/dpogorelov/trackbot/internal/service"
	"github.com/dpogorelov/trackbot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTracker struct {
	mu        sync.Mutex
	login     string
	verifyErr error
	issues    []domain.IssueRef
	created   []redmine.TimeEntry
}

func (f *fakeTracker) VerifyCredential(ctx context.Context, apiKey string) (string, error) {
	if f.verifyErr != nil {
		return "", f.verifyErr
	}
	return f.login, nil
}

func (f *fakeTracker) ListOpenIssues(ctx context.Context, apiKey string) ([]domain.IssueRef, error) {
	return append([]domain.IssueRef(nil), f.issues...), nil
}

func (f *fakeTracker) CreateTimeEntry(ctx context.Context, apiKey string, entry redmine.TimeEntry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, entry)
	return fmt.Sprintf("%d", 9000+len(f.created)), nil
}

// sentMessage is what the fake transport captured for one delivery.
type sentMessage struct {
	SessionID     string
	Text          string
	Buttons       [][]service.Button
	EditMessageID string
}

type fakeTransport struct {
	mu       sync.Mutex
	messages []sentMessage
	nextID   int
}

func (t *fakeTransport) SendPrompt(ctx context.Context, sessionID string, reply *service.Reply) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	text := reply.Text
	if reply.Notice != "" {
		text = reply.Notice + "\n\n" + text
	}
	t.messages = append(t.messages, sentMessage{
		SessionID:     sessionID,
		Text:          text,
		Buttons:       reply.Buttons,
		EditMessageID: reply.EditMessageID,
	})
	t.nextID++
	return fmt.Sprintf("m%d", t.nextID), nil
}

func (t *fakeTransport) SendNotice(ctx context.Context, sessionID, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, sentMessage{SessionID: sessionID, Text: text})
	return nil
}

func (t *fakeTransport) last(tb testing.TB) sentMessage {
	tb.Helper()
	t.mu.Lock()
	defer t.mu.Unlock()
	require.NotEmpty(tb, t.messages)
	return t.messages[len(t.messages)-1]
}

func (t *fakeTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

type botFixture struct {
	bot       *Bot
	transport *fakeTransport
	tracker   *fakeTracker
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	drafts := repository.NewSQLiteDraftRepo(database)
	links := repository.NewSQLiteLinkRepo(database)
	tracker := &fakeTracker{
		login:  "ivan",
		issues: []domain.IssueRef{{ID: 2, Name: "Task 2"}},
	}
	wizard := service.NewWizardService(drafts, links, tracker, testutil.NewTestUoW(database), service.WizardConfig{})
	linker := service.NewLinkService(links, tracker)
	transport := &fakeTransport{}
	return &botFixture{
		bot:       New(wizard, linker, transport, nil),
		transport: transport,
		tracker:   tracker,
	}
}

func (f *botFixture) update(t *testing.T, upd Update) {
	t.Helper()
	require.NoError(t, f.bot.HandleUpdate(context.Background(), upd))
}

func TestBot_UnknownCommandShowsHelp(t *testing.T) {
	f := newBotFixture(t)
	f.update(t, Update{SessionID: "u1", Text: "/start"})
	assert.Contains(t, f.transport.last(t).Text, "/track")
}

func TestBot_LinkFlow(t *testing.T) {
	f := newBotFixture(t)

	f.update(t, Update{SessionID: "u1", Text: "/link"})
	assert.Contains(t, f.transport.last(t).Text, "/link <api-key>")

	f.update(t, Update{SessionID: "u1", Text: "/link secret-key"})
	assert.Contains(t, f.transport.last(t).Text, "Linked as ivan")

	f.update(t, Update{SessionID: "u1", Text: "/status"})
	assert.Contains(t, f.transport.last(t).Text, "ivan")

	f.update(t, Update{SessionID: "u1", Text: "/unlink"})
	assert.Equal(t, msgUnlinked, f.transport.last(t).Text)

	f.update(t, Update{SessionID: "u1", Text: "/status"})
	assert.Equal(t, service.MsgNotLinked, f.transport.last(t).Text)
}

func TestBot_RejectedKeyAnsweredInChat(t *testing.T) {
	f := newBotFixture(t)
	f.tracker.verifyErr = redmine.ErrAuth

	f.update(t, Update{SessionID: "u1", Text: "/link bad-key"})
	assert.Equal(t, service.MsgAuthFailed, f.transport.last(t).Text)
}

func TestBot_TrackWithoutLink(t *testing.T) {
	f := newBotFixture(t)
	f.update(t, Update{SessionID: "u1", Text: "/track"})
	assert.Equal(t, service.MsgNotLinked, f.transport.last(t).Text)
}

func TestBot_CancelWithoutEntry(t *testing.T) {
	f := newBotFixture(t)
	f.update(t, Update{SessionID: "u1", Text: "/cancel"})
	assert.Equal(t, msgNoActiveEntry, f.transport.last(t).Text)
}

func TestBot_RecentEmpty(t *testing.T) {
	f := newBotFixture(t)
	f.update(t, Update{SessionID: "u1", Text: "/recent"})
	assert.Equal(t, msgNoRecent, f.transport.last(t).Text)
}

func TestBot_FullDialogue(t *testing.T) {
	f := newBotFixture(t)

	f.update(t, Update{SessionID: "u1", Text: "/link secret-key"})
	f.update(t, Update{SessionID: "u1", Text: "/track"})

	issueMenu := f.transport.last(t)
	assert.Contains(t, issueMenu.Text, "Which issue")
	require.NotEmpty(t, issueMenu.Buttons)
	assert.Equal(t, "Task 2", issueMenu.Buttons[0][0].Label)

	// Tap through the menus using the payloads the bot itself issued.
	f.update(t, Update{SessionID: "u1", Payload: issueMenu.Buttons[0][0].Payload})

	dateMenu := f.transport.last(t)
	assert.Contains(t, dateMenu.Text, "Which day")
	assert.Equal(t, "Today", dateMenu.Buttons[0][0].Label)
	f.update(t, Update{SessionID: "u1", Payload: dateMenu.Buttons[0][0].Payload})

	f.update(t, Update{SessionID: "u1", Payload: "delta:1"})
	f.update(t, Update{SessionID: "u1", Payload: "delta:0.5"})
	f.update(t, Update{SessionID: "u1", Payload: "hours_done"})

	f.update(t, Update{SessionID: "u1", Text: "code review"})
	assert.Contains(t, f.transport.last(t).Text, "Submit this entry?")

	f.update(t, Update{SessionID: "u1", Payload: "confirm"})
	assert.Contains(t, f.transport.last(t).Text, "Logged")

	require.Len(t, f.tracker.created, 1)
	assert.Equal(t, int64(2), f.tracker.created[0].IssueID)
	assert.InDelta(t, 1.5, f.tracker.created[0].Hours, 1e-9)
	assert.Equal(t, "code review", f.tracker.created[0].Comment)

	f.update(t, Update{SessionID: "u1", Text: "/recent"})
	recent := f.transport.last(t).Text
	assert.Contains(t, recent, "Task 2")
	assert.Contains(t, recent, "1.5h")
}

func TestBot_CommentStoredVerbatim(t *testing.T) {
	f := newBotFixture(t)
	f.update(t, Update{SessionID: "u1", Text: "/link secret-key"})
	f.update(t, Update{SessionID: "u1", Text: "/track"})
	f.update(t, Update{SessionID: "u1", Payload: "issue:2"})
	f.update(t, Update{SessionID: "u1", Payload: "date:0"})
	f.update(t, Update{SessionID: "u1", Payload: "hours_done"})

	// Whitespace-only text is dropped without touching the dialogue.
	before := f.transport.count()
	f.update(t, Update{SessionID: "u1", Text: "   "})
	assert.Equal(t, before, f.transport.count())

	// Surrounding whitespace is part of the comment as typed.
	f.update(t, Update{SessionID: "u1", Text: "  fixed the build  "})
	f.update(t, Update{SessionID: "u1", Payload: "confirm"})

	require.Len(t, f.tracker.created, 1)
	assert.Equal(t, "  fixed the build  ", f.tracker.created[0].Comment)
}

func TestBot_PromptsEditTheLiveMessage(t *testing.T) {
	f := newBotFixture(t)
	f.update(t, Update{SessionID: "u1", Text: "/link secret-key"})
	f.update(t, Update{SessionID: "u1", Text: "/track"})

	first := f.transport.last(t)
	assert.Empty(t, first.EditMessageID, "first prompt is a fresh message")

	f.update(t, Update{SessionID: "u1", Payload: first.Buttons[0][0].Payload})
	second := f.transport.last(t)
	assert.NotEmpty(t, second.EditMessageID, "later prompts edit in place")
}

func TestBot_WrongStageTextReprompts(t *testing.T) {
	f := newBotFixture(t)
	f.update(t, Update{SessionID: "u1", Text: "/link secret-key"})
	f.update(t, Update{SessionID: "u1", Text: "/track"})

	// Typing at the issue menu does not fit; the menu comes back with a
	// notice.
	f.update(t, Update{SessionID: "u1", Text: "an hour and a half"})
	last := f.transport.last(t)
	assert.True(t, strings.HasPrefix(last.Text, service.MsgWrongStage), last.Text)
	assert.Contains(t, last.Text, "Which issue")
}

func TestBot_UnknownButtonReprompts(t *testing.T) {
	f := newBotFixture(t)
	f.update(t, Update{SessionID: "u1", Text: "/link secret-key"})
	f.update(t, Update{SessionID: "u1", Text: "/track"})

	f.update(t, Update{SessionID: "u1", Payload: "issue:999"})
	last := f.transport.last(t)
	assert.Contains(t, last.Text, "not on the list")
	assert.Contains(t, last.Text, "Which issue")
}

func TestBot_UnparseablePayloadIgnored(t *testing.T) {
	f := newBotFixture(t)
	before := f.transport.count()
	f.update(t, Update{SessionID: "u1", Payload: "garbage&stuff"})
	assert.Equal(t, before, f.transport.count(), "nothing sent")
}

func TestBot_DoubleStartKeepsDraft(t *testing.T) {
	f := newBotFixture(t)
	f.update(t, Update{SessionID: "u1", Text: "/link secret-key"})
	f.update(t, Update{SessionID: "u1", Text: "/track"})

	f.update(t, Update{SessionID: "u1", Text: "/track"})
	assert.Equal(t, service.MsgAlreadyActive, f.transport.last(t).Text)
}

func TestBot_CommandParsing(t *testing.T) {
	cases := []struct {
		text string
		name string
		args string
		ok   bool
	}{
		{"/track", "track", "", true},
		{"/TRACK", "track", "", true},
		{"/track@trackbot", "track", "", true},
		{"  /link  abc-123 ", "link", "abc-123", true},
		{"plain text", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		name, args, ok := command(tc.text)
		assert.Equal(t, tc.ok, ok, tc.text)
		assert.Equal(t, tc.name, name, tc.text)
		assert.Equal(t, tc.args, args, tc.text)
	}
}
