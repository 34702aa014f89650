package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/dpogorelov/trackbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCmd executes the root command with args and returns captured stdout.
func runCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(app)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRecentCmd_Empty(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := runCmd(t, app, "recent")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing logged yet")
}

func TestRecentCmd_ListsEntries(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	_, err := app.Wizard.Handle(ctx, "console", domain.StartEntry{})
	require.NoError(t, err)
	_, err = app.Wizard.Handle(ctx, "console", domain.SelectIssue{IssueID: 2})
	require.NoError(t, err)
	_, err = app.Wizard.Handle(ctx, "console", domain.SelectDate{Offset: 0})
	require.NoError(t, err)
	_, err = app.Wizard.Handle(ctx, "console", domain.AddHours{Delta: 2})
	require.NoError(t, err)
	_, err = app.Wizard.Handle(ctx, "console", domain.FinishHours{})
	require.NoError(t, err)
	_, err = app.Wizard.Handle(ctx, "console", domain.SetComment{Text: "pairing"})
	require.NoError(t, err)
	_, err = app.Wizard.Handle(ctx, "console", domain.ConfirmSubmit{})
	require.NoError(t, err)

	out, err := runCmd(t, app, "recent")
	require.NoError(t, err)
	assert.Contains(t, out, "Task 2")
	assert.Contains(t, out, "2h")
}

func TestLinkCmd_WithKeyFlag(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := runCmd(t, app, "link", "--session", "u9", "--key", "fresh-key")
	require.NoError(t, err)
	assert.Contains(t, out, "Linked as ivan")

	link, err := app.Linker.Status(context.Background(), "u9")
	require.NoError(t, err)
	assert.Equal(t, "fresh-key", link.APIKey)
}

func TestLinkStatusCmd(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := runCmd(t, app, "link", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Linked as tester")

	out, err = runCmd(t, app, "link", "status", "--session", "nobody")
	require.NoError(t, err)
	assert.Contains(t, out, "Not linked")
}

func TestLinkRemoveCmd(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := runCmd(t, app, "link", "remove")
	require.NoError(t, err)
	assert.Contains(t, out, "Key removed")

	_, err = app.Linker.Status(context.Background(), "console")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChatCmd_RefusesNonInteractive(t *testing.T) {
	app, _ := newTestApp(t)
	app.IsInteractive = func() bool { return false }

	_, err := runCmd(t, app, "chat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}
