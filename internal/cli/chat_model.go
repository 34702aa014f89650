package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dpogorelov/trackbot/internal/bot"
	"github.com/dpogorelov/trackbot/internal/domain"
	"github.com/dpogorelov/trackbot/internal/service"
)

// chatModel is the bubbletea Model for the local console dialogue. It
// drives the same wizard the webhook does, with the terminal standing in
// for the chat platform: arrow keys select a button, enter taps it, typed
// text becomes the comment.
type chatModel struct {
	app       *App
	sessionID string

	reply   *service.Reply
	buttons []service.Button
	cursor  int

	input        textinput.Model
	inputFocused bool

	finalText string
	quitting  bool
}

type replyMsg struct {
	reply *service.Reply
	err   error
}

func newChatModel(app *App, sessionID string) chatModel {
	ti := textinput.New()
	ti.Placeholder = "type a comment"
	ti.CharLimit = 300
	return chatModel{app: app, sessionID: sessionID, input: ti}
}

func (m chatModel) send(in domain.Interaction) tea.Cmd {
	return func() tea.Msg {
		reply, err := m.app.Wizard.Handle(context.Background(), m.sessionID, in)
		return replyMsg{reply: reply, err: err}
	}
}

func (m chatModel) reprompt(notice string) tea.Cmd {
	return func() tea.Msg {
		reply, err := m.app.Wizard.Prompt(context.Background(), m.sessionID)
		if err == nil {
			reply.Notice = notice
		}
		return replyMsg{reply: reply, err: err}
	}
}

func (m chatModel) Init() tea.Cmd {
	return m.send(domain.StartEntry{})
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case replyMsg:
		return m.applyReply(msg)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEsc:
			return m, m.send(domain.CancelEntry{})
		}

		if m.inputFocused {
			return m.updateInput(msg)
		}
		return m.updateButtons(msg)
	}

	if m.inputFocused {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m chatModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab:
		m.inputFocused = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.input.SetValue("")
		return m, m.send(domain.SetComment{Text: text})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) updateButtons(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k", "left", "h":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j", "right", "l":
		if m.cursor < len(m.buttons)-1 {
			m.cursor++
		}
	case "tab":
		if m.commentStage() {
			m.inputFocused = true
			return m, m.input.Focus()
		}
	case "enter":
		if len(m.buttons) == 0 {
			return m, nil
		}
		in, err := domain.ParsePayload(m.buttons[m.cursor].Payload)
		if err != nil {
			return m, nil
		}
		return m, m.send(in)
	}
	return m, nil
}

func (m chatModel) applyReply(msg replyMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// A rejected option comes back with the re-rendered prompt; show
		// it and stay in the dialogue.
		if msg.reply != nil {
			return m.showReply(msg.reply), nil
		}
		// Input that does not fit the current step: re-render the step
		// with a notice, the draft is unchanged.
		if errors.Is(msg.err, domain.ErrInvalidInteraction) {
			return m, m.reprompt(service.MsgWrongStage)
		}
		text, _ := bot.FailureText(msg.err)
		m.finalText = text
		m.quitting = true
		return m, tea.Quit
	}

	if msg.reply.Done {
		m.finalText = msg.reply.Text
		m.quitting = true
		return m, tea.Quit
	}
	return m.showReply(msg.reply), nil
}

func (m chatModel) showReply(reply *service.Reply) chatModel {
	m.reply = reply
	m.buttons = m.buttons[:0]
	for _, row := range reply.Buttons {
		m.buttons = append(m.buttons, row...)
	}
	if m.cursor >= len(m.buttons) {
		m.cursor = 0
	}
	if m.commentStage() {
		m.inputFocused = true
		m.input.Focus()
	} else {
		m.inputFocused = false
		m.input.Blur()
	}
	return m
}

// commentStage reports whether the current prompt accepts typed text.
func (m chatModel) commentStage() bool {
	return m.reply != nil && m.reply.AcceptsText
}

func (m chatModel) View() string {
	if m.quitting {
		if m.finalText != "" {
			return m.finalText + "\n"
		}
		return ""
	}
	if m.reply == nil {
		return dimStyle.Render("starting...") + "\n"
	}

	var b strings.Builder
	if m.reply.Notice != "" {
		b.WriteString(noticeStyle.Render(m.reply.Notice) + "\n\n")
	}
	b.WriteString(promptStyle.Render(m.reply.Text) + "\n\n")

	for i, btn := range m.buttons {
		style := buttonStyle
		if i == m.cursor && !m.inputFocused {
			style = selectedButtonStyle
		}
		b.WriteString(style.Render(btn.Label))
		b.WriteString(" ")
	}
	b.WriteString("\n")

	if m.commentStage() {
		b.WriteString("\n" + m.input.View() + "\n")
		b.WriteString(dimStyle.Render("tab switches between buttons and typing") + "\n")
	}
	b.WriteString(dimStyle.Render("enter taps · esc cancels · ctrl+c quits") + "\n")
	return b.String()
}
