// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat REPL with line editing and history.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/control"
	"github.com/jeranaias/valetdash/internal/export"
	"github.com/jeranaias/valetdash/internal/store"
	"github.com/jeranaias/valetdash/internal/ui/components"
	"github.com/jeranaias/valetdash/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// History lives in memory unless historyFile is set.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI. An empty historyFile keeps history in memory.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history, owner read/write only. It does
// nothing when no history file is configured.
func (c *ChatCLI) SaveHistory() error {
	if c.historyFile == "" {
		return nil
	}
	var buf bytes.Buffer
	if _, err := c.line.WriteHistory(&buf); err != nil {
		return err
	}
	return util.AtomicWriteFileWithDir(c.historyFile, buf.Bytes(), 0600, 0700)
}

// ClearHistory forgets every line entered so far.
func (c *ChatCLI) ClearHistory() {
	c.line.ClearHistory()
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() error {
	err := c.SaveHistory()
	c.line.Close()
	return err
}

// =============================================================================
// SESSION
// =============================================================================

// chatSession holds the state for an interactive chat session.
type chatSession struct {
	app  *App
	st   *store.Store
	ctrl *control.Controller
	out  io.Writer

	// onClear runs after the conversation is cleared
	onClear func()

	sent int
}

func newChatSession(a *App) *chatSession {
	st := store.New()
	return &chatSession{
		app:  a,
		st:   st,
		ctrl: a.newController(st),
		out:  a.Out,
	}
}

// loadModels seeds the current model so /model can detect no-op switches.
func (s *chatSession) loadModels(ctx context.Context) {
	info, err := s.app.Client.Models(ctx)
	if err != nil {
		s.app.Logger.Printf("CHAT_MODELS_FAILED | error=%v", err)
		return
	}
	s.st.SetCurrentModel(info.Current)
	s.st.SetAvailableModels(info.Available)
}

// send submits a message and prints the reply or the error.
func (s *chatSession) send(ctx context.Context, text string) error {
	err := s.ctrl.SubmitChat(ctx, text)
	if errors.Is(err, control.ErrEmptyMessage) {
		return nil
	}
	if errors.Is(err, control.ErrChatBusy) {
		return err
	}
	s.sent++

	messages := s.st.Messages()
	if n := len(messages); n > 0 && messages[n-1].Role == api.RoleAssistant {
		fmt.Fprintln(s.out, s.app.renderReply(messages[n-1].Content))
	}
	if err != nil {
		return errors.New(s.st.ErrorMessage())
	}
	return nil
}

// handleSlash runs a slash command. It returns false when the session should end.
func (s *chatSession) handleSlash(ctx context.Context, input string) (bool, error) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	rest := fields[1:]

	switch cmd {
	case "/quit", "/exit", "/q":
		return false, nil

	case "/help", "/?":
		fmt.Fprintln(s.out, chatHelp)

	case "/clear":
		if err := s.ctrl.ClearHistory(ctx); err != nil {
			return true, errors.New(s.st.ErrorMessage())
		}
		if s.onClear != nil {
			s.onClear()
		}
		fmt.Fprintln(s.out, SuccessStyle.Render("History cleared"))

	case "/model":
		if len(rest) == 0 {
			current := s.st.CurrentModel()
			fmt.Fprintf(s.out, "Model: %s [%s]\n", components.ModelLabel(current), components.LocalityLabel(current))
			if available := s.st.AvailableModels(); len(available) > 0 {
				fmt.Fprintln(s.out, DimStyle.Render("Available: "+strings.Join(available, ", ")))
			}
			return true, nil
		}
		target := rest[0]
		if target == s.st.CurrentModel() {
			fmt.Fprintln(s.out, "Already using "+components.ModelLabel(target))
			return true, nil
		}
		if err := s.ctrl.SwitchModel(ctx, target); err != nil {
			return true, errors.New(s.st.ErrorMessage())
		}
		fmt.Fprintln(s.out, SuccessStyle.Render("Switched to "+components.ModelLabel(target)))

	case "/status":
		if err := s.ctrl.RefreshStatus(ctx); err != nil {
			return true, errors.New(s.st.ErrorMessage())
		}
		status := s.st.RobotStatus()
		line := fmt.Sprintf("%s, battery %d%%", stateLabel(status.State), status.Battery)
		if status.HasError() {
			line += ", error: " + status.Error
		}
		fmt.Fprintln(s.out, line)

	case "/history":
		messages := s.st.Messages()
		if len(messages) == 0 {
			fmt.Fprintln(s.out, DimStyle.Render("No messages yet."))
			return true, nil
		}
		for _, msg := range messages {
			who := "You"
			if msg.Role == api.RoleAssistant {
				who = "Assistant"
			}
			fmt.Fprintf(s.out, "%s: %s\n", PromptStyle.Render(who), util.FirstLine(msg.Content))
		}

	case "/export":
		format := ""
		if len(rest) > 0 {
			format = rest[0]
		}
		exporter, err := export.ForFormat(format, nil)
		if err != nil {
			return true, err
		}
		transcript := export.NewTranscript(s.st.CurrentModel(), s.st.Messages())
		transcript.APIURL = s.app.Client.BaseURL()
		return true, export.Write(s.out, transcript, exporter)

	default:
		return true, NewValidationError("command", cmd, "unknown chat command, try /help")
	}
	return true, nil
}

const chatHelp = `Commands:
  /clear          Clear the conversation
  /model [name]   Show or switch the AI model
  /status         Show robot status
  /history        List this session's messages
  /export [json]  Print this session as Markdown or JSON
  /quit           Leave chat`

// =============================================================================
// REPL
// =============================================================================

// Chat runs the interactive chat loop until /quit, Ctrl+C or EOF.
func (a *App) Chat(ctx context.Context) error {
	if a.Args.JSON {
		return NewValidationError("flag", "--json", "chat is interactive; use ask for JSON output")
	}

	session := newChatSession(a)
	session.loadModels(ctx)

	input := NewChatCLI(a.Config.Chat.HistoryFile)
	session.onClear = input.ClearHistory
	defer func() {
		if err := input.Close(); err != nil {
			a.Logger.Printf("CHAT_HISTORY_SAVE_FAILED | error=%v", err)
		}
	}()

	if !a.Args.Quiet {
		fmt.Fprintln(a.Out, TitleStyle.Render("valetdash chat"))
		fmt.Fprintln(a.Out, DimStyle.Render("Model: "+components.ModelLabel(session.st.CurrentModel())+"  /help for commands, /quit to leave"))
		for _, example := range control.ExamplePrompts {
			fmt.Fprintln(a.Out, DimStyle.Render("  e.g. "+example))
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := input.ReadInput("you> ")
		if err != nil {
			// liner.ErrPromptAborted on Ctrl+C, io.EOF on Ctrl+D
			fmt.Fprintln(a.Out)
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			keepGoing, err := session.handleSlash(ctx, line)
			if err != nil {
				fmt.Fprintf(a.Err, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				break
			}
			continue
		}

		if err := session.send(ctx, line); err != nil {
			fmt.Fprintf(a.Err, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
	}

	if !a.Args.Quiet {
		fmt.Fprintln(a.Out, DimStyle.Render(fmt.Sprintf("%d messages sent.", session.sent)))
	}
	return nil
}
