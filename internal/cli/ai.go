// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ai.go - One-shot chat, model selection and server-side history.
package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/valetdash/internal/api"
	"github.com/jeranaias/valetdash/internal/export"
	"github.com/jeranaias/valetdash/internal/store"
	"github.com/jeranaias/valetdash/internal/ui/components"
	"github.com/jeranaias/valetdash/internal/ui/styles"
)

// =============================================================================
// ASK
// =============================================================================

// Ask sends one chat message and prints the reply.
func (a *App) Ask(ctx context.Context, query string) error {
	if query == "" {
		return ErrMissingArgument("message", `valetdash ask "What's the battery level?"`)
	}

	resp, err := a.Client.Chat(ctx, query)
	if err != nil {
		return NewCommandError("ask", "send", "chat request failed", err)
	}

	data := AskData{Response: resp.Response, ModelUsed: resp.ModelUsed, Intent: resp.Intent}
	return a.emit("ask", data, func() {
		fmt.Fprintln(a.Out, a.renderReply(resp.Response))
		if !a.Args.Quiet {
			fmt.Fprintln(a.Out, DimStyle.Render(replyFooter(resp)))
		}
	})
}

func replyFooter(resp *api.ChatResponse) string {
	footer := "model: " + components.ModelLabel(resp.ModelUsed)
	if resp.Intent != "" {
		footer += "  intent: " + resp.Intent
	}
	return footer
}

// renderReply renders markdown on a terminal and passes text through otherwise.
func (a *App) renderReply(text string) string {
	if !a.Color {
		return text
	}
	width := GetTerminalWidth()
	if wrap := a.Config.UI.WordWrap; wrap > 0 && wrap < width {
		width = wrap
	}
	return a.markdown().Render(text, width)
}

func (a *App) markdown() *components.MarkdownRenderer {
	return components.NewMarkdownRenderer(styles.NewTheme(a.Config.UI.Theme).GlamourStyle())
}

// =============================================================================
// MODELS
// =============================================================================

// Models lists AI models, or switches with "models switch NAME".
func (a *App) Models(ctx context.Context) error {
	switch a.Args.Subcommand {
	case "", "list", "ls":
		return a.listModels(ctx)
	case "switch", "use", "set":
		if len(a.Args.Raw) == 0 {
			return ErrMissingArgument("model", "valetdash models switch openai")
		}
		return a.switchModel(ctx, a.Args.Raw[0])
	}
	return &ValidationError{
		Field:   "subcommand",
		Value:   a.Args.Subcommand,
		Reason:  "expected list or switch",
		Example: "valetdash models switch local",
	}
}

func (a *App) listModels(ctx context.Context) error {
	info, err := a.Client.Models(ctx)
	if err != nil {
		return NewCommandError("models", "list", "could not read models", err)
	}

	st := store.New()
	st.SetCurrentModel(info.Current)
	st.SetAvailableModels(info.Available)
	snap := st.Snapshot()

	data := ModelsData{Current: snap.CurrentModel, Available: snap.AvailableModels, Listed: snap.CurrentModelListed()}
	return a.emit("models", data, func() {
		if a.Args.Quiet {
			for _, m := range data.Available {
				fmt.Fprintln(a.Out, m)
			}
			return
		}
		fmt.Fprintln(a.Out, TitleStyle.Render("AI Models"))
		for _, m := range data.Available {
			marker := "  "
			if m == data.Current {
				marker = SuccessStyle.Render("* ")
			}
			fmt.Fprintf(a.Out, "%s%-10s %s %s\n", marker, m, components.ModelLabel(m),
				DimStyle.Render("["+components.LocalityLabel(m)+"]"))
		}
		if !data.Listed {
			fmt.Fprintln(a.Out, WarningStyle.Render("current model "+data.Current+" is not in the available list"))
		}
	})
}

func (a *App) switchModel(ctx context.Context, model string) error {
	info, err := a.Client.Models(ctx)
	if err != nil {
		return NewCommandError("models", "switch", "could not read models", err)
	}

	st := store.New()
	st.SetCurrentModel(info.Current)
	st.SetAvailableModels(info.Available)
	ctrl := a.newController(st)

	if err := ctrl.SwitchModel(ctx, model); err != nil {
		return NewCommandError("models", "switch", "switch to "+model+" failed", err)
	}

	data := SwitchData{Previous: info.Current, Current: st.CurrentModel(), Changed: info.Current != st.CurrentModel()}
	return a.emit("models", data, func() {
		if !data.Changed {
			fmt.Fprintln(a.Out, "Already using "+components.ModelLabel(data.Current))
			return
		}
		fmt.Fprintln(a.Out, SuccessStyle.Render("[OK]")+" Switched to "+components.ModelLabel(data.Current))
	})
}

// =============================================================================
// HISTORY
// =============================================================================

// History prints the server-side chat history, or clears it.
func (a *App) History(ctx context.Context) error {
	switch a.Args.Subcommand {
	case "", "show":
		return a.showHistory(ctx)
	case "clear":
		return a.clearHistory(ctx)
	case "export":
		format := ""
		if len(a.Args.Raw) > 0 {
			format = a.Args.Raw[0]
		}
		return a.exportHistory(ctx, format)
	}
	return &ValidationError{
		Field:   "subcommand",
		Value:   a.Args.Subcommand,
		Reason:  "expected show, clear or export",
		Example: "valetdash history clear",
	}
}

func (a *App) showHistory(ctx context.Context) error {
	messages, err := a.Client.History(ctx)
	if err != nil {
		return NewCommandError("history", "show", "could not read history", err)
	}
	if messages == nil {
		messages = []api.ChatMessage{}
	}

	return a.emit("history", HistoryData{Count: len(messages), Messages: messages}, func() {
		if len(messages) == 0 {
			fmt.Fprintln(a.Out, DimStyle.Render("No chat history."))
			return
		}
		printTranscript(a, messages)
	})
}

func (a *App) clearHistory(ctx context.Context) error {
	st := store.New()
	if err := a.newController(st).ClearHistory(ctx); err != nil {
		return NewCommandError("history", "clear", "could not clear history", err)
	}
	return a.emit("history", map[string]bool{"cleared": true}, func() {
		fmt.Fprintln(a.Out, SuccessStyle.Render("[OK]")+" History cleared")
	})
}

// exportHistory writes the server-side history to stdout as Markdown or JSON.
// --json is ignored here; the export format decides the output.
func (a *App) exportHistory(ctx context.Context, format string) error {
	exporter, err := export.ForFormat(format, nil)
	if err != nil {
		return NewValidationError("format", format, err.Error())
	}

	messages, err := a.Client.History(ctx)
	if err != nil {
		return NewCommandError("history", "export", "could not read history", err)
	}
	model := ""
	if info, err := a.Client.Models(ctx); err == nil {
		model = info.Current
	}

	transcript := export.NewTranscript(model, messages)
	transcript.APIURL = a.Client.BaseURL()
	if err := export.Write(a.Out, transcript, exporter); err != nil {
		return NewCommandError("history", "export", "export failed", err)
	}
	return nil
}

// printTranscript prints messages as "You:" / "Assistant:" blocks.
func printTranscript(a *App, messages []api.ChatMessage) {
	for i, msg := range messages {
		if i > 0 {
			fmt.Fprintln(a.Out)
		}
		if msg.Role == api.RoleUser {
			fmt.Fprintln(a.Out, PromptStyle.Render("You:"))
			fmt.Fprintln(a.Out, msg.Content)
			continue
		}
		fmt.Fprintln(a.Out, PromptStyle.Render("Assistant:"))
		fmt.Fprintln(a.Out, a.renderReply(msg.Content))
	}
}
