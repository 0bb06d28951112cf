// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeranaias/valetdash/internal/api"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a conversation ready for export.
type Transcript struct {
	Title      string            `json:"title"`
	Model      string            `json:"model"`
	APIURL     string            `json:"api_url,omitempty"`
	ExportedAt time.Time         `json:"exported_at"`
	Messages   []api.ChatMessage `json:"messages"`
}

// NewTranscript builds a transcript titled after the first user message.
func NewTranscript(model string, messages []api.ChatMessage) *Transcript {
	title := "Robot chat"
	for _, msg := range messages {
		if msg.Role == api.RoleUser && strings.TrimSpace(msg.Content) != "" {
			title = firstLine(msg.Content, 60)
			break
		}
	}
	return &Transcript{
		Title:      title,
		Model:      model,
		ExportedAt: time.Now().UTC(),
		Messages:   messages,
	}
}

func firstLine(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	runes := []rune(s)
	if len(runes) > maxRunes {
		return string(runes[:maxRunes-3]) + "..."
	}
	return s
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a transcript to the target format.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the file extension (e.g., ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// IncludeMetadata includes the frontmatter and session section.
	IncludeMetadata bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{IncludeMetadata: true}
}

// Formats lists the accepted format names.
var Formats = []string{"markdown", "json"}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	}
	return nil, fmt.Errorf("unsupported export format: %s (use %s)", format, strings.Join(Formats, " or "))
}

// Write exports t and writes the result to w.
func Write(w io.Writer, t *Transcript, exporter Exporter) error {
	content, err := exporter.Export(t)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05 MST")
}
