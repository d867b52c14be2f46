// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/slashcmd/internal/output"
	"github.com/jeranaias/slashcmd/internal/snapshots"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports an output as Markdown with one heading per
// section.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts an entry to Markdown.
func (e *MarkdownExporter) Export(entry snapshots.Entry) ([]byte, error) {
	out := entry.Output
	if err := out.Validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("command: %s\n", escapeYAML(entry.Command)))
		if entry.Line != "" {
			sb.WriteString(fmt.Sprintf("line: %s\n", escapeYAML(entry.Line)))
		}
		if !entry.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("date: %s\n", entry.CreatedAt.Format(time.RFC3339)))
		}
		sb.WriteString(fmt.Sprintf("sections: %d\n", len(out.Sections)))
		sb.WriteString("generator: slashcmd\n")
		sb.WriteString("---\n\n")
	}

	if entry.Command != "" {
		sb.WriteString(fmt.Sprintf("# /%s\n\n", escapeMarkdown(strings.TrimPrefix(entry.Command, "/"))))
	}

	sb.WriteString(e.Render(out))
	return []byte(sb.String()), nil
}

// Render converts output text to Markdown. Free text is kept verbatim; each
// section becomes a heading followed by its text, fenced unless it already
// is a code block.
func (e *MarkdownExporter) Render(out output.Output) string {
	var sb strings.Builder
	pos := 0
	for i, s := range out.Sections {
		writeGap(&sb, out.Text[pos:s.Range.Start])

		sb.WriteString(fmt.Sprintf("### %s\n\n", escapeMarkdown(sectionTitle(s))))
		sb.WriteString(fenced(out.SectionText(i)))
		sb.WriteString("\n")
		if e.options.IncludeMetadata && s.Metadata.Present() && !s.Metadata.IsNull() {
			sb.WriteString(fmt.Sprintf("<!-- metadata: %s -->\n", s.Metadata.String()))
		}
		sb.WriteString("\n")
		pos = s.Range.End
	}
	writeGap(&sb, out.Text[pos:])
	return sb.String()
}

// writeGap writes free text between sections, skipping whitespace-only gaps.
func writeGap(sb *strings.Builder, gap string) {
	if strings.TrimSpace(gap) == "" {
		return
	}
	sb.WriteString(gap)
	if !strings.HasSuffix(gap, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// fenced wraps text in a code fence unless it already is one. The fence is
// longer than any backtick run inside the text.
func fenced(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") && strings.HasSuffix(trimmed, "```") {
		return trimmed + "\n"
	}
	fence := "```"
	for strings.Contains(text, fence) {
		fence += "`"
	}
	return fence + "\n" + strings.TrimSuffix(text, "\n") + "\n" + fence + "\n"
}

func sectionTitle(s output.Section[int]) string {
	if s.Label != "" {
		return s.Label
	}
	if s.Icon != output.IconNone {
		return s.Icon.String()
	}
	return "Section"
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	// Quote if contains special characters (including backslash)
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
