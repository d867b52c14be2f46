// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/output"
)

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for listing headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	// SectionStyle renders the header line of an output section
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")) // White

	// IconStyle renders the bracketed icon tag before a section label
	IconStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75")) // Blue

	// CommandStyle renders command names
	CommandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")) // Bright green

	// KeywordStyle and CommentStyle render CodeLabel runs
	KeywordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213")) // Magenta
	CommentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			Italic(true)

	// SuccessStyle marks successful operations
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	// ErrorStyle marks failures
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// WarningStyle marks warnings and cancellations
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// DimStyle is used for secondary information
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	// PromptStyle is the REPL prompt
	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// =============================================================================
// HELPERS
// =============================================================================

// RenderConditional styles text only when colors are enabled.
func RenderConditional(style lipgloss.Style, text string) string {
	if !ColorsEnabled() {
		return text
	}
	return style.Render(text)
}

// iconTag returns the bracketed tag shown for a section icon. Unknown icons
// are shown by name; IconNone has no tag.
func iconTag(icon output.Icon) string {
	if icon == output.IconNone {
		return ""
	}
	return "[" + icon.String() + "]"
}

// renderSectionHeader formats the line printed when a section starts.
func renderSectionHeader(icon output.Icon, label string) string {
	var parts []string
	if tag := iconTag(icon); tag != "" {
		parts = append(parts, RenderConditional(IconStyle, tag))
	}
	if label != "" {
		parts = append(parts, RenderConditional(SectionStyle, label))
	}
	return strings.Join(parts, " ")
}

// renderCodeLabel styles the highlighted runs of a completion label.
func renderCodeLabel(l commands.CodeLabel) string {
	if !ColorsEnabled() || len(l.Runs) == 0 {
		return l.Text
	}
	var sb strings.Builder
	pos := 0
	for _, r := range l.Runs {
		if r.Range.Start < pos || r.Range.End > len(l.Text) {
			continue
		}
		sb.WriteString(l.Text[pos:r.Range.Start])
		seg := l.Text[r.Range.Start:r.Range.End]
		switch r.Highlight {
		case "keyword":
			sb.WriteString(KeywordStyle.Render(seg))
		case "comment":
			sb.WriteString(CommentStyle.Render(seg))
		default:
			sb.WriteString(seg)
		}
		pos = r.Range.End
	}
	sb.WriteString(l.Text[pos:])
	return sb.String()
}
