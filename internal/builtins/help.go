// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtins

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/output"
)

// HelpCommand lists the registered commands.
type HelpCommand struct {
	reg *commands.Registry
}

// NewHelp creates the /help command over reg.
func NewHelp(reg *commands.Registry) *HelpCommand {
	return &HelpCommand{reg: reg}
}

func (c *HelpCommand) Name() string           { return "help" }
func (c *HelpCommand) Description() string    { return "List available slash commands" }
func (c *HelpCommand) MenuText() string       { return "Show Help" }
func (c *HelpCommand) RequiresArgument() bool { return false }

func (c *HelpCommand) CompleteArgument(ctx context.Context, req commands.CompletionRequest) ([]commands.ArgumentCompletion, error) {
	return nil, nil
}

func (c *HelpCommand) Run(ctx context.Context, req commands.RunRequest) (output.EventStream, error) {
	cmds := c.reg.All()

	width := 0
	for _, cmd := range cmds {
		width = max(width, len(commands.UsageOf(cmd)))
	}

	var sb strings.Builder
	sb.WriteString("Available commands:\n")
	for _, cmd := range cmds {
		line := fmt.Sprintf("  %-*s  %s", width, commands.UsageOf(cmd), cmd.Description())
		if aliases := c.reg.Aliases(cmd.Name()); len(aliases) > 0 {
			line += " (alias: /" + strings.Join(aliases, ", /") + ")"
		}
		sb.WriteString(line + "\n")
	}

	text := sb.String()
	return output.ToEventStream(output.Output{
		Text: text,
		Sections: []output.Section[int]{{
			Range:    output.Range[int]{Start: 0, End: len(text)},
			Icon:     output.IconLibrary,
			Label:    "Commands",
			Metadata: output.MustMetadata(map[string]int{"count": len(cmds)}),
		}},
	}), nil
}
