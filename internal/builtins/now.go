// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtins

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/output"
)

// NowCommand inserts the current date and time.
type NowCommand struct {
	now func() time.Time
}

// NewNow creates the /now command.
func NewNow(opts Options) *NowCommand {
	return &NowCommand{now: opts.withDefaults().Now}
}

func (c *NowCommand) Name() string           { return "now" }
func (c *NowCommand) Description() string    { return "Insert the current date and time" }
func (c *NowCommand) MenuText() string       { return "Insert Current Date and Time" }
func (c *NowCommand) RequiresArgument() bool { return false }

func (c *NowCommand) CompleteArgument(ctx context.Context, req commands.CompletionRequest) ([]commands.ArgumentCompletion, error) {
	return nil, nil
}

func (c *NowCommand) Run(ctx context.Context, req commands.RunRequest) (output.EventStream, error) {
	t := c.now()
	text := fmt.Sprintf("Today is %s.", t.Format(time.RFC1123))
	md, err := output.NewMetadata(map[string]string{"timestamp": t.Format(time.RFC3339)})
	if err != nil {
		return nil, err
	}
	return output.ToEventStream(output.Output{
		Text: text,
		Sections: []output.Section[int]{{
			Range:    output.Range[int]{Start: 0, End: len(text)},
			Icon:     output.IconCountdownTimer,
			Label:    "Today",
			Metadata: md,
		}},
	}), nil
}
