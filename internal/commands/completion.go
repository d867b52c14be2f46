// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// COMPLETION TYPE
// =============================================================================

// Completion is a completion suggestion ready for display.
type Completion struct {
	ArgumentCompletion

	// Display text shown in menus
	Display string

	// Description shown alongside
	Description string

	// Score for ranking (higher = better match)
	Score int
}

// =============================================================================
// COMPLETER
// =============================================================================

// Completer handles tab completion for command names and arguments.
type Completer struct {
	registry *Registry

	// Workspace is handed to argument completion. May be nil.
	Workspace Workspace

	// MaxResults caps the number of completions returned (0 = unlimited).
	MaxResults int
}

// NewCompleter creates a new completer with the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns completions for a partially typed command line.
//
// While the name is being typed it proposes command names. After the name it
// delegates to the command's CompleteArgument. The cancel flag is passed
// through; once it is set the result is ErrCompletionCanceled.
func (c *Completer) Complete(ctx context.Context, input string, cancel *atomic.Bool) ([]Completion, error) {
	if err := CheckCanceled(cancel); err != nil {
		return nil, err
	}

	res := c.registry.Parse(input)
	if !res.IsCommand {
		return nil, nil
	}

	// Still typing the command name?
	if len(res.Args) == 0 && !res.TrailingSpace {
		return c.limit(c.completeCommands(ctx, res.CommandName)), nil
	}

	if res.Command == nil {
		return nil, nil
	}

	args, err := res.Command.CompleteArgument(ctx, CompletionRequest{
		Arguments: res.Partial(),
		Cancel:    cancel,
		Workspace: c.Workspace,
	})
	if err != nil {
		return nil, err
	}
	if err := CheckCanceled(cancel); err != nil {
		return nil, err
	}

	completions := make([]Completion, 0, len(args))
	for _, a := range args {
		completions = append(completions, Completion{
			ArgumentCompletion: a,
			Display:            a.Label.Text,
		})
	}
	return c.limit(completions), nil
}

// =============================================================================
// COMMAND COMPLETION
// =============================================================================

// completeCommands returns completions for command names.
func (c *Completer) completeCommands(ctx context.Context, partial string) []Completion {
	var completions []Completion

	partial = normalize(partial)

	for _, cmd := range c.registry.All() {
		policy := nameCompletionPolicy(cmd)

		if strings.HasPrefix(normalize(cmd.Name()), partial) {
			completions = append(completions, Completion{
				ArgumentCompletion: ArgumentCompletion{
					Label:           LabelOf(ctx, cmd),
					NewText:         "/" + cmd.Name(),
					AfterCompletion: policy,
				},
				Display:     "/" + cmd.Name(),
				Description: cmd.MenuText(),
				Score:       calculateScore(cmd.Name(), partial),
			})
		}

		for _, alias := range c.registry.Aliases(cmd.Name()) {
			if strings.HasPrefix(normalize(alias), partial) {
				completions = append(completions, Completion{
					ArgumentCompletion: ArgumentCompletion{
						Label:           PlainLabel(alias, ""),
						NewText:         "/" + alias,
						AfterCompletion: policy,
					},
					Display:     "/" + alias + " -> /" + cmd.Name(),
					Description: cmd.MenuText(),
					Score:       calculateScore(alias, partial) - 10, // Slightly lower score for aliases
				})
			}
		}
	}

	sortCompletions(completions)
	return completions
}

// nameCompletionPolicy decides what accepting a command name does: commands
// needing an argument continue to it, commands with optional arguments are
// left for the user to compose, and the rest run at once.
func nameCompletionPolicy(cmd Command) AfterCompletion {
	switch {
	case cmd.RequiresArgument():
		return Continue
	case AcceptsArguments(cmd):
		return Compose
	default:
		return Run
	}
}

func (c *Completer) limit(completions []Completion) []Completion {
	if c.MaxResults > 0 && len(completions) > c.MaxResults {
		return completions[:c.MaxResults]
	}
	return completions
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// normalize folds case and composes Unicode so "café" typed with a
// combining accent still matches.
func normalize(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// FilterByPrefix returns the values starting with partial, best match
// first. Commands use it for simple list-based argument completion.
func FilterByPrefix(values []string, partial string) []string {
	type scored struct {
		value string
		score int
	}
	p := normalize(partial)
	var matches []scored
	for _, v := range values {
		if strings.HasPrefix(normalize(v), p) {
			matches = append(matches, scored{v, calculateScore(v, p)})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].value < matches[j].value
	})
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.value
	}
	return out
}

// calculateScore calculates a match score for completion ranking.
// Higher score = better match.
func calculateScore(value, partial string) int {
	value = normalize(value)
	partial = normalize(partial)

	score := 100

	// Exact match
	if value == partial {
		return score + 100
	}

	// Prefix match bonus
	if strings.HasPrefix(value, partial) {
		score += 50
		// Bonus for shorter completions
		score += 20 - len(value)
	}

	// Length penalty
	score -= len(value) / 2

	return score
}

// sortCompletions sorts completions by score (descending), then alphabetically.
func sortCompletions(completions []Completion) {
	sort.SliceStable(completions, func(i, j int) bool {
		if completions[i].Score != completions[j].Score {
			return completions[i].Score > completions[j].Score
		}
		return completions[i].NewText < completions[j].NewText
	})
}
