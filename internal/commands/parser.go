// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"unicode"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult contains the result of parsing a command line.
type ParseResult struct {
	// IsCommand is true if the input starts with /
	IsCommand bool

	// Command is the matched command (nil if not found)
	Command Command

	// CommandName is the raw command name without the slash (e.g., "file")
	CommandName string

	// Args are the parsed arguments
	Args []string

	// RawInput is the original input string
	RawInput string

	// RawArgs is the unparsed arguments portion
	RawArgs string

	// TrailingSpace is true when the input ends in whitespace, meaning the
	// next argument has not been started yet.
	TrailingSpace bool
}

// Partial returns the argument list as seen by argument completion: the
// typed arguments with the partial last one, or an empty partial after a
// trailing space.
func (r ParseResult) Partial() []string {
	args := append([]string(nil), r.Args...)
	if r.TrailingSpace || len(args) == 0 {
		args = append(args, "")
	}
	return args
}

// =============================================================================
// PARSER
// =============================================================================

// Parser handles parsing of slash commands and their arguments.
type Parser struct {
	registry *Registry
}

// NewParser creates a new parser with the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse parses user input and returns the parse result.
// Returns IsCommand=false if the input doesn't start with /
func (p *Parser) Parse(input string) ParseResult {
	result := ParseResult{RawInput: input}

	trimmed := strings.TrimLeftFunc(input, unicode.IsSpace)
	if !strings.HasPrefix(trimmed, "/") {
		result.TrailingSpace = endsWithSpace(input)
		return result
	}
	result.IsCommand = true

	toks, open := scanTokens(trimmed)
	// A space inside an open quote belongs to the partial argument
	result.TrailingSpace = endsWithSpace(input) && !open
	if len(toks) == 0 {
		return result
	}

	result.CommandName = strings.TrimPrefix(toks[0].text, "/")
	for _, t := range toks[1:] {
		result.Args = append(result.Args, t.text)
	}
	if len(toks) > 1 {
		result.RawArgs = strings.TrimSpace(trimmed[toks[0].end:])
	}

	if p.registry != nil {
		result.Command, _ = p.registry.Get(result.CommandName)
	}
	return result
}

// ParseArgs parses a raw argument string into individual arguments.
// Handles quoted strings with spaces.
func ParseArgs(input string) []string {
	return splitCommandLine(input)
}

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

type token struct {
	text       string
	start, end int
}

// scanTokens splits a command line into tokens, respecting quotes, and
// records the byte span each token occupies in input including its quotes.
// open reports a quote left unterminated at the end of input.
func scanTokens(input string) (tokens []token, open bool) {
	var current strings.Builder
	var inSingleQuote, inDoubleQuote bool
	start := -1

	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, token{text: current.String(), start: start, end: end})
			current.Reset()
			start = -1
		}
	}

	for i := 0; i < len(input); i++ {
		char := input[i]
		if start < 0 && !(char < 0x80 && unicode.IsSpace(rune(char))) {
			start = i
		}

		switch {
		case char == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote

		case char == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote

		case char == '\\' && i+1 < len(input) && (inDoubleQuote || inSingleQuote):
			next := input[i+1]
			if next == '"' || next == '\'' || next == '\\' {
				current.WriteByte(next)
				i++
			} else {
				current.WriteByte(char)
			}

		case char < 0x80 && unicode.IsSpace(rune(char)) && !inSingleQuote && !inDoubleQuote:
			flush(i)

		default:
			current.WriteByte(char)
		}
	}
	flush(len(input))

	return tokens, inSingleQuote || inDoubleQuote
}

// splitCommandLine splits a command line into tokens, respecting quotes.
// Supports both single and double quotes for arguments with spaces.
func splitCommandLine(input string) []string {
	toks, _ := scanTokens(input)
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.text)
	}
	return out
}

func endsWithSpace(s string) bool {
	return s != "" && unicode.IsSpace(rune(s[len(s)-1]))
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// IsCommand returns true if the input appears to be a command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// ExtractCommandName extracts the command name without its slash.
// e.g., "/file main.go" -> "file"
func ExtractCommandName(input string) string {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return ""
	}
	end := strings.IndexFunc(input, unicode.IsSpace)
	if end == -1 {
		end = len(input)
	}
	return input[1:end]
}

// ValidationError represents an argument validation error.
type ValidationError struct {
	Command  string
	Arg      string
	Message  string
	Got      string
	Expected string
}

func (e *ValidationError) Error() string {
	msg := "/" + e.Command + ": " + e.Message
	if e.Arg != "" {
		msg += " for argument '" + e.Arg + "'"
	}
	if e.Got != "" {
		msg += " (got: " + e.Got + ")"
	}
	if e.Expected != "" {
		msg += " - expected: " + e.Expected
	}
	return msg
}

// ValidateArgs checks a command's argument requirement.
func ValidateArgs(cmd Command, args []string) error {
	if cmd == nil {
		return nil
	}
	if cmd.RequiresArgument() && len(args) == 0 {
		return &ValidationError{
			Command:  cmd.Name(),
			Message:  "required argument missing",
			Expected: UsageOf(cmd),
		}
	}
	if !AcceptsArguments(cmd) && len(args) > 0 {
		return &ValidationError{
			Command: cmd.Name(),
			Message: "takes no arguments",
			Got:     strings.Join(args, " "),
		}
	}
	return nil
}
