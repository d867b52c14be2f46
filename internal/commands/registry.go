// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
	aliases  map[string]string
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

// ValidateName checks that a command name is non-empty, has no leading
// slash and contains only letters, digits, '-' and '_'.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("%w: nil command", ErrInvalidName)
	}
	name := cmd.Name()
	if err := ValidateName(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.existsLocked(name) {
		return fmt.Errorf("/%s: %w", name, ErrCommandExists)
	}
	r.commands[name] = cmd
	return nil
}

// MustRegister is like Register but panics on error. Intended for wiring
// built-in commands at startup.
func (r *Registry) MustRegister(cmds ...Command) {
	for _, cmd := range cmds {
		if err := r.Register(cmd); err != nil {
			panic(err)
		}
	}
}

// Alias makes alias resolve to the registered command name.
func (r *Registry) Alias(alias, name string) error {
	if err := ValidateName(alias); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commands[name]; !ok {
		return fmt.Errorf("/%s: %w", name, ErrUnknownCommand)
	}
	if r.existsLocked(alias) {
		return fmt.Errorf("/%s: %w", alias, ErrCommandExists)
	}
	r.aliases[alias] = name
	return nil
}

// Unregister removes a command and its aliases.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commands[name]; !ok {
		return false
	}
	delete(r.commands, name)
	for alias, target := range r.aliases {
		if target == name {
			delete(r.aliases, alias)
		}
	}
	return true
}

func (r *Registry) existsLocked(name string) bool {
	_, isCmd := r.commands[name]
	_, isAlias := r.aliases[name]
	return isCmd || isAlias
}

// Get retrieves a command by name or alias. A leading slash is ignored.
func (r *Registry) Get(name string) (Command, bool) {
	name = strings.TrimPrefix(name, "/")

	r.mu.RLock()
	defer r.mu.RUnlock()

	if cmd, ok := r.commands[name]; ok {
		return cmd, true
	}
	if target, ok := r.aliases[name]; ok {
		cmd, ok := r.commands[target]
		return cmd, ok
	}
	return nil, false
}

// Lookup is like Get but returns ErrUnknownCommand when name is missing.
func (r *Registry) Lookup(name string) (Command, error) {
	cmd, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("/%s: %w", strings.TrimPrefix(name, "/"), ErrUnknownCommand)
	}
	return cmd, nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	cmds := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	r.mu.RUnlock()

	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })
	return cmds
}

// Aliases returns the aliases of a command, sorted.
func (r *Registry) Aliases(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for alias, target := range r.aliases {
		if target == name {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Parse parses input against this registry.
func (r *Registry) Parse(input string) ParseResult {
	return NewParser(r).Parse(input)
}
