// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Display current configuration
//   get <key>           Print one value
//   set <key> <value>   Set a value and save
//   reset               Save the default configuration
//   path                Show the configuration file path
//
// Keys use dot notation matching the TOML file, e.g. commands.max_files or
// runner.timeout_secs. Lists are comma separated.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/slashcmd/internal/config"
)

var (
	configSectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	configKeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(24)
	configValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	configPathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

// HandleConfig handles the "config" command.
func HandleConfig(app *App, args Args) error {
	switch args.Subcommand {
	case "", "show":
		if args.JSON {
			_, err := fmt.Fprintln(app.Out, app.Config.String())
			return err
		}
		return handleConfigShow(app)
	case "get":
		return handleConfigGet(app, args.ConfigKey)
	case "set":
		return handleConfigSet(app, args.ConfigKey, args.ConfigVal)
	case "reset":
		return handleConfigReset(app)
	case "path":
		path, err := app.configPath()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(app.Out, path)
		return err
	default:
		return usagef("unknown config subcommand: %s", args.Subcommand)
	}
}

// configPath returns the file config set and reset write to.
func (a *App) configPath() (string, error) {
	if a.ConfigPath != "" {
		return a.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

func handleConfigShow(app *App) error {
	section := ""
	for _, key := range config.GetAllKeys() {
		group, name, _ := strings.Cut(key, ".")
		if group != section {
			if section != "" {
				fmt.Fprintln(app.Out)
			}
			section = group
			fmt.Fprintln(app.Out, RenderConditional(configSectionStyle, "["+group+"]"))
		}
		if name == "" {
			name = group
		}
		value, err := app.Config.Get(key)
		if err != nil {
			return err
		}
		if ColorsEnabled() {
			fmt.Fprintf(app.Out, "  %s %s\n", configKeyStyle.Render(name+":"), configValueStyle.Render(formatConfigValue(value)))
		} else {
			fmt.Fprintf(app.Out, "  %-24s %s\n", name+":", formatConfigValue(value))
		}
	}

	path, err := app.configPath()
	if err == nil {
		fmt.Fprintf(app.Out, "\nConfig file: %s\n", RenderConditional(configPathStyle, path))
	}
	return nil
}

func handleConfigGet(app *App, key string) error {
	if key == "" {
		return usagef("config get: missing key")
	}
	value, err := app.Config.Get(key)
	if err != nil {
		return &CommandError{Command: "config", Action: "get", Err: err}
	}
	_, err = fmt.Fprintln(app.Out, formatConfigValue(value))
	return err
}

// handleConfigSet applies the change to a copy, validates it and saves.
// The running configuration is only replaced once the file is written.
func handleConfigSet(app *App, key, value string) error {
	if key == "" {
		return usagef("config set: missing key")
	}
	updated := app.Config.Clone()
	if err := updated.Set(key, value); err != nil {
		return &CommandError{Command: "config", Action: "set", Err: err}
	}
	if err := updated.Validate(); err != nil {
		return &CommandError{Command: "config", Action: "set", Err: err}
	}

	path, err := app.configPath()
	if err != nil {
		return err
	}
	if err := config.SaveTOML(updated, path); err != nil {
		return &CommandError{Command: "config", Action: "save", Err: err}
	}
	*app.Config = *updated

	got, _ := updated.Get(key)
	fmt.Fprintf(app.Out, "%s %s = %s\n", RenderConditional(SuccessStyle, "[OK]"), key, formatConfigValue(got))
	return nil
}

func handleConfigReset(app *App) error {
	path, err := app.configPath()
	if err != nil {
		return err
	}
	defaults := config.Default()
	if err := config.SaveTOML(defaults, path); err != nil {
		return &CommandError{Command: "config", Action: "reset", Err: err}
	}
	*app.Config = *defaults
	fmt.Fprintf(app.Out, "%s Configuration reset to defaults\n", RenderConditional(SuccessStyle, "[OK]"))
	fmt.Fprintf(app.Out, "Config file: %s\n", RenderConditional(configPathStyle, path))
	return nil
}

// formatConfigValue prints lists comma separated, the form set accepts.
func formatConfigValue(v any) string {
	switch val := v.(type) {
	case []string:
		return strings.Join(val, ",")
	case string:
		if val == "" {
			return `""`
		}
		return val
	default:
		return fmt.Sprint(val)
	}
}
