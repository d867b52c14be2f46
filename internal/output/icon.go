// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

// Icon is an opaque visual token attached to a section. Renderers map known
// icons to glyphs and fall back to a generic marker for unknown ones.
type Icon string

// Well-known icons.
const (
	IconNone            Icon = ""
	IconCode            Icon = "code"
	IconCheck           Icon = "check"
	IconFile            Icon = "file"
	IconFileCode        Icon = "file_code"
	IconFileDoc         Icon = "file_doc"
	IconFileGit         Icon = "file_git"
	IconFileToml        Icon = "file_toml"
	IconFileTree        Icon = "file_tree"
	IconFolder          Icon = "folder"
	IconCountdownTimer  Icon = "countdown_timer"
	IconMagnifyingGlass Icon = "magnifying_glass"
	IconTerminal        Icon = "terminal"
	IconWarning         Icon = "warning"
	IconLibrary         Icon = "library"
	IconSlashCommand    Icon = "slash_command"
)

var knownIcons = map[Icon]bool{
	IconCode:            true,
	IconCheck:           true,
	IconFile:            true,
	IconFileCode:        true,
	IconFileDoc:         true,
	IconFileGit:         true,
	IconFileToml:        true,
	IconFileTree:        true,
	IconFolder:          true,
	IconCountdownTimer:  true,
	IconMagnifyingGlass: true,
	IconTerminal:        true,
	IconWarning:         true,
	IconLibrary:         true,
	IconSlashCommand:    true,
}

// Known reports whether the icon is one of the well-known constants.
func (i Icon) Known() bool {
	return knownIcons[i]
}

// String returns the icon token.
func (i Icon) String() string {
	return string(i)
}
