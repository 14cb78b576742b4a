// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling shared by the legalai REPL and TUI.

All colors use Lip Gloss AdaptiveColor so one palette serves light and dark
terminals. NewTheme resolves the background ("auto", "dark" or "light") once
and builds every style from the palette.

# Palette

  - Teal - brand, user messages, prompts
  - Indigo - assistant replies, selections
  - Emerald, Amber, Rose, Sky - success, warning, error, info

Status text always carries an ASCII marker ([OK], [X], [!], [i]) next to its
color.
*/
package styles
