// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// output.go - JSON and table output for command results.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/AnuGuin/legalai/internal/util"
)

// =============================================================================
// JSON RESPONSES
// =============================================================================

// JSONResponse is the envelope every command prints in --json mode.
type JSONResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Error     *string     `json:"error"`
	Timestamp string      `json:"timestamp"`
	Command   string      `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates an error response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w with indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// =============================================================================
// TABLES
// =============================================================================

// Column is one table column. Max caps the column width (0 = unlimited).
type Column struct {
	Header string
	Max    int
}

// RenderTable lays rows out in aligned columns. Cells are flattened to one
// line and truncated by display width, so wide runes line up.
func RenderTable(w io.Writer, cols []Column, rows [][]string) {
	widths := make([]int, len(cols))
	cells := make([][]string, len(rows))
	for i, c := range cols {
		widths[i] = runewidth.StringWidth(c.Header)
	}
	for r, row := range rows {
		cells[r] = make([]string, len(cols))
		for i := range cols {
			if i >= len(row) {
				continue
			}
			cell := util.SingleLine(row[i])
			if cols[i].Max > 0 {
				cell = util.TruncateWidth(cell, cols[i].Max)
			}
			cells[r][i] = cell
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = util.PadRight(c.Header, widths[i])
	}
	fmt.Fprintln(w, TitleStyle.Render(strings.TrimRight(strings.Join(header, "  "), " ")))

	for _, row := range cells {
		line := make([]string, len(cols))
		for i, cell := range row {
			line[i] = util.PadRight(cell, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(line, "  "), " "))
	}
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatTime renders t for tables, or "-" when unset.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// formatAge renders how long ago t was, e.g. "5m ago".
func formatAge(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
	return t.Local().Format("2006-01-02")
}
