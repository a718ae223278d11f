// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package format renders the minimal colored pass/fail/warn output used
// by `workflow validate` and `doctor`.
package format

import "github.com/charmbracelet/lipgloss"

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Pass renders a green "PASS" badge followed by msg.
func Pass(msg string) string { return passStyle.Render("PASS") + "  " + msg }

// Fail renders a red "FAIL" badge followed by msg.
func Fail(msg string) string { return failStyle.Render("FAIL") + "  " + msg }

// Warn renders a yellow "WARN" badge followed by msg.
func Warn(msg string) string { return warnStyle.Render("WARN") + "  " + msg }

// Dim renders msg in a muted tone, for secondary detail lines.
func Dim(msg string) string { return dimStyle.Render(msg) }

// StatusBadge colors a run/step status string by its terminal meaning.
func StatusBadge(status string) string {
	switch status {
	case "completed":
		return passStyle.Render(status)
	case "failed", "blocked":
		return failStyle.Render(status)
	case "paused", "pending_approval", "pending", "running":
		return warnStyle.Render(status)
	default:
		return status
	}
}
