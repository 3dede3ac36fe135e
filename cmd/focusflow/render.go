package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"focusflow/internal/engine"
	"focusflow/internal/model"
	"focusflow/internal/timer"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	focusStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	breakStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	noticeStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#F59E0B"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func formatDuration(seconds int) string {
	h, m := seconds/3600, (seconds%3600)/60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func renderTask(task model.Task) string {
	meta := subtleStyle.Render(fmt.Sprintf("%s · %d sessions", task.ID, task.FocusSessions))
	switch {
	case task.Completed:
		return doneStyle.Render("[x]") + " " + task.Title + "  " + meta
	case task.IsFocusing:
		return focusStyle.Render("[>]") + " " + task.Title + "  " + meta
	}
	return "[ ] " + task.Title + "  " + meta
}

func renderTasks(tasks []model.Task) string {
	if len(tasks) == 0 {
		return subtleStyle.Render("no tasks")
	}
	lines := make([]string, 0, len(tasks))
	for _, task := range tasks {
		lines = append(lines, renderTask(task))
	}
	return strings.Join(lines, "\n")
}

func renderTimer(snap engine.Snapshot) string {
	st := snap.Timer
	phase := focusStyle.Render("focus")
	if st.Phase == timer.ShortBreak {
		phase = breakStyle.Render("break")
	}
	state := "paused"
	if st.Running {
		state = "running"
	}

	title := subtleStyle.Render("no task selected")
	for _, task := range snap.Tasks {
		if task.ID == snap.FocusedID {
			title = task.Title
		}
	}
	return fmt.Sprintf("%s %s  session %d/%d  %s  %s",
		phase, titleStyle.Render(formatClock(st.SecondsRemaining)), st.SessionCount+1, st.SessionCycle,
		subtleStyle.Render(state), title)
}

func renderSettings(cfg model.CycleConfig) string {
	rows := [][2]string{
		{"focus", formatClock(cfg.FocusTime)},
		{"short break", formatClock(cfg.ShortBreak)},
		{"long break", formatClock(cfg.LongBreak)},
		{"cycle", fmt.Sprintf("%d sessions", cfg.SessionCycle)},
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cellStyle.Width(14).Render(row[0]), row[1]))
	}
	return strings.Join(lines, "\n")
}

func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	render := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = cellStyle.Width(widths[i] + 2).Render(style.Render(cell))
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}

	lines := []string{render(header, headerStyle)}
	for _, row := range rows {
		lines = append(lines, render(row, lipgloss.NewStyle()))
	}
	return strings.Join(lines, "\n")
}
