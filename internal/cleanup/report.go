package cleanup

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Render formats the run summary for the terminal
func (res *Result) Render() string {
	title := "Cleanup complete"
	if res.DryRun {
		title = "Dry run: nothing was deleted"
	}

	lines := []string{titleStyle.Render(title)}
	row := func(label string, n int64) {
		lines = append(lines, fmt.Sprintf("  %-22s %s",
			labelStyle.Render(label),
			countStyle.Render(strconv.FormatInt(n, 10))))
	}
	row("chats", res.ChatsDeleted)
	row("file rows", res.FilesDeleted)
	row("collections", int64(res.CollectionsDeleted))
	row("vector chunks", res.ChunksDeleted)
	row("uploads", int64(res.UploadsDeleted))
	if res.UploadErrors > 0 {
		lines = append(lines, errorStyle.Render(
			fmt.Sprintf("  %d upload(s) could not be deleted", res.UploadErrors)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
