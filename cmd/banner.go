package cmd

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	bannerTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("130"))
	bannerKeyStyle   = lipgloss.NewStyle().Faint(true).Width(9)
	bannerBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
)

type banner struct {
	Title   string
	Version string
	URL     string
	Target  string
	LogFile string
}

// printBanner writes the startup banner. It is the only terminal output
// during normal operation; structured logs go to the log file.
func printBanner(w io.Writer, b banner) {
	lines := []string{
		bannerTitleStyle.Render("☕ "+b.Title) + " " + b.Version,
		"",
		bannerKeyStyle.Render("Local") + b.URL,
	}
	if b.Target != "" {
		lines = append(lines, bannerKeyStyle.Render("API")+b.Target)
	}
	lines = append(lines, bannerKeyStyle.Render("Logs")+b.LogFile)

	fmt.Fprintln(w, bannerBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

func openBrowser(url string) {
	time.Sleep(600 * time.Millisecond)
	ctx := context.Background()
	var c *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		c = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		c = exec.CommandContext(ctx, "open", url)
	default:
		c = exec.CommandContext(ctx, "xdg-open", url)
	}
	_ = c.Start()
}
