package blocker

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"ipdnb/internal/domain"
)

// Notifier receives the user-facing events of a run.
type Notifier interface {
	Blocked(record domain.BlockedIP)
	FileNotFound(path string)
}

type ConsoleNotifier struct {
	out      io.Writer
	tagStyle lipgloss.Style
	errStyle lipgloss.Style
}

func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	renderer := lipgloss.NewRenderer(out)
	return &ConsoleNotifier{
		out:      out,
		tagStyle: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		errStyle: renderer.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

func (n *ConsoleNotifier) Blocked(record domain.BlockedIP) {
	fmt.Fprintf(n.out, "%s IP %s has been blocked due to suspicious activity.\n",
		n.tagStyle.Render("[BLOCKED]"), record.IP)
}

func (n *ConsoleNotifier) FileNotFound(path string) {
	fmt.Fprintln(n.out, n.errStyle.Render(fmt.Sprintf("Error reading file %s!! Check if this file exists or not?", path)))
}

type discardNotifier struct{}

func (discardNotifier) Blocked(domain.BlockedIP) {}
func (discardNotifier) FileNotFound(string)      {}
