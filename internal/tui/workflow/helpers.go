package workflow

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/alkime/breathewise/internal/tui/style"
)

// RenderKeyHelp renders "[key] description" followed by suffix.
func RenderKeyHelp(keyBinding key.Binding, suffix ...string) string {
	s := style.Help.Render("[") + style.Key.Render(keyBinding.Help().Key) +
		style.Help.Render("] ") +
		style.Help.Render(keyBinding.Help().Desc)

	s += strings.Join(suffix, "")

	return s
}
