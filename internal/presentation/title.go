package presentation

import (
	"fmt"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

// maxTitleRunes bounds the window title length
const maxTitleRunes = 255

// titleWriter sets the window title with OSC 2, wrapping it for tmux
type titleWriter struct {
	output   *termenv.Output
	disabled bool
	tmux     bool
}

func newTitleWriter(output *termenv.Output, plain bool) *titleWriter {
	term := os.Getenv("TERM")
	return &titleWriter{
		output:   output,
		disabled: plain || term == "dumb" || term == "",
		tmux:     os.Getenv("TMUX") != "",
	}
}

func (w *titleWriter) set(title string) {
	if w.disabled {
		return
	}

	title = sanitizeTitle(title)
	seq := fmt.Sprintf("\x1b]2;%s\x07", title)
	if w.tmux {
		seq = fmt.Sprintf("\x1bPtmux;\x1b\x1b]2;%s\x07\x1b\\", title)
	}
	_, _ = w.output.WriteString(seq)
}

// sanitizeTitle drops control characters and limits length in runes
func sanitizeTitle(title string) string {
	var sanitized strings.Builder
	sanitized.Grow(len(title))

	for _, r := range title {
		if r >= 32 && r != 127 {
			sanitized.WriteRune(r)
		} else if r == '\t' {
			sanitized.WriteRune(' ')
		}
	}

	runes := []rune(sanitized.String())
	if len(runes) > maxTitleRunes {
		runes = runes[:maxTitleRunes]
	}
	return string(runes)
}
