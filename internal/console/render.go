package console

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"github.com/omochice/toy-peer-chat/pkg/protocol"
)

const timestampLayout = "2006-01-02 15:04:05"

// Renderer prints events to the operator. Styles collapse to plain text when
// the output is not a terminal.
type Renderer struct {
	out    io.Writer
	meta   lipgloss.Style
	room   lipgloss.Style
	sender lipgloss.Style
	system lipgloss.Style
}

// NewRenderer creates a Renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	r := lipgloss.NewRenderer(out)
	return &Renderer{
		out:    out,
		meta:   r.NewStyle().Faint(true),
		room:   r.NewStyle().Foreground(lipgloss.Color("6")),
		sender: r.NewStyle().Bold(true),
		system: r.NewStyle().Foreground(lipgloss.Color("3")).Italic(true),
	}
}

// Render prints one event on its own line. Message timestamps are shown in
// local time. Control characters in peer-supplied text are replaced, so a
// peer cannot break the line or send terminal escapes.
func (r *Renderer) Render(ev protocol.Event) {
	switch ev := ev.(type) {
	case protocol.Message:
		fmt.Fprintf(r.out, "%s %s %s %s %s\n",
			r.meta.Render("["+ev.Timestamp.Local().Format(timestampLayout)+"]"),
			r.meta.Render(ev.ID.String()),
			r.room.Render("#"+printable(ev.Room)),
			r.sender.Render(printable(ev.From)+":"),
			printable(ev.Body),
		)
	case protocol.System:
		fmt.Fprintln(r.out, r.system.Render("[system] "+printable(ev.Text)))
	}
}

func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return unicode.ReplacementChar
		}
		return r
	}, s)
}
