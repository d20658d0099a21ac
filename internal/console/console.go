// Package console binds the process to its terminal streams and decides
// whether messages are styled.
package console

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"
)

// Console holds the streams prompts, reports and errors go through
type Console struct {
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
	Styled bool

	restore func() error
}

// Attach binds stdin, stdout and stderr. On Windows it also enables ANSI
// sequence processing for the session; call Detach to undo it.
func Attach() *Console {
	c := &Console{
		In:     os.Stdin,
		Out:    os.Stdout,
		Err:    os.Stderr,
		Styled: DetectStyled(os.Stdout),
	}

	if c.Styled {
		restore, err := termenv.EnableVirtualTerminalProcessing(termenv.NewOutput(os.Stdout))
		if err != nil {
			c.Styled = false
		} else {
			c.restore = restore
		}
	}
	return c
}

// New creates a console over arbitrary streams
func New(in io.Reader, out, errOut io.Writer, styled bool) *Console {
	return &Console{In: in, Out: out, Err: errOut, Styled: styled}
}

// Detach restores the terminal mode changed by Attach
func (c *Console) Detach() error {
	if c.restore == nil {
		return nil
	}
	restore := c.restore
	c.restore = nil
	return restore()
}

// DetectStyled reports whether output is a colour-capable terminal
func DetectStyled(output *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	if !isatty.IsTerminal(output.Fd()) && !isatty.IsCygwinTerminal(output.Fd()) {
		return false
	}

	return termenv.ColorProfile() != termenv.Ascii
}

func (c *Console) Warn(s string) string {
	return c.paint(pterm.NewStyle(pterm.FgYellow, pterm.Bold), s)
}

func (c *Console) Error(s string) string {
	return c.paint(pterm.NewStyle(pterm.FgRed), s)
}

func (c *Console) Success(s string) string {
	return c.paint(pterm.NewStyle(pterm.FgGreen), s)
}

func (c *Console) Bold(s string) string {
	return c.paint(pterm.NewStyle(pterm.Bold), s)
}

func (c *Console) paint(style *pterm.Style, s string) string {
	if !c.Styled {
		return s
	}
	return style.Sprint(s)
}
