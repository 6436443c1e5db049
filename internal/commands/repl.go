package commands

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/diogo/trito/internal/auth"
	"github.com/diogo/trito/internal/chat"
	apperrors "github.com/diogo/trito/internal/errors"
	"github.com/diogo/trito/internal/history"
	"github.com/diogo/trito/internal/render"
	"github.com/diogo/trito/internal/session"
	"github.com/diogo/trito/internal/tui"
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginBottom(1)

	promptStyle = lipgloss.NewStyle().
			Foreground(colorSecond).
			Bold(true)

	replNoticeStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Italic(true)

	replErrorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)
)

const maxLineSize = 1 << 20

// repl is a line-mode session driver. With a terminal it styles output and
// reads the password without echo; otherwise it prints plain text.
type repl struct {
	s       *session.Session
	opts    tui.Options
	in      *bufio.Scanner
	out     io.Writer
	errOut  io.Writer
	tty     bool
	readPwd func() ([]byte, error)
	logger  *zap.Logger
}

func runREPL(ctx context.Context, s *session.Session, deps *Dependencies, opts tui.Options) error {
	in := bufio.NewScanner(deps.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	r := &repl{
		s:       s,
		opts:    opts,
		in:      in,
		out:     deps.Stdout,
		errOut:  deps.Stderr,
		tty:     deps.StdinIsTerminal() && deps.StdoutIsTerminal(),
		readPwd: deps.ReadPassword,
		logger:  deps.logger(),
	}

	if err := r.login(); err != nil {
		return err
	}
	r.printLastReply()
	return r.loop(ctx)
}

// login reads passwords until the gate opens or input ends.
func (r *repl) login() error {
	for !r.s.Gate().IsAuthenticated() {
		fmt.Fprint(r.out, "Password: ")

		pw, err := r.readPassword()
		if err != nil {
			return err
		}
		if pw == nil {
			fmt.Fprintln(r.out)
			if err := r.s.Gate().Err(); err != nil {
				return err
			}
			return apperrors.ErrNotAuthenticated
		}

		if out := r.s.Login(pw); out.Auth == auth.Rejected {
			fmt.Fprintln(r.out, r.style(replErrorStyle, "😕 Password incorrect"))
		}
	}
	return nil
}

// readPassword returns nil at end of input.
func (r *repl) readPassword() ([]byte, error) {
	if r.tty && r.readPwd != nil {
		pw, err := r.readPwd()
		fmt.Fprintln(r.out)
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		if pw == nil {
			pw = []byte{}
		}
		return pw, nil
	}

	if !r.in.Scan() {
		return nil, r.in.Err()
	}
	pw := bytes.Clone(r.in.Bytes())
	if pw == nil {
		pw = []byte{}
	}
	return pw, nil
}

func (r *repl) loop(ctx context.Context) error {
	for {
		fmt.Fprint(r.out, r.style(promptStyle, "Vendedor> "))
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return r.in.Err()
		}
		line := r.in.Text()

		if line == chat.ResetCommand {
			if _, err := r.s.Handle(ctx, line); err != nil {
				r.printError(err)
				continue
			}
			r.notice("Conversa reiniciada")
			r.printLastReply()
			continue
		}

		switch strings.TrimSpace(line) {
		case "":
			continue
		case tui.CmdExit, tui.CmdQuit:
			return nil
		case "/export":
			r.export()
			continue
		case "/retry":
			r.call(func() error {
				_, err := r.s.Retry(ctx)
				return err
			})
			continue
		}

		r.call(func() error {
			_, err := r.s.Handle(ctx, line)
			return err
		})
	}
}

// call runs one completer-bound operation and prints its outcome. Failures
// are shown and the loop continues; the pending turn can be retried.
func (r *repl) call(fn func() error) {
	var spin *spinner
	if r.tty {
		spin = newSpinner(r.errOut, "O consultor está pensando")
		spin.start()
	}

	err := fn()

	if spin != nil {
		spin.stopWithError()
	}
	if err != nil {
		r.printError(err)
		return
	}
	r.printLastReply()
}

func (r *repl) printLastReply() {
	msgs := r.s.History()
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Role != chat.RoleAssistant {
		return
	}

	if !r.tty {
		fmt.Fprintf(r.out, "Consultor: %s\n", last.Content)
		return
	}

	width := r.opts.Render.Width
	if width <= 0 {
		width = 80
	}
	rendered := render.Reply(last.Content, r.opts.Render.ForBubble(width))
	fmt.Fprintln(r.out, assistantLabelStyle.Render("✦ Consultor"))
	fmt.Fprintln(r.out, assistantBubbleStyle.Width(width).Render(rendered))
}

func (r *repl) export() {
	conv := r.s.Conversation()
	if conv == nil {
		return
	}
	t := history.NewTranscript(r.s.ID(), r.opts.Provider, r.opts.Model, conv)
	path, err := history.WriteTranscript(r.opts.TranscriptDir, t, history.DefaultExportOptions())
	if err != nil {
		r.printError(err)
		return
	}
	r.logger.Info("transcript exported", zap.String("path", path))
	r.notice("Transcrição salva em " + path)
}

func (r *repl) notice(msg string) {
	fmt.Fprintln(r.out, r.style(replNoticeStyle, msg))
}

func (r *repl) printError(err error) {
	if r.tty {
		fmt.Fprintln(r.errOut, tui.FormatError(err))
		return
	}
	fmt.Fprintf(r.errOut, "error: %v\n", err)
}

func (r *repl) style(s lipgloss.Style, text string) string {
	if !r.tty {
		return text
	}
	return s.Render(text)
}
