package shell

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/wippyai/tysh/errors"
	"github.com/wippyai/tysh/layout"
	"github.com/wippyai/tysh/typedb"
)

// Options configures a Session.
type Options struct {
	Theme Theme
	// MaxDepth bounds layout recursion; 0 keeps layout.DefaultMaxDepth.
	MaxDepth int
}

// Session executes command lines against one snapshot.
type Session struct {
	db       *typedb.Types
	calc     *layout.Calculator
	out      io.Writer
	theme    Theme
	commands []Command
}

// NewSession returns a session printing to out.
func NewSession(db *typedb.Types, out io.Writer, opts Options) *Session {
	theme := opts.Theme
	if theme == nil {
		theme = PlainTheme{}
	}
	calc := layout.NewCalculator(db, db.PointerSize())
	if opts.MaxDepth > 0 {
		calc.SetMaxDepth(opts.MaxDepth)
	}
	return &Session{
		db:       db,
		calc:     calc,
		out:      out,
		theme:    theme,
		commands: NewCommands(),
	}
}

// SetOutput redirects subsequent command output.
func (s *Session) SetOutput(w io.Writer) {
	s.out = w
}

// Theme returns the session's theme.
func (s *Session) Theme() Theme {
	return s.theme
}

// Banner prints the startup lines.
func (s *Session) Banner() {
	s.printf("Loaded; %d types found in program.\n", s.db.TypeCount())
	s.printf("To quit: ^D or exit\n")
}

// Exec runs one command line and reports whether the session should end.
func (s *Session) Exec(line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	name, args := line, ""
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		_, n := utf8.DecodeRuneInString(line[i:])
		name, args = line[:i], line[i+n:]
	}

	cmd, ok := lookup(s.commands, name)
	if !ok {
		s.printf("unknown command: %s\n", name)
		s.printf("for help, try: help\n")
		return false
	}
	Logger().Debug("exec", zap.String("command", name), zap.String("args", args))
	return cmd.Run(s, args)
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Session) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

// query resolves a type argument and calls show for every match, each
// preceded by its "Name <goff>: " header.
func (s *Session) query(args string, show func(g typedb.Goff, t typedb.Type)) {
	ref := strings.TrimSpace(args)

	var matches []typedb.Entry
	if typedb.LooksLikeGoff(ref) {
		g, err := typedb.ParseGoff(ref)
		if err != nil {
			s.println(errors.Message(err))
			return
		}
		if t, ok := s.db.TypeFromGoff(g); ok {
			matches = []typedb.Entry{{Goff: g, Type: t}}
		}
	} else {
		matches = s.db.TypesByName(ref)
	}

	switch n := len(matches); {
	case n == 0:
		s.println(s.theme.Error("No types found."))
		return
	case n > 1:
		s.printf("%s%d types found with that name:\n", s.theme.Note("note: "), n)
	}

	for i, m := range matches {
		if i > 0 {
			s.println()
		}
		s.printf("%s: ", s.named(m.Goff))
		show(m.Goff, m.Type)
	}
}
