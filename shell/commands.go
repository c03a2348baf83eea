package shell

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/wippyai/tysh/errors"
	"github.com/wippyai/tysh/render"
	"github.com/wippyai/tysh/typedb"
)

// helpColumn is the width the command name is padded to in help output.
const helpColumn = 12

// Command is one entry of the command table. Run reports whether the
// session should end.
type Command struct {
	Run         func(s *Session, args string) bool
	Name        string
	Description string
}

// NewCommands returns the command table in help order.
func NewCommands() []Command {
	return []Command{
		{Name: "list", Run: (*Session).list, Description: "print names of ALL types, or types containing a string"},
		{Name: "info", Run: (*Session).info, Description: "print a summary of a type"},
		{Name: "def", Run: (*Session).def, Description: "print a type as a pseudo-Rust definition"},
		{Name: "sizeof", Run: (*Session).sizeof, Description: "print size of type in bytes"},
		{Name: "alignof", Run: (*Session).alignof, Description: "print alignment of type in bytes"},
		{Name: "addr2line", Run: (*Session).addr2line, Description: "look up line number information"},
		{Name: "help", Run: (*Session).help, Description: "print this list of commands"},
		{Name: "exit", Run: (*Session).exit, Description: "leave the shell"},
	}
}

func lookup(commands []Command, name string) (Command, bool) {
	for _, c := range commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

func (s *Session) named(g typedb.Goff) string {
	return render.NamedGoff(s.db, g, s.theme)
}

func (s *Session) list(args string) bool {
	filter := strings.TrimSpace(args)
	for g := range s.db.All() {
		if filter != "" {
			if name, ok := s.db.NameFromGoff(g); ok && !strings.Contains(name, filter) {
				continue
			}
		}
		s.println(s.named(g))
	}
	return false
}

func (s *Session) info(args string) bool {
	s.query(args, func(_ typedb.Goff, t typedb.Type) {
		if err := render.Summary(s.out, s.db, t, s.theme); err != nil {
			s.println(s.theme.Error(errors.Message(err)))
		}
	})
	return false
}

func (s *Session) def(args string) bool {
	s.query(args, func(_ typedb.Goff, t typedb.Type) {
		s.println()
		if err := render.Definition(s.out, s.db, t); err != nil {
			s.println(s.theme.Error(errors.Message(err)))
		}
	})
	return false
}

func (s *Session) sizeof(args string) bool {
	s.query(args, func(_ typedb.Goff, t typedb.Type) {
		if n, ok := s.calc.SizeOf(t); ok {
			s.printf("%d bytes\n", n)
		} else {
			s.println("unsized")
		}
	})
	return false
}

func (s *Session) alignof(args string) bool {
	s.query(args, func(_ typedb.Goff, t typedb.Type) {
		if n, ok := s.calc.AlignOf(t); ok {
			s.printf("align to %d bytes\n", n)
		} else {
			s.println("no alignment information")
		}
	})
	return false
}

func (s *Session) addr2line(args string) bool {
	arg := strings.TrimSpace(args)
	addr, err := parseAddr(arg)
	if err != nil {
		s.println(errors.Message(err))
		return false
	}
	row, ok := s.db.LookupLineRow(addr)
	if !ok {
		s.println("no line number information available for address")
		return false
	}
	s.println(row.String())
	return false
}

// parseAddr accepts 0x-prefixed hex or plain decimal.
func parseAddr(arg string) (uint64, error) {
	var (
		v   uint64
		err error
	)
	if hex, ok := strings.CutPrefix(arg, "0x"); ok {
		v, err = strconv.ParseUint(hex, 16, 64)
	} else {
		v, err = strconv.ParseUint(arg, 10, 64)
	}
	if err != nil {
		return 0, errors.New(errors.PhaseParse, errors.KindInvalidInput).
			Value(arg).
			Cause(err).
			Detail("can't parse %s as an address", arg).
			Build()
	}
	return v, nil
}

func (s *Session) help(string) bool {
	s.println("commands:")
	for _, c := range s.commands {
		s.printf("%s %s\n", runewidth.FillRight(c.Name, helpColumn), c.Description)
	}
	return false
}

func (s *Session) exit(string) bool {
	return true
}
