package shell

import (
	"bufio"
	"io"

	"github.com/wippyai/tysh/errors"
)

// RunLines reads commands from in until exit or end of input, printing the
// prompt before every line.
func RunLines(s *Session, in io.Reader, prompt string) error {
	sc := bufio.NewScanner(in)
	for {
		s.printf("%s", s.theme.Prompt(prompt))
		if !sc.Scan() {
			break
		}
		if s.Exec(sc.Text()) {
			return nil
		}
	}
	// Leave the shell's own prompt line terminated on EOF.
	s.println()
	if err := sc.Err(); err != nil {
		return errors.Wrap(errors.PhaseParse, errors.KindInvalidInput, err, "read command")
	}
	return nil
}
