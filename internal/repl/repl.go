package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/kmowery/tinytable/internal/backend"
	"github.com/kmowery/tinytable/internal/pager"
)

// Prompt is printed before every line of input.
const Prompt = "db > "

// Run reads statements line by line until .exit or end of input.
// Recoverable statement errors are rendered to out and the loop
// continues; anything else is fatal and returned to the caller with the
// in-memory state considered corrupt.
func Run(b *backend.Backend, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, Prompt)

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return errors.Wrap(err, "error reading input")
			}
			return nil
		}

		input := scanner.Text()

		if strings.HasPrefix(input, ".") {
			exit, err := b.Meta(input, out)
			if err != nil {
				return err
			}
			if exit {
				return nil
			}
			continue
		}

		stmt, err := backend.Prepare(input)
		if err != nil {
			fmt.Fprintln(out, prepareMessage(err))
			continue
		}

		if err := b.Exec(stmt, out); err != nil {
			switch {
			case errors.Is(err, pager.ErrDuplicateKey):
				fmt.Fprintln(out, "Error: Duplicate key.")
			case errors.Is(err, pager.ErrTableFull):
				fmt.Fprint(out, "Error: Table is full")
			default:
				return err
			}
			continue
		}

		fmt.Fprintln(out, "Executed.")
	}
}

func prepareMessage(err error) string {
	var unrecognized backend.UnrecognizedKeywordError
	if errors.As(err, &unrecognized) {
		return fmt.Sprintf("Unrecognized keyword at start of '%s'.", unrecognized.Input)
	}

	switch {
	case errors.Is(err, backend.ErrNegativeID):
		return "ID must be positive."
	case errors.Is(err, backend.ErrStringTooLong):
		return "String is too long."
	default:
		return "Syntax error. Could not parse statement."
	}
}
