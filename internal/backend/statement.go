package backend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/kmowery/tinytable/internal/storage"
)

// Prepare errors. These surface to the user as a single line of output
// and the session continues.
var (
	ErrNegativeID    = errors.New("id must be positive")
	ErrStringTooLong = errors.New("string is too long")
	ErrSyntax        = errors.New("could not parse statement")
)

// UnrecognizedKeywordError reports input that starts with no known
// statement keyword.
type UnrecognizedKeywordError struct {
	Input string
}

func (e UnrecognizedKeywordError) Error() string {
	return fmt.Sprintf("unrecognized keyword at start of %q", e.Input)
}

// Statement is a prepared statement ready to execute.
type Statement interface {
	statement()
}

// InsertStatement inserts one row.
type InsertStatement struct {
	Row storage.Row
}

// SelectStatement scans every row in key order.
type SelectStatement struct{}

func (InsertStatement) statement() {}
func (SelectStatement) statement() {}

// Prepare parses one line of input into a statement.
func Prepare(input string) (Statement, error) {
	if strings.HasPrefix(input, "insert") {
		return prepareInsert(input)
	}

	if input == "select" {
		return SelectStatement{}, nil
	}

	return nil, UnrecognizedKeywordError{Input: input}
}

func prepareInsert(input string) (Statement, error) {
	fields := strings.Fields(input)
	if len(fields) < 4 {
		return nil, ErrSyntax
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, ErrSyntax
	}
	if id < 0 {
		return nil, ErrNegativeID
	}

	username := fields[2]
	email := fields[3]

	if len(username) > storage.UsernameSize {
		return nil, ErrStringTooLong
	}
	if len(email) > storage.EmailSize {
		return nil, ErrStringTooLong
	}

	return InsertStatement{
		Row: storage.Row{
			ID:       uint32(id),
			Username: username,
			Email:    email,
		},
	}, nil
}
