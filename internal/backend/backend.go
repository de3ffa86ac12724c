package backend

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kmowery/tinytable/internal/pager"
)

// Backend executes prepared statements against one open table.
type Backend struct {
	table *pager.Table
	log   logrus.FieldLogger
}

// Open opens the database file at path and wraps it in a backend.
func Open(log logrus.FieldLogger, path string) (*Backend, error) {
	table, err := pager.OpenTable(path)
	if err != nil {
		return nil, err
	}

	log.WithField("path", path).Debug("database open")

	return &Backend{
		table: table,
		log:   log,
	}, nil
}

// Close flushes and releases the underlying table.
func (b *Backend) Close() error {
	b.log.Debug("database close")
	return b.table.Close()
}

// Table exposes the backend's table.
func (b *Backend) Table() *pager.Table {
	return b.table
}

// Exec runs a prepared statement. Select output goes to w; recoverable
// statement failures come back as errors for the caller to render.
func (b *Backend) Exec(stmt Statement, w io.Writer) error {
	switch s := stmt.(type) {
	case InsertStatement:
		return b.execInsert(s)
	case SelectStatement:
		return b.execSelect(w)
	default:
		return errors.Errorf("unhandled statement type %T", stmt)
	}
}

func (b *Backend) execInsert(stmt InsertStatement) error {
	if err := b.table.Insert(stmt.Row); err != nil {
		if errors.Is(err, pager.ErrDuplicateKey) || errors.Is(err, pager.ErrTableFull) {
			b.log.WithError(err).WithField("id", stmt.Row.ID).Debug("insert rejected")
		}
		return err
	}

	b.log.WithField("id", stmt.Row.ID).Debug("insert")
	return nil
}

func (b *Backend) execSelect(w io.Writer) error {
	cursor, err := b.table.Start()
	if err != nil {
		return err
	}

	count := 0
	for !cursor.EndOfTable() {
		row, err := cursor.Row()
		if err != nil {
			return err
		}

		fmt.Fprintln(w, row.String())
		count++

		if err := cursor.Advance(); err != nil {
			return err
		}
	}

	b.log.WithField("rows", count).Debug("select")
	return nil
}
