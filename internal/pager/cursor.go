package pager

import (
	"github.com/kmowery/tinytable/internal/storage"
)

// Cursor is a position on the leaf chain: a leaf page, a cell within it,
// and an end-of-table marker. Any mutating call on the table invalidates
// previously obtained cursors.
type Cursor struct {
	table      *Table
	pageNum    uint32
	cellNum    uint32
	endOfTable bool
}

// PageNum returns the leaf page the cursor points at.
func (c *Cursor) PageNum() uint32 {
	return c.pageNum
}

// CellNum returns the cell index the cursor points at.
func (c *Cursor) CellNum() uint32 {
	return c.cellNum
}

// EndOfTable reports whether the cursor has run off the end of the leaf
// chain.
func (c *Cursor) EndOfTable() bool {
	return c.endOfTable
}

// Row reads the row under the cursor.
func (c *Cursor) Row() (storage.Row, error) {
	page, err := c.table.pager.Page(c.pageNum)
	if err != nil {
		return storage.Row{}, err
	}

	return storage.DeserializeRow(storage.Leaf(page).Value(c.cellNum)), nil
}

// Advance moves the cursor one cell forward, following the leaf chain
// across page boundaries. A zero next-leaf pointer marks the end: page 0
// is always the root, so no chain ever legitimately points there.
func (c *Cursor) Advance() error {
	page, err := c.table.pager.Page(c.pageNum)
	if err != nil {
		return err
	}

	leaf := storage.Leaf(page)

	c.cellNum++
	if c.cellNum >= leaf.NumCells() {
		next := leaf.NextLeaf()
		if next == 0 {
			c.endOfTable = true
		} else {
			c.pageNum = next
			c.cellNum = 0
		}
	}

	return nil
}
