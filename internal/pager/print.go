package pager

import (
	"fmt"
	"io"
	"strings"

	"github.com/kmowery/tinytable/internal/storage"
)

// Print writes a pre-order rendering of the tree, three spaces of indent
// per level.
func (t *Table) Print(w io.Writer) error {
	return t.printNode(w, t.rootPage, 0)
}

func (t *Table) printNode(w io.Writer, pageNum uint32, level int) error {
	page, err := t.pager.Page(pageNum)
	if err != nil {
		return err
	}

	indent := strings.Repeat("   ", level)

	switch storage.GetNodeType(page) {
	case storage.NodeLeaf:
		leaf := storage.Leaf(page)
		numCells := leaf.NumCells()
		fmt.Fprintf(w, "%s- leaf (size %d)\n", indent, numCells)
		for i := uint32(0); i < numCells; i++ {
			fmt.Fprintf(w, "%s   - %d\n", indent, leaf.Key(i))
		}

	case storage.NodeInternal:
		node := storage.Internal(page)
		numKeys := node.NumKeys()
		fmt.Fprintf(w, "%s- internal (size %d)\n", indent, numKeys)
		if numKeys > 0 {
			for i := uint32(0); i < numKeys; i++ {
				if err := t.printNode(w, node.Child(i), level+1); err != nil {
					return err
				}
				fmt.Fprintf(w, "%s   - key %d\n", indent, node.Key(i))
			}
			if err := t.printNode(w, node.Child(numKeys), level+1); err != nil {
				return err
			}
		}
	}

	return nil
}
