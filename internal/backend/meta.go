package backend

import (
	"fmt"
	"io"

	"github.com/kmowery/tinytable/internal/storage"
)

// Meta dispatches a dot command. It reports whether the session should
// end; everything except .exit keeps the session going.
func (b *Backend) Meta(input string, w io.Writer) (exit bool, err error) {
	switch input {
	case ".exit":
		return true, nil
	case ".btree":
		return false, b.table.Print(w)
	case ".constants":
		printConstants(w)
		return false, nil
	default:
		fmt.Fprintf(w, "Unrecognized command '%s'.\n", input)
		return false, nil
	}
}

func printConstants(w io.Writer) {
	fmt.Fprintf(w, "Constants:\n")
	fmt.Fprintf(w, "ROW_SIZE: %d\n", storage.RowSize)
	fmt.Fprintf(w, "COMMON_NODE_HEADER_SIZE: %d\n", storage.CommonNodeHeaderSize)
	fmt.Fprintf(w, "LEAF_NODE_HEADER_SIZE: %d\n", storage.LeafNodeHeaderSize)
	fmt.Fprintf(w, "LEAF_NODE_CELL_SIZE: %d\n", storage.LeafNodeCellSize)
	fmt.Fprintf(w, "LEAF_NODE_SPACE_FOR_CELLS: %d\n", storage.LeafNodeSpaceForCells)
	fmt.Fprintf(w, "LEAF_NODE_MAX_CELLS: %d\n", storage.LeafNodeMaxCells)
}
