package pager

import (
	"github.com/pkg/errors"

	"github.com/kmowery/tinytable/internal/storage"
)

// ErrDuplicateKey is returned when inserting a row whose id is already in
// the table.
var ErrDuplicateKey = errors.New("duplicate key")

// Table is a single-file table stored as a B+ tree of pages. The root
// always lives on page 0.
type Table struct {
	rootPage uint32
	pager    *Pager
}

// OpenTable opens the table backed by the file at path. A fresh file gets
// page 0 initialized as an empty root leaf.
func OpenTable(path string) (*Table, error) {
	p, err := Open(path)
	if err != nil {
		return nil, err
	}

	t := &Table{rootPage: 0, pager: p}

	if p.PageCount() == 0 {
		page, err := p.Page(t.rootPage)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		storage.Leaf(page).Init()
		storage.SetRoot(page, true)
	}

	return t, nil
}

// Close flushes every resident page and releases the file.
func (t *Table) Close() error {
	return t.pager.Close()
}

// Pager exposes the table's pager.
func (t *Table) Pager() *Pager {
	return t.pager
}

// RootPage returns the page number of the root node.
func (t *Table) RootPage() uint32 {
	return t.rootPage
}

// Find descends from the root to the leaf that does or would hold key.
// The returned cursor points at the matching cell or at the insertion
// point; callers check equality themselves.
func (t *Table) Find(key uint32) (*Cursor, error) {
	page, err := t.pager.Page(t.rootPage)
	if err != nil {
		return nil, err
	}

	if storage.GetNodeType(page) == storage.NodeLeaf {
		return t.leafFind(t.rootPage, key)
	}
	return t.internalFind(t.rootPage, key)
}

// Start positions a cursor on the lowest-keyed row of the table.
func (t *Table) Start() (*Cursor, error) {
	cursor, err := t.Find(0)
	if err != nil {
		return nil, err
	}

	page, err := t.pager.Page(cursor.pageNum)
	if err != nil {
		return nil, err
	}

	cursor.endOfTable = storage.Leaf(page).NumCells() == 0

	return cursor, nil
}

// Insert adds a row keyed by its id, rejecting duplicates.
func (t *Table) Insert(row storage.Row) error {
	key := row.ID

	cursor, err := t.Find(key)
	if err != nil {
		return err
	}

	page, err := t.pager.Page(cursor.pageNum)
	if err != nil {
		return err
	}

	leaf := storage.Leaf(page)
	if cursor.cellNum < leaf.NumCells() && leaf.Key(cursor.cellNum) == key {
		return ErrDuplicateKey
	}

	return t.leafInsert(cursor, key, row)
}

// leafFind binary-searches within a leaf for the first cell whose key is
// at least the searched key, or one past the last cell.
func (t *Table) leafFind(pageNum uint32, key uint32) (*Cursor, error) {
	page, err := t.pager.Page(pageNum)
	if err != nil {
		return nil, err
	}

	leaf := storage.Leaf(page)

	minIndex := uint32(0)
	onePastMax := leaf.NumCells()
	for minIndex != onePastMax {
		index := (minIndex + onePastMax) / 2
		keyAtIndex := leaf.Key(index)
		if key == keyAtIndex {
			minIndex = index
			break
		}
		if key < keyAtIndex {
			onePastMax = index
		} else {
			minIndex = index + 1
		}
	}

	return &Cursor{table: t, pageNum: pageNum, cellNum: minIndex}, nil
}

// internalFindChild returns the index of the child that should contain
// key: the least cell whose key is at least key, or NumKeys() for the
// right child.
func internalFindChild(n storage.InternalNode, key uint32) uint32 {
	minIndex := uint32(0)
	maxIndex := n.NumKeys()
	for minIndex != maxIndex {
		index := (minIndex + maxIndex) / 2
		if n.Key(index) >= key {
			maxIndex = index
		} else {
			minIndex = index + 1
		}
	}
	return minIndex
}

func (t *Table) internalFind(pageNum uint32, key uint32) (*Cursor, error) {
	page, err := t.pager.Page(pageNum)
	if err != nil {
		return nil, err
	}

	node := storage.Internal(page)
	childNum := node.Child(internalFindChild(node, key))

	childPage, err := t.pager.Page(childNum)
	if err != nil {
		return nil, err
	}

	if storage.GetNodeType(childPage) == storage.NodeLeaf {
		return t.leafFind(childNum, key)
	}
	return t.internalFind(childNum, key)
}

// nodeMaxKey resolves the greatest key reachable from a node: the last
// cell of a leaf, or the right child's maximum for an internal node.
func (t *Table) nodeMaxKey(page []byte) (uint32, error) {
	if storage.GetNodeType(page) == storage.NodeInternal {
		node := storage.Internal(page)
		rightPage, err := t.pager.Page(node.Child(node.NumKeys()))
		if err != nil {
			return 0, err
		}
		return t.nodeMaxKey(rightPage)
	}

	leaf := storage.Leaf(page)
	if leaf.NumCells() == 0 {
		return 0, nil
	}
	return leaf.Key(leaf.NumCells() - 1), nil
}

// updateInternalKey rewrites the cell key under which a child was known
// after that child's maximum changed.
func updateInternalKey(n storage.InternalNode, oldKey uint32, newKey uint32) {
	n.SetKey(internalFindChild(n, oldKey), newKey)
}

// leafInsert writes (key, row) at the cursor, shifting later cells right,
// or splits the leaf when it is full.
func (t *Table) leafInsert(cursor *Cursor, key uint32, row storage.Row) error {
	page, err := t.pager.Page(cursor.pageNum)
	if err != nil {
		return err
	}

	leaf := storage.Leaf(page)
	numCells := leaf.NumCells()

	if numCells >= storage.LeafNodeMaxCells {
		return t.leafSplitInsert(cursor, key, row)
	}

	for i := numCells; i > cursor.cellNum; i-- {
		copy(leaf.Cell(i), leaf.Cell(i-1))
	}

	leaf.SetNumCells(numCells + 1)
	leaf.SetKey(cursor.cellNum, key)
	row.Serialize(leaf.Value(cursor.cellNum))

	return nil
}

// leafSplitInsert allocates a sibling leaf, splices it into the leaf
// chain, and redistributes the full leaf's cells plus the new row evenly
// between the two. The parent is then fixed up, creating a new root if
// the split leaf was the root.
func (t *Table) leafSplitInsert(cursor *Cursor, key uint32, row storage.Row) error {
	oldPage, err := t.pager.Page(cursor.pageNum)
	if err != nil {
		return err
	}

	old := storage.Leaf(oldPage)

	oldMax, err := t.nodeMaxKey(oldPage)
	if err != nil {
		return err
	}

	newPageNum, err := t.pager.UnusedPageNum()
	if err != nil {
		return err
	}

	newPage, err := t.pager.Page(newPageNum)
	if err != nil {
		return err
	}

	newLeaf := storage.Leaf(newPage)
	newLeaf.Init()
	storage.SetNodeParent(newPage, storage.NodeParent(oldPage))
	newLeaf.SetNextLeaf(old.NextLeaf())
	old.SetNextLeaf(newPageNum)

	// Every existing cell plus the new one moves to its final slot,
	// working from the highest index down so sources are read before
	// they are overwritten.
	for i := storage.LeafNodeMaxCells; i >= 0; i-- {
		dest := old
		if i >= storage.LeafNodeLeftSplitCount {
			dest = newLeaf
		}
		indexWithinNode := uint32(i % storage.LeafNodeLeftSplitCount)

		switch {
		case uint32(i) == cursor.cellNum:
			dest.SetKey(indexWithinNode, key)
			row.Serialize(dest.Value(indexWithinNode))
		case uint32(i) > cursor.cellNum:
			copy(dest.Cell(indexWithinNode), old.Cell(uint32(i-1)))
		default:
			copy(dest.Cell(indexWithinNode), old.Cell(uint32(i)))
		}
	}

	old.SetNumCells(storage.LeafNodeLeftSplitCount)
	newLeaf.SetNumCells(storage.LeafNodeRightSplitCount)

	if storage.IsRoot(oldPage) {
		return t.createNewRoot(newPageNum)
	}

	parentPageNum := storage.NodeParent(oldPage)
	newMax, err := t.nodeMaxKey(oldPage)
	if err != nil {
		return err
	}

	parentPage, err := t.pager.Page(parentPageNum)
	if err != nil {
		return err
	}

	updateInternalKey(storage.Internal(parentPage), oldMax, newMax)
	return t.internalInsert(parentPageNum, newPageNum)
}

// createNewRoot handles splitting the root. The old root is copied to a
// fresh page, which becomes the left child; the passed-in page is the
// right child; page 0 is reinitialized as an internal node over the two.
func (t *Table) createNewRoot(rightChildPageNum uint32) error {
	rootPage, err := t.pager.Page(t.rootPage)
	if err != nil {
		return err
	}

	rightChildPage, err := t.pager.Page(rightChildPageNum)
	if err != nil {
		return err
	}

	leftChildPageNum, err := t.pager.UnusedPageNum()
	if err != nil {
		return err
	}

	leftChildPage, err := t.pager.Page(leftChildPageNum)
	if err != nil {
		return err
	}

	// A splitting leaf root arrives with the right child already
	// initialized; a splitting internal root does not.
	if storage.GetNodeType(rootPage) == storage.NodeInternal {
		storage.Internal(rightChildPage).Init()
		storage.Internal(leftChildPage).Init()
	}

	copy(leftChildPage, rootPage)
	storage.SetRoot(leftChildPage, false)

	if storage.GetNodeType(leftChildPage) == storage.NodeInternal {
		left := storage.Internal(leftChildPage)
		for i := uint32(0); i < left.NumKeys(); i++ {
			childPage, err := t.pager.Page(left.CellChild(i))
			if err != nil {
				return err
			}
			storage.SetNodeParent(childPage, leftChildPageNum)
		}
		if right := left.RightChild(); right != storage.InvalidPageNum {
			childPage, err := t.pager.Page(right)
			if err != nil {
				return err
			}
			storage.SetNodeParent(childPage, leftChildPageNum)
		}
	}

	root := storage.Internal(rootPage)
	root.Init()
	storage.SetRoot(rootPage, true)
	root.SetNumKeys(1)
	root.SetCellChild(0, leftChildPageNum)

	leftChildMax, err := t.nodeMaxKey(leftChildPage)
	if err != nil {
		return err
	}
	root.SetKey(0, leftChildMax)
	root.SetRightChild(rightChildPageNum)

	storage.SetNodeParent(leftChildPage, t.rootPage)
	storage.SetNodeParent(rightChildPage, t.rootPage)

	return nil
}

// internalInsert adds a child/key pair to parent corresponding to child,
// splitting the parent when it is already at capacity.
func (t *Table) internalInsert(parentPageNum uint32, childPageNum uint32) error {
	parentPage, err := t.pager.Page(parentPageNum)
	if err != nil {
		return err
	}

	childPage, err := t.pager.Page(childPageNum)
	if err != nil {
		return err
	}

	parent := storage.Internal(parentPage)

	childMax, err := t.nodeMaxKey(childPage)
	if err != nil {
		return err
	}

	index := internalFindChild(parent, childMax)
	originalNumKeys := parent.NumKeys()

	if originalNumKeys >= storage.InternalNodeMaxCells {
		return t.internalSplitInsert(parentPageNum, childPageNum)
	}

	// An internal node with an invalid right child is empty; this state
	// only exists transiently during an internal split.
	rightChildPageNum := parent.RightChild()
	if rightChildPageNum == storage.InvalidPageNum {
		parent.SetRightChild(childPageNum)
		storage.SetNodeParent(childPage, parentPageNum)
		return nil
	}

	rightChildPage, err := t.pager.Page(rightChildPageNum)
	if err != nil {
		return err
	}

	rightChildMax, err := t.nodeMaxKey(rightChildPage)
	if err != nil {
		return err
	}

	parent.SetNumKeys(originalNumKeys + 1)

	if childMax > rightChildMax {
		// The new child supersedes the right child, which moves into the
		// cell array under its own maximum.
		parent.SetCellChild(originalNumKeys, rightChildPageNum)
		parent.SetKey(originalNumKeys, rightChildMax)
		parent.SetRightChild(childPageNum)
		storage.SetNodeParent(childPage, parentPageNum)
		storage.SetNodeParent(rightChildPage, parentPageNum)
		return nil
	}

	for i := originalNumKeys; i > index; i-- {
		copy(parent.Cell(i), parent.Cell(i-1))
	}

	parent.SetCellChild(index, childPageNum)
	parent.SetKey(index, childMax)
	storage.SetNodeParent(childPage, parentPageNum)

	return nil
}

// internalSplitInsert splits a full internal node while inserting a new
// child. The upper half of the children move to a fresh sibling via
// internalInsert, the promoted middle child becomes the old node's right
// child, and the parent is fixed up. At most one split happens per level
// on the way up.
func (t *Table) internalSplitInsert(parentPageNum uint32, childPageNum uint32) error {
	oldPageNum := parentPageNum

	oldPage, err := t.pager.Page(oldPageNum)
	if err != nil {
		return err
	}

	oldMax, err := t.nodeMaxKey(oldPage)
	if err != nil {
		return err
	}

	childPage, err := t.pager.Page(childPageNum)
	if err != nil {
		return err
	}

	childMax, err := t.nodeMaxKey(childPage)
	if err != nil {
		return err
	}

	newPageNum, err := t.pager.UnusedPageNum()
	if err != nil {
		return err
	}

	splittingRoot := storage.IsRoot(oldPage)

	var parentPage []byte
	var newPage []byte
	if splittingRoot {
		if err := t.createNewRoot(newPageNum); err != nil {
			return err
		}
		parentPage, err = t.pager.Page(t.rootPage)
		if err != nil {
			return err
		}

		// The old node's contents were moved to the new root's left
		// child; newPageNum already is the new root's right child.
		oldPageNum = storage.Internal(parentPage).CellChild(0)
		oldPage, err = t.pager.Page(oldPageNum)
		if err != nil {
			return err
		}
	} else {
		parentPage, err = t.pager.Page(storage.NodeParent(oldPage))
		if err != nil {
			return err
		}
		newPage, err = t.pager.Page(newPageNum)
		if err != nil {
			return err
		}
		storage.Internal(newPage).Init()
	}

	old := storage.Internal(oldPage)

	// The right child moves first, leaving the old node transiently
	// without one.
	curPageNum := old.RightChild()
	curPage, err := t.pager.Page(curPageNum)
	if err != nil {
		return err
	}
	if err := t.internalInsert(newPageNum, curPageNum); err != nil {
		return err
	}
	storage.SetNodeParent(curPage, newPageNum)
	old.SetRightChild(storage.InvalidPageNum)

	// Move children above the middle key over to the new node.
	for i := storage.InternalNodeMaxCells - 1; i > storage.InternalNodeMaxCells/2; i-- {
		curPageNum = old.CellChild(uint32(i))
		curPage, err = t.pager.Page(curPageNum)
		if err != nil {
			return err
		}
		if err := t.internalInsert(newPageNum, curPageNum); err != nil {
			return err
		}
		storage.SetNodeParent(curPage, newPageNum)
		old.SetNumKeys(old.NumKeys() - 1)
	}

	// The highest remaining child is promoted to the old node's right
	// child.
	old.SetRightChild(old.CellChild(old.NumKeys() - 1))
	old.SetNumKeys(old.NumKeys() - 1)

	maxAfterSplit, err := t.nodeMaxKey(oldPage)
	if err != nil {
		return err
	}

	destinationPageNum := newPageNum
	if childMax < maxAfterSplit {
		destinationPageNum = oldPageNum
	}

	if err := t.internalInsert(destinationPageNum, childPageNum); err != nil {
		return err
	}
	storage.SetNodeParent(childPage, destinationPageNum)

	newOldMax, err := t.nodeMaxKey(oldPage)
	if err != nil {
		return err
	}
	updateInternalKey(storage.Internal(parentPage), oldMax, newOldMax)

	if !splittingRoot {
		if err := t.internalInsert(storage.NodeParent(oldPage), newPageNum); err != nil {
			return err
		}
		storage.SetNodeParent(newPage, storage.NodeParent(oldPage))
	}

	return nil
}
