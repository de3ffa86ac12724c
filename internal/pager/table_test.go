package pager

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/kmowery/tinytable/internal/storage"
)

type TableTestSuite struct {
	suite.Suite
	dir string
}

func (s *TableTestSuite) SetupTest() {
	dir, err := os.MkdirTemp("", "table-test-*")
	s.NoError(err)
	s.dir = dir
}

func (s *TableTestSuite) TearDownTest() {
	_ = os.RemoveAll(s.dir)
}

func TestTableTestSuite(t *testing.T) {
	suite.Run(t, new(TableTestSuite))
}

func (s *TableTestSuite) open(name string) *Table {
	t, err := OpenTable(filepath.Join(s.dir, name))
	s.Require().NoError(err)
	return t
}

func rowFor(id uint32) storage.Row {
	return storage.Row{
		ID:       id,
		Username: fmt.Sprintf("user%d", id),
		Email:    fmt.Sprintf("person%d@example.com", id),
	}
}

func (s *TableTestSuite) insert(t *Table, ids ...uint32) {
	for _, id := range ids {
		s.Require().NoError(t.Insert(rowFor(id)))
	}
}

// scanKeys walks the leaf chain through the cursor API.
func (s *TableTestSuite) scanKeys(t *Table) []uint32 {
	cursor, err := t.Start()
	s.Require().NoError(err)

	var keys []uint32
	for !cursor.EndOfTable() {
		row, err := cursor.Row()
		s.Require().NoError(err)
		keys = append(keys, row.ID)
		s.Require().NoError(cursor.Advance())
	}
	return keys
}

// collectKeys gathers every key by in-order tree descent, verifying the
// structural invariants on the way down.
func (s *TableTestSuite) collectKeys(t *Table, pageNum uint32, expectParent uint32, expectRoot bool) []uint32 {
	page, err := t.Pager().Page(pageNum)
	s.Require().NoError(err)

	s.Require().Equal(expectRoot, storage.IsRoot(page), "is-root flag on page %d", pageNum)
	if !expectRoot {
		s.Require().Equal(expectParent, storage.NodeParent(page), "parent pointer of page %d", pageNum)
	}

	if storage.GetNodeType(page) == storage.NodeLeaf {
		leaf := storage.Leaf(page)
		var keys []uint32
		for i := uint32(0); i < leaf.NumCells(); i++ {
			keys = append(keys, leaf.Key(i))
		}
		return keys
	}

	node := storage.Internal(page)
	var keys []uint32
	for i := uint32(0); i < node.NumKeys(); i++ {
		subtree := s.collectKeys(t, node.Child(i), pageNum, false)
		s.Require().NotEmpty(subtree)
		s.Require().Equal(node.Key(i), subtree[len(subtree)-1],
			"cell key %d of page %d must be the subtree max", i, pageNum)
		keys = append(keys, subtree...)
	}

	right := s.collectKeys(t, node.Child(node.NumKeys()), pageNum, false)
	s.Require().NotEmpty(right)
	if node.NumKeys() > 0 {
		s.Require().Greater(right[0], node.Key(node.NumKeys()-1),
			"right child of page %d must hold strictly greater keys", pageNum)
	}
	return append(keys, right...)
}

// validate checks every tree invariant and returns the in-order keys.
func (s *TableTestSuite) validate(t *Table) []uint32 {
	treeKeys := s.collectKeys(t, t.RootPage(), 0, true)

	for i := 1; i < len(treeKeys); i++ {
		s.Require().Greater(treeKeys[i], treeKeys[i-1], "keys must be strictly ascending")
	}

	chainKeys := s.scanKeys(t)
	s.Require().Equal(treeKeys, chainKeys, "leaf chain must agree with tree order")

	return treeKeys
}

func seq(from, to uint32) []uint32 {
	ids := make([]uint32, 0, to-from+1)
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return ids
}

func (s *TableTestSuite) TestOpen_EmptyFileInitializesRootLeaf() {
	t := s.open("empty.db")

	page, err := t.Pager().Page(0)
	s.NoError(err)
	s.Equal(storage.NodeLeaf, storage.GetNodeType(page))
	s.True(storage.IsRoot(page))
	s.Equal(uint32(0), storage.Leaf(page).NumCells())

	cursor, err := t.Start()
	s.NoError(err)
	s.True(cursor.EndOfTable())

	s.NoError(t.Close())
}

func (s *TableTestSuite) TestInsert_SingleRow() {
	t := s.open("single.db")
	s.insert(t, 1)

	keys := s.validate(t)
	s.Equal([]uint32{1}, keys)

	cursor, err := t.Start()
	s.NoError(err)
	row, err := cursor.Row()
	s.NoError(err)
	s.Equal(rowFor(1), row)

	s.NoError(t.Close())
}

func (s *TableTestSuite) TestInsert_DuplicateKey() {
	t := s.open("dup.db")
	s.insert(t, 1)

	err := t.Insert(rowFor(1))
	s.ErrorIs(err, ErrDuplicateKey)

	// No observable change.
	s.Equal([]uint32{1}, s.validate(t))

	s.NoError(t.Close())
}

func (s *TableTestSuite) TestInsert_FillsOneLeaf() {
	t := s.open("oneleaf.db")
	s.insert(t, seq(1, storage.LeafNodeMaxCells)...)

	page, err := t.Pager().Page(0)
	s.NoError(err)
	s.Equal(storage.NodeLeaf, storage.GetNodeType(page))
	s.Equal(seq(1, storage.LeafNodeMaxCells), s.validate(t))

	s.NoError(t.Close())
}

func (s *TableTestSuite) TestInsert_LeafSplit() {
	t := s.open("split.db")
	s.insert(t, seq(1, storage.LeafNodeMaxCells+1)...)

	root, err := t.Pager().Page(0)
	s.NoError(err)
	s.Equal(storage.NodeInternal, storage.GetNodeType(root))

	node := storage.Internal(root)
	s.Equal(uint32(1), node.NumKeys())
	s.Equal(uint32(storage.LeafNodeLeftSplitCount), node.Key(0))

	left, err := t.Pager().Page(node.Child(0))
	s.NoError(err)
	right, err := t.Pager().Page(node.Child(1))
	s.NoError(err)
	s.Equal(uint32(storage.LeafNodeLeftSplitCount), storage.Leaf(left).NumCells())
	s.Equal(uint32(storage.LeafNodeRightSplitCount), storage.Leaf(right).NumCells())

	// The leaf chain runs left to right.
	s.Equal(node.Child(1), storage.Leaf(left).NextLeaf())
	s.Equal(uint32(0), storage.Leaf(right).NextLeaf())

	s.Equal(seq(1, storage.LeafNodeMaxCells+1), s.validate(t))

	s.NoError(t.Close())
}

func (s *TableTestSuite) TestInsert_InternalSplit() {
	// Enough sequential inserts to overflow the root internal node and
	// grow the tree to depth two.
	t := s.open("deep.db")
	s.insert(t, seq(1, 60)...)

	root, err := t.Pager().Page(0)
	s.NoError(err)
	s.Require().Equal(storage.NodeInternal, storage.GetNodeType(root))

	firstChild, err := t.Pager().Page(storage.Internal(root).Child(0))
	s.NoError(err)
	s.Equal(storage.NodeInternal, storage.GetNodeType(firstChild), "tree must have depth at least two")

	s.Equal(seq(1, 60), s.validate(t))

	s.NoError(t.Close())
}

func (s *TableTestSuite) TestInsert_RandomOrder() {
	t := s.open("random.db")

	const n = 120
	r := rand.New(rand.NewSource(42))
	for _, i := range r.Perm(n) {
		s.Require().NoError(t.Insert(rowFor(uint32(i + 1))))
	}

	s.Equal(seq(1, n), s.validate(t))

	s.NoError(t.Close())
}

func (s *TableTestSuite) TestPersistence_CloseAndReopen() {
	path := filepath.Join(s.dir, "persist.db")

	t, err := OpenTable(path)
	s.Require().NoError(err)
	s.insert(t, seq(1, 50)...)
	before := s.validate(t)
	s.NoError(t.Close())

	info, err := os.Stat(path)
	s.NoError(err)
	s.Equal(int64(0), info.Size()%storage.PageSize, "file length must be a whole number of pages")

	reopened, err := OpenTable(path)
	s.Require().NoError(err)
	s.Equal(before, s.validate(reopened))
	s.NoError(reopened.Close())
}

func (s *TableTestSuite) TestInsert_TableFull() {
	t := s.open("full.db")

	var err error
	for id := uint32(1); id <= 2000; id++ {
		if err = t.Insert(rowFor(id)); err != nil {
			break
		}
	}

	s.ErrorIs(err, ErrTableFull)
	_ = t.Close()
}
