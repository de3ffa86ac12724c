package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutConstants(t *testing.T) {
	assert.Equal(t, 6, CommonNodeHeaderSize)
	assert.Equal(t, 14, LeafNodeHeaderSize)
	assert.Equal(t, 297, LeafNodeCellSize)
	assert.Equal(t, 4082, LeafNodeSpaceForCells)
	assert.Equal(t, 13, LeafNodeMaxCells)
	assert.Equal(t, 7, LeafNodeLeftSplitCount)
	assert.Equal(t, 7, LeafNodeRightSplitCount)
	assert.Equal(t, 14, InternalNodeHeaderSize)
	assert.Equal(t, 8, InternalNodeCellSize)
}

func TestLeafNode_Init(t *testing.T) {
	page := make([]byte, PageSize)
	leaf := Leaf(page)
	leaf.Init()

	assert.Equal(t, NodeLeaf, GetNodeType(page))
	assert.False(t, IsRoot(page))
	assert.Equal(t, uint32(0), leaf.NumCells())
	assert.Equal(t, uint32(0), leaf.NextLeaf())
}

func TestLeafNode_Cells(t *testing.T) {
	page := make([]byte, PageSize)
	leaf := Leaf(page)
	leaf.Init()

	row := Row{ID: 7, Username: "user7", Email: "person7@example.com"}

	last := uint32(LeafNodeMaxCells - 1)
	leaf.SetKey(last, 7)
	row.Serialize(leaf.Value(last))
	leaf.SetNumCells(last + 1)

	assert.Equal(t, uint32(7), leaf.Key(last))
	assert.Equal(t, row, DeserializeRow(leaf.Value(last)))

	// The highest cell must still fit inside the page.
	require.LessOrEqual(t, LeafNodeHeaderSize+LeafNodeMaxCells*LeafNodeCellSize, PageSize)
}

func TestInternalNode_Init(t *testing.T) {
	page := make([]byte, PageSize)
	node := Internal(page)
	node.Init()

	assert.Equal(t, NodeInternal, GetNodeType(page))
	assert.Equal(t, uint32(0), node.NumKeys())
	assert.Equal(t, InvalidPageNum, node.RightChild())
}

func TestInternalNode_ChildResolution(t *testing.T) {
	page := make([]byte, PageSize)
	node := Internal(page)
	node.Init()

	node.SetNumKeys(2)
	node.SetCellChild(0, 3)
	node.SetKey(0, 10)
	node.SetCellChild(1, 4)
	node.SetKey(1, 20)
	node.SetRightChild(5)

	assert.Equal(t, uint32(3), node.Child(0))
	assert.Equal(t, uint32(4), node.Child(1))
	assert.Equal(t, uint32(5), node.Child(2))
	assert.Equal(t, uint32(10), node.Key(0))
	assert.Equal(t, uint32(20), node.Key(1))
}

func TestInternalNode_ChildOutOfBoundsPanics(t *testing.T) {
	page := make([]byte, PageSize)
	node := Internal(page)
	node.Init()
	node.SetNumKeys(1)
	node.SetCellChild(0, 2)
	node.SetRightChild(3)

	assert.Panics(t, func() { node.Child(2) })
}

func TestInternalNode_InvalidChildPanics(t *testing.T) {
	page := make([]byte, PageSize)
	node := Internal(page)
	node.Init()

	// Empty internal node: the right child is the invalid sentinel.
	assert.Panics(t, func() { node.Child(0) })

	node.SetNumKeys(1)
	node.SetCellChild(0, InvalidPageNum)
	node.SetRightChild(3)
	assert.Panics(t, func() { node.Child(0) })
}

func TestNodeHeader_ParentAndRoot(t *testing.T) {
	page := make([]byte, PageSize)
	leaf := Leaf(page)
	leaf.Init()

	SetRoot(page, true)
	assert.True(t, IsRoot(page))
	SetRoot(page, false)
	assert.False(t, IsRoot(page))

	SetNodeParent(page, 9)
	assert.Equal(t, uint32(9), NodeParent(page))
}
