package storage

import (
	"encoding/binary"
	"fmt"
)

// NodeType discriminates the two page layouts.
type NodeType byte

const (
	// NodeInternal internal node page
	NodeInternal NodeType = 0

	// NodeLeaf leaf node page
	NodeLeaf NodeType = 1
)

// GetNodeType reads the type byte from a raw page.
func GetNodeType(page []byte) NodeType {
	return NodeType(page[nodeTypeOffset])
}

// SetNodeType writes the type byte on a raw page.
func SetNodeType(page []byte, t NodeType) {
	page[nodeTypeOffset] = byte(t)
}

// IsRoot reports whether the node's is-root flag is set.
func IsRoot(page []byte) bool {
	return page[isRootOffset] != 0
}

// SetRoot sets or clears the is-root flag.
func SetRoot(page []byte, root bool) {
	if root {
		page[isRootOffset] = 1
	} else {
		page[isRootOffset] = 0
	}
}

// NodeParent returns the page number of the node's parent.
func NodeParent(page []byte) uint32 {
	return binary.LittleEndian.Uint32(page[parentPointerOffset:])
}

// SetNodeParent records the page number of the node's parent.
func SetNodeParent(page []byte, parent uint32) {
	binary.LittleEndian.PutUint32(page[parentPointerOffset:], parent)
}

// LeafNode is a typed view over a raw page holding a leaf node.
type LeafNode struct {
	page []byte
}

// Leaf wraps a raw page in a leaf view. The caller is responsible for
// having checked the node type.
func Leaf(page []byte) LeafNode {
	return LeafNode{page: page}
}

// Init formats the page as an empty non-root leaf. A zero next-leaf
// pointer means the leaf is the last in the chain.
func (n LeafNode) Init() {
	SetNodeType(n.page, NodeLeaf)
	SetRoot(n.page, false)
	n.SetNumCells(0)
	n.SetNextLeaf(0)
}

// NumCells returns the number of occupied cells.
func (n LeafNode) NumCells() uint32 {
	return binary.LittleEndian.Uint32(n.page[leafNumCellsOffset:])
}

// SetNumCells records the number of occupied cells.
func (n LeafNode) SetNumCells(v uint32) {
	binary.LittleEndian.PutUint32(n.page[leafNumCellsOffset:], v)
}

// NextLeaf returns the page number of the next leaf in key order, or zero
// at the end of the chain.
func (n LeafNode) NextLeaf() uint32 {
	return binary.LittleEndian.Uint32(n.page[leafNextLeafOffset:])
}

// SetNextLeaf records the next leaf in key order.
func (n LeafNode) SetNextLeaf(v uint32) {
	binary.LittleEndian.PutUint32(n.page[leafNextLeafOffset:], v)
}

// Cell returns the raw (key, value) cell at index i.
func (n LeafNode) Cell(i uint32) []byte {
	off := LeafNodeHeaderSize + i*LeafNodeCellSize
	return n.page[off : off+LeafNodeCellSize]
}

// Key returns the key of cell i.
func (n LeafNode) Key(i uint32) uint32 {
	return binary.LittleEndian.Uint32(n.Cell(i))
}

// SetKey writes the key of cell i.
func (n LeafNode) SetKey(i uint32, key uint32) {
	binary.LittleEndian.PutUint32(n.Cell(i), key)
}

// Value returns the RowSize-byte value slot of cell i.
func (n LeafNode) Value(i uint32) []byte {
	return n.Cell(i)[LeafNodeKeySize:]
}

// InternalNode is a typed view over a raw page holding an internal node.
type InternalNode struct {
	page []byte
}

// Internal wraps a raw page in an internal-node view.
func Internal(page []byte) InternalNode {
	return InternalNode{page: page}
}

// Init formats the page as an empty non-root internal node. An internal
// node with an invalid right child holds no children at all.
func (n InternalNode) Init() {
	SetNodeType(n.page, NodeInternal)
	SetRoot(n.page, false)
	n.SetNumKeys(0)
	n.SetRightChild(InvalidPageNum)
}

// NumKeys returns the number of occupied cells.
func (n InternalNode) NumKeys() uint32 {
	return binary.LittleEndian.Uint32(n.page[internalNumKeysOffset:])
}

// SetNumKeys records the number of occupied cells.
func (n InternalNode) SetNumKeys(v uint32) {
	binary.LittleEndian.PutUint32(n.page[internalNumKeysOffset:], v)
}

// RightChild returns the right child slot as stored, including the
// InvalidPageNum sentinel. Use Child to resolve children for traversal.
func (n InternalNode) RightChild() uint32 {
	return binary.LittleEndian.Uint32(n.page[internalRightChildOffset:])
}

// SetRightChild records the right child page.
func (n InternalNode) SetRightChild(v uint32) {
	binary.LittleEndian.PutUint32(n.page[internalRightChildOffset:], v)
}

// Cell returns the raw (child, key) cell at index i.
func (n InternalNode) Cell(i uint32) []byte {
	off := InternalNodeHeaderSize + i*InternalNodeCellSize
	return n.page[off : off+InternalNodeCellSize]
}

// Child resolves the child pointer at index i; index NumKeys() resolves
// the right child. Indexes past NumKeys() and children holding the
// InvalidPageNum sentinel are programmer errors and panic.
func (n InternalNode) Child(i uint32) uint32 {
	numKeys := n.NumKeys()
	if i > numKeys {
		panic(fmt.Sprintf("storage: tried to access child %d > num keys %d", i, numKeys))
	}

	if i == numKeys {
		right := n.RightChild()
		if right == InvalidPageNum {
			panic("storage: tried to access right child of node, but was invalid page")
		}
		return right
	}

	child := n.CellChild(i)
	if child == InvalidPageNum {
		panic(fmt.Sprintf("storage: tried to access child %d of node, but was invalid page", i))
	}
	return child
}

// CellChild reads the child pointer stored in cell i without resolving
// the right child or checking for the invalid sentinel.
func (n InternalNode) CellChild(i uint32) uint32 {
	return binary.LittleEndian.Uint32(n.Cell(i))
}

// SetCellChild writes the child pointer of cell i.
func (n InternalNode) SetCellChild(i uint32, child uint32) {
	binary.LittleEndian.PutUint32(n.Cell(i), child)
}

// Key returns the key of cell i: the maximum key of the subtree rooted at
// that cell's child.
func (n InternalNode) Key(i uint32) uint32 {
	return binary.LittleEndian.Uint32(n.Cell(i)[InternalNodeChildSize:])
}

// SetKey writes the key of cell i.
func (n InternalNode) SetKey(i uint32, key uint32) {
	binary.LittleEndian.PutUint32(n.Cell(i)[InternalNodeChildSize:], key)
}
