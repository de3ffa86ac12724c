package storage

// PageSize is the fixed size of every database page. One page holds one node.
const PageSize = 4096

// TableMaxPages bounds the pager's resident page array.
const TableMaxPages = 100

// InvalidPageNum marks a child slot that points at no page.
const InvalidPageNum = ^uint32(0)

// Row column limits. Serialized strings carry a trailing NUL.
const (
	UsernameSize = 32
	EmailSize    = 255

	IDSize         = 4
	UsernameOffset = IDSize
	EmailOffset    = UsernameOffset + UsernameSize + 1

	// RowSize is the serialized size of a row: a little-endian uint32 id
	// followed by the NUL-terminated username and email.
	RowSize = IDSize + UsernameSize + 1 + EmailSize + 1
)

// Common node header, shared by both node types.
//
// offset 0: node type (1 byte)
// offset 1: is-root flag (1 byte)
// offset 2: parent page number (4 bytes)
const (
	nodeTypeOffset       = 0
	isRootOffset         = 1
	parentPointerOffset  = 2
	CommonNodeHeaderSize = 6
)

// Leaf node layout. The header extends the common header with the cell
// count and the next-leaf pointer; the body is a packed array of
// (key, row) cells.
const (
	leafNumCellsOffset = CommonNodeHeaderSize
	leafNextLeafOffset = leafNumCellsOffset + 4
	LeafNodeHeaderSize = CommonNodeHeaderSize + 4 + 4

	LeafNodeKeySize       = 4
	LeafNodeValueSize     = RowSize
	LeafNodeCellSize      = LeafNodeKeySize + LeafNodeValueSize
	LeafNodeSpaceForCells = PageSize - LeafNodeHeaderSize
	LeafNodeMaxCells      = LeafNodeSpaceForCells / LeafNodeCellSize

	LeafNodeRightSplitCount = (LeafNodeMaxCells + 1) / 2
	LeafNodeLeftSplitCount  = (LeafNodeMaxCells + 1) - LeafNodeRightSplitCount
)

// Internal node layout. The body is a packed array of (child, key) cells;
// the right child is stored separately in the header and holds every key
// strictly greater than the last cell key.
const (
	internalNumKeysOffset    = CommonNodeHeaderSize
	internalRightChildOffset = internalNumKeysOffset + 4
	InternalNodeHeaderSize   = CommonNodeHeaderSize + 4 + 4

	InternalNodeChildSize = 4
	InternalNodeKeySize   = 4
	InternalNodeCellSize  = InternalNodeChildSize + InternalNodeKeySize

	// InternalNodeMaxCells is kept deliberately small to exercise splits.
	InternalNodeMaxCells = 3
)
