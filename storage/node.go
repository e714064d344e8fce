package storage

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Node is the common surface shared by leaf and internal pages: the
// header fields every node carries, plus serialization. Operations
// specific to one variant (cell lookup, insertion) live on the
// concrete *LeafNode / *InternalNode types, mirroring the tagged-union
// shape of the on-disk format itself.
type Node interface {
	PageNum() uint32
	IsLeaf() bool
	IsRoot() bool
	SetIsRoot(bool)
	ParentPageNum() uint64
	SetParentPageNum(uint64)
	// MaxKey returns the largest key in this node's subtree view: the
	// last cell's key for a leaf, or the last routing key for an
	// internal node.
	MaxKey() uint64
	Serialize() []byte
}

type header struct {
	pageNum       uint32
	isRoot        bool
	parentPageNum uint64
}

func (h *header) PageNum() uint32          { return h.pageNum }
func (h *header) IsRoot() bool             { return h.isRoot }
func (h *header) SetIsRoot(v bool)         { h.isRoot = v }
func (h *header) ParentPageNum() uint64    { return h.parentPageNum }
func (h *header) SetParentPageNum(p uint64) { h.parentPageNum = p }

func (h *header) writeCommon(buf []byte, nt nodeType) {
	buf[nodeTypeOffset] = byte(nt)
	if h.isRoot {
		buf[isRootOffset] = 1
	} else {
		buf[isRootOffset] = 0
	}
	binary.LittleEndian.PutUint64(buf[parentPageOffset:parentPageEndByte], h.parentPageNum)
}

func (h *header) readCommon(buf []byte) {
	h.isRoot = buf[isRootOffset] == 1
	h.parentPageNum = binary.LittleEndian.Uint64(buf[parentPageOffset:parentPageEndByte])
}

// LeafCell is one (key, row) entry in a leaf node.
type LeafCell struct {
	Key   uint64
	Value [RowSize]byte
}

// LeafNode holds the rows belonging to one leaf page, sorted ascending
// by key, plus a pointer to the next leaf in key order (0 if none).
type LeafNode struct {
	header
	nextLeaf uint64
	cells    []LeafCell
}

// NewLeafNode builds an empty leaf bound to pageNum. It is not written
// to the pager until Serialize/the caller stores it back.
func NewLeafNode(pageNum uint32, isRoot bool) *LeafNode {
	return &LeafNode{
		header: header{pageNum: pageNum, isRoot: isRoot},
		cells:  make([]LeafCell, 0, LeafNodeMaxCells+1),
	}
}

func (n *LeafNode) IsLeaf() bool { return true }

func (n *LeafNode) MaxKey() uint64 {
	if len(n.cells) == 0 {
		return 0
	}
	return n.cells[len(n.cells)-1].Key
}

func (n *LeafNode) CellCount() int         { return len(n.cells) }
func (n *LeafNode) Key(i int) uint64       { return n.cells[i].Key }
func (n *LeafNode) Value(i int) []byte     { return n.cells[i].Value[:] }
func (n *LeafNode) NextLeaf() uint64       { return n.nextLeaf }
func (n *LeafNode) SetNextLeaf(p uint64)   { n.nextLeaf = p }

// FindCell returns the index of key if present, else the smallest
// index i such that Key(i) > key (the position key would occupy).
func (n *LeafNode) FindCell(key uint64) int {
	return sort.Search(len(n.cells), func(i int) bool { return n.cells[i].Key >= key })
}

// InsertCellAt inserts (key, value) at index i, shifting later cells
// right. The caller must have checked CellCount() < LeafNodeMaxCells.
func (n *LeafNode) InsertCellAt(i int, key uint64, value []byte) {
	if len(n.cells) >= LeafNodeMaxCells {
		panic("storage: InsertCellAt on a full leaf node")
	}
	var cell LeafCell
	cell.Key = key
	copy(cell.Value[:], value)
	n.cells = append(n.cells, LeafCell{})
	copy(n.cells[i+1:], n.cells[i:])
	n.cells[i] = cell
}

// RemoveCell deletes the cell at index i, shifting later cells left.
func (n *LeafNode) RemoveCell(i int) {
	n.cells = append(n.cells[:i], n.cells[i+1:]...)
}

// PushCell appends a cell without any ordering check. Used only
// during split redistribution, where the caller maintains order.
func (n *LeafNode) PushCell(c LeafCell) {
	n.cells = append(n.cells, c)
}

func (n *LeafNode) Serialize() []byte {
	buf := make([]byte, PageSize)
	n.writeCommon(buf, nodeTypeLeaf)
	binary.LittleEndian.PutUint64(buf[leafCellsCountOffset:leafCellsCountOffset+8], uint64(len(n.cells)))
	binary.LittleEndian.PutUint64(buf[leafNextLeafOffset:leafNextLeafOffset+8], n.nextLeaf)

	off := leafHeaderSize
	for _, c := range n.cells {
		binary.LittleEndian.PutUint64(buf[off:off+IDSize], c.Key)
		copy(buf[off+IDSize:off+leafCellSize], c.Value[:])
		off += leafCellSize
	}
	return buf
}

// DeserializeLeafNode parses a page previously written by
// (*LeafNode).Serialize. pageNum is supplied by the caller (Table's
// page-load path), since the page's own byte layout does not carry it.
func DeserializeLeafNode(pageNum uint32, buf []byte) (*LeafNode, error) {
	if buf[nodeTypeOffset] != byte(nodeTypeLeaf) {
		return nil, fmt.Errorf("DeserializeLeafNode: page %d: %w", pageNum, ErrCorruptPage)
	}
	n := &LeafNode{header: header{pageNum: pageNum}}
	n.readCommon(buf)
	n.nextLeaf = binary.LittleEndian.Uint64(buf[leafNextLeafOffset : leafNextLeafOffset+8])
	count := binary.LittleEndian.Uint64(buf[leafCellsCountOffset : leafCellsCountOffset+8])
	if leafHeaderSize+int(count)*leafCellSize > PageSize {
		return nil, fmt.Errorf("DeserializeLeafNode: page %d: cells_count %d overflows page: %w", pageNum, count, ErrCorruptPage)
	}

	n.cells = make([]LeafCell, count)
	off := leafHeaderSize
	for i := range n.cells {
		n.cells[i].Key = binary.LittleEndian.Uint64(buf[off : off+IDSize])
		copy(n.cells[i].Value[:], buf[off+IDSize:off+leafCellSize])
		off += leafCellSize
	}
	return n, nil
}

// InternalCell is one (routing key, child page) entry in an internal
// node: every key in the subtree rooted at Child is <= Key.
type InternalCell struct {
	Key   uint64
	Child uint64
}

// InternalNode routes descent to children: keyCount ordered cells plus
// a right-child pointer for keys greater than the last routing key.
type InternalNode struct {
	header
	rightChild uint64
	cells      []InternalCell
}

func NewInternalNode(pageNum uint32, isRoot bool) *InternalNode {
	return &InternalNode{
		header: header{pageNum: pageNum, isRoot: isRoot},
		cells:  make([]InternalCell, 0, InternalNodeMaxCells+1),
	}
}

func (n *InternalNode) IsLeaf() bool { return false }

func (n *InternalNode) MaxKey() uint64 {
	if len(n.cells) == 0 {
		return 0
	}
	return n.cells[len(n.cells)-1].Key
}

func (n *InternalNode) KeyCount() int           { return len(n.cells) }
func (n *InternalNode) InternalKey(i int) uint64 { return n.cells[i].Key }
func (n *InternalNode) InternalChild(i int) uint64 { return n.cells[i].Child }
func (n *InternalNode) RightChild() uint64      { return n.rightChild }
func (n *InternalNode) SetRightChild(p uint64)  { n.rightChild = p }

// FindChild returns the smallest index i such that InternalKey(i) >=
// key, or KeyCount() if every routing key is smaller (descent follows
// RightChild in that case).
func (n *InternalNode) FindChild(key uint64) int {
	return sort.Search(len(n.cells), func(i int) bool { return n.cells[i].Key >= key })
}

// ChildAt resolves a descent index produced by FindChild to a page
// number: InternalChild(i) for i < KeyCount(), else RightChild().
func (n *InternalNode) ChildAt(i int) uint64 {
	if i < len(n.cells) {
		return n.cells[i].Child
	}
	return n.rightChild
}

// InsertKeyChildAt inserts (key, child) at index i, shifting later
// cells right. The caller must have checked KeyCount() <
// InternalNodeMaxCells.
func (n *InternalNode) InsertKeyChildAt(i int, key, child uint64) {
	if len(n.cells) >= InternalNodeMaxCells {
		panic("storage: InsertKeyChildAt on a full internal node")
	}
	n.cells = append(n.cells, InternalCell{})
	copy(n.cells[i+1:], n.cells[i:])
	n.cells[i] = InternalCell{Key: key, Child: child}
}

// UpdateKey rewrites the routing key currently equal to oldKey to
// newKey, used after a child's max key has shifted (e.g. a leaf
// split that shrank the left sibling).
func (n *InternalNode) UpdateKey(oldKey, newKey uint64) {
	i := n.FindChild(oldKey)
	n.cells[i].Key = newKey
}

func (n *InternalNode) Serialize() []byte {
	buf := make([]byte, PageSize)
	n.writeCommon(buf, nodeTypeInternal)
	binary.LittleEndian.PutUint64(buf[internalKeysCountOffset:internalKeysCountOffset+8], uint64(len(n.cells)))
	binary.LittleEndian.PutUint64(buf[internalRightChildOffset:internalRightChildOffset+8], n.rightChild)

	off := internalHeaderSize
	for _, c := range n.cells {
		binary.LittleEndian.PutUint64(buf[off:off+IDSize], c.Key)
		binary.LittleEndian.PutUint64(buf[off+IDSize:off+internalCellSize], c.Child)
		off += internalCellSize
	}
	return buf
}

// DeserializeInternalNode parses a page previously written by
// (*InternalNode).Serialize.
func DeserializeInternalNode(pageNum uint32, buf []byte) (*InternalNode, error) {
	if buf[nodeTypeOffset] != byte(nodeTypeInternal) {
		return nil, fmt.Errorf("DeserializeInternalNode: page %d: %w", pageNum, ErrCorruptPage)
	}
	n := &InternalNode{header: header{pageNum: pageNum}}
	n.readCommon(buf)
	n.rightChild = binary.LittleEndian.Uint64(buf[internalRightChildOffset : internalRightChildOffset+8])
	count := binary.LittleEndian.Uint64(buf[internalKeysCountOffset : internalKeysCountOffset+8])
	if internalHeaderSize+int(count)*internalCellSize > PageSize {
		return nil, fmt.Errorf("DeserializeInternalNode: page %d: keys_count %d overflows page: %w", pageNum, count, ErrCorruptPage)
	}

	n.cells = make([]InternalCell, count)
	off := internalHeaderSize
	for i := range n.cells {
		n.cells[i].Key = binary.LittleEndian.Uint64(buf[off : off+IDSize])
		n.cells[i].Child = binary.LittleEndian.Uint64(buf[off+IDSize : off+internalCellSize])
		off += internalCellSize
	}
	return n, nil
}

// DeserializeNode dispatches on the node_type byte to build the right
// concrete type. Used by the pager-facing load path in table.go,
// which does not otherwise know which variant a page holds.
func DeserializeNode(pageNum uint32, buf []byte) (Node, error) {
	switch nodeType(buf[nodeTypeOffset]) {
	case nodeTypeLeaf:
		return DeserializeLeafNode(pageNum, buf)
	case nodeTypeInternal:
		return DeserializeInternalNode(pageNum, buf)
	default:
		return nil, fmt.Errorf("DeserializeNode: page %d: unknown node type %d: %w", pageNum, buf[nodeTypeOffset], ErrCorruptPage)
	}
}
