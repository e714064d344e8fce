// Package storage implements the on-disk B+ tree: the row codec, the
// leaf/internal node formats, the insert algorithm (leaf split and
// root promotion), the cursor, and the Table façade that owns them
// all. It is built on top of package pager, which supplies a raw
// fixed-capacity page cache.
package storage

import "github.com/Schuyweiz/simple-db/pager"

const (
	// Row layout. IDSize mirrors a 64-bit machine word, matching the
	// original tutorial's `ID_SIZE = sizeof(usize)` on a 64-bit target.
	IDSize       = 8
	UsernameSize = 32
	EmailSize    = 255
	RowSize      = IDSize + UsernameSize + EmailSize

	// Common node header: node_type(1) + is_root(1) + parent_page_num(8).
	commonHeaderSize  = 10
	nodeTypeOffset    = 0
	isRootOffset      = 1
	parentPageOffset  = 2
	parentPageEndByte = parentPageOffset + IDSize

	// Leaf node header, appended after the common header.
	leafCellsCountOffset = commonHeaderSize
	leafNextLeafOffset   = leafCellsCountOffset + 8
	leafHeaderSize       = leafNextLeafOffset + 8 // 26
	leafCellSize         = IDSize + RowSize       // key + row
	LeafNodeMaxCells     = 3

	// Internal node header, appended after the common header.
	internalKeysCountOffset  = commonHeaderSize
	internalRightChildOffset = internalKeysCountOffset + 8
	internalHeaderSize       = internalRightChildOffset + 8 // 26
	internalCellSize         = IDSize + pageNumSize          // key + child page num
	InternalNodeMaxCells     = 3

	pageNumSize = 8
)

// nodeType is the first byte of every serialized page.
type nodeType uint8

const (
	nodeTypeLeaf     nodeType = 0
	nodeTypeInternal nodeType = 1
)

// PageSize and TableMaxPages re-export the pager's sizing constants so
// callers of this package never need to import pager just to read them.
const (
	PageSize      = pager.PageSize
	TableMaxPages = pager.TableMaxPages
)
