package storage

import (
	"errors"
	"fmt"

	"github.com/Schuyweiz/simple-db/pager"
)

// Table is the on-disk B+ tree façade: one file, one fixed schema, one
// root page. Reads and writes go through Pager's page cache; Table
// only ever sees parsed Node values.
type Table struct {
	Pager       *pager.Pager
	RootPageNum uint32
}

// OpenTable opens (or creates) the database file at path. A brand new
// file gets a single empty leaf at page 0, marked root.
func OpenTable(path string) (*Table, error) {
	p, err := pager.OpenPager(path)
	if err != nil {
		return nil, fmt.Errorf("OpenTable: %w", err)
	}

	t := &Table{Pager: p}
	if p.NumPages == 0 {
		pageNum, err := p.AllocatePage()
		if err != nil {
			return nil, fmt.Errorf("OpenTable: %w", err)
		}
		root := NewLeafNode(pageNum, true)
		if err := t.storeNode(root); err != nil {
			return nil, fmt.Errorf("OpenTable: %w", err)
		}
		t.RootPageNum = pageNum
	}
	return t, nil
}

// Close flushes every dirty page and closes the underlying file.
func (t *Table) Close() error {
	return t.Pager.Close()
}

func (t *Table) loadNode(pageNum uint32) (Node, error) {
	pg, err := t.Pager.GetPage(pageNum)
	if err != nil {
		return nil, fmt.Errorf("loadNode: %w", err)
	}
	return DeserializeNode(pageNum, pg.Data[:])
}

func (t *Table) loadLeaf(pageNum uint32) (*LeafNode, error) {
	n, err := t.loadNode(pageNum)
	if err != nil {
		return nil, err
	}
	leaf, ok := n.(*LeafNode)
	if !ok {
		return nil, fmt.Errorf("loadLeaf: page %d is not a leaf: %w", pageNum, ErrCorruptPage)
	}
	return leaf, nil
}

func (t *Table) loadInternal(pageNum uint32) (*InternalNode, error) {
	n, err := t.loadNode(pageNum)
	if err != nil {
		return nil, err
	}
	in, ok := n.(*InternalNode)
	if !ok {
		return nil, fmt.Errorf("loadInternal: page %d is not internal: %w", pageNum, ErrCorruptPage)
	}
	return in, nil
}

func (t *Table) storeNode(n Node) error {
	pg, err := t.Pager.GetPage(n.PageNum())
	if err != nil {
		return fmt.Errorf("storeNode: %w", err)
	}
	copy(pg.Data[:], n.Serialize())
	pg.Dirty = true
	return nil
}

func (t *Table) allocatePage() (uint32, error) {
	pageNum, err := t.Pager.AllocatePage()
	if err != nil {
		if errors.Is(err, pager.ErrTableFull) {
			return 0, fmt.Errorf("allocatePage: %w", ErrCapacityExceeded)
		}
		return 0, err
	}
	return pageNum, nil
}

// Insert descends to the leaf that should hold row.ID, rejects a
// duplicate key, and otherwise inserts in place or splits the leaf.
func (t *Table) Insert(row Row) error {
	c, err := t.find(row.ID)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	leaf, err := t.loadLeaf(c.pageNum)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	if c.cellNum < leaf.CellCount() && leaf.Key(c.cellNum) == row.ID {
		return fmt.Errorf("Insert: id %d: %w", row.ID, ErrDuplicateKey)
	}

	var buf [RowSize]byte
	if err := SerializeRow(row, buf[:]); err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	if leaf.CellCount() < LeafNodeMaxCells {
		leaf.InsertCellAt(c.cellNum, row.ID, buf[:])
		return t.storeNode(leaf)
	}
	return t.splitLeafAndInsert(leaf, c.cellNum, row.ID, buf[:])
}

// splitLeafAndInsert redistributes leaf's cells plus the new one
// across leaf (kept, left half) and a freshly allocated sibling (right
// half), then wires the sibling into the tree.
//
// Nothing is persisted (no storeNode call) until every failure mode
// that can still occur has been ruled out: a non-root split must be
// routable through the parent, which can fail with
// ErrCapacityExceeded. That check happens up front, against the
// unmodified parent and leaf, so a failure here leaves the on-disk
// tree exactly as it was — never a split that is visible via Select
// but missing from its parent's routing cell.
func (t *Table) splitLeafAndInsert(leaf *LeafNode, idx int, key uint64, value []byte) error {
	var parent *InternalNode
	if !leaf.IsRoot() {
		p, err := t.loadInternal(uint32(leaf.ParentPageNum()))
		if err != nil {
			return fmt.Errorf("splitLeafAndInsert: %w", err)
		}
		if p.KeyCount() >= InternalNodeMaxCells {
			return fmt.Errorf("splitLeafAndInsert: parent %d: %w", p.PageNum(), ErrCapacityExceeded)
		}
		parent = p
	}

	all := make([]LeafCell, 0, LeafNodeMaxCells+1)
	all = append(all, leaf.cells[:idx]...)
	var newCell LeafCell
	newCell.Key = key
	copy(newCell.Value[:], value)
	all = append(all, newCell)
	all = append(all, leaf.cells[idx:]...)

	splitPoint := len(all) / 2

	newPageNum, err := t.allocatePage()
	if err != nil {
		return fmt.Errorf("splitLeafAndInsert: %w", err)
	}
	newLeaf := NewLeafNode(newPageNum, false)
	newLeaf.cells = append(newLeaf.cells, all[splitPoint:]...)
	newLeaf.nextLeaf = leaf.nextLeaf
	newLeaf.SetParentPageNum(leaf.ParentPageNum())

	leaf.cells = leaf.cells[:0]
	leaf.cells = append(leaf.cells, all[:splitPoint]...)
	leaf.nextLeaf = uint64(newPageNum)

	if leaf.IsRoot() {
		return t.createNewRoot(leaf, newLeaf)
	}

	if err := t.storeNode(leaf); err != nil {
		return err
	}
	if err := t.storeNode(newLeaf); err != nil {
		return err
	}
	return t.insertIntoParent(parent, leaf, newLeaf)
}

// createNewRoot handles the one case where a split reaches the root:
// the root's page number never changes, so its current (left-half)
// contents are copied out to a brand new page, and the root page
// itself is overwritten in place as an internal node routing to the
// new left page and the already-allocated right page.
func (t *Table) createNewRoot(rootLeaf *LeafNode, rightLeaf *LeafNode) error {
	leftPageNum, err := t.allocatePage()
	if err != nil {
		return fmt.Errorf("createNewRoot: %w", err)
	}
	leftLeaf := NewLeafNode(leftPageNum, false)
	leftLeaf.cells = append(leftLeaf.cells, rootLeaf.cells...)
	leftLeaf.nextLeaf = uint64(rightLeaf.PageNum())
	leftLeaf.SetParentPageNum(uint64(rootLeaf.PageNum()))

	rightLeaf.SetParentPageNum(uint64(rootLeaf.PageNum()))
	rightLeaf.SetIsRoot(false)

	newRoot := NewInternalNode(rootLeaf.PageNum(), true)
	newRoot.InsertKeyChildAt(0, leftLeaf.MaxKey(), uint64(leftPageNum))
	newRoot.SetRightChild(uint64(rightLeaf.PageNum()))

	if err := t.storeNode(leftLeaf); err != nil {
		return err
	}
	if err := t.storeNode(rightLeaf); err != nil {
		return err
	}
	if err := t.storeNode(newRoot); err != nil {
		return err
	}
	t.RootPageNum = rootLeaf.PageNum()
	return nil
}

// insertIntoParent wires a freshly split-off right sibling into
// parent (left's parent, already loaded and capacity-checked by
// splitLeafAndInsert before left/right were persisted). If left was
// parent's right child, a cell for left (keyed by its max key) is
// appended and right becomes the new right child. Otherwise the
// routing key that used to cover left's whole range is rewritten down
// to left's new (smaller) max key, and a new cell for right is
// inserted immediately after it.
func (t *Table) insertIntoParent(parent *InternalNode, left, right Node) error {
	leftPage := uint64(left.PageNum())
	rightPage := uint64(right.PageNum())

	wasRightChild := parent.RightChild() == leftPage
	idx := -1
	if !wasRightChild {
		for i := 0; i < parent.KeyCount(); i++ {
			if parent.InternalChild(i) == leftPage {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("insertIntoParent: child page %d not found in parent %d: %w", leftPage, parent.PageNum(), ErrCorruptPage)
		}
	}

	if wasRightChild {
		parent.InsertKeyChildAt(parent.KeyCount(), left.MaxKey(), leftPage)
		parent.SetRightChild(rightPage)
	} else {
		parent.cells[idx].Key = left.MaxKey()
		parent.InsertKeyChildAt(idx+1, right.MaxKey(), rightPage)
	}

	return t.storeNode(parent)
}

// find descends from the root to the leaf that should hold key,
// returning a cursor positioned at key's cell if present, or at the
// index key would be inserted at otherwise.
func (t *Table) find(key uint64) (*Cursor, error) {
	node, err := t.loadNode(t.RootPageNum)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	for {
		switch n := node.(type) {
		case *LeafNode:
			return &Cursor{table: t, pageNum: n.PageNum(), cellNum: n.FindCell(key)}, nil
		case *InternalNode:
			child := n.ChildAt(n.FindChild(key))
			node, err = t.loadNode(uint32(child))
			if err != nil {
				return nil, fmt.Errorf("find: %w", err)
			}
		default:
			return nil, fmt.Errorf("find: %w", ErrCorruptPage)
		}
	}
}

// Start returns a cursor positioned at the first row in key order.
func (t *Table) Start() (*Cursor, error) {
	c, err := t.find(0)
	if err != nil {
		return nil, fmt.Errorf("Start: %w", err)
	}
	leaf, err := t.loadLeaf(c.pageNum)
	if err != nil {
		return nil, fmt.Errorf("Start: %w", err)
	}
	c.endOfTable = leaf.CellCount() == 0
	return c, nil
}

// Select returns every row in ascending key order.
func (t *Table) Select() ([]Row, error) {
	c, err := t.Start()
	if err != nil {
		return nil, fmt.Errorf("Select: %w", err)
	}

	var rows []Row
	for !c.EndOfTable() {
		value, err := c.Value()
		if err != nil {
			return nil, fmt.Errorf("Select: %w", err)
		}
		row, err := DeserializeRow(value)
		if err != nil {
			return nil, fmt.Errorf("Select: %w", err)
		}
		rows = append(rows, row)
		if err := c.Advance(); err != nil {
			return nil, fmt.Errorf("Select: %w", err)
		}
	}
	return rows, nil
}

// Flush writes every dirty page to disk without closing the file.
func (t *Table) Flush() error {
	return t.Pager.FlushAll()
}
